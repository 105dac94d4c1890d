package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds on first attempt", func(t *testing.T) {
		attempts := 0
		err := RetryWithBackoff(ctx, func() error {
			attempts++
			return nil
		}, 3, time.Millisecond)

		require.NoError(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("succeeds after retries", func(t *testing.T) {
		attempts := 0
		err := RetryWithBackoff(ctx, func() error {
			attempts++
			if attempts < 3 {
				return errors.New("transient")
			}
			return nil
		}, 5, time.Millisecond)

		require.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("returns last error when exhausted", func(t *testing.T) {
		attempts := 0
		lastErr := errors.New("persistent failure")
		err := RetryWithBackoff(ctx, func() error {
			attempts++
			return lastErr
		}, 3, time.Millisecond)

		assert.Equal(t, lastErr, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("invalid max attempts", func(t *testing.T) {
		err := RetryWithBackoff(ctx, func() error { return nil }, 0, time.Millisecond)
		assert.Equal(t, ErrInvalidMaxAttempts, err)
	})

	t.Run("cancelled context stops retrying", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		attempts := 0
		err := RetryWithBackoff(cancelled, func() error {
			attempts++
			return errors.New("never seen")
		}, 3, time.Millisecond)

		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, attempts)
	})

	t.Run("cancellation during backoff", func(t *testing.T) {
		timed, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		err := RetryWithBackoff(timed, func() error {
			return errors.New("always fails")
		}, 5, time.Second)

		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
