package ai

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/chunkd/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedder is a minimal Embedder double local to this package;
// ai cannot import ai/mock without a cycle.
type countingEmbedder struct {
	mu    sync.Mutex
	calls int
	fail  int // fail the first N calls
}

func (e *countingEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.calls <= e.fail {
		return nil, errors.New("upstream hiccup")
	}
	return []float32{1, 2, 3}, nil
}

func (e *countingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.calls <= e.fail {
		return nil, errors.New("upstream hiccup")
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, 2, 3}
	}
	return vectors, nil
}

func TestNewThrottledEmbedder(t *testing.T) {
	t.Run("valid configuration", func(t *testing.T) {
		throttled, err := NewThrottledEmbedder(&countingEmbedder{}, DefaultConfig())
		require.NoError(t, err)
		defer throttled.Close()
		assert.NotNil(t, throttled)
	})

	t.Run("nil inner embedder", func(t *testing.T) {
		_, err := NewThrottledEmbedder(nil, DefaultConfig())
		assert.Equal(t, ErrEmbedderRequired, err)
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MaxConcurrent = 0
		_, err := NewThrottledEmbedder(&countingEmbedder{}, cfg)
		assert.Error(t, err)
	})
}

func TestNewThrottledEmbedderWithPool(t *testing.T) {
	pool, err := ants.NewPool(2)
	require.NoError(t, err)
	defer pool.Release()

	t.Run("valid configuration", func(t *testing.T) {
		throttled, err := NewThrottledEmbedderWithPool(&countingEmbedder{}, pool, 3, time.Millisecond)
		require.NoError(t, err)
		assert.NotNil(t, throttled)
	})

	t.Run("nil pool", func(t *testing.T) {
		_, err := NewThrottledEmbedderWithPool(&countingEmbedder{}, nil, 3, time.Millisecond)
		assert.Equal(t, ErrPoolRequired, err)
	})

	t.Run("invalid max attempts", func(t *testing.T) {
		_, err := NewThrottledEmbedderWithPool(&countingEmbedder{}, pool, 0, time.Millisecond)
		assert.Equal(t, ErrInvalidMaxAttempts, err)
	})
}

func TestThrottledEmbedder_EmbedText(t *testing.T) {
	ctx := context.Background()

	t.Run("passes through on success", func(t *testing.T) {
		inner := &countingEmbedder{}
		throttled, err := NewThrottledEmbedder(inner, NewConfig(WithRetryBaseDelay(time.Millisecond)))
		require.NoError(t, err)
		defer throttled.Close()

		vec, err := throttled.EmbedText(ctx, "hello")
		require.NoError(t, err)
		assert.Equal(t, []float32{1, 2, 3}, vec)
		assert.Equal(t, 1, inner.calls)
	})

	t.Run("retries transient failures", func(t *testing.T) {
		inner := &countingEmbedder{fail: 2}
		throttled, err := NewThrottledEmbedder(inner, NewConfig(
			WithMaxRetries(3),
			WithRetryBaseDelay(time.Millisecond),
		))
		require.NoError(t, err)
		defer throttled.Close()

		vec, err := throttled.EmbedText(ctx, "hello")
		require.NoError(t, err)
		assert.Equal(t, []float32{1, 2, 3}, vec)
		assert.Equal(t, 3, inner.calls)
	})

	t.Run("persistent failure classified as upstream", func(t *testing.T) {
		inner := &countingEmbedder{fail: 100}
		throttled, err := NewThrottledEmbedder(inner, NewConfig(
			WithMaxRetries(2),
			WithRetryBaseDelay(time.Millisecond),
		))
		require.NoError(t, err)
		defer throttled.Close()

		_, err = throttled.EmbedText(ctx, "hello")
		assert.ErrorIs(t, err, core.ErrUpstream)
	})

	t.Run("deadline classified as upstream timeout", func(t *testing.T) {
		inner := &countingEmbedder{fail: 100}
		throttled, err := NewThrottledEmbedder(inner, NewConfig(
			WithMaxRetries(10),
			WithRetryBaseDelay(50*time.Millisecond),
		))
		require.NoError(t, err)
		defer throttled.Close()

		timed, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
		defer cancel()

		_, err = throttled.EmbedText(timed, "hello")
		assert.ErrorIs(t, err, core.ErrUpstreamTimeout)
	})
}

func TestThrottledEmbedder_EmbedTexts(t *testing.T) {
	inner := &countingEmbedder{}
	throttled, err := NewThrottledEmbedder(inner, NewConfig(WithRetryBaseDelay(time.Millisecond)))
	require.NoError(t, err)
	defer throttled.Close()

	vectors, err := throttled.EmbedTexts(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{1, 2, 3}, vectors[0])
}
