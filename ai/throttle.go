package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/chunkd/core"
)

// ThrottledEmbedder wraps an Embedder with a bounded worker pool and
// retry. It keeps the number of in-flight upstream requests at or below
// the pool size and retries transient failures with exponential backoff.
type ThrottledEmbedder struct {
	inner       Embedder
	pool        *ants.Pool
	ownsPool    bool
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

var _ Embedder = (*ThrottledEmbedder)(nil)

// NewThrottledEmbedder builds a throttled embedder from the config. The
// pool is created here and released by Close.
func NewThrottledEmbedder(inner Embedder, config *Config) (*ThrottledEmbedder, error) {
	if inner == nil {
		return nil, ErrEmbedderRequired
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	pool, err := ants.NewPool(config.MaxConcurrent)
	if err != nil {
		return nil, err
	}

	return &ThrottledEmbedder{
		inner:       inner,
		pool:        pool,
		ownsPool:    true,
		maxAttempts: config.MaxRetries,
		baseDelay:   config.RetryBaseDelay,
		logger:      slog.Default().With("component", "throttled-embedder"),
	}, nil
}

// NewThrottledEmbedderWithPool builds a throttled embedder on a shared
// pool. The caller keeps ownership of the pool.
func NewThrottledEmbedderWithPool(inner Embedder, pool *ants.Pool, maxAttempts int, baseDelay time.Duration) (*ThrottledEmbedder, error) {
	if inner == nil {
		return nil, ErrEmbedderRequired
	}
	if pool == nil {
		return nil, ErrPoolRequired
	}
	if maxAttempts <= 0 {
		return nil, ErrInvalidMaxAttempts
	}

	return &ThrottledEmbedder{
		inner:       inner,
		pool:        pool,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		logger:      slog.Default().With("component", "throttled-embedder"),
	}, nil
}

// Close releases the pool if this embedder owns it.
func (t *ThrottledEmbedder) Close() error {
	if t.ownsPool {
		t.pool.Release()
	}
	return nil
}

// EmbedText generates an embedding for a single text through the pool.
func (t *ThrottledEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	var result []float32
	err := t.run(ctx, func() error {
		var embedErr error
		result, embedErr = t.inner.EmbedText(ctx, text)
		return embedErr
	})
	return result, err
}

// EmbedTexts generates embeddings for a batch of texts through the pool.
func (t *ThrottledEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	var result [][]float32
	err := t.run(ctx, func() error {
		var embedErr error
		result, embedErr = t.inner.EmbedTexts(ctx, texts)
		return embedErr
	})
	return result, err
}

// run submits the operation to the pool, waits for it to finish and
// classifies persistent failures as upstream errors.
func (t *ThrottledEmbedder) run(ctx context.Context, operation func() error) error {
	done := make(chan error, 1)
	if err := t.pool.Submit(func() {
		done <- RetryWithBackoff(ctx, operation, t.maxAttempts, t.baseDelay)
	}); err != nil {
		return fmt.Errorf("%w: %w", core.ErrUpstream, err)
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", core.ErrUpstreamTimeout, ctx.Err())
	case err := <-done:
		if err == nil {
			return nil
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return fmt.Errorf("%w: %w", core.ErrUpstreamTimeout, err)
		}
		t.logger.Warn("embedding request failed after retries", "attempts", t.maxAttempts, "err", err)
		return fmt.Errorf("%w: %w", core.ErrUpstream, err)
	}
}
