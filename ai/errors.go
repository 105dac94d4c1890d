package ai

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when RetryWithBackoff is called
	// with a non-positive attempt count.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrPoolRequired is returned when a throttled embedder is built
	// without a worker pool.
	ErrPoolRequired = errors.New("worker pool is required")

	// ErrEmbedderRequired is returned when a throttled embedder is built
	// without an inner embedder.
	ErrEmbedderRequired = errors.New("embedder is required")
)
