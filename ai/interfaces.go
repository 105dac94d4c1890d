package ai

import (
	"context"

	"github.com/poiesic/chunkd/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in
	// a batch. The returned slice contains embeddings in the same order as
	// the input texts. Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Synthesizer composes a natural-language answer to a query from the
// chunks retrieval selected. Implementations must be thread-safe.
type Synthesizer interface {
	// Synthesize produces an answer grounded in the given chunks. An
	// empty chunk slice is valid; the synthesizer answers from the query
	// alone. A synthesis failure must not be treated as a retrieval
	// failure by callers.
	Synthesize(ctx context.Context, query string, chunks []*core.Chunk) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and
// lifecycle management.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Synthesizer returns the answer synthesis service.
	Synthesizer() Synthesizer

	// Close releases resources held by the provider and its services.
	Close() error
}
