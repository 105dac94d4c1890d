package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/poiesic/chunkd/ai"
	"github.com/poiesic/chunkd/core"
	"github.com/poiesic/chunkd/storage"
)

// Query describes one retrieval request against a single index.
type Query struct {
	// Index is the partition to search. Required.
	Index string

	// Text is the natural-language query. It is embedded for vector
	// scoring and, absent explicit Keywords, tokenized for keyword
	// scoring.
	Text string

	// Keywords overrides the keyword terms derived from Text.
	Keywords []string

	// TopK caps the number of results. Must be positive.
	TopK int
}

// Engine ranks the chunks of one index against a query. Every chunk of
// the index is scored, so no candidate is starved by its position in
// the store.
type Engine struct {
	indexes  storage.IndexRepository
	chunks   storage.ChunkRepository
	embedder ai.Embedder
	strategy Strategy
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithStrategy sets the ranking strategy.
// Default is a HybridStrategy with DefaultVectorWeight.
func WithStrategy(strategy Strategy) Option {
	return func(e *Engine) error {
		if strategy != nil {
			e.strategy = strategy
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEngine creates a new search engine.
func NewEngine(
	indexes storage.IndexRepository,
	chunks storage.ChunkRepository,
	embedder ai.Embedder,
	opts ...Option,
) (*Engine, error) {
	if indexes == nil {
		return nil, ErrIndexRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	e := &Engine{
		indexes:  indexes,
		chunks:   chunks,
		embedder: embedder,
		strategy: &HybridStrategy{},
		logger:   slog.Default().With("component", "search-engine"),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Search ranks the chunks of the queried index and returns up to TopK
// results, best first.
func (e *Engine) Search(ctx context.Context, q *Query) ([]*core.SearchResult, error) {
	return e.SearchWithMonitor(ctx, q, nil)
}

// SearchWithMonitor is Search with observation hooks. The monitor
// receives callbacks at each stage of the search.
func (e *Engine) SearchWithMonitor(ctx context.Context, q *Query, monitor Monitor) ([]*core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if q.TopK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive, got %d", core.ErrValidation, q.TopK)
	}

	monitor.Start(q.Text)

	if _, err := e.indexes.GetIndex(ctx, q.Index); err != nil {
		return nil, err
	}

	queryVec, err := e.embedder.EmbedText(ctx, q.Text)
	if err != nil {
		e.logger.Error("error generating embedding for query", "index", q.Index, "err", err)
		return nil, err
	}
	monitor.AfterEmbedding(len(queryVec))

	candidates, err := e.chunks.ListChunks(ctx, q.Index)
	if err != nil {
		e.logger.Error("error loading candidate chunks", "index", q.Index, "err", err)
		return nil, err
	}
	monitor.AfterCandidateLoad(len(candidates))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results, err := e.strategy.Rank(ctx, q, queryVec, candidates)
	if err != nil {
		return nil, err
	}

	sortResults(results)
	if len(results) > q.TopK {
		results = results[:q.TopK]
	}
	monitor.Finish(results)

	return results, nil
}

// sortResults orders by score descending; ties go to the more recently
// updated chunk, then to the lower doc ID for a stable total order.
func sortResults(results []*core.SearchResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if !results[i].Chunk.UpdatedAt.Equal(results[j].Chunk.UpdatedAt) {
			return results[i].Chunk.UpdatedAt.After(results[j].Chunk.UpdatedAt)
		}
		return results[i].Chunk.DocID < results[j].Chunk.DocID
	})
}
