package storage

import (
	"context"

	"github.com/poiesic/chunkd/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// IndexRepository manages index (partition) records. Index names are
// globally unique; dimension is immutable after creation.
type IndexRepository interface {
	Repository

	// CreateIndex persists a new index. Sets CreatedAt/UpdatedAt.
	// Returns core.ErrConflict if the name is already taken.
	CreateIndex(ctx context.Context, index *core.Index) (*core.Index, error)

	// GetIndex retrieves an index by name.
	// Returns core.ErrIndexNotFound if it does not exist.
	GetIndex(ctx context.Context, name string) (*core.Index, error)

	// ListIndexes returns all indexes ordered by name.
	ListIndexes(ctx context.Context) ([]*core.Index, error)

	// UpdateIndex replaces the description of an existing index.
	// Name and dimension are immutable. Returns core.ErrIndexNotFound
	// if the index does not exist.
	UpdateIndex(ctx context.Context, name, description string) (*core.Index, error)

	// DeleteIndex removes the index together with all of its chunks and
	// edges in a single transaction. Returns core.ErrIndexNotFound if
	// the index does not exist.
	DeleteIndex(ctx context.Context, name string) error
}

// ChunkRepository manages chunk records within an index.
type ChunkRepository interface {
	Repository

	// AddChunks persists one or more chunks into the named index.
	// Generates DocIDs and sets timestamps. Returns core.ErrIndexNotFound
	// if the index does not exist.
	AddChunks(ctx context.Context, indexName string, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// GetChunk retrieves a single chunk. Returns core.ErrIndexNotFound
	// or core.ErrChunkNotFound as appropriate.
	GetChunk(ctx context.Context, indexName, docID string) (*core.Chunk, error)

	// ListChunks returns all chunks of the index, most recently updated
	// first. Returns core.ErrIndexNotFound if the index does not exist.
	ListChunks(ctx context.Context, indexName string) ([]*core.Chunk, error)

	// UpdateChunk replaces an existing chunk record and bumps UpdatedAt.
	// Returns core.ErrChunkNotFound if the chunk does not exist.
	UpdateChunk(ctx context.Context, chunk *core.Chunk) (*core.Chunk, error)

	// DeleteChunk removes the chunk and every edge where it is source or
	// target. Deleting an absent chunk is an error (core.ErrChunkNotFound),
	// never a silent no-op, so callers can distinguish "already gone"
	// from "deleted now".
	DeleteChunk(ctx context.Context, indexName, docID string) error

	// CountChunks returns the number of chunks in the index.
	CountChunks(ctx context.Context, indexName string) (int, error)
}

// EdgeRepository manages relationship edges between chunks of one index.
// Edge identity is the (index, source, target, type) tuple.
type EdgeRepository interface {
	Repository

	// UpsertEdge declares an edge. The first declaration creates it with
	// the given reason and timestamps; re-declaring the same tuple
	// updates only the reason, preserving CreatedAt. The boolean result
	// reports whether a new edge was created.
	UpsertEdge(ctx context.Context, edge *core.Edge) (*core.Edge, bool, error)

	// GetEdge retrieves an edge by tuple.
	// Returns core.ErrEdgeNotFound if it does not exist.
	GetEdge(ctx context.Context, indexName, sourceID, targetID, relType string) (*core.Edge, error)

	// DeleteEdge removes an edge by tuple.
	// Returns core.ErrEdgeNotFound if it does not exist.
	DeleteEdge(ctx context.Context, indexName, sourceID, targetID, relType string) error

	// ListEdges returns up to limit edges of the index in stable key
	// order. A non-positive limit returns all edges.
	ListEdges(ctx context.Context, indexName string, limit int) ([]*core.Edge, error)

	// CountEdges returns the number of edges in the index.
	CountEdges(ctx context.Context, indexName string) (int, error)

	// ListEdgesForChunk returns the edges where the chunk is source or target.
	ListEdgesForChunk(ctx context.Context, indexName, docID string) ([]*core.Edge, error)
}
