package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/poiesic/chunkd/core"
	"github.com/poiesic/chunkd/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) (*ChunkRepository, error) {
	return &ChunkRepository{backend: backend}, nil
}

// Close releases resources. ChunkRepository has no resources to release.
func (r *ChunkRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ChunkRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddChunks persists one or more chunks into the named index. DocIDs are
// generated here; caller-supplied IDs are ignored. An embedding whose
// length differs from the index dimension rejects the whole call with
// nothing persisted.
func (r *ChunkRepository) AddChunks(ctx context.Context, indexName string, chunks ...*core.Chunk) ([]*core.Chunk, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		index, err := readIndex(tx, makeIndexKey(indexName))
		if err != nil {
			return err
		}
		if index == nil {
			return core.ErrIndexNotFound
		}

		for _, chunk := range chunks {
			if err := core.ValidateChunk(chunk); err != nil {
				return err
			}
			if len(chunk.Embedding) > 0 && len(chunk.Embedding) != index.Dimension {
				return fmt.Errorf("%w: got %d, index %q expects %d",
					core.ErrDimensionMismatch, len(chunk.Embedding), indexName, index.Dimension)
			}

			chunk.DocID = uuid.NewString()
			chunk.IndexName = indexName
			chunk.CreatedAt = time.Now().UTC()
			chunk.UpdatedAt = chunk.CreatedAt

			key := makeChunkKey(indexName, chunk.DocID)
			if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return chunks, err
}

// GetChunk retrieves a single chunk by index and doc ID.
func (r *ChunkRepository) GetChunk(ctx context.Context, indexName, docID string) (*core.Chunk, error) {
	var result *core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		index, err := readIndex(tx, makeIndexKey(indexName))
		if err != nil {
			return err
		}
		if index == nil {
			return core.ErrIndexNotFound
		}

		result, err = readChunk(tx, makeChunkKey(indexName, docID))
		if err != nil {
			return err
		}
		if result == nil {
			return core.ErrChunkNotFound
		}
		return nil
	}, false)
	return result, err
}

// ListChunks returns all chunks of the index, most recently updated first.
func (r *ChunkRepository) ListChunks(ctx context.Context, indexName string) ([]*core.Chunk, error) {
	var results []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		index, err := readIndex(tx, makeIndexKey(indexName))
		if err != nil {
			return err
		}
		if index == nil {
			return core.ErrIndexNotFound
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkScanPrefix(indexName)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk != nil {
				results = append(results, chunk)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		if !results[i].UpdatedAt.Equal(results[j].UpdatedAt) {
			return results[i].UpdatedAt.After(results[j].UpdatedAt)
		}
		return results[i].DocID < results[j].DocID
	})
	return results, nil
}

// UpdateChunk replaces an existing chunk record. CreatedAt is preserved
// from the stored record; UpdatedAt is bumped.
func (r *ChunkRepository) UpdateChunk(ctx context.Context, chunk *core.Chunk) (*core.Chunk, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		index, err := readIndex(tx, makeIndexKey(chunk.IndexName))
		if err != nil {
			return err
		}
		if index == nil {
			return core.ErrIndexNotFound
		}

		key := makeChunkKey(chunk.IndexName, chunk.DocID)
		old, err := readChunk(tx, key)
		if err != nil {
			return err
		}
		if old == nil {
			return core.ErrChunkNotFound
		}

		if err := core.ValidateChunk(chunk); err != nil {
			return err
		}
		if len(chunk.Embedding) > 0 && len(chunk.Embedding) != index.Dimension {
			return fmt.Errorf("%w: got %d, index %q expects %d",
				core.ErrDimensionMismatch, len(chunk.Embedding), chunk.IndexName, index.Dimension)
		}

		chunk.CreatedAt = old.CreatedAt
		chunk.UpdatedAt = time.Now().UTC()

		if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return chunk, err
}

// DeleteChunk removes the chunk and every edge incident to it. Deleting
// an absent chunk returns core.ErrChunkNotFound.
func (r *ChunkRepository) DeleteChunk(ctx context.Context, indexName, docID string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		index, err := readIndex(tx, makeIndexKey(indexName))
		if err != nil {
			return err
		}
		if index == nil {
			return core.ErrIndexNotFound
		}

		key := makeChunkKey(indexName, docID)
		chunk, err := readChunk(tx, key)
		if err != nil {
			return err
		}
		if chunk == nil {
			return core.ErrChunkNotFound
		}

		if err := deleteIncidentEdges(tx, indexName, docID); err != nil {
			return err
		}

		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// CountChunks returns the number of chunks in the index.
func (r *ChunkRepository) CountChunks(ctx context.Context, indexName string) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		index, err := readIndex(tx, makeIndexKey(indexName))
		if err != nil {
			return err
		}
		if index == nil {
			return core.ErrIndexNotFound
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkScanPrefix(indexName)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// readChunk reads a chunk record from the transaction.
// Returns nil without error when the key does not exist.
func readChunk(tx *badger.Txn, key []byte) (*core.Chunk, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var chunk *core.Chunk
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		chunk, unmarshalErr = storage.UnmarshalChunk(val)
		return unmarshalErr
	})
	return chunk, err
}

// deleteIncidentEdges removes every edge touching the chunk, together
// with the incident entries on both endpoints.
func deleteIncidentEdges(tx *badger.Txn, indexName, docID string) error {
	incidentKeys, err := collectKeys(tx, makeEdgeIncidentScanPrefix(indexName, docID))
	if err != nil {
		return err
	}

	for _, incidentKey := range incidentKeys {
		item, err := tx.Get(incidentKey)
		if err != nil {
			return err
		}
		var edgeKey []byte
		if err := item.Value(func(val []byte) error {
			edgeKey = append([]byte(nil), val...)
			return nil
		}); err != nil {
			return err
		}

		edge, err := readEdge(tx, edgeKey)
		if err != nil {
			return err
		}
		if edge != nil {
			// Drop the incident entry of the opposite endpoint too.
			other := edge.SourceID
			if other == docID {
				other = edge.TargetID
			}
			if err := tx.Delete(makeEdgeIncidentKey(indexName, other, edge.ID())); err != nil {
				return err
			}
			if err := tx.Delete(edgeKey); err != nil {
				return err
			}
		}

		if err := tx.Delete(incidentKey); err != nil {
			return err
		}
	}
	return nil
}
