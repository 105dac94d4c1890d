package badger

import (
	"context"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/chunkd/core"
	"github.com/poiesic/chunkd/storage"
)

// EdgeRepository implements storage.EdgeRepository for BadgerDB.
type EdgeRepository struct {
	backend *Backend
}

var _ storage.EdgeRepository = (*EdgeRepository)(nil)

// NewEdgeRepository creates a new EdgeRepository.
func NewEdgeRepository(backend *Backend) (*EdgeRepository, error) {
	return &EdgeRepository{backend: backend}, nil
}

// Close releases resources. EdgeRepository has no resources to release.
func (r *EdgeRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *EdgeRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// UpsertEdge declares a relationship between two chunks. The edge
// identity is the (index, source, target, type) tuple: declaring the
// same tuple again updates the reason and UpdatedAt but keeps CreatedAt
// and never produces a second edge. Both endpoints must exist. The
// returned bool reports whether a new edge was created.
func (r *EdgeRepository) UpsertEdge(ctx context.Context, edge *core.Edge) (*core.Edge, bool, error) {
	if err := core.ValidateEdge(edge); err != nil {
		return nil, false, err
	}

	created := false
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		index, err := readIndex(tx, makeIndexKey(edge.IndexName))
		if err != nil {
			return err
		}
		if index == nil {
			return core.ErrIndexNotFound
		}

		key := makeEdgeKey(edge.IndexName, edge.ID())
		existing, err := readEdge(tx, key)
		if err != nil {
			return err
		}

		if existing != nil {
			existing.Reason = edge.Reason
			existing.UpdatedAt = time.Now().UTC()
			*edge = *existing
		} else {
			for _, docID := range []string{edge.SourceID, edge.TargetID} {
				chunk, err := readChunk(tx, makeChunkKey(edge.IndexName, docID))
				if err != nil {
					return err
				}
				if chunk == nil {
					return core.ErrChunkNotFound
				}
			}

			edge.CreatedAt = time.Now().UTC()
			edge.UpdatedAt = edge.CreatedAt
			created = true

			for _, docID := range []string{edge.SourceID, edge.TargetID} {
				incidentKey := makeEdgeIncidentKey(edge.IndexName, docID, edge.ID())
				if err := tx.Set(incidentKey, key); err != nil {
					return err
				}
			}
		}

		if err := tx.Set(key, storage.MarshalEdge(edge)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, false, err
	}
	return edge, created, nil
}

// GetEdge retrieves an edge by its identifying tuple.
func (r *EdgeRepository) GetEdge(ctx context.Context, indexName, sourceID, targetID, relType string) (*core.Edge, error) {
	probe := &core.Edge{IndexName: indexName, SourceID: sourceID, TargetID: targetID, RelType: relType}
	var result *core.Edge
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		index, err := readIndex(tx, makeIndexKey(indexName))
		if err != nil {
			return err
		}
		if index == nil {
			return core.ErrIndexNotFound
		}

		result, err = readEdge(tx, makeEdgeKey(indexName, probe.ID()))
		if err != nil {
			return err
		}
		if result == nil {
			return core.ErrEdgeNotFound
		}
		return nil
	}, false)
	return result, err
}

// DeleteEdge removes an edge and its incident entries. Deleting an
// absent edge returns core.ErrEdgeNotFound.
func (r *EdgeRepository) DeleteEdge(ctx context.Context, indexName, sourceID, targetID, relType string) error {
	probe := &core.Edge{IndexName: indexName, SourceID: sourceID, TargetID: targetID, RelType: relType}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		index, err := readIndex(tx, makeIndexKey(indexName))
		if err != nil {
			return err
		}
		if index == nil {
			return core.ErrIndexNotFound
		}

		key := makeEdgeKey(indexName, probe.ID())
		edge, err := readEdge(tx, key)
		if err != nil {
			return err
		}
		if edge == nil {
			return core.ErrEdgeNotFound
		}

		for _, docID := range []string{edge.SourceID, edge.TargetID} {
			if err := tx.Delete(makeEdgeIncidentKey(indexName, docID, edge.ID())); err != nil {
				return err
			}
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ListEdges returns edges of the index, most recently updated first.
// A limit of zero or less means no limit.
func (r *EdgeRepository) ListEdges(ctx context.Context, indexName string, limit int) ([]*core.Edge, error) {
	var results []*core.Edge
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		index, err := readIndex(tx, makeIndexKey(indexName))
		if err != nil {
			return err
		}
		if index == nil {
			return core.ErrIndexNotFound
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeEdgeScanPrefix(indexName)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var edge *core.Edge
			err := iter.Item().Value(func(val []byte) error {
				var err error
				edge, err = storage.UnmarshalEdge(val)
				return err
			})
			if err != nil {
				return err
			}
			if edge != nil {
				results = append(results, edge)
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
		return results[i].Tuple() < results[j].Tuple()
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// CountEdges returns the number of edges in the index.
func (r *EdgeRepository) CountEdges(ctx context.Context, indexName string) (int, error) {
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
		opts.Prefix = makeEdgeScanPrefix(indexName)
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

// ListEdgesForChunk returns every edge incident to the chunk, in either
// direction.
func (r *EdgeRepository) ListEdgesForChunk(ctx context.Context, indexName, docID string) ([]*core.Edge, error) {
	var results []*core.Edge
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		index, err := readIndex(tx, makeIndexKey(indexName))
		if err != nil {
			return err
		}
		if index == nil {
			return core.ErrIndexNotFound
		}

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
				results = append(results, edge)
			}
		}
		return nil
	}, false)
	return results, err
}

// readEdge reads an edge record from the transaction.
// Returns nil without error when the key does not exist.
func readEdge(tx *badger.Txn, key []byte) (*core.Edge, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var edge *core.Edge
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		edge, unmarshalErr = storage.UnmarshalEdge(val)
		return unmarshalErr
	})
	return edge, err
}
