package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/chunkd/core"
	"github.com/poiesic/chunkd/storage"
)

// IndexRepository implements storage.IndexRepository for BadgerDB.
type IndexRepository struct {
	backend *Backend
}

var _ storage.IndexRepository = (*IndexRepository)(nil)

// NewIndexRepository creates a new IndexRepository.
func NewIndexRepository(backend *Backend) (*IndexRepository, error) {
	return &IndexRepository{backend: backend}, nil
}

// Close releases resources. IndexRepository has no resources to release.
func (r *IndexRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *IndexRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// CreateIndex persists a new index.
func (r *IndexRepository) CreateIndex(ctx context.Context, index *core.Index) (*core.Index, error) {
	if err := core.ValidateIndex(index); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeIndexKey(index.Name)
		existing, err := readIndex(tx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			return core.ErrConflict
		}

		index.CreatedAt = time.Now().UTC()
		index.UpdatedAt = index.CreatedAt

		if err := tx.Set(key, storage.MarshalIndex(index)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return index, err
}

// GetIndex retrieves an index by name.
func (r *IndexRepository) GetIndex(ctx context.Context, name string) (*core.Index, error) {
	var result *core.Index
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readIndex(tx, makeIndexKey(name))
		if err != nil {
			return err
		}
		if result == nil {
			return core.ErrIndexNotFound
		}
		return nil
	}, false)
	return result, err
}

// ListIndexes returns all indexes. BadgerDB iterates keys in
// lexicographic order, so results come back ordered by name.
func (r *IndexRepository) ListIndexes(ctx context.Context) ([]*core.Index, error) {
	var results []*core.Index
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(indexRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var index *core.Index
			err := iter.Item().Value(func(val []byte) error {
				var err error
				index, err = storage.UnmarshalIndex(val)
				return err
			})
			if err != nil {
				return err
			}
			if index != nil {
				results = append(results, index)
			}
		}
		return nil
	}, false)
	return results, err
}

// UpdateIndex replaces the description of an existing index.
func (r *IndexRepository) UpdateIndex(ctx context.Context, name, description string) (*core.Index, error) {
	var result *core.Index
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeIndexKey(name)
		index, err := readIndex(tx, key)
		if err != nil {
			return err
		}
		if index == nil {
			return core.ErrIndexNotFound
		}

		index.Description = description
		index.UpdatedAt = time.Now().UTC()

		if err := tx.Set(key, storage.MarshalIndex(index)); err != nil {
			return err
		}
		result = index
		return tx.Commit()
	}, true)
	return result, err
}

// DeleteIndex removes the index and cascades deletion of all owned
// chunks and edges within a single transaction, so a racing reader
// either sees the full index or none of it.
func (r *IndexRepository) DeleteIndex(ctx context.Context, name string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeIndexKey(name)
		index, err := readIndex(tx, key)
		if err != nil {
			return err
		}
		if index == nil {
			return core.ErrIndexNotFound
		}

		prefixes := [][]byte{
			makeChunkScanPrefix(name),
			makeEdgeScanPrefix(name),
			makeEdgeIncidentIndexPrefix(name),
		}
		for _, prefix := range prefixes {
			keys, err := collectKeys(tx, prefix)
			if err != nil {
				return err
			}
			for _, k := range keys {
				if err := tx.Delete(k); err != nil {
					return err
				}
			}
		}

		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// readIndex reads an index record from the transaction.
// Returns nil without error when the key does not exist.
func readIndex(tx *badger.Txn, key []byte) (*core.Index, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var index *core.Index
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		index, unmarshalErr = storage.UnmarshalIndex(val)
		return unmarshalErr
	})
	return index, err
}

// collectKeys gathers every key under a prefix. Keys are copied because
// the iterator reuses its buffers.
func collectKeys(tx *badger.Txn, prefix []byte) ([][]byte, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var keys [][]byte
	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	return keys, nil
}
