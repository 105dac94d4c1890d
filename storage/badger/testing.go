package badger

// Repositories bundles the three repositories sharing one backend.
type Repositories struct {
	Backend *Backend
	Indexes *IndexRepository
	Chunks  *ChunkRepository
	Edges   *EdgeRepository
}

// Close closes the underlying backend.
func (r *Repositories) Close() error {
	return r.Backend.Close()
}

// NewRepositories opens a backend at filePath and wires the repositories
// on top of it. An empty filePath with inMemory set opens a throwaway
// in-memory store, which tests use.
func NewRepositories(filePath string, inMemory bool) (*Repositories, error) {
	backend, err := OpenBackend(filePath, inMemory)
	if err != nil {
		return nil, err
	}

	indexes, err := NewIndexRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	chunks, err := NewChunkRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	edges, err := NewEdgeRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Repositories{
		Backend: backend,
		Indexes: indexes,
		Chunks:  chunks,
		Edges:   edges,
	}, nil
}

// NewMemoryRepositories opens a fresh in-memory store.
func NewMemoryRepositories() (*Repositories, error) {
	return NewRepositories("", true)
}
