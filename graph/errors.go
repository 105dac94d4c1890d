package graph

import "errors"

var (
	// ErrIndexRepositoryRequired is returned when an index repository is not provided.
	ErrIndexRepositoryRequired = errors.New("index repository required")

	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrEdgeRepositoryRequired is returned when an edge repository is not provided.
	ErrEdgeRepositoryRequired = errors.New("edge repository required")
)
