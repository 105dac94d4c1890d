// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "errors"

// Domain error taxonomy. Component operations fail fast with one of
// these sentinels (possibly wrapped); the API layer maps each to a
// stable status code.
var (
	// ErrConflict indicates an index with the same name already exists.
	ErrConflict = errors.New("index already exists")

	// ErrIndexNotFound indicates the named index does not exist.
	ErrIndexNotFound = errors.New("index not found")

	// ErrChunkNotFound indicates the chunk does not exist in its index.
	ErrChunkNotFound = errors.New("chunk not found")

	// ErrEdgeNotFound indicates no edge exists for the given tuple.
	ErrEdgeNotFound = errors.New("edge not found")

	// ErrDimensionMismatch indicates an embedding whose length differs
	// from the owning index's dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrValidation indicates a malformed request or argument.
	ErrValidation = errors.New("validation failed")

	// ErrUpstreamTimeout indicates an upstream call exhausted its retry budget.
	ErrUpstreamTimeout = errors.New("upstream call timed out")

	// ErrUpstream indicates an upstream service failure.
	ErrUpstream = errors.New("upstream call failed")

	// ErrPartialFailure indicates a batch where some items failed.
	ErrPartialFailure = errors.New("some items failed")

	// ErrEmptyContent indicates the chunk content is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrEmptyIndexName indicates an empty index name.
	ErrEmptyIndexName = errors.New("index name cannot be empty")

	// ErrInvalidDimension indicates a non-positive index dimension.
	ErrInvalidDimension = errors.New("dimension must be positive")
)
