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

import (
	"fmt"
	"strings"
)

// ValidateIndex validates an Index according to domain rules.
//
// Validation rules:
//   - Name must not be empty or contain '/' (it appears in URL paths and keys)
//   - Dimension must be positive
//
// NOT validated:
//   - Description (optional)
//   - Timestamps (populated by the store)
func ValidateIndex(index *Index) error {
	if index == nil {
		return fmt.Errorf("%w: index is nil", ErrValidation)
	}
	if strings.TrimSpace(index.Name) == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyIndexName)
	}
	if strings.ContainsAny(index.Name, "/ ") {
		return fmt.Errorf("%w: index name must not contain slashes or spaces", ErrValidation)
	}
	if index.Dimension <= 0 {
		return fmt.Errorf("%w: %w", ErrValidation, ErrInvalidDimension)
	}
	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Content must not be empty
//
// NOT validated:
//   - Embedding (may be absent; its length is checked against the owning
//     index's dimension at write time, not here)
//   - DocID (generated by the store)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrValidation)
	}
	if chunk.Content == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyContent)
	}
	return nil
}

// ValidateEdge validates an Edge according to domain rules.
//
// Validation rules:
//   - Source and target must be non-empty and distinct
//   - RelType must not be empty
func ValidateEdge(edge *Edge) error {
	if edge == nil {
		return fmt.Errorf("%w: edge is nil", ErrValidation)
	}
	if edge.SourceID == "" || edge.TargetID == "" {
		return fmt.Errorf("%w: edge endpoints are required", ErrValidation)
	}
	if edge.SourceID == edge.TargetID {
		return fmt.Errorf("%w: edge endpoints must differ", ErrValidation)
	}
	if edge.RelType == "" {
		return fmt.Errorf("%w: relationship type is required", ErrValidation)
	}
	return nil
}
