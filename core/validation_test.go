package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateIndex(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		err := ValidateIndex(&Index{Name: "docs", Dimension: 8})
		assert.NoError(t, err)
	})

	t.Run("nil index", func(t *testing.T) {
		err := ValidateIndex(nil)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("empty name", func(t *testing.T) {
		err := ValidateIndex(&Index{Name: "  ", Dimension: 8})
		assert.ErrorIs(t, err, ErrValidation)
		assert.ErrorIs(t, err, ErrEmptyIndexName)
	})

	t.Run("name with slash", func(t *testing.T) {
		err := ValidateIndex(&Index{Name: "a/b", Dimension: 8})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("name with space", func(t *testing.T) {
		err := ValidateIndex(&Index{Name: "a b", Dimension: 8})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("zero dimension", func(t *testing.T) {
		err := ValidateIndex(&Index{Name: "docs"})
		assert.ErrorIs(t, err, ErrInvalidDimension)
	})
}

func TestValidateChunk(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		err := ValidateChunk(&Chunk{Content: "hello"})
		assert.NoError(t, err)
	})

	t.Run("nil chunk", func(t *testing.T) {
		err := ValidateChunk(nil)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("empty content", func(t *testing.T) {
		err := ValidateChunk(&Chunk{})
		assert.ErrorIs(t, err, ErrEmptyContent)
	})

	t.Run("embedding not checked here", func(t *testing.T) {
		err := ValidateChunk(&Chunk{Content: "hello", Embedding: []float32{1}})
		assert.NoError(t, err)
	})
}

func TestValidateEdge(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		err := ValidateEdge(&Edge{SourceID: "a", TargetID: "b", RelType: "cites"})
		assert.NoError(t, err)
	})

	t.Run("missing endpoints", func(t *testing.T) {
		err := ValidateEdge(&Edge{RelType: "cites"})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("self loop", func(t *testing.T) {
		err := ValidateEdge(&Edge{SourceID: "a", TargetID: "a", RelType: "cites"})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("missing rel type", func(t *testing.T) {
		err := ValidateEdge(&Edge{SourceID: "a", TargetID: "b"})
		assert.ErrorIs(t, err, ErrValidation)
	})
}
