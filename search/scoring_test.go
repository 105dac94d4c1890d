package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity(t *testing.T) {
	t.Run("identical vectors", func(t *testing.T) {
		score := cosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3})
		assert.InDelta(t, 1.0, score, 0.001)
	})

	t.Run("orthogonal vectors", func(t *testing.T) {
		score := cosineSimilarity([]float32{1, 0}, []float32{0, 1})
		assert.InDelta(t, 0.0, score, 0.001)
	})

	t.Run("opposite vectors", func(t *testing.T) {
		score := cosineSimilarity([]float32{1, 0}, []float32{-1, 0})
		assert.InDelta(t, -1.0, score, 0.001)
	})

	t.Run("mismatched lengths score zero", func(t *testing.T) {
		assert.Zero(t, cosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}))
	})

	t.Run("missing embedding scores zero", func(t *testing.T) {
		assert.Zero(t, cosineSimilarity([]float32{1, 2}, nil))
	})
}

func TestMinMaxNormalize(t *testing.T) {
	t.Run("scales to unit range", func(t *testing.T) {
		norm := minMaxNormalize([]float32{2, 4, 6})
		assert.InDelta(t, 0.0, norm[0], 0.001)
		assert.InDelta(t, 0.5, norm[1], 0.001)
		assert.InDelta(t, 1.0, norm[2], 0.001)
	})

	t.Run("constant signal flattens to zeros", func(t *testing.T) {
		norm := minMaxNormalize([]float32{3, 3, 3})
		for _, v := range norm {
			assert.Zero(t, v)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, minMaxNormalize(nil))
	})
}
