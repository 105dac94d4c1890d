package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDFromContent(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, IDFromContent("same text"), IDFromContent("same text"))
	})

	t.Run("different content differs", func(t *testing.T) {
		assert.NotEqual(t, IDFromContent("one"), IDFromContent("two"))
	})
}

func TestEdgeIdentity(t *testing.T) {
	edge := &Edge{IndexName: "docs", SourceID: "a", TargetID: "b", RelType: "cites"}

	assert.Equal(t, "(docs,a,b,cites)", edge.Tuple())

	t.Run("reason does not affect identity", func(t *testing.T) {
		other := &Edge{IndexName: "docs", SourceID: "a", TargetID: "b", RelType: "cites", Reason: "figure 3"}
		assert.Equal(t, edge.ID(), other.ID())
	})

	t.Run("direction matters", func(t *testing.T) {
		reversed := &Edge{IndexName: "docs", SourceID: "b", TargetID: "a", RelType: "cites"}
		assert.NotEqual(t, edge.ID(), reversed.ID())
	})
}
