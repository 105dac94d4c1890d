package search

import (
	"context"
	"testing"

	"github.com/poiesic/chunkd/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorStrategy(t *testing.T) {
	strategy := &VectorStrategy{}
	candidates := []*core.Chunk{
		{DocID: "a", Content: "aligned", Embedding: []float32{1, 0}},
		{DocID: "b", Content: "orthogonal", Embedding: []float32{0, 1}},
	}

	results, err := strategy.Rank(context.Background(), &Query{Text: "q", TopK: 5}, []float32{1, 0}, candidates)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.InDelta(t, 1.0, float64(results[0].Score), 0.001)
	assert.InDelta(t, 0.0, float64(results[1].Score), 0.001)
	assert.Equal(t, results[0].Score, results[0].VectorScore)
	assert.Zero(t, results[0].KeywordScore)
}

func TestHybridStrategy_Weight(t *testing.T) {
	t.Run("zero value uses default", func(t *testing.T) {
		s := &HybridStrategy{}
		assert.InDelta(t, DefaultVectorWeight, float64(s.weight()), 0.001)
	})

	t.Run("explicit weight wins", func(t *testing.T) {
		s := &HybridStrategy{VectorWeight: 0.9}
		assert.InDelta(t, 0.9, float64(s.weight()), 0.001)
	})
}

func TestHybridStrategy_Fusion(t *testing.T) {
	strategy := &HybridStrategy{VectorWeight: 0.5}
	candidates := []*core.Chunk{
		{DocID: "vector-hit", Content: "nothing matching", Embedding: []float32{1, 0}},
		{DocID: "keyword-hit", Content: "compaction strategies", Embedding: []float32{0, 1}},
	}

	results, err := strategy.Rank(context.Background(),
		&Query{Text: "compaction", TopK: 5}, []float32{1, 0}, candidates)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Each chunk wins one normalized signal, so at equal weight the
	// fused scores tie while the raw signals differ.
	assert.InDelta(t, float64(results[0].Score), float64(results[1].Score), 0.001)
	assert.Greater(t, results[0].VectorScore, results[1].VectorScore)
	assert.Less(t, results[0].KeywordScore, results[1].KeywordScore)
}

func TestGraphBoostedStrategy(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	mustCreateIndex(t, repos, "docs", 2)

	top := mustAddChunk(t, repos, "docs", "top ranked", []float32{1, 0})
	neighbor := mustAddChunk(t, repos, "docs", "linked from top", []float32{0, 1})
	loner := mustAddChunk(t, repos, "docs", "unconnected", []float32{0, 1})

	_, _, err := repos.Edges.UpsertEdge(ctx, &core.Edge{
		IndexName: "docs", SourceID: top.DocID, TargetID: neighbor.DocID, RelType: "cites",
	})
	require.NoError(t, err)

	t.Run("requires edge repository", func(t *testing.T) {
		_, err := NewGraphBoostedStrategy(&VectorStrategy{}, nil, 0)
		assert.Equal(t, ErrEdgeRepositoryRequired, err)
	})

	t.Run("boosts neighbors of the provisional top", func(t *testing.T) {
		strategy, err := NewGraphBoostedStrategy(&VectorStrategy{}, repos.Edges, 0.2)
		require.NoError(t, err)

		chunks, err := repos.Chunks.ListChunks(ctx, "docs")
		require.NoError(t, err)

		results, err := strategy.Rank(ctx, &Query{Index: "docs", Text: "q", TopK: 1}, []float32{1, 0}, chunks)
		require.NoError(t, err)

		byDoc := map[string]*core.SearchResult{}
		for _, r := range results {
			byDoc[r.Chunk.DocID] = r
		}

		assert.InDelta(t, 1.0, float64(byDoc[top.DocID].Score), 0.001)
		assert.InDelta(t, 0.2, float64(byDoc[neighbor.DocID].Score), 0.001)
		assert.InDelta(t, 0.0, float64(byDoc[loner.DocID].Score), 0.001)
	})

	t.Run("boost applies at most once per chunk", func(t *testing.T) {
		// A second edge between the same pair, different type.
		_, _, err := repos.Edges.UpsertEdge(ctx, &core.Edge{
			IndexName: "docs", SourceID: top.DocID, TargetID: neighbor.DocID, RelType: "follows",
		})
		require.NoError(t, err)

		strategy, err := NewGraphBoostedStrategy(&VectorStrategy{}, repos.Edges, 0.2)
		require.NoError(t, err)

		chunks, err := repos.Chunks.ListChunks(ctx, "docs")
		require.NoError(t, err)

		results, err := strategy.Rank(ctx, &Query{Index: "docs", Text: "q", TopK: 1}, []float32{1, 0}, chunks)
		require.NoError(t, err)

		for _, r := range results {
			if r.Chunk.DocID == neighbor.DocID {
				assert.InDelta(t, 0.2, float64(r.Score), 0.001)
			}
		}
	})
}
