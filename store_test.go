package chunkd

import (
	"context"
	"testing"

	"github.com/poiesic/chunkd/ai/mock"
	"github.com/poiesic/chunkd/core"
	"github.com/poiesic/chunkd/ingestion"
	"github.com/poiesic/chunkd/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open("", WithInMemory(), WithAIProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpen(t *testing.T) {
	store := newTestStore(t)

	assert.NotNil(t, store.IndexRepository())
	assert.NotNil(t, store.ChunkRepository())
	assert.NotNil(t, store.EdgeRepository())
	assert.NotNil(t, store.Provider())
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.IndexRepository().CreateIndex(ctx, &core.Index{
		Name:      "docs",
		Dimension: mock.DefaultDimension,
	})
	require.NoError(t, err)

	pipeline, err := store.NewIngestionPipeline()
	require.NoError(t, err)
	defer pipeline.Release()

	first, err := pipeline.CreateChunk(ctx, "docs", &ingestion.ChunkInput{
		Content: "badger keeps the chunks",
	})
	require.NoError(t, err)
	second, err := pipeline.CreateChunk(ctx, "docs", &ingestion.ChunkInput{
		Content: "edges relate the chunks",
	})
	require.NoError(t, err)

	g, err := store.NewGraph()
	require.NoError(t, err)
	_, created, err := g.Declare(ctx, &core.Edge{
		IndexName: "docs", SourceID: first.DocID, TargetID: second.DocID, RelType: "cites",
	})
	require.NoError(t, err)
	assert.True(t, created)

	engine, err := store.NewSearchEngine()
	require.NoError(t, err)
	results, err := engine.Search(ctx, &search.Query{Index: "docs", Text: "chunks", TopK: 5})
	require.NoError(t, err)
	assert.Len(t, results, 2)

	analytics, err := g.Analytics(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, 2, analytics.ChunkCount)
	assert.Equal(t, 1, analytics.EdgeCount)
}

func TestStoreNewReembedder(t *testing.T) {
	store := newTestStore(t)

	r, err := store.NewReembedder(nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, r)
}

func TestStoreWithGraphStrategy(t *testing.T) {
	store := newTestStore(t)

	strategy, err := search.NewGraphBoostedStrategy(nil, store.EdgeRepository(), 0)
	require.NoError(t, err)

	engine, err := store.NewSearchEngine(search.WithStrategy(strategy))
	require.NoError(t, err)
	assert.NotNil(t, engine)
}
