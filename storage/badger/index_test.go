package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/chunkd/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepos(t *testing.T) *Repositories {
	t.Helper()
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })
	return repos
}

func mustCreateIndex(t *testing.T, repos *Repositories, name string, dimension int) *core.Index {
	t.Helper()
	index, err := repos.Indexes.CreateIndex(context.Background(), &core.Index{
		Name:      name,
		Dimension: dimension,
	})
	require.NoError(t, err)
	return index
}

func mustAddChunk(t *testing.T, repos *Repositories, indexName, content string, embedding []float32) *core.Chunk {
	t.Helper()
	added, err := repos.Chunks.AddChunks(context.Background(), indexName, &core.Chunk{
		Content:   content,
		Embedding: embedding,
	})
	require.NoError(t, err)
	require.Len(t, added, 1)
	return added[0]
}

func TestCreateIndex(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		created, err := repos.Indexes.CreateIndex(ctx, &core.Index{
			Name:        "docs",
			Description: "primary partition",
			Dimension:   8,
		})
		require.NoError(t, err)
		assert.False(t, created.CreatedAt.IsZero())
		assert.True(t, created.CreatedAt.Equal(created.UpdatedAt))

		got, err := repos.Indexes.GetIndex(ctx, "docs")
		require.NoError(t, err)
		assert.Equal(t, "docs", got.Name)
		assert.Equal(t, "primary partition", got.Description)
		assert.Equal(t, 8, got.Dimension)
	})

	t.Run("duplicate name conflicts", func(t *testing.T) {
		_, err := repos.Indexes.CreateIndex(ctx, &core.Index{Name: "docs", Dimension: 16})
		assert.ErrorIs(t, err, core.ErrConflict)
	})

	t.Run("invalid index rejected", func(t *testing.T) {
		_, err := repos.Indexes.CreateIndex(ctx, &core.Index{Name: "bad name", Dimension: 8})
		assert.ErrorIs(t, err, core.ErrValidation)

		_, err = repos.Indexes.CreateIndex(ctx, &core.Index{Name: "nodim"})
		assert.ErrorIs(t, err, core.ErrValidation)
	})
}

func TestGetIndex_NotFound(t *testing.T) {
	repos := newTestRepos(t)

	_, err := repos.Indexes.GetIndex(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrIndexNotFound)
}

func TestListIndexes(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	t.Run("empty store", func(t *testing.T) {
		indexes, err := repos.Indexes.ListIndexes(ctx)
		require.NoError(t, err)
		assert.Empty(t, indexes)
	})

	mustCreateIndex(t, repos, "zeta", 8)
	mustCreateIndex(t, repos, "alpha", 8)
	mustCreateIndex(t, repos, "mid", 8)

	t.Run("ordered by name", func(t *testing.T) {
		indexes, err := repos.Indexes.ListIndexes(ctx)
		require.NoError(t, err)
		require.Len(t, indexes, 3)
		assert.Equal(t, "alpha", indexes[0].Name)
		assert.Equal(t, "mid", indexes[1].Name)
		assert.Equal(t, "zeta", indexes[2].Name)
	})
}

func TestUpdateIndex(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	created := mustCreateIndex(t, repos, "docs", 8)
	time.Sleep(5 * time.Millisecond)

	t.Run("replaces description", func(t *testing.T) {
		updated, err := repos.Indexes.UpdateIndex(ctx, "docs", "new description")
		require.NoError(t, err)
		assert.Equal(t, "new description", updated.Description)
		assert.Equal(t, 8, updated.Dimension)
		assert.WithinDuration(t, created.CreatedAt, updated.CreatedAt, time.Millisecond)
		assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))
	})

	t.Run("missing index", func(t *testing.T) {
		_, err := repos.Indexes.UpdateIndex(ctx, "missing", "whatever")
		assert.ErrorIs(t, err, core.ErrIndexNotFound)
	})
}

func TestDeleteIndex(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	t.Run("missing index", func(t *testing.T) {
		err := repos.Indexes.DeleteIndex(ctx, "missing")
		assert.ErrorIs(t, err, core.ErrIndexNotFound)
	})

	t.Run("cascades chunks and edges", func(t *testing.T) {
		mustCreateIndex(t, repos, "docs", 3)
		a := mustAddChunk(t, repos, "docs", "first", []float32{1, 0, 0})
		b := mustAddChunk(t, repos, "docs", "second", []float32{0, 1, 0})

		_, _, err := repos.Edges.UpsertEdge(ctx, &core.Edge{
			IndexName: "docs", SourceID: a.DocID, TargetID: b.DocID, RelType: "cites",
		})
		require.NoError(t, err)

		require.NoError(t, repos.Indexes.DeleteIndex(ctx, "docs"))

		_, err = repos.Indexes.GetIndex(ctx, "docs")
		assert.ErrorIs(t, err, core.ErrIndexNotFound)

		// A fresh index with the same name starts empty.
		mustCreateIndex(t, repos, "docs", 3)
		count, err := repos.Chunks.CountChunks(ctx, "docs")
		require.NoError(t, err)
		assert.Zero(t, count)
		edgeCount, err := repos.Edges.CountEdges(ctx, "docs")
		require.NoError(t, err)
		assert.Zero(t, edgeCount)
	})
}
