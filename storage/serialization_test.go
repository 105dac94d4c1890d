package storage

import (
	"testing"
	"time"

	"github.com/poiesic/chunkd/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var serializationTime = time.Date(2025, 6, 1, 12, 30, 15, 123456000, time.UTC)

func TestIndexRoundTrip(t *testing.T) {
	index := &core.Index{
		Name:        "docs",
		Description: "test partition",
		Dimension:   768,
		CreatedAt:   serializationTime,
		UpdatedAt:   serializationTime.Add(time.Hour),
	}

	decoded, err := UnmarshalIndex(MarshalIndex(index))
	require.NoError(t, err)

	assert.Equal(t, index.Name, decoded.Name)
	assert.Equal(t, index.Description, decoded.Description)
	assert.Equal(t, index.Dimension, decoded.Dimension)
	assert.True(t, index.CreatedAt.Equal(decoded.CreatedAt))
	assert.True(t, index.UpdatedAt.Equal(decoded.UpdatedAt))
}

func TestChunkRoundTrip(t *testing.T) {
	chunk := &core.Chunk{
		DocID:     "2b1e0a3c",
		IndexName: "docs",
		Content:   "the quick brown fox",
		Metadata: core.Metadata{
			"source": core.StringValue("wiki"),
			"page":   core.NumberValue(3),
			"tags":   core.ArrayValue(core.StringValue("animals")),
		},
		Embedding: []float32{0.1, -0.5, 0.25},
		CreatedAt: serializationTime,
		UpdatedAt: serializationTime,
	}

	decoded, err := UnmarshalChunk(MarshalChunk(chunk))
	require.NoError(t, err)

	assert.Equal(t, chunk.DocID, decoded.DocID)
	assert.Equal(t, chunk.IndexName, decoded.IndexName)
	assert.Equal(t, chunk.Content, decoded.Content)
	assert.Equal(t, chunk.Metadata, decoded.Metadata)
	assert.Equal(t, chunk.Embedding, decoded.Embedding)
	assert.True(t, chunk.CreatedAt.Equal(decoded.CreatedAt))
}

func TestChunkRoundTripWithoutOptionalFields(t *testing.T) {
	chunk := &core.Chunk{
		DocID:     "a",
		IndexName: "docs",
		Content:   "bare",
		CreatedAt: serializationTime,
		UpdatedAt: serializationTime,
	}

	decoded, err := UnmarshalChunk(MarshalChunk(chunk))
	require.NoError(t, err)

	assert.Equal(t, "bare", decoded.Content)
	assert.Empty(t, decoded.Metadata)
	assert.Empty(t, decoded.Embedding)
}

func TestEdgeRoundTrip(t *testing.T) {
	edge := &core.Edge{
		IndexName: "docs",
		SourceID:  "a",
		TargetID:  "b",
		RelType:   "cites",
		Reason:    "section 2 references section 5",
		CreatedAt: serializationTime,
		UpdatedAt: serializationTime.Add(time.Minute),
	}

	decoded, err := UnmarshalEdge(MarshalEdge(edge))
	require.NoError(t, err)

	assert.Equal(t, edge.Tuple(), decoded.Tuple())
	assert.Equal(t, edge.Reason, decoded.Reason)
	assert.True(t, edge.CreatedAt.Equal(decoded.CreatedAt))
	assert.True(t, edge.UpdatedAt.Equal(decoded.UpdatedAt))
}

func TestUnmarshalGarbage(t *testing.T) {
	_, err := UnmarshalChunk([]byte{0xff})
	assert.Error(t, err)
}
