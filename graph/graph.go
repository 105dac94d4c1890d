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

// Package graph manages typed relationships between chunks of one index.
// Edges are directed, identified by their (index, source, target, type)
// tuple, and never cross index boundaries.
package graph

import (
	"context"
	"log/slog"

	"github.com/poiesic/chunkd/core"
	"github.com/poiesic/chunkd/storage"
)

// AnalyticsSampleSize bounds the edge sample returned by Analytics.
const AnalyticsSampleSize = 25

// Graph is the relationship service over an edge repository.
type Graph struct {
	indexes storage.IndexRepository
	chunks  storage.ChunkRepository
	edges   storage.EdgeRepository
	logger  *slog.Logger
}

// NewGraph creates a new relationship graph service.
func NewGraph(indexes storage.IndexRepository, chunks storage.ChunkRepository, edges storage.EdgeRepository) (*Graph, error) {
	if indexes == nil {
		return nil, ErrIndexRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if edges == nil {
		return nil, ErrEdgeRepositoryRequired
	}

	return &Graph{
		indexes: indexes,
		chunks:  chunks,
		edges:   edges,
		logger:  slog.Default().With("component", "graph"),
	}, nil
}

// Declare creates or refreshes an edge. Declaring an existing tuple
// updates the reason and keeps CreatedAt; the returned bool reports
// whether a new edge was created.
func (g *Graph) Declare(ctx context.Context, edge *core.Edge) (*core.Edge, bool, error) {
	if err := core.ValidateEdge(edge); err != nil {
		return nil, false, err
	}

	result, created, err := g.edges.UpsertEdge(ctx, edge)
	if err != nil {
		return nil, false, err
	}

	g.logger.Debug("edge declared",
		"index", edge.IndexName, "source", edge.SourceID,
		"target", edge.TargetID, "type", edge.RelType, "created", created)
	return result, created, nil
}

// Remove deletes an edge by tuple. Removing an absent edge returns
// core.ErrEdgeNotFound.
func (g *Graph) Remove(ctx context.Context, indexName, sourceID, targetID, relType string) error {
	return g.edges.DeleteEdge(ctx, indexName, sourceID, targetID, relType)
}

// Get retrieves an edge by tuple.
func (g *Graph) Get(ctx context.Context, indexName, sourceID, targetID, relType string) (*core.Edge, error) {
	return g.edges.GetEdge(ctx, indexName, sourceID, targetID, relType)
}

// Neighbors returns the edges incident to a chunk, in either direction.
func (g *Graph) Neighbors(ctx context.Context, indexName, docID string) ([]*core.Edge, error) {
	if _, err := g.chunks.GetChunk(ctx, indexName, docID); err != nil {
		return nil, err
	}
	return g.edges.ListEdgesForChunk(ctx, indexName, docID)
}

// Analytics returns chunk and edge counts for the index plus a bounded
// sample of its edges.
func (g *Graph) Analytics(ctx context.Context, indexName string) (*core.Analytics, error) {
	if _, err := g.indexes.GetIndex(ctx, indexName); err != nil {
		return nil, err
	}

	chunkCount, err := g.chunks.CountChunks(ctx, indexName)
	if err != nil {
		return nil, err
	}
	edgeCount, err := g.edges.CountEdges(ctx, indexName)
	if err != nil {
		return nil, err
	}
	sample, err := g.edges.ListEdges(ctx, indexName, AnalyticsSampleSize)
	if err != nil {
		return nil, err
	}

	return &core.Analytics{
		IndexName:  indexName,
		ChunkCount: chunkCount,
		EdgeCount:  edgeCount,
		Sample:     sample,
	}, nil
}
