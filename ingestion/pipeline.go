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

// Package ingestion orchestrates chunk creation, update and batch
// loading. It computes missing embeddings through the AI embedder and
// bounds embedding concurrency with a worker pool.
package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/chunkd/ai"
	"github.com/poiesic/chunkd/core"
	"github.com/poiesic/chunkd/storage"
)

// Pipeline orchestrates the ingestion and processing of chunks.
// It manages concurrent embedding of batch items.
type Pipeline struct {
	chunks   storage.ChunkRepository
	embedder ai.Embedder
	pool     *ants.Pool
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(chunks storage.ChunkRepository, embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		chunks:   chunks,
		embedder: embedder,
		pool:     pool,
		logger:   slog.Default().With("component", "ingestion"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Release shuts down the worker pool.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// ChunkInput describes one chunk to ingest. Embedding is optional; when
// omitted the pipeline computes it from Content.
type ChunkInput struct {
	Content   string
	Metadata  core.Metadata
	Embedding []float32
}

// ChunkUpdate describes a partial chunk update. Nil fields keep the
// stored value. A non-nil Metadata replaces the stored metadata in full.
type ChunkUpdate struct {
	Content   *string
	Metadata  core.Metadata
	Embedding []float32
}

// BatchOutcome reports the result of one item of a batch ingestion.
type BatchOutcome struct {
	Position int
	Chunk    *core.Chunk
	Err      error
}

// CreateChunk ingests a single chunk into the index, embedding the
// content when no embedding is supplied. A supplied embedding of the
// wrong width fails with core.ErrDimensionMismatch and persists nothing.
func (p *Pipeline) CreateChunk(ctx context.Context, indexName string, input *ChunkInput) (*core.Chunk, error) {
	chunk := &core.Chunk{
		Content:   input.Content,
		Metadata:  input.Metadata,
		Embedding: input.Embedding,
	}
	if err := core.ValidateChunk(chunk); err != nil {
		return nil, err
	}

	if len(chunk.Embedding) == 0 {
		embedding, err := p.embedder.EmbedText(ctx, chunk.Content)
		if err != nil {
			p.logger.Error("failed to embed chunk content", "index", indexName, "err", err)
			return nil, err
		}
		chunk.Embedding = embedding
	}

	added, err := p.chunks.AddChunks(ctx, indexName, chunk)
	if err != nil {
		return nil, err
	}
	return added[0], nil
}

// CreateChunks ingests a batch. Embeddings for items that lack one are
// computed concurrently through the worker pool; persistence happens
// per item so one bad item cannot sink the rest. When any item fails
// the returned error wraps core.ErrPartialFailure and the outcomes
// carry the per-item detail.
func (p *Pipeline) CreateChunks(ctx context.Context, indexName string, inputs []*ChunkInput) ([]*BatchOutcome, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: %w", core.ErrValidation, ErrEmptyBatch)
	}

	outcomes := make([]*BatchOutcome, len(inputs))
	chunks := make([]*core.Chunk, len(inputs))

	var wg sync.WaitGroup
	for i, input := range inputs {
		outcomes[i] = &BatchOutcome{Position: i}
		chunk := &core.Chunk{
			Content:   input.Content,
			Metadata:  input.Metadata,
			Embedding: input.Embedding,
		}
		chunks[i] = chunk

		if err := core.ValidateChunk(chunk); err != nil {
			outcomes[i].Err = err
			continue
		}
		if len(chunk.Embedding) > 0 {
			continue
		}

		wg.Add(1)
		i := i
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			embedding, err := p.embedder.EmbedText(ctx, chunks[i].Content)
			if err != nil {
				outcomes[i].Err = err
				return
			}
			chunks[i].Embedding = embedding
		})
		if submitErr != nil {
			wg.Done()
			outcomes[i].Err = submitErr
		}
	}
	wg.Wait()

	failures := 0
	for i, outcome := range outcomes {
		if outcome.Err != nil {
			failures++
			continue
		}
		added, err := p.chunks.AddChunks(ctx, indexName, chunks[i])
		if err != nil {
			outcome.Err = err
			failures++
			continue
		}
		outcome.Chunk = added[0]
	}

	if failures > 0 {
		p.logger.Warn("batch ingestion completed with failures",
			"index", indexName, "total", len(inputs), "failed", failures)
		return outcomes, fmt.Errorf("%w: %d of %d items failed", core.ErrPartialFailure, failures, len(inputs))
	}
	return outcomes, nil
}

// UpdateChunk applies a partial update. A content change re-embeds
// unless the same call supplies an explicit embedding; a non-nil
// metadata replaces the stored metadata wholesale.
func (p *Pipeline) UpdateChunk(ctx context.Context, indexName, docID string, update *ChunkUpdate) (*core.Chunk, error) {
	chunk, err := p.chunks.GetChunk(ctx, indexName, docID)
	if err != nil {
		return nil, err
	}

	contentChanged := false
	if update.Content != nil && *update.Content != chunk.Content {
		chunk.Content = *update.Content
		contentChanged = true
	}
	if update.Metadata != nil {
		chunk.Metadata = update.Metadata
	}

	switch {
	case len(update.Embedding) > 0:
		chunk.Embedding = update.Embedding
	case contentChanged:
		embedding, err := p.embedder.EmbedText(ctx, chunk.Content)
		if err != nil {
			p.logger.Error("failed to re-embed updated content", "index", indexName, "doc", docID, "err", err)
			return nil, err
		}
		chunk.Embedding = embedding
	}

	return p.chunks.UpdateChunk(ctx, chunk)
}

// GetChunk retrieves a single chunk.
func (p *Pipeline) GetChunk(ctx context.Context, indexName, docID string) (*core.Chunk, error) {
	return p.chunks.GetChunk(ctx, indexName, docID)
}

// ListChunks returns all chunks of the index, most recently updated first.
func (p *Pipeline) ListChunks(ctx context.Context, indexName string) ([]*core.Chunk, error) {
	return p.chunks.ListChunks(ctx, indexName)
}

// DeleteChunk removes a chunk and its incident edges.
func (p *Pipeline) DeleteChunk(ctx context.Context, indexName, docID string) error {
	return p.chunks.DeleteChunk(ctx, indexName, docID)
}
