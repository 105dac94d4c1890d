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

package ingestion

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/chunkd/ai"
	"github.com/poiesic/chunkd/core"
	"github.com/poiesic/chunkd/storage"
)

// ReembedConfig holds configuration for the reembedding operation.
type ReembedConfig struct {
	// BatchSize is the number of chunks embedded per upstream request
	BatchSize int

	// MaxRetries is the maximum number of attempts per batch
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultReembedConfig returns a ReembedConfig with sensible defaults.
func DefaultReembedConfig() *ReembedConfig {
	return &ReembedConfig{
		BatchSize:  100,
		MaxRetries: 3,
		RetryDelay: 1 * time.Second,
	}
}

// Reembedder recomputes the embeddings of every chunk in an index.
// Used after switching embedding models, when the stored vectors no
// longer match what the live embedder produces.
type Reembedder struct {
	chunks   storage.ChunkRepository
	embedder ai.Embedder
	config   *ReembedConfig
	progress io.Writer
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(chunks storage.ChunkRepository, embedder ai.Embedder, config *ReembedConfig, progress io.Writer) (*Reembedder, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultReembedConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reembedder{
		chunks:   chunks,
		embedder: embedder,
		config:   config,
		progress: progress,
	}, nil
}

// Run reembeds every chunk of the index, batch by batch, retrying
// transient embedding failures with exponential backoff.
func (r *Reembedder) Run(ctx context.Context, indexName string) error {
	chunks, err := r.chunks.ListChunks(ctx, indexName)
	if err != nil {
		return fmt.Errorf("failed to list chunks: %w", err)
	}

	total := len(chunks)
	if total == 0 {
		fmt.Fprintf(r.progress, "No chunks found in index %q (0 chunks)\n", indexName)
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d chunks (batch size: %d)\n",
		total, r.config.BatchSize)

	processed := 0
	for start := 0; start < total; start += r.config.BatchSize {
		end := start + r.config.BatchSize
		if end > total {
			end = total
		}
		batch := chunks[start:end]

		if err := r.processBatch(ctx, batch); err != nil {
			return fmt.Errorf("failed to process batch at %d: %w", start, err)
		}

		processed += len(batch)
		fmt.Fprintf(r.progress, "Reembedded %d/%d chunks\n", processed, total)
	}

	fmt.Fprintf(r.progress, "Done: %d chunks reembedded\n", processed)
	return nil
}

// processBatch embeds one batch of contents and writes the new vectors
// back through the repository.
func (r *Reembedder) processBatch(ctx context.Context, batch []*core.Chunk) error {
	texts := make([]string, len(batch))
	for i, chunk := range batch {
		texts[i] = chunk.Content
	}

	var embeddings [][]float32
	err := ai.RetryWithBackoff(ctx, func() error {
		var embedErr error
		embeddings, embedErr = r.embedder.EmbedTexts(ctx, texts)
		return embedErr
	}, r.config.MaxRetries, r.config.RetryDelay)
	if err != nil {
		return err
	}

	if len(embeddings) != len(batch) {
		return fmt.Errorf("embedder returned %d vectors for %d texts", len(embeddings), len(batch))
	}

	for i, chunk := range batch {
		chunk.Embedding = embeddings[i]
		if _, err := r.chunks.UpdateChunk(ctx, chunk); err != nil {
			return err
		}
	}
	return nil
}
