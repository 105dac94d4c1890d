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

// Package chunkd is a multi-tenant chunk store with hybrid retrieval
// and a relationship graph. Store wires the storage backend, AI
// provider and domain services together; the sub-packages can also be
// composed directly.
package chunkd

import (
	"io"
	"log/slog"

	"github.com/poiesic/chunkd/ai"
	"github.com/poiesic/chunkd/ai/openai"
	"github.com/poiesic/chunkd/graph"
	"github.com/poiesic/chunkd/ingestion"
	"github.com/poiesic/chunkd/search"
	"github.com/poiesic/chunkd/storage"
	"github.com/poiesic/chunkd/storage/badger"
)

// Store is the root facade over the repositories and AI provider.
type Store struct {
	backend   *badger.Backend
	indexRepo storage.IndexRepository
	chunkRepo storage.ChunkRepository
	edgeRepo  storage.EdgeRepository
	provider  ai.AIProvider
	logger    *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*storeOptions)

type storeOptions struct {
	aiConfig *ai.Config
	provider ai.AIProvider
	edgeRepo storage.EdgeRepository
	inMemory bool
}

// WithAIConfig sets the configuration used to build the default OpenAI
// provider. Ignored when WithAIProvider is given.
func WithAIConfig(config *ai.Config) StoreOption {
	return func(o *storeOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithAIProvider injects a prebuilt AI provider (tests use ai/mock).
func WithAIProvider(provider ai.AIProvider) StoreOption {
	return func(o *storeOptions) {
		o.provider = provider
	}
}

// WithEdgeRepository overrides the edge backend, e.g. with the cypher
// statement-endpoint repository. Default is badger.
func WithEdgeRepository(edges storage.EdgeRepository) StoreOption {
	return func(o *storeOptions) {
		o.edgeRepo = edges
	}
}

// WithInMemory opens a throwaway in-memory backend; filePath is ignored.
func WithInMemory() StoreOption {
	return func(o *storeOptions) {
		o.inMemory = true
	}
}

// Open opens the store at filePath.
func Open(filePath string, opts ...StoreOption) (*Store, error) {
	options := &storeOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	indexRepo, err := badger.NewIndexRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	chunkRepo, err := badger.NewChunkRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	edgeRepo := options.edgeRepo
	if edgeRepo == nil {
		edgeRepo, err = badger.NewEdgeRepository(backend)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	return &Store{
		backend:   backend,
		indexRepo: indexRepo,
		chunkRepo: chunkRepo,
		edgeRepo:  edgeRepo,
		provider:  provider,
		logger:    slog.Default(),
	}, nil
}

// Close shuts down the provider, repositories and backend.
func (s *Store) Close() error {
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}

	if err := s.edgeRepo.Close(); err != nil {
		s.logger.Error("error closing edge repository", "err", err)
		return err
	}
	if err := s.chunkRepo.Close(); err != nil {
		s.logger.Error("error closing chunk repository", "err", err)
		return err
	}
	if err := s.indexRepo.Close(); err != nil {
		s.logger.Error("error closing index repository", "err", err)
		return err
	}

	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// IndexRepository returns the index repository.
func (s *Store) IndexRepository() storage.IndexRepository {
	return s.indexRepo
}

// ChunkRepository returns the chunk repository.
func (s *Store) ChunkRepository() storage.ChunkRepository {
	return s.chunkRepo
}

// EdgeRepository returns the edge repository.
func (s *Store) EdgeRepository() storage.EdgeRepository {
	return s.edgeRepo
}

// Provider returns the AI provider.
func (s *Store) Provider() ai.AIProvider {
	return s.provider
}

// NewIngestionPipeline builds an ingestion pipeline over this store.
func (s *Store) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(s.chunkRepo, s.provider.Embedder(), opts...)
}

// NewSearchEngine builds a search engine over this store.
func (s *Store) NewSearchEngine(opts ...search.Option) (*search.Engine, error) {
	return search.NewEngine(s.indexRepo, s.chunkRepo, s.provider.Embedder(), opts...)
}

// NewGraph builds the relationship graph service over this store.
func (s *Store) NewGraph() (*graph.Graph, error) {
	return graph.NewGraph(s.indexRepo, s.chunkRepo, s.edgeRepo)
}

// NewReembedder builds a reembedder over this store.
func (s *Store) NewReembedder(config *ingestion.ReembedConfig, progress io.Writer) (*ingestion.Reembedder, error) {
	return ingestion.NewReembedder(s.chunkRepo, s.provider.Embedder(), config, progress)
}
