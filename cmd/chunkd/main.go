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

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/chunkd"
	"github.com/poiesic/chunkd/ai"
	"github.com/poiesic/chunkd/ai/openai"
	"github.com/poiesic/chunkd/api"
	"github.com/poiesic/chunkd/graph"
	"github.com/poiesic/chunkd/ingestion"
	"github.com/poiesic/chunkd/search"
	"github.com/poiesic/chunkd/storage"
	"github.com/poiesic/chunkd/storage/badger"
	"github.com/poiesic/chunkd/storage/cypher"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "chunkd",
		Usage: "Multi-tenant chunk store with hybrid retrieval and a relationship graph",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API server",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "listen",
						Usage: "HTTP listen address",
						Value: ":8080",
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
						Value: "embeddinggemma",
					},
					&cli.StringFlag{
						Name:  "synthesizer-host",
						Usage: "Answer synthesis service host URL (defaults to embedding-host)",
					},
					&cli.StringFlag{
						Name:  "synthesizer-model",
						Usage: "Answer synthesis model name",
						Value: "qwen2.5:3b",
					},
					&cli.BoolFlag{
						Name:  "synthesize",
						Usage: "Attach a synthesized answer to search responses",
					},
					&cli.StringFlag{
						Name:  "api-key",
						Usage: "Bearer token for the model services",
						Value: "none",
					},
					&cli.StringFlag{
						Name:  "strategy",
						Usage: "Ranking strategy (vector, hybrid, graph)",
						Value: "hybrid",
					},
					&cli.Float64Flag{
						Name:  "vector-weight",
						Usage: "Vector share of the hybrid fusion score (0..1)",
						Value: search.DefaultVectorWeight,
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Worker pool size for batch embedding",
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for embedding requests",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 500 * time.Millisecond,
					},
					&cli.StringFlag{
						Name:  "graph-backend",
						Usage: "Edge storage backend (badger, cypher)",
						Value: "badger",
					},
					&cli.StringFlag{
						Name:  "graph-url",
						Usage: "Statement endpoint base URL (cypher backend)",
					},
					&cli.StringFlag{
						Name:  "graph-user",
						Usage: "Statement endpoint username",
					},
					&cli.StringFlag{
						Name:  "graph-password",
						Usage: "Statement endpoint password",
					},
					&cli.StringFlag{
						Name:  "graph-database",
						Usage: "Statement endpoint database name",
						Value: "neo4j",
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Recompute the embeddings of every chunk in an index",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "index",
						Usage:    "Index to reembed",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serveCommand(c *cli.Context) error {
	synthesizerHost := c.String("synthesizer-host")
	if synthesizerHost == "" {
		synthesizerHost = c.String("embedding-host")
	}

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithSynthesizerHost(synthesizerHost),
		ai.WithSynthesizerModel(c.String("synthesizer-model")),
		ai.WithAPIKey(c.String("api-key")),
		ai.WithMaxRetries(c.Int("max-retries")),
		ai.WithRetryBaseDelay(c.Duration("retry-delay")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	storeOpts := []chunkd.StoreOption{chunkd.WithAIConfig(aiConfig)}

	store, err := chunkd.Open(c.String("db"), storeOpts...)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	edgeRepo := store.EdgeRepository()
	if c.String("graph-backend") == "cypher" {
		client, err := cypher.NewClient(cypher.ClientConfig{
			BaseURL:  c.String("graph-url"),
			Database: c.String("graph-database"),
			Username: c.String("graph-user"),
			Password: c.String("graph-password"),
		})
		if err != nil {
			return fmt.Errorf("failed to create statement client: %w", err)
		}
		edgeRepo, err = cypher.NewEdgeRepository(client, store.ChunkRepository())
		if err != nil {
			return fmt.Errorf("failed to create edge repository: %w", err)
		}
	}

	strategy, err := buildStrategy(c, edgeRepo)
	if err != nil {
		return err
	}

	var pipelineOpts []ingestion.Option
	if c.Int("pool-size") > 0 {
		pipelineOpts = append(pipelineOpts, ingestion.WithPoolSize(c.Int("pool-size")))
	}
	pipeline, err := store.NewIngestionPipeline(pipelineOpts...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	engine, err := store.NewSearchEngine(search.WithStrategy(strategy))
	if err != nil {
		return fmt.Errorf("failed to create search engine: %w", err)
	}

	graphService, err := graph.NewGraph(store.IndexRepository(), store.ChunkRepository(), edgeRepo)
	if err != nil {
		return fmt.Errorf("failed to create graph service: %w", err)
	}

	var serverOpts []api.ServerOption
	if c.Bool("synthesize") {
		serverOpts = append(serverOpts, api.WithSynthesizer(store.Provider().Synthesizer()))
	}
	server, err := api.NewServer(store.IndexRepository(), pipeline, engine, graphService, serverOpts...)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	httpServer := &http.Server{
		Addr:    c.String("listen"),
		Handler: server.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func buildStrategy(c *cli.Context, edges storage.EdgeRepository) (search.Strategy, error) {
	weight := float32(c.Float64("vector-weight"))
	hybrid := &search.HybridStrategy{VectorWeight: weight}

	switch c.String("strategy") {
	case "vector":
		return &search.VectorStrategy{}, nil
	case "hybrid":
		return hybrid, nil
	case "graph":
		return search.NewGraphBoostedStrategy(hybrid, edges, 0)
	default:
		return nil, fmt.Errorf("invalid strategy %q: must be one of vector, hybrid, graph", c.String("strategy"))
	}
}

func reembedCommand(c *cli.Context) error {
	ctx := context.Background()

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewChunkRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer repo.Close()

	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	reembedConfig := &ingestion.ReembedConfig{
		BatchSize:  c.Int("batch-size"),
		MaxRetries: c.Int("max-retries"),
		RetryDelay: c.Duration("retry-delay"),
	}
	if reembedConfig.BatchSize <= 0 {
		return errors.New("batch-size must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return errors.New("max-retries must be greater than 0")
	}

	reembedder, err := ingestion.NewReembedder(repo, embedder, reembedConfig, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to create reembedder: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Index: %s\n", c.String("index"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := reembedder.Run(ctx, c.String("index")); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}

	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
