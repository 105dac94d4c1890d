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

package ai

import (
	"errors"
	"strings"
	"time"
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for a local OpenAI-compatible server.
	EmbeddingHost string

	// SynthesizerHost is the base URL for the answer synthesis service API.
	SynthesizerHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "embeddinggemma", "text-embedding-3-small"
	EmbeddingModel string

	// SynthesizerModel is the model identifier to use for answer synthesis.
	// Example: "qwen2.5:3b", "gpt-4o-mini"
	SynthesizerModel string

	// APIKey is the bearer token sent to the model services. Local
	// OpenAI-compatible servers ignore it; "none" is the conventional
	// placeholder. Default: "none"
	APIKey string

	// MaxConcurrent bounds the number of in-flight embedding requests.
	// Default: 4
	MaxConcurrent int

	// MaxRetries is the number of attempts made per upstream request
	// before giving up. Default: 3
	MaxRetries int

	// RetryBaseDelay is the initial backoff delay; it doubles on each
	// retry. Default: 500ms
	RetryBaseDelay time.Duration
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithSynthesizerHost sets the synthesizer service host URL.
func WithSynthesizerHost(host string) ConfigOption {
	return func(c *Config) {
		c.SynthesizerHost = host
	}
}

// WithHost sets both embedding and synthesizer hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.SynthesizerHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithSynthesizerModel sets the synthesizer model identifier.
func WithSynthesizerModel(model string) ConfigOption {
	return func(c *Config) {
		c.SynthesizerModel = model
	}
}

// WithAPIKey sets the bearer token for the model services.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithMaxConcurrent sets the embedding request concurrency bound.
func WithMaxConcurrent(n int) ConfigOption {
	return func(c *Config) {
		c.MaxConcurrent = n
	}
}

// WithMaxRetries sets the per-request attempt limit.
func WithMaxRetries(n int) ConfigOption {
	return func(c *Config) {
		c.MaxRetries = n
	}
}

// WithRetryBaseDelay sets the initial retry backoff delay.
func WithRetryBaseDelay(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.RetryBaseDelay = d
	}
}

// DefaultConfig returns a Config with sensible defaults for local
// OpenAI-compatible services. By default both embedding and synthesis
// use the same host.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		EmbeddingHost:    defaultHost,
		SynthesizerHost:  defaultHost,
		EmbeddingModel:   "embeddinggemma",
		SynthesizerModel: "qwen2.5:3b",
		APIKey:           "none",
		MaxConcurrent:    4,
		MaxRetries:       3,
		RetryBaseDelay:   500 * time.Millisecond,
	}
}

// NewConfig creates a Config with the default values and applies the
// provided options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form. It adds
// the /v1 suffix to hosts if missing, which OpenAI-compatible APIs
// (Ollama, LocalAI, vLLM, etc) require.
func (c *Config) Normalize() {
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/") + "/v1"
	}
	if c.SynthesizerHost != "" && !strings.HasSuffix(c.SynthesizerHost, "/v1") {
		c.SynthesizerHost = strings.TrimSuffix(c.SynthesizerHost, "/") + "/v1"
	}
	if c.APIKey == "" {
		c.APIKey = "none"
	}
}

// Validate checks that the configuration is valid and complete.
// It normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.SynthesizerHost == "" {
		return errors.New("ai config: SynthesizerHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.SynthesizerModel == "" {
		return errors.New("ai config: SynthesizerModel is required")
	}
	if c.MaxConcurrent < 1 {
		return errors.New("ai config: MaxConcurrent must be at least 1")
	}
	if c.MaxRetries < 1 {
		return errors.New("ai config: MaxRetries must be at least 1")
	}
	if c.RetryBaseDelay <= 0 {
		return errors.New("ai config: RetryBaseDelay must be positive")
	}
	return nil
}
