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

package openai

import (
	"log/slog"

	"github.com/poiesic/chunkd/ai"
)

// Provider implements ai.AIProvider using OpenAI-compatible services.
// The embedder is wrapped in a throttle so upstream request concurrency
// stays bounded regardless of how many callers share the provider.
type Provider struct {
	config      *ai.Config
	embedder    *ai.ThrottledEmbedder
	synthesizer *Synthesizer
	logger      *slog.Logger
}

// NewProvider creates a new AI provider with OpenAI-compatible services.
// The config is validated and normalized before use.
//
// Returns ai.AIProvider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}

	throttled, err := ai.NewThrottledEmbedder(embedder, config)
	if err != nil {
		return nil, err
	}

	synthesizer, err := newSynthesizer(config)
	if err != nil {
		throttled.Close()
		return nil, err
	}

	return &Provider{
		config:      config,
		embedder:    throttled,
		synthesizer: synthesizer,
		logger:      slog.Default().With("component", "openai-provider"),
	}, nil
}

// Embedder returns the throttled text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Synthesizer returns the answer synthesis service.
func (p *Provider) Synthesizer() ai.Synthesizer {
	return p.synthesizer
}

// Close releases the embedder's worker pool.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return p.embedder.Close()
}
