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

// Package ai provides abstractions for the AI services chunkd depends on.
//
// Two interfaces cover the external model surface:
//
//   - Embedder: generates vector embeddings from text
//   - Synthesizer: composes a natural-language answer from retrieved chunks
//
// AIProvider aggregates both for initialization and lifecycle management.
// The ai/openai sub-package implements them against OpenAI-compatible
// APIs; ai/mock provides test doubles so the rest of the system can be
// tested without a model server.
//
// Public constructors return interface types to keep callers decoupled
// from concrete implementations; mock constructors return concrete types
// so tests can inject behavior and make assertions.
package ai
