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

// Package search provides hybrid retrieval over the chunks of one index.
//
// The Engine type scores every chunk of the queried index and combines:
//   - Vector similarity between the query embedding and chunk embeddings
//   - Keyword overlap against chunk content and string metadata
//
// Ranking is pluggable through the Strategy interface: pure vector,
// hybrid fusion, or graph-boosted (edges lift connected chunks).
// Candidates always come from a single index, so results never leak
// across partitions.
package search
