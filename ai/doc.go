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

// Package ai provides abstractions for the embedding service used by Sommelier.
//
// The package defines two interfaces:
//
//   - Embedder: Generates vector embeddings from text
//   - AIProvider: Owns an Embedder and its resources
//
// # Per-item results
//
// Embedders report each text separately through the Embedding type, which
// is either a vector (Embedded) or a failure reason (Failed). A batch never
// fails as a whole: one bad text, one failed request or a truncated response
// only marks the affected positions as failed, and the result slice always
// lines up with the input.
//
//	results := embedder.EmbedTexts(ctx, docs)
//	for i, r := range results {
//	    if r.Failed() {
//	        log.Warn("no vector", "doc", i, "err", r.Err)
//	    }
//	}
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Public constructors (openai.NewProvider, openai.NewEmbedder) return
// interface types. Test constructors (mock.NewMockEmbedder) return concrete
// types so tests can inspect call counts and inject behavior.
//
// # Caching
//
// CachedEmbedder keeps successful vectors in an LRU cache. Search uses it
// for query embeddings so repeated queries skip the network round trip.
package ai
