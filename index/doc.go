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

// Package index builds and caches per-language embedding indexes.
//
// An Index holds, for each catalog partition, the embedding vector of every
// wine, aligned by position with the partition's wines. The first request
// for a partition builds its entry with a single batched embedding call;
// every concurrent request for the same partition waits on that one build
// and receives the same *Entry. Later requests read the cached entry without
// locking.
//
// Entries are keyed by the partition's catalog version and an invalidation
// epoch. A catalog reload that changes a partition, or an explicit
// Invalidate, makes the next request rebuild that partition.
//
// Builds never fail: wines whose embeddings could not be produced get an
// empty vector and are counted in Entry.Failures.
package index
