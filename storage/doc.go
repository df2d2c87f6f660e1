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

// Package storage provides the storage abstraction layer for sommelier.
//
// This package defines the repository interface that decouples persistence
// of user feedback from the ranking code. The search package only needs the
// read side (search.FeedbackSource), which every FeedbackRepository satisfies.
//
// # Architecture
//
// A feedback repository keeps three kinds of data:
//   - Raw feedback records, one per like/dislike event
//   - A timestamp index over the raw records, for newest-first listing
//   - Per-wine aggregate counters, updated in the same transaction as the
//     raw record they count
//
// The aggregates can always be recomputed from the raw records with
// RebuildAggregates, which is how an imported or repaired store is brought
// back in line.
//
// # Usage
//
// Create a repository instance:
//
//	backend, err := badger.OpenBackend("/path/to/db", false, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	repo, err := badger.NewFeedbackRepository(backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repo.Close()
//
// Use in tests with in-memory storage:
//
//	repo, backend, err := badger.NewMemoryRepository()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support. Long scans stop early when the context ends.
package storage
