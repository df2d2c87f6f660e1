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

// Package search ranks wines of a catalog partition against a text query.
//
// Service is the entry point. A blank query lists the whole partition. With
// semantic search enabled, the Ranker runs two stages:
//
//  1. Cosine similarity between the query embedding and every wine's
//     embedding, keeping the FirstStageCap best candidates.
//  2. A rerank blending similarity with normalized like/dislike feedback:
//     finalScore = Alpha*similarity + Beta*normFb, returning TopK results.
//
// With semantic search disabled, KeywordSearch filters the partition by a
// case-insensitive substring match on name, description and varieties.
//
// Provider outages and feedback store errors degrade the ranking (zero
// similarity, zero feedback) instead of failing the request. SearchMonitor
// hooks make every degraded path observable.
package search
