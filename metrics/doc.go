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

// Package metrics exports search and index telemetry to Prometheus.
//
// Metrics implements search.SearchMonitor and provides an index build
// observer, so the degraded paths of a search (query embedding failure,
// feedback unavailable, missing wine embeddings) show up as counters:
//
//	reg := prometheus.NewRegistry()
//	m := metrics.New(reg)
//	svc, err := search.NewService(src, repo, provider,
//	    search.WithMonitor(m),
//	    search.WithIndexOptions(index.WithBuildObserver(m.ObserveIndexBuild)),
//	)
package metrics
