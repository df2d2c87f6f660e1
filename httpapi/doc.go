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

// Package httpapi exposes wine search and feedback over HTTP.
//
// Routes:
//
//	GET  /api/wines?lang={en|fr|nl}&q={query}  search results as a JSON array
//	GET  /api/feedback[?limit=N]               raw feedback, newest first
//	GET  /api/feedback?type=agg                per-wine like/dislike totals
//	POST /api/feedback                         {"userId","wineId","feedback"}
//	GET  /metrics                              Prometheus exposition
//	GET  /healthz                              liveness
//
// Errors are reported as {"error": message}. Search never fails because a
// provider or the feedback store is down; it degrades instead.
package httpapi
