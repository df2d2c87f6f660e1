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

// Package catalog provides the per-language wine partitions searched by
// Sommelier.
//
// A Source resolves raw language keys to a supported partition, returns the
// partition's wines and reports a version string that changes whenever the
// partition's contents change. The index package keys its cached embeddings
// by that version, so reloading a changed catalog triggers a rebuild.
//
// Two sources are provided:
//
//   - FileSource: one JSON array file per language, re-readable via Reload
//   - StaticSource: in-memory partitions for tests and embedding
package catalog
