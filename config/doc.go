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

// Package config loads process configuration for the sommelier binaries.
//
// Values are layered, later layers winning:
//
//  1. Built-in defaults (DefaultConfig)
//  2. An optional YAML file
//  3. Environment variables
//
// Every setting has an environment variable named SOMMELIER_ followed by
// its path with dots replaced by underscores, e.g. search.top_k is
// SOMMELIER_SEARCH_TOP_K. A few unprefixed names are also honored for
// compatibility with existing deployments:
//
//	OPENAI_API_KEY  ai.api_key
//	RE_RANK_ALPHA   search.alpha
//	RE_RANK_BETA    search.beta
//
// Prefixed variables win over the unprefixed aliases. Environment values
// that do not parse as the setting's type are ignored with a warning, so a
// typo falls back to the file or default value instead of stopping the
// process.
package config
