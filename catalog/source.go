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

package catalog

import (
	"errors"

	"github.com/poiesic/sommelier/core"
)

// ErrNoPartitions indicates a source was created without any language data.
var ErrNoPartitions = errors.New("catalog has no language partitions")

// Source is a read-only, per-language collection of wines.
// Implementations must be safe for concurrent use.
type Source interface {
	// Resolve maps a raw language key onto a served partition. Unknown or
	// blank keys resolve to the default partition.
	Resolve(raw string) core.Language

	// Load returns the wines of a partition. The returned slice must not be
	// modified by callers.
	Load(lang core.Language) []*core.Wine

	// Version identifies the current contents of a partition.
	Version(lang core.Language) string

	// Languages lists the partitions the source serves.
	Languages() []core.Language
}

// partition is an immutable snapshot of one language's wines.
type partition struct {
	wines   []*core.Wine
	version string
}

// resolve implements Source.Resolve over a partition set: known languages
// without data fall back to the default partition.
func resolve(raw string, fallback core.Language, has func(core.Language) bool) core.Language {
	lang, ok := core.ParseLanguage(raw)
	if !ok || !has(lang) {
		return fallback
	}
	return lang
}
