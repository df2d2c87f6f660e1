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
	"strconv"
	"sync"

	"github.com/poiesic/sommelier/core"
)

// StaticSource serves partitions held in memory.
type StaticSource struct {
	fallback core.Language

	mu         sync.RWMutex
	partitions map[core.Language]*partition
	revision   int
}

// NewStaticSource creates a source from in-memory partitions. fallback
// names the partition served for unknown keys and must be present.
func NewStaticSource(fallback core.Language, data map[core.Language][]*core.Wine) (*StaticSource, error) {
	if _, ok := data[fallback]; !ok {
		return nil, ErrNoPartitions
	}
	s := &StaticSource{
		fallback:   fallback,
		partitions: make(map[core.Language]*partition, len(data)),
	}
	for lang, wines := range data {
		s.replace(lang, wines)
	}
	return s, nil
}

// Replace swaps a partition's contents and bumps its version.
func (s *StaticSource) Replace(lang core.Language, wines []*core.Wine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replace(lang, wines)
}

func (s *StaticSource) replace(lang core.Language, wines []*core.Wine) {
	s.revision++
	s.partitions[lang] = &partition{wines: wines, version: "r" + strconv.Itoa(s.revision)}
}

func (s *StaticSource) get(lang core.Language) *partition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.partitions[lang]; ok {
		return p
	}
	return s.partitions[s.fallback]
}

// Resolve maps a raw language key onto a served partition.
func (s *StaticSource) Resolve(raw string) core.Language {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return resolve(raw, s.fallback, func(l core.Language) bool {
		_, ok := s.partitions[l]
		return ok
	})
}

// Load returns the wines of a partition.
func (s *StaticSource) Load(lang core.Language) []*core.Wine {
	return s.get(lang).wines
}

// Version returns the partition's revision tag.
func (s *StaticSource) Version(lang core.Language) string {
	return s.get(lang).version
}

// Languages lists the held partitions.
func (s *StaticSource) Languages() []core.Language {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Language, 0, len(s.partitions))
	for _, l := range core.Languages {
		if _, ok := s.partitions[l]; ok {
			out = append(out, l)
		}
	}
	return out
}
