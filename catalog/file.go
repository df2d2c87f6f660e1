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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"

	"github.com/poiesic/sommelier/core"
)

// DefaultFiles maps each language to its file name under the data directory.
var DefaultFiles = map[core.Language]string{
	core.LanguageEnglish: "data_EN.json",
	core.LanguageFrench:  "synthetic_wine_database_10000.json",
	core.LanguageDutch:   "data_NL.json",
}

// FileSource serves partitions read from JSON array files. Files are read
// eagerly; Reload re-reads them and swaps partitions atomically.
type FileSource struct {
	files    map[core.Language]string
	fallback core.Language
	logger   *slog.Logger

	mu         sync.RWMutex
	partitions map[core.Language]*partition
}

// FileOption configures a FileSource.
type FileOption func(*FileSource)

// WithDefaultLanguage sets the partition served for unknown keys.
// Default is core.DefaultLanguage.
func WithDefaultLanguage(lang core.Language) FileOption {
	return func(s *FileSource) {
		s.fallback = lang
	}
}

// WithFileLogger sets a custom logger.
// Default is slog.Default().
func WithFileLogger(logger *slog.Logger) FileOption {
	return func(s *FileSource) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// NewFileSource reads one file per language. files maps languages to paths;
// relative paths are resolved against dir. A missing file leaves its
// language unserved (it resolves to the default partition). The default
// partition itself must load.
func NewFileSource(dir string, files map[core.Language]string, opts ...FileOption) (*FileSource, error) {
	if len(files) == 0 {
		files = DefaultFiles
	}
	resolved := make(map[core.Language]string, len(files))
	for lang, name := range files {
		if !filepath.IsAbs(name) {
			name = filepath.Join(dir, name)
		}
		resolved[lang] = name
	}

	s := &FileSource{
		files:    resolved,
		fallback: core.DefaultLanguage,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "catalog")

	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads every file. Partitions whose bytes did not change keep
// their version. On error the previous partitions stay in place.
func (s *FileSource) Reload() error {
	next := make(map[core.Language]*partition, len(s.files))
	for lang, path := range s.files {
		p, err := readPartition(path)
		if err != nil {
			if os.IsNotExist(err) && lang != s.fallback {
				s.logger.Warn("catalog file missing, language uses default partition", "language", lang, "path", path)
				continue
			}
			return fmt.Errorf("load catalog %s: %w", lang, err)
		}
		next[lang] = p
		s.logger.Debug("catalog partition loaded", "language", lang, "wines", len(p.wines), "version", p.version)
	}
	if _, ok := next[s.fallback]; !ok {
		return fmt.Errorf("%w: default language %s", ErrNoPartitions, s.fallback)
	}

	s.mu.Lock()
	s.partitions = next
	s.mu.Unlock()
	return nil
}

func readPartition(path string) (*partition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var wines []*core.Wine
	if err := json.Unmarshal(data, &wines); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	// Drop null entries so every index position holds a wine
	kept := wines[:0]
	for _, w := range wines {
		if w != nil {
			kept = append(kept, w)
		}
	}
	return &partition{wines: kept, version: core.Fingerprint(data)}, nil
}

func (s *FileSource) get(lang core.Language) *partition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.partitions[lang]; ok {
		return p
	}
	return s.partitions[s.fallback]
}

// Resolve maps a raw language key onto a served partition.
func (s *FileSource) Resolve(raw string) core.Language {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return resolve(raw, s.fallback, func(l core.Language) bool {
		_, ok := s.partitions[l]
		return ok
	})
}

// Load returns the wines of a partition.
func (s *FileSource) Load(lang core.Language) []*core.Wine {
	return s.get(lang).wines
}

// Version returns the content fingerprint of a partition's file.
func (s *FileSource) Version(lang core.Language) string {
	return s.get(lang).version
}

// Languages lists the loaded partitions.
func (s *FileSource) Languages() []core.Language {
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
