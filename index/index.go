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

package index

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/poiesic/sommelier/ai"
	"github.com/poiesic/sommelier/catalog"
	"github.com/poiesic/sommelier/core"
)

// DefaultBuildTimeout bounds a single index build.
const DefaultBuildTimeout = 5 * time.Minute

// Entry is the built index of one language partition. Vectors[i] is the
// embedding of Wines[i]; an empty vector marks a wine that could not be
// embedded. Entries are immutable once published.
type Entry struct {
	Language core.Language
	Wines    []*core.Wine
	Vectors  [][]float32
	Failures int
	Version  string
	BuiltAt  time.Time

	key string
}

// Len returns the number of indexed wines.
func (e *Entry) Len() int {
	return len(e.Wines)
}

// BuildObserver is notified after each completed build.
type BuildObserver func(entry *Entry, elapsed time.Duration)

// Index is a per-language cache of embedding entries with single-flight
// builds. It is safe for concurrent use.
type Index struct {
	source       catalog.Source
	embedder     ai.Embedder
	buildTimeout time.Duration
	observer     BuildObserver
	logger       *slog.Logger

	group   singleflight.Group
	entries sync.Map // core.Language -> *Entry
	epochs  sync.Map // core.Language -> *atomic.Uint64
	builds  atomic.Int64
}

// Option configures an Index.
type Option func(*Index) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(x *Index) error {
		if logger == nil {
			logger = slog.Default()
		}
		x.logger = logger
		return nil
	}
}

// WithBuildTimeout bounds each build. Non-positive values use
// DefaultBuildTimeout.
func WithBuildTimeout(d time.Duration) Option {
	return func(x *Index) error {
		if d <= 0 {
			d = DefaultBuildTimeout
		}
		x.buildTimeout = d
		return nil
	}
}

// WithBuildObserver registers a callback run after each build.
func WithBuildObserver(fn BuildObserver) Option {
	return func(x *Index) error {
		x.observer = fn
		return nil
	}
}

// New creates an empty index over source, embedding with embedder.
func New(source catalog.Source, embedder ai.Embedder, opts ...Option) (*Index, error) {
	if source == nil {
		return nil, ErrCatalogRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	x := &Index{
		source:       source,
		embedder:     embedder,
		buildTimeout: DefaultBuildTimeout,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(x); err != nil {
			return nil, err
		}
	}
	x.logger = x.logger.With("component", "index")
	return x, nil
}

func (x *Index) epoch(lang core.Language) *atomic.Uint64 {
	if e, ok := x.epochs.Load(lang); ok {
		return e.(*atomic.Uint64)
	}
	e, _ := x.epochs.LoadOrStore(lang, new(atomic.Uint64))
	return e.(*atomic.Uint64)
}

// key identifies the contents an entry must have been built from.
func (x *Index) key(lang core.Language) (key, version string) {
	version = x.source.Version(lang)
	return fmt.Sprintf("%s@%s#%d", lang, version, x.epoch(lang).Load()), version
}

// Get returns the entry for lang, building it if needed. Unknown languages
// resolve to the catalog's default partition. Concurrent callers share one
// build and receive the same *Entry.
//
// The build is detached from ctx: a caller whose context ends gets
// ctx.Err(), while the build runs on and is cached for everyone else.
func (x *Index) Get(ctx context.Context, lang core.Language) (*Entry, error) {
	lang = x.source.Resolve(string(lang))
	key, version := x.key(lang)

	if e, ok := x.entries.Load(lang); ok && e.(*Entry).key == key {
		return e.(*Entry), nil
	}

	ch := x.group.DoChan(key, func() (any, error) {
		// A flight that finished between our lookup and DoChan already stored it
		if e, ok := x.entries.Load(lang); ok && e.(*Entry).key == key {
			return e, nil
		}
		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), x.buildTimeout)
		defer cancel()

		e := x.build(buildCtx, lang, version, key)
		x.store(lang, e)
		return e, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Entry), nil
	}
}

// store caches e unless its key is no longer current. A flight that
// finishes after a newer one never replaces the newer entry.
func (x *Index) store(lang core.Language, e *Entry) bool {
	for {
		old, loaded := x.entries.Load(lang)
		if current, _ := x.key(lang); e.key != current {
			x.logger.Debug("discarding stale index build", "language", lang, "key", e.key, "current", current)
			return false
		}
		if !loaded {
			if _, raced := x.entries.LoadOrStore(lang, e); !raced {
				return true
			}
			continue
		}
		if x.entries.CompareAndSwap(lang, old, e) {
			return true
		}
	}
}

// build embeds every wine of the partition in one batch.
func (x *Index) build(ctx context.Context, lang core.Language, version, key string) *Entry {
	start := time.Now()
	x.builds.Add(1)

	wines := x.source.Load(lang)
	x.logger.Info("building language index", "language", lang, "wines", len(wines), "version", version)

	docs := make([]string, len(wines))
	for i, w := range wines {
		docs[i] = w.Document()
	}

	var results []ai.Embedding
	if len(docs) > 0 {
		results = x.embedder.EmbedTexts(ctx, docs)
	}
	if len(results) != len(docs) {
		x.logger.Warn("embedder returned misaligned batch", "language", lang, "want", len(docs), "got", len(results))
	}

	vectors := make([][]float32, len(wines))
	failures := 0
	for i := range wines {
		if i >= len(results) || results[i].Failed() {
			failures++
			continue
		}
		vectors[i] = results[i].Vector
	}

	entry := &Entry{
		Language: lang,
		Wines:    wines,
		Vectors:  vectors,
		Failures: failures,
		Version:  version,
		BuiltAt:  time.Now(),
		key:      key,
	}

	elapsed := time.Since(start)
	if failures > 0 {
		x.logger.Warn("language index built with missing embeddings", "language", lang, "wines", len(wines), "failures", failures, "elapsed", elapsed)
	} else {
		x.logger.Info("language index built", "language", lang, "wines", len(wines), "elapsed", elapsed)
	}
	if x.observer != nil {
		x.observer(entry, elapsed)
	}
	return entry
}

// Peek returns the cached entry for lang without building. ok is false when
// no current entry exists.
func (x *Index) Peek(lang core.Language) (entry *Entry, ok bool) {
	lang = x.source.Resolve(string(lang))
	key, _ := x.key(lang)
	if e, found := x.entries.Load(lang); found && e.(*Entry).key == key {
		return e.(*Entry), true
	}
	return nil, false
}

// Invalidate makes the next Get for lang rebuild its entry.
func (x *Index) Invalidate(lang core.Language) {
	lang = x.source.Resolve(string(lang))
	x.epoch(lang).Add(1)
	x.logger.Debug("language index invalidated", "language", lang)
}

// InvalidateAll makes the next Get for every language rebuild.
func (x *Index) InvalidateAll() {
	for _, lang := range core.Languages {
		x.epoch(lang).Add(1)
	}
	x.logger.Debug("all language indexes invalidated")
}

// Warm builds the entries for langs, or for every catalog language when
// none are given.
func (x *Index) Warm(ctx context.Context, langs ...core.Language) error {
	if len(langs) == 0 {
		langs = x.source.Languages()
	}
	for _, lang := range langs {
		if _, err := x.Get(ctx, lang); err != nil {
			return fmt.Errorf("warm %s: %w", lang, err)
		}
	}
	return nil
}

// Builds returns the number of builds run so far.
func (x *Index) Builds() int64 {
	return x.builds.Load()
}
