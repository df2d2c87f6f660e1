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

package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/sommelier/ai"
	"github.com/poiesic/sommelier/catalog"
	"github.com/poiesic/sommelier/core"
	"github.com/poiesic/sommelier/index"
)

// Service answers wine searches for a language partition. It routes blank
// queries to the full partition, and other queries to semantic ranking or
// keyword matching depending on Config.SemanticEnabled.
type Service struct {
	source    catalog.Source
	feedback  FeedbackSource
	provider  ai.AIProvider
	index     *index.Index
	ranker    *Ranker
	config    Config
	monitor   SearchMonitor
	cacheSize int
	model     string
	indexOpts []index.Option
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithConfig sets the ranking parameters.
// Default is DefaultConfig(), which disables semantic search.
func WithConfig(config Config) Option {
	return func(s *Service) error {
		s.config = config
		return nil
	}
}

// WithMonitor installs a monitor observing every search.
func WithMonitor(monitor SearchMonitor) Option {
	return func(s *Service) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		s.monitor = monitor
		return nil
	}
}

// WithQueryCache caches up to size query embeddings. Zero disables caching.
func WithQueryCache(size int) Option {
	return func(s *Service) error {
		s.cacheSize = size
		return nil
	}
}

// WithEmbeddingModel names the embedding model. It namespaces the query
// cache so vectors of one model are never served for another.
func WithEmbeddingModel(model string) Option {
	return func(s *Service) error {
		s.model = model
		return nil
	}
}

// WithIndexOptions passes options to the language index.
func WithIndexOptions(opts ...index.Option) Option {
	return func(s *Service) error {
		s.indexOpts = append(s.indexOpts, opts...)
		return nil
	}
}

// NewService creates a search service. feedback and provider are only
// required when the configuration enables semantic search.
func NewService(source catalog.Source, feedback FeedbackSource, provider ai.AIProvider, opts ...Option) (*Service, error) {
	if source == nil {
		return nil, ErrCatalogRequired
	}

	s := &Service{
		source:   source,
		feedback: feedback,
		provider: provider,
		config:   DefaultConfig(),
		monitor:  &noopMonitor{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "search")
	s.config = s.config.Sanitized(s.logger)

	if !s.config.SemanticEnabled {
		s.logger.Info("semantic search disabled, using keyword matching")
		return s, nil
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if feedback == nil {
		return nil, ErrFeedbackSourceRequired
	}

	idx, err := index.New(source, provider.Embedder(), append([]index.Option{index.WithLogger(s.logger)}, s.indexOpts...)...)
	if err != nil {
		return nil, err
	}
	s.index = idx

	queryEmbedder := provider.Embedder()
	if s.cacheSize > 0 {
		queryEmbedder = ai.NewCachedEmbedder(queryEmbedder, queryCacheNamespace(s.model), s.cacheSize)
	}
	s.ranker = NewRanker(idx, queryEmbedder, feedback, s.config, s.logger)
	return s, nil
}

// Search returns the wines of the language partition matching query.
// An absent or whitespace-only query returns the whole partition unranked.
// Unknown languages use the default partition. The only error is ctx ending.
func (s *Service) Search(ctx context.Context, lang string, query string) ([]core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, lang, query, s.monitor)
}

// SearchWithMonitor is Search with a per-call monitor.
func (s *Service) SearchWithMonitor(ctx context.Context, lang string, query string, monitor SearchMonitor) ([]core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	partition := s.source.Resolve(lang)
	query = strings.TrimSpace(query)
	monitor.Start(partition, query)

	var results []core.SearchResult
	switch {
	case query == "":
		results = unranked(s.source.Load(partition))
		monitor.ListAll(len(results))

	case !s.config.SemanticEnabled:
		results = unranked(KeywordSearch(s.source.Load(partition), query))
		monitor.KeywordFallback(len(results))

	default:
		var err error
		results, err = s.ranker.Rank(ctx, partition, query, monitor)
		if err != nil {
			s.logger.Debug("search abandoned", "language", partition, "err", err)
			return nil, err
		}
	}

	monitor.Finish(results)
	return results, nil
}

// Index returns the language index, or nil when semantic search is disabled.
func (s *Service) Index() *index.Index {
	return s.index
}

// Config returns the effective ranking parameters.
func (s *Service) Config() Config {
	return s.config
}

func queryCacheNamespace(model string) string {
	if model == "" {
		return "query"
	}
	return "query:" + model
}

func unranked(wines []*core.Wine) []core.SearchResult {
	results := make([]core.SearchResult, len(wines))
	for i, w := range wines {
		results[i] = core.SearchResult{Wine: w}
	}
	return results
}
