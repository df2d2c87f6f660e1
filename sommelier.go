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

package sommelier

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/poiesic/sommelier/ai"
	"github.com/poiesic/sommelier/ai/openai"
	"github.com/poiesic/sommelier/catalog"
	"github.com/poiesic/sommelier/config"
	"github.com/poiesic/sommelier/index"
	"github.com/poiesic/sommelier/metrics"
	"github.com/poiesic/sommelier/search"
	"github.com/poiesic/sommelier/storage"
	"github.com/poiesic/sommelier/storage/badger"
)

// ErrConfigRequired is returned by NewRecommender when cfg is nil.
var ErrConfigRequired = errors.New("config required")

// Recommender owns every long-lived component of the engine: the feedback
// store, the catalog, the embedding provider and the search service.
type Recommender struct {
	backend  *badger.Backend
	feedback *badger.FeedbackRepository
	catalog  *catalog.FileSource
	provider ai.AIProvider
	service  *search.Service
	metrics  *metrics.Metrics
	registry *prometheus.Registry
	config   *config.Config
	logger   *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// Option configures a Recommender.
type Option func(*Recommender)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recommender) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
	}
}

// NewRecommender opens the feedback store and catalog described by cfg and
// assembles a search service over them. The embedding provider is only
// created when semantic search is enabled.
func NewRecommender(cfg *config.Config, opts ...Option) (*Recommender, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}
	r := &Recommender{
		config:   cfg,
		registry: prometheus.NewRegistry(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	backend, err := badger.OpenBackend(cfg.Storage.Path, cfg.Storage.InMemory, r.logger)
	if err != nil {
		return nil, err
	}
	r.backend = backend

	feedback, err := badger.NewFeedbackRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	r.feedback = feedback

	src, err := catalog.NewFileSource(cfg.Catalog.Dir, cfg.CatalogFiles(),
		catalog.WithDefaultLanguage(cfg.DefaultLanguage()),
		catalog.WithFileLogger(r.logger),
	)
	if err != nil {
		feedback.Close()
		backend.Close()
		return nil, err
	}
	r.catalog = src

	if cfg.SemanticEnabled() {
		provider, err := openai.NewProvider(cfg.AIProviderConfig(), openai.WithLogger(r.logger))
		if err != nil {
			feedback.Close()
			backend.Close()
			return nil, err
		}
		r.provider = provider
	}

	r.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	r.metrics = metrics.New(r.registry)

	service, err := search.NewService(src, feedback, r.provider,
		search.WithConfig(cfg.SearchConfig()),
		search.WithMonitor(r.metrics),
		search.WithQueryCache(cfg.Search.QueryCacheSize),
		search.WithEmbeddingModel(cfg.AI.Model),
		search.WithIndexOptions(
			index.WithBuildObserver(r.metrics.ObserveIndexBuild),
			index.WithBuildTimeout(cfg.Index.BuildTimeout),
			index.WithLogger(r.logger),
		),
		search.WithLogger(r.logger),
	)
	if err != nil {
		r.Close()
		return nil, err
	}
	r.service = service
	return r, nil
}

// Service returns the search service.
func (r *Recommender) Service() *search.Service {
	return r.service
}

// FeedbackRepository returns the feedback store.
func (r *Recommender) FeedbackRepository() storage.FeedbackRepository {
	return r.feedback
}

// Catalog returns the wine catalog.
func (r *Recommender) Catalog() catalog.Source {
	return r.catalog
}

// Registry returns the registry holding the engine's collectors.
func (r *Recommender) Registry() *prometheus.Registry {
	return r.registry
}

// Config returns the configuration the recommender was built from.
func (r *Recommender) Config() *config.Config {
	return r.config
}

// Reload re-reads the catalog files. Languages whose data changed get a new
// version and are re-embedded on their next semantic search.
func (r *Recommender) Reload() error {
	if err := r.catalog.Reload(); err != nil {
		r.logger.Error("catalog reload failed, keeping previous data", "err", err)
		return err
	}
	r.logger.Info("catalog reloaded", "languages", r.catalog.Languages())
	return nil
}

// Close releases the provider, the feedback store and the backend. It is
// safe to call more than once.
func (r *Recommender) Close() error {
	r.closeOnce.Do(func() {
		r.closeErr = r.close()
	})
	return r.closeErr
}

func (r *Recommender) close() error {
	if r.provider != nil {
		if err := r.provider.Close(); err != nil {
			r.logger.Error("error closing AI provider", "err", err)
		}
	}

	if r.feedback != nil {
		if err := r.feedback.Close(); err != nil {
			r.logger.Error("error closing feedback repository", "err", err)
			return err
		}
	}

	if err := r.backend.Close(); err != nil {
		r.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
