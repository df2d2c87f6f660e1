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

package config

import (
	"time"

	"github.com/poiesic/sommelier/ai"
	"github.com/poiesic/sommelier/catalog"
	"github.com/poiesic/sommelier/core"
	"github.com/poiesic/sommelier/search"
)

// Semantic search modes.
const (
	SemanticAuto = "auto"
	SemanticOn   = "on"
	SemanticOff  = "off"
)

// Config is the complete process configuration.
type Config struct {
	Catalog CatalogConfig `koanf:"catalog"`
	AI      AIConfig      `koanf:"ai"`
	Search  SearchConfig  `koanf:"search"`
	Index   IndexConfig   `koanf:"index"`
	Storage StorageConfig `koanf:"storage"`
	Server  ServerConfig  `koanf:"server"`
	Logging LoggingConfig `koanf:"logging"`
}

// CatalogConfig locates the wine data files.
type CatalogConfig struct {
	Dir             string      `koanf:"dir" validate:"required"`
	DefaultLanguage string      `koanf:"default_language" validate:"oneof=en fr nl"`
	Files           FilesConfig `koanf:"files"`
}

// FilesConfig names the data file of each language, relative to Dir.
// An empty name leaves the language unserved.
type FilesConfig struct {
	EN string `koanf:"en"`
	FR string `koanf:"fr"`
	NL string `koanf:"nl"`
}

// AIConfig configures the OpenAI-compatible embedding provider.
type AIConfig struct {
	Host        string        `koanf:"host" validate:"required"`
	Model       string        `koanf:"model" validate:"required"`
	APIKey      string        `koanf:"api_key"`
	BatchSize   int           `koanf:"batch_size" validate:"gt=0"`
	Concurrency int           `koanf:"concurrency" validate:"gt=0"`
	Timeout     time.Duration `koanf:"timeout" validate:"gt=0"`
	MaxRetries  int           `koanf:"max_retries" validate:"gt=0"`
	RetryDelay  time.Duration `koanf:"retry_delay" validate:"gte=0"`
}

// SearchConfig tunes ranking.
type SearchConfig struct {
	Semantic                  string        `koanf:"semantic" validate:"oneof=auto on off"`
	Alpha                     float64       `koanf:"alpha"`
	Beta                      float64       `koanf:"beta"`
	TopK                      int           `koanf:"top_k" validate:"gt=0"`
	FirstStageCap             int           `koanf:"first_stage_cap" validate:"gt=0"`
	FeedbackTimeout           time.Duration `koanf:"feedback_timeout" validate:"gt=0"`
	NormalizeWithinCandidates bool          `koanf:"normalize_within_candidates"`
	QueryCacheSize            int           `koanf:"query_cache_size" validate:"gte=0"`
}

// IndexConfig tunes the per-language embedding index.
type IndexConfig struct {
	BuildTimeout time.Duration `koanf:"build_timeout" validate:"gt=0"`
	WarmOnStart  bool          `koanf:"warm_on_start"`
}

// StorageConfig locates the feedback database.
type StorageConfig struct {
	Path     string `koanf:"path" validate:"required_unless=InMemory true"`
	InMemory bool   `koanf:"in_memory"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// LoggingConfig selects the log level.
type LoggingConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	aiDefaults := ai.DefaultConfig()
	searchDefaults := search.DefaultConfig()
	return &Config{
		Catalog: CatalogConfig{
			Dir:             "data",
			DefaultLanguage: string(core.DefaultLanguage),
			Files: FilesConfig{
				EN: catalog.DefaultFiles[core.LanguageEnglish],
				FR: catalog.DefaultFiles[core.LanguageFrench],
				NL: catalog.DefaultFiles[core.LanguageDutch],
			},
		},
		AI: AIConfig{
			Host:        aiDefaults.EmbeddingHost,
			Model:       aiDefaults.EmbeddingModel,
			BatchSize:   aiDefaults.BatchSize,
			Concurrency: aiDefaults.Concurrency,
			Timeout:     aiDefaults.Timeout,
			MaxRetries:  aiDefaults.MaxRetries,
			RetryDelay:  aiDefaults.RetryDelay,
		},
		Search: SearchConfig{
			Semantic:        SemanticAuto,
			Alpha:           searchDefaults.Alpha,
			Beta:            searchDefaults.Beta,
			TopK:            searchDefaults.TopK,
			FirstStageCap:   searchDefaults.FirstStageCap,
			FeedbackTimeout: searchDefaults.FeedbackTimeout,
			QueryCacheSize:  ai.DefaultQueryCacheSize,
		},
		Index: IndexConfig{
			BuildTimeout: 10 * time.Minute,
		},
		Storage: StorageConfig{
			Path: "data/feedback",
		},
		Server: ServerConfig{
			Addr:            ":3000",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    2 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// SemanticEnabled resolves the semantic mode. In auto mode semantic search
// is on exactly when an API key is configured.
func (c *Config) SemanticEnabled() bool {
	switch c.Search.Semantic {
	case SemanticOn:
		return true
	case SemanticOff:
		return false
	default:
		return c.AI.APIKey != ""
	}
}

// AIProviderConfig converts the ai section to an ai.Config.
func (c *Config) AIProviderConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.AI.Host),
		ai.WithEmbeddingModel(c.AI.Model),
		ai.WithAPIKey(c.AI.APIKey),
		ai.WithBatchSize(c.AI.BatchSize),
		ai.WithConcurrency(c.AI.Concurrency),
		ai.WithTimeout(c.AI.Timeout),
		ai.WithRetry(c.AI.MaxRetries, c.AI.RetryDelay),
	)
}

// SearchConfig converts the search section to a search.Config.
func (c *Config) SearchConfig() search.Config {
	return search.Config{
		Alpha:                     c.Search.Alpha,
		Beta:                      c.Search.Beta,
		TopK:                      c.Search.TopK,
		FirstStageCap:             c.Search.FirstStageCap,
		SemanticEnabled:           c.SemanticEnabled(),
		FeedbackTimeout:           c.Search.FeedbackTimeout,
		NormalizeWithinCandidates: c.Search.NormalizeWithinCandidates,
	}
}

// CatalogFiles returns the configured data file of each served language.
func (c *Config) CatalogFiles() map[core.Language]string {
	files := make(map[core.Language]string, 3)
	for lang, name := range map[core.Language]string{
		core.LanguageEnglish: c.Catalog.Files.EN,
		core.LanguageFrench:  c.Catalog.Files.FR,
		core.LanguageDutch:   c.Catalog.Files.NL,
	} {
		if name != "" {
			files[lang] = name
		}
	}
	return files
}

// DefaultLanguage returns the configured fallback partition.
func (c *Config) DefaultLanguage() core.Language {
	if lang, ok := core.ParseLanguage(c.Catalog.DefaultLanguage); ok {
		return lang
	}
	return core.DefaultLanguage
}
