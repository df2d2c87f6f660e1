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

package openai

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/poiesic/sommelier/ai"
)

// Embedder implements ai.Embedder using OpenAI-compatible embedding APIs.
//
// Input is split into chunks of Config.BatchSize texts. Chunks run on a
// bounded worker pool, each behind a per-attempt timeout, retry with
// backoff and a shared circuit breaker. A failed chunk only fails its own
// texts.
type Embedder struct {
	embedder embeddings.Embedder
	pool     *ants.Pool
	breaker  *gobreaker.CircuitBreaker[[][]float32]
	config   ai.Config
	logger   *slog.Logger
}

// newEmbedder is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEmbedder(config *ai.Config, logger *slog.Logger) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "openai-embedder")

	// Local OpenAI-compatible services accept any token
	token := config.APIKey
	if token == "" {
		token = "none"
	}

	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken(token),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client,
		embeddings.WithStripNewLines(true),
		embeddings.WithBatchSize(config.BatchSize),
	)
	if err != nil {
		return nil, err
	}

	pool, err := ants.NewPool(config.Concurrency)
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		pool:     pool,
		breaker:  newBreaker("embeddings:"+config.EmbeddingModel, logger),
		config:   *config,
		logger:   logger,
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
// The caller releases its worker pool by closing the owning provider;
// standalone embedders live for the process.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config, nil)
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ai.Embedding {
	return e.EmbedTexts(ctx, []string{text})[0]
}

// EmbedTexts generates vector embeddings for multiple texts. The result is
// aligned with texts; failures are reported per position.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) []ai.Embedding {
	results := make([]ai.Embedding, len(texts))
	if len(texts) == 0 {
		return results
	}
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	var wg sync.WaitGroup
	for start := 0; start < len(texts); start += e.config.BatchSize {
		end := min(start+e.config.BatchSize, len(texts))
		out := results[start:end]
		// The langchaingo embedder rewrites its input in place
		batch := append([]string(nil), texts[start:end]...)

		wg.Add(1)
		err := e.pool.Submit(func() {
			defer wg.Done()
			e.embedChunk(ctx, batch, out)
		})
		if err != nil {
			wg.Done()
			fill(out, fmt.Errorf("%w: %w", ErrPoolClosed, err))
		}
	}
	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}
	if failed > 0 {
		e.logger.Warn("some texts could not be embedded", "count", len(texts), "failed", failed)
	}
	return results
}

// embedChunk embeds one request-sized chunk and writes into out, which is
// aligned with texts.
func (e *Embedder) embedChunk(ctx context.Context, texts []string, out []ai.Embedding) {
	var vectors [][]float32
	err := retryWithBackoff(ctx, func() error {
		reqCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
		v, err := e.breaker.Execute(func() ([][]float32, error) {
			return e.embedder.EmbedDocuments(reqCtx, texts)
		})
		if err != nil {
			return err
		}
		vectors = v
		return nil
	}, e.config.MaxRetries, e.config.RetryDelay, isRejected)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		fill(out, fmt.Errorf("%w: %w", ai.ErrProviderUnavailable, err))
		return
	}

	if len(vectors) != len(texts) {
		e.logger.Error("embedding response length mismatch", "want", len(texts), "got", len(vectors))
		fill(out, fmt.Errorf("%w: want %d, got %d", ai.ErrResponseLength, len(texts), len(vectors)))
		return
	}
	for i, v := range vectors {
		out[i] = ai.Embedded(v)
	}
}

// Close releases the worker pool. Calls made after Close fail every text.
func (e *Embedder) Close() {
	e.pool.Release()
}

func fill(out []ai.Embedding, err error) {
	for i := range out {
		out[i] = ai.Failed(err)
	}
}
