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

package ai

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/poiesic/sommelier/core"
)

// DefaultQueryCacheSize is the default number of query embeddings to keep.
// At 1536 dimensions * 4 bytes * 1000 entries this is about 6MB.
const DefaultQueryCacheSize = 1000

// CachedEmbedder wraps an Embedder with an LRU cache of successful
// embeddings. Failed embeddings are never cached, so a transient provider
// outage does not pin a query to the degraded path.
type CachedEmbedder struct {
	inner     Embedder
	namespace string
	cache     *lru.Cache[core.ID, []float32]
}

// NewCachedEmbedder creates a cached embedder wrapping inner. namespace
// separates keys of different models sharing a process.
func NewCachedEmbedder(inner Embedder, namespace string, size int) *CachedEmbedder {
	if size <= 0 {
		size = DefaultQueryCacheSize
	}
	cache, _ := lru.New[core.ID, []float32](size)
	return &CachedEmbedder{
		inner:     inner,
		namespace: namespace,
		cache:     cache,
	}
}

func (c *CachedEmbedder) key(text string) core.ID {
	return core.IDFromContent(c.namespace + "\x00" + text)
}

// EmbedText returns the cached vector if present, otherwise embeds and caches.
func (c *CachedEmbedder) EmbedText(ctx context.Context, text string) Embedding {
	k := c.key(text)
	if vec, ok := c.cache.Get(k); ok {
		return Embedded(vec)
	}

	result := c.inner.EmbedText(ctx, text)
	if !result.Failed() {
		c.cache.Add(k, result.Vector)
	}
	return result
}

// EmbedTexts checks the cache per text and embeds only the misses in one batch.
func (c *CachedEmbedder) EmbedTexts(ctx context.Context, texts []string) []Embedding {
	results := make([]Embedding, len(texts))
	missIdx := make([]int, 0, len(texts))
	missTexts := make([]string, 0, len(texts))

	for i, text := range texts {
		if vec, ok := c.cache.Get(c.key(text)); ok {
			results[i] = Embedded(vec)
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}
	if len(missTexts) == 0 {
		return results
	}

	fresh := c.inner.EmbedTexts(ctx, missTexts)
	for j, idx := range missIdx {
		if j >= len(fresh) {
			results[idx] = Failed(ErrResponseLength)
			continue
		}
		results[idx] = fresh[j]
		if !fresh[j].Failed() {
			c.cache.Add(c.key(texts[idx]), fresh[j].Vector)
		}
	}
	return results
}

// Len returns the number of cached vectors.
func (c *CachedEmbedder) Len() int {
	return c.cache.Len()
}

// Purge drops every cached vector.
func (c *CachedEmbedder) Purge() {
	c.cache.Purge()
}

// Namespace returns the key namespace given at construction.
func (c *CachedEmbedder) Namespace() string {
	return c.namespace
}

// Inner returns the wrapped embedder.
func (c *CachedEmbedder) Inner() Embedder {
	return c.inner
}
