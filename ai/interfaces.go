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
	"math"
)

// Embedding is the outcome of embedding one text: either a vector or the
// reason it could not be produced. Exactly one of Vector and Err is set.
type Embedding struct {
	Vector []float32
	Err    error
}

// Embedded wraps a successfully generated vector. An empty vector, or one
// with a NaN or infinite component, is reported as a failure.
func Embedded(v []float32) Embedding {
	if len(v) == 0 {
		return Embedding{Err: ErrEmptyEmbedding}
	}
	for _, x := range v {
		if f := float64(x); math.IsNaN(f) || math.IsInf(f, 0) {
			return Embedding{Err: ErrMalformedEmbedding}
		}
	}
	return Embedding{Vector: v}
}

// Failed wraps the reason an embedding could not be produced.
func Failed(err error) Embedding {
	if err == nil {
		err = ErrEmptyEmbedding
	}
	return Embedding{Err: err}
}

// Failed reports whether the embedding carries no usable vector.
func (e Embedding) Failed() bool {
	return e.Err != nil || len(e.Vector) == 0
}

// FailAll returns n failed embeddings sharing the same reason.
func FailAll(n int, err error) []Embedding {
	out := make([]Embedding, n)
	for i := range out {
		out[i] = Failed(err)
	}
	return out
}

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
//
// Embedders never abort a batch: a text that cannot be embedded yields a
// failed Embedding at its position and the remaining texts are unaffected.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) Embedding

	// EmbedTexts generates embeddings for multiple texts. The returned slice
	// always has the same length and order as texts.
	EmbedTexts(ctx context.Context, texts []string) []Embedding
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
