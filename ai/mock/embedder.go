package mock

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
	"sync/atomic"

	"github.com/poiesic/sommelier/ai"
)

// DefaultDimensions is the vector size produced by the default behavior.
const DefaultDimensions = 384

// MockEmbedder is a test double for ai.Embedder.
// It allows custom behavior injection via function fields and is safe
// for concurrent use.
type MockEmbedder struct {
	mu sync.RWMutex

	// embedTextFunc is called by EmbedText if set.
	// If nil, uses default deterministic behavior.
	embedTextFunc func(ctx context.Context, text string) ai.Embedding

	// embedTextsFunc is called by EmbedTexts if set.
	// If nil, uses default deterministic behavior.
	embedTextsFunc func(ctx context.Context, texts []string) []ai.Embedding

	textCalls  atomic.Int64
	batchCalls atomic.Int64
}

// NewMockEmbedder creates a mock embedder with default deterministic behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

// WithEmbedTextFunc replaces the single-text behavior.
func (m *MockEmbedder) WithEmbedTextFunc(fn func(ctx context.Context, text string) ai.Embedding) *MockEmbedder {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedTextFunc = fn
	return m
}

// WithEmbedTextsFunc replaces the batch behavior.
func (m *MockEmbedder) WithEmbedTextsFunc(fn func(ctx context.Context, texts []string) []ai.Embedding) *MockEmbedder {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedTextsFunc = fn
	return m
}

// EmbedText generates a deterministic embedding based on text hash.
func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ai.Embedding {
	m.textCalls.Add(1)

	m.mu.RLock()
	fn := m.embedTextFunc
	m.mu.RUnlock()
	if fn != nil {
		return fn(ctx, text)
	}

	return ai.Embedded(DeterministicVector(text, DefaultDimensions))
}

// EmbedTexts generates deterministic embeddings for multiple texts.
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) []ai.Embedding {
	m.batchCalls.Add(1)

	m.mu.RLock()
	fn := m.embedTextsFunc
	m.mu.RUnlock()
	if fn != nil {
		return fn(ctx, texts)
	}

	results := make([]ai.Embedding, len(texts))
	for i, text := range texts {
		results[i] = ai.Embedded(DeterministicVector(text, DefaultDimensions))
	}
	return results
}

// CallCount returns the number of times any method was called.
func (m *MockEmbedder) CallCount() int {
	return int(m.textCalls.Load() + m.batchCalls.Load())
}

// TextCallCount returns the number of EmbedText calls.
func (m *MockEmbedder) TextCallCount() int {
	return int(m.textCalls.Load())
}

// BatchCallCount returns the number of EmbedTexts calls.
func (m *MockEmbedder) BatchCallCount() int {
	return int(m.batchCalls.Load())
}

// Reset clears the call counts and injected behavior.
func (m *MockEmbedder) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.textCalls.Store(0)
	m.batchCalls.Store(0)
	m.embedTextFunc = nil
	m.embedTextsFunc = nil
}

// DeterministicVector creates a unit-length embedding vector from text.
// It uses an FNV hash seed so the same text always produces the same vector.
func DeterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000)/1000.0 + 0.001
	}

	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}
	norm := float32(1.0 / math.Sqrt(sumSquares))
	for i := range vector {
		vector[i] *= norm
	}
	return vector
}
