package search

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/poiesic/sommelier/ai"
	"github.com/poiesic/sommelier/ai/mock"
	"github.com/poiesic/sommelier/catalog"
	"github.com/poiesic/sommelier/core"
	"github.com/poiesic/sommelier/index"
)

// feedbackFunc adapts a function to FeedbackSource.
type feedbackFunc func(ctx context.Context) (map[string]core.FeedbackCount, error)

func (f feedbackFunc) AggregateFeedback(ctx context.Context) (map[string]core.FeedbackCount, error) {
	return f(ctx)
}

func staticFeedback(counts map[string]core.FeedbackCount) FeedbackSource {
	return feedbackFunc(func(context.Context) (map[string]core.FeedbackCount, error) {
		return counts, nil
	})
}

// simVector returns a 2-d unit vector whose cosine with [1, 0] is sim.
func simVector(sim float64) []float32 {
	return []float32{float32(sim), float32(math.Sqrt(1 - sim*sim))}
}

var queryVector = []float32{1, 0}

// fixture is a catalog whose wines embed to vectors with known similarity
// to the query vector.
type fixture struct {
	source   *catalog.StaticSource
	embedder *mock.MockEmbedder
	provider *mock.MockProvider
}

func newFixture(t *testing.T, sims map[string]float64, order ...string) *fixture {
	t.Helper()
	wines := make([]*core.Wine, len(order))
	vectors := make(map[string][]float32, len(order))
	for i, id := range order {
		w := &core.Wine{ID: core.FlexString(id), Name: "wine " + id}
		wines[i] = w
		vectors[w.Document()] = simVector(sims[id])
	}

	src, err := catalog.NewStaticSource(core.LanguageFrench, map[core.Language][]*core.Wine{
		core.LanguageFrench: wines,
	})
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder().
		WithEmbedTextsFunc(func(ctx context.Context, texts []string) []ai.Embedding {
			out := make([]ai.Embedding, len(texts))
			for i, text := range texts {
				out[i] = ai.Embedded(vectors[text])
			}
			return out
		}).
		WithEmbedTextFunc(func(ctx context.Context, text string) ai.Embedding {
			return ai.Embedded(queryVector)
		})

	return &fixture{
		source:   src,
		embedder: embedder,
		provider: mock.NewMockProviderWithEmbedder(embedder),
	}
}

func (f *fixture) ranker(t *testing.T, feedback FeedbackSource, config Config) *Ranker {
	t.Helper()
	idx, err := index.New(f.source, f.embedder)
	require.NoError(t, err)
	return NewRanker(idx, f.embedder, feedback, config, nil)
}

// recordingMonitor captures the hooks a search passes through.
type recordingMonitor struct {
	noopMonitor
	mu                 sync.Mutex
	path               string
	candidates         int
	maxDiff            float64
	queryFailed        bool
	feedbackFailed     bool
	finished           int
	indexBuiltFailures int
}

func (m *recordingMonitor) ListAll(int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.path = "all"
}

func (m *recordingMonitor) KeywordFallback(int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.path = "keyword"
}

func (m *recordingMonitor) AfterIndexResolved(e *index.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.path = "semantic"
	m.indexBuiltFailures = e.Failures
}

func (m *recordingMonitor) QueryEmbeddingFailed(error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryFailed = true
}

func (m *recordingMonitor) AfterSimilarityRanking(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.candidates = n
}

func (m *recordingMonitor) FeedbackUnavailable(error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feedbackFailed = true
}

func (m *recordingMonitor) AfterRerank(maxDiff float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxDiff = maxDiff
}

func (m *recordingMonitor) Finish(results []core.SearchResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finished = len(results)
}

func keys(results []core.SearchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Wine.Key()
	}
	return out
}
