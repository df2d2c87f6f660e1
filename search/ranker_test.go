package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/sommelier/ai"
	"github.com/poiesic/sommelier/core"
)

func TestRerank_FeedbackReversesSimilarityOrder(t *testing.T) {
	a := &core.Wine{ID: "A"}
	b := &core.Wine{ID: "B"}
	candidates := []candidate{{wine: a, similarity: 0.9}, {wine: b, similarity: 0.85}}
	counts := map[string]core.FeedbackCount{
		"A": {Likes: 0, Dislikes: 5},
		"B": {Likes: 10, Dislikes: 0},
	}

	results, maxDiff := rerank(candidates, counts, DefaultConfig())

	require.Len(t, results, 2)
	assert.Equal(t, []string{"B", "A"}, keys(results))
	assert.Equal(t, 10.0, maxDiff)

	// B: 0.8*0.85 + 0.2*(10/10); A: 0.8*0.9 + 0.2*(-5/10)
	assert.InDelta(t, 0.88, results[0].Scores.FinalScore, 1e-9)
	assert.InDelta(t, 0.62, results[1].Scores.FinalScore, 1e-9)
	assert.Equal(t, 10, results[0].Scores.FeedbackScore)
	assert.Equal(t, -5, results[1].Scores.FeedbackScore)
	assert.InDelta(t, 0.85, results[0].Scores.Similarity, 1e-9)
}

func TestRerank_NoFeedbackIsNoop(t *testing.T) {
	candidates := []candidate{
		{wine: &core.Wine{ID: "1"}, similarity: 0.7},
		{wine: &core.Wine{ID: "2"}, similarity: 0.5},
		{wine: &core.Wine{ID: "3"}, similarity: 0.5},
		{wine: &core.Wine{ID: "4"}, similarity: 0.1},
	}
	config := DefaultConfig()

	results, maxDiff := rerank(candidates, map[string]core.FeedbackCount{}, config)

	assert.Zero(t, maxDiff)
	assert.Equal(t, []string{"1", "2", "3", "4"}, keys(results))
	for i, r := range results {
		assert.Equal(t, config.Alpha*candidates[i].similarity, r.Scores.FinalScore)
		assert.Zero(t, r.Scores.FeedbackScore)
	}
}

func TestRerank_BalancedFeedbackIsNoop(t *testing.T) {
	candidates := []candidate{{wine: &core.Wine{ID: "1"}, similarity: 0.4}}
	counts := map[string]core.FeedbackCount{"1": {Likes: 3, Dislikes: 3}}

	results, maxDiff := rerank(candidates, counts, DefaultConfig())
	assert.Zero(t, maxDiff)
	assert.InDelta(t, 0.32, results[0].Scores.FinalScore, 1e-9)
}

func TestRerank_Normalization(t *testing.T) {
	candidates := []candidate{
		{wine: &core.Wine{ID: "1"}, similarity: 0.5},
		{wine: &core.Wine{ID: "2"}, similarity: 0.5},
	}
	counts := map[string]core.FeedbackCount{
		"1":       {Likes: 2},
		"outside": {Likes: 100},
	}

	t.Run("global", func(t *testing.T) {
		results, maxDiff := rerank(candidates, counts, DefaultConfig())
		assert.Equal(t, 100.0, maxDiff)
		assert.InDelta(t, 0.4+0.2*0.02, results[0].Scores.FinalScore, 1e-9)
	})

	t.Run("within candidates", func(t *testing.T) {
		config := DefaultConfig()
		config.NormalizeWithinCandidates = true
		results, maxDiff := rerank(candidates, counts, config)
		assert.Equal(t, 2.0, maxDiff)
		assert.InDelta(t, 0.6, results[0].Scores.FinalScore, 1e-9)
	})
}

func TestRerank_TopK(t *testing.T) {
	candidates := make([]candidate, 30)
	for i := range candidates {
		candidates[i] = candidate{wine: &core.Wine{ID: core.FlexString(fmt.Sprint(i))}, similarity: 1 - float64(i)/100}
	}
	config := DefaultConfig()
	config.TopK = 5

	results, _ := rerank(candidates, nil, config)
	assert.Equal(t, []string{"0", "1", "2", "3", "4"}, keys(results))
}

func TestRanker_ScenarioThroughIndex(t *testing.T) {
	f := newFixture(t, map[string]float64{"A": 0.9, "B": 0.85, "C": 0.2}, "C", "A", "B")
	feedback := staticFeedback(map[string]core.FeedbackCount{
		"A": {Dislikes: 5},
		"B": {Likes: 10},
	})
	r := f.ranker(t, feedback, DefaultConfig())
	monitor := &recordingMonitor{}

	results, err := r.Rank(context.Background(), core.LanguageFrench, "anything", monitor)
	require.NoError(t, err)

	assert.Equal(t, []string{"B", "A", "C"}, keys(results))
	assert.InDelta(t, 0.9, results[1].Scores.Similarity, 1e-6)
	assert.Equal(t, 3, monitor.candidates)
	assert.Equal(t, 10.0, monitor.maxDiff)
	assert.False(t, monitor.queryFailed)
	assert.False(t, monitor.feedbackFailed)
}

func TestRanker_StageCap(t *testing.T) {
	sims := make(map[string]float64, 200)
	order := make([]string, 200)
	for i := range order {
		id := fmt.Sprintf("w%03d", i)
		order[i] = id
		sims[id] = float64(i%97) / 100
	}
	f := newFixture(t, sims, order...)
	r := f.ranker(t, staticFeedback(nil), DefaultConfig())
	monitor := &recordingMonitor{}

	results, err := r.Rank(context.Background(), core.LanguageFrench, "q", monitor)
	require.NoError(t, err)

	assert.Equal(t, DefaultFirstStageCap, monitor.candidates)
	assert.Len(t, results, DefaultTopK)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Scores.FinalScore, results[i].Scores.FinalScore)
	}
}

func TestRanker_QueryEmbeddingFailureKeepsCatalogOrder(t *testing.T) {
	order := make([]string, 20)
	sims := map[string]float64{}
	for i := range order {
		order[i] = fmt.Sprintf("w%02d", i)
		sims[order[i]] = float64(i) / 20
	}
	f := newFixture(t, sims, order...)
	f.embedder.WithEmbedTextFunc(func(ctx context.Context, text string) ai.Embedding {
		return ai.Failed(ai.ErrProviderUnavailable)
	})
	r := f.ranker(t, staticFeedback(nil), DefaultConfig())
	monitor := &recordingMonitor{}

	results, err := r.Rank(context.Background(), core.LanguageFrench, "q", monitor)
	require.NoError(t, err)

	assert.True(t, monitor.queryFailed)
	assert.Equal(t, order[:DefaultTopK], keys(results))
	for _, res := range results {
		assert.Zero(t, res.Scores.Similarity)
	}
}

func TestRanker_NonFiniteVectorsNeverProduceNaN(t *testing.T) {
	order := []string{"A", "B", "C", "D"}
	sims := map[string]float64{"A": 0.2, "B": 0.9, "C": 0.5, "D": 0.7}

	t.Run("malformed query vector is a failed embedding", func(t *testing.T) {
		f := newFixture(t, sims, order...)
		f.embedder.WithEmbedTextFunc(func(ctx context.Context, text string) ai.Embedding {
			return ai.Embedded([]float32{float32(math.NaN()), 1})
		})
		r := f.ranker(t, staticFeedback(nil), DefaultConfig())
		monitor := &recordingMonitor{}

		results, err := r.Rank(context.Background(), core.LanguageFrench, "q", monitor)
		require.NoError(t, err)

		assert.True(t, monitor.queryFailed)
		assert.Equal(t, order, keys(results))
	})

	t.Run("non-finite query vector scores zero everywhere", func(t *testing.T) {
		f := newFixture(t, sims, order...)
		f.embedder.WithEmbedTextFunc(func(ctx context.Context, text string) ai.Embedding {
			return ai.Embedding{Vector: []float32{float32(math.Inf(1)), 1}}
		})
		r := f.ranker(t, staticFeedback(nil), DefaultConfig())

		results, err := r.Rank(context.Background(), core.LanguageFrench, "q", nil)
		require.NoError(t, err)

		assert.Equal(t, order, keys(results))
		for _, res := range results {
			assert.False(t, math.IsNaN(res.Scores.Similarity))
			assert.False(t, math.IsNaN(res.Scores.FinalScore))
		}
	})
}

func TestRanker_FeedbackFailureRanksBySimilarity(t *testing.T) {
	f := newFixture(t, map[string]float64{"A": 0.9, "B": 0.85}, "A", "B")
	feedback := feedbackFunc(func(context.Context) (map[string]core.FeedbackCount, error) {
		return nil, errors.New("store down")
	})
	r := f.ranker(t, feedback, DefaultConfig())
	monitor := &recordingMonitor{}

	results, err := r.Rank(context.Background(), core.LanguageFrench, "q", monitor)
	require.NoError(t, err)

	assert.True(t, monitor.feedbackFailed)
	assert.Zero(t, monitor.maxDiff)
	assert.Equal(t, []string{"A", "B"}, keys(results))
}

func TestRanker_FeedbackTimeout(t *testing.T) {
	f := newFixture(t, map[string]float64{"A": 0.9}, "A")
	feedback := feedbackFunc(func(ctx context.Context) (map[string]core.FeedbackCount, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	config := DefaultConfig()
	config.FeedbackTimeout = 10 * time.Millisecond
	r := f.ranker(t, feedback, config)
	monitor := &recordingMonitor{}

	results, err := r.Rank(context.Background(), core.LanguageFrench, "q", monitor)
	require.NoError(t, err)
	assert.True(t, monitor.feedbackFailed)
	assert.Len(t, results, 1)
}

func TestRanker_CancelledContext(t *testing.T) {
	f := newFixture(t, map[string]float64{"A": 0.9}, "A")
	r := f.ranker(t, staticFeedback(nil), DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Rank(ctx, core.LanguageFrench, "q", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRanker_OrthogonalWineScoresZero(t *testing.T) {
	f := newFixture(t, map[string]float64{"A": 0.3, "B": 0.6}, "A", "B", "C")
	r := f.ranker(t, staticFeedback(nil), DefaultConfig())
	monitor := &recordingMonitor{}

	results, err := r.Rank(context.Background(), core.LanguageFrench, "q", monitor)
	require.NoError(t, err)

	assert.Equal(t, []string{"B", "A", "C"}, keys(results))
	assert.Zero(t, results[2].Scores.Similarity)
}
