package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/sommelier/core"
	"github.com/poiesic/sommelier/index"
)

func TestMonitorCountsPaths(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ListAll(3)
	m.KeywordFallback(1)
	m.KeywordFallback(0)
	m.AfterIndexResolved(&index.Entry{Language: core.LanguageFrench})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.searches.WithLabelValues(PathAll)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.searches.WithLabelValues(PathKeyword)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.searches.WithLabelValues(PathSemantic)))
}

func TestMonitorCountsDegradedPaths(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.QueryEmbeddingFailed(errors.New("down"))
	m.FeedbackUnavailable(errors.New("timeout"))
	m.FeedbackUnavailable(errors.New("timeout"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.queryEmbeddingFailures))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.feedbackUnavailable))
}

func TestObserveIndexBuild(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveIndexBuild(&index.Entry{Language: core.LanguageEnglish}, 2*time.Second)
	m.ObserveIndexBuild(&index.Entry{Language: core.LanguageEnglish, Failures: 4}, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.indexBuilds.WithLabelValues("en")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.indexFailures.WithLabelValues("en")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.indexBuildSeconds))
}

func TestExposition(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.AfterSimilarityRanking(50)
	m.Finish(make([]core.SearchResult, 15))
	m.ListAll(0)

	expected := `
# HELP sommelier_searches_total Searches answered, by path (all, keyword, semantic)
# TYPE sommelier_searches_total counter
sommelier_searches_total{path="all"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "sommelier_searches_total"))

	count, err := testutil.GatherAndCount(reg, "sommelier_first_stage_candidates", "sommelier_results")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNewPanicsOnDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
