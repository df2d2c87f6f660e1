package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/poiesic/sommelier/core"
	"github.com/poiesic/sommelier/index"
	"github.com/poiesic/sommelier/search"
)

const namespace = "sommelier"

// Search paths, used as the path label of searches_total.
const (
	PathAll      = "all"
	PathKeyword  = "keyword"
	PathSemantic = "semantic"
)

// Metrics holds the collectors registered for one process. It is safe for
// concurrent use and keeps no per-search state.
type Metrics struct {
	searches               *prometheus.CounterVec
	queryEmbeddingFailures prometheus.Counter
	feedbackUnavailable    prometheus.Counter
	candidates             prometheus.Histogram
	results                prometheus.Histogram
	indexBuilds            *prometheus.CounterVec
	indexBuildSeconds      prometheus.Histogram
	indexFailures          *prometheus.CounterVec
}

var _ search.SearchMonitor = (*Metrics)(nil)

// New registers the collectors with reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	sizeBuckets := []float64{0, 1, 5, 10, 15, 25, 50, 100, 500, 1000}

	return &Metrics{
		searches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Searches answered, by path (all, keyword, semantic)",
		}, []string{"path"}),
		queryEmbeddingFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_embedding_failures_total",
			Help:      "Semantic searches whose query could not be embedded",
		}),
		feedbackUnavailable: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_unavailable_total",
			Help:      "Semantic searches ranked without feedback because it could not be read",
		}),
		candidates: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "first_stage_candidates",
			Help:      "Candidates kept by similarity ranking",
			Buckets:   sizeBuckets,
		}),
		results: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "results",
			Help:      "Results returned per search",
			Buckets:   sizeBuckets,
		}),
		indexBuilds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_builds_total",
			Help:      "Language index builds",
		}, []string{"language"}),
		indexBuildSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "index_build_seconds",
			Help:      "Time spent embedding a language partition",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		indexFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_embedding_failures_total",
			Help:      "Wines left without an embedding by index builds",
		}, []string{"language"}),
	}
}

// ObserveIndexBuild records a finished index build. It matches
// index.BuildObserver.
func (m *Metrics) ObserveIndexBuild(entry *index.Entry, elapsed time.Duration) {
	lang := string(entry.Language)
	m.indexBuilds.WithLabelValues(lang).Inc()
	m.indexBuildSeconds.Observe(elapsed.Seconds())
	if entry.Failures > 0 {
		m.indexFailures.WithLabelValues(lang).Add(float64(entry.Failures))
	}
}

func (m *Metrics) Start(_ core.Language, _ string) {}

func (m *Metrics) ListAll(_ int) {
	m.searches.WithLabelValues(PathAll).Inc()
}

func (m *Metrics) KeywordFallback(_ int) {
	m.searches.WithLabelValues(PathKeyword).Inc()
}

func (m *Metrics) AfterIndexResolved(_ *index.Entry) {
	m.searches.WithLabelValues(PathSemantic).Inc()
}

func (m *Metrics) QueryEmbeddingFailed(_ error) {
	m.queryEmbeddingFailures.Inc()
}

func (m *Metrics) AfterSimilarityRanking(candidates int) {
	m.candidates.Observe(float64(candidates))
}

func (m *Metrics) FeedbackUnavailable(_ error) {
	m.feedbackUnavailable.Inc()
}

func (m *Metrics) AfterRerank(_ float64) {}

func (m *Metrics) Finish(results []core.SearchResult) {
	m.results.Observe(float64(len(results)))
}
