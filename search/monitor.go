package search

import (
	"github.com/poiesic/sommelier/core"
	"github.com/poiesic/sommelier/index"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and degraded paths.
// A monitor installed with WithMonitor is shared by concurrent searches.
type SearchMonitor interface {
	Start(lang core.Language, query string)
	ListAll(count int)
	KeywordFallback(matches int)
	AfterIndexResolved(entry *index.Entry)
	QueryEmbeddingFailed(err error)
	AfterSimilarityRanking(candidates int)
	FeedbackUnavailable(err error)
	AfterRerank(maxDiff float64)
	Finish(results []core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ core.Language, _ string)   {}
func (n *noopMonitor) ListAll(_ int)                     {}
func (n *noopMonitor) KeywordFallback(_ int)             {}
func (n *noopMonitor) AfterIndexResolved(_ *index.Entry) {}
func (n *noopMonitor) QueryEmbeddingFailed(_ error)      {}
func (n *noopMonitor) AfterSimilarityRanking(_ int)      {}
func (n *noopMonitor) FeedbackUnavailable(_ error)       {}
func (n *noopMonitor) AfterRerank(_ float64)             {}
func (n *noopMonitor) Finish(_ []core.SearchResult)      {}
