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

package search

import (
	"context"
	"log/slog"
	"sort"

	"github.com/poiesic/sommelier/ai"
	"github.com/poiesic/sommelier/core"
	"github.com/poiesic/sommelier/index"
)

// FeedbackSource supplies aggregated like/dislike counts keyed by wine id.
// Implementations must be safe for concurrent use.
type FeedbackSource interface {
	AggregateFeedback(ctx context.Context) (map[string]core.FeedbackCount, error)
}

// candidate is a wine carried through the two ranking stages.
type candidate struct {
	wine       *core.Wine
	similarity float64
}

// Ranker runs the two-stage semantic ranking: cosine similarity against the
// language index, then a feedback-aware rerank of the best candidates.
type Ranker struct {
	index    *index.Index
	embedder ai.Embedder
	feedback FeedbackSource
	config   Config
	logger   *slog.Logger
}

// NewRanker creates a ranker. embedder embeds queries; it may differ from
// the index's embedder (a cache around the same model, for instance).
func NewRanker(idx *index.Index, embedder ai.Embedder, feedback FeedbackSource, config Config, logger *slog.Logger) *Ranker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ranker{
		index:    idx,
		embedder: embedder,
		feedback: feedback,
		config:   config.Sanitized(logger),
		logger:   logger,
	}
}

// Rank returns up to TopK wines of lang ranked for query. Provider and
// feedback failures degrade the ranking but never fail it; only an ended
// ctx is returned as an error.
func (r *Ranker) Rank(ctx context.Context, lang core.Language, query string, monitor SearchMonitor) ([]core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	entry, err := r.index.Get(ctx, lang)
	if err != nil {
		return nil, err
	}
	monitor.AfterIndexResolved(entry)

	var queryVector []float32
	embedding := r.embedder.EmbedText(ctx, query)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if embedding.Failed() {
		r.logger.Warn("query embedding unavailable, similarity is zero for all wines", "language", entry.Language, "err", embedding.Err)
		monitor.QueryEmbeddingFailed(embedding.Err)
	} else {
		queryVector = embedding.Vector
	}

	candidates := r.similarityStage(entry, queryVector)
	monitor.AfterSimilarityRanking(len(candidates))

	counts, err := r.fetchFeedback(ctx, monitor)
	if err != nil {
		return nil, err
	}

	results, maxDiff := rerank(candidates, counts, r.config)
	monitor.AfterRerank(maxDiff)
	return results, nil
}

// similarityStage scores every wine against the query vector, sorts by
// similarity (ties keep catalog order) and keeps FirstStageCap candidates.
func (r *Ranker) similarityStage(entry *index.Entry, queryVector []float32) []candidate {
	scored := make([]candidate, len(entry.Wines))
	mismatched := 0
	for i, w := range entry.Wines {
		scored[i] = candidate{wine: w}
		v := entry.Vectors[i]
		if len(queryVector) == 0 || len(v) == 0 {
			continue
		}
		if len(v) != len(queryVector) {
			mismatched++
			continue
		}
		scored[i].similarity = CosineSimilarity(queryVector, v)
	}
	if mismatched > 0 {
		r.logger.Warn("index vectors do not match query dimensions", "language", entry.Language, "count", mismatched)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].similarity > scored[j].similarity
	})
	if len(scored) > r.config.FirstStageCap {
		scored = scored[:r.config.FirstStageCap]
	}
	return scored
}

// fetchFeedback reads aggregated feedback under FeedbackTimeout. A failed
// read yields an empty map; only the caller's own ctx ending is an error.
func (r *Ranker) fetchFeedback(ctx context.Context, monitor SearchMonitor) (map[string]core.FeedbackCount, error) {
	fbCtx, cancel := context.WithTimeout(ctx, r.config.FeedbackTimeout)
	defer cancel()

	counts, err := r.feedback.AggregateFeedback(fbCtx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		r.logger.Warn("feedback unavailable, ranking by similarity only", "err", err)
		monitor.FeedbackUnavailable(err)
		return map[string]core.FeedbackCount{}, nil
	}
	if counts == nil {
		counts = map[string]core.FeedbackCount{}
	}
	return counts, nil
}

// rerank blends similarity with normalized feedback and returns the TopK
// results with the normalizer used.
//
//	normFb     = (likes - dislikes) / maxDiff   (0 when maxDiff is 0)
//	finalScore = Alpha*similarity + Beta*normFb
//
// maxDiff is the largest |likes - dislikes| over every wine with feedback,
// or over the candidates when NormalizeWithinCandidates is set.
func rerank(candidates []candidate, counts map[string]core.FeedbackCount, config Config) ([]core.SearchResult, float64) {
	maxDiff := 0
	if config.NormalizeWithinCandidates {
		for _, c := range candidates {
			maxDiff = max(maxDiff, abs(counts[c.wine.Key()].Score()))
		}
	} else {
		for _, fc := range counts {
			maxDiff = max(maxDiff, abs(fc.Score()))
		}
	}

	results := make([]core.SearchResult, len(candidates))
	for i, c := range candidates {
		fbScore := counts[c.wine.Key()].Score()
		normFb := 0.0
		if maxDiff > 0 {
			normFb = float64(fbScore) / float64(maxDiff)
		}
		results[i] = core.SearchResult{
			Wine: c.wine,
			Scores: &core.Scores{
				Similarity:    c.similarity,
				FeedbackScore: fbScore,
				FinalScore:    config.Alpha*c.similarity + config.Beta*normFb,
			},
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Scores.FinalScore > results[j].Scores.FinalScore
	})
	if len(results) > config.TopK {
		results = results[:config.TopK]
	}
	return results, float64(maxDiff)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
