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
	"log/slog"
	"math"
	"time"
)

// Config tunes the ranking pipeline.
type Config struct {
	// Alpha weights cosine similarity in the final score.
	// Default: 0.8
	Alpha float64

	// Beta weights normalized feedback in the final score.
	// Default: 0.2
	Beta float64

	// TopK is the maximum number of results returned.
	// Default: 15
	TopK int

	// FirstStageCap is the number of candidates kept after similarity ranking.
	// Default: 50
	FirstStageCap int

	// SemanticEnabled selects embedding search; when false, queries use
	// keyword matching.
	SemanticEnabled bool

	// FeedbackTimeout bounds the feedback lookup of a single request.
	// Default: 5s
	FeedbackTimeout time.Duration

	// NormalizeWithinCandidates divides feedback scores by the largest
	// absolute score among the candidates instead of among all wines.
	// Default: false
	NormalizeWithinCandidates bool
}

// Default ranking parameters.
const (
	DefaultAlpha           = 0.8
	DefaultBeta            = 0.2
	DefaultTopK            = 15
	DefaultFirstStageCap   = 50
	DefaultFeedbackTimeout = 5 * time.Second
)

// DefaultConfig returns the default ranking parameters with semantic
// search disabled.
func DefaultConfig() Config {
	return Config{
		Alpha:           DefaultAlpha,
		Beta:            DefaultBeta,
		TopK:            DefaultTopK,
		FirstStageCap:   DefaultFirstStageCap,
		FeedbackTimeout: DefaultFeedbackTimeout,
	}
}

// Sanitized returns a copy with unusable values replaced by defaults:
// non-finite weights, non-positive TopK, FirstStageCap and FeedbackTimeout.
// Each replacement is logged.
func (c Config) Sanitized(logger *slog.Logger) Config {
	if logger == nil {
		logger = slog.Default()
	}
	if math.IsNaN(c.Alpha) || math.IsInf(c.Alpha, 0) {
		logger.Warn("invalid alpha, using default", "alpha", c.Alpha, "default", DefaultAlpha)
		c.Alpha = DefaultAlpha
	}
	if math.IsNaN(c.Beta) || math.IsInf(c.Beta, 0) {
		logger.Warn("invalid beta, using default", "beta", c.Beta, "default", DefaultBeta)
		c.Beta = DefaultBeta
	}
	if c.TopK <= 0 {
		logger.Warn("invalid topK, using default", "topK", c.TopK, "default", DefaultTopK)
		c.TopK = DefaultTopK
	}
	if c.FirstStageCap <= 0 {
		logger.Warn("invalid first stage cap, using default", "cap", c.FirstStageCap, "default", DefaultFirstStageCap)
		c.FirstStageCap = DefaultFirstStageCap
	}
	if c.FeedbackTimeout <= 0 {
		c.FeedbackTimeout = DefaultFeedbackTimeout
	}
	return c
}
