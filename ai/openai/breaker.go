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

package openai

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

// Breaker thresholds for the embedding endpoint.
const (
	breakerMinRequests  = 5
	breakerFailureRatio = 0.6
	breakerInterval     = time.Minute
	breakerCooldown     = 30 * time.Second
	breakerHalfOpenMax  = 1
)

// newBreaker builds the circuit breaker guarding embedding requests.
// It opens after breakerMinRequests requests with at least 60% failures and
// stays open for breakerCooldown, so a dead provider costs one fast
// rejection per request instead of a full timeout.
func newBreaker(name string, logger *slog.Logger) *gobreaker.CircuitBreaker[[][]float32] {
	return gobreaker.NewCircuitBreaker[[][]float32](gobreaker.Settings{
		Name:        name,
		MaxRequests: breakerHalfOpenMax,
		Interval:    breakerInterval,
		Timeout:     breakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < breakerMinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= breakerFailureRatio {
				logger.Warn("opening embedding circuit", "failures", counts.TotalFailures, "requests", counts.Requests)
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("embedding circuit state change", "breaker", name, "from", from.String(), "to", to.String())
		},
		// A caller abandoning its request says nothing about provider health.
		IsExcluded: func(err error) bool {
			return errors.Is(err, context.Canceled)
		},
	})
}

// isRejected reports whether err came from the breaker rather than the provider.
func isRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
