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

package core

import (
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Fingerprint returns a hex BLAKE2b-128 digest of data.
// Catalog partitions use it as their version string.
func Fingerprint(data []byte) string {
	h, _ := blake2b.New(16, nil)
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// FeedbackKind is the polarity of a single feedback event.
type FeedbackKind string

const (
	// FeedbackLike is a positive vote.
	FeedbackLike FeedbackKind = "like"
	// FeedbackDislike is a negative vote.
	FeedbackDislike FeedbackKind = "dislike"
)

// Feedback is one raw like/dislike event submitted by a user.
type Feedback struct {
	Id         ID           `json:"id"`
	UserId     string       `json:"userId"`
	WineId     string       `json:"wineId"`
	Kind       FeedbackKind `json:"feedback"`
	Timestamp  time.Time    `json:"timestamp"`   // When the user voted
	InsertedAt time.Time    `json:"inserted_at"` // When the record was stored
}

// FeedbackCount is the aggregated vote tally for one wine.
type FeedbackCount struct {
	Likes    int `json:"likes"`
	Dislikes int `json:"dislikes"`
}

// Score returns likes minus dislikes.
func (c FeedbackCount) Score() int {
	return c.Likes - c.Dislikes
}

// Add folds one vote into the tally. Unknown kinds are ignored.
func (c *FeedbackCount) Add(kind FeedbackKind) {
	switch kind {
	case FeedbackLike:
		c.Likes++
	case FeedbackDislike:
		c.Dislikes++
	}
}

// WineFeedback is an aggregated row keyed by wine.
type WineFeedback struct {
	WineId string `json:"wineId"`
	FeedbackCount
}

// Scores carries the per-request ranking values of a semantic match.
type Scores struct {
	Similarity    float64 `json:"similarity"`
	FeedbackScore int     `json:"feedbackScore"`
	FinalScore    float64 `json:"finalScore"`
}

// SearchResult is a wine returned by a search. Scores is nil for
// unranked results (full partition listing and keyword matches).
type SearchResult struct {
	Wine   *Wine
	Scores *Scores
}
