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
	"fmt"
	"strings"
	"time"
)

// clockSkew tolerates submitters whose clocks run slightly ahead.
const clockSkew = time.Minute

// ValidateFeedback validates a Feedback record according to domain rules.
//
// Validation rules:
//   - UserId must not be blank
//   - WineId must not be blank
//   - Kind must be like or dislike
//   - Timestamp must not be in the future
//
// NOT validated:
//   - ID (assigned from the database sequence on insert)
//   - InsertedAt (set by the repository)
func ValidateFeedback(fb *Feedback) error {
	if fb == nil {
		return fmt.Errorf("%w: feedback is nil", ErrInvalidFeedback)
	}

	if strings.TrimSpace(fb.UserId) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidFeedback, ErrEmptyUserID)
	}

	if strings.TrimSpace(fb.WineId) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidFeedback, ErrEmptyWineID)
	}

	if err := ValidateFeedbackKind(fb.Kind); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFeedback, err)
	}

	if !IsValidTimestamp(fb.Timestamp) {
		return fmt.Errorf("%w: %w", ErrInvalidFeedback, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateFeedbackKind validates that a FeedbackKind has a valid value.
func ValidateFeedbackKind(kind FeedbackKind) error {
	if kind != FeedbackLike && kind != FeedbackDislike {
		return fmt.Errorf("%w: value %q", ErrInvalidFeedbackKind, kind)
	}
	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now().Add(clockSkew))
}
