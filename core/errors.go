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

import "errors"

// Domain validation errors
var (
	// ErrInvalidFeedback indicates a Feedback record failed validation.
	ErrInvalidFeedback = errors.New("invalid feedback")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")

	// ErrEmptyUserID indicates the UserId field is empty.
	ErrEmptyUserID = errors.New("user id cannot be empty")

	// ErrEmptyWineID indicates the WineId field is empty.
	ErrEmptyWineID = errors.New("wine id cannot be empty")

	// ErrInvalidFeedbackKind indicates a feedback kind other than like or dislike.
	ErrInvalidFeedbackKind = errors.New("invalid feedback kind")
)
