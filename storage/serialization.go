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

package storage

import (
	"fmt"

	"github.com/poiesic/sommelier/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return id, nil
}

// MarshalFeedback serializes a Feedback record to bytes.
func MarshalFeedback(fb *core.Feedback) ([]byte, error) {
	if fb == nil {
		return nil, fmt.Errorf("%w: feedback is nil", ErrSerializationFailed)
	}
	buf := make([]byte, core.FeedbackMUS.Size(*fb))
	core.FeedbackMUS.Marshal(*fb, buf)
	return buf, nil
}

// UnmarshalFeedback deserializes a Feedback record from bytes.
func UnmarshalFeedback(data []byte) (*core.Feedback, error) {
	fb, _, err := core.FeedbackMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &fb, nil
}

// MarshalCount serializes an aggregate counter.
func MarshalCount(c core.FeedbackCount) []byte {
	buf := make([]byte, core.FeedbackCountMUS.Size(c))
	core.FeedbackCountMUS.Marshal(c, buf)
	return buf
}

// UnmarshalCount deserializes an aggregate counter.
func UnmarshalCount(data []byte) (core.FeedbackCount, error) {
	c, _, err := core.FeedbackCountMUS.Unmarshal(data)
	if err != nil {
		return core.FeedbackCount{}, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return c, nil
}
