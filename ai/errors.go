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

package ai

import "errors"

var (
	// ErrEmptyEmbedding indicates the provider returned no vector for a text.
	ErrEmptyEmbedding = errors.New("empty embedding")

	// ErrMalformedEmbedding indicates the provider returned a vector with a
	// NaN or infinite component.
	ErrMalformedEmbedding = errors.New("malformed embedding")

	// ErrResponseLength indicates the provider returned a different number
	// of vectors than texts were sent.
	ErrResponseLength = errors.New("embedding response length mismatch")

	// ErrProviderUnavailable indicates the provider could not be reached or
	// rejected the request.
	ErrProviderUnavailable = errors.New("embedding provider unavailable")
)
