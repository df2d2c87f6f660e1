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
	"strings"

	"github.com/poiesic/sommelier/core"
)

// KeywordSearch returns the wines whose name, description or varieties
// contain query, compared case-insensitively. Catalog order is preserved and
// no scores are assigned. Callers pass a non-blank, trimmed query.
func KeywordSearch(wines []*core.Wine, query string) []*core.Wine {
	q := strings.ToLower(query)
	matches := make([]*core.Wine, 0)
	for _, w := range wines {
		if containsFold(w.Name, q) || containsFold(w.Description, q) || containsFold(w.Varieties, q) {
			matches = append(matches, w)
		}
	}
	return matches
}

// containsFold reports whether lowered is a substring of field after
// lowercasing field.
func containsFold(field, lowered string) bool {
	return field != "" && strings.Contains(strings.ToLower(field), lowered)
}
