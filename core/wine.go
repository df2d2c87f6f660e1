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
	"bytes"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// FlexString is a string that also accepts JSON numbers and null.
// Catalog exports mix numeric and string identifiers and prices.
type FlexString string

// UnmarshalJSON accepts a JSON string, number, boolean or null.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexString(n.String())
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err != nil {
		return err
	}
	*f = FlexString(strconv.FormatBool(b))
	return nil
}

// Wine is a single catalog item. Only Name, Description and Varieties
// take part in search; the rest is carried through for presentation.
type Wine struct {
	ID          FlexString `json:"id"`
	Name        string     `json:"Product_name"`
	Description string     `json:"Wine_Description"`
	Varieties   string     `json:"Wine_Varieties"`
	Price       FlexString `json:"Price,omitempty"`
	Volume      FlexString `json:"Volume,omitempty"`
	Promotion   FlexString `json:"promotion,omitempty"`
	ImageURL    string     `json:"image_URL,omitempty"`
	Link        string     `json:"link,omitempty"`
}

// Key returns the identifier used to join feedback to this wine.
func (w *Wine) Key() string {
	return string(w.ID)
}

// Document returns the text embedded for this wine:
// "name. description. varieties", missing fields left empty.
func (w *Wine) Document() string {
	var b strings.Builder
	b.Grow(len(w.Name) + len(w.Description) + len(w.Varieties) + 4)
	b.WriteString(w.Name)
	b.WriteString(". ")
	b.WriteString(w.Description)
	b.WriteString(". ")
	b.WriteString(w.Varieties)
	return b.String()
}

// MarshalJSON flattens the wine fields and, when present, the scores into
// a single object.
func (r SearchResult) MarshalJSON() ([]byte, error) {
	if r.Wine == nil {
		return []byte("null"), nil
	}
	if r.Scores == nil {
		return json.Marshal(r.Wine)
	}
	type flat struct {
		*Wine
		*Scores
	}
	return json.Marshal(flat{Wine: r.Wine, Scores: r.Scores})
}
