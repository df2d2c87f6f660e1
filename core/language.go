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

import "strings"

// Language identifies a catalog partition.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageFrench  Language = "fr"
	LanguageDutch   Language = "nl"
)

// DefaultLanguage is the partition served for unknown language keys.
const DefaultLanguage = LanguageFrench

// Languages lists every supported partition.
var Languages = []Language{LanguageEnglish, LanguageFrench, LanguageDutch}

// ParseLanguage normalizes a raw language key. ok is false when the key
// does not name a supported partition.
func ParseLanguage(raw string) (lang Language, ok bool) {
	lang = Language(strings.ToLower(strings.TrimSpace(raw)))
	for _, l := range Languages {
		if l == lang {
			return lang, true
		}
	}
	return "", false
}
