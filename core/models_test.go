package core

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "short content", content: "test content"},
		{name: "empty string", content: ""},
		{name: "long content", content: "This is a much longer piece of content that should still hash consistently"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, IDFromContent(tt.content), IDFromContent(tt.content))
		})
	}

	assert.NotEqual(t, IDFromContent("content1"), IDFromContent("content2"))
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte(`[{"id":1}]`))
	b := Fingerprint([]byte(`[{"id":1}]`))
	c := Fingerprint([]byte(`[{"id":2}]`))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 32)
}

func TestFeedbackCount(t *testing.T) {
	var c FeedbackCount
	c.Add(FeedbackLike)
	c.Add(FeedbackLike)
	c.Add(FeedbackDislike)
	c.Add(FeedbackKind("other"))

	assert.Equal(t, 2, c.Likes)
	assert.Equal(t, 1, c.Dislikes)
	assert.Equal(t, 1, c.Score())
	assert.Equal(t, -3, FeedbackCount{Likes: 1, Dislikes: 4}.Score())
}

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		raw    string
		want   Language
		wantOk bool
	}{
		{"en", LanguageEnglish, true},
		{" NL ", LanguageDutch, true},
		{"fr", LanguageFrench, true},
		{"de", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseLanguage(tt.raw)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWineDocument(t *testing.T) {
	w := &Wine{Name: "Chablis", Description: "Crisp", Varieties: "Chardonnay"}
	assert.Equal(t, "Chablis. Crisp. Chardonnay", w.Document())

	empty := &Wine{Name: "Only name"}
	assert.Equal(t, "Only name. . ", empty.Document())
}

func TestWineUnmarshalFlexibleFields(t *testing.T) {
	data := []byte(`[
		{"id": 17, "Product_name": "A", "Price": 12.5, "promotion": null},
		{"id": "w-2", "Product_name": "B", "Price": "9,99 €", "Volume": "75cl"},
		{"Product_name": "C", "promotion": "0"}
	]`)

	var wines []*Wine
	require.NoError(t, json.Unmarshal(data, &wines))
	require.Len(t, wines, 3)

	assert.Equal(t, "17", wines[0].Key())
	assert.Equal(t, FlexString("12.5"), wines[0].Price)
	assert.Equal(t, FlexString(""), wines[0].Promotion)

	assert.Equal(t, "w-2", wines[1].Key())
	assert.Equal(t, FlexString("9,99 €"), wines[1].Price)
	assert.Equal(t, FlexString("75cl"), wines[1].Volume)

	assert.Equal(t, "", wines[2].Key())
	assert.Equal(t, FlexString("0"), wines[2].Promotion)
}

func TestSearchResultMarshalJSON(t *testing.T) {
	w := &Wine{ID: "7", Name: "Rioja", Description: "Oaky", Varieties: "Tempranillo"}

	t.Run("unranked result has only wine fields", func(t *testing.T) {
		data, err := json.Marshal(SearchResult{Wine: w})
		require.NoError(t, err)

		var got map[string]any
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, "7", got["id"])
		assert.Equal(t, "Rioja", got["Product_name"])
		assert.NotContains(t, got, "finalScore")
	})

	t.Run("ranked result flattens scores", func(t *testing.T) {
		data, err := json.Marshal(SearchResult{Wine: w, Scores: &Scores{Similarity: 0.5, FeedbackScore: -2, FinalScore: 0.3}})
		require.NoError(t, err)

		var got map[string]any
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, "Rioja", got["Product_name"])
		assert.InDelta(t, 0.5, got["similarity"], 1e-9)
		assert.InDelta(t, -2, got["feedbackScore"], 1e-9)
		assert.InDelta(t, 0.3, got["finalScore"], 1e-9)
	})
}
