package search

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"scaled", []float32{1, 2, 3}, []float32{2, 4, 6}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"partial", []float32{1, 0}, []float32{0.6, 0.8}, 0.6},
		{"empty a", nil, []float32{1, 0}, 0},
		{"empty b", []float32{1, 0}, []float32{}, 0},
		{"zero norm", []float32{0, 0}, []float32{1, 0}, 0},
		{"nan component", []float32{float32(math.NaN()), 1}, []float32{1, 1}, 0},
		{"infinite component", []float32{float32(math.Inf(1)), 1}, []float32{1, 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			assert.InDelta(t, tt.expected, got, 1e-6)
			assert.False(t, math.IsNaN(got))
		})
	}
}

func TestCosineSimilarity_Properties(t *testing.T) {
	vectors := [][]float32{
		{0.1, 0.9, -0.3},
		{1e-3, 2e-3, 5e-4},
		{-4, 2, 7},
		{3, 3, 3},
	}
	for _, a := range vectors {
		for _, b := range vectors {
			ab := CosineSimilarity(a, b)
			assert.Equal(t, ab, CosineSimilarity(b, a), "symmetric")
			assert.GreaterOrEqual(t, ab, -1.0)
			assert.LessOrEqual(t, ab, 1.0)
		}
		assert.InDelta(t, 1.0, CosineSimilarity(a, a), 1e-9)
	}
}

func TestCosineSimilarity_LengthMismatchPanics(t *testing.T) {
	assert.Panics(t, func() {
		CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3})
	})
}

func TestNormalizeVector(t *testing.T) {
	tests := []struct {
		name     string
		input    []float32
		expected []float32
	}{
		{
			name:     "unit vector remains unchanged",
			input:    []float32{1.0, 0.0, 0.0},
			expected: []float32{1.0, 0.0, 0.0},
		},
		{
			name:     "scale non-unit vector",
			input:    []float32{3.0, 4.0},
			expected: []float32{0.6, 0.8},
		},
		{
			name:     "negative values",
			input:    []float32{-1.0, 1.0},
			expected: []float32{-1.0 / float32(math.Sqrt(2)), 1.0 / float32(math.Sqrt(2))},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeVector(tt.input)
			require.Equal(t, len(tt.expected), len(result), "vector length mismatch")

			for i := range result {
				assert.InDelta(t, tt.expected[i], result[i], 1e-6, "element %d", i)
			}
		})
	}
}

func TestNormalizeVector_ZeroAndEmpty(t *testing.T) {
	assert.Equal(t, []float32{0, 0, 0}, NormalizeVector([]float32{0, 0, 0}))
	assert.Empty(t, NormalizeVector(nil))
}
