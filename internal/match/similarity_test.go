package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"identical", "identical", 0},
		{"müller", "muller", 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Levenshtein(tt.a, tt.b), "Levenshtein(%q, %q)", tt.a, tt.b)
	}
}

func TestLevenshteinRatio(t *testing.T) {
	assert.Equal(t, 1.0, LevenshteinRatio("", ""))
	assert.Equal(t, 1.0, LevenshteinRatio("abc", "abc"))
	assert.Equal(t, 0.0, LevenshteinRatio("abc", "xyz"))
	assert.InDelta(t, 1-3.0/7.0, LevenshteinRatio("kitten", "sitting"), 1e-9)
}

func TestJaroWinkler(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"martha", "marhta", 0.9611},
		{"dixon", "dicksonx", 0.8133},
		{"jellyfish", "smellyfish", 0.8962},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, JaroWinkler(tt.a, tt.b), 0.0005, "JaroWinkler(%q, %q)", tt.a, tt.b)
	}

	assert.Equal(t, 1.0, JaroWinkler("same", "same"))
	assert.Equal(t, 0.0, JaroWinkler("abc", ""))
}

func TestNameScorer(t *testing.T) {
	scorer := NameScorer{}

	t.Run("bounds", func(t *testing.T) {
		assert.Equal(t, 0.0, scorer.Score("", "john doe"))
		assert.Equal(t, 0.0, scorer.Score("john doe", ""))
		assert.Equal(t, 1.0, scorer.Score("john doe", "john doe"))
	})

	t.Run("token reorder does not sink the score", func(t *testing.T) {
		assert.Equal(t, 1.0, scorer.Score("doe john", "john doe"))
	})

	t.Run("close variants score high", func(t *testing.T) {
		assert.Greater(t, scorer.Score("john doe", "jon doe"), 0.85)
		assert.Greater(t, scorer.Score("osama bin laden", "usama bin ladin"), 0.85)
	})

	t.Run("unrelated names score low", func(t *testing.T) {
		assert.Less(t, scorer.Score("john doe", "wei zhang"), 0.5)
	})

	t.Run("score stays within unit interval", func(t *testing.T) {
		pairs := [][2]string{
			{"a", "b"}, {"john doe", "johnny doherty"}, {"x y z", "z y x"},
		}
		for _, pair := range pairs {
			score := scorer.Score(pair[0], pair[1])
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 1.0)
		}
	})
}
