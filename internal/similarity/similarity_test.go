package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{name: "identical", a: "siemens", b: "siemens", want: 1.0},
		{name: "both empty", a: "", b: "", want: 1.0},
		{name: "left empty", a: "", b: "philips", want: 0.0},
		{name: "right empty", a: "philips", b: "", want: 0.0},
		{name: "one deletion", a: "siemns", b: "siemens", want: 1 - 1.0/7},
		{name: "completely different", a: "abc", b: "xyz", want: 0.0},
		{name: "accented runes count once", a: "università", b: "universita", want: 0.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(tt.a, tt.b), 1e-9)
		})
	}
}

func TestScore_Properties(t *testing.T) {
	inputs := []string{"medika srl", "medikal", "frigo", "camera 12", "x", "philips", "filipz"}

	for _, s := range inputs {
		assert.Equal(t, 1.0, Score(s, s), "reflexive for %q", s)
		assert.Equal(t, 0.0, Score(s, ""), "empty for %q", s)
		for _, other := range inputs {
			assert.Equal(t, Score(s, other), Score(other, s), "symmetric for %q/%q", s, other)
			got := Score(s, other)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		}
	}
}

func TestDistance(t *testing.T) {
	assert.Equal(t, 3, Distance("kitten", "sitting"))
	assert.Equal(t, 0, Distance("", ""))
	assert.Equal(t, 4, Distance("", "frig"))
	assert.Equal(t, 3, Distance("filipz", "philips"))
}

func TestScore_BelowFuzzyThreshold(t *testing.T) {
	// "filipz" vs "philips": distance 3 over 7 runes, under the 0.6 cut.
	got := Score("filipz", "philips")
	assert.InDelta(t, 0.571, got, 0.01)
	assert.Less(t, got, 0.6)
}
