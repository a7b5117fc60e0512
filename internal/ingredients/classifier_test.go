package ingredients

import (
	"testing"

	"github.com/campuswell/nutriscan/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordClassifier_Classify(t *testing.T) {
	c := NewKeywordClassifier()

	tests := []struct {
		name     string
		text     string
		expected []types.Flag
	}{
		{
			name:     "mixed flags preserve source order",
			text:     "Whole grain oats, sugar, palm oil, water",
			expected: []types.Flag{types.FlagGood, types.FlagCaution, types.FlagCaution, types.FlagNeutral},
		},
		{
			name:     "bad wins over embedded caution keyword",
			text:     "high fructose corn syrup",
			expected: []types.Flag{types.FlagBad},
		},
		{
			name:     "case insensitive",
			text:     "HYDROGENATED SOYBEAN OIL, Almonds",
			expected: []types.Flag{types.FlagBad, types.FlagGood},
		},
		{
			name:     "unknown tokens are neutral",
			text:     "water, carbonation",
			expected: []types.Flag{types.FlagNeutral, types.FlagNeutral},
		},
		{
			name:     "semicolon separators and trailing period",
			text:     "lentils; salt.",
			expected: []types.Flag{types.FlagGood, types.FlagCaution},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := c.Classify(tt.text)
			require.Len(t, flags, len(tt.expected))
			for i, f := range flags {
				assert.Equal(t, tt.expected[i], f.Flag, "token %q", f.Name)
			}
		})
	}
}

func TestKeywordClassifier_EmptyText(t *testing.T) {
	c := NewKeywordClassifier()

	assert.Nil(t, c.Classify(""))
	assert.Nil(t, c.Classify("   "))
}

func TestKeywordClassifier_ReasonsAttached(t *testing.T) {
	c := NewKeywordClassifier()

	flags := c.Classify("partially hydrogenated palm kernel oil")
	require.Len(t, flags, 1)
	assert.Equal(t, types.FlagBad, flags[0].Flag)
	assert.Equal(t, "source of trans fat", flags[0].Reason)
	assert.Equal(t, "partially hydrogenated palm kernel oil", flags[0].Name)
}

func TestKeywordClassifier_ScoreModifier(t *testing.T) {
	c := NewKeywordClassifier()

	tests := []struct {
		name     string
		flags    []types.FlaggedIngredient
		expected int
	}{
		{
			name:     "empty list is zero",
			flags:    nil,
			expected: 0,
		},
		{
			name: "mixed flags sum weights",
			flags: []types.FlaggedIngredient{
				{Flag: types.FlagGood},
				{Flag: types.FlagGood},
				{Flag: types.FlagBad},
				{Flag: types.FlagCaution},
				{Flag: types.FlagNeutral},
			},
			expected: 2 + 2 - 4 - 2,
		},
		{
			name:     "positive cap",
			flags:    repeatFlag(types.FlagGood, 20),
			expected: modifierCap,
		},
		{
			name:     "negative cap",
			flags:    repeatFlag(types.FlagBad, 20),
			expected: -modifierCap,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, c.ScoreModifier(tt.flags))
		})
	}
}

func repeatFlag(flag types.Flag, n int) []types.FlaggedIngredient {
	flags := make([]types.FlaggedIngredient, n)
	for i := range flags {
		flags[i] = types.FlaggedIngredient{Flag: flag}
	}
	return flags
}
