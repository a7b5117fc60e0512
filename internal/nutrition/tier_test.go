package nutrition

import (
	"testing"

	"github.com/campuswell/nutriscan/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestClassifyTier_Precedence(t *testing.T) {
	tests := []struct {
		name     string
		flags    []types.FlaggedIngredient
		score    int
		expected types.Tier
	}{
		{
			name: "bad overrides good and a high score",
			flags: []types.FlaggedIngredient{
				{Flag: types.FlagBad},
				{Flag: types.FlagGood},
			},
			score:    95,
			expected: types.TierRed,
		},
		{
			name: "caution alongside good does not downgrade",
			flags: []types.FlaggedIngredient{
				{Flag: types.FlagGood},
				{Flag: types.FlagCaution},
			},
			score:    10,
			expected: types.TierGreen,
		},
		{
			name: "caution alone is yellow",
			flags: []types.FlaggedIngredient{
				{Flag: types.FlagCaution},
				{Flag: types.FlagNeutral},
			},
			score:    90,
			expected: types.TierYellow,
		},
		{
			name: "neutral flags fall through to score",
			flags: []types.FlaggedIngredient{
				{Flag: types.FlagNeutral},
			},
			score:    70,
			expected: types.TierGreen,
		},
		{
			name:     "no flags, high score",
			score:    65,
			expected: types.TierGreen,
		},
		{
			name:     "no flags, middling score",
			score:    64,
			expected: types.TierYellow,
		},
		{
			name:     "no flags, low boundary",
			score:    40,
			expected: types.TierYellow,
		},
		{
			name:     "no flags, poor score",
			score:    39,
			expected: types.TierRed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyTier(tt.flags, tt.score)
			assert.Equal(t, tt.expected, got.Tier)
		})
	}
}

func TestClassifyTier_PresentationAttributes(t *testing.T) {
	for _, tier := range []types.Tier{types.TierGreen, types.TierYellow, types.TierRed} {
		info := tierInfos[tier]
		assert.Equal(t, tier, info.Tier)
		assert.NotEmpty(t, info.Color)
		assert.NotEmpty(t, info.Label)
		assert.NotEmpty(t, info.Icon)
	}
}
