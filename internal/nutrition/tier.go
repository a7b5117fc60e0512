package nutrition

import "github.com/campuswell/nutriscan/internal/types"

// Score thresholds for the tier fallback when no ingredient carries a flag.
const (
	greenScoreFloor  = 65
	yellowScoreFloor = 40
)

// tierInfos carries the presentation attributes the mobile client renders.
var tierInfos = map[types.Tier]types.TierInfo{
	types.TierGreen:  {Tier: types.TierGreen, Color: "#2F855A", Label: "Enjoy", Icon: "checkmark-circle"},
	types.TierYellow: {Tier: types.TierYellow, Color: "#D69E2E", Label: "In moderation", Icon: "alert-circle"},
	types.TierRed:    {Tier: types.TierRed, Color: "#C53030", Label: "Limit", Icon: "close-circle"},
}

// ClassifyTier decides the presentation tier. Ingredient evidence trumps the
// aggregate score; the precedence order is deliberate and load-bearing:
//
//  1. any bad ingredient wins red, regardless of score or good flags;
//  2. else any good ingredient wins green (caution alongside good does not
//     downgrade);
//  3. else any caution ingredient wins yellow;
//  4. else fall back to the numeric score.
func ClassifyTier(flags []types.FlaggedIngredient, score int) types.TierInfo {
	var hasGood, hasBad, hasCaution bool
	for _, f := range flags {
		switch f.Flag {
		case types.FlagGood:
			hasGood = true
		case types.FlagBad:
			hasBad = true
		case types.FlagCaution:
			hasCaution = true
		}
	}

	switch {
	case hasBad:
		return tierInfos[types.TierRed]
	case hasGood:
		return tierInfos[types.TierGreen]
	case hasCaution:
		return tierInfos[types.TierYellow]
	case score >= greenScoreFloor:
		return tierInfos[types.TierGreen]
	case score >= yellowScoreFloor:
		return tierInfos[types.TierYellow]
	default:
		return tierInfos[types.TierRed]
	}
}
