package nutrition

import "github.com/campuswell/nutriscan/internal/types"

const (
	baseScore = 50

	proteinThresholdG = 10
	proteinBonusCap   = 15
	fiberThresholdG   = 2
	fiberBonusCap     = 10
	sugarThresholdG   = 10
	sugarPenaltyCap   = 15
	sodiumThresholdG  = 0.3
	sodiumPenaltyCap  = 10
)

// gradeAdjustments maps the Open Food Facts nutrition letter grade to its
// score contribution. An absent or unknown grade contributes nothing.
var gradeAdjustments = map[byte]int{
	'a': 30,
	'b': 15,
	'c': 0,
	'd': -15,
	'e': -25,
}

// Score combines the nutrition grade, macro thresholds, and the ingredient
// quality modifier into a bounded 0-100 score. Macro adjustments always read
// the per-100g or unqualified raw fields, independent of the serving basis
// Normalize picks for display. Pure and deterministic.
func Score(p *types.Product, ingredientModifier int) int {
	score := baseScore

	if p != nil {
		score += gradeAdjustment(p.NutritionGrades)

		n := p.Nutriments

		protein := firstOf(n.Proteins100g, n.Proteins)
		if protein > proteinThresholdG {
			score += capInt(round(protein), proteinBonusCap)
		}

		fiber := firstOf(n.Fiber100g, n.Fiber)
		if fiber > fiberThresholdG {
			score += capInt(round(fiber*2), fiberBonusCap)
		}

		sugar := firstOf(n.Sugars100g, n.Sugars)
		if sugar > sugarThresholdG {
			score -= capInt(round(sugar-sugarThresholdG), sugarPenaltyCap)
		}

		// sodium here is the raw upstream value in grams
		sodium := firstOf(n.Sodium100g, n.Sodium)
		if sodium > sodiumThresholdG {
			score -= capInt(round((sodium-sodiumThresholdG)*20), sodiumPenaltyCap)
		}
	}

	score += ingredientModifier

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func gradeAdjustment(grades string) int {
	if grades == "" {
		return 0
	}

	grade := grades[0]
	if grade >= 'A' && grade <= 'Z' {
		grade += 'a' - 'A'
	}
	return gradeAdjustments[grade]
}

func capInt(v, limit int) int {
	if v > limit {
		return limit
	}
	return v
}
