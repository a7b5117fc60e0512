// Package nutrition holds the pure computation stages of the lookup
// pipeline: normalizing the raw nutriment record, deriving the health
// score, and classifying the presentation tier. Every function here is
// total; sparse input degrades to zero contributions, never errors.
package nutrition

import (
	"math"

	"github.com/campuswell/nutriscan/internal/types"
)

// sodiumMgThreshold drives the sodium unit heuristic. Open Food Facts
// reports sodium in grams, but a known slice of records carries values
// already in milligrams. A resolved value above 5 cannot plausibly be
// grams per serving or per 100g, so we take it as milligrams. This is a
// pragmatic workaround for dirty upstream data, not a general
// unit-detection algorithm.
const sodiumMgThreshold = 5

// Normalize resolves the raw record into one consistent nutrition record:
// a single basis across all macros, integer values, sodium in milligrams.
//
// Basis selection: if either the per-serving energy or protein value is
// present, the whole record is read on the serving basis and a missing
// per-serving macro resolves to 0; per-100g values are never mixed in.
// Otherwise the record is read per 100g, falling back to the unqualified
// field, then 0.
func Normalize(p *types.Product) types.NormalizedNutrition {
	if p == nil {
		return types.NormalizedNutrition{Basis: types.Basis100g}
	}

	n := p.Nutriments

	var basis types.Basis
	var calories, protein, carbs, fat, fiber, sugar, sodium float64

	if n.EnergyKcalServing != nil || n.ProteinsServing != nil {
		basis = types.BasisServing
		calories = deref(n.EnergyKcalServing)
		protein = deref(n.ProteinsServing)
		carbs = deref(n.CarbohydratesServing)
		fat = deref(n.FatServing)
		fiber = deref(n.FiberServing)
		sugar = deref(n.SugarsServing)
		sodium = deref(n.SodiumServing)
	} else {
		basis = types.Basis100g
		calories = firstOf(n.EnergyKcal100g, n.EnergyKcal)
		protein = firstOf(n.Proteins100g, n.Proteins)
		carbs = firstOf(n.Carbohydrates100g, n.Carbohydrates)
		fat = firstOf(n.Fat100g, n.Fat)
		fiber = firstOf(n.Fiber100g, n.Fiber)
		sugar = firstOf(n.Sugars100g, n.Sugars)
		sodium = firstOf(n.Sodium100g, n.Sodium)
	}

	return types.NormalizedNutrition{
		Basis:    basis,
		Calories: round(calories),
		Protein:  round(protein),
		Carbs:    round(carbs),
		Fat:      round(fat),
		Fiber:    round(fiber),
		Sugar:    round(sugar),
		SodiumMg: normalizeSodiumMg(sodium),
	}
}

// normalizeSodiumMg converts the resolved raw sodium value to milligrams
// using the >5 heuristic described on sodiumMgThreshold.
func normalizeSodiumMg(raw float64) int {
	if raw > sodiumMgThreshold {
		return round(raw)
	}
	return round(raw * 1000)
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func firstOf(values ...*float64) float64 {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}

func round(v float64) int {
	return int(math.Round(v))
}
