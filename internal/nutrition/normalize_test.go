package nutrition

import (
	"testing"

	"github.com/campuswell/nutriscan/internal/types"
	"github.com/stretchr/testify/assert"
)

func f(v float64) *float64 { return &v }

func TestNormalize_ServingBasisIsUniform(t *testing.T) {
	// proteins_serving present forces the serving basis for every macro;
	// carbs has only a _100g value, which must NOT leak in.
	p := &types.Product{
		Nutriments: types.Nutriments{
			ProteinsServing:   f(5.2),
			EnergyKcalServing: f(210.4),
			Carbohydrates100g: f(44),
			Sugars100g:        f(22),
			SugarsServing:     f(8.6),
		},
	}

	got := Normalize(p)

	assert.Equal(t, types.BasisServing, got.Basis)
	assert.Equal(t, 210, got.Calories)
	assert.Equal(t, 5, got.Protein)
	assert.Equal(t, 0, got.Carbs, "missing _serving macro falls to 0, never to _100g")
	assert.Equal(t, 9, got.Sugar)
}

func TestNormalize_ServingBasisFromProteinAlone(t *testing.T) {
	p := &types.Product{
		Nutriments: types.Nutriments{
			ProteinsServing: f(3),
			EnergyKcal100g:  f(500),
		},
	}

	got := Normalize(p)
	assert.Equal(t, types.BasisServing, got.Basis)
	assert.Equal(t, 0, got.Calories)
	assert.Equal(t, 3, got.Protein)
}

func TestNormalize_100gBasisFallbackChain(t *testing.T) {
	p := &types.Product{
		Nutriments: types.Nutriments{
			EnergyKcal100g: f(546.4),
			Proteins:       f(7.8), // unqualified fallback
			Fat100g:        f(31),
		},
	}

	got := Normalize(p)

	assert.Equal(t, types.Basis100g, got.Basis)
	assert.Equal(t, 546, got.Calories)
	assert.Equal(t, 8, got.Protein)
	assert.Equal(t, 31, got.Fat)
	assert.Equal(t, 0, got.Carbs)
	assert.Equal(t, 0, got.Fiber)
}

func TestNormalize_SodiumUnitHeuristic(t *testing.T) {
	tests := []struct {
		name     string
		rawValue float64
		expected int
	}{
		{"grams converted to milligrams", 0.45, 450},
		{"already milligrams left unchanged", 450, 450},
		{"exactly at threshold treated as grams", 5, 5000},
		{"just above threshold treated as milligrams", 5.4, 5},
		{"zero stays zero", 0, 0},
		{"fractional grams rounded", 0.1234, 123},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &types.Product{
				Nutriments: types.Nutriments{Sodium100g: f(tt.rawValue)},
			}
			assert.Equal(t, tt.expected, Normalize(p).SodiumMg)
		})
	}
}

func TestNormalize_SparseInputNeverPanics(t *testing.T) {
	assert.Equal(t, types.NormalizedNutrition{Basis: types.Basis100g}, Normalize(nil))
	assert.Equal(t, types.NormalizedNutrition{Basis: types.Basis100g}, Normalize(&types.Product{}))
}

func TestNormalize_RoundsToNearestInteger(t *testing.T) {
	p := &types.Product{
		Nutriments: types.Nutriments{
			EnergyKcal100g: f(99.5),
			Proteins100g:   f(2.4),
			Fiber100g:      f(2.5),
		},
	}

	got := Normalize(p)
	assert.Equal(t, 100, got.Calories)
	assert.Equal(t, 2, got.Protein)
	assert.Equal(t, 3, got.Fiber)
}
