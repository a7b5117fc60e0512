package types

import "time"

// Product represents a single product record from the Open Food Facts API.
// This is the canonical raw record used throughout the application. Every
// field is optional upstream; zero values mean "absent".
type Product struct {
	Code            string     `json:"code,omitempty"`
	ProductName     string     `json:"product_name"`
	Brands          string     `json:"brands"`
	ImageURL        string     `json:"image_url"`
	NutritionGrades string     `json:"nutrition_grades"`
	ServingSize     string     `json:"serving_size"`
	Nutriments      Nutriments `json:"nutriments"`
	IngredientsText string     `json:"ingredients_text"`
	Allergens       string     `json:"allergens"`
	AdditivesTags   []string   `json:"additives_tags"`
}

// Nutriments holds the sparse nutriment fields we project from the API.
// Open Food Facts reports each macro up to three ways: per 100g, per serving,
// and unqualified. Any of them may be missing, so everything is a pointer.
type Nutriments struct {
	EnergyKcal100g    *float64 `json:"energy-kcal_100g,omitempty"`
	EnergyKcalServing *float64 `json:"energy-kcal_serving,omitempty"`
	EnergyKcal        *float64 `json:"energy-kcal,omitempty"`

	Proteins100g    *float64 `json:"proteins_100g,omitempty"`
	ProteinsServing *float64 `json:"proteins_serving,omitempty"`
	Proteins        *float64 `json:"proteins,omitempty"`

	Carbohydrates100g    *float64 `json:"carbohydrates_100g,omitempty"`
	CarbohydratesServing *float64 `json:"carbohydrates_serving,omitempty"`
	Carbohydrates        *float64 `json:"carbohydrates,omitempty"`

	Fat100g    *float64 `json:"fat_100g,omitempty"`
	FatServing *float64 `json:"fat_serving,omitempty"`
	Fat        *float64 `json:"fat,omitempty"`

	Sugars100g    *float64 `json:"sugars_100g,omitempty"`
	SugarsServing *float64 `json:"sugars_serving,omitempty"`
	Sugars        *float64 `json:"sugars,omitempty"`

	Fiber100g    *float64 `json:"fiber_100g,omitempty"`
	FiberServing *float64 `json:"fiber_serving,omitempty"`
	Fiber        *float64 `json:"fiber,omitempty"`

	Sodium100g    *float64 `json:"sodium_100g,omitempty"`
	SodiumServing *float64 `json:"sodium_serving,omitempty"`
	Sodium        *float64 `json:"sodium,omitempty"`
}

// Flag classifies a single ingredient.
type Flag string

const (
	FlagGood    Flag = "good"
	FlagBad     Flag = "bad"
	FlagCaution Flag = "caution"
	FlagNeutral Flag = "neutral"
)

// FlaggedIngredient is one ingredient token with its classification.
// Order matches the order in the source ingredient text.
type FlaggedIngredient struct {
	Name   string `json:"name"`
	Flag   Flag   `json:"flag"`
	Reason string `json:"reason,omitempty"`
}

// Basis says which serving basis a normalized record uses.
type Basis string

const (
	BasisServing Basis = "serving"
	Basis100g    Basis = "100g"
)

// NormalizedNutrition is one consistent nutrition record: all macros on the
// same basis, all integers, sodium always in milligrams.
type NormalizedNutrition struct {
	Basis    Basis `json:"basis"`
	Calories int   `json:"calories"`
	Protein  int   `json:"protein_g"`
	Carbs    int   `json:"carbs_g"`
	Fat      int   `json:"fat_g"`
	Fiber    int   `json:"fiber_g"`
	Sugar    int   `json:"sugar_g"`
	SodiumMg int   `json:"sodium_mg"`
}

// Tier is the presentation classification of a scored product.
type Tier string

const (
	TierGreen  Tier = "green"
	TierYellow Tier = "yellow"
	TierRed    Tier = "red"
)

// TierInfo carries the tier plus its presentation attributes.
type TierInfo struct {
	Tier  Tier   `json:"tier"`
	Color string `json:"color"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

// LookupStatus discriminates the outcome of a barcode lookup.
type LookupStatus string

const (
	StatusFound    LookupStatus = "found"
	StatusNotFound LookupStatus = "not_found"
	StatusError    LookupStatus = "error"
)

// LookupResult is the fully normalized and scored outcome of a barcode
// lookup, cached keyed by barcode.
type LookupResult struct {
	Barcode string       `json:"barcode"`
	Status  LookupStatus `json:"status"`

	Name           string   `json:"name"`
	Brand          string   `json:"brand"`
	ImageURL       string   `json:"image_url"`
	NutritionGrade string   `json:"nutrition_grade"`
	ServingSize    string   `json:"serving_size"`
	Allergens      string   `json:"allergens"`
	AdditivesTags  []string `json:"additives_tags"`

	Nutrition   NormalizedNutrition `json:"nutrition"`
	Ingredients []FlaggedIngredient `json:"ingredients"`
	HealthScore int                 `json:"health_score"`
	Tier        TierInfo            `json:"tier"`

	FetchedAt time.Time `json:"fetched_at"`
}

// Fresh reports whether the result is still within the freshness window.
func (r *LookupResult) Fresh(now time.Time, window time.Duration) bool {
	return now.Sub(r.FetchedAt) < window
}
