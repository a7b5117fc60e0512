package ingredients

import (
	"strings"

	"github.com/campuswell/nutriscan/internal/types"
)

// Classifier flags each ingredient token and derives a signed score
// adjustment from the flags. The pipeline treats it as an injectable
// collaborator; the default implementation is a keyword table, not an
// algorithm.
type Classifier interface {
	Classify(ingredientsText string) []types.FlaggedIngredient
	ScoreModifier(flags []types.FlaggedIngredient) int
}

// KeywordClassifier flags ingredients by case-insensitive keyword matching
// against a static rule table. Bad rules win over good, good over caution;
// unmatched tokens are neutral.
type KeywordClassifier struct{}

// Ensure KeywordClassifier implements Classifier interface
var _ Classifier = (*KeywordClassifier)(nil)

// NewKeywordClassifier creates the default rule-table classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// Classify tokenizes the raw ingredient text and flags each token.
// Token order follows the source text.
func (c *KeywordClassifier) Classify(ingredientsText string) []types.FlaggedIngredient {
	tokens := tokenize(ingredientsText)
	if len(tokens) == 0 {
		return nil
	}

	flagged := make([]types.FlaggedIngredient, 0, len(tokens))
	for _, token := range tokens {
		flagged = append(flagged, classifyToken(token))
	}
	return flagged
}

func classifyToken(token string) types.FlaggedIngredient {
	lower := strings.ToLower(token)

	for _, table := range []struct {
		rules []rule
		flag  types.Flag
	}{
		{badRules, types.FlagBad},
		{goodRules, types.FlagGood},
		{cautionRules, types.FlagCaution},
	} {
		for _, r := range table.rules {
			if strings.Contains(lower, r.keyword) {
				return types.FlaggedIngredient{Name: token, Flag: table.flag, Reason: r.reason}
			}
		}
	}

	return types.FlaggedIngredient{Name: token, Flag: types.FlagNeutral}
}

// ScoreModifier folds the flags into one signed adjustment for the health
// score: each bad ingredient costs more than a good one earns.
func (c *KeywordClassifier) ScoreModifier(flags []types.FlaggedIngredient) int {
	modifier := 0
	for _, f := range flags {
		switch f.Flag {
		case types.FlagGood:
			modifier += goodWeight
		case types.FlagBad:
			modifier += badWeight
		case types.FlagCaution:
			modifier += cautionWeight
		}
	}

	if modifier > modifierCap {
		return modifierCap
	}
	if modifier < -modifierCap {
		return -modifierCap
	}
	return modifier
}

// tokenize splits raw ingredient text on commas and semicolons, dropping
// empty tokens and trailing punctuation.
func tokenize(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';'
	})

	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		token := strings.Trim(strings.TrimSpace(part), ".")
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}
