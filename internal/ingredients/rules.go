package ingredients

// rule maps a lowercase keyword to a human-readable reason. The tables are
// data, maintained by hand; matching is plain substring containment.
type rule struct {
	keyword string
	reason  string
}

// Flag weights used by ScoreModifier.
const (
	goodWeight    = 2
	badWeight     = -4
	cautionWeight = -2
	modifierCap   = 25
)

var badRules = []rule{
	{"high fructose corn syrup", "highly processed sweetener"},
	{"corn syrup", "highly processed sweetener"},
	{"partially hydrogenated", "source of trans fat"},
	{"hydrogenated", "source of trans fat"},
	{"aspartame", "artificial sweetener"},
	{"sucralose", "artificial sweetener"},
	{"acesulfame", "artificial sweetener"},
	{"saccharin", "artificial sweetener"},
	{"monosodium glutamate", "flavor enhancer"},
	{"sodium nitrite", "processed-meat preservative"},
	{"sodium nitrate", "processed-meat preservative"},
	{"sodium benzoate", "synthetic preservative"},
	{"potassium bromate", "banned in several countries"},
	{"bha", "synthetic antioxidant"},
	{"bht", "synthetic antioxidant"},
	{"red 40", "artificial color"},
	{"red 3", "artificial color"},
	{"yellow 5", "artificial color"},
	{"yellow 6", "artificial color"},
	{"blue 1", "artificial color"},
	{"titanium dioxide", "whitening agent"},
}

var goodRules = []rule{
	{"whole grain", "whole grain"},
	{"whole wheat", "whole grain"},
	{"oat", "whole grain"},
	{"quinoa", "whole grain"},
	{"brown rice", "whole grain"},
	{"barley", "whole grain"},
	{"lentil", "legume protein"},
	{"chickpea", "legume protein"},
	{"black bean", "legume protein"},
	{"pea protein", "plant protein"},
	{"almond", "nuts and seeds"},
	{"walnut", "nuts and seeds"},
	{"hazelnut", "nuts and seeds"},
	{"cashew", "nuts and seeds"},
	{"chia", "nuts and seeds"},
	{"flax", "nuts and seeds"},
	{"olive oil", "unsaturated fat"},
	{"avocado", "unsaturated fat"},
	{"spinach", "vegetable"},
	{"kale", "vegetable"},
	{"broccoli", "vegetable"},
	{"greek yogurt", "fermented dairy"},
	{"yogurt cultures", "fermented dairy"},
}

var cautionRules = []rule{
	{"palm oil", "high in saturated fat"},
	{"cane sugar", "added sugar"},
	{"sugar", "added sugar"},
	{"dextrose", "added sugar"},
	{"maltodextrin", "refined carbohydrate"},
	{"modified starch", "refined carbohydrate"},
	{"modified corn starch", "refined carbohydrate"},
	{"artificial flavor", "artificial flavoring"},
	{"artificial flavour", "artificial flavoring"},
	{"natural flavor", "unspecified flavoring"},
	{"natural flavour", "unspecified flavoring"},
	{"carrageenan", "thickener"},
	{"xanthan gum", "thickener"},
	{"enriched flour", "refined grain"},
	{"white flour", "refined grain"},
	{"vegetable oil", "unspecified oil blend"},
	{"canola oil", "refined oil"},
	{"salt", "added sodium"},
}
