// Package grocery builds the aggregated shopping list out of stored recipes:
// scaling to requested portions, merging duplicate ingredients and classifying
// each merged item into a shopping category.
package grocery

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Variant (lowercase) -> canonical name used as the merge key.
// Display names are the title-cased canonical name.
var canonicalNames = map[string]string{
	// Garlic
	"garlic":        "garlic",
	"garlic clove":  "garlic",
	"garlic cloves": "garlic",
	"clove garlic":  "garlic",
	"cloves garlic": "garlic",
	// Salt
	"salt":        "salt",
	"sea salt":    "salt",
	"kosher salt": "salt",
	"table salt":  "salt",
	"fine salt":   "salt",
	"coarse salt": "salt",
	// Oil
	"olive oil":              "olive oil",
	"extra virgin olive oil": "olive oil",
	"evoo":                   "olive oil",
	"vegetable oil":          "vegetable oil",
	"cooking oil":            "vegetable oil",
	// Pepper
	"black pepper":                "black pepper",
	"ground black pepper":         "black pepper",
	"pepper":                      "black pepper",
	"freshly ground black pepper": "black pepper",
	// Onion
	"onion":        "onion",
	"onions":       "onion",
	"yellow onion": "onion",
	"white onion":  "onion",
	"red onion":    "onion",
	// Butter
	"butter":          "butter",
	"unsalted butter": "butter",
	"salted butter":   "butter",
	// Common others
	"all-purpose flour": "flour",
	"plain flour":       "flour",
	"flour":             "flour",
	"sugar":             "sugar",
	"granulated sugar":  "sugar",
	"white sugar":       "sugar",
	"brown sugar":       "brown sugar",
	"eggs":              "egg",
	"egg":               "egg",
	"large egg":         "egg",
	"large eggs":        "egg",
	"milk":              "milk",
	"whole milk":        "milk",
	"water":             "water",
	"lemon juice":       "lemon juice",
	"fresh lemon juice": "lemon juice",
	"lime juice":        "lime juice",
	"soy sauce":         "soy sauce",
	"tomato paste":      "tomato paste",
	"canned tomatoes":   "canned tomatoes",
	"diced tomatoes":    "canned tomatoes",
	"crushed tomatoes":  "canned tomatoes",
	"parmesan":          "parmesan",
	"parmesan cheese":   "parmesan",
	"parmigiano-reggiano": "parmesan",
	"parsley":             "parsley",
	"fresh parsley":       "parsley",
	"cilantro":            "cilantro",
	"fresh cilantro":      "cilantro",
	"coriander":           "cilantro",
	"fresh coriander":     "cilantro",
	"potatoes":            "potato",
	"potato":              "potato",
}

// Unit alias (lowercase) -> canonical unit. Two amounts sum only when their
// canonical units match; everything else stays a separate composite part.
var unitAliases = map[string]string{
	"tbsp":        "tbsp",
	"tablespoon":  "tbsp",
	"tablespoons": "tbsp",
	"tb":          "tbsp",
	"tsp":         "tsp",
	"teaspoon":    "tsp",
	"teaspoons":   "tsp",
	"cup":         "cup",
	"cups":        "cup",
	"g":           "g",
	"gram":        "g",
	"grams":       "g",
	"kg":          "kg",
	"ml":          "ml",
	"milliliter":  "ml",
	"milliliters": "ml",
	"l":           "l",
	"liter":       "l",
	"liters":      "l",
	"oz":          "oz",
	"ounce":       "oz",
	"ounces":      "oz",
	"lb":          "lb",
	"lbs":         "lb",
	"pound":       "lb",
	"pounds":      "lb",
	"pinch":       "pinch",
	"pinches":     "pinch",
	"to taste":    "to taste",
}

// Shopping categories a merged item can land in.
const (
	CategoryProduce   = "produce"
	CategoryDairy     = "dairy"
	CategoryMeat      = "meat"
	CategorySeafood   = "seafood"
	CategoryPantry    = "pantry"
	CategorySpice     = "spice"
	CategoryCondiment = "condiment"
	CategoryFrozen    = "frozen"
	CategoryOther     = "other"
)

// Canonical name (or fragment) -> category. Exact match wins; otherwise the
// first entry whose key is contained in the name. Unmatched names are "other".
var categoryTable = map[string]string{
	"potato": CategoryProduce, "onion": CategoryProduce, "garlic": CategoryProduce,
	"tomato": CategoryProduce, "carrot": CategoryProduce, "celery": CategoryProduce,
	"lemon": CategoryProduce, "lime": CategoryProduce, "apple": CategoryProduce,
	"banana": CategoryProduce, "spinach": CategoryProduce, "lettuce": CategoryProduce,
	"parsley": CategoryProduce, "cilantro": CategoryProduce, "basil": CategoryProduce,
	"mushroom": CategoryProduce, "pepper bell": CategoryProduce, "bell pepper": CategoryProduce,
	"cucumber": CategoryProduce, "zucchini": CategoryProduce, "ginger": CategoryProduce,

	"milk": CategoryDairy, "butter": CategoryDairy, "cheese": CategoryDairy,
	"parmesan": CategoryDairy, "cream": CategoryDairy, "yogurt": CategoryDairy,
	"egg": CategoryDairy, "mozzarella": CategoryDairy,

	"chicken": CategoryMeat, "beef": CategoryMeat, "pork": CategoryMeat,
	"bacon": CategoryMeat, "lamb": CategoryMeat, "sausage": CategoryMeat,
	"turkey": CategoryMeat, "ham": CategoryMeat,

	"salmon": CategorySeafood, "shrimp": CategorySeafood, "tuna": CategorySeafood,
	"fish": CategorySeafood, "cod": CategorySeafood, "prawn": CategorySeafood,

	"flour": CategoryPantry, "sugar": CategoryPantry, "brown sugar": CategoryPantry,
	"rice": CategoryPantry, "pasta": CategoryPantry, "spaghetti": CategoryPantry,
	"olive oil": CategoryPantry, "vegetable oil": CategoryPantry, "oil": CategoryPantry,
	"canned tomatoes": CategoryPantry, "tomato paste": CategoryPantry,
	"beans": CategoryPantry, "lentils": CategoryPantry, "stock": CategoryPantry,
	"broth": CategoryPantry, "bread": CategoryPantry, "honey": CategoryPantry,
	"chocolate": CategoryPantry, "baking powder": CategoryPantry, "baking soda": CategoryPantry,

	"salt": CategorySpice, "black pepper": CategorySpice, "cumin": CategorySpice,
	"paprika": CategorySpice, "oregano": CategorySpice, "cinnamon": CategorySpice,
	"chili powder": CategorySpice, "curry": CategorySpice, "nutmeg": CategorySpice,
	"thyme": CategorySpice, "rosemary": CategorySpice, "bay leaf": CategorySpice,

	"soy sauce": CategoryCondiment, "vinegar": CategoryCondiment, "mustard": CategoryCondiment,
	"ketchup": CategoryCondiment, "mayonnaise": CategoryCondiment, "hot sauce": CategoryCondiment,
	"worcestershire": CategoryCondiment,

	"frozen peas": CategoryFrozen, "frozen corn": CategoryFrozen, "ice cream": CategoryFrozen,
}

var titleCaser = cases.Title(language.English)

// normalizeName returns the lowercase canonical name for the merge key.
// Unknown names pass through lowercased.
func normalizeName(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := canonicalNames[s]; ok {
		return canonical
	}
	return s
}

// displayName turns a merge-key name back into a shopping-list label.
func displayName(key string) string {
	if key == "" {
		return ""
	}
	return titleCaser.String(strings.ReplaceAll(key, "-", " "))
}

// normalizeUnit returns the canonical unit for the merge key. Unknown units
// pass through lowercased.
func normalizeUnit(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := unitAliases[s]; ok {
		return canonical
	}
	return s
}

// categoryKeys holds the table keys longest-first so substring matching is
// deterministic and the most specific entry wins ("brown sugar" before "sugar").
var categoryKeys = func() []string {
	keys := make([]string, 0, len(categoryTable))
	for k := range categoryTable {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// classify maps a canonical ingredient name to a shopping category.
func classify(name string) string {
	if cat, ok := categoryTable[name]; ok {
		return cat
	}
	for _, key := range categoryKeys {
		if strings.Contains(name, key) {
			return categoryTable[key]
		}
	}
	return CategoryOther
}
