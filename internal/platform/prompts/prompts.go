// Package prompts holds the instruction text shared by the LLM providers.
package prompts

import (
	"fmt"
	"strings"

	"groceryagent/internal/grocery"
)

const recipeInstruction = `You extract a recipe from the given text and return it as JSON.

If the recipe text is in a language other than English, translate everything to English first, then extract the structure. All output (title, ingredients, steps) must be in English.

Return a single, clean JSON object with the following keys and data types:
'title' (string), 'servings' (integer, the number of portions the recipe is written for; use 4 if unclear), 'ingredients' (array of objects), 'steps' (array of strings, the cooking instructions in order).

Each ingredient object has:
- 'name': ONLY the ingredient name (e.g. "salt", "chicken breast"). No "(for marinade)", "(divided)" or step descriptions. If the same ingredient appears for several uses, output it once with the combined quantity.
- 'quantity': a single number or fraction (e.g. 2, "1/2", "1 1/2"). Always extract numeric quantities, even when written as words or in another language. Use null ONLY when the text explicitly says "to taste", "a pinch", "some" or similar.
- 'unit': a single unit (cups, tbsp, tsp, g, ml, kg, lb, oz) or a qualitative one ("to taste", "pinch"), translated to English. Never put numbers in the unit. Use null when there is no unit (e.g. "2 eggs").
- 'form': one of fresh, canned, frozen, dried, liquid. "canned" for canned beans/tomatoes, "frozen" for frozen peas/corn, "dried" for dry pasta/herbs/lentils, "liquid" for oil/vinegar, otherwise "fresh".
- 'optional': true if the recipe marks the ingredient optional ("optional: parsley", "garnish (optional)").
- 'pantry_item': true for things people typically keep stocked (dry pasta, rice, oil, flour, spices, salt, sugar, canned tomatoes); false for things bought weekly (fresh meat, produce, dairy, fresh herbs).

The JSON response should be clean and not contain any markdown formatting (e.g.` + " ```json)."

// Recipe builds the one-shot recipe extraction prompt.
func Recipe(text string) string {
	return recipeInstruction + "\n\nRecipe text:\n\n" + strings.TrimSpace(text)
}

const normalizeInstruction = `You normalize ingredient names for a grocery list so duplicates merge.

Rules:
- Output one canonical {"name", "unit"} object per input line, in the SAME ORDER, as a single clean JSON array without markdown formatting.
- Use short, standard lowercase names. The same ingredient must get the same name ("garlic clove", "garlic cloves", "2 cloves garlic" -> "garlic"; "sea salt", "kosher salt" -> "salt"; "extra virgin olive oil" -> "olive oil").
- Use standard units: tbsp, tsp, cup, g, ml, oz, lb, pinch, to taste, or an empty string when there is no unit.
- Keep the unit meaning: if the input unit is "tbsp" output "tbsp"; if "to taste" output "to taste".`

// Normalize builds the one-call-per-list canonicalization prompt.
func Normalize(lines []grocery.IngredientLine) string {
	var b strings.Builder
	b.WriteString(normalizeInstruction)
	b.WriteString("\n\nNormalize these ingredients (one per line). Output the array in the SAME ORDER.\n\n")
	for _, line := range lines {
		unit := strings.TrimSpace(line.Unit)
		if unit == "" {
			unit = "(no unit)"
		}
		fmt.Fprintf(&b, "- %s | %s\n", strings.TrimSpace(line.Name), unit)
	}
	return b.String()
}
