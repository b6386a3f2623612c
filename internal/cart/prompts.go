package cart

import (
	"fmt"
	"strings"

	"groceryagent/internal/grocery"
)

// Pantry staples in these categories get the bulk-buy hint.
var nonPerishableCategories = map[string]bool{
	grocery.CategoryPantry:    true,
	grocery.CategorySpice:     true,
	grocery.CategoryCondiment: true,
}

// BuildLoginTask builds the initial login task for the browser agent.
func BuildLoginTask(site, email, password string) string {
	return fmt.Sprintf(`Go to %s.
If the site shows you are logged out or asks you to sign in, log in first: use email %q and password %q. Then continue.
After logging in, stay on the site and wait for further instructions.`, site, email, password)
}

// BuildItemTask builds a focused task description for a single grocery item.
func BuildItemTask(item grocery.Item, itemNum, totalItems int) string {
	parts := []string{
		fmt.Sprintf("ITEM %d of %d: %s", itemNum, totalItems, strings.ToUpper(item.Name)),
		"",
	}

	if item.AmountStr != "" {
		parts = append(parts, "Amount needed: "+item.AmountStr)
	}
	form := strings.ToLower(strings.TrimSpace(item.Form))
	if form == "" {
		form = "fresh"
	}
	parts = append(parts, "Required form: "+form)
	if item.Optional {
		parts = append(parts, "[OPTIONAL - you can skip if you don't find a good option]")
	}

	if item.PantryItem && nonPerishableCategories[strings.ToLower(item.Category)] {
		parts = append(parts, "",
			"This is a pantry staple (non-perishable). Prefer a larger package size when it has a better price per kg (e.g. 1 kg flour instead of 500 g if cheaper per kg).")
	}

	parts = append(parts, "",
		fmt.Sprintf("1. Search for: '%s'", item.Name),
		"2. Review ALL search results carefully",
		fmt.Sprintf("3. Choose an option that matches the form '%s' (ALWAYS take the form of the ingredient into account)", form),
		"4. When several options fit the form requirement, prefer the one with the better price per kg (or per unit if kg is not available)",
		"5. Add the selected item to the cart with enough units to cover the amount needed above.",
	)

	if !item.Optional {
		parts = append(parts, "",
			"6. If you cannot find a good match with the required form, pick a close substitute that serves the same purpose in cooking (e.g. canned tomatoes instead of fresh). Prefer the exact item when possible.")
	}

	return strings.Join(parts, "\n")
}

// BuildSelectionPrompt asks the LLM to pick the best product for an item task
// out of the candidate texts scraped from the search results page.
func BuildSelectionPrompt(task string, candidates []string) string {
	var b strings.Builder
	b.WriteString("You are choosing a supermarket product for this shopping task:\n\n")
	b.WriteString(task)
	b.WriteString("\n\nCandidate products from the search results page:\n\n")
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. %s\n", i, strings.TrimSpace(c))
	}
	b.WriteString("\nReply with ONLY the number of the best candidate (match the required form first, then the better price per kg or per unit). Reply with -1 if none is acceptable.")
	return b.String()
}
