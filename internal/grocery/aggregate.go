package grocery

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"groceryagent/internal/recipe"
)

// ErrInvalidRequest is returned for an empty or malformed aggregation request.
var ErrInvalidRequest = errors.New("invalid grocery list request")

// Item is one line of the aggregated shopping list.
type Item struct {
	Name       string `json:"name"`
	AmountStr  string `json:"amount_str"`
	Form       string `json:"form"`
	Category   string `json:"category"`
	Optional   bool   `json:"optional"`
	PantryItem bool   `json:"pantry_item"`
}

// Request describes which recipes to aggregate and how.
type Request struct {
	RecipeIDs []int64       `json:"ids"`
	Portions  map[int64]int `json:"portions,omitempty"`
	Selected  []int         `json:"selected,omitempty"`
}

// RecipeSource is the slice of the recipe store the aggregator needs.
type RecipeSource interface {
	Get(ctx context.Context, id int64) (*recipe.Recipe, error)
}

// IngredientLine is one flattened ingredient handed to the LLM normalizer.
type IngredientLine struct {
	Name string
	Unit string
}

// Canonical is the normalizer's answer for one IngredientLine.
type Canonical struct {
	Name string `json:"name"`
	Unit string `json:"unit"`
}

// Normalizer canonicalizes ingredient names and units so duplicates merge.
// One call per grocery list; any failure falls back to the static tables.
type Normalizer interface {
	CanonicalIngredients(ctx context.Context, lines []IngredientLine) ([]Canonical, error)
}

// Builder aggregates recipes into a grocery list.
type Builder struct {
	source     RecipeSource
	normalizer Normalizer // nil means static normalization only
	log        *zap.Logger
}

// NewBuilder creates a Builder. normalizer may be nil.
func NewBuilder(source RecipeSource, normalizer Normalizer, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{source: source, normalizer: normalizer, log: log}
}

// flatRow is one ingredient occurrence with its recipe's scale applied.
type flatRow struct {
	name     string
	unit     string
	form     string
	quantity *float64
	optional bool
	pantry   bool
}

// Build aggregates the requested recipes into a shopping list.
//
// Every recipe id must exist (recipe.ErrNotFound otherwise, no partial list).
// Portion overrides scale ingredient quantities by override/servings. Selected
// restricts to positions in the pre-merge flattened order. Duplicate names
// merge: same canonical unit sums, different units concatenate with " + ".
func (b *Builder) Build(ctx context.Context, req Request) ([]Item, error) {
	if len(req.RecipeIDs) == 0 {
		return nil, fmt.Errorf("%w: no recipe ids", ErrInvalidRequest)
	}
	for id, portions := range req.Portions {
		if portions <= 0 {
			return nil, fmt.Errorf("%w: portions for recipe %d must be positive", ErrInvalidRequest, id)
		}
	}

	flat, err := b.flatten(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(flat) == 0 {
		return []Item{}, nil
	}

	canonical := b.canonicalize(ctx, flat)
	return merge(flat, canonical), nil
}

// flatten loads every recipe, applies per-recipe scaling and the selection
// filter, and returns the ordered flat ingredient rows.
func (b *Builder) flatten(ctx context.Context, req Request) ([]flatRow, error) {
	// RecipeIDs is a set: a repeated id must not double-count ingredients or
	// shift selection positions.
	seen := make(map[int64]bool, len(req.RecipeIDs))
	var flat []flatRow
	for _, id := range req.RecipeIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		r, err := b.source.Get(ctx, id)
		if err != nil {
			if errors.Is(err, recipe.ErrNotFound) {
				return nil, fmt.Errorf("recipe %d: %w", id, recipe.ErrNotFound)
			}
			return nil, err
		}

		servings := r.Servings
		if servings <= 0 {
			servings = recipe.DefaultServings
		}
		scale := 1.0
		if portions, ok := req.Portions[id]; ok {
			scale = float64(portions) / float64(servings)
		}

		for _, ing := range r.Ingredients {
			row := flatRow{
				name:     strings.TrimSpace(ing.Name),
				optional: ing.Optional,
				pantry:   ing.PantryItem,
			}
			if ing.Unit != nil {
				row.unit = strings.TrimSpace(*ing.Unit)
			}
			if ing.Form != nil {
				row.form = strings.TrimSpace(*ing.Form)
			}
			if ing.Quantity != nil {
				scaled := *ing.Quantity * scale
				row.quantity = &scaled
			}
			flat = append(flat, row)
		}
	}

	if req.Selected == nil {
		return flat, nil
	}

	// Selection positions refer to the pre-merge flattened order.
	selected := make(map[int]bool, len(req.Selected))
	for _, idx := range req.Selected {
		if idx < 0 {
			return nil, fmt.Errorf("%w: negative selection index %d", ErrInvalidRequest, idx)
		}
		selected[idx] = true
	}
	var picked []flatRow
	for i, row := range flat {
		if selected[i] {
			picked = append(picked, row)
		}
	}
	return picked, nil
}

// canonicalize asks the LLM for canonical (name, unit) pairs, falling back to
// the static tables on any failure or length mismatch.
func (b *Builder) canonicalize(ctx context.Context, flat []flatRow) []Canonical {
	static := make([]Canonical, len(flat))
	for i, row := range flat {
		static[i] = Canonical{Name: normalizeName(row.name), Unit: normalizeUnit(row.unit)}
	}
	if b.normalizer == nil {
		return static
	}

	lines := make([]IngredientLine, len(flat))
	for i, row := range flat {
		lines[i] = IngredientLine{Name: row.name, Unit: row.unit}
	}
	canonical, err := b.normalizer.CanonicalIngredients(ctx, lines)
	if err != nil {
		b.log.Warn("llm ingredient normalization failed, using static tables", zap.Error(err))
		return static
	}
	if len(canonical) != len(flat) {
		b.log.Warn("llm normalization length mismatch, using static tables",
			zap.Int("got", len(canonical)), zap.Int("want", len(flat)))
		return static
	}
	for i := range canonical {
		name := strings.ToLower(strings.TrimSpace(canonical[i].Name))
		if name == "" {
			name = static[i].Name
		}
		unit := normalizeUnit(canonical[i].Unit)
		if unit == "" {
			unit = static[i].Unit
		}
		canonical[i] = Canonical{Name: name, Unit: unit}
	}
	return canonical
}

// amountGroup is one unit bucket inside a merged item.
type amountGroup struct {
	canonUnit string
	unit      string // display unit, first-seen spelling
	quantity  *float64
}

type mergedItem struct {
	key      string
	form     string
	groups   []amountGroup
	optional bool
	pantry   bool
}

// merge folds flat rows into one item per canonical name. Rows with the same
// canonical unit and a numeric quantity sum; quantity-less rows and unit
// mismatches stay separate composite parts joined with " + ". optional and
// pantry_item hold only if every contributing row had them set.
func merge(flat []flatRow, canonical []Canonical) []Item {
	var order []string
	byKey := map[string]*mergedItem{}

	for i, row := range flat {
		key := canonical[i].Name
		unit := canonical[i].Unit

		item, ok := byKey[key]
		if !ok {
			item = &mergedItem{key: key, form: row.form, optional: row.optional, pantry: row.pantry}
			byKey[key] = item
			order = append(order, key)
		} else {
			item.optional = item.optional && row.optional
			item.pantry = item.pantry && row.pantry
			if item.form == "" {
				item.form = row.form
			}
		}

		placed := false
		for g := range item.groups {
			grp := &item.groups[g]
			if grp.canonUnit != unit {
				continue
			}
			if row.quantity != nil && grp.quantity != nil {
				sum := *grp.quantity + *row.quantity
				grp.quantity = &sum
				placed = true
			} else if row.quantity == nil && grp.quantity == nil {
				// identical qualitative amounts collapse ("to taste")
				placed = true
			}
			if placed {
				break
			}
		}
		if !placed {
			item.groups = append(item.groups, amountGroup{canonUnit: unit, unit: unit, quantity: row.quantity})
		}
	}

	out := make([]Item, 0, len(order))
	for _, key := range order {
		item := byKey[key]
		parts := make([]string, 0, len(item.groups))
		for _, g := range item.groups {
			parts = append(parts, formatAmount(g.quantity, g.unit))
		}
		out = append(out, Item{
			Name:       displayName(item.key),
			AmountStr:  strings.Join(parts, " + "),
			Form:       item.form,
			Category:   classify(item.key),
			Optional:   item.optional,
			PantryItem: item.pantry,
		})
	}
	return out
}

// formatAmount renders a quantity+unit pair ("3 cups", "2", "to taste").
// Never returns an empty string.
func formatAmount(quantity *float64, unit string) string {
	if quantity == nil {
		if unit == "" {
			return "to taste"
		}
		return unit
	}
	v := math.Round(*quantity*100) / 100
	var num string
	if v == math.Trunc(v) {
		num = strconv.FormatInt(int64(v), 10)
	} else {
		num = strconv.FormatFloat(v, 'f', -1, 64)
	}
	if unit == "" {
		return num
	}
	return num + " " + unit
}
