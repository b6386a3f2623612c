package grocery

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groceryagent/internal/recipe"
)

func ptrF(v float64) *float64 { return &v }
func ptrS(v string) *string   { return &v }

// mockSource is an in-memory RecipeSource.
type mockSource struct {
	recipes map[int64]*recipe.Recipe
}

func (m *mockSource) Get(ctx context.Context, id int64) (*recipe.Recipe, error) {
	r, ok := m.recipes[id]
	if !ok {
		return nil, recipe.ErrNotFound
	}
	return r, nil
}

// mockNormalizer returns canned canonical pairs or an error.
type mockNormalizer struct {
	result []Canonical
	err    error
	calls  int
}

func (m *mockNormalizer) CanonicalIngredients(ctx context.Context, lines []IngredientLine) ([]Canonical, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func newTestSource() *mockSource {
	return &mockSource{recipes: map[int64]*recipe.Recipe{
		1: {
			ID: 1, Title: "Mashed Potatoes", Servings: 4,
			Ingredients: []recipe.Ingredient{
				{Name: "potatoes", Quantity: ptrF(4)},
				{Name: "butter", Quantity: ptrF(2), Unit: ptrS("tbsp")},
				{Name: "salt", Unit: ptrS("to taste"), PantryItem: true},
			},
		},
		2: {
			ID: 2, Title: "Potato Salad", Servings: 4,
			Ingredients: []recipe.Ingredient{
				{Name: "potato", Quantity: ptrF(2), Unit: ptrS("lb")},
				{Name: "parsley", Quantity: ptrF(1), Unit: ptrS("cup"), Optional: true},
				{Name: "salt", Unit: ptrS("to taste"), PantryItem: true},
			},
		},
	}}
}

func TestBuild_MergesSameUnit(t *testing.T) {
	source := &mockSource{recipes: map[int64]*recipe.Recipe{
		1: {ID: 1, Servings: 2, Ingredients: []recipe.Ingredient{
			{Name: "garlic cloves", Quantity: ptrF(3)},
		}},
		2: {ID: 2, Servings: 2, Ingredients: []recipe.Ingredient{
			{Name: "garlic", Quantity: ptrF(2)},
		}},
	}}
	builder := NewBuilder(source, nil, nil)

	items, err := builder.Build(context.Background(), Request{RecipeIDs: []int64{1, 2}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Garlic", items[0].Name)
	assert.Equal(t, "5", items[0].AmountStr)
	assert.Equal(t, CategoryProduce, items[0].Category)
}

func TestBuild_MergeSameUnitWord(t *testing.T) {
	// "2 medium potato" in each of two recipes adds up to "4 medium".
	source := &mockSource{recipes: map[int64]*recipe.Recipe{
		1: {ID: 1, Servings: 4, Ingredients: []recipe.Ingredient{
			{Name: "potato", Quantity: ptrF(2), Unit: ptrS("medium")},
		}},
		2: {ID: 2, Servings: 4, Ingredients: []recipe.Ingredient{
			{Name: "potato", Quantity: ptrF(2), Unit: ptrS("medium")},
		}},
	}}
	builder := NewBuilder(source, nil, nil)

	items, err := builder.Build(context.Background(), Request{RecipeIDs: []int64{1, 2}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Potato", items[0].Name)
	assert.Equal(t, "4 medium", items[0].AmountStr)
}

func TestBuild_MergeDifferentUnits(t *testing.T) {
	// Count-style and weight-style amounts cannot sum and join with " + ".
	source := &mockSource{recipes: map[int64]*recipe.Recipe{
		1: {ID: 1, Servings: 4, Ingredients: []recipe.Ingredient{
			{Name: "potato", Quantity: ptrF(3), Unit: ptrS("medium")},
		}},
		2: {ID: 2, Servings: 4, Ingredients: []recipe.Ingredient{
			{Name: "potato", Quantity: ptrF(2), Unit: ptrS("lb")},
		}},
	}}
	builder := NewBuilder(source, nil, nil)

	items, err := builder.Build(context.Background(), Request{RecipeIDs: []int64{1, 2}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "3 medium + 2 lb", items[0].AmountStr)
}

func TestBuild_UnitMismatchConcatenates(t *testing.T) {
	builder := NewBuilder(newTestSource(), nil, nil)

	items, err := builder.Build(context.Background(), Request{RecipeIDs: []int64{1, 2}})
	require.NoError(t, err)

	byName := map[string]Item{}
	for _, item := range items {
		byName[item.Name] = item
	}

	// Count-based and weight-based amounts stay separate composite parts.
	assert.Equal(t, "4 + 2 lb", byName["Potato"].AmountStr)

	// Identical qualitative amounts collapse instead of repeating.
	assert.Equal(t, "to taste", byName["Salt"].AmountStr)
}

func TestBuild_Properties(t *testing.T) {
	builder := NewBuilder(newTestSource(), nil, nil)
	req := Request{RecipeIDs: []int64{1, 2}}

	items, err := builder.Build(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, items)

	// Every item has a non-empty amount and a unique name.
	seen := map[string]bool{}
	for _, item := range items {
		assert.NotEmpty(t, item.AmountStr, "item %q has empty amount", item.Name)
		assert.NotEmpty(t, item.Name)
		assert.False(t, seen[item.Name], "duplicate item %q", item.Name)
		seen[item.Name] = true
	}

	// Same request builds the same list.
	again, err := builder.Build(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, items, again)
}

func TestBuild_PortionScaling(t *testing.T) {
	builder := NewBuilder(newTestSource(), nil, nil)

	// Recipe 1 is written for 4 servings; ask for 8.
	items, err := builder.Build(context.Background(), Request{
		RecipeIDs: []int64{1},
		Portions:  map[int64]int{1: 8},
	})
	require.NoError(t, err)

	byName := map[string]Item{}
	for _, item := range items {
		byName[item.Name] = item
	}
	assert.Equal(t, "8", byName["Potato"].AmountStr)
	assert.Equal(t, "4 tbsp", byName["Butter"].AmountStr)
	// Qualitative amounts never scale.
	assert.Equal(t, "to taste", byName["Salt"].AmountStr)
}

func TestBuild_SelectedFiltersFlattenedOrder(t *testing.T) {
	builder := NewBuilder(newTestSource(), nil, nil)

	// Positions 0..2 are recipe 1, positions 3..5 are recipe 2.
	items, err := builder.Build(context.Background(), Request{
		RecipeIDs: []int64{1, 2},
		Selected:  []int{0, 3},
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Potato", items[0].Name)
	assert.Equal(t, "4 + 2 lb", items[0].AmountStr)
}

func TestBuild_OptionalAndPantryReduce(t *testing.T) {
	source := &mockSource{recipes: map[int64]*recipe.Recipe{
		1: {ID: 1, Servings: 2, Ingredients: []recipe.Ingredient{
			{Name: "parsley", Quantity: ptrF(1), Unit: ptrS("cup"), Optional: true},
			{Name: "rice", Quantity: ptrF(1), Unit: ptrS("cup"), PantryItem: true},
		}},
		2: {ID: 2, Servings: 2, Ingredients: []recipe.Ingredient{
			{Name: "parsley", Quantity: ptrF(1), Unit: ptrS("cup")},
			{Name: "rice", Quantity: ptrF(2), Unit: ptrS("cups"), PantryItem: true},
		}},
	}}
	builder := NewBuilder(source, nil, nil)

	items, err := builder.Build(context.Background(), Request{RecipeIDs: []int64{1, 2}})
	require.NoError(t, err)

	byName := map[string]Item{}
	for _, item := range items {
		byName[item.Name] = item
	}

	// Optional only survives when every occurrence was optional.
	assert.False(t, byName["Parsley"].Optional)
	// Pantry flag survives because both occurrences had it.
	assert.True(t, byName["Rice"].PantryItem)
	assert.Equal(t, "3 cup", byName["Rice"].AmountStr)
}

func TestBuild_InvalidRequests(t *testing.T) {
	builder := NewBuilder(newTestSource(), nil, nil)
	ctx := context.Background()

	_, err := builder.Build(ctx, Request{})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = builder.Build(ctx, Request{RecipeIDs: []int64{1}, Portions: map[int64]int{1: 0}})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = builder.Build(ctx, Request{RecipeIDs: []int64{1}, Selected: []int{-1}})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestBuild_DuplicateIDsCountOnce(t *testing.T) {
	builder := NewBuilder(newTestSource(), nil, nil)
	ctx := context.Background()

	once, err := builder.Build(ctx, Request{RecipeIDs: []int64{1}})
	require.NoError(t, err)

	// A repeated id does not double the quantities.
	repeated, err := builder.Build(ctx, Request{RecipeIDs: []int64{1, 1}})
	require.NoError(t, err)
	assert.Equal(t, once, repeated)

	// Selection positions are unaffected by the duplicate: recipe 2 still
	// starts at position 3.
	items, err := builder.Build(ctx, Request{RecipeIDs: []int64{1, 1, 2}, Selected: []int{3}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Potato", items[0].Name)
	assert.Equal(t, "2 lb", items[0].AmountStr)
}

func TestBuild_MissingRecipe(t *testing.T) {
	builder := NewBuilder(newTestSource(), nil, nil)

	// One missing id fails the whole build, no partial list.
	_, err := builder.Build(context.Background(), Request{RecipeIDs: []int64{1, 99}})
	assert.ErrorIs(t, err, recipe.ErrNotFound)
}

func TestBuild_LLMNormalization(t *testing.T) {
	source := &mockSource{recipes: map[int64]*recipe.Recipe{
		1: {ID: 1, Servings: 2, Ingredients: []recipe.Ingredient{
			{Name: "ajo", Quantity: ptrF(2)},
			{Name: "garlic", Quantity: ptrF(3)},
		}},
	}}
	normalizer := &mockNormalizer{result: []Canonical{
		{Name: "garlic", Unit: ""},
		{Name: "garlic", Unit: ""},
	}}
	builder := NewBuilder(source, normalizer, nil)

	items, err := builder.Build(context.Background(), Request{RecipeIDs: []int64{1}})
	require.NoError(t, err)
	assert.Equal(t, 1, normalizer.calls)
	require.Len(t, items, 1)
	assert.Equal(t, "Garlic", items[0].Name)
	assert.Equal(t, "5", items[0].AmountStr)
}

func TestBuild_LLMFailureFallsBack(t *testing.T) {
	source := newTestSource()
	ctx := context.Background()

	// Error from the normalizer
	failing := &mockNormalizer{err: errors.New("model overloaded")}
	builder := NewBuilder(source, failing, nil)
	items, err := builder.Build(ctx, Request{RecipeIDs: []int64{1}})
	require.NoError(t, err)
	assert.NotEmpty(t, items)

	// Wrong number of entries from the normalizer
	short := &mockNormalizer{result: []Canonical{{Name: "potato"}}}
	builder = NewBuilder(source, short, nil)
	fromShort, err := builder.Build(ctx, Request{RecipeIDs: []int64{1}})
	require.NoError(t, err)
	assert.Equal(t, items, fromShort)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "3 cup", formatAmount(ptrF(3), "cup"))
	assert.Equal(t, "2", formatAmount(ptrF(2), ""))
	assert.Equal(t, "1.5 tbsp", formatAmount(ptrF(1.5), "tbsp"))
	assert.Equal(t, "to taste", formatAmount(nil, "to taste"))
	assert.Equal(t, "to taste", formatAmount(nil, ""))
	// Rounded to two decimals
	assert.Equal(t, "0.67 cup", formatAmount(ptrF(2.0/3), "cup"))
}

func TestDecodeCanonical(t *testing.T) {
	raw := "```json\n[{\"name\":\"Garlic\",\"unit\":\"\"},{\"name\":\"salt\",\"unit\":\"To Taste\"}]\n```"
	list, err := DecodeCanonical(raw, 2)
	require.NoError(t, err)
	assert.Equal(t, []Canonical{{Name: "garlic", Unit: ""}, {Name: "salt", Unit: "to taste"}}, list)

	// Wrong length is an error so the caller falls back
	_, err = DecodeCanonical(raw, 3)
	assert.Error(t, err)

	// No array at all
	_, err = DecodeCanonical("cannot comply", 1)
	assert.Error(t, err)
}

func ExampleBuilder_Build() {
	source := &mockSource{recipes: map[int64]*recipe.Recipe{
		1: {ID: 1, Servings: 2, Ingredients: []recipe.Ingredient{
			{Name: "eggs", Quantity: ptrF(2)},
			{Name: "large eggs", Quantity: ptrF(2)},
		}},
	}}
	builder := NewBuilder(source, nil, nil)
	items, _ := builder.Build(context.Background(), Request{RecipeIDs: []int64{1}})
	fmt.Println(items[0].Name, items[0].AmountStr)
	// Output: Egg 4
}
