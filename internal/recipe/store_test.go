package recipe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func ptrF(v float64) *float64 { return &v }
func ptrS(v string) *string   { return &v }

func testRecipe() *Recipe {
	return &Recipe{
		Title:    "Garlic Pasta",
		Servings: 2,
		Ingredients: []Ingredient{
			{Name: "spaghetti", Quantity: ptrF(200), Unit: ptrS("g"), Form: ptrS("dried"), PantryItem: true},
			{Name: "garlic", Quantity: ptrF(3), Form: ptrS("fresh")},
			{Name: "salt", Unit: ptrS("to taste"), PantryItem: true},
		},
		Steps:     []string{"Boil pasta.", "Fry garlic.", "Toss."},
		SourceURL: "https://example.com/garlic-pasta",
	}
}

func TestSQLiteStoreSaveAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Save(ctx, testRecipe())
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Garlic Pasta", got.Title)
	assert.Equal(t, 2, got.Servings)
	assert.Equal(t, "https://example.com/garlic-pasta", got.SourceURL)
	assert.Len(t, got.Steps, 3)

	// Ingredients come back in insertion order with pointers intact.
	require.Len(t, got.Ingredients, 3)
	assert.Equal(t, "spaghetti", got.Ingredients[0].Name)
	assert.Equal(t, 200.0, *got.Ingredients[0].Quantity)
	assert.Equal(t, "g", *got.Ingredients[0].Unit)
	assert.True(t, got.Ingredients[0].PantryItem)
	assert.Equal(t, "garlic", got.Ingredients[1].Name)
	assert.Nil(t, got.Ingredients[1].Unit)
	assert.Equal(t, "salt", got.Ingredients[2].Name)
	assert.Nil(t, got.Ingredients[2].Quantity)
	assert.Equal(t, "to taste", *got.Ingredients[2].Unit)
}

func TestSQLiteStoreGet_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStoreList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Empty store lists empty
	summaries, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, summaries)

	r1 := testRecipe()
	r2 := testRecipe()
	r2.Title = "Avocado Toast"
	_, err = store.Save(ctx, r1)
	require.NoError(t, err)
	_, err = store.Save(ctx, r2)
	require.NoError(t, err)

	summaries, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	// Sorted by title
	assert.Equal(t, "Avocado Toast", summaries[0].Title)
	assert.Equal(t, "Garlic Pasta", summaries[1].Title)
	assert.Equal(t, 2, summaries[0].Servings)
}

func TestSQLiteStoreUpdate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Save(ctx, testRecipe())
	require.NoError(t, err)

	updated := testRecipe()
	updated.ID = id
	updated.Title = "Garlic Pasta (extra garlic)"
	updated.Servings = 4
	updated.Ingredients = updated.Ingredients[:2]
	updated.Ingredients[1].Quantity = ptrF(6)

	require.NoError(t, store.Update(ctx, updated))

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Garlic Pasta (extra garlic)", got.Title)
	assert.Equal(t, 4, got.Servings)
	require.Len(t, got.Ingredients, 2)
	assert.Equal(t, 6.0, *got.Ingredients[1].Quantity)
}

func TestSQLiteStoreUpdate_NotFound(t *testing.T) {
	store := newTestStore(t)

	r := testRecipe()
	r.ID = 99
	assert.ErrorIs(t, store.Update(context.Background(), r), ErrNotFound)
}

func TestSQLiteStoreDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Save(ctx, testRecipe())
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, id))

	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting again reports not found
	assert.ErrorIs(t, store.Delete(ctx, id), ErrNotFound)
}

func TestSQLiteStoreSave_DefaultsServings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	r := testRecipe()
	r.Servings = 0
	id, err := store.Save(ctx, r)
	require.NoError(t, err)

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, DefaultServings, got.Servings)
}
