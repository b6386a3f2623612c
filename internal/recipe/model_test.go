package recipe

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIngredientUnmarshalJSON(t *testing.T) {
	// Quantity as a JSON number
	var ing Ingredient
	err := json.Unmarshal([]byte(`{"name":"flour","quantity":2,"unit":"cups"}`), &ing)
	assert.NoError(t, err)
	assert.Equal(t, "flour", ing.Name)
	assert.Equal(t, 2.0, *ing.Quantity)
	assert.Equal(t, "cups", *ing.Unit)

	// Quantity as a fraction string
	err = json.Unmarshal([]byte(`{"name":"butter","quantity":"1/2","unit":"cup"}`), &ing)
	assert.NoError(t, err)
	assert.Equal(t, 0.5, *ing.Quantity)

	// Quantity as a mixed number string
	err = json.Unmarshal([]byte(`{"name":"milk","quantity":"1 1/2","unit":"cups"}`), &ing)
	assert.NoError(t, err)
	assert.Equal(t, 1.5, *ing.Quantity)

	// Null quantity stays nil
	err = json.Unmarshal([]byte(`{"name":"salt","quantity":null,"unit":"to taste"}`), &ing)
	assert.NoError(t, err)
	assert.Nil(t, ing.Quantity)
	assert.Equal(t, "to taste", *ing.Unit)
}

func TestIngredientUnmarshalJSON_QualitativeQuantity(t *testing.T) {
	// A qualitative quantity with no unit moves into the unit slot.
	var ing Ingredient
	err := json.Unmarshal([]byte(`{"name":"salt","quantity":"to taste"}`), &ing)
	assert.NoError(t, err)
	assert.Nil(t, ing.Quantity)
	assert.Equal(t, "to taste", *ing.Unit)

	// An existing unit is kept.
	err = json.Unmarshal([]byte(`{"name":"nutmeg","quantity":"a little","unit":"pinch"}`), &ing)
	assert.NoError(t, err)
	assert.Nil(t, ing.Quantity)
	assert.Equal(t, "pinch", *ing.Unit)
}

func TestIngredientUnmarshalJSON_NormalizesCase(t *testing.T) {
	var ing Ingredient
	err := json.Unmarshal([]byte(`{"name":"peas","quantity":1,"unit":"  Cup ","form":"Frozen"}`), &ing)
	assert.NoError(t, err)
	assert.Equal(t, "cup", *ing.Unit)
	assert.Equal(t, "frozen", *ing.Form)

	// Blank unit collapses to nil
	err = json.Unmarshal([]byte(`{"name":"eggs","quantity":2,"unit":"  "}`), &ing)
	assert.NoError(t, err)
	assert.Nil(t, ing.Unit)
}

func TestRecipeUnmarshalJSON_Servings(t *testing.T) {
	// Servings as a string
	var r Recipe
	err := json.Unmarshal([]byte(`{"title":"Soup","servings":"6 servings","ingredients":[{"name":"water","quantity":1,"unit":"l"}]}`), &r)
	assert.NoError(t, err)
	assert.Equal(t, 6, r.Servings)

	// Missing servings defaults
	err = json.Unmarshal([]byte(`{"title":"Toast","ingredients":[{"name":"bread","quantity":2}]}`), &r)
	assert.NoError(t, err)
	assert.Equal(t, DefaultServings, r.Servings)

	// Zero servings defaults too
	err = json.Unmarshal([]byte(`{"title":"Toast","servings":0,"ingredients":[{"name":"bread","quantity":2}]}`), &r)
	assert.NoError(t, err)
	assert.Equal(t, DefaultServings, r.Servings)
}

func TestDecode(t *testing.T) {
	// Markdown-fenced response
	raw := "```json\n{\"title\":\"Pasta\",\"servings\":2,\"ingredients\":[{\"name\":\"spaghetti\",\"quantity\":200,\"unit\":\"g\"}],\"steps\":[\"Boil.\"]}\n```"
	r, err := Decode(raw)
	assert.NoError(t, err)
	assert.Equal(t, "Pasta", r.Title)
	assert.Equal(t, 2, r.Servings)
	assert.Len(t, r.Ingredients, 1)
}

func TestDecode_Invalid(t *testing.T) {
	// No JSON at all
	_, err := Decode("sorry, I cannot help with that")
	assert.ErrorIs(t, err, ErrParse)

	// Missing title fails validation
	_, err = Decode(`{"servings":2,"ingredients":[{"name":"x","quantity":1}]}`)
	assert.ErrorIs(t, err, ErrParse)

	// Empty ingredient list fails validation
	_, err = Decode(`{"title":"Nothing","servings":2,"ingredients":[]}`)
	assert.ErrorIs(t, err, ErrParse)
}
