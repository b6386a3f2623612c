package recipe

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrNotFound is returned when a recipe id does not exist in the store.
var ErrNotFound = errors.New("recipe not found")

// ErrParse is returned when LLM output cannot be validated against the recipe schema.
var ErrParse = errors.New("recipe does not match schema")

// DefaultServings is used when a recipe does not state how many portions it makes.
const DefaultServings = 4

var validate = validator.New()

// Ingredient is a single ingredient line of a recipe. Quantity is nil for
// qualitative amounts ("to taste", "a pinch"), in which case Unit carries the
// qualitative text.
type Ingredient struct {
	Name       string   `json:"name" db:"name" validate:"required"`
	Quantity   *float64 `json:"quantity" db:"quantity"`
	Unit       *string  `json:"unit" db:"unit"`
	Form       *string  `json:"form" db:"form"`
	Optional   bool     `json:"optional" db:"optional"`
	PantryItem bool     `json:"pantry_item" db:"pantry_item"`
}

// UnmarshalJSON accepts the looser shapes LLMs produce: quantity may be a JSON
// number, a numeric string, a fraction ("1/2", "1 1/2") or a qualitative phrase.
// Qualitative quantities become a nil Quantity with the phrase moved into Unit.
func (i *Ingredient) UnmarshalJSON(data []byte) error {
	type Alias Ingredient // avoid infinite recursion
	aux := &struct {
		Quantity json.RawMessage `json:"quantity"`
		Unit     *string         `json:"unit"`
		Form     *string         `json:"form"`
		*Alias
	}{
		Alias: (*Alias)(i),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	i.Quantity = nil
	if len(aux.Quantity) > 0 && string(aux.Quantity) != "null" {
		var num float64
		if err := json.Unmarshal(aux.Quantity, &num); err == nil {
			i.Quantity = &num
		} else {
			var s string
			if err := json.Unmarshal(aux.Quantity, &s); err != nil {
				return fmt.Errorf("ingredient quantity is neither number nor string: %s", aux.Quantity)
			}
			if q := ParseQuantity(s); q != nil {
				i.Quantity = q
			} else if aux.Unit == nil || strings.TrimSpace(*aux.Unit) == "" {
				// "to taste" etc. ends up in the unit slot
				phrase := strings.ToLower(strings.TrimSpace(s))
				if phrase != "" {
					aux.Unit = &phrase
				}
			}
		}
	}

	if aux.Unit != nil {
		u := strings.ToLower(strings.TrimSpace(*aux.Unit))
		if u == "" {
			aux.Unit = nil
		} else {
			aux.Unit = &u
		}
	}
	i.Unit = aux.Unit

	if aux.Form != nil {
		f := strings.ToLower(strings.TrimSpace(*aux.Form))
		if f == "" {
			aux.Form = nil
		} else {
			aux.Form = &f
		}
	}
	i.Form = aux.Form

	return nil
}

// Recipe is a structured recipe as parsed from free text.
type Recipe struct {
	ID          int64        `json:"id" db:"id"`
	Title       string       `json:"title" db:"title" validate:"required"`
	Servings    int          `json:"servings" db:"servings" validate:"gt=0"`
	Ingredients []Ingredient `json:"ingredients" validate:"min=1,dive"`
	Steps       []string     `json:"steps"`
	SourceURL   string       `json:"source_url,omitempty" db:"source_url"`
	ImageURL    string       `json:"image_url,omitempty" db:"image_url"`
	CreatedAt   time.Time    `json:"created_at,omitempty" db:"created_at"`
}

// UnmarshalJSON tolerates servings given as a string ("4 servings") and fills
// in DefaultServings when the value is missing or unusable.
func (r *Recipe) UnmarshalJSON(data []byte) error {
	type Alias Recipe
	aux := &struct {
		Servings json.RawMessage `json:"servings"`
		*Alias
	}{
		Alias: (*Alias)(r),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	r.Servings = DefaultServings
	if len(aux.Servings) > 0 && string(aux.Servings) != "null" {
		var num float64
		if err := json.Unmarshal(aux.Servings, &num); err == nil {
			if num > 0 {
				r.Servings = int(num)
			}
		} else {
			var s string
			if err := json.Unmarshal(aux.Servings, &s); err == nil {
				if q := ParseQuantity(s); q != nil && *q > 0 {
					r.Servings = int(*q)
				}
			}
		}
	}

	return nil
}

// Summary is the listing shape: enough to pick recipes for a grocery list.
type Summary struct {
	ID       int64  `json:"id" db:"id"`
	Title    string `json:"title" db:"title"`
	Servings int    `json:"servings" db:"servings"`
	ImageURL string `json:"image_url,omitempty" db:"image_url"`
}

// Validate checks a parsed recipe against the schema. A failure means the LLM
// output is unusable and the caller must re-submit.
func Validate(r *Recipe) error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrParse, err)
	}
	return nil
}

// Decode turns a raw LLM response into a validated Recipe. The response may be
// wrapped in markdown fences or prose; only the outermost JSON object is used.
func Decode(raw string) (*Recipe, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || start > end {
		return nil, fmt.Errorf("%w: no JSON object in response", ErrParse)
	}

	var r Recipe
	if err := json.Unmarshal([]byte(raw[start:end+1]), &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if err := Validate(&r); err != nil {
		return nil, err
	}
	return &r, nil
}
