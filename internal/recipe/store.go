package recipe

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists recipes in a single local SQLite file. Consumers
// declare their own interfaces over it (api.RecipeStore, grocery.RecipeSource).
// Ids are AUTOINCREMENT so they are monotonic and never reused.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (creating if needed) the SQLite database at path and
// ensures the schema exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS recipes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		servings INTEGER NOT NULL DEFAULT 4,
		steps TEXT NOT NULL DEFAULT '[]',
		source_url TEXT,
		image_url TEXT,
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	);
	`
	if _, err = db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create recipes table: %w", err)
	}

	schema = `
	CREATE TABLE IF NOT EXISTS recipe_ingredients (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		recipe_id INTEGER NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		quantity REAL,
		unit TEXT,
		form TEXT,
		optional INTEGER NOT NULL DEFAULT 0,
		pantry_item INTEGER NOT NULL DEFAULT 0
	);
	`
	if _, err = db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create recipe_ingredients table: %w", err)
	}

	if _, err = db.Exec("CREATE INDEX IF NOT EXISTS idx_recipe_ingredients_recipe_id ON recipe_ingredients(recipe_id)"); err != nil {
		return nil, fmt.Errorf("failed to create ingredient index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save inserts a recipe with its ingredients and returns the assigned id.
func (s *SQLiteStore) Save(ctx context.Context, r *Recipe) (int64, error) {
	stepsJSON, err := json.Marshal(r.Steps)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal steps: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	servings := r.Servings
	if servings <= 0 {
		servings = DefaultServings
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO recipes (title, servings, steps, source_url, image_url) VALUES (?, ?, ?, ?, ?)",
		r.Title, servings, string(stepsJSON), nullable(r.SourceURL), nullable(r.ImageURL),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert recipe: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read recipe id: %w", err)
	}

	if err := insertIngredients(ctx, tx, id, r.Ingredients); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit recipe: %w", err)
	}
	r.ID = id
	return id, nil
}

// Get loads a recipe with its ingredients in stored order.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (*Recipe, error) {
	var row struct {
		ID        int64          `db:"id"`
		Title     string         `db:"title"`
		Servings  int            `db:"servings"`
		Steps     string         `db:"steps"`
		SourceURL sql.NullString `db:"source_url"`
		ImageURL  sql.NullString `db:"image_url"`
		CreatedAt string         `db:"created_at"`
	}
	err := s.db.GetContext(ctx, &row,
		"SELECT id, title, servings, steps, source_url, image_url, created_at FROM recipes WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}

	r := &Recipe{
		ID:        row.ID,
		Title:     row.Title,
		Servings:  row.Servings,
		SourceURL: row.SourceURL.String,
		ImageURL:  row.ImageURL.String,
	}
	if err := json.Unmarshal([]byte(row.Steps), &r.Steps); err != nil {
		return nil, fmt.Errorf("failed to unmarshal steps: %w", err)
	}

	var ings []struct {
		Name       string          `db:"name"`
		Quantity   sql.NullFloat64 `db:"quantity"`
		Unit       sql.NullString  `db:"unit"`
		Form       sql.NullString  `db:"form"`
		Optional   bool            `db:"optional"`
		PantryItem bool            `db:"pantry_item"`
	}
	err = s.db.SelectContext(ctx, &ings,
		"SELECT name, quantity, unit, form, optional, pantry_item FROM recipe_ingredients WHERE recipe_id = ? ORDER BY position", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe ingredients: %w", err)
	}

	for _, row := range ings {
		ing := Ingredient{
			Name:       row.Name,
			Optional:   row.Optional,
			PantryItem: row.PantryItem,
		}
		if row.Quantity.Valid {
			q := row.Quantity.Float64
			ing.Quantity = &q
		}
		if row.Unit.Valid && row.Unit.String != "" {
			u := row.Unit.String
			ing.Unit = &u
		}
		if row.Form.Valid && row.Form.String != "" {
			f := row.Form.String
			ing.Form = &f
		}
		r.Ingredients = append(r.Ingredients, ing)
	}

	return r, nil
}

// List returns all saved recipes as summaries for the grocery-list picker.
func (s *SQLiteStore) List(ctx context.Context) ([]Summary, error) {
	var out []struct {
		ID       int64          `db:"id"`
		Title    string         `db:"title"`
		Servings int            `db:"servings"`
		ImageURL sql.NullString `db:"image_url"`
	}
	err := s.db.SelectContext(ctx, &out, "SELECT id, title, servings, image_url FROM recipes ORDER BY title")
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}

	summaries := make([]Summary, 0, len(out))
	for _, row := range out {
		summaries = append(summaries, Summary{
			ID:       row.ID,
			Title:    row.Title,
			Servings: row.Servings,
			ImageURL: row.ImageURL.String,
		})
	}
	return summaries, nil
}

// Update replaces a stored recipe and all its ingredient rows (re-ingest).
func (s *SQLiteStore) Update(ctx context.Context, r *Recipe) error {
	stepsJSON, err := json.Marshal(r.Steps)
	if err != nil {
		return fmt.Errorf("failed to marshal steps: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE recipes SET title = ?, servings = ?, steps = ?, source_url = ?, image_url = ? WHERE id = ?",
		r.Title, r.Servings, string(stepsJSON), nullable(r.SourceURL), nullable(r.ImageURL), r.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update recipe: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM recipe_ingredients WHERE recipe_id = ?", r.ID); err != nil {
		return fmt.Errorf("failed to clear recipe ingredients: %w", err)
	}
	if err := insertIngredients(ctx, tx, r.ID, r.Ingredients); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recipe update: %w", err)
	}
	return nil
}

// Delete removes a recipe and its ingredients.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM recipe_ingredients WHERE recipe_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete recipe ingredients: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM recipes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recipe delete: %w", err)
	}
	return nil
}

func insertIngredients(ctx context.Context, tx *sqlx.Tx, recipeID int64, ings []Ingredient) error {
	for pos, ing := range ings {
		var unit, form interface{}
		if ing.Unit != nil {
			unit = *ing.Unit
		}
		if ing.Form != nil {
			form = *ing.Form
		}
		var qty interface{}
		if ing.Quantity != nil {
			qty = *ing.Quantity
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO recipe_ingredients (recipe_id, position, name, quantity, unit, form, optional, pantry_item) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			recipeID, pos, ing.Name, qty, unit, form, ing.Optional, ing.PantryItem,
		)
		if err != nil {
			return fmt.Errorf("failed to insert ingredient %q: %w", ing.Name, err)
		}
	}
	return nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
