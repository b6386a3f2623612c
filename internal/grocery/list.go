package grocery

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultListPath is where the confirmed grocery list is written for the cart
// agent to read. Overwritten on every confirmation.
const DefaultListPath = "data/grocery_list.json"

type listFile struct {
	Items []Item `json:"items"`
}

// WriteListFile serializes the grocery list to path, replacing prior content.
// This file is the sole handoff artifact to the cart automation bridge.
func WriteListFile(path string, items []Item) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create list directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(listFile{Items: items}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal grocery list: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write grocery list: %w", err)
	}
	return nil
}

// LoadListFile reads a previously written grocery list. A missing or corrupt
// file yields (nil, nil): the cart agent then falls back to its default task.
func LoadListFile(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read grocery list: %w", err)
	}
	var f listFile
	if err := json.Unmarshal(data, &f); err == nil {
		return f.Items, nil
	}
	// Tolerate a hand-written bare array of items.
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, nil
	}
	return items, nil
}

// DecodeCanonical parses an LLM normalization response into Canonical pairs.
// The response must contain a JSON array (optionally wrapped in an object
// under "ingredients") of exactly want entries.
func DecodeCanonical(raw string, want int) ([]Canonical, error) {
	var list []Canonical

	// Either a bare array or {"ingredients": [...]}
	if start, end := strings.Index(raw, "["), strings.LastIndex(raw, "]"); start != -1 && end > start {
		if err := json.Unmarshal([]byte(raw[start:end+1]), &list); err != nil {
			return nil, fmt.Errorf("failed to decode canonical ingredients: %w", err)
		}
	} else {
		return nil, fmt.Errorf("no JSON array in normalization response")
	}

	if len(list) != want {
		return nil, fmt.Errorf("normalization returned %d entries, want %d", len(list), want)
	}
	for i := range list {
		list[i].Name = strings.ToLower(strings.TrimSpace(list[i].Name))
		list[i].Unit = strings.ToLower(strings.TrimSpace(list[i].Unit))
	}
	return list, nil
}
