package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProvider(t *testing.T) {
	// Only Gemini configured
	cfg := Config{GoogleAPIKey: "key"}
	assert.Equal(t, ProviderGemini, cfg.Provider())

	// Only the local endpoint configured
	cfg = Config{LocalLLMURL: "http://localhost:1234/v1/chat/completions"}
	assert.Equal(t, ProviderLocal, cfg.Provider())

	// Both configured: the preference decides
	cfg = Config{GoogleAPIKey: "key", LocalLLMURL: "http://localhost:1234", Preferred: ProviderLocal}
	assert.Equal(t, ProviderLocal, cfg.Provider())
	cfg.Preferred = ProviderGemini
	assert.Equal(t, ProviderGemini, cfg.Provider())

	// Nothing configured
	assert.Equal(t, "", Config{}.Provider())
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("GROCERY_DB_PATH", "")
	t.Setenv("GROCERY_LIST_PATH", "")

	cfg := Load()
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "data/grocery.db", cfg.DBPath)
	assert.Equal(t, "data/grocery_list.json", cfg.ListPath)
	assert.NotEmpty(t, cfg.StoreURL)
}
