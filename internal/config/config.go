// Package config loads the application configuration from the environment,
// reading a .env file first when present.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Provider names for LLM selection.
const (
	ProviderGemini = "gemini"
	ProviderLocal  = "local"
)

// Config holds everything the binaries need from the environment.
type Config struct {
	HTTPAddr string

	// LLM: presence of GoogleAPIKey enables Gemini, presence of LocalLLMURL
	// enables the local OpenAI-compatible endpoint. When both are set the
	// Preferred field decides (a product convention, kept configurable).
	GoogleAPIKey  string
	GeminiModel   string
	LocalLLMURL   string
	LocalLLMModel string
	Preferred     string

	// Target grocery site and login for the cart agent.
	StoreURL      string
	StoreEmail    string
	StorePassword string
	BrowserPath   string
	Headless      bool

	DBPath   string
	ListPath string
}

// Load reads .env (if any) and the process environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		GoogleAPIKey:  os.Getenv("GOOGLE_API_KEY"),
		GeminiModel:   getenv("GEMINI_MODEL", "gemini-1.5-flash"),
		LocalLLMURL:   os.Getenv("LOCAL_LLM_URL"),
		LocalLLMModel: getenv("LOCAL_LLM_MODEL", "gemma-3-12b-it"),
		Preferred:     getenv("LLM_PROVIDER", ProviderGemini),
		StoreURL:      getenv("STORE_URL", "https://www.jumbo.cl"),
		StoreEmail:    os.Getenv("STORE_EMAIL"),
		StorePassword: os.Getenv("STORE_PASSWORD"),
		BrowserPath:   os.Getenv("BROWSER_EXECUTABLE_PATH"),
		Headless:      getenv("CART_HEADLESS", "false") == "true",
		DBPath:        getenv("GROCERY_DB_PATH", "data/grocery.db"),
		ListPath:      getenv("GROCERY_LIST_PATH", "data/grocery_list.json"),
	}
}

// Provider resolves which LLM provider to use. With both credentials present
// the Preferred setting wins; with one, that one; with none, "".
func (c Config) Provider() string {
	hasGemini := c.GoogleAPIKey != ""
	hasLocal := c.LocalLLMURL != ""

	switch {
	case hasGemini && hasLocal:
		if c.Preferred == ProviderLocal {
			return ProviderLocal
		}
		return ProviderGemini
	case hasGemini:
		return ProviderGemini
	case hasLocal:
		return ProviderLocal
	default:
		return ""
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
