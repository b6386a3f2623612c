package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"groceryagent/internal/grocery"
	"groceryagent/internal/platform/prompts"
	"groceryagent/internal/recipe"
)

// Client is a client for the Gemini API.
type Client struct {
	model *genai.GenerativeModel
}

// NewClient creates a new Gemini client for the given model name.
func NewClient(ctx context.Context, apiKey, modelName string) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &Client{model: client.GenerativeModel(modelName)}, nil
}

// Generate sends one text prompt and returns the raw response text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}

	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("unexpected response format from Gemini")
	}
	return string(text), nil
}

// ParseRecipe turns raw recipe text into a validated Recipe. Exactly one LLM
// call; a response that fails schema validation is recipe.ErrParse and the
// caller must re-submit.
func (c *Client) ParseRecipe(ctx context.Context, text string) (*recipe.Recipe, error) {
	raw, err := c.Generate(ctx, prompts.Recipe(text))
	if err != nil {
		return nil, fmt.Errorf("gemini recipe generation failed: %w", err)
	}
	return recipe.Decode(raw)
}

// CanonicalIngredients canonicalizes ingredient names and units for the
// grocery-list merge. One call per list.
func (c *Client) CanonicalIngredients(ctx context.Context, lines []grocery.IngredientLine) ([]grocery.Canonical, error) {
	if len(lines) == 0 {
		return nil, nil
	}
	raw, err := c.Generate(ctx, prompts.Normalize(lines))
	if err != nil {
		return nil, fmt.Errorf("gemini normalization failed: %w", err)
	}
	return grocery.DecodeCanonical(raw, len(lines))
}
