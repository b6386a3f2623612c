package localllm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"groceryagent/internal/grocery"
	"groceryagent/internal/platform/prompts"
	"groceryagent/internal/recipe"
)

// Client talks to a local OpenAI-compatible chat completions endpoint
// (LM Studio, llama.cpp server, Ollama with the compatibility layer).
type Client struct {
	httpClient *http.Client
	apiURL     string
	model      string
}

// NewClient creates a client for the local LLM at apiURL.
func NewClient(apiURL, model string) *Client {
	return &Client{
		httpClient: &http.Client{},
		apiURL:     apiURL,
		model:      model,
	}
}

// Request represents the request body for the local LLM.
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

// Message represents a message in the request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Response represents the response from the local LLM.
type Response struct {
	Choices []Choice `json:"choices"`
}

// Choice represents a choice in the response.
type Choice struct {
	Message Message `json:"message"`
}

// Generate sends one text prompt and returns the raw response text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := Request{
		Model: c.model,
		Messages: []Message{
			{Role: "user", Content: prompt},
		},
		Temperature: 0.2,
		MaxTokens:   4096,
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(reqBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("received non-OK status code: %d", resp.StatusCode)
	}

	var llmResp Response
	if err := json.NewDecoder(resp.Body).Decode(&llmResp); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}

	if len(llmResp.Choices) == 0 {
		return "", fmt.Errorf("no content found in response")
	}
	return llmResp.Choices[0].Message.Content, nil
}

// ParseRecipe turns raw recipe text into a validated Recipe via one LLM call.
func (c *Client) ParseRecipe(ctx context.Context, text string) (*recipe.Recipe, error) {
	raw, err := c.Generate(ctx, prompts.Recipe(text))
	if err != nil {
		return nil, fmt.Errorf("local llm recipe generation failed: %w", err)
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
		return nil, fmt.Errorf("local llm normalization failed: %w", err)
	}
	return grocery.DecodeCanonical(raw, len(lines))
}
