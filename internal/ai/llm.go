package ai

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/ollama/ollama/api"
)

// LLM is the single-shot completion surface shared by the analyzer and
// the keyword recommender.
type LLM interface {
	CompleteJSON(ctx context.Context, system, prompt string) (string, error)
}

// Client runs prompts against a local ollama server.
type Client struct {
	client      *api.Client
	model       string
	temperature float64
}

// NewClient creates an ollama-backed client for one model.
func NewClient(baseURL, model string, temperature float64) (*Client, error) {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		// If env-based client fails, create one with the base URL
		parsedURL, parseErr := url.Parse(baseURL)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid base URL: %w", parseErr)
		}
		client = api.NewClient(parsedURL, nil)
	}

	return &Client{client: client, model: model, temperature: temperature}, nil
}

// CompleteJSON sends one prompt and returns the JSON object embedded in
// the model's reply. Callers decode and validate the result themselves.
func (c *Client) CompleteJSON(ctx context.Context, system, prompt string) (string, error) {
	req := &api.GenerateRequest{
		Model:  c.model,
		System: system,
		Prompt: prompt,
		Stream: new(bool), // false
		Options: map[string]interface{}{
			"temperature": c.temperature,
		},
	}

	var fullResponse strings.Builder
	err := c.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		fullResponse.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate failed: %w", err)
	}

	return extractJSON(fullResponse.String()), nil
}

// truncateText truncates text to at most maxLen bytes without cutting
// a rune in half.
func truncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}

// extractJSON attempts to extract JSON from a text response that might contain extra text
func extractJSON(text string) string {
	// Find first { and last }
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}
