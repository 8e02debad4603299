package ai

import (
	"context"
	"fmt"
	"net/url"

	"github.com/ollama/ollama/api"
)

// Inputs longer than this are cut before embedding. Keeps requests well
// inside the embedding model's context window.
const maxEmbedChars = 6000

// OllamaEmbedder produces embeddings through a local ollama server. It
// satisfies the embedding.Embedder interface.
type OllamaEmbedder struct {
	client *api.Client
	model  string
}

// NewOllamaEmbedder creates an embedder bound to one embedding model.
func NewOllamaEmbedder(baseURL, model string) (*OllamaEmbedder, error) {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		parsedURL, parseErr := url.Parse(baseURL)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid base URL: %w", parseErr)
		}
		client = api.NewClient(parsedURL, nil)
	}

	return &OllamaEmbedder{client: client, model: model}, nil
}

// Embed returns one vector per input text, in order.
func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	inputs := make([]string, len(texts))
	for i, t := range texts {
		inputs[i] = truncateText(t, maxEmbedChars)
	}

	resp, err := e.client.Embed(ctx, &api.EmbedRequest{
		Model: e.model,
		Input: inputs,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embed failed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama returned %d embeddings for %d inputs", len(resp.Embeddings), len(texts))
	}

	return resp.Embeddings, nil
}

// Model returns the embedding model name.
func (e *OllamaEmbedder) Model() string {
	return e.model
}
