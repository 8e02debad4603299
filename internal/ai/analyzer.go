package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Analysis is the structured result the model produces for one article.
type Analysis struct {
	Summary  string   `json:"summary"`
	Insight  string   `json:"insight"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// Analyzer turns raw article text into a structured analysis.
type Analyzer struct {
	llm LLM
}

// NewAnalyzer wires an analyzer to a completion client.
func NewAnalyzer(llm LLM) *Analyzer {
	return &Analyzer{llm: llm}
}

const analysisSystem = `You are an analyst for a corporate AI news desk covering telecom and AI platform topics. Respond ONLY with valid JSON.`

// Analyze summarizes, categorizes and tags one article. A malformed
// model response is an error; callers skip the article rather than
// store a guessed analysis.
func (a *Analyzer) Analyze(ctx context.Context, title, content string) (*Analysis, error) {
	prompt := fmt.Sprintf(`Analyze the following news article.

Title: %s

Content: %s

Respond ONLY with valid JSON in this exact format:
{
  "summary": "<two or three sentence summary>",
  "insight": "<what this means for a telecom and AI platform business>",
  "category": "<one of: Telco, LLM, INFRA, AI Ecosystem>",
  "tags": ["<up to five short topical tags>"]
}`, title, truncateText(content, 4000))

	raw, err := a.llm.CompleteJSON(ctx, analysisSystem, prompt)
	if err != nil {
		return nil, err
	}

	return parseAnalysis(raw)
}

// parseAnalysis decodes the model reply, rejecting unknown fields and
// responses without a summary.
func parseAnalysis(raw string) (*Analysis, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()

	var result Analysis
	if err := dec.Decode(&result); err != nil {
		return nil, fmt.Errorf("malformed analysis response: %w", err)
	}
	if strings.TrimSpace(result.Summary) == "" {
		return nil, fmt.Errorf("analysis response missing summary")
	}

	return &result, nil
}
