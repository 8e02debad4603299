package ai

import (
	"strings"

	"github.com/rs/zerolog"
)

// Canonical analysis categories.
const (
	CategoryTelco     = "Telco"
	CategoryLLM       = "LLM"
	CategoryInfra     = "INFRA"
	CategoryEcosystem = "AI Ecosystem"
)

// NormalizeCategory maps a model-produced category onto the canonical
// set. Blank input falls back to INFRA silently; anything else that
// cannot be matched falls back to INFRA with a warning.
func NormalizeCategory(logger zerolog.Logger, raw string) string {
	trimmed := strings.TrimSpace(raw)
	switch trimmed {
	case CategoryTelco, CategoryLLM, CategoryInfra, CategoryEcosystem:
		return trimmed
	}
	if trimmed == "" {
		return CategoryInfra
	}

	switch strings.ToLower(trimmed) {
	case "telco":
		return CategoryTelco
	case "llm":
		return CategoryLLM
	case "infra":
		return CategoryInfra
	}

	lower := strings.ToLower(trimmed)
	if strings.Contains(lower, "ai ecosystem") || strings.Contains(lower, "ai-ecosystem") {
		return CategoryEcosystem
	}

	logger.Warn().Str("category", raw).Msg("unrecognized category, defaulting to INFRA")
	return CategoryInfra
}
