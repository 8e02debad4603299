package ai

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestNormalizeCategory(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"canonical telco", "Telco", CategoryTelco},
		{"canonical llm", "LLM", CategoryLLM},
		{"canonical infra", "INFRA", CategoryInfra},
		{"canonical ecosystem", "AI Ecosystem", CategoryEcosystem},
		{"lowercase telco", "telco", CategoryTelco},
		{"lowercase llm", "llm", CategoryLLM},
		{"mixed case infra", "Infra", CategoryInfra},
		{"hyphenated ecosystem", "AI-Ecosystem", CategoryEcosystem},
		{"ecosystem inside sentence", "part of the ai ecosystem", CategoryEcosystem},
		{"blank", "", CategoryInfra},
		{"whitespace only", "   ", CategoryInfra},
		{"unknown", "Service", CategoryInfra},
		{"padded canonical", "  Telco  ", CategoryTelco},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeCategory(logger, tt.in); got != tt.want {
				t.Errorf("NormalizeCategory(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
