package ai

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"leading prose", `Sure! {"a": 1}`, `{"a": 1}`},
		{"surrounding prose", "Here:\n{\"a\": 1}\nHope that helps.", `{"a": 1}`},
		{"code fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"no braces", "no json here", "no json here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSON(tt.in); got != tt.want {
				t.Errorf("extractJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTruncateText(t *testing.T) {
	if got := truncateText("short", 10); got != "short" {
		t.Errorf("truncateText short = %q", got)
	}

	long := strings.Repeat("x", 100)
	got := truncateText(long, 10)
	if got != strings.Repeat("x", 10)+"..." {
		t.Errorf("truncateText long = %q", got)
	}

	// Multibyte text never gets cut mid-rune
	korean := strings.Repeat("한", 10) // 3 bytes each
	got = truncateText(korean, 10)
	if got != strings.Repeat("한", 3)+"..." {
		t.Errorf("truncateText korean = %q", got)
	}
	if !utf8.ValidString(got) {
		t.Errorf("truncateText produced invalid UTF-8: %q", got)
	}
}
