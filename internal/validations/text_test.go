package validations

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateAtWord(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		budget   int
		expected string
	}{
		{
			name:     "short text untouched",
			input:    "short text",
			budget:   100,
			expected: "short text",
		},
		{
			name:     "exactly at budget untouched",
			input:    "1234567890",
			budget:   10,
			expected: "1234567890",
		},
		{
			name:     "cuts at word boundary",
			input:    "the quick brown fox jumps over the lazy dog",
			budget:   20,
			expected: "the quick brown fox...",
		},
		{
			name:     "no boundary in last fifth cuts at budget",
			input:    "abcdefghijklmnopqrstuvwxyz",
			budget:   10,
			expected: "abcdefghij...",
		},
		{
			name:     "zero budget untouched",
			input:    "anything",
			budget:   0,
			expected: "anything",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateAtWord(tt.input, tt.budget)
			if got != tt.expected {
				t.Errorf("TruncateAtWord(%q, %d) = %q, want %q", tt.input, tt.budget, got, tt.expected)
			}
		})
	}
}

func TestTruncateAtWordBounds(t *testing.T) {
	// For any content longer than the budget the result stays within
	// budget plus the ellipsis and never splits a word when a boundary
	// exists within the last 20% of the budget.
	input := strings.Repeat("word ", 100)
	for _, budget := range []int{25, 50, 99, 200} {
		got := TruncateAtWord(input, budget)
		if len(got) > budget+len("...") {
			t.Errorf("budget %d: result length %d exceeds budget+ellipsis", budget, len(got))
		}
		trimmed := strings.TrimSuffix(got, "...")
		if !strings.HasSuffix(trimmed, "word") {
			t.Errorf("budget %d: cut mid-word: %q", budget, got)
		}
	}
}

func TestTruncateAtWordMultibyte(t *testing.T) {
	// Text without spaces forces the cut to land at the budget; on
	// multi-byte runes it must back up to a rune boundary instead of
	// slicing through one.
	tests := []struct {
		name   string
		input  string
		budget int
	}{
		{"cjk", strings.Repeat("日", 100), 10},
		{"accented", strings.Repeat("é", 50), 7},
		{"mixed ascii and cjk", "abc" + strings.Repeat("語", 50), 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateAtWord(tt.input, tt.budget)
			if !utf8.ValidString(got) {
				t.Fatalf("truncated output is invalid UTF-8: %q", got)
			}
			if len(got) > tt.budget+len("...") {
				t.Errorf("result length %d exceeds budget+ellipsis", len(got))
			}
		})
	}
}

func TestCleanUpText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "strips markup",
			input:    "<p>Hello <strong>world</strong></p>",
			expected: "Hello world",
		},
		{
			name:     "collapses tabs and newlines",
			input:    "line one\n\nline two\ttabbed",
			expected: "line one line two tabbed",
		},
		{
			name:     "unescapes entities",
			input:    "fish &amp; chips",
			expected: "fish & chips",
		},
		{
			name:     "trims surrounding whitespace",
			input:    "  padded  ",
			expected: "padded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanUpText(tt.input)
			if got != tt.expected {
				t.Errorf("CleanUpText(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestGetPageOffset(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"", 1},
		{"3", 3},
		{"0", 1},
		{"-1", 1},
		{"100", 1},
		{"junk", 1},
	}

	for _, tt := range tests {
		if got := GetPageOffset(tt.input); got != tt.expected {
			t.Errorf("GetPageOffset(%q) = %d, want %d", tt.input, got, tt.expected)
		}
	}
}
