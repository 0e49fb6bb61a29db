package validations

import "testing"

func TestNormalizeLink(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "lowercases host and strips www",
			input:    "https://WWW.Example.com/Path/",
			expected: "https://example.com/Path",
		},
		{
			name:     "equivalent form without www",
			input:    "https://example.com/Path",
			expected: "https://example.com/Path",
		},
		{
			name:     "removes utm parameters",
			input:    "https://example.com/path?utm_source=x",
			expected: "https://example.com/path",
		},
		{
			name:     "removes fbclid and gclid but keeps the rest",
			input:    "https://example.com/path?fbclid=abc&gclid=def&page=2",
			expected: "https://example.com/path?page=2",
		},
		{
			name:     "removes ref parameter",
			input:    "https://example.com/path?ref=homepage",
			expected: "https://example.com/path",
		},
		{
			name:     "keeps root slash",
			input:    "https://example.com/",
			expected: "https://example.com/",
		},
		{
			name:     "strips only a single trailing slash",
			input:    "https://example.com/a/b/",
			expected: "https://example.com/a/b",
		},
		{
			name:     "keeps fragment",
			input:    "https://example.com/path#section",
			expected: "https://example.com/path#section",
		},
		{
			name:     "path case is preserved",
			input:    "https://example.com/CaseSensitive",
			expected: "https://example.com/CaseSensitive",
		},
		{
			name:     "malformed input falls back to lowercased trimmed raw",
			input:    "  NOT A URL  ",
			expected: "not a url",
		},
		{
			name:     "missing scheme falls back to raw",
			input:    "Example.com/Path",
			expected: "example.com/path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeLink(tt.input)
			if got != tt.expected {
				t.Errorf("NormalizeLink(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeLinkDeduplicates(t *testing.T) {
	a := NormalizeLink("https://WWW.Example.com/Path/")
	b := NormalizeLink("https://example.com/Path")
	if a != b {
		t.Errorf("expected identical keys, got %q and %q", a, b)
	}
}

func TestIsURLValid(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"https://example.com", true},
		{"http://example.com/path", true},
		{"ftp://example.com", false},
		{"", false},
		{"example.com", false},
	}

	for _, tt := range tests {
		if got := IsURLValid(tt.input); got != tt.valid {
			t.Errorf("IsURLValid(%q) = %v, want %v", tt.input, got, tt.valid)
		}
	}
}
