package summarize

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/calebhs/linkhive/internal/errors"
)

const validResponse = `{
	"title": "Example Article",
	"summary_short": "A short summary.",
	"summary_long": "A much longer summary of the page.",
	"language": "EN",
	"tags": [" Tech ", "example", ""],
	"category": "technology"
}`

type fakeGenerator struct {
	responses []generation
	errs      []error
	calls     int
}

func (f *fakeGenerator) generate(ctx context.Context, prompt string) (generation, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return generation{}, f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return generation{}, fmt.Errorf("no scripted response for call %d", i)
}

func testOptions() Options {
	return Options{
		Model:          "test-model",
		Timeout:        time.Second,
		MaxRetries:     2,
		RetryBaseDelay: time.Millisecond,
	}
}

func TestSummarizeSuccess(t *testing.T) {
	gen := &fakeGenerator{
		responses: []generation{{Text: validResponse, ModelVersion: "test-model-001"}},
	}
	c := newWithGenerator(gen, testOptions())

	result, err := c.Summarize(context.Background(), Input{Url: "https://example.com/article"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Title != "Example Article" {
		t.Errorf("title = %q", result.Title)
	}
	if result.Language != "en" {
		t.Errorf("language should be lowercased, got %q", result.Language)
	}
	if len(result.Tags) != 2 || result.Tags[0] != "Tech" || result.Tags[1] != "example" {
		t.Errorf("tags should be trimmed with empties dropped, got %v", result.Tags)
	}
	if result.ModelName != "test-model" || result.ModelVersion != "test-model-001" {
		t.Errorf("model metadata = %q/%q", result.ModelName, result.ModelVersion)
	}
	if gen.calls != 1 {
		t.Errorf("expected a single call, got %d", gen.calls)
	}
}

func TestSummarizeRetriesMalformedOutput(t *testing.T) {
	gen := &fakeGenerator{
		responses: []generation{
			{Text: "not json at all"},
			{Text: `{"title": "", "language": "en", "tags": ["a"]}`},
			{Text: validResponse},
		},
	}
	c := newWithGenerator(gen, testOptions())

	result, err := c.Summarize(context.Background(), Input{Url: "https://example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Title != "Example Article" {
		t.Errorf("title = %q", result.Title)
	}
	if gen.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", gen.calls)
	}
}

func TestSummarizeExhaustsRetries(t *testing.T) {
	gen := &fakeGenerator{
		errs: []error{
			fmt.Errorf("transport down"),
			fmt.Errorf("transport down"),
			fmt.Errorf("transport still down"),
		},
	}
	c := newWithGenerator(gen, testOptions())

	_, err := c.Summarize(context.Background(), Input{Url: "https://example.com"})
	var sumErr *errors.SummarizationError
	if !errors.As(err, &sumErr) {
		t.Fatalf("expected SummarizationError, got %v", err)
	}
	if sumErr.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", sumErr.Attempts)
	}
	if !strings.Contains(sumErr.Error(), "transport still down") {
		t.Errorf("error should carry the last cause: %v", sumErr)
	}
	if gen.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", gen.calls)
	}
}

func TestSummarizeStripsMarkdownFences(t *testing.T) {
	gen := &fakeGenerator{
		responses: []generation{{Text: "```json\n" + validResponse + "\n```"}},
	}
	c := newWithGenerator(gen, testOptions())

	result, err := c.Summarize(context.Background(), Input{Url: "https://example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Title != "Example Article" {
		t.Errorf("title = %q", result.Title)
	}
}

func TestSummarizeRejectsMissingTags(t *testing.T) {
	gen := &fakeGenerator{
		responses: []generation{
			{Text: `{"title": "T", "language": "en", "tags": []}`},
			{Text: `{"title": "T", "language": "en", "tags": ["  ", ""]}`},
			{Text: `{"title": "T", "language": "en"}`},
		},
	}
	c := newWithGenerator(gen, testOptions())

	_, err := c.Summarize(context.Background(), Input{Url: "https://example.com"})
	var sumErr *errors.SummarizationError
	if !errors.As(err, &sumErr) {
		t.Fatalf("expected SummarizationError, got %v", err)
	}
}

func TestSummarizeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := &fakeGenerator{
		errs: []error{fmt.Errorf("wrapped: %w", context.Canceled)},
	}
	c := newWithGenerator(gen, testOptions())

	_, err := c.Summarize(ctx, Input{Url: "https://example.com"})
	if err == nil {
		t.Fatal("expected error")
	}
	var sumErr *errors.SummarizationError
	if errors.As(err, &sumErr) {
		t.Errorf("cancellation must not be wrapped as SummarizationError: %v", err)
	}
	if gen.calls != 1 {
		t.Errorf("expected no retries after cancel, got %d calls", gen.calls)
	}
}

func TestBuildPrompt(t *testing.T) {
	longContent := strings.Repeat("lorem ipsum dolor sit amet ", 1000)
	prompt := buildPrompt(Input{
		Url:             "https://example.com/article",
		Title:           "Example Article",
		MetaDescription: "About things.",
		ContentText:     longContent,
	})

	if !strings.Contains(prompt, "https://example.com/article") {
		t.Error("prompt missing url")
	}
	if !strings.Contains(prompt, "Example Article") {
		t.Error("prompt missing title")
	}
	if len(prompt) > contentBudget+2000 {
		t.Errorf("prompt length %d suggests content was not truncated", len(prompt))
	}

	bare := buildPrompt(Input{Url: "https://example.com"})
	if !strings.Contains(bare, "No page content could be extracted") {
		t.Error("url-only prompt should say content is missing")
	}
}
