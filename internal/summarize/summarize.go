// Package summarize calls an external language model to produce a
// title, summaries and tags for extracted page content. The model's
// output is untrusted: it is requested as schema-constrained JSON and
// still validated on the way in, and any shape mismatch goes back
// through the retry path because upstream output carries no contract.
package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/calebhs/linkhive/internal/errors"
	"github.com/calebhs/linkhive/internal/logging"
	"github.com/calebhs/linkhive/internal/validations"
)

const (
	defaultModel      = "gemini-2.5-flash"
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 2
	defaultRetryDelay = 2 * time.Second

	// Character budget for page content embedded in the prompt.
	contentBudget = 8000
)

type Options struct {
	Model      string
	Timeout    time.Duration
	MaxRetries int

	// RetryBaseDelay is doubled on every failed attempt.
	RetryBaseDelay time.Duration
}

// Input carries whatever the extractor managed to produce. Only Url is
// guaranteed; a page that degraded to metadata-only extraction is legal
// input with an empty ContentText.
type Input struct {
	Url             string
	Title           string
	MetaDescription string
	ContentText     string
	Language        string
}

type Result struct {
	Title        string
	SummaryShort string
	SummaryLong  string
	Language     string
	Tags         []string
	Category     string
	ModelName    string
	ModelVersion string
}

type generation struct {
	Text         string
	ModelVersion string
}

type generator interface {
	generate(ctx context.Context, prompt string) (generation, error)
}

type Client struct {
	gen        generator
	model      string
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
}

func New(genaiClient *genai.Client, opts Options) *Client {
	c := newWithGenerator(nil, opts)
	c.gen = &geminiGenerator{client: genaiClient, model: c.model}
	return c
}

func newWithGenerator(gen generator, opts Options) *Client {
	c := &Client{
		gen:        gen,
		model:      opts.Model,
		timeout:    opts.Timeout,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryBaseDelay,
	}
	if c.model == "" {
		c.model = defaultModel
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.maxRetries < 0 {
		c.maxRetries = defaultMaxRetries
	}
	if c.retryDelay <= 0 {
		c.retryDelay = defaultRetryDelay
	}
	return c
}

// Summarize asks the model for a structured summary of the input.
// It retries transient failures (transport errors, non-2xx responses
// and malformed output alike) with exponential backoff and returns a
// SummarizationError carrying the last cause once retries run out.
// No partial results: it is all-or-nothing per call.
func (c *Client) Summarize(ctx context.Context, input Input) (*Result, error) {
	prompt := buildPrompt(input)

	var lastErr error
	attempts := c.maxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay << (attempt - 1)
			logging.Logger.Infow("retrying summarization",
				"url", input.Url, "attempt", attempt, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := c.summarizeOnce(ctx, prompt)
		if err == nil {
			result.ModelName = c.model
			return result, nil
		}
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		lastErr = err
	}

	return nil, &errors.SummarizationError{Attempts: attempts, Err: lastErr}
}

func (c *Client) summarizeOnce(ctx context.Context, prompt string) (*Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	gen, err := c.gen.generate(callCtx, prompt)
	if err != nil {
		return nil, fmt.Errorf("model call: %w", err)
	}

	result, err := parseResponse(gen.Text)
	if err != nil {
		return nil, fmt.Errorf("model response: %w", err)
	}
	result.ModelVersion = gen.ModelVersion
	return result, nil
}

// summaryResponse mirrors the JSON shape the prompt demands.
type summaryResponse struct {
	Title        string   `json:"title"`
	SummaryShort string   `json:"summary_short"`
	SummaryLong  string   `json:"summary_long"`
	Language     string   `json:"language"`
	Tags         []string `json:"tags"`
	Category     string   `json:"category"`
}

func parseResponse(text string) (*Result, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var resp summaryResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	if strings.TrimSpace(resp.Title) == "" {
		return nil, fmt.Errorf("missing required field: title")
	}
	if strings.TrimSpace(resp.Language) == "" {
		return nil, fmt.Errorf("missing required field: language")
	}

	var tags []string
	for _, tag := range resp.Tags {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	// The prompt asks for 3-5 tags, but any non-empty set is usable.
	if len(tags) == 0 {
		return nil, fmt.Errorf("missing required field: tags")
	}

	return &Result{
		Title:        strings.TrimSpace(resp.Title),
		SummaryShort: strings.TrimSpace(resp.SummaryShort),
		SummaryLong:  strings.TrimSpace(resp.SummaryLong),
		Language:     strings.ToLower(strings.TrimSpace(resp.Language)),
		Tags:         tags,
		Category:     strings.TrimSpace(resp.Category),
	}, nil
}

func buildPrompt(input Input) string {
	var sb strings.Builder

	sb.WriteString("You are summarizing a saved web page for a bookmarking service.\n\n")
	sb.WriteString("URL: " + input.Url + "\n")
	if input.Title != "" {
		sb.WriteString("Page title: " + input.Title + "\n")
	}
	if input.MetaDescription != "" {
		sb.WriteString("Meta description: " + input.MetaDescription + "\n")
	}
	if input.Language != "" {
		sb.WriteString("Detected language: " + input.Language + "\n")
	}
	if input.ContentText != "" {
		sb.WriteString("\nPage content:\n")
		sb.WriteString(validations.TruncateAtWord(input.ContentText, contentBudget))
		sb.WriteString("\n")
	} else {
		sb.WriteString("\nNo page content could be extracted. Work from the URL and metadata above.\n")
	}

	sb.WriteString(`
Return a JSON object with exactly these fields:
- "title" (required): a clean, human-readable title for the page
- "summary_short" (optional): one or two sentences
- "summary_long" (optional): one paragraph, at most 200 words
- "language" (required): ISO 639-1 code of the page language
- "tags" (required): 3 to 5 lowercase topic tags
- "category" (optional): one broad category for the page

Return ONLY the JSON, no other text.`)

	return sb.String()
}

var responseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title":         {Type: genai.TypeString},
		"summary_short": {Type: genai.TypeString},
		"summary_long":  {Type: genai.TypeString},
		"language":      {Type: genai.TypeString},
		"tags": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
		"category": {Type: genai.TypeString},
	},
	Required: []string{"title", "language", "tags"},
}

type geminiGenerator struct {
	client *genai.Client
	model  string
}

func (g *geminiGenerator) generate(ctx context.Context, prompt string) (generation, error) {
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema,
	})
	if err != nil {
		return generation{}, fmt.Errorf("generate content: %w", err)
	}
	return generation{
		Text:         result.Text(),
		ModelVersion: result.ModelVersion,
	}, nil
}
