package extract

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"

	"github.com/calebhs/linkhive/internal/config"
	"github.com/calebhs/linkhive/internal/errors"
	"github.com/calebhs/linkhive/internal/logging"
)

// Fetcher downloads pages with a bounded timeout and a byte ceiling.
// Oversized bodies are truncated at the ceiling instead of rejected,
// trading completeness for availability.
type Fetcher struct {
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
}

func NewFetcher(cfg config.FetchConfig) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		userAgent:    cfg.UserAgent,
		maxBodyBytes: cfg.MaxBodyBytes,
	}
}

// Fetch issues a GET for link and returns the HTML body. Redirects are
// followed by the underlying client.
func (f *Fetcher) Fetch(ctx context.Context, link string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", &errors.FetchError{Kind: errors.FetchTimeout, Url: link, Err: err}
		}
		return "", fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &errors.FetchError{
			Kind: errors.FetchBadStatus,
			Url:  link,
			Err:  fmt.Errorf("unexpected status code: %d", resp.StatusCode),
		}
	}

	if contentType := resp.Header.Get("Content-Type"); contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || !isHTMLMediaType(mediaType) {
			return "", &errors.FetchError{
				Kind: errors.FetchBadContentType,
				Url:  link,
				Err:  fmt.Errorf("content type %q is not HTML", contentType),
			}
		}
	}

	// Read one byte past the ceiling to tell "exactly at the limit"
	// apart from "over it".
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes+1))
	if err != nil {
		if isTimeout(err) {
			return "", &errors.FetchError{Kind: errors.FetchTimeout, Url: link, Err: err}
		}
		return "", fmt.Errorf("read response body: %w", err)
	}
	if int64(len(body)) > f.maxBodyBytes {
		logging.Logger.Warnw("page body exceeds byte ceiling, truncating",
			"link", link, "ceiling", f.maxBodyBytes)
		body = body[:f.maxBodyBytes]
	}

	return string(body), nil
}

func isHTMLMediaType(mediaType string) bool {
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	// The http client wraps its own deadline error with this text.
	return strings.Contains(err.Error(), "Client.Timeout exceeded")
}
