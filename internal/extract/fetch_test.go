package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/calebhs/linkhive/internal/config"
	"github.com/calebhs/linkhive/internal/errors"
)

func testFetchConfig() config.FetchConfig {
	return config.FetchConfig{
		Timeout:      2 * time.Second,
		MaxBodyBytes: 1024,
		UserAgent:    "linkhive-test/1.0",
	}
}

func TestFetchSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "linkhive-test/1.0" {
			t.Errorf("unexpected user agent: %q", ua)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer server.Close()

	f := NewFetcher(testFetchConfig())
	html, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(html, "hello") {
		t.Errorf("body not returned: %q", html)
	}
}

func TestFetchFollowsRedirects(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>final</html>"))
	}))
	defer target.Close()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL, http.StatusFound)
	}))
	defer server.Close()

	f := NewFetcher(testFetchConfig())
	html, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(html, "final") {
		t.Errorf("redirect not followed: %q", html)
	}
}

func TestFetchBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	f := NewFetcher(testFetchConfig())
	_, err := f.Fetch(context.Background(), server.URL)
	var fetchErr *errors.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fetchErr.Kind != errors.FetchBadStatus {
		t.Errorf("expected kind %q, got %q", errors.FetchBadStatus, fetchErr.Kind)
	}
}

func TestFetchRejectsNonHTML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"not": "html"}`))
	}))
	defer server.Close()

	f := NewFetcher(testFetchConfig())
	_, err := f.Fetch(context.Background(), server.URL)
	var fetchErr *errors.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fetchErr.Kind != errors.FetchBadContentType {
		t.Errorf("expected kind %q, got %q", errors.FetchBadContentType, fetchErr.Kind)
	}
}

func TestFetchTruncatesOversizedBody(t *testing.T) {
	big := strings.Repeat("x", 4096)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(big))
	}))
	defer server.Close()

	f := NewFetcher(testFetchConfig())
	html, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("oversized body must truncate, not fail: %v", err)
	}
	if len(html) != 1024 {
		t.Errorf("expected body truncated to 1024 bytes, got %d", len(html))
	}
}

func TestFetchTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>late</html>"))
	}))
	defer server.Close()

	cfg := testFetchConfig()
	cfg.Timeout = 50 * time.Millisecond
	f := NewFetcher(cfg)
	_, err := f.Fetch(context.Background(), server.URL)
	var fetchErr *errors.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fetchErr.Kind != errors.FetchTimeout {
		t.Errorf("expected kind %q, got %q", errors.FetchTimeout, fetchErr.Kind)
	}
	if !strings.Contains(err.Error(), "timeout") {
		t.Errorf("error message should mention timeout: %v", err)
	}
}
