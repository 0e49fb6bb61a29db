// Package extract turns a bookmarked URL into readable content: it
// fetches the page under timeout and size limits, runs a readability
// pass for the main article and picks up metadata (description,
// favicon, source type) outside the article subtree.
package extract

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/pemistahl/lingua-go"

	"github.com/calebhs/linkhive/internal/config"
	"github.com/calebhs/linkhive/internal/types"
	"github.com/calebhs/linkhive/internal/validations"
)

type Extractor struct {
	fetcher  *Fetcher
	detector lingua.LanguageDetector
}

func New(cfg config.FetchConfig) *Extractor {
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(
			lingua.English, lingua.German, lingua.French, lingua.Spanish,
			lingua.Italian, lingua.Portuguese, lingua.Dutch, lingua.Russian,
			lingua.Japanese, lingua.Chinese, lingua.Korean, lingua.Arabic,
		).
		Build()
	return &Extractor{
		fetcher:  NewFetcher(cfg),
		detector: detector,
	}
}

// ExtractFromURL fetches the page and extracts its readable content.
func (e *Extractor) ExtractFromURL(ctx context.Context, link string) (*types.ExtractedContent, error) {
	html, err := e.fetcher.Fetch(ctx, link)
	if err != nil {
		return nil, err
	}
	return e.Extract(html, link)
}

// Extract derives readable content from already-fetched HTML. A page
// where readability finds no article body is not an error: the result
// degrades to the page title and meta description with empty text.
func (e *Extractor) Extract(html, link string) (*types.ExtractedContent, error) {
	pageURL, err := url.Parse(link)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	content := &types.ExtractedContent{
		MetaDescription: metaDescription(doc),
		FaviconUrl:      faviconURL(doc, pageURL),
		SourceType:      classifySourceType(doc, pageURL),
	}

	article, err := readability.FromReader(strings.NewReader(html), pageURL)
	if err != nil || strings.TrimSpace(article.TextContent) == "" {
		content.Title = validations.CleanUpText(doc.Find("title").First().Text())
		return content, nil
	}

	content.Title = validations.CleanUpText(article.Title)
	content.TextContent = validations.CleanUpText(article.TextContent)
	content.Language = article.Language
	if content.FaviconUrl == "" {
		content.FaviconUrl = article.Favicon
	}
	if markdown, err := htmltomarkdown.ConvertString(article.Content); err == nil {
		content.Markdown = markdown
	}
	if content.Language == "" {
		if lang, ok := e.detector.DetectLanguageOf(content.TextContent); ok {
			content.Language = strings.ToLower(lang.IsoCode639_1().String())
		}
	}
	return content, nil
}

func metaDescription(doc *goquery.Document) string {
	if desc, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok && desc != "" {
		return validations.CleanUpText(desc)
	}
	if desc, ok := doc.Find(`meta[property="og:description"]`).First().Attr("content"); ok {
		return validations.CleanUpText(desc)
	}
	return ""
}

func faviconURL(doc *goquery.Document, pageURL *url.URL) string {
	href, ok := doc.Find(`link[rel~="icon"]`).First().Attr("href")
	if !ok || href == "" {
		return ""
	}
	iconURL, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return pageURL.ResolveReference(iconURL).String()
}

var videoHosts = map[string]bool{
	"youtube.com": true,
	"youtu.be":    true,
	"vimeo.com":   true,
	"twitch.tv":   true,
}

var tweetHosts = map[string]bool{
	"twitter.com": true,
	"x.com":       true,
}

func classifySourceType(doc *goquery.Document, pageURL *url.URL) types.SourceType {
	if ogType, ok := doc.Find(`meta[property="og:type"]`).First().Attr("content"); ok {
		ogType = strings.ToLower(ogType)
		switch {
		case strings.HasPrefix(ogType, "video"):
			return types.SourceTypeVideo
		case strings.HasPrefix(ogType, "article"):
			return types.SourceTypeArticle
		}
	}

	host := strings.TrimPrefix(strings.ToLower(pageURL.Hostname()), "www.")
	switch {
	case videoHosts[host]:
		return types.SourceTypeVideo
	case tweetHosts[host]:
		return types.SourceTypeTweet
	}
	return types.SourceTypeArticle
}
