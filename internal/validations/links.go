package validations

import (
	"net/url"
	"strings"
)

func IsURLValid(link string) bool {
	if link == "" || len(link) > 2048 {
		return false
	}
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return u.Host != "" && (u.Scheme == "http" || u.Scheme == "https")
}

// ExtractHostname extracts the hostname from a URL
func ExtractHostname(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return link // fallback to original link if parsing fails
	}
	return u.Host
}

// Tracking parameters that never change what page a link points at.
var trackingParams = map[string]bool{
	"fbclid": true,
	"gclid":  true,
	"ref":    true,
}

// NormalizeLink produces the canonical dedup key for a link: lowercased
// host without a leading www, tracking parameters removed and at most
// one trailing slash stripped. It never fails; unparsable input falls
// back to a lowercased, trimmed copy of the raw string so deduplication
// still has something stable to work with.
func NormalizeLink(link string) string {
	trimmed := strings.TrimSpace(link)
	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.ToLower(trimmed)
	}

	host := strings.ToLower(u.Host)
	host = strings.TrimPrefix(host, "www.")

	query := u.Query()
	for param := range query {
		lower := strings.ToLower(param)
		if trackingParams[lower] || strings.HasPrefix(lower, "utm_") {
			query.Del(param)
		}
	}

	path := u.Path
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
	}

	normalized := u.Scheme + "://" + host + path
	if encoded := query.Encode(); encoded != "" {
		normalized += "?" + encoded
	}
	if u.Fragment != "" {
		normalized += "#" + u.Fragment
	}
	return normalized
}
