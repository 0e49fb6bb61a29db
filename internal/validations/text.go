package validations

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var spacesRegex *regexp.Regexp = regexp.MustCompile(`[\t\n]+`)

var sanitization = bluemonday.StrictPolicy()

// CleanUpText strips markup and collapses whitespace so extracted
// content is safe to persist and feed to the model.
func CleanUpText(text string) string {
	return strings.TrimSpace(html.UnescapeString(
		sanitization.Sanitize(
			spacesRegex.ReplaceAllLiteralString(text, " "),
		)))
}

func GetPageOffset(pageStr string) int {
	if pageStr == "" {
		return 1
	}
	page, err := strconv.Atoi(pageStr)
	if err != nil {
		return 1
	}
	if page <= 0 || page >= 100 {
		return 1
	}
	return page
}

const truncationEllipsis = "..."

// TruncateAtWord cuts text to at most budget bytes plus an ellipsis.
// The cut lands on the nearest word boundary within the last 20% of
// the budget so words are never split; when no boundary exists there,
// it cuts at the nearest rune boundary at or below the budget so the
// result is always valid UTF-8.
func TruncateAtWord(text string, budget int) string {
	if budget <= 0 || len(text) <= budget {
		return text
	}
	cut := budget
	if idx := strings.LastIndexByte(text[:budget], ' '); idx >= budget*4/5 {
		cut = idx
	} else {
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
	}
	return strings.TrimRight(text[:cut], " ") + truncationEllipsis
}
