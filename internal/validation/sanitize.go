package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	tagPattern          = regexp.MustCompile(`<[^>]*>`)
	angleBracketPattern = regexp.MustCompile(`[<>]`)
	jsSchemePattern     = regexp.MustCompile(`(?i)javascript\s*:`)
	eventHandlerPattern = regexp.MustCompile(`(?i)\bon\w+\s*=`)
)

// MaxSearchInputLength bounds search-box input
const MaxSearchInputLength = 100

// SanitizeString strips markup from free text: whole tags are removed with
// their content kept, stray angle brackets, the javascript: scheme and
// on*= handler attributes are dropped, and the result is trimmed.
func SanitizeString(input string) string {
	s := tagPattern.ReplaceAllString(input, "")
	s = angleBracketPattern.ReplaceAllString(s, "")
	s = jsSchemePattern.ReplaceAllString(s, "")
	s = eventHandlerPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// ValidateSearchInput sanitizes search-box input and truncates it to
// MaxSearchInputLength characters.
func ValidateSearchInput(input string) string {
	return truncate(SanitizeString(input), MaxSearchInputLength)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:max]))
}

func sanitizeInPlace(s *string) {
	if s != nil {
		*s = SanitizeString(*s)
	}
}
