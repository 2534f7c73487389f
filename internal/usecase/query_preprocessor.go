package usecase

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// maxTermLength caps the term sent to the recipe API and stored in history
const maxTermLength = 100

// Compiled regex patterns for search term cleanup
var (
	// Matches control and invisible formatting characters pasted along with a term
	controlCharPattern = regexp.MustCompile(`[\p{Cc}\p{Cf}]+`)

	// Multiple spaces cleanup
	multiSpacePattern = regexp.MustCompile(`\s+`)

	orphanedPunctuationPattern = regexp.MustCompile(`\s+[,\-;:]+\s+`)
	trailingPunctuationPattern = regexp.MustCompile(`[,\-;:]+\s*$`)
	leadingPunctuationPattern  = regexp.MustCompile(`^\s*[,\-;:]+`)
)

// normalizeTerm cleans a search term before it is recorded and sent.
// An all-whitespace term normalizes to "" and is treated as no term.
func normalizeTerm(term string) string {
	if term == "" {
		return ""
	}

	cleaned := controlCharPattern.ReplaceAllString(term, " ")
	cleaned = cleanOrphanedPunctuation(cleaned)
	cleaned = multiSpacePattern.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	return truncateAtWord(cleaned, maxTermLength)
}

// cleanOrphanedPunctuation removes punctuation that stands alone (e.g., lone commas)
func cleanOrphanedPunctuation(s string) string {
	result := orphanedPunctuationPattern.ReplaceAllString(s, " ")
	result = trailingPunctuationPattern.ReplaceAllString(result, "")
	return leadingPunctuationPattern.ReplaceAllString(result, "")
}

// truncateAtWord shortens s to at most limit bytes, preferring a word boundary
// in the second half and never splitting a UTF-8 sequence.
func truncateAtWord(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	s = s[:cut]

	if lastSpace := strings.LastIndex(s, " "); lastSpace > limit/2 {
		s = s[:lastSpace]
	}
	return strings.TrimSpace(s)
}
