package text

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxChars is the character budget applied to every text before scoring.
const MaxChars = 12000

// Trim removes surrounding whitespace and cuts the text to the first maxChars
// characters. The cut is not word-aware. A non-positive maxChars disables the cut.
func Trim(s string, maxChars int) string {
	s = strings.TrimSpace(s)
	if maxChars <= 0 || utf8.RuneCountInString(s) <= maxChars {
		return s
	}

	count := 0
	for i := range s {
		if count == maxChars {
			s = s[:i]
			break
		}
		count++
	}

	// the cut may expose whitespace, keep Trim idempotent
	return strings.TrimRightFunc(s, unicode.IsSpace)
}

// Normalize bounds the text to MaxChars.
func Normalize(s string) string {
	return Trim(s, MaxChars)
}
