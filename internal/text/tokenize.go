package text

import (
	"iter"
	"regexp"
	"strings"
)

var tokenExpr = regexp.MustCompile(`[a-z][a-z0-9+.#-]{2,}`)

// Tokenize yields lowercase word-like tokens of s in order of appearance.
// The sequence is lazy and can be ranged over any number of times.
func Tokenize(s string) iter.Seq[string] {
	lower := strings.ToLower(s)

	return func(yield func(string) bool) {
		rest := lower
		for {
			loc := tokenExpr.FindStringIndex(rest)
			if loc == nil {
				return
			}
			if !yield(rest[loc[0]:loc[1]]) {
				return
			}
			rest = rest[loc[1]:]
		}
	}
}
