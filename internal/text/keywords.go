package text

import (
	"cmp"
	"slices"
)

// DefaultKeywordLimit is the number of keywords extracted from a job posting.
const DefaultKeywordLimit = 20

type keywordCount struct {
	word  string
	count int
}

// RankKeywords returns up to limit most frequent non-stopword tokens of s.
// Ties are broken alphabetically so equal input always gives the same list.
// An empty result is valid.
func RankKeywords(s string, limit int) []string {
	if limit <= 0 {
		return []string{}
	}

	counts := make(map[string]int)
	for token := range Tokenize(s) {
		if IsStopword(token) {
			continue
		}
		counts[token]++
	}

	ranked := make([]keywordCount, 0, len(counts))
	for word, count := range counts {
		ranked = append(ranked, keywordCount{word: word, count: count})
	}

	slices.SortFunc(ranked, func(a, b keywordCount) int {
		if a.count != b.count {
			return cmp.Compare(b.count, a.count)
		}
		return cmp.Compare(a.word, b.word)
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	keywords := make([]string, 0, len(ranked))
	for _, kc := range ranked {
		keywords = append(keywords, kc.word)
	}
	return keywords
}
