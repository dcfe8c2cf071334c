package text

var stopwords = func() map[string]struct{} {
	words := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for", "from", "has", "have",
		"in", "is", "it", "its", "of", "on", "or", "that", "the", "this", "to", "was",
		"were", "with", "you", "your", "our", "we", "they", "their", "them", "i", "me",
		"my", "he", "she", "his", "her", "not", "but", "if", "then", "than", "so", "do",
		"does", "did", "done", "can", "could", "should", "would", "will", "just", "into",
		"about", "over", "under", "also", "such", "other", "more", "most", "less", "least",
		"up", "down", "out", "off", "no", "yes", "may", "might", "must", "within",
		"plus", "using", "use", "used", "via", "per", "etc",
	}

	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}()

// IsStopword reports whether word is excluded from keyword ranking.
func IsStopword(word string) bool {
	_, ok := stopwords[word]
	return ok
}
