package agent

import "strings"

// phraseMatch reports whether the trigger phrase occurs in the query.
// Exact substring match is the fast path; otherwise every trigger word
// must fuzzy-match some query word within a small edit distance, so
// "linear regresion" still triggers the regression override.
func phraseMatch(phrase, query string) bool {
	phraseLower := strings.ToLower(phrase)
	queryLower := strings.ToLower(query)

	if strings.Contains(queryLower, phraseLower) {
		return true
	}

	queryWords := splitWords(queryLower)
	if len(queryWords) == 0 {
		return false
	}

	for _, phraseWord := range splitWords(phraseLower) {
		if !fuzzyContains(queryWords, phraseWord) {
			return false
		}
	}
	return true
}

func fuzzyContains(words []string, target string) bool {
	// Shorter words get stricter matching.
	maxDistance := len(target) / 3
	if maxDistance < 1 {
		maxDistance = 1
	}
	if maxDistance > 3 {
		maxDistance = 3
	}

	for _, word := range words {
		if levenshteinDistance(word, target) <= maxDistance {
			return true
		}
	}
	return false
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '_' || r == '-'
	})
}

// levenshteinDistance calculates the minimum number of single-character
// edits (insertions, deletions, or substitutions) required to change
// one string into another.
func levenshteinDistance(s1, s2 string) int {
	len1, len2 := len(s1), len(s2)

	matrix := make([][]int, len1+1)
	for i := range matrix {
		matrix[i] = make([]int, len2+1)
	}

	for i := 0; i <= len1; i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len2; j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len1; i++ {
		for j := 1; j <= len2; j++ {
			cost := 0
			if s1[i-1] != s2[j-1] {
				cost = 1
			}

			matrix[i][j] = minOf(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len1][len2]
}

func minOf(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}
