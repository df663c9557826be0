package retrieval

import "strings"

// stopWords are filtered out of concept text before the cache lookup.
// Includes common legal filler so "the rule against hearsay" keys on the
// words that actually distinguish the concept.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "but": true, "by": true, "for": true, "from": true, "had": true,
	"has": true, "have": true, "in": true, "into": true, "is": true, "it": true,
	"its": true, "of": true, "on": true, "or": true, "such": true, "that": true,
	"the": true, "their": true, "them": true, "then": true, "there": true,
	"these": true, "they": true, "this": true, "to": true, "under": true,
	"was": true, "were": true, "what": true, "when": true, "where": true,
	"which": true, "while": true, "who": true, "will": true, "with": true,
	"law": true, "legal": true, "rule": true, "doctrine": true,
}

// ExtractKeywords pulls the distinguishing keywords out of a concept string:
// lowercased, punctuation-stripped, stop-word-filtered, deduplicated
func ExtractKeywords(concept string) []string {
	fields := strings.FieldsFunc(strings.ToLower(concept), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != '-'
	})

	seen := make(map[string]bool)
	var keywords []string
	for _, word := range fields {
		word = strings.Trim(word, "-")
		if len(word) < 3 || stopWords[word] || seen[word] {
			continue
		}
		seen[word] = true
		keywords = append(keywords, word)
	}
	return keywords
}

// keywordOverlap counts how many keywords occur in the record's searchable text
func keywordOverlap(haystack string, keywords []string) int {
	haystack = strings.ToLower(haystack)
	count := 0
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			count++
		}
	}
	return count
}
