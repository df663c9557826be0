// Package verify implements the deterministic anti-hallucination gate:
// a proposed passage survives only if it is a literal substring of the
// fetched source text after whitespace/case normalization.
package verify

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// Normalize lowercases text and collapses every whitespace run to a single space
func Normalize(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))

	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace && buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		inSpace = false
		buf.WriteRune(unicode.ToLower(r))
	}

	return buf.String()
}

// PassageInSource reports whether the passage occurs verbatim in the source
// text under normalization. This is the system's only defense against
// fabricated quotations; there is no fuzzy fallback.
func PassageInSource(passage, source string) bool {
	p := Normalize(passage)
	if p == "" {
		return false
	}
	return strings.Contains(Normalize(source), p)
}

// WithinBounds reports whether the passage length falls inside the allowed range
func WithinBounds(passage string, minChars, maxChars int) bool {
	n := len([]rune(strings.TrimSpace(passage)))
	return n >= minChars && n <= maxChars
}

// Hash returns the sha256 hex digest of the text
func Hash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// SnippetHash hashes a passage in normalized form, so the same quotation
// always produces the same digest regardless of surrounding whitespace
func SnippetHash(passage string) string {
	return Hash(Normalize(passage))
}
