package verify

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"collapses whitespace", "a  b\t\nc", "a b c"},
		{"lowercases", "Hearsay EXCEPTION", "hearsay exception"},
		{"trims", "  leading and trailing \n", "leading and trailing"},
		{"empty", "   \t\n ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPassageInSource(t *testing.T) {
	source := "The court held that statements are admissible if they\n fall within a recognized exception."

	if !PassageInSource("statements are admissible if they fall within", source) {
		t.Error("Expected exact passage to verify")
	}

	// Case and whitespace differences must not matter
	if !PassageInSource("Statements ARE admissible   if they fall", source) {
		t.Error("Expected normalized passage to verify")
	}

	// Mutating a single character must cause rejection
	if PassageInSource("statements are admissable if they fall within", source) {
		t.Error("Expected mutated passage to be rejected")
	}

	if PassageInSource("", source) {
		t.Error("Expected empty passage to be rejected")
	}
}

func TestWithinBounds(t *testing.T) {
	if WithinBounds("too short", 50, 500) {
		t.Error("Expected short passage to be out of bounds")
	}

	passage := "statements are admissible if they fall within a recognized exception to the rule"
	if !WithinBounds(passage, 50, 500) {
		t.Errorf("Expected %d-char passage to be in bounds", len(passage))
	}
}

func TestSnippetHash_NormalizationStable(t *testing.T) {
	a := SnippetHash("The Hearsay  Rule")
	b := SnippetHash("the hearsay rule")

	if a != b {
		t.Error("Expected normalized variants to hash identically")
	}
	if a == SnippetHash("the hearsay rules") {
		t.Error("Expected different text to hash differently")
	}
}

func TestHash_Deterministic(t *testing.T) {
	if Hash("abc") != Hash("abc") {
		t.Error("Expected identical input to hash identically")
	}
	if len(Hash("abc")) != 64 {
		t.Error("Expected sha256 hex digest length")
	}
}
