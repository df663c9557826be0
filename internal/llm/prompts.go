package llm

import (
	"fmt"
	"strings"
)

// BuildProposePrompt constructs the candidate-proposal prompt. The model is
// constrained to name concrete, real URLs on the listed domains; everything
// it returns is still filtered against the governance allowlist afterward.
func BuildProposePrompt(req ProposeRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are locating authoritative legal sources for a concept taught to law students.

Concept: %s
`, req.Concept)
	if req.SkillName != "" {
		fmt.Fprintf(&b, "Skill: %s\n", req.SkillName)
	}
	if req.Jurisdiction != "" {
		fmt.Fprintf(&b, "Jurisdiction: %s\n", req.Jurisdiction)
	}
	if len(req.SourceTypes) > 0 {
		types := make([]string, 0, len(req.SourceTypes))
		for _, st := range req.SourceTypes {
			types = append(types, string(st))
		}
		fmt.Fprintf(&b, "Preferred source types: %s\n", strings.Join(types, ", "))
	}

	b.WriteString(`
RULES:
1. Name only concrete pages you are confident actually exist.
2. Every URL MUST be on one of these domains (or their subdomains):
`)
	for _, domain := range req.Domains {
		fmt.Fprintf(&b, "   - %s\n", domain)
	}
	b.WriteString(`3. Do not invent URLs. Fewer correct candidates beat more guesses.
4. Respond with ONLY a JSON array, no prose:
[{"url": "...", "title": "...", "source_type": "CASE|STATUTE|REGULATION|ARTICLE|TEXTBOOK|OTHER", "suggested_citation": "..."}]
Return at most 5 candidates.`)

	return b.String()
}

// BuildExtractPrompt constructs the passage-extraction prompt. The model must
// quote literally; anything it paraphrases is rejected by the substring gate.
func BuildExtractPrompt(req ExtractRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are extracting short verbatim quotations about a concept from a legal source.

Concept: %s
Source type: %s

RULES:
1. Quote EXACTLY, character for character. Quotes are machine-checked against the source text; any paraphrase is discarded.
2. Each quotation must be %d-%d characters long.
3. Give each quotation a locator: a paragraph range, section number, or page.
4. Respond with ONLY a JSON array, no prose:
[{"text": "...", "locator": {"section": "...", "para_start": 0, "para_end": 0, "page": "..."}, "relevance": 0.0}]
Return at most %d quotations. Return [] if the source does not address the concept.

SOURCE TEXT:
%s`, req.Concept, req.SourceType, req.MinChars, req.MaxChars, req.MaxPassages, req.Excerpt)

	return b.String()
}
