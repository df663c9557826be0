package fetch

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/ppiankov/veridex/internal/governance"
)

// ExtractText extracts visible text from HTML, skipping scripts, styles and
// other non-content tags and collapsing whitespace. Entities are decoded by
// the parser. Falls back to the raw input for non-HTML payloads.
func ExtractText(content string) string {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return collapseWhitespace(content)
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "svg":
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return collapseWhitespace(buf.String())
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Metadata is best-effort annotation pulled from a source's text.
// Never validated and never part of the trust proof.
type Metadata struct {
	Citation    string
	Court       string
	ActName     string
	SectionPath string
}

var (
	// Reporter citations like "384 U.S. 436" or "410 F.2d 701"
	caseCitePattern = regexp.MustCompile(`\b\d{1,4}\s+(?:U\.S\.|S\.\s?Ct\.|F\.(?:2d|3d|4th)|F\.\s?Supp\.(?:\s?[23]d)?|L\.\s?Ed\.(?:\s?2d)?)\s+\d{1,5}\b`)

	// Statute citations like "42 U.S.C. § 1983" or "29 C.F.R. § 1910.1200"
	codeCitePattern = regexp.MustCompile(`\b\d{1,3}\s+(?:U\.S\.C\.|C\.F\.R\.)\s*§+\s*[\d][\w.\-()]*`)

	courtPattern = regexp.MustCompile(`(?:Supreme Court of the United States|United States Supreme Court|United States Court of Appeals[^.,;]{0,40}|United States District Court[^.,;]{0,40}|Supreme Court of [A-Z][A-Za-z ]{2,30})`)

	actPattern = regexp.MustCompile(`\b(?:[A-Z][A-Za-z']+ ){1,6}Act(?:\s+of\s+\d{4})?\b`)

	sectionPattern = regexp.MustCompile(`(?:§+|\b[Ss]ection)\s*([\d][\w.\-()]*)`)
)

// ExtractMetadata pulls citation-shaped annotations from source text using
// heuristics keyed to the domain's governance category
func ExtractMetadata(text string, category governance.Category) Metadata {
	// Only scan the head of the document; citations and captions front-load
	head := text
	if len(head) > 4000 {
		head = head[:4000]
	}

	var meta Metadata

	switch category {
	case governance.CategoryCaselaw:
		meta.Citation = caseCitePattern.FindString(head)
		meta.Court = courtPattern.FindString(head)
	case governance.CategoryStatute, governance.CategoryRegulation:
		meta.Citation = codeCitePattern.FindString(head)
		meta.ActName = strings.TrimSpace(actPattern.FindString(head))
	default:
		meta.Citation = caseCitePattern.FindString(head)
		if meta.Citation == "" {
			meta.Citation = codeCitePattern.FindString(head)
		}
	}

	if m := sectionPattern.FindStringSubmatch(head); m != nil {
		meta.SectionPath = m[1]
	}

	return meta
}
