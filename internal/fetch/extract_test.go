package fetch

import (
	"strings"
	"testing"

	"github.com/ppiankov/veridex/internal/governance"
)

func TestExtractText_StripsNonContent(t *testing.T) {
	html := `<html><head>
		<style>body { color: red; }</style>
		<script>alert("hi")</script>
	</head><body>
		<p>Statements are   admissible if&nbsp;offered against a party.</p>
		<noscript>enable js</noscript>
	</body></html>`

	text := ExtractText(html)

	if strings.Contains(text, "alert") || strings.Contains(text, "color: red") {
		t.Errorf("Expected scripts and styles to be stripped, got %q", text)
	}
	if strings.Contains(text, "enable js") {
		t.Errorf("Expected noscript content to be stripped, got %q", text)
	}
	if !strings.Contains(text, "Statements are admissible") {
		t.Errorf("Expected collapsed whitespace in %q", text)
	}
	if !strings.Contains(text, "if offered") && !strings.Contains(text, "if offered") {
		t.Errorf("Expected entity to be decoded in %q", text)
	}
}

func TestExtractMetadata_Caselaw(t *testing.T) {
	text := "Supreme Court of the United States. Miranda v. Arizona, 384 U.S. 436 (1966). " +
		"The prosecution may not use statements stemming from custodial interrogation."

	meta := ExtractMetadata(text, governance.CategoryCaselaw)

	if meta.Citation != "384 U.S. 436" {
		t.Errorf("Expected reporter citation, got %q", meta.Citation)
	}
	if meta.Court != "Supreme Court of the United States" {
		t.Errorf("Expected court name, got %q", meta.Court)
	}
}

func TestExtractMetadata_Statute(t *testing.T) {
	src := "Civil Rights Act of 1964. 42 U.S.C. § 2000e provides that it shall be an " +
		"unlawful employment practice. See also Section 703(a)."

	meta := ExtractMetadata(src, governance.CategoryStatute)

	if !strings.HasPrefix(meta.Citation, "42 U.S.C.") {
		t.Errorf("Expected code citation, got %q", meta.Citation)
	}
	if meta.ActName != "Civil Rights Act of 1964" {
		t.Errorf("Expected act name, got %q", meta.ActName)
	}
	if meta.SectionPath == "" {
		t.Error("Expected a section path")
	}
}

func TestExtractMetadata_AnnotationsOnly(t *testing.T) {
	meta := ExtractMetadata("no legal citations in this text at all", governance.CategoryCaselaw)
	if meta.Citation != "" || meta.Court != "" {
		t.Errorf("Expected empty metadata, got %+v", meta)
	}
}
