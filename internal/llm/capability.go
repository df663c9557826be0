// Package llm defines the two external capabilities this core consumes —
// candidate proposal and passage extraction — as injectable interfaces.
// Both are treated as adversarial: nothing they return is trusted until it
// passes the allowlist and verification gates downstream.
package llm

import (
	"context"

	"github.com/ppiankov/veridex/internal/model"
)

// Candidate is one proposed source for a concept
type Candidate struct {
	URL               string           `json:"url"`
	Title             string           `json:"title"`
	SourceType        model.SourceType `json:"source_type"`
	SuggestedCitation string           `json:"suggested_citation,omitempty"`
}

// ProposeRequest asks for candidate sources covering a concept
type ProposeRequest struct {
	Concept      string
	SkillName    string
	Jurisdiction string
	SourceTypes  []model.SourceType
	Domains      []string // Allowed domains, named in the prompt as the only acceptable hosts
}

// CandidateProposer names candidate sources for a concept
type CandidateProposer interface {
	ProposeCandidates(ctx context.Context, req ProposeRequest) ([]Candidate, error)
}

// ProposedPassage is one candidate quotation with its claimed position
type ProposedPassage struct {
	Text      string        `json:"text"`
	Locator   model.Locator `json:"locator"`
	Relevance float64       `json:"relevance,omitempty"`
}

// ExtractRequest asks for short quotations about a concept from fetched text
type ExtractRequest struct {
	Concept     string
	Excerpt     string // Size-bounded source text
	SourceType  model.SourceType
	MaxPassages int
	MinChars    int
	MaxChars    int
}

// PassageExtractor proposes short quotations with locators from source text
type PassageExtractor interface {
	ExtractPassages(ctx context.Context, req ExtractRequest) ([]ProposedPassage, error)
}

// Config holds provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI
	APIKey string

	// BaseURL for custom endpoints (e.g. Ollama's OpenAI-compatible API)
	BaseURL string

	// Timeout for API requests, seconds
	Timeout int

	// MaxTokens for response generation
	MaxTokens int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Timeout:   30,
		MaxTokens: 1500,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(cfg model.LLMConfig) Config {
	return Config{
		Provider:  cfg.Provider,
		Model:     cfg.Model,
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
		MaxTokens: cfg.MaxTokens,
	}
}
