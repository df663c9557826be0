package llm

import (
	"fmt"
	"strings"
)

// Capabilities bundles the two external capabilities one provider serves
type Capabilities struct {
	Proposer  CandidateProposer
	Extractor PassageExtractor
}

// NewCapabilities creates the configured provider. A blank provider returns
// nil capabilities (retrieval disabled; cache-only operation still works).
func NewCapabilities(config Config) (*Capabilities, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		p, err := NewOpenAIProvider(config)
		if err != nil {
			return nil, err
		}
		return &Capabilities{Proposer: p, Extractor: p}, nil

	case "ollama":
		if config.BaseURL == "" {
			config.BaseURL = "http://localhost:11434/v1"
		}
		if config.APIKey == "" {
			config.APIKey = "ollama" // The compatible API requires a non-empty token
		}
		p, err := NewOpenAIProvider(config)
		if err != nil {
			return nil, err
		}
		return &Capabilities{Proposer: p, Extractor: p}, nil

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, ollama)", config.Provider)
	}
}
