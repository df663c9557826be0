package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/veridex/internal/model"
)

const (
	maxParsedCandidates = 10
	maxParsedPassages   = 5
)

// stripCodeFence removes a markdown code fence wrapper if the model added one
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

type candidateJSON struct {
	URL               string `json:"url"`
	Title             string `json:"title"`
	SourceType        string `json:"source_type"`
	SuggestedCitation string `json:"suggested_citation"`
}

// ParseCandidates parses a model response into candidates, discarding
// anything that is not an http(s) URL. Unknown source types degrade to OTHER
// because the tag is the model's guess, not a trust signal.
func ParseCandidates(raw string) ([]Candidate, error) {
	var parsed []candidateJSON
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("parse candidate response: %w", err)
	}

	var candidates []Candidate
	for _, c := range parsed {
		if len(candidates) >= maxParsedCandidates {
			break
		}

		url := strings.TrimSpace(c.URL)
		if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			continue
		}

		sourceType, err := model.ParseSourceType(c.SourceType)
		if err != nil {
			sourceType = model.SourceTypeOther
		}

		candidates = append(candidates, Candidate{
			URL:               url,
			Title:             strings.TrimSpace(c.Title),
			SourceType:        sourceType,
			SuggestedCitation: strings.TrimSpace(c.SuggestedCitation),
		})
	}

	return candidates, nil
}

type passageJSON struct {
	Text      string        `json:"text"`
	Locator   model.Locator `json:"locator"`
	Relevance float64       `json:"relevance"`
}

// ParsePassages parses a model response into proposed passages. Empty texts
// are dropped here; length bounds and the substring check happen downstream.
func ParsePassages(raw string) ([]ProposedPassage, error) {
	var parsed []passageJSON
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("parse passage response: %w", err)
	}

	var passages []ProposedPassage
	for _, p := range parsed {
		if len(passages) >= maxParsedPassages {
			break
		}
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		passages = append(passages, ProposedPassage{
			Text:      p.Text,
			Locator:   p.Locator,
			Relevance: p.Relevance,
		})
	}

	return passages, nil
}
