package model

// ContentItem is one piece of generated learner content, produced elsewhere
// and consumed here by the grounding validator
type ContentItem struct {
	Type              string     `json:"type"` // e.g. "mcq", "flashcard", "explanation"
	Prompt            string     `json:"prompt,omitempty"`
	Question          string     `json:"question,omitempty"`
	Answer            string     `json:"answer,omitempty"`
	Explanation       string     `json:"explanation,omitempty"`
	Citations         []Citation `json:"citations,omitempty"`
	EvidenceSpanIDs   []string   `json:"evidence_span_ids,omitempty"`
	IsInstructionOnly bool       `json:"is_instruction_only,omitempty"`
}
