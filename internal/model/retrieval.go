package model

import "time"

// FailureTag identifies why a retrieval (or grounding) attempt degraded to fallback
type FailureTag string

const (
	TagNoCandidates         FailureTag = "NO_CANDIDATES"          // Proposer returned nothing usable
	TagAllRejectedAllowlist FailureTag = "ALL_REJECTED_ALLOWLIST" // Every candidate was off-allowlist
	TagExtractionFailed     FailureTag = "EXTRACTION_FAILED"      // All fetch/verify attempts failed
	TagGroundingFailed      FailureTag = "GROUNDING_FAILED"       // Content batch failed citation checks
)

var failureTags = map[FailureTag]bool{
	TagNoCandidates:         true,
	TagAllRejectedAllowlist: true,
	TagExtractionFailed:     true,
	TagGroundingFailed:      true,
}

// Valid reports whether the tag is a known member of the enumeration
func (t FailureTag) Valid() bool {
	return failureTags[t]
}

// RetrievalQuery is the input to the retrieval orchestrator
type RetrievalQuery struct {
	SkillID      string       `json:"skill_id"`
	SkillName    string       `json:"skill_name"`
	Concept      string       `json:"concept"`
	Jurisdiction string       `json:"jurisdiction,omitempty"`
	SourceTypes  []SourceType `json:"source_types,omitempty"`
}

// RetrievedAuthority is one citation-ready authority returned to a content generator
type RetrievedAuthority struct {
	AuthorityID     string     `json:"authority_id"`
	PassageIDs      []string   `json:"passage_ids"`
	Title           string     `json:"title"`
	Citation        string     `json:"citation,omitempty"`
	URL             string     `json:"url"`
	Tier            SourceTier `json:"tier"`
	VerbatimAllowed bool       `json:"verbatim_allowed"` // From the domain's license tag, never from content
}

// RetrievalResult is the outcome of one RetrieveAuthorities call.
// Expected failures are encoded here, never raised: every result with
// FallbackUsed=true has a corresponding missing-authority log entry.
type RetrievalResult struct {
	Success      bool                 `json:"success"`
	Authorities  []RetrievedAuthority `json:"authorities"`
	FallbackUsed bool                 `json:"fallback_used"`
	MissingLogID string               `json:"missing_log_id,omitempty"`
}

// MissingAuthorityLogEntry is one append-only audit record of a retrieval or
// grounding failure. Never referenced by downstream content; ops visibility only.
type MissingAuthorityLogEntry struct {
	ID             string     `json:"id"`
	ClaimText      string     `json:"claim_text"`
	SkillIDs       []string   `json:"skill_ids,omitempty"`
	SearchQuery    string     `json:"search_query,omitempty"`
	ResultSnapshot string     `json:"result_snapshot,omitempty"`
	ErrorTag       FailureTag `json:"error_tag"`
	SessionID      string     `json:"session_id,omitempty"`
	AssetID        string     `json:"asset_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
