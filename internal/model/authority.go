package model

import (
	"fmt"
	"strings"
	"time"
)

// SourceTier classifies how much trust a source's domain carries
type SourceTier string

const (
	TierA SourceTier = "A" // Primary official sources: courts, legislatures, regulators
	TierB SourceTier = "B" // Established secondary sources: law schools, legal archives
	TierC SourceTier = "C" // Curated tertiary sources: commentary, practice guides
)

var sourceTiers = map[SourceTier]bool{
	TierA: true,
	TierB: true,
	TierC: true,
}

// ParseSourceTier converts a tier tag to a SourceTier.
// Unknown tags are an error, never a silent default.
func ParseSourceTier(s string) (SourceTier, error) {
	tier := SourceTier(strings.ToUpper(strings.TrimSpace(s)))
	if !sourceTiers[tier] {
		return "", fmt.Errorf("unknown source tier: %q (expected A, B, or C)", s)
	}
	return tier, nil
}

// Valid reports whether the tier is a known member of the enumeration
func (t SourceTier) Valid() bool {
	return sourceTiers[t]
}

// SourceType categorizes the kind of legal source behind an authority
type SourceType string

const (
	SourceTypeCase       SourceType = "CASE"
	SourceTypeStatute    SourceType = "STATUTE"
	SourceTypeRegulation SourceType = "REGULATION"
	SourceTypeArticle    SourceType = "ARTICLE"
	SourceTypeTextbook   SourceType = "TEXTBOOK"
	SourceTypeOther      SourceType = "OTHER"
)

var sourceTypes = map[SourceType]bool{
	SourceTypeCase:       true,
	SourceTypeStatute:    true,
	SourceTypeRegulation: true,
	SourceTypeArticle:    true,
	SourceTypeTextbook:   true,
	SourceTypeOther:      true,
}

// ParseSourceType converts a source-type tag to a SourceType
func ParseSourceType(s string) (SourceType, error) {
	st := SourceType(strings.ToUpper(strings.TrimSpace(s)))
	if !sourceTypes[st] {
		return "", fmt.Errorf("unknown source type: %q", s)
	}
	return st, nil
}

// Valid reports whether the source type is a known member of the enumeration
func (t SourceType) Valid() bool {
	return sourceTypes[t]
}

// AuthorityRecord is a verified external source. Created exactly once per
// canonical URL, the first time a fetch+verify succeeds; immutable afterward
// and never hard-deleted, so citations stay resolvable forever.
type AuthorityRecord struct {
	ID           string     `json:"id"`
	SourceTier   SourceTier `json:"source_tier"`
	SourceType   SourceType `json:"source_type"`
	Domain       string     `json:"domain"`
	CanonicalURL string     `json:"canonical_url"` // Natural dedup key
	Title        string     `json:"title"`
	Jurisdiction string     `json:"jurisdiction,omitempty"`
	Citation     string     `json:"citation,omitempty"` // e.g. "384 U.S. 436"
	DecisionDate *time.Time `json:"decision_date,omitempty"`
	ActName      string     `json:"act_name,omitempty"`
	SectionPath  string     `json:"section_path,omitempty"`
	LicenseTag   string     `json:"license_tag,omitempty"`
	CourtName    string     `json:"court_name,omitempty"` // Caselaw sources only
	ContentHash  string     `json:"content_hash"`
	RawText      string     `json:"raw_text"` // Bounded excerpt of the fetched text
	IsVerified   bool       `json:"is_verified"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Locator points into a position inside an authority's text
type Locator struct {
	ParaStart int    `json:"para_start,omitempty"`
	ParaEnd   int    `json:"para_end,omitempty"`
	Section   string `json:"section,omitempty"`
	Page      string `json:"page,omitempty"`
}

// IsEmpty reports whether the locator carries no position at all
func (l Locator) IsEmpty() bool {
	return l.ParaStart == 0 && l.ParaEnd == 0 && l.Section == "" && l.Page == ""
}

// AuthorityPassage is a verbatim excerpt of its owning AuthorityRecord.
// Invariant: Text is an exact whitespace/case-normalized substring of the
// parent record's stored text at creation time — checked once, never re-derived.
type AuthorityPassage struct {
	ID          string    `json:"id"`
	AuthorityID string    `json:"authority_id"`
	Text        string    `json:"text"`
	Locator     Locator   `json:"locator"`
	SnippetHash string    `json:"snippet_hash"`
	CreatedAt   time.Time `json:"created_at"`
}

// Citation is an embedded reference from generated content to an authority.
// It is a value carried inside content items, never persisted on its own.
type Citation struct {
	AuthorityID string  `json:"authority_id"`
	URL         string  `json:"url,omitempty"`
	Locator     Locator `json:"locator"`
	PassageID   string  `json:"passage_id,omitempty"`
	Quote       string  `json:"quote,omitempty"`
}
