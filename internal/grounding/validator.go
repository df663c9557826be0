// Package grounding enforces the citation invariant over generated content:
// every non-trivial item must cite at least one existing verified authority
// with a usable locator before it reaches a learner.
package grounding

import (
	"context"
	"fmt"

	"github.com/ppiankov/veridex/internal/model"
	"github.com/ppiankov/veridex/internal/store"
)

// Code identifies one grounding violation
type Code string

const (
	CodeMissingCitation  Code = "MISSING_CITATION"
	CodeMissingLocator   Code = "MISSING_LOCATOR"
	CodeInvalidAuthority Code = "INVALID_AUTHORITY"
)

// Issue is one violation or warning found in a content batch
type Issue struct {
	Index    int    `json:"index"` // Position of the item in the batch
	ItemType string `json:"item_type,omitempty"`
	Code     Code   `json:"code,omitempty"`
	Detail   string `json:"detail"`
}

// Stats summarizes a validated batch
type Stats struct {
	TotalItems   int `json:"total_items"`
	CitedItems   int `json:"cited_items"`
	UncitedItems int `json:"uncited_items"`
	SkippedItems int `json:"skipped_items"`
	FixedItems   int `json:"fixed_items,omitempty"`
}

// Report is the outcome of validating one content batch
type Report struct {
	IsValid  bool    `json:"is_valid"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
	Stats    Stats   `json:"stats"`
}

// FixResult is the outcome of soft-mode validation
type FixResult struct {
	Items    []model.ContentItem `json:"items"`
	Report   *Report             `json:"report"`
	WasFixed bool                `json:"was_fixed"`
}

// Options carries the audit linkage for a validation call
type Options struct {
	SessionID string
	AssetID   string
}

// FallbackText is the fixed, honestly-labeled message shown to learners in
// place of content whose groundedness could not be proven. Never improvised.
const FallbackText = "This content could not be verified against an authoritative source and has been withheld. Please consult your assigned course materials for this topic."

// FallbackItem returns the canonical replacement for an unverifiable item.
// It carries no citations and asserts nothing, so it always validates clean.
func FallbackItem(itemType string) model.ContentItem {
	return model.ContentItem{
		Type:        itemType,
		Explanation: FallbackText,
	}
}

// isFallback recognizes the canonical fallback message, which keeps
// ValidateAndFix idempotent over its own output
func isFallback(item model.ContentItem) bool {
	return item.Explanation == FallbackText && len(item.Citations) == 0
}

// Validator checks content batches against the authority store
type Validator struct {
	store store.Store
}

// NewValidator creates a validator over the given store
func NewValidator(st store.Store) *Validator {
	return &Validator{store: st}
}

// AssertGrounded validates a batch in strict mode: any error means the caller
// must reject the whole batch. Authority existence is resolved with a single
// batched lookup, never per citation.
func (v *Validator) AssertGrounded(ctx context.Context, items []model.ContentItem, opts Options) (*Report, error) {
	report, err := v.validate(ctx, items)
	if err != nil {
		return nil, err
	}

	if !report.IsValid {
		if err := v.audit(ctx, report, opts); err != nil {
			return nil, err
		}
	}
	return report, nil
}

// ValidateAndFix validates in soft mode: every erroring item is replaced in
// place by the fixed fallback item and the batch is re-validated, so the
// returned batch is always fully grounded or explicitly marked unverified.
func (v *Validator) ValidateAndFix(ctx context.Context, items []model.ContentItem, opts Options) (*FixResult, error) {
	report, err := v.validate(ctx, items)
	if err != nil {
		return nil, err
	}

	if report.IsValid {
		return &FixResult{Items: items, Report: report, WasFixed: false}, nil
	}

	if err := v.audit(ctx, report, opts); err != nil {
		return nil, err
	}

	fixed := make([]model.ContentItem, len(items))
	copy(fixed, items)

	broken := make(map[int]bool)
	for _, issue := range report.Errors {
		broken[issue.Index] = true
	}
	for idx := range broken {
		fixed[idx] = FallbackItem(fixed[idx].Type)
	}

	recheck, err := v.validate(ctx, fixed)
	if err != nil {
		return nil, err
	}
	recheck.Stats.FixedItems = len(broken)

	return &FixResult{Items: fixed, Report: recheck, WasFixed: true}, nil
}

func (v *Validator) validate(ctx context.Context, items []model.ContentItem) (*Report, error) {
	report := &Report{IsValid: true}
	report.Stats.TotalItems = len(items)

	// One batched existence check for the whole submission
	idSet := make(map[string]bool)
	var ids []string
	for _, item := range items {
		for _, citation := range item.Citations {
			if citation.AuthorityID != "" && !idSet[citation.AuthorityID] {
				idSet[citation.AuthorityID] = true
				ids = append(ids, citation.AuthorityID)
			}
		}
	}
	existing, err := v.store.ExistingAuthorityIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("check authority ids: %w", err)
	}

	for i, item := range items {
		if len(item.Citations) > 0 {
			report.Stats.CitedItems++
		} else {
			report.Stats.UncitedItems++
		}

		if item.IsInstructionOnly || isFallback(item) {
			report.Stats.SkippedItems++
			continue
		}

		if len(item.Citations) == 0 {
			report.Errors = append(report.Errors, Issue{
				Index:    i,
				ItemType: item.Type,
				Code:     CodeMissingCitation,
				Detail:   "item has no citations",
			})
			continue
		}

		for _, citation := range item.Citations {
			switch {
			case citation.AuthorityID == "":
				report.Errors = append(report.Errors, Issue{
					Index:    i,
					ItemType: item.Type,
					Code:     CodeMissingCitation,
					Detail:   "citation has no authority id",
				})
			case citation.Locator.IsEmpty():
				report.Errors = append(report.Errors, Issue{
					Index:    i,
					ItemType: item.Type,
					Code:     CodeMissingLocator,
					Detail:   fmt.Sprintf("citation of %s has an empty locator", citation.AuthorityID),
				})
			case !existing[citation.AuthorityID]:
				report.Errors = append(report.Errors, Issue{
					Index:    i,
					ItemType: item.Type,
					Code:     CodeInvalidAuthority,
					Detail:   fmt.Sprintf("authority %s does not resolve to a verified record", citation.AuthorityID),
				})
			}
		}

		if len(item.EvidenceSpanIDs) == 0 {
			report.Warnings = append(report.Warnings, Issue{
				Index:    i,
				ItemType: item.Type,
				Detail:   "item has no evidence span ids",
			})
		}
	}

	if report.Stats.TotalItems >= 4 && report.Stats.CitedItems*2 < report.Stats.TotalItems {
		report.Warnings = append(report.Warnings, Issue{
			Index:  -1,
			Detail: fmt.Sprintf("only %d of %d items carry citations", report.Stats.CitedItems, report.Stats.TotalItems),
		})
	}

	report.IsValid = len(report.Errors) == 0
	return report, nil
}

// audit appends one grounding-failure entry to the shared missing-authority
// log when the caller supplied a session or asset id
func (v *Validator) audit(ctx context.Context, report *Report, opts Options) error {
	if opts.SessionID == "" && opts.AssetID == "" {
		return nil
	}

	snapshot := fmt.Sprintf("errors=%d warnings=%d cited=%d/%d",
		len(report.Errors), len(report.Warnings), report.Stats.CitedItems, report.Stats.TotalItems)

	_, err := v.store.AppendMissingLog(ctx, &model.MissingAuthorityLogEntry{
		ClaimText:      "content batch failed grounding validation",
		ResultSnapshot: snapshot,
		ErrorTag:       model.TagGroundingFailed,
		SessionID:      opts.SessionID,
		AssetID:        opts.AssetID,
	})
	if err != nil {
		return fmt.Errorf("append grounding audit entry: %w", err)
	}
	return nil
}
