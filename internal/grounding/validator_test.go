package grounding

import (
	"context"
	"testing"

	"github.com/ppiankov/veridex/internal/model"
	"github.com/ppiankov/veridex/internal/store"
)

func seedAuthority(t *testing.T, st *store.MemoryStore, url string, verified bool) string {
	t.Helper()
	record, _, err := st.UpsertAuthority(context.Background(), &model.AuthorityRecord{
		SourceTier:   model.TierA,
		SourceType:   model.SourceTypeCase,
		Domain:       "supremecourt.gov",
		CanonicalURL: url,
		Title:        "Miranda v. Arizona",
		Citation:     "384 U.S. 436 (1966)",
		RawText:      "The person in custody must be clearly informed of the right to remain silent.",
		IsVerified:   verified,
	})
	if err != nil {
		t.Fatalf("Seed upsert failed: %v", err)
	}
	return record.ID
}

func citedItem(authorityID string) model.ContentItem {
	return model.ContentItem{
		Type:     "mcq",
		Question: "What must a suspect in custody be told before interrogation?",
		Answer:   "That they have the right to remain silent.",
		Citations: []model.Citation{{
			AuthorityID: authorityID,
			Locator:     model.Locator{ParaStart: 12, ParaEnd: 14},
		}},
		EvidenceSpanIDs: []string{"span-1"},
	}
}

func TestAssertGroundedValid(t *testing.T) {
	st := store.NewMemoryStore()
	id := seedAuthority(t, st, "https://supremecourt.gov/opinions/384us436", true)
	validator := NewValidator(st)

	report, err := validator.AssertGrounded(context.Background(), []model.ContentItem{citedItem(id)}, Options{})
	if err != nil {
		t.Fatalf("AssertGrounded failed: %v", err)
	}
	if !report.IsValid {
		t.Fatalf("Expected valid report, got errors %+v", report.Errors)
	}
	if report.Stats.CitedItems != 1 || report.Stats.UncitedItems != 0 {
		t.Errorf("Unexpected stats: %+v", report.Stats)
	}
}

func TestAssertGroundedMissingCitation(t *testing.T) {
	st := store.NewMemoryStore()
	validator := NewValidator(st)

	report, err := validator.AssertGrounded(context.Background(), []model.ContentItem{{
		Type:        "explanation",
		Explanation: "Hearsay is generally inadmissible unless an exception applies.",
	}}, Options{SessionID: "session-42"})
	if err != nil {
		t.Fatalf("AssertGrounded failed: %v", err)
	}

	if report.IsValid {
		t.Fatal("Expected invalid report for uncited item")
	}
	if len(report.Errors) != 1 || report.Errors[0].Code != CodeMissingCitation {
		t.Fatalf("Expected one MISSING_CITATION error, got %+v", report.Errors)
	}

	// A session-linked failure leaves exactly one audit entry
	entries := st.MissingLogEntries()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 audit entry, got %d", len(entries))
	}
	if entries[0].ErrorTag != model.TagGroundingFailed {
		t.Errorf("Expected tag %s, got %s", model.TagGroundingFailed, entries[0].ErrorTag)
	}
	if entries[0].SessionID != "session-42" {
		t.Errorf("Audit entry should carry the session id, got %q", entries[0].SessionID)
	}
}

func TestAssertGroundedNoAuditWithoutLinkage(t *testing.T) {
	st := store.NewMemoryStore()
	validator := NewValidator(st)

	report, err := validator.AssertGrounded(context.Background(), []model.ContentItem{{
		Type:   "mcq",
		Answer: "No citation here.",
	}}, Options{})
	if err != nil {
		t.Fatalf("AssertGrounded failed: %v", err)
	}
	if report.IsValid {
		t.Fatal("Expected invalid report")
	}
	if entries := st.MissingLogEntries(); len(entries) != 0 {
		t.Errorf("No audit entry expected without session or asset id, got %d", len(entries))
	}
}

func TestAssertGroundedSkipsInstructionOnly(t *testing.T) {
	validator := NewValidator(store.NewMemoryStore())

	report, err := validator.AssertGrounded(context.Background(), []model.ContentItem{{
		Type:              "instruction",
		Prompt:            "Read the following excerpt carefully before answering.",
		IsInstructionOnly: true,
	}}, Options{})
	if err != nil {
		t.Fatalf("AssertGrounded failed: %v", err)
	}
	if !report.IsValid {
		t.Fatalf("Instruction-only items must not require citations, got %+v", report.Errors)
	}
	if report.Stats.SkippedItems != 1 {
		t.Errorf("Expected 1 skipped item, got %d", report.Stats.SkippedItems)
	}
}

func TestAssertGroundedMissingLocator(t *testing.T) {
	st := store.NewMemoryStore()
	id := seedAuthority(t, st, "https://supremecourt.gov/opinions/384us436", true)
	validator := NewValidator(st)

	item := citedItem(id)
	item.Citations[0].Locator = model.Locator{}

	report, err := validator.AssertGrounded(context.Background(), []model.ContentItem{item}, Options{})
	if err != nil {
		t.Fatalf("AssertGrounded failed: %v", err)
	}
	if report.IsValid {
		t.Fatal("Expected invalid report for empty locator")
	}
	if len(report.Errors) != 1 || report.Errors[0].Code != CodeMissingLocator {
		t.Fatalf("Expected one MISSING_LOCATOR error, got %+v", report.Errors)
	}
}

func TestAssertGroundedInvalidAuthority(t *testing.T) {
	st := store.NewMemoryStore()
	unverified := seedAuthority(t, st, "https://supremecourt.gov/opinions/draft", false)
	validator := NewValidator(st)

	items := []model.ContentItem{
		citedItem("00000000-0000-0000-0000-000000000000"),
		citedItem(unverified),
	}

	report, err := validator.AssertGrounded(context.Background(), items, Options{})
	if err != nil {
		t.Fatalf("AssertGrounded failed: %v", err)
	}
	if report.IsValid {
		t.Fatal("Expected invalid report")
	}
	if len(report.Errors) != 2 {
		t.Fatalf("Expected 2 errors, got %+v", report.Errors)
	}
	for _, issue := range report.Errors {
		if issue.Code != CodeInvalidAuthority {
			t.Errorf("Expected INVALID_AUTHORITY, got %s", issue.Code)
		}
	}
	if got := report.Stats.CitedItems + report.Stats.UncitedItems; got != report.Stats.TotalItems {
		t.Errorf("Cited (%d) + uncited (%d) should sum to total (%d)",
			report.Stats.CitedItems, report.Stats.UncitedItems, report.Stats.TotalItems)
	}
}

func TestValidateAndFixReplacesBrokenItems(t *testing.T) {
	st := store.NewMemoryStore()
	id := seedAuthority(t, st, "https://supremecourt.gov/opinions/384us436", true)
	validator := NewValidator(st)

	items := []model.ContentItem{
		citedItem(id),
		{Type: "flashcard", Answer: "Uncited claim about custodial interrogation."},
	}

	result, err := validator.ValidateAndFix(context.Background(), items, Options{AssetID: "asset-7"})
	if err != nil {
		t.Fatalf("ValidateAndFix failed: %v", err)
	}

	if !result.WasFixed {
		t.Fatal("Expected the batch to be fixed")
	}
	if !result.Report.IsValid {
		t.Fatalf("Fixed batch should validate clean, got %+v", result.Report.Errors)
	}
	if result.Report.Stats.FixedItems != 1 {
		t.Errorf("Expected 1 fixed item, got %d", result.Report.Stats.FixedItems)
	}

	// The good item survives untouched; the broken one becomes the fallback
	if len(result.Items[0].Citations) != 1 {
		t.Error("Grounded item should be left alone")
	}
	fixed := result.Items[1]
	if fixed.Explanation != FallbackText {
		t.Errorf("Expected canonical fallback text, got %q", fixed.Explanation)
	}
	if fixed.Type != "flashcard" {
		t.Errorf("Fallback should keep the item type, got %q", fixed.Type)
	}
	if len(fixed.Citations) != 0 {
		t.Error("Fallback item must carry no citations")
	}

	entries := st.MissingLogEntries()
	if len(entries) != 1 || entries[0].AssetID != "asset-7" {
		t.Fatalf("Expected 1 audit entry for asset-7, got %+v", entries)
	}

	// Fixing is idempotent: rerunning over the fixed batch changes nothing
	again, err := validator.ValidateAndFix(context.Background(), result.Items, Options{AssetID: "asset-7"})
	if err != nil {
		t.Fatalf("Second ValidateAndFix failed: %v", err)
	}
	if again.WasFixed {
		t.Error("Rerun over fixed output should not fix again")
	}
	if !again.Report.IsValid {
		t.Errorf("Rerun should validate clean, got %+v", again.Report.Errors)
	}
	if len(st.MissingLogEntries()) != 1 {
		t.Error("Rerun must not append another audit entry")
	}
}

func TestValidateWarnsOnMostlyUncitedBatch(t *testing.T) {
	st := store.NewMemoryStore()
	id := seedAuthority(t, st, "https://supremecourt.gov/opinions/384us436", true)
	validator := NewValidator(st)

	items := []model.ContentItem{
		citedItem(id),
		{Type: "instruction", Prompt: "Section intro.", IsInstructionOnly: true},
		{Type: "instruction", Prompt: "Answer the next three questions.", IsInstructionOnly: true},
		{Type: "instruction", Prompt: "Use only the excerpt above.", IsInstructionOnly: true},
	}

	report, err := validator.AssertGrounded(context.Background(), items, Options{})
	if err != nil {
		t.Fatalf("AssertGrounded failed: %v", err)
	}
	if !report.IsValid {
		t.Fatalf("Instruction-heavy batch should still be valid, got %+v", report.Errors)
	}

	found := false
	for _, w := range report.Warnings {
		if w.Index == -1 {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected a batch-level citation coverage warning, got %+v", report.Warnings)
	}
}
