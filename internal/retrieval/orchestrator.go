// Package retrieval sequences proposal, allowlist filtering, bounded
// fetching, passage verification and persistence into one idempotent
// RetrieveAuthorities call.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ppiankov/veridex/internal/fetch"
	"github.com/ppiankov/veridex/internal/governance"
	"github.com/ppiankov/veridex/internal/llm"
	"github.com/ppiankov/veridex/internal/model"
	"github.com/ppiankov/veridex/internal/store"
	"github.com/ppiankov/veridex/internal/verify"
)

// Orchestrator coordinates the retrieval pipeline. It holds no mutable
// state of its own; all cross-request coordination happens through the
// store's canonical URL uniqueness.
type Orchestrator struct {
	store     store.Store
	table     *governance.Table
	fetcher   *fetch.Fetcher
	proposer  llm.CandidateProposer
	extractor llm.PassageExtractor
	cfg       model.RetrievalConfig
}

// NewOrchestrator wires the pipeline's collaborators
func NewOrchestrator(st store.Store, table *governance.Table, fetcher *fetch.Fetcher,
	proposer llm.CandidateProposer, extractor llm.PassageExtractor, cfg model.RetrievalConfig) *Orchestrator {
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = 3
	}
	if cfg.MaxPassages <= 0 {
		cfg.MaxPassages = 3
	}
	if cfg.ExcerptChars <= 0 {
		cfg.ExcerptChars = 30_000
	}
	if cfg.MinPassageChars <= 0 {
		cfg.MinPassageChars = 50
	}
	if cfg.MaxPassageChars <= 0 {
		cfg.MaxPassageChars = 500
	}

	return &Orchestrator{
		store:     st,
		table:     table,
		fetcher:   fetcher,
		proposer:  proposer,
		extractor: extractor,
		cfg:       cfg,
	}
}

// RetrieveAuthorities turns a concept query into citation-ready verified
// authorities. Expected failures degrade to FallbackUsed=true with exactly
// one audit log entry; only malformed input returns an error.
func (o *Orchestrator) RetrieveAuthorities(ctx context.Context, query model.RetrievalQuery) (*model.RetrievalResult, error) {
	if strings.TrimSpace(query.Concept) == "" {
		return nil, fmt.Errorf("retrieval query requires a concept")
	}

	// 1. Cache check: stored verified authorities short-circuit the
	// network and model entirely, making retries idempotent and cheap
	keywords := ExtractKeywords(query.Concept)
	if cached, err := o.cacheLookup(ctx, keywords); err != nil {
		return nil, err
	} else if len(cached) > 0 {
		return &model.RetrievalResult{Success: true, Authorities: cached}, nil
	}

	if o.proposer == nil || o.extractor == nil {
		return o.fallback(ctx, query, model.TagNoCandidates, "no proposer configured")
	}

	// 2. Propose candidates (untrusted)
	candidates, err := o.proposer.ProposeCandidates(ctx, llm.ProposeRequest{
		Concept:      query.Concept,
		SkillName:    query.SkillName,
		Jurisdiction: query.Jurisdiction,
		SourceTypes:  query.SourceTypes,
		Domains:      o.table.Domains(),
	})
	if err != nil {
		return o.fallback(ctx, query, model.TagNoCandidates, fmt.Sprintf("proposer error: %v", err))
	}
	if len(candidates) == 0 {
		return o.fallback(ctx, query, model.TagNoCandidates, "proposer returned no candidates")
	}

	// 3. Allowlist filter: the first fail-closed gate before any fetch
	var allowed []llm.Candidate
	for _, candidate := range candidates {
		if o.table.IsAllowed(candidate.URL) {
			allowed = append(allowed, candidate)
		}
	}
	if len(allowed) == 0 {
		return o.fallback(ctx, query, model.TagAllRejectedAllowlist,
			fmt.Sprintf("all %d proposed candidates off-allowlist", len(candidates)))
	}

	if len(allowed) > o.cfg.MaxCandidates {
		allowed = allowed[:o.cfg.MaxCandidates]
	}

	// 4. Bounded fan-out: candidates are independent; individual failures
	// never abort the loop, and each attempt carries its own timeout
	results := make([]*model.RetrievedAuthority, len(allowed))
	errs := make([]error, len(allowed))

	var wg sync.WaitGroup
	for i, candidate := range allowed {
		wg.Add(1)
		go func(idx int, c llm.Candidate) {
			defer wg.Done()

			attemptCtx := ctx
			if o.cfg.CandidateTimeout > 0 {
				var cancel context.CancelFunc
				attemptCtx, cancel = context.WithTimeout(ctx, o.cfg.CandidateTimeout)
				defer cancel()
			}

			retrieved, err := o.fetchAndStore(attemptCtx, c, query)
			if err != nil {
				errs[idx] = fmt.Errorf("%s: %w", c.URL, err)
				return
			}
			results[idx] = retrieved
		}(i, candidate)
	}
	wg.Wait()

	var authorities []model.RetrievedAuthority
	for _, r := range results {
		if r != nil {
			authorities = append(authorities, *r)
		}
	}

	// 5. All attempts failed is one retrieval failure, not an error
	if len(authorities) == 0 {
		var parts []string
		for _, err := range errs {
			if err != nil {
				parts = append(parts, err.Error())
			}
		}
		return o.fallback(ctx, query, model.TagExtractionFailed, strings.Join(parts, "; "))
	}

	return &model.RetrievalResult{Success: true, Authorities: authorities}, nil
}

// cacheLookup searches stored verified authorities by keyword overlap.
// A record must match at least half of the query's keywords (minimum two
// when the query has several) to avoid false hits on shared legal vocabulary.
func (o *Orchestrator) cacheLookup(ctx context.Context, keywords []string) ([]model.RetrievedAuthority, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	records, err := o.store.SearchAuthorities(ctx, keywords, 10)
	if err != nil {
		return nil, fmt.Errorf("search authorities: %w", err)
	}

	overlap := o.cfg.MinKeywordOverlap
	if overlap <= 0 {
		overlap = 0.5
	}
	required := int(float64(len(keywords))*overlap + 0.999)
	if required < 1 {
		required = 1
	}
	if len(keywords) >= 2 && required < 2 {
		required = 2
	}

	var authorities []model.RetrievedAuthority
	for _, record := range records {
		haystack := record.Title + " " + record.Citation + " " + record.RawText
		if keywordOverlap(haystack, keywords) < required {
			continue
		}
		retrieved, err := o.toRetrieved(ctx, record)
		if err != nil {
			return nil, err
		}
		authorities = append(authorities, retrieved)
	}
	return authorities, nil
}

// fetchAndStore runs fetch, extract, verify and persist for one candidate
func (o *Orchestrator) fetchAndStore(ctx context.Context, candidate llm.Candidate, query model.RetrievalQuery) (*model.RetrievedAuthority, error) {
	// Re-resolve governance defensively; a candidate must never reach the
	// network on the strength of an earlier check alone
	info, ok := o.table.Lookup(candidate.URL)
	if !ok {
		return nil, fmt.Errorf("domain not governed")
	}

	canonicalURL, err := CanonicalURL(candidate.URL)
	if err != nil {
		return nil, err
	}

	// Dedup short-circuit: an existing record is adopted, never re-fetched
	if existing, err := o.store.GetAuthorityByURL(ctx, canonicalURL); err == nil {
		retrieved, err := o.toRetrieved(ctx, existing)
		if err != nil {
			return nil, err
		}
		return &retrieved, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	page, err := o.fetcher.FetchText(ctx, candidate.URL)
	if err != nil {
		return nil, err
	}

	// The excerpt sent to the extractor is also what gets stored, so every
	// verified passage stays findable in its parent's persisted text
	excerpt := truncateRunes(page.Text, o.cfg.ExcerptChars)

	proposed, err := o.extractor.ExtractPassages(ctx, llm.ExtractRequest{
		Concept:     query.Concept,
		Excerpt:     excerpt,
		SourceType:  candidate.SourceType,
		MaxPassages: o.cfg.MaxPassages,
		MinChars:    o.cfg.MinPassageChars,
		MaxChars:    o.cfg.MaxPassageChars,
	})
	if err != nil {
		return nil, fmt.Errorf("extract passages: %w", err)
	}

	// Verification: only passages literally present in the source survive.
	// Zero survivors fails the whole candidate; nothing is persisted for a
	// source with no verified content.
	var survivors []llm.ProposedPassage
	for _, p := range proposed {
		if len(survivors) >= o.cfg.MaxPassages {
			break
		}
		if p.Locator.IsEmpty() {
			continue
		}
		if !verify.WithinBounds(p.Text, o.cfg.MinPassageChars, o.cfg.MaxPassageChars) {
			continue
		}
		if !verify.PassageInSource(p.Text, excerpt) {
			continue
		}
		survivors = append(survivors, p)
	}
	if len(survivors) == 0 {
		return nil, fmt.Errorf("no passage verified against source text")
	}

	meta := fetch.ExtractMetadata(page.Text, info.Category)
	citation := meta.Citation
	if citation == "" {
		citation = candidate.SuggestedCitation
	}
	title := candidate.Title
	if title == "" {
		title = query.Concept
	}

	record := &model.AuthorityRecord{
		SourceTier:   info.Tier,
		SourceType:   candidate.SourceType,
		Domain:       info.Domain,
		CanonicalURL: canonicalURL,
		Title:        title,
		Jurisdiction: info.Jurisdiction,
		Citation:     citation,
		ActName:      meta.ActName,
		SectionPath:  meta.SectionPath,
		LicenseTag:   info.License,
		CourtName:    meta.Court,
		ContentHash:  verify.Hash(page.Text),
		RawText:      excerpt,
		// Allowlist membership plus substring verification together
		// constitute the trust proof
		IsVerified: true,
	}

	stored, created, err := o.store.UpsertAuthority(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("upsert authority: %w", err)
	}

	// Passages may only ever attach to the text they were verified against.
	// The creator's survivors match stored.RawText by construction; a loser
	// that adopted a racing winner's row re-verifies against the winner's
	// text, and only to repair a record that has no passages at all.
	insert := survivors
	if !created {
		existing, err := o.store.PassagesForAuthority(ctx, stored.ID)
		if err != nil {
			return nil, err
		}
		if len(existing) > 0 {
			insert = nil
		} else {
			insert = nil
			for _, p := range survivors {
				if verify.PassageInSource(p.Text, stored.RawText) {
					insert = append(insert, p)
				}
			}
		}
	}
	if len(insert) > 0 {
		passages := make([]*model.AuthorityPassage, 0, len(insert))
		for _, p := range insert {
			passages = append(passages, &model.AuthorityPassage{
				AuthorityID: stored.ID,
				Text:        p.Text,
				Locator:     p.Locator,
				SnippetHash: verify.SnippetHash(p.Text),
			})
		}
		if err := o.store.InsertPassages(ctx, passages); err != nil {
			return nil, fmt.Errorf("insert passages: %w", err)
		}
	}

	retrieved, err := o.toRetrieved(ctx, stored)
	if err != nil {
		return nil, err
	}
	return &retrieved, nil
}

// toRetrieved builds the citation bundle handed back to content generators
func (o *Orchestrator) toRetrieved(ctx context.Context, record *model.AuthorityRecord) (model.RetrievedAuthority, error) {
	passages, err := o.store.PassagesForAuthority(ctx, record.ID)
	if err != nil {
		return model.RetrievedAuthority{}, err
	}

	passageIDs := make([]string, 0, len(passages))
	for _, p := range passages {
		passageIDs = append(passageIDs, p.ID)
	}

	// Verbatim permission comes from current governance, never from content
	verbatim := false
	if info, ok := o.table.Lookup(record.CanonicalURL); ok {
		verbatim = info.AllowVerbatim
	}

	return model.RetrievedAuthority{
		AuthorityID:     record.ID,
		PassageIDs:      passageIDs,
		Title:           record.Title,
		Citation:        record.Citation,
		URL:             record.CanonicalURL,
		Tier:            record.SourceTier,
		VerbatimAllowed: verbatim,
	}, nil
}

// fallback writes the mandatory audit entry and returns the degraded result.
// Every FallbackUsed=true path goes through here; the log entry is the
// caller's only observability into grounding gaps.
func (o *Orchestrator) fallback(ctx context.Context, query model.RetrievalQuery, tag model.FailureTag, snapshot string) (*model.RetrievalResult, error) {
	var skillIDs []string
	if query.SkillID != "" {
		skillIDs = append(skillIDs, query.SkillID)
	}

	logID, err := o.store.AppendMissingLog(ctx, &model.MissingAuthorityLogEntry{
		ClaimText:      query.Concept,
		SkillIDs:       skillIDs,
		SearchQuery:    strings.Join(ExtractKeywords(query.Concept), " "),
		ResultSnapshot: snapshot,
		ErrorTag:       tag,
	})
	if err != nil {
		return nil, fmt.Errorf("append missing-authority log: %w", err)
	}

	return &model.RetrievalResult{
		Success:      false,
		FallbackUsed: true,
		MissingLogID: logID,
	}, nil
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
