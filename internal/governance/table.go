package governance

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/ppiankov/veridex/internal/model"
)

// Category groups allowed domains by the kind of legal source they publish,
// which selects the metadata heuristics applied to their pages
type Category string

const (
	CategoryCaselaw    Category = "caselaw"
	CategoryStatute    Category = "statute"
	CategoryRegulation Category = "regulation"
	CategoryAcademic   Category = "academic"
)

// Info is the governance entry for one allowed domain
type Info struct {
	Domain        string
	Tier          model.SourceTier
	Jurisdiction  string
	License       string
	AllowVerbatim bool
	Category      Category
}

// Table is the static domain governance table. Candidate URLs originate from
// an untrusted proposer; the table is the first fail-closed gate before any
// network call. Subdomains of an allowed domain are allowed; nothing else is.
type Table struct {
	byDomain map[string]Info
}

// NewTable builds a table from configured rules. An unrecognized tier tag
// fails loudly at load time instead of silently degrading.
func NewTable(rules []model.DomainRule) (*Table, error) {
	if len(rules) == 0 {
		rules = DefaultRules()
	}

	table := &Table{byDomain: make(map[string]Info, len(rules))}
	for _, rule := range rules {
		tier, err := model.ParseSourceTier(rule.Tier)
		if err != nil {
			return nil, fmt.Errorf("governance rule for %q: %w", rule.Domain, err)
		}

		domain := strings.ToLower(strings.TrimSpace(rule.Domain))
		if domain == "" {
			return nil, fmt.Errorf("governance rule with empty domain")
		}

		table.byDomain[domain] = Info{
			Domain:        domain,
			Tier:          tier,
			Jurisdiction:  rule.Jurisdiction,
			License:       rule.License,
			AllowVerbatim: rule.AllowVerbatim,
			Category:      Category(rule.Category),
		}
	}

	return table, nil
}

// Lookup resolves a URL to its governance entry.
// Returns false when the URL's host is not under any allowed domain.
func (t *Table) Lookup(rawURL string) (Info, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return Info{}, false
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return Info{}, false
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return Info{}, false
	}

	// Exact match first
	if info, ok := t.byDomain[host]; ok {
		return info, true
	}

	// Subdomains inherit the parent domain's entry
	for domain, info := range t.byDomain {
		if strings.HasSuffix(host, "."+domain) {
			return info, true
		}
	}

	return Info{}, false
}

// Domains lists every governed domain, for constraining the proposer prompt
func (t *Table) Domains() []string {
	domains := make([]string, 0, len(t.byDomain))
	for domain := range t.byDomain {
		domains = append(domains, domain)
	}
	sort.Strings(domains)
	return domains
}

// IsAllowed reports whether a URL may be fetched at all
func (t *Table) IsAllowed(rawURL string) bool {
	_, ok := t.Lookup(rawURL)
	return ok
}

// DefaultRules returns the built-in curated allowlist of official and
// established legal-source domains
func DefaultRules() []model.DomainRule {
	return []model.DomainRule{
		{Domain: "supremecourt.gov", Tier: "A", Jurisdiction: "US-Federal", License: "public-domain", AllowVerbatim: true, Category: "caselaw"},
		{Domain: "uscourts.gov", Tier: "A", Jurisdiction: "US-Federal", License: "public-domain", AllowVerbatim: true, Category: "caselaw"},
		{Domain: "congress.gov", Tier: "A", Jurisdiction: "US-Federal", License: "public-domain", AllowVerbatim: true, Category: "statute"},
		{Domain: "govinfo.gov", Tier: "A", Jurisdiction: "US-Federal", License: "public-domain", AllowVerbatim: true, Category: "statute"},
		{Domain: "ecfr.gov", Tier: "A", Jurisdiction: "US-Federal", License: "public-domain", AllowVerbatim: true, Category: "regulation"},
		{Domain: "federalregister.gov", Tier: "A", Jurisdiction: "US-Federal", License: "public-domain", AllowVerbatim: true, Category: "regulation"},
		{Domain: "legislation.gov.uk", Tier: "A", Jurisdiction: "UK", License: "open-government", AllowVerbatim: true, Category: "statute"},
		{Domain: "law.cornell.edu", Tier: "B", Jurisdiction: "US", License: "cc-by-nc", AllowVerbatim: true, Category: "statute"},
		{Domain: "courtlistener.com", Tier: "B", Jurisdiction: "US", License: "public-domain", AllowVerbatim: true, Category: "caselaw"},
		{Domain: "oyez.org", Tier: "B", Jurisdiction: "US", License: "cc-by-nc", AllowVerbatim: false, Category: "caselaw"},
		{Domain: "justia.com", Tier: "C", Jurisdiction: "US", License: "proprietary", AllowVerbatim: false, Category: "caselaw"},
	}
}
