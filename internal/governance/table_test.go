package governance

import (
	"testing"

	"github.com/ppiankov/veridex/internal/model"
)

func TestTable_Lookup_DefaultRules(t *testing.T) {
	table, err := NewTable(nil)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	info, ok := table.Lookup("https://www.supremecourt.gov/opinions/21pdf/20-1199.pdf")
	if !ok {
		t.Fatal("Expected supremecourt.gov subdomain to be allowed")
	}
	if info.Tier != model.TierA {
		t.Errorf("Expected tier A, got %s", info.Tier)
	}
	if !info.AllowVerbatim {
		t.Error("Expected public-domain source to allow verbatim quoting")
	}

	if _, ok := table.Lookup("https://random-law-blog.example.com/hearsay"); ok {
		t.Error("Expected unlisted domain to be rejected")
	}
}

func TestTable_Lookup_SubdomainsOnly(t *testing.T) {
	table, err := NewTable([]model.DomainRule{
		{Domain: "law.cornell.edu", Tier: "B", License: "cc-by-nc", AllowVerbatim: true},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	tests := []struct {
		url     string
		allowed bool
	}{
		{"https://law.cornell.edu/uscode/text/42/1983", true},
		{"https://www.law.cornell.edu/wex/hearsay", true},
		{"https://LAW.CORNELL.EDU/rules", true},
		{"https://law.cornell.edu:443/rules", true},
		{"https://evil-law.cornell.edu.attacker.io/x", false},
		{"https://notlaw.cornell.edu.example.org", false},
		{"https://cornell.edu/about", false}, // Parent of the allowed domain, not a subdomain
		{"ftp://law.cornell.edu/file", false},
		{"not a url at all", false},
	}

	for _, tt := range tests {
		if got := table.IsAllowed(tt.url); got != tt.allowed {
			t.Errorf("IsAllowed(%q) = %v, want %v", tt.url, got, tt.allowed)
		}
	}
}

func TestNewTable_UnknownTierFailsLoudly(t *testing.T) {
	_, err := NewTable([]model.DomainRule{
		{Domain: "example.gov", Tier: "platinum"},
	})
	if err == nil {
		t.Fatal("Expected unknown tier to be a load-time error")
	}
}

func TestNewTable_EmptyDomainRejected(t *testing.T) {
	_, err := NewTable([]model.DomainRule{
		{Domain: "  ", Tier: "A"},
	})
	if err == nil {
		t.Fatal("Expected empty domain to be a load-time error")
	}
}

func TestTable_Domains(t *testing.T) {
	table, err := NewTable([]model.DomainRule{
		{Domain: "b.gov", Tier: "A"},
		{Domain: "a.gov", Tier: "B"},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	domains := table.Domains()
	if len(domains) != 2 || domains[0] != "a.gov" || domains[1] != "b.gov" {
		t.Errorf("Expected sorted domain list, got %v", domains)
	}
}
