package model

import "time"

// Config is the complete veridex configuration
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Cache      CacheConfig      `yaml:"cache"`
	Store      StoreConfig      `yaml:"store"`
	LLM        LLMConfig        `yaml:"llm"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Governance GovernanceConfig `yaml:"governance"`
}

// HTTPConfig controls the source fetcher
type HTTPConfig struct {
	Timeout           time.Duration `yaml:"timeout"`
	UserAgent         string        `yaml:"user_agent"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes"`
	RequestsPerSecond float64       `yaml:"requests_per_second"` // Per-domain
	Burst             int           `yaml:"burst"`
	RespectRobots     bool          `yaml:"respect_robots"`
}

// CacheConfig controls the fetched-page cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Dir       string        `yaml:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl"`
}

// StoreConfig selects and configures the authority store backend
type StoreConfig struct {
	// Driver is "postgres" or "memory"
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// LLMConfig configures the external proposer/extractor capabilities
type LLMConfig struct {
	// Provider name: "openai", "ollama", ""
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	Timeout   int    `yaml:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens"`
}

// RetrievalConfig bounds the orchestrator's work per call
type RetrievalConfig struct {
	MaxCandidates     int           `yaml:"max_candidates"`      // Fan-out bound
	MaxPassages       int           `yaml:"max_passages"`        // Per candidate
	ExcerptChars      int           `yaml:"excerpt_chars"`       // Text sent to the extractor and stored
	MinPassageChars   int           `yaml:"min_passage_chars"`
	MaxPassageChars   int           `yaml:"max_passage_chars"`
	CandidateTimeout  time.Duration `yaml:"candidate_timeout"`
	MinKeywordOverlap float64       `yaml:"min_keyword_overlap"` // Fraction of query keywords a cache hit must match
}

// DomainRule is one configured governance entry
type DomainRule struct {
	Domain        string `yaml:"domain"`
	Tier          string `yaml:"tier"` // "A", "B", or "C"
	Jurisdiction  string `yaml:"jurisdiction"`
	License       string `yaml:"license"`
	AllowVerbatim bool   `yaml:"allow_verbatim"`
	Category      string `yaml:"category"` // caselaw, statute, regulation, academic
}

// GovernanceConfig holds the curated domain allowlist.
// When Domains is empty the built-in default table is used.
type GovernanceConfig struct {
	Domains []DomainRule `yaml:"domains"`
}

// DefaultConfig returns the standard configuration
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:           15 * time.Second,
			UserAgent:         "VeridexBot/0.1 (+https://github.com/ppiankov/veridex)",
			MaxBodyBytes:      2_000_000,
			RequestsPerSecond: 1,
			Burst:             3,
			RespectRobots:     true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "", // Defaults to ~/.veridex/cache at load time
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Store: StoreConfig{
			Driver: "memory",
		},
		LLM: LLMConfig{
			Provider:  "",
			Timeout:   30,
			MaxTokens: 1500,
		},
		Retrieval: RetrievalConfig{
			MaxCandidates:     3,
			MaxPassages:       3,
			ExcerptChars:      30_000,
			MinPassageChars:   50,
			MaxPassageChars:   500,
			CandidateTimeout:  45 * time.Second,
			MinKeywordOverlap: 0.5,
		},
	}
}
