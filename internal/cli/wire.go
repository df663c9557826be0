package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/veridex/internal/fetch"
	"github.com/ppiankov/veridex/internal/governance"
	"github.com/ppiankov/veridex/internal/llm"
	"github.com/ppiankov/veridex/internal/model"
	"github.com/ppiankov/veridex/internal/retrieval"
	"github.com/ppiankov/veridex/internal/store"
)

// viperUnmarshal overlays the config file located by viper onto cfg.
// The file is parsed as YAML so the config struct's yaml tags are the one
// source of truth for key names.
func viperUnmarshal(cfg *model.Config) error {
	path := viper.ConfigFileUsed()
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// loadConfig assembles the effective configuration: defaults, then config
// file, then environment
func loadConfig() *model.Config {
	cfg := model.DefaultConfig()

	if err := viperUnmarshal(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: config file ignored: %v\n", err)
	}

	if cfg.Cache.Dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Cache.Dir = filepath.Join(home, ".veridex", "cache")
		}
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Store.DSN == "" {
		cfg.Store.DSN = os.Getenv("DATABASE_URL")
	}
	if cfg.Store.Driver == "" && cfg.Store.DSN != "" {
		cfg.Store.Driver = "postgres"
	}

	return cfg
}

// openStore creates the configured store backend
func openStore(cfg *model.Config) (store.Store, error) {
	st, err := store.New(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if cfg.Store.Driver == "memory" || cfg.Store.Driver == "" {
		fmt.Fprintln(os.Stderr, "Warning: using in-memory store; records do not survive this process")
	}
	return st, nil
}

// buildOrchestrator wires the full retrieval pipeline from config
func buildOrchestrator(cfg *model.Config, st store.Store) (*retrieval.Orchestrator, error) {
	table, err := governance.NewTable(cfg.Governance.Domains)
	if err != nil {
		return nil, fmt.Errorf("load governance table: %w", err)
	}

	caps, err := llm.NewCapabilities(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, fmt.Errorf("init LLM provider: %w", err)
	}

	fetcher := fetch.NewFetcher(cfg.HTTP, fetch.NewPageCache(cfg.Cache))

	var proposer llm.CandidateProposer
	var extractor llm.PassageExtractor
	if caps != nil {
		proposer = caps.Proposer
		extractor = caps.Extractor
	}

	return retrieval.NewOrchestrator(st, table, fetcher, proposer, extractor, cfg.Retrieval), nil
}
