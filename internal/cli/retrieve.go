package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/veridex/internal/model"
)

var (
	retrieveSkillID      string
	retrieveSkillName    string
	retrieveJurisdiction string
	retrieveTypes        []string
	retrieveTimeout      time.Duration
	retrieveProvider     string
	retrieveModel        string
)

// retrieveCmd represents the retrieve command
var retrieveCmd = &cobra.Command{
	Use:   "retrieve <concept>",
	Short: "Retrieve verified authorities for a concept",
	Long: `Retrieve runs the full pipeline for one concept: cache lookup,
candidate proposal, allowlist filtering, bounded fetch, passage
verification and persistence.

Example:
  veridex retrieve "hearsay exception" --jurisdiction US-Federal
  veridex retrieve "adverse possession" --types CASE,STATUTE --skill-id prop-101`,
	Args: cobra.ExactArgs(1),
	RunE: runRetrieve,
}

func init() {
	rootCmd.AddCommand(retrieveCmd)

	retrieveCmd.Flags().StringVar(&retrieveSkillID, "skill-id", "", "skill id to attribute the request to")
	retrieveCmd.Flags().StringVar(&retrieveSkillName, "skill-name", "", "human-readable skill name")
	retrieveCmd.Flags().StringVar(&retrieveJurisdiction, "jurisdiction", "", "jurisdiction filter (e.g. US-Federal)")
	retrieveCmd.Flags().StringSliceVar(&retrieveTypes, "types", nil, "preferred source types (CASE,STATUTE,REGULATION,ARTICLE,TEXTBOOK,OTHER)")
	retrieveCmd.Flags().DurationVar(&retrieveTimeout, "timeout", 3*time.Minute, "overall retrieval timeout")
	retrieveCmd.Flags().StringVar(&retrieveProvider, "llm-provider", "", "LLM provider (openai, ollama)")
	retrieveCmd.Flags().StringVar(&retrieveModel, "llm-model", "", "LLM model name")
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	concept := args[0]

	cfg := loadConfig()
	if retrieveProvider != "" {
		cfg.LLM.Provider = retrieveProvider
	}
	if retrieveModel != "" {
		cfg.LLM.Model = retrieveModel
	}

	var sourceTypes []model.SourceType
	for _, raw := range retrieveTypes {
		st, err := model.ParseSourceType(raw)
		if err != nil {
			return err
		}
		sourceTypes = append(sourceTypes, st)
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	orch, err := buildOrchestrator(cfg, st)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), retrieveTimeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Retrieving: %s\n", concept)
	}

	result, err := orch.RetrieveAuthorities(ctx, model.RetrievalQuery{
		SkillID:      retrieveSkillID,
		SkillName:    retrieveSkillName,
		Concept:      concept,
		Jurisdiction: retrieveJurisdiction,
		SourceTypes:  sourceTypes,
	})
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if result.FallbackUsed {
		fmt.Fprintf(os.Stderr, "No authority retrieved (log entry %s); callers must show the unverified placeholder.\n", result.MissingLogID)
	} else if verbose {
		var titles []string
		for _, a := range result.Authorities {
			titles = append(titles, a.Title)
		}
		fmt.Fprintf(os.Stderr, "Retrieved %d authorities: %s\n", len(result.Authorities), strings.Join(titles, "; "))
	}

	return nil
}
