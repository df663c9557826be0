package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/veridex/internal/grounding"
	"github.com/ppiankov/veridex/internal/model"
)

var (
	validateFix     bool
	validateSession string
	validateAsset   string
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate <content.json>",
	Short: "Validate a generated content batch against the citation invariant",
	Long: `Validate checks every item in a JSON content batch for grounding:
at least one citation whose authority resolves to a stored verified
record with a usable locator.

Strict mode (default) reports errors and exits non-zero on an invalid
batch. With --fix, erroring items are replaced in place by the fixed
"unverified" fallback item and the repaired batch is printed.

Example:
  veridex validate batch.json
  veridex validate batch.json --fix --session sess-42`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateFix, "fix", false, "soft mode: replace erroring items with the fallback item")
	validateCmd.Flags().StringVar(&validateSession, "session", "", "session id for the audit log")
	validateCmd.Flags().StringVar(&validateAsset, "asset", "", "asset id for the audit log")
}

func runValidate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read content batch: %w", err)
	}

	var items []model.ContentItem
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("parse content batch: %w", err)
	}

	cfg := loadConfig()
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	validator := grounding.NewValidator(st)
	opts := grounding.Options{SessionID: validateSession, AssetID: validateAsset}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if validateFix {
		result, err := validator.ValidateAndFix(ctx, items, opts)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		if result.WasFixed {
			fmt.Fprintf(os.Stderr, "Replaced %d unverifiable items with the fallback message.\n", result.Report.Stats.FixedItems)
		}
		return nil
	}

	report, err := validator.AssertGrounded(ctx, items, opts)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if !report.IsValid {
		return fmt.Errorf("batch rejected: %d grounding errors", len(report.Errors))
	}
	return nil
}
