package cmd

import (
	"context"

	"github.com/mj1618/uipilot/internal/engine"
	"github.com/mj1618/uipilot/internal/output"
	"github.com/spf13/cobra"
)

var aiCmd = &cobra.Command{
	Use:   "ai <instruction>",
	Short: "Execute a natural-language instruction via the vision tier",
	Long: `Run a bounded plan-act loop: the vision model inspects a screenshot,
chooses the next primitive action, and repeats until it reports the
instruction finished or the step budget runs out.

Requires a vision provider (or a detected agent environment for bridge
mode); deterministic mode refuses.

Examples:
  uipilot ai "log in as dev@example.com and open settings"
  uipilot ai "dismiss the cookie banner" --provider gemini`,
	Args: cobra.ExactArgs(1),
	RunE: runAI,
}

func init() {
	rootCmd.AddCommand(aiCmd)
	aiCmd.Flags().Bool("cost", false, "Print the vision cost summary after the run")
}

func runAI(cmd *cobra.Command, args []string) error {
	withCost, _ := cmd.Flags().GetBool("cost")

	return withEngine(cmd.Context(), func(ctx context.Context, eng *engine.Engine) error {
		res, err := eng.AI(ctx, args[0])
		if perr := printAction(res, err); perr != nil {
			return perr
		}
		if withCost {
			return output.Print(eng.Tracker().Summarize())
		}
		return nil
	})
}
