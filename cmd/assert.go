package cmd

import (
	"context"

	"github.com/mj1618/uipilot/internal/engine"
	"github.com/spf13/cobra"
)

var assertCmd = &cobra.Command{
	Use:   "assert <assertion>",
	Short: "Assert a visual condition via the vision tier",
	Long: `Ask the vision model to judge an assertion against a screenshot of the
current surface. A failed assertion exits non-zero with the model's
reasoning.

Examples:
  uipilot assert "the cart shows 3 items"
  uipilot assert "the error banner is red" --expected "red banner below the header"`,
	Args: cobra.ExactArgs(1),
	RunE: runAssert,
}

func init() {
	rootCmd.AddCommand(assertCmd)
	assertCmd.Flags().String("expected", "", "Description of the expected state")
}

func runAssert(cmd *cobra.Command, args []string) error {
	expected, _ := cmd.Flags().GetString("expected")

	return withEngine(cmd.Context(), func(ctx context.Context, eng *engine.Engine) error {
		return printAction(eng.AssertVisual(ctx, args[0], expected))
	})
}
