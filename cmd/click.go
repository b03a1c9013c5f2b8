package cmd

import (
	"context"

	"github.com/mj1618/uipilot/internal/engine"
	"github.com/spf13/cobra"
)

var clickCmd = &cobra.Command{
	Use:   "click <target>",
	Short: "Click on an element",
	Long: `Click a target resolved through the cascade. Double clicks use the
channel's dedicated dblclick verb rather than two single clicks.

Examples:
  uipilot click @e5
  uipilot click "Log in"
  uipilot click ".row:first-child" --double`,
	Args: cobra.ExactArgs(1),
	RunE: runClick,
}

func init() {
	rootCmd.AddCommand(clickCmd)
	clickCmd.Flags().Bool("double", false, "Double-click")
}

func runClick(cmd *cobra.Command, args []string) error {
	double, _ := cmd.Flags().GetBool("double")

	return withEngine(cmd.Context(), func(ctx context.Context, eng *engine.Engine) error {
		return printAction(eng.Click(ctx, args[0], double))
	})
}
