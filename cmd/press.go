package cmd

import (
	"context"

	"github.com/mj1618/uipilot/internal/engine"
	"github.com/spf13/cobra"
)

var pressCmd = &cobra.Command{
	Use:   "press <keys>",
	Short: "Send a key combination to the surface",
	Long: `Send a key combination without targeting an element.

Examples:
  uipilot press Enter
  uipilot press "Control+Shift+p"`,
	Args: cobra.ExactArgs(1),
	RunE: runPress,
}

func init() {
	rootCmd.AddCommand(pressCmd)
}

func runPress(cmd *cobra.Command, args []string) error {
	return withEngine(cmd.Context(), func(ctx context.Context, eng *engine.Engine) error {
		return printAction(eng.Press(ctx, args[0]))
	})
}
