package cmd

import (
	"context"

	"github.com/mj1618/uipilot/internal/engine"
	"github.com/spf13/cobra"
)

var dragCmd = &cobra.Command{
	Use:   "drag <from> <to>",
	Short: "Drag from one element to another",
	Long: `Drag between two targets. Each endpoint resolves through the cascade
independently.

Examples:
  uipilot drag @e4 @e9
  uipilot drag "Card A" ".done-column"`,
	Args: cobra.ExactArgs(2),
	RunE: runDrag,
}

func init() {
	rootCmd.AddCommand(dragCmd)
}

func runDrag(cmd *cobra.Command, args []string) error {
	return withEngine(cmd.Context(), func(ctx context.Context, eng *engine.Engine) error {
		return printAction(eng.Drag(ctx, args[0], args[1]))
	})
}
