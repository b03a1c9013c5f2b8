package cmd

import (
	"context"

	"github.com/mj1618/uipilot/internal/engine"
	"github.com/spf13/cobra"
)

var scrollCmd = &cobra.Command{
	Use:   "scroll [target]",
	Short: "Scroll the window or an element",
	Long: `Scroll by dx/dy pixels. With a target, scrolls within that element;
without one, scrolls the window.

Examples:
  uipilot scroll --dy 400
  uipilot scroll ".sidebar" --dy -200`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScroll,
}

func init() {
	rootCmd.AddCommand(scrollCmd)
	scrollCmd.Flags().Int("dx", 0, "Horizontal scroll distance in pixels")
	scrollCmd.Flags().Int("dy", 0, "Vertical scroll distance in pixels")
}

func runScroll(cmd *cobra.Command, args []string) error {
	dx, _ := cmd.Flags().GetInt("dx")
	dy, _ := cmd.Flags().GetInt("dy")
	target := ""
	if len(args) == 1 {
		target = args[0]
	}

	return withEngine(cmd.Context(), func(ctx context.Context, eng *engine.Engine) error {
		return printAction(eng.Scroll(ctx, target, dx, dy))
	})
}
