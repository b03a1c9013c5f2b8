package cmd

import (
	"context"

	"github.com/mj1618/uipilot/internal/engine"
	"github.com/spf13/cobra"
)

var hoverCmd = &cobra.Command{
	Use:   "hover <target>",
	Short: "Move the pointer over an element",
	Args:  cobra.ExactArgs(1),
	RunE:  runHover,
}

func init() {
	rootCmd.AddCommand(hoverCmd)
}

func runHover(cmd *cobra.Command, args []string) error {
	return withEngine(cmd.Context(), func(ctx context.Context, eng *engine.Engine) error {
		return printAction(eng.Hover(ctx, args[0]))
	})
}
