package cmd

import (
	"context"

	"github.com/mj1618/uipilot/internal/engine"
	"github.com/spf13/cobra"
)

var typeCmd = &cobra.Command{
	Use:   "type <target> <text>",
	Short: "Type text into an element",
	Long: `Resolve the target and type text into it.

Examples:
  uipilot type @e2 "hello world"
  uipilot type "input[name=email]" "dev@example.com"`,
	Args: cobra.ExactArgs(2),
	RunE: runType,
}

func init() {
	rootCmd.AddCommand(typeCmd)
}

func runType(cmd *cobra.Command, args []string) error {
	return withEngine(cmd.Context(), func(ctx context.Context, eng *engine.Engine) error {
		return printAction(eng.Type(ctx, args[0], args[1]))
	})
}
