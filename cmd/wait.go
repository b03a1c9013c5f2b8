package cmd

import (
	"context"

	"github.com/mj1618/uipilot/internal/engine"
	"github.com/spf13/cobra"
)

var waitCmd = &cobra.Command{
	Use:   "wait <target>",
	Short: "Wait for an element to reach a state",
	Long: `Block until the target reaches the given state or the timeout expires.

Examples:
  uipilot wait "#spinner" --state hidden
  uipilot wait "Order placed" --timeout 10000`,
	Args: cobra.ExactArgs(1),
	RunE: runWait,
}

func init() {
	rootCmd.AddCommand(waitCmd)
	waitCmd.Flags().String("state", "visible", "State to wait for: visible, hidden, enabled, disabled")
	waitCmd.Flags().Int("timeout", 30000, "Max wait in milliseconds")
}

func runWait(cmd *cobra.Command, args []string) error {
	state, _ := cmd.Flags().GetString("state")
	timeoutMs, _ := cmd.Flags().GetInt("timeout")

	return withEngine(cmd.Context(), func(ctx context.Context, eng *engine.Engine) error {
		return printAction(eng.WaitFor(ctx, args[0], state, timeoutMs))
	})
}
