package cmd

import (
	"context"
	"encoding/json"

	"github.com/mj1618/uipilot/internal/engine"
	"github.com/mj1618/uipilot/internal/output"
	"github.com/spf13/cobra"
)

var evalCmd = &cobra.Command{
	Use:   "eval <script>",
	Short: "Evaluate a script against the surface",
	Long: `Run a script through the control channel's eval verb and print its
decoded JSON result.

Examples:
  uipilot eval "document.title"
  uipilot eval "document.querySelectorAll('li').length"`,
	Args: cobra.ExactArgs(1),
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, args []string) error {
	return withEngine(cmd.Context(), func(ctx context.Context, eng *engine.Engine) error {
		raw, err := eng.Evaluate(ctx, args[0])
		if err != nil {
			return err
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		return output.Print(v)
	})
}
