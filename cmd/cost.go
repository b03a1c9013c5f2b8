package cmd

import (
	"github.com/mj1618/uipilot/internal/cost"
	"github.com/mj1618/uipilot/internal/output"
	"github.com/mj1618/uipilot/internal/vision"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var costCmd = &cobra.Command{
	Use:   "cost",
	Short: "Estimate the cost of a vision call",
	Long: `Price a hypothetical vision call against the built-in $/MTok table.
Useful for budgeting ai loops before running them. A long-lived cost
ledger lives in the MCP server; use its cost tool for session totals.

Examples:
  uipilot cost --input-tokens 1000 --output-tokens 500
  uipilot cost --provider gpt --model gpt-4o --input-tokens 2000`,
	RunE: runCost,
}

func init() {
	rootCmd.AddCommand(costCmd)
	costCmd.Flags().Int("input-tokens", 1000, "Input tokens per call")
	costCmd.Flags().Int("output-tokens", 500, "Output tokens per call")
	costCmd.Flags().Int("calls", 1, "Number of calls to price")
}

func runCost(cmd *cobra.Command, args []string) error {
	inputTokens, _ := cmd.Flags().GetInt("input-tokens")
	outputTokens, _ := cmd.Flags().GetInt("output-tokens")
	calls, _ := cmd.Flags().GetInt("calls")

	provider, err := vision.CanonicalProvider(viper.GetString("provider"))
	if err != nil {
		return err
	}
	model := viper.GetString("model")
	if model == "" {
		model = vision.DefaultModel(provider)
	}

	tracker := cost.NewTracker()
	for i := 0; i < calls; i++ {
		tracker.Record(provider, model, "estimate", inputTokens, outputTokens, 1)
	}
	return output.Print(tracker.Summarize())
}
