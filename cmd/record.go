package cmd

import (
	"context"

	"github.com/mj1618/uipilot/internal/engine"
	"github.com/mj1618/uipilot/internal/output"
	"github.com/spf13/cobra"
)

var recordCmd = &cobra.Command{
	Use:   "record <start|stop>",
	Short: "Start or stop a screen recording of the surface",
	Long: `Control the channel's screen recorder. Recordings span commands within
the same session; stop reports the output path.

Examples:
  uipilot record start --session run-42
  uipilot record stop --session run-42`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"start", "stop"},
	RunE:      runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)
}

// recordResult is the output envelope for record.
type recordResult struct {
	Recording bool   `yaml:"recording"      json:"recording"`
	Path      string `yaml:"path,omitempty" json:"path,omitempty"`
}

func runRecord(cmd *cobra.Command, args []string) error {
	return withEngine(cmd.Context(), func(ctx context.Context, eng *engine.Engine) error {
		if args[0] == "start" {
			if err := eng.StartRecording(ctx); err != nil {
				return err
			}
			return output.Print(recordResult{Recording: true})
		}
		path, err := eng.StopRecording(ctx)
		if err != nil {
			return err
		}
		return output.Print(recordResult{Recording: false, Path: path})
	})
}
