package cmd

import (
	"context"

	"github.com/mj1618/uipilot/internal/engine"
	"github.com/mj1618/uipilot/internal/output"
	"github.com/mj1618/uipilot/internal/refs"
	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Capture the surface's element tree and assign refs",
	Long: `Capture a fresh snapshot of the surface. Every element gets a symbolic
ref (@e1, @e2, ...) that later commands can target. Refs from earlier
snapshots are superseded by each capture.

Examples:
  uipilot snapshot
  uipilot snapshot --all --include-hidden
  uipilot snapshot --max-depth 5 --compact`,
	RunE: runSnapshot,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.Flags().Bool("all", false, "Include non-interactive elements")
	snapshotCmd.Flags().Bool("include-hidden", false, "Include hidden elements")
	snapshotCmd.Flags().Int("max-depth", 0, "Max tree depth to traverse (0 = unlimited)")
	snapshotCmd.Flags().Bool("raw-tree", false, "Include the raw serialized tree in the output")
	snapshotCmd.Flags().Bool("compact", false, "Omit bounds, text, and attributes from elements")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	includeHidden, _ := cmd.Flags().GetBool("include-hidden")
	maxDepth, _ := cmd.Flags().GetInt("max-depth")
	rawTree, _ := cmd.Flags().GetBool("raw-tree")
	compact, _ := cmd.Flags().GetBool("compact")

	return withEngine(cmd.Context(), func(ctx context.Context, eng *engine.Engine) error {
		opts := refs.Options{
			InteractiveOnly: !all,
			IncludeHidden:   includeHidden,
			MaxDepth:        maxDepth,
			IncludeRawTree:  rawTree,
			Compact:         compact,
		}
		snap, err := eng.Snapshot(ctx, opts)
		if err != nil {
			return err
		}
		return output.Print(snap)
	})
}
