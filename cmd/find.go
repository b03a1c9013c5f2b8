package cmd

import (
	"context"

	"github.com/mj1618/uipilot/internal/engine"
	"github.com/mj1618/uipilot/internal/output"
	"github.com/spf13/cobra"
)

var findCmd = &cobra.Command{
	Use:   "find <target>",
	Short: "Locate an element without acting on it",
	Long: `Locate a target through the full cascade: ref, selector strategies, then
the vision tier. The target may be a ref (@e3), a CSS/XPath selector, or
visible element text.

Examples:
  uipilot find @e3
  uipilot find "#submit"
  uipilot find "Save draft" --all`,
	Args: cobra.ExactArgs(1),
	RunE: runFind,
}

func init() {
	rootCmd.AddCommand(findCmd)
	findCmd.Flags().Bool("all", false, "List every snapshot element whose name contains the target")
}

func runFind(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")

	return withEngine(cmd.Context(), func(ctx context.Context, eng *engine.Engine) error {
		if all {
			matches, err := eng.FindAll(ctx, args[0])
			if err != nil {
				return err
			}
			return output.Print(matches)
		}
		return printAction(eng.Find(ctx, args[0]))
	})
}
