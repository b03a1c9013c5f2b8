package cmd

import (
	"context"
	"fmt"

	"github.com/mj1618/uipilot/internal/engine"
	"github.com/mj1618/uipilot/internal/output"
	"github.com/spf13/cobra"
)

var readCmd = &cobra.Command{
	Use:   "read [target]",
	Short: "Read text, value, attributes, or state from the surface",
	Long: `Read from an element or the surface itself. Without flags the element's
visible text is returned.

Examples:
  uipilot read @e7
  uipilot read "input[name=email]" --value
  uipilot read @e2 --attr href
  uipilot read "Save" --enabled
  uipilot read --url
  uipilot read --title`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRead,
}

func init() {
	rootCmd.AddCommand(readCmd)
	readCmd.Flags().Bool("value", false, "Read the element's current value")
	readCmd.Flags().String("attr", "", "Read a named attribute")
	readCmd.Flags().Bool("visible", false, "Report whether the element is visible")
	readCmd.Flags().Bool("enabled", false, "Report whether the element is enabled")
	readCmd.Flags().Bool("url", false, "Read the surface's current location")
	readCmd.Flags().Bool("title", false, "Read the surface's current title")
}

// readResult is the output envelope for read.
type readResult struct {
	Target string `yaml:"target,omitempty" json:"target,omitempty"`
	Field  string `yaml:"field"            json:"field"`
	Value  any    `yaml:"value"            json:"value"`
}

func runRead(cmd *cobra.Command, args []string) error {
	value, _ := cmd.Flags().GetBool("value")
	attr, _ := cmd.Flags().GetString("attr")
	visible, _ := cmd.Flags().GetBool("visible")
	enabled, _ := cmd.Flags().GetBool("enabled")
	wantURL, _ := cmd.Flags().GetBool("url")
	wantTitle, _ := cmd.Flags().GetBool("title")

	return withEngine(cmd.Context(), func(ctx context.Context, eng *engine.Engine) error {
		if wantURL || wantTitle {
			if len(args) != 0 {
				return fmt.Errorf("--url and --title read from the surface, not an element")
			}
			if wantURL {
				url, err := eng.GetURL(ctx)
				if err != nil {
					return err
				}
				return output.Print(readResult{Field: "url", Value: url})
			}
			title, err := eng.GetTitle(ctx)
			if err != nil {
				return err
			}
			return output.Print(readResult{Field: "title", Value: title})
		}

		if len(args) != 1 {
			return fmt.Errorf("read requires a target (or --url / --title)")
		}
		target := args[0]

		switch {
		case value:
			v, err := eng.GetValue(ctx, target)
			if err != nil {
				return err
			}
			return output.Print(readResult{Target: target, Field: "value", Value: v})
		case attr != "":
			v, err := eng.GetAttribute(ctx, target, attr)
			if err != nil {
				return err
			}
			return output.Print(readResult{Target: target, Field: attr, Value: v})
		case visible:
			v, err := eng.IsVisible(ctx, target)
			if err != nil {
				return err
			}
			return output.Print(readResult{Target: target, Field: "visible", Value: v})
		case enabled:
			v, err := eng.IsEnabled(ctx, target)
			if err != nil {
				return err
			}
			return output.Print(readResult{Target: target, Field: "enabled", Value: v})
		default:
			v, err := eng.GetText(ctx, target)
			if err != nil {
				return err
			}
			return output.Print(readResult{Target: target, Field: "text", Value: v})
		}
	})
}
