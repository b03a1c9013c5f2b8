package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mj1618/uipilot/internal/engine"
	"github.com/spf13/cobra"
)

var screenshotCmd = &cobra.Command{
	Use:   "screenshot",
	Short: "Capture a screenshot of the surface",
	Long: `Capture the surface as PNG. With -o the image is written to a file;
otherwise the raw bytes go to stdout (redirect them).

Examples:
  uipilot screenshot -o shot.png
  uipilot screenshot > shot.png`,
	RunE: runScreenshot,
}

func init() {
	rootCmd.AddCommand(screenshotCmd)
	screenshotCmd.Flags().StringP("output", "o", "", "Write the image to this file")
}

func runScreenshot(cmd *cobra.Command, args []string) error {
	outFile, _ := cmd.Flags().GetString("output")

	return withEngine(cmd.Context(), func(ctx context.Context, eng *engine.Engine) error {
		img, err := eng.Screenshot(ctx)
		if err != nil {
			return err
		}
		if outFile != "" {
			if err := os.WriteFile(outFile, img, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "wrote %d bytes to %s\n", len(img), outFile)
			return nil
		}
		_, err = os.Stdout.Write(img)
		return err
	})
}
