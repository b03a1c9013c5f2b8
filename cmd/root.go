package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mj1618/uipilot/internal/output"
	"github.com/mj1618/uipilot/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
	logger  = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "uipilot",
	Short: "Drive desktop-shell surfaces through refs, selectors, and vision fallback",
	Long: `uipilot resolves UI targets through a three-tier cascade: cached element
refs, raw selector strategies via an external control channel, and a
vision-model fallback for elements the deterministic tiers cannot find.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: $HOME/.uipilot.yaml)")
	rootCmd.PersistentFlags().String("format", "", "Output format: yaml, json")
	rootCmd.PersistentFlags().Bool("pretty", false, "Pretty-print JSON output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging to stderr")
	rootCmd.PersistentFlags().String("tool", "desktop-cli", "Control channel binary")
	rootCmd.PersistentFlags().String("session", "", "Control channel session id (default: fresh random id)")
	rootCmd.PersistentFlags().String("mode", "auto", "Resolution mode: deterministic, auto, visual")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Per-channel-command timeout (default: 15s)")
	rootCmd.PersistentFlags().String("provider", "", "Vision provider: claude, gpt, gemini, agent (default: claude)")
	rootCmd.PersistentFlags().String("model", "", "Vision model override")

	for _, key := range []string{"tool", "session", "mode", "timeout", "provider", "model"} {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key)); err != nil {
			panic(err)
		}
	}

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose, _ := rootCmd.PersistentFlags().GetBool("verbose"); verbose {
			l, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			logger = l
		}

		format, _ := rootCmd.PersistentFlags().GetString("format")

		// Smart default: piped output (agent context) gets machine-friendly
		// JSON, terminal output (human) gets yaml.
		if format == "" {
			if output.IsOutputPiped() {
				format = "json"
			} else {
				format = "yaml"
			}
		}

		switch format {
		case "yaml":
			output.OutputFormat = output.FormatYAML
		case "json":
			output.OutputFormat = output.FormatJSON
		default:
			return fmt.Errorf("unsupported format: %s (use yaml or json)", format)
		}
		if pretty, _ := rootCmd.PersistentFlags().GetBool("pretty"); pretty {
			output.PrettyOutput = true
		}
		return nil
	}
}

// initConfig layers configuration: flags > environment > config file.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".uipilot")
	}

	viper.SetEnvPrefix("UIPILOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// A missing config file is fine; a malformed one is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && cfgFile != "" {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
	}
}
