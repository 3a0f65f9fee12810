// disctransla runs the Discord translation bot as a standalone HTTP
// interactions endpoint and offers the pipeline on the command line.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hororrklama-coder/DiscTransla/internal/config"
)

// Version information (set via -ldflags during build)
var version = "dev"

var (
	cfgFile  string
	logLevel string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "disctransla",
		Short: "Discord translation bot",
		Long: `disctransla translates Discord messages into each user's preferred language.

Commands:
  serve       Serve Discord HTTP interactions
  translate   Translate text from the command line
  detect      Detect the language of text
  languages   List supported languages
  register    Register the bot's application commands with Discord

Configuration is read from --config (YAML), DISCTRANSLA_* environment
variables and flags, in increasing order of precedence.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./disctransla.yaml or $HOME/disctransla.yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(
		newServeCmd(),
		newTranslateCmd(),
		newDetectCmd(),
		newLanguagesCmd(),
		newRegisterCmd(),
	)

	return root
}

// loadConfig resolves configuration with cmd's flags taking precedence.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	logger := config.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
