// symlayerctl is the command-line companion of symlayer. It runs scripted
// key sequences through the router, replays recorded sessions and inspects
// the configuration and key tables.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"symlayer/internal/config"
	"symlayer/internal/logging"
)

// Version information (set at build time)
var version = "dev"

// globalOptions holds the persistent flags shared by all subcommands.
type globalOptions struct {
	configPath string
	debug      bool
	showText   bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "symlayerctl",
		Short: "Inspect and exercise the symlayer keystroke router",
		Long: `symlayerctl - symlayer control utility

Runs scripted key sequences through the keystroke router, replays sessions
recorded by the input method and inspects configuration and key tables.`,
		Example: `  # Run a scenario and print the resulting text
  symlayerctl simulate accents.yaml

  # Run it again and record it
  symlayerctl simulate accents.yaml --record trace.db

  # List and replay recorded sessions
  symlayerctl sessions --db trace.db
  symlayerctl replay --db trace.db 3f2a

  # Check a configuration file
  symlayerctl config validate ~/.config/symlayer/config.toml`,
		Version:      version,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&opts.showText, "show-text", false, "Do not redact typed text in debug logs")

	rootCmd.AddCommand(
		newSimulateCmd(opts),
		newReplayCmd(opts),
		newSessionsCmd(opts),
		newTablesCmd(opts),
		newConfigCmd(opts),
	)
	return rootCmd
}

// logger returns a logger writing to the command's error stream.
func (o *globalOptions) logger(cmd *cobra.Command) *slog.Logger {
	level := logging.LevelWarn
	if o.debug {
		level = logging.LevelDebug
	}
	l, err := logging.New(&logging.Config{
		Level:     level,
		Format:    logging.FormatText,
		Writer:    cmd.ErrOrStderr(),
		ShowText:  o.showText,
		Component: "symlayerctl",
	})
	if err != nil {
		return slog.Default()
	}
	return l.Logger
}

// configFile returns the configuration path in effect: the --config flag,
// then the first config file found in the standard locations.
func (o *globalOptions) configFile() string {
	if o.configPath != "" {
		return o.configPath
	}
	return config.FindConfigFile()
}

// loadConfig loads and validates the configuration in effect. A missing file
// yields the defaults.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	path := o.configFile()
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
