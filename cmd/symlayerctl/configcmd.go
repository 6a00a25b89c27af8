package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"symlayer/internal/config"
)

func newConfigCmd(opts *globalOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the symlayer configuration",
	}

	validateCmd := &cobra.Command{
		Use:   "validate [path]",
		Short: "Check a configuration file",
		Long: `Load a configuration file and report every invalid setting. Without an
argument the configuration in effect is checked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.configFile()
			if len(args) == 1 {
				path = args[0]
			}
			return validateConfig(cmd, path)
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			data, err := cfg.EncodeTOML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.configFile()
			if path == "" {
				path = config.ConfigPath()
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default configuration file if none exists",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.configPath
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				path = config.ConfigPath()
			}
			_, created, err := config.LoadOrCreate(path)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", path)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already exists\n", path)
			}
			return nil
		},
	}

	var output string
	importCmd := &cobra.Command{
		Use:   "import <preferences.json>",
		Short: "Convert a preference export of the Android keyboard",
		Long: `Convert a JSON export of the Android keyboard preferences into a
configuration. Keys without a counterpart are listed and skipped. The result
is printed as TOML, or written to --output in the format its extension names.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return importPreferences(cmd, args[0], output)
		},
	}
	importCmd.Flags().StringVarP(&output, "output", "o", "", "Write the configuration to this file")

	configCmd.AddCommand(validateCmd, showCmd, pathCmd, initCmd, importCmd)
	return configCmd
}

func validateConfig(cmd *cobra.Command, path string) error {
	out := cmd.OutOrStdout()
	if path == "" {
		fmt.Fprintln(out, "no configuration file, defaults in effect")
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	err = cfg.Validate()

	var verrs config.ValidationErrors
	if errors.As(err, &verrs) {
		for _, v := range verrs {
			fmt.Fprintf(out, "%s: %s\n", v.Field, v.Message)
		}
		return fmt.Errorf("%s: %d invalid settings", path, len(verrs))
	}
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	fmt.Fprintf(out, "%s: ok\n", path)
	return nil
}

func importPreferences(cmd *cobra.Command, path, output string) error {
	res, err := config.ImportPreferencesFile(path)
	if err != nil {
		return err
	}
	errOut := cmd.ErrOrStderr()
	fmt.Fprintf(errOut, "applied %d preferences\n", len(res.Applied))
	if len(res.Ignored) > 0 {
		fmt.Fprintf(errOut, "ignored: %s\n", strings.Join(res.Ignored, ", "))
	}
	if err := res.Config.Validate(); err != nil {
		return fmt.Errorf("imported configuration is invalid: %w", err)
	}

	if output != "" {
		if err := res.Config.Save(output); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
		return nil
	}
	data, err := res.Config.EncodeTOML()
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
