package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"symlayer/internal/config"
	"symlayer/internal/keys"
	"symlayer/internal/layout"
	"symlayer/internal/multipress"
)

func newTablesCmd(opts *globalOptions) *cobra.Command {
	var (
		device     string
		multiTap   bool
		template   string
		listByName bool
	)

	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Print the symbol layer or the multi-tap tables",
		Long: `Print the symbol layer of a device class, or with --multipress the
first-level substitution template and the hold level.

The device class and template default to the configuration in effect.`,
		Example: `  symlayerctl tables --device mp01
  symlayerctl tables --multipress --template de
  symlayerctl tables --list`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			switch {
			case listByName:
				return listTemplates(cmd, cfg)
			case multiTap:
				return printMultipress(cmd, cfg, template)
			default:
				if device == "" {
					device = cfg.Keys.DeviceClass
				}
				return printSymLayer(cmd, device)
			}
		},
	}

	cmd.Flags().StringVar(&device, "device", "", "Device class: titan or mp01")
	cmd.Flags().BoolVar(&multiTap, "multipress", false, "Print the multi-tap tables instead of the symbol layer")
	cmd.Flags().StringVar(&template, "template", "", "First-level template to print with --multipress")
	cmd.Flags().BoolVar(&listByName, "list", false, "List the available first-level templates")
	return cmd
}

func printSymLayer(cmd *cobra.Command, device string) error {
	d, err := keys.ParseDeviceClass(device)
	if err != nil {
		return err
	}
	t := layout.SymTableFor(d)

	rows := make([][]string, 0, len(t))
	for _, c := range t.Codes() {
		m, _ := t.Lookup(c)
		rows = append(rows, []string{c.String(), m.Display, symAction(m.Action)})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "symbol layer (%s)\n", d)
	printTable(cmd, []string{"Key", "Label", "Action"}, rows)
	return nil
}

func symAction(a layout.SymAction) string {
	if a.Kind == layout.SendKey {
		return "key " + a.Code.String()
	}
	if a.Shifted != "" {
		return fmt.Sprintf("%q shift %q", a.Char, a.Shifted)
	}
	return fmt.Sprintf("%q", a.Char)
}

func listTemplates(cmd *cobra.Command, cfg *config.Config) error {
	templates, err := cfg.Templates()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, name := range templates.Names() {
		marker := " "
		if name == cfg.Multipress.FirstLevelTemplate {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %s (%d keys)\n", marker, name, len(templates[name]))
	}
	return nil
}

func printMultipress(cmd *cobra.Command, cfg *config.Config, template string) error {
	if template != "" {
		cfg = cfg.Clone()
		cfg.Multipress.FirstLevelTemplate = template
	}
	first, err := cfg.FirstLevel()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "first level (%s)\n", cfg.Multipress.FirstLevelTemplate)
	printTable(cmd, []string{"Key", "Taps"}, levelRows(first))
	fmt.Fprintln(out, "hold level")
	printTable(cmd, []string{"Key", "Repeats"}, levelRows(multipress.HoldLevel()))
	return nil
}

func levelRows(l multipress.Level) [][]string {
	rows := make([][]string, 0, len(l))
	for _, c := range l.Keys() {
		seq := make([]string, len(l[c]))
		for i, d := range l[c] {
			seq[i] = d.String()
		}
		rows = append(rows, []string{c.String(), strings.Join(seq, " ")})
	}
	return rows
}
