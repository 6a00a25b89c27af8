package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/spf13/cobra"

	"symlayer/internal/clock"
	"symlayer/internal/trace"
)

// openStore opens an existing trace database. dbPath falls back to the trace
// path of the configuration.
func openStore(opts *globalOptions, dbPath string) (*trace.Store, error) {
	if dbPath == "" {
		cfg, err := opts.loadConfig()
		if err != nil {
			return nil, err
		}
		dbPath = cfg.Trace.Path
	}
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("trace database: %w", err)
	}
	return trace.Open(dbPath)
}

func newReplayCmd(opts *globalOptions) *cobra.Command {
	var (
		dbPath  string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "replay <session>",
		Short: "Replay a recorded session and report diverging outcomes",
		Long: `Feed every recorded event of a session back through a fresh router built
from the session's configuration snapshot, with the clock set to each
recorded timestamp. Events whose outcome differs from the recording are
printed and the command fails.

The session may be given as a unique ID prefix.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, opts, dbPath, args[0], verbose)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "Trace database (default: trace path from the configuration)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print every replayed record")
	return cmd
}

func runReplay(cmd *cobra.Command, opts *globalOptions, dbPath, id string, verbose bool) error {
	out := cmd.OutOrStdout()

	store, err := openStore(opts, dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	sess, err := store.FindSession(id)
	if err != nil {
		return err
	}
	records, err := store.Events(sess.ID)
	if err != nil {
		return err
	}
	cfg, err := trace.SessionConfig(sess)
	if err != nil {
		return fmt.Errorf("session %s: %w", sess.ID, err)
	}

	start := sess.StartedAt
	if len(records) > 0 {
		start = records[0].Time
	}
	clk := clock.NewManual(start)
	r, err := trace.NewRouter(cfg, clk, opts.logger(cmd))
	if err != nil {
		return err
	}

	if verbose {
		for _, rec := range records {
			fmt.Fprintln(out, rec)
		}
	}
	mismatches := trace.Replay(records, r, clk)
	for _, m := range mismatches {
		fmt.Fprintln(out, m)
	}
	fmt.Fprintf(out, "session %s: %d records, %d mismatches\n", sess.ID, len(records), len(mismatches))
	if len(mismatches) > 0 {
		return fmt.Errorf("replay of session %s diverged", sess.ID)
	}
	return nil
}

func newSessionsCmd(opts *globalOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recorded sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listSessions(cmd, opts, dbPath)
		},
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "Trace database (default: trace path from the configuration)")

	showCmd := &cobra.Command{
		Use:   "show <session>",
		Short: "Print the records of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showSession(cmd, opts, dbPath, args[0])
		},
	}

	rmCmd := &cobra.Command{
		Use:     "rm <session>",
		Aliases: []string{"delete"},
		Short:   "Delete a session and its records",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return deleteSession(cmd, opts, dbPath, args[0])
		},
	}

	cmd.AddCommand(showCmd, rmCmd)
	return cmd
}

func listSessions(cmd *cobra.Command, opts *globalOptions, dbPath string) error {
	store, err := openStore(opts, dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	sessions, err := store.Sessions()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no sessions")
		return nil
	}

	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		duration := "running"
		if s.EndedAt != nil {
			duration = s.EndedAt.Sub(s.StartedAt).Round(time.Second).String()
		}
		rows = append(rows, []string{
			s.ID,
			s.StartedAt.Local().Format("2006-01-02 15:04:05"),
			duration,
			strconv.Itoa(s.Events),
			s.Source,
			s.Note,
		})
	}
	printTable(cmd, []string{"ID", "Started", "Duration", "Events", "Source", "Note"}, rows)
	return nil
}

func showSession(cmd *cobra.Command, opts *globalOptions, dbPath, id string) error {
	store, err := openStore(opts, dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	sess, err := store.FindSession(id)
	if err != nil {
		return err
	}
	records, err := store.Events(sess.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "session %s (%s) started %s\n", sess.ID, sess.Source, sess.StartedAt.Local().Format(time.RFC3339))
	for _, rec := range records {
		fmt.Fprintf(out, "%s %s\n", rec.Time.Sub(sess.StartedAt).Round(time.Millisecond), rec)
	}
	return nil
}

func deleteSession(cmd *cobra.Command, opts *globalOptions, dbPath, id string) error {
	store, err := openStore(opts, dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	sess, err := store.FindSession(id)
	if err != nil {
		return err
	}
	if err := store.DeleteSession(sess.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted session %s\n", sess.ID)
	return nil
}

// printTable renders rows as a bordered table on the command's output.
func printTable(cmd *cobra.Command, headers []string, rows [][]string) {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	lipgloss.Fprintln(cmd.OutOrStdout(), t.Render())
}
