package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"symlayer/internal/clock"
	"symlayer/internal/config"
	"symlayer/internal/router"
	"symlayer/internal/trace"
)

func newSimulateCmd(opts *globalOptions) *cobra.Command {
	var (
		recordDB string
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:   "simulate <script.yaml>",
		Short: "Run a scripted key sequence through the router",
		Long: `Run a YAML scenario through the keystroke router and print the text an
editor would contain afterwards.

The script's config section is applied on top of the defaults. The command
fails when the script sets expect and the resulting text differs.`,
		Example: `  symlayerctl simulate accents.yaml -v
  symlayerctl simulate accents.yaml --record trace.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd, opts, args[0], recordDB, verbose)
		},
	}

	cmd.Flags().StringVar(&recordDB, "record", "", "Record the run into a trace database")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print every routed event with its outcome")
	return cmd
}

func runSimulate(cmd *cobra.Command, opts *globalOptions, path, recordDB string, verbose bool) (err error) {
	out := cmd.OutOrStdout()
	logger := opts.logger(cmd)

	s, err := trace.LoadScript(path)
	if err != nil {
		return err
	}
	cfg, err := s.BuildConfig()
	if err != nil {
		return err
	}

	clk := clock.NewManual(time.Now().Truncate(time.Second))
	r, err := trace.NewRouter(cfg, clk, logger)
	if err != nil {
		return err
	}

	var target trace.Target = r
	if recordDB != "" {
		rec, closeRec, recErr := startRecording(recordDB, s, cfg, r, clk, logger)
		if recErr != nil {
			return recErr
		}
		defer func() {
			if cerr := closeRec(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		target = rec
		fmt.Fprintf(out, "session %s\n", rec.Session().ID)
	}

	res, runErr := trace.Run(s, target, clk)
	if runErr != nil && !errors.Is(runErr, trace.ErrExpectation) {
		return runErr
	}

	if verbose {
		for _, rec := range res.Records {
			fmt.Fprintln(out, rec)
		}
	}
	fmt.Fprintf(out, "%q\n", res.Text)
	return runErr
}

// startRecording opens the trace database and wraps r in a recorder whose
// session carries the script name and a snapshot of cfg.
func startRecording(dbPath string, s *trace.Script, cfg *config.Config, r *router.Router, clk clock.Clock, logger *slog.Logger) (*trace.Recorder, func() error, error) {
	store, err := trace.Open(dbPath)
	if err != nil {
		return nil, nil, err
	}
	snapshot, err := cfg.EncodeTOML()
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	rec, err := trace.NewRecorder(trace.RecorderConfig{
		Store:   store,
		Router:  r,
		Clock:   clk,
		Logger:  logger,
		Session: trace.Session{Source: "simulate", Note: s.Name, Config: snapshot},
	})
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return rec, func() error {
		defer store.Close()
		return rec.Close()
	}, nil
}
