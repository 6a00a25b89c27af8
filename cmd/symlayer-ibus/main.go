// symlayer-ibus is the Linux IBus input method engine of symlayer.
//
// It connects to the IBus daemon via D-Bus and routes every key event
// through the keystroke router: sticky modifiers, multi-tap accents and the
// symbol layer.
//
// Installation:
//  1. Copy the binary to /usr/local/bin/symlayer-ibus
//  2. Run: symlayer-ibus --install
//  3. Restart IBus: ibus restart
//  4. Enable via: ibus-setup or GNOME Settings > Keyboard > Input Sources
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"symlayer/internal/config"
	"symlayer/internal/ibus"
	"symlayer/internal/layout"
	"symlayer/internal/logging"
	"symlayer/internal/router"
	"symlayer/internal/trace"
)

// Version information (set at build time)
var version = "dev"

// crashReportMaxAge is how long crash reports are kept.
const crashReportMaxAge = 30 * 24 * time.Hour

type options struct {
	configPath   string
	ibusLaunched bool
	install      bool
	uninstall    bool
	componentDir string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "symlayer-ibus",
		Short: "symlayer input method engine for IBus",
		Long: `symlayer-ibus runs the symlayer keystroke router as an IBus engine.

IBus starts it with --ibus once the component file is installed. The
configuration file is watched and changes apply without a restart.`,
		Version:      version,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case opts.install:
				return installComponent(cmd, opts.componentDir)
			case opts.uninstall:
				return uninstallComponent(cmd, opts.componentDir)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runEngine(ctx, opts)
		},
	}

	rootCmd.Flags().StringVar(&opts.configPath, "config", "", "Path to config file")
	rootCmd.Flags().BoolVar(&opts.ibusLaunched, "ibus", false, "Launched by the IBus daemon; own the engine bus name")
	rootCmd.Flags().BoolVar(&opts.install, "install", false, "Install the IBus component file")
	rootCmd.Flags().BoolVar(&opts.uninstall, "uninstall", false, "Remove the IBus component file")
	rootCmd.Flags().StringVar(&opts.componentDir, "component-dir", "", "IBus component directory (default: ~/.local/share/ibus/component)")
	rootCmd.MarkFlagsMutuallyExclusive("install", "uninstall")
	return rootCmd
}

func runEngine(ctx context.Context, opts *options) error {
	loader := config.NewLoader(opts.configPath)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logCfg, err := logging.FromSettings(cfg.Logging, "symlayer-ibus")
	if err != nil {
		return err
	}
	lg, err := logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	defer lg.Close()
	logging.SetDefault(lg)
	logger := lg.Logger

	crash := logging.NewCrashHandler(&logging.CrashHandlerConfig{
		CrashDir:  logging.DefaultCrashDir(),
		Version:   version,
		Component: "symlayer-ibus",
		Logger:    logger,
	})
	if err := crash.CleanupOldCrashReports(crashReportMaxAge); err != nil {
		logger.Debug("crash report cleanup failed", "error", err)
	}

	r, err := router.New(router.Config{
		Resolver: layout.Reference,
		Logger:   lg.WithComponent("router").Logger,
	})
	if err != nil {
		return err
	}
	if err := r.ApplyConfig(cfg); err != nil {
		return fmt.Errorf("apply configuration: %w", err)
	}

	var handler ibus.Handler = r
	// Reloads go through the recorder when tracing so replays see them.
	var reconfigure interface{ ApplyConfig(*config.Config) error } = r
	if cfg.Trace.Enabled {
		rec, closeTrace, err := startTrace(cfg, r, logger)
		if err != nil {
			logger.Warn("trace recording disabled", "error", err)
		} else {
			defer closeTrace()
			handler = rec
			reconfigure = rec
		}
	}

	engine, err := ibus.NewEngine(ibus.Config{
		Handler:  handler,
		Resolver: layout.Reference,
		Logger:   lg.WithComponent("ibus").Logger,
		Crash:    crash,
		OnUI:     newLauncher(logger).Launch,
	})
	if err != nil {
		return err
	}

	loader.OnChange(func(c *config.Config) {
		engine.Do(func() {
			if err := reconfigure.ApplyConfig(c); err != nil {
				logger.Warn("configuration rejected", "error", err)
				return
			}
			logger.Info("configuration reloaded", "path", loader.Path())
		})
	})
	if err := loader.Watch(); err != nil {
		logger.Warn("configuration hot reload disabled", "error", err)
	} else {
		defer loader.Close()
		go logReloadErrors(ctx, loader, logger)
	}

	conn, err := ibus.Connect()
	if err != nil {
		return err
	}
	defer conn.Close()

	return ibus.Serve(ctx, conn, engine, opts.ibusLaunched)
}

// startTrace opens the trace database and wraps r in a recorder.
func startTrace(cfg *config.Config, r *router.Router, logger *slog.Logger) (*trace.Recorder, func(), error) {
	store, err := trace.Open(cfg.Trace.Path)
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
		Logger:  logger,
		Session: trace.Session{Source: "ibus", Config: snapshot},
	})
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return rec, func() {
		if err := rec.Close(); err != nil {
			logger.Warn("close trace session", "error", err)
		}
		store.Close()
	}, nil
}

func logReloadErrors(ctx context.Context, loader *config.Loader, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-loader.Errors():
			if !ok {
				return
			}
			logger.Warn("configuration reload failed", "error", err)
		}
	}
}

func componentDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	return ibus.DefaultComponentDir()
}

func installComponent(cmd *cobra.Command, dir string) error {
	dir, err := componentDir(dir)
	if err != nil {
		return err
	}
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}

	path, err := ibus.NewComponent(exe, version).Install(dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Installed %s. Run 'ibus restart' to load.\n", path)
	return nil
}

func uninstallComponent(cmd *cobra.Command, dir string) error {
	dir, err := componentDir(dir)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, ibus.EngineName+".xml")
	if err := os.Remove(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s.\n", path)
	return nil
}
