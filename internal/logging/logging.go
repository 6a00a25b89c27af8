// Package logging configures slog for the symlayer binaries.
//
// Records go to stderr, stdout, a size-rotated file, or stderr and the file
// together. Attributes that can carry typed text are replaced by their
// length unless ShowText is set, so a debug log of a session still shows how
// many characters each commit produced without revealing them.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"symlayer/internal/config"
	"symlayer/internal/keys"
)

// Level is a slog level.
type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// levelNames is ordered so that the first name of each level is canonical.
var levelNames = []struct {
	name  string
	level Level
}{
	{"debug", LevelDebug},
	{"info", LevelInfo},
	{"warn", LevelWarn},
	{"warning", LevelWarn},
	{"error", LevelError},
}

// Format selects the slog handler.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// Config holds the logging configuration.
type Config struct {
	Level  Level
	Format Format

	// Output is "stderr" (default), "stdout", "file" or "both".
	Output string

	// FilePath, MaxSize (megabytes) and MaxBackups apply when Output
	// includes the file.
	FilePath   string
	MaxSize    int64
	MaxBackups int

	AddSource bool

	// ShowText disables redaction of typed text.
	ShowText bool

	// Component is attached to every record.
	Component string

	// Writer overrides Output. Used by tests.
	Writer io.Writer
}

// DefaultConfig returns info-level text logging to stderr.
func DefaultConfig() *Config {
	return &Config{
		Level:      LevelInfo,
		Format:     FormatText,
		Output:     "stderr",
		FilePath:   config.DefaultConfig().Logging.FilePath,
		MaxSize:    10,
		MaxBackups: 3,
		Component:  "symlayer",
	}
}

// FromSettings converts the [logging] section of the configuration file.
func FromSettings(c config.LoggingConfig, component string) (*Config, error) {
	level, err := ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	format, err := ParseFormat(c.Format)
	if err != nil {
		return nil, err
	}
	return &Config{
		Level:      level,
		Format:     format,
		Output:     c.Output,
		FilePath:   c.FilePath,
		MaxSize:    int64(c.MaxSizeMB),
		MaxBackups: c.MaxBackups,
		Component:  component,
	}, nil
}

// Logger is a slog.Logger that owns its log file, if any.
type Logger struct {
	*slog.Logger

	cfg     *Config
	rotator *FileRotator
	mu      sync.Mutex
}

var defaultLogger atomic.Pointer[Logger]

// Default returns the process logger, creating a stderr logger on first use.
func Default() *Logger {
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	l, err := New(DefaultConfig())
	if err != nil {
		l = &Logger{Logger: slog.Default(), cfg: DefaultConfig()}
	}
	defaultLogger.CompareAndSwap(nil, l)
	return defaultLogger.Load()
}

// SetDefault installs l as the process logger and as slog's default.
func SetDefault(l *Logger) {
	defaultLogger.Store(l)
	slog.SetDefault(l.Logger)
}

// New creates a Logger from cfg. A nil cfg means DefaultConfig.
func New(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	l := &Logger{cfg: cfg}

	w, err := l.writer()
	if err != nil {
		return nil, fmt.Errorf("log output: %w", err)
	}

	opts := &slog.HandlerOptions{Level: cfg.Level, AddSource: cfg.AddSource}
	if !cfg.ShowText {
		opts.ReplaceAttr = redact
	}

	var h slog.Handler
	if cfg.Format == FormatJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	if cfg.Component != "" {
		h = h.WithAttrs([]slog.Attr{slog.String("component", cfg.Component)})
	}
	l.Logger = slog.New(h)
	return l, nil
}

func (l *Logger) writer() (io.Writer, error) {
	if l.cfg.Writer != nil {
		return l.cfg.Writer, nil
	}
	out := strings.ToLower(l.cfg.Output)
	switch out {
	case "stdout":
		return os.Stdout, nil
	case "file", "both":
		r, err := NewFileRotator(l.cfg)
		if err != nil {
			return nil, err
		}
		l.rotator = r
		if out == "both" {
			return io.MultiWriter(os.Stderr, r), nil
		}
		return r, nil
	default:
		return os.Stderr, nil
	}
}

// textKeys are substrings of attribute keys whose values may be typed text.
var textKeys = []string{"text", "commit", "char", "password", "secret", "token"}

func shouldRedact(key string) bool {
	key = strings.ToLower(key)
	for _, k := range textKeys {
		if strings.Contains(key, k) {
			return true
		}
	}
	return false
}

// redact replaces a string value under a text key with its length in
// characters. Other value kinds under such keys are dropped entirely.
func redact(_ []string, a slog.Attr) slog.Attr {
	if !shouldRedact(a.Key) {
		return a
	}
	v := a.Value.Resolve()
	if v.Kind() == slog.KindString {
		a.Value = slog.StringValue(fmt.Sprintf("[%d chars]", utf8.RuneCountInString(v.String())))
	} else {
		a.Value = slog.StringValue("[redacted]")
	}
	return a
}

// KeyEvent groups the fields of a key event under "event". Timestamps are
// left out since every record carries its own.
func KeyEvent(ev keys.Event) slog.Attr {
	attrs := []any{
		slog.String("key", ev.Code.String()),
		slog.String("action", ev.Action.String()),
	}
	if ev.Repeat > 0 {
		attrs = append(attrs, slog.Int("repeat", ev.Repeat))
	}
	if ev.LongPress {
		attrs = append(attrs, slog.Bool("long_press", true))
	}
	if ev.Meta != 0 {
		attrs = append(attrs, slog.String("meta", ev.Meta.String()))
	}
	return slog.Group("event", attrs...)
}

// WithComponent returns a logger that tags records with name instead.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{
		Logger:  l.Logger.With(slog.String("component", name)),
		cfg:     l.cfg,
		rotator: l.rotator,
	}
}

// Close closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.rotator == nil {
		return nil
	}
	return l.rotator.Close()
}

// Sync flushes the log file to disk.
func (l *Logger) Sync() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.rotator == nil {
		return nil
	}
	return l.rotator.Sync()
}

// ParseLevel parses a level name, ignoring case.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, n := range levelNames {
		if n.name == s {
			return n.level, nil
		}
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// LevelString returns the canonical name of level, or "info".
func LevelString(level Level) string {
	for _, n := range levelNames {
		if n.level == level {
			return n.name
		}
	}
	return "info"
}

// ParseFormat parses "text" or "json". The empty string is text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatText, fmt.Errorf("unknown log format %q", s)
	}
}
