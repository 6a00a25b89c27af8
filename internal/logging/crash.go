package logging

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"symlayer/internal/config"
)

// CrashReport represents information about a recovered panic.
type CrashReport struct {
	ID         string                 `json:"id"`
	Timestamp  time.Time              `json:"timestamp"`
	Version    string                 `json:"version,omitempty"`
	GOOS       string                 `json:"goos"`
	GOARCH     string                 `json:"goarch"`
	PanicValue string                 `json:"panic_value"`
	StackTrace string                 `json:"stack_trace"`
	Component  string                 `json:"component,omitempty"`
	Context    map[string]interface{} `json:"context,omitempty"`
}

// CrashHandler recovers panics in event handlers so that a bug in one key
// event does not take the input method down, and writes a report for each.
type CrashHandler struct {
	mu        sync.Mutex
	crashDir  string
	version   string
	component string
	logger    *slog.Logger
	onCrash   func(CrashReport)
}

// CrashHandlerConfig configures the crash handler.
type CrashHandlerConfig struct {
	// CrashDir is the directory to write crash reports.
	CrashDir string

	// Version is the application version.
	Version string

	// Component is the component name.
	Component string

	// Logger receives one error record per crash. Defaults to slog.Default().
	Logger *slog.Logger

	// OnCrash is called after a crash is logged.
	OnCrash func(CrashReport)
}

// DefaultCrashDir returns the platform-specific default crash directory.
func DefaultCrashDir() string {
	return filepath.Join(config.PlatformDataDir(), "crashes")
}

// NewCrashHandler creates a new CrashHandler.
func NewCrashHandler(cfg *CrashHandlerConfig) *CrashHandler {
	if cfg == nil {
		cfg = &CrashHandlerConfig{}
	}
	if cfg.CrashDir == "" {
		cfg.CrashDir = DefaultCrashDir()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &CrashHandler{
		crashDir:  cfg.CrashDir,
		version:   cfg.Version,
		component: cfg.Component,
		logger:    logger,
		onCrash:   cfg.OnCrash,
	}
}

// Recover runs fn and converts a panic into a crash report. It reports
// whether fn completed normally.
func (h *CrashHandler) Recover(contextInfo map[string]interface{}, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			h.HandlePanic(r, contextInfo)
			ok = false
		}
	}()
	fn()
	return true
}

// HandlePanic records a recovered panic value.
func (h *CrashHandler) HandlePanic(panicValue interface{}, contextInfo map[string]interface{}) CrashReport {
	h.mu.Lock()
	defer h.mu.Unlock()

	report := CrashReport{
		ID:         uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		Version:    h.version,
		GOOS:       runtime.GOOS,
		GOARCH:     runtime.GOARCH,
		PanicValue: fmt.Sprintf("%v", panicValue),
		StackTrace: string(debug.Stack()),
		Component:  h.component,
		Context:    contextInfo,
	}

	path, err := h.writeCrashReport(report)
	if err != nil {
		h.logger.Error("panic recovered", "panic", report.PanicValue, "id", report.ID, "report_error", err)
	} else {
		h.logger.Error("panic recovered", "panic", report.PanicValue, "id", report.ID, "report", path)
	}

	if h.onCrash != nil {
		h.onCrash(report)
	}
	return report
}

// writeCrashReport writes the crash report to a file.
func (h *CrashHandler) writeCrashReport(report CrashReport) (string, error) {
	if err := os.MkdirAll(h.crashDir, 0750); err != nil {
		return "", fmt.Errorf("create crash directory: %w", err)
	}

	filename := fmt.Sprintf("crash-%s-%s.json",
		report.Timestamp.Format("20060102-150405"), report.ID[:8])
	path := filepath.Join(h.crashDir, filename)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal crash report: %w", err)
	}
	if err := os.WriteFile(path, data, 0640); err != nil {
		return "", fmt.Errorf("write crash report: %w", err)
	}
	return path, nil
}

// CrashReports returns the stored crash reports, oldest first.
func (h *CrashHandler) CrashReports() ([]CrashReport, error) {
	files, err := filepath.Glob(filepath.Join(h.crashDir, "crash-*.json"))
	if err != nil {
		return nil, err
	}

	reports := make([]CrashReport, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			continue
		}
		var report CrashReport
		if err := json.Unmarshal(data, &report); err != nil {
			continue
		}
		reports = append(reports, report)
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Timestamp.Before(reports[j].Timestamp)
	})
	return reports, nil
}

// CleanupOldCrashReports removes crash reports older than maxAge.
func (h *CrashHandler) CleanupOldCrashReports(maxAge time.Duration) error {
	files, err := filepath.Glob(filepath.Join(h.crashDir, "crash-*.json"))
	if err != nil {
		return err
	}

	cutoff := time.Now().Add(-maxAge)
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			os.Remove(file)
		}
	}
	return nil
}
