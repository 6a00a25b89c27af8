package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last file event before the
// configuration is reloaded.
const DefaultDebounce = 100 * time.Millisecond

// Loader owns the configuration file of a running engine. Watch reloads it
// when the file or the custom substitution tables it points to change.
type Loader struct {
	// Debounce overrides DefaultDebounce. Set it before Watch.
	Debounce time.Duration

	path string

	mu       sync.Mutex
	cfg      *Config
	onChange []func(*Config)
	watched  map[string]bool // cleaned file paths that trigger a reload
	watcher  *fsnotify.Watcher
	timer    *time.Timer
	closed   bool

	errs chan error
	done chan struct{}
}

// NewLoader returns a loader for path, or for ConfigPath when path is empty.
func NewLoader(path string) *Loader {
	if path == "" {
		path = ConfigPath()
	}
	return &Loader{
		Debounce: DefaultDebounce,
		path:     path,
		errs:     make(chan error, 1),
		done:     make(chan struct{}),
	}
}

// Path returns the configuration file.
func (l *Loader) Path() string {
	return l.path
}

// Load reads and validates the configuration file.
func (l *Loader) Load() (*Config, error) {
	cfg, err := l.read()
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.cfg = cfg
	l.mu.Unlock()
	return cfg, nil
}

func (l *Loader) read() (*Config, error) {
	cfg, err := Load(l.path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return cfg, nil
}

// Config returns the last configuration that loaded and validated.
func (l *Loader) Config() *Config {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg
}

// OnChange registers a callback for reloaded configurations. Callbacks run
// on a timer goroutine; hosts hand the value to their event owner.
func (l *Loader) OnChange(cb func(*Config)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, cb)
}

// Errors delivers reload failures. Only the most recent unread error is
// kept.
func (l *Loader) Errors() <-chan error {
	return l.errs
}

// Watch starts watching the configuration file and its custom tables file.
// Directories are watched instead of files so that editors saving through a
// rename are noticed.
func (l *Loader) Watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	l.mu.Lock()
	l.watcher = w
	err = l.track(l.cfg)
	l.mu.Unlock()
	if err != nil {
		w.Close()
		return err
	}

	go l.run(w)
	return nil
}

// track points the watcher at the files cfg depends on. Called with mu held.
func (l *Loader) track(cfg *Config) error {
	files := []string{l.path}
	if cfg != nil && cfg.Multipress.CustomTables != "" {
		files = append(files, expandPath(cfg.Multipress.CustomTables))
	}

	watched := make(map[string]bool, len(files))
	for _, f := range files {
		f = filepath.Clean(f)
		watched[f] = true
		if err := l.watcher.Add(filepath.Dir(f)); err != nil {
			return fmt.Errorf("watch %s: %w", filepath.Dir(f), err)
		}
	}
	l.watched = watched
	return nil
}

func (l *Loader) run(w *fsnotify.Watcher) {
	for {
		select {
		case <-l.done:
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				l.schedule(filepath.Clean(ev.Name))
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			l.report(err)
		}
	}
}

// schedule restarts the debounce timer when name is a tracked file.
func (l *Loader) schedule(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || !l.watched[name] {
		return
	}
	if l.timer != nil {
		l.timer.Stop()
	}
	l.timer = time.AfterFunc(l.Debounce, l.reload)
}

// reload replaces the configuration when the files still load and validate.
// A broken file leaves the previous configuration in place.
func (l *Loader) reload() {
	cfg, err := l.read()
	if err != nil {
		l.report(fmt.Errorf("reload %s: %w", l.path, err))
		return
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.cfg = cfg
	if err := l.track(cfg); err != nil {
		l.report(err)
	}
	callbacks := append([]func(*Config){}, l.onChange...)
	l.mu.Unlock()

	for _, cb := range callbacks {
		cb(cfg)
	}
}

func (l *Loader) report(err error) {
	select {
	case l.errs <- err:
	default:
	}
}

// Close stops watching. It is safe to call more than once.
func (l *Loader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	close(l.done)
	if l.timer != nil {
		l.timer.Stop()
	}
	if l.watcher != nil {
		return l.watcher.Close()
	}
	return nil
}
