// Package ibus exposes the keystroke router as an IBus input method engine
// over D-Bus. The engine logic is platform independent; connecting to the
// bus is Linux only.
package ibus

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"symlayer/internal/clock"
	"symlayer/internal/keys"
	"symlayer/internal/layout"
	"symlayer/internal/logging"
	"symlayer/internal/router"
)

// IBus D-Bus constants
const (
	IBusService       = "org.freedesktop.IBus"
	FactoryPath       = "/org/freedesktop/IBus/Factory"
	FactoryInterface  = "org.freedesktop.IBus.Factory"
	EngineInterface   = "org.freedesktop.IBus.Engine"
	ServiceInterface  = "org.freedesktop.IBus.Service"
	BusName           = "org.freedesktop.IBus.Symlayer"
	EngineName        = "symlayer"
	enginePathPattern = "/org/freedesktop/IBus/Engine/%d"
)

// IBus input purposes (IBusInputPurpose).
const (
	purposeFreeForm uint32 = iota
	purposeAlpha
	purposeDigits
	purposeNumber
	purposePhone
	purposeURL
	purposeEmail
	purposeName
	purposePassword
	purposePin
	purposeTerminal
)

// Handler is the router surface the engine drives. *router.Router and
// *trace.Recorder implement it.
type Handler interface {
	Process(keys.Event) router.Outcome
	StartInput(router.Field) router.Outcome
	FinishInput() router.Outcome
	SelectionChanged(textBefore string) router.Outcome
	Reset() router.Outcome
}

// Signaler emits D-Bus signals. *dbus.Conn implements it.
type Signaler interface {
	Emit(path dbus.ObjectPath, name string, values ...interface{}) error
}

// Config holds the dependencies of an Engine.
type Config struct {
	// Handler receives every key event. Required.
	Handler Handler

	// Resolver maps forwarded key codes to keysyms. Defaults to
	// layout.Reference and should match the router's resolver.
	Resolver keys.Resolver

	// Clock timestamps key events. Defaults to the system clock.
	Clock clock.Clock

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Crash recovers panics raised while handling a call. Optional.
	Crash *logging.CrashHandler

	// OnUI is invoked for UI actions (emoji picker, app launches). Optional.
	OnUI func(router.UIAction)
}

// Stats counts engine activity.
type Stats struct {
	KeyEvents    uint64
	Handled      uint64
	Commits      uint64
	Forwarded    uint64
	Panics       uint64
	FocusChanges uint64
	LastKeyEvent time.Time
}

// Engine implements the org.freedesktop.IBus.Engine interface. Every call is
// serialized by one mutex so the handler sees a single owner.
type Engine struct {
	mu sync.Mutex

	handler  Handler
	resolver keys.Resolver
	clock    clock.Clock
	logger   *slog.Logger
	crash    *logging.CrashHandler
	onUI     func(router.UIAction)

	signals Signaler
	path    dbus.ObjectPath

	repeats  *repeatTracker
	field    router.Field
	focused  bool
	enabled  bool
	stats    Stats
	auxShown bool
}

// NewEngine creates an engine. Signals are dropped until Attach is called.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Handler == nil {
		return nil, fmt.Errorf("ibus engine needs a handler")
	}
	resolver := cfg.Resolver
	if resolver == nil {
		resolver = layout.Reference
	}
	c := cfg.Clock
	if c == nil {
		c = clock.System{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		handler:  cfg.Handler,
		resolver: resolver,
		clock:    c,
		logger:   logger,
		crash:    cfg.Crash,
		onUI:     cfg.OnUI,
		repeats:  newRepeatTracker(),
		enabled:  true,
	}, nil
}

// Attach sets the signal sink and the object path the engine is exported at.
func (e *Engine) Attach(s Signaler, path dbus.ObjectPath) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.signals = s
	e.path = path
}

// Do runs fn while holding the engine lock. Hosts use it to reconfigure the
// handler from another goroutine.
func (e *Engine) Do(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn()
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// guard runs fn, converting a panic into a crash report. It reports whether
// fn completed.
func (e *Engine) guard(op string, fn func()) bool {
	if e.crash == nil {
		fn()
		return true
	}
	ok := e.crash.Recover(map[string]interface{}{"op": op}, fn)
	if !ok {
		e.stats.Panics++
		e.repeats.reset()
		e.crash.Recover(map[string]interface{}{"op": "reset after panic"}, func() {
			e.handler.Reset()
		})
	}
	return ok
}

// ProcessKeyEvent handles key press/release events from IBus.
// Returns true if the key was consumed, false to pass through.
func (e *Engine) ProcessKeyEvent(keyval, keycode, state uint32) (bool, *dbus.Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.enabled {
		return false, nil
	}

	code := CodeFor(keyval, keycode)
	if code == keys.CodeUnknown {
		return false, nil
	}

	now := e.clock.Now()
	action := keys.Down
	if state&ReleaseMask != 0 {
		action = keys.Up
	}
	ev := keys.NewEvent(code, action, MetaFromState(state), now)
	if action == keys.Down {
		ev.Repeat, ev.LongPress = e.repeats.press(code, now)
	} else {
		e.repeats.release(code)
	}

	e.stats.KeyEvents++
	e.stats.LastKeyEvent = now

	var out router.Outcome
	if !e.guard("process key event", func() { out = e.handler.Process(ev) }) {
		return false, nil
	}
	e.apply(out)
	if out.Handled {
		e.stats.Handled++
	}
	return out.Handled, nil
}

// apply turns an outcome into IBus signals.
func (e *Engine) apply(o router.Outcome) {
	for _, a := range o.Actions {
		switch a.Kind {
		case router.ActionCommit:
			e.emit("CommitText", textVariant(a.Text))
			e.stats.Commits++
		case router.ActionDelete:
			e.emit("DeleteSurroundingText", int32(-a.Count), uint32(a.Count))
		case router.ActionForward:
			keysym, keycode, ok := Keysym(a.Code, a.Meta, e.resolver)
			if !ok {
				e.logger.Debug("cannot forward key", "key", a.Code.String())
				continue
			}
			st := StateFromMeta(a.Meta)
			if a.KeyAction == keys.Up {
				st |= ReleaseMask
			}
			e.emit("ForwardKeyEvent", keysym, keycode, st)
			e.stats.Forwarded++
		case router.ActionUI:
			if a.UI == router.UIHaptic {
				continue
			}
			e.logger.Debug("ui action", "action", string(a.UI))
			if e.onUI != nil {
				e.onUI(a.UI)
			}
		}
	}
	if o.StatusChanged {
		e.updateStatus(o.Status)
	}
}

// updateStatus shows the modifier indicator as auxiliary text, hidden when
// no modifier is active.
func (e *Engine) updateStatus(s router.Status) {
	label := statusLabel(s)
	visible := s.Indicator != router.IndicatorNone || s.Cyrillic
	if !visible && !e.auxShown {
		return
	}
	e.auxShown = visible
	e.emit("UpdateAuxiliaryText", textVariant(label), visible)
}

func statusLabel(s router.Status) string {
	label := s.Language
	if s.Indicator != router.IndicatorNone {
		label = string(s.Indicator)
	}
	if s.Cyrillic {
		label += " РУ"
	}
	return label
}

func (e *Engine) emit(name string, values ...interface{}) {
	if e.signals == nil || e.path == "" {
		return
	}
	if err := e.signals.Emit(e.path, EngineInterface+"."+name, values...); err != nil {
		e.logger.Warn("emit signal failed", "signal", name, "error", err)
	}
}

// lifecycle runs a handler lifecycle call and applies its outcome.
func (e *Engine) lifecycle(op string, fn func() router.Outcome) {
	var out router.Outcome
	if e.guard(op, func() { out = fn() }) {
		e.apply(out)
	}
}

// FocusIn is called when the engine gains input focus.
func (e *Engine) FocusIn() *dbus.Error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.focused = true
	e.stats.FocusChanges++
	e.repeats.reset()
	f := e.field
	e.logger.Debug("focus in", "field", f.Type.String())
	e.lifecycle("focus in", func() router.Outcome { return e.handler.StartInput(f) })
	return nil
}

// FocusOut is called when the engine loses input focus.
func (e *Engine) FocusOut() *dbus.Error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.focused = false
	e.repeats.reset()
	e.logger.Debug("focus out")
	e.lifecycle("focus out", e.handler.FinishInput)
	return nil
}

// Enable is called when the engine is enabled.
func (e *Engine) Enable() *dbus.Error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = true
	e.logger.Debug("enable")
	return nil
}

// Disable is called when the engine is disabled.
func (e *Engine) Disable() *dbus.Error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = false
	e.repeats.reset()
	e.logger.Debug("disable")
	e.lifecycle("disable", e.handler.Reset)
	return nil
}

// Reset resets the engine state.
func (e *Engine) Reset() *dbus.Error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.repeats.reset()
	e.lifecycle("reset", e.handler.Reset)
	return nil
}

// SetContentType informs about the type of content being edited. A change
// while focused restarts input with the new field type.
func (e *Engine) SetContentType(purpose, hints uint32) *dbus.Error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := FieldTypeForPurpose(purpose)
	if t == e.field.Type {
		return nil
	}
	e.field.Type = t
	e.logger.Debug("content type", "purpose", purpose, "hints", hints, "field", t.String())
	if e.focused {
		f := e.field
		e.lifecycle("content type", func() router.Outcome { return e.handler.StartInput(f) })
	}
	return nil
}

// SetSurroundingText provides the text around the cursor.
func (e *Engine) SetSurroundingText(text dbus.Variant, cursorPos, anchorPos uint32) *dbus.Error {
	e.mu.Lock()
	defer e.mu.Unlock()

	before := textBefore(textFromVariant(text), cursorPos)
	e.field.TextBeforeCursor = before
	if e.focused {
		e.lifecycle("surrounding text", func() router.Outcome { return e.handler.SelectionChanged(before) })
	}
	return nil
}

// SetCapabilities informs about client capabilities.
func (e *Engine) SetCapabilities(caps uint32) *dbus.Error {
	return nil
}

// SetCursorLocation informs about cursor position.
func (e *Engine) SetCursorLocation(x, y, w, h int32) *dbus.Error {
	return nil
}

// PropertyActivate handles property activations.
func (e *Engine) PropertyActivate(propName string, state uint32) *dbus.Error {
	return nil
}

// PageUp handles page up in candidate list.
func (e *Engine) PageUp() *dbus.Error { return nil }

// PageDown handles page down in candidate list.
func (e *Engine) PageDown() *dbus.Error { return nil }

// CursorUp handles cursor up in candidate list.
func (e *Engine) CursorUp() *dbus.Error { return nil }

// CursorDown handles cursor down in candidate list.
func (e *Engine) CursorDown() *dbus.Error { return nil }

// CandidateClicked handles candidate selection.
func (e *Engine) CandidateClicked(index, button, state uint32) *dbus.Error { return nil }

// Destroy is called when IBus discards the engine.
func (e *Engine) Destroy() *dbus.Error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.logger.Debug("destroy")
	e.lifecycle("destroy", e.handler.FinishInput)
	e.signals = nil
	return nil
}

// FieldTypeForPurpose maps an IBus input purpose to a field type.
func FieldTypeForPurpose(purpose uint32) router.FieldType {
	switch purpose {
	case purposeDigits, purposeNumber, purposePhone, purposePin:
		return router.FieldNumber
	case purposeURL:
		return router.FieldURI
	case purposeEmail:
		return router.FieldEmail
	case purposePassword:
		return router.FieldPassword
	case purposeTerminal:
		return router.FieldTerminal
	default:
		return router.FieldText
	}
}

// textBefore returns the runes of s before the cursor position.
func textBefore(s string, cursor uint32) string {
	r := []rune(s)
	if int(cursor) < len(r) {
		r = r[:cursor]
	}
	return string(r)
}
