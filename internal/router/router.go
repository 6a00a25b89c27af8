// Package router turns raw key events into output actions. It owns the
// modifier state machines and the multipress engine, and decides per event
// whether the key is claimed by a triple-duty modifier, the symbol layer, the
// Cyrillic layer, multipress substitution or plain character resolution.
//
// A Router is not safe for concurrent use. Hosts deliver events from a single
// owner goroutine.
package router

import (
	"log/slog"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"symlayer/internal/clock"
	"symlayer/internal/keys"
	"symlayer/internal/layout"
	"symlayer/internal/logging"
	"symlayer/internal/modifier"
	"symlayer/internal/multipress"
)

// Classifier maps a device ID to its device class. Virtual devices (on-screen
// keyboards, injected events) keep the current class.
type Classifier func(deviceID int) (class keys.DeviceClass, virtual bool)

// Config holds the dependencies of a Router.
type Config struct {
	// Resolver is the host keymap. Required for character output.
	Resolver keys.Resolver

	// Clock defaults to the system clock.
	Clock clock.Clock

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Table is the multipress table. Nil uses multipress.DefaultTable.
	Table multipress.Table

	// Templates are the selectable first-level tables. Nil uses the
	// built-in templates.
	Templates multipress.Templates

	// Composer overrides dead-key composition.
	Composer multipress.Composer

	// Classifier is consulted when the device ID of incoming events changes.
	Classifier Classifier

	// Settings defaults to DefaultSettings().
	Settings *Settings
}

// modKeyPair binds a meta bit to the modifier key forwarded to match it.
type modKeyPair struct {
	bit  keys.Meta
	code keys.Code
}

var forcedModifierKeys = []modKeyPair{
	{keys.MetaShift, keys.CodeShiftLeft},
	{keys.MetaMeta, keys.CodeMetaLeft},
	{keys.MetaCtrl, keys.CodeCtrlLeft},
}

// Router is the keystroke router.
type Router struct {
	clock    clock.Clock
	logger   *slog.Logger
	resolver keys.Resolver
	engine   *multipress.Engine
	upper    cases.Caser

	templates multipress.Templates
	settings  Settings

	shift     *modifier.Modifier
	alt       *modifier.Modifier
	sym       *modifier.Modifier
	caps      *modifier.Modifier
	dotCtrl   *modifier.Modifier
	emojiMeta *modifier.Modifier
	cyrillic  *modifier.ToggleLayer

	cyrillicEnabled bool
	autoCapitalize  bool
	altOverride     bool

	device       keys.DeviceClass
	symTable     layout.SymTable
	classifier   Classifier
	lastDeviceID int

	field  Field
	active bool
	text   textTracker

	out         []Action
	forceStatus bool
	lastStatus  Status
	reported    bool
	lastSym     bool
}

// New creates a router. It fails only when the settings name a first-level
// template that does not exist.
func New(cfg Config) (*Router, error) {
	c := cfg.Clock
	if c == nil {
		c = clock.System{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	templates := cfg.Templates.Clone()
	if templates == nil {
		templates = multipress.BuiltinTemplates()
	}

	r := &Router{
		clock:        c,
		logger:       logger,
		resolver:     cfg.Resolver,
		upper:        cases.Upper(language.Und),
		templates:    templates,
		shift:        modifier.New(c),
		alt:          modifier.New(c),
		sym:          modifier.NewSimple(c),
		caps:         modifier.New(c),
		dotCtrl:      modifier.NewTriple(c, keys.CodeUnknown, keys.CodeUnknown, keys.CodeUnknown),
		emojiMeta:    modifier.NewTriple(c, keys.CodeUnknown, keys.CodeUnknown, keys.CodeUnknown),
		cyrillic:     modifier.NewToggleLayer(c),
		classifier:   cfg.Classifier,
		lastDeviceID: -1,
		symTable:     layout.SymTableFor(keys.DeviceTitan),
	}
	r.engine = multipress.New(multipress.Config{
		Table:    cfg.Table,
		Resolver: r.resolve,
		Composer: cfg.Composer,
		Clock:    c,
		Logger:   logger,
	})

	s := DefaultSettings()
	if cfg.Settings != nil {
		s = *cfg.Settings
	}
	if err := r.Apply(s); err != nil {
		return nil, err
	}
	return r, nil
}

// Process routes one key event.
func (r *Router) Process(ev keys.Event) Outcome {
	r.begin()
	var handled bool
	var path string
	if ev.Action == keys.Up {
		handled, path = r.onKeyUp(ev)
	} else {
		handled, path = r.onKeyDown(ev)
	}
	o := r.finish(handled)
	r.logger.Debug("key routed",
		logging.KeyEvent(ev),
		"path", path,
		"handled", o.Handled,
		"actions", len(o.Actions),
	)
	return o
}

func (r *Router) onKeyDown(ev keys.Event) (bool, string) {
	r.updateDevice(ev.DeviceID)

	if ev.FirstPress() {
		switch {
		case keys.IsAlt(ev.Code):
			r.alt.OnKeyDown()
			r.forceStatus = true
		case keys.IsShift(ev.Code):
			if r.caps.Active() {
				r.caps.Reset()
			} else {
				r.shift.OnKeyDown()
			}
			if ev.Code == keys.CodeShiftRight && r.cyrillicEnabled {
				r.cyrillic.OnKeyDown()
			}
			r.forceStatus = true
		case ev.Code == keys.CodeSym:
			r.sym.OnKeyDown()
			r.onSymPossiblyChanged()
			r.forceStatus = true
		case ev.Code == keys.CodeDictate:
			r.dotCtrl.OnKeyDown()
			r.forceStatus = true
		case ev.Code == keys.CodeEmojiPicker:
			r.emojiMeta.OnKeyDown()
			r.forceStatus = true
		}
	}

	if ev.Meta.Has(keys.MetaCtrl) {
		r.endMultipress()
		return false, "ctrl"
	}

	if r.tripleOnKeyDown(ev) {
		r.endMultipress()
		return true, "triple"
	}

	if r.sym.Active() {
		r.endMultipress()
		return r.onSymKey(ev, true), "sym"
	}

	if r.cyrillicEnabled && r.cyrillic.Active() && ev.Printing && r.onCyrillicKey(ev) {
		return true, "cyrillic"
	}

	if ev.Printing || ev.Code == keys.CodeSpace {
		res := r.engine.Process(ev, r.enhancedMeta(ev))
		switch res.Kind {
		case multipress.ResultBypass:
		case multipress.ResultSuppress:
			r.emit(UI(UIHaptic))
			return true, "multipress"
		default:
			r.deleteBefore(1)
			r.updateAutoCapitalization()
			if res.Kind == multipress.ResultText {
				r.commit(res.Text)
			} else {
				r.sendCharacter(string(res.Char))
			}
			r.consumeNext()
			r.textChanged()
			r.emit(UI(UIHaptic))
			return true, "multipress"
		}
	}

	if keys.IsDelete(ev.Code) {
		r.engine.OnDelete()
		r.consumeNext()
		if ev.Code == keys.CodeDel {
			r.text.deleteBefore(1)
		}
		r.textChanged()
		return false, "delete"
	}

	if ev.Repeat > 0 || ev.LongPress {
		return true, "repeat"
	}

	if ev.Printing || ev.Code == keys.CodeSpace || (ev.Code == keys.CodeEnter && r.shift.Active()) {
		if ch := r.resolve(ev.Code, r.enhancedMeta(ev)); ch != 0 {
			r.commit(string(ch))
		}
		if ev.Code == keys.CodeEnter {
			r.endMultipress()
		}
		r.consumeNext()
		r.textChanged()
		return true, "print"
	}

	// Navigation and editing keys handled by the host move the cursor or
	// change the text.
	if !keys.IsModifierKey(ev.Code) {
		r.endMultipress()
	}
	if ev.Code == keys.CodeEnter {
		r.consumeNext()
		r.text.append("\n")
		r.textChanged()
	}
	return false, "default"
}

func (r *Router) onKeyUp(ev keys.Event) (bool, string) {
	switch {
	case keys.IsAlt(ev.Code):
		r.alt.OnKeyUp()
		r.forceStatus = true
	case keys.IsShift(ev.Code):
		r.shift.OnKeyUp()
		if ev.Code == keys.CodeShiftRight && r.cyrillicEnabled {
			r.cyrillic.OnKeyUp()
			if r.cyrillic.WasJustToggled() {
				r.logger.Debug("cyrillic layer toggled", "active", r.cyrillic.Active())
				r.emit(UI(UIHaptic))
			}
		}
		r.forceStatus = true
	case ev.Code == keys.CodeSym:
		r.sym.OnKeyUp()
		r.onSymPossiblyChanged()
		r.forceStatus = true
	}

	if r.tripleOnKeyUp(ev) {
		r.endMultipress()
		return true, "triple"
	}

	if r.sym.Active() {
		return r.onSymKey(ev, false), "sym"
	}
	return false, "default"
}

// triple returns the triple modifier owning a key.
func (r *Router) triple(c keys.Code) *modifier.Modifier {
	switch c {
	case keys.CodeDictate:
		return r.dotCtrl
	case keys.CodeEmojiPicker:
		return r.emojiMeta
	}
	return nil
}

func (r *Router) tripleOnKeyDown(ev keys.Event) bool {
	if m := r.triple(ev.Code); m != nil {
		if !m.Held() {
			m.OnKeyDown()
		}
		if ev.FirstPress() {
			return true
		}
		if !m.LongPress() {
			m.ActivateLongPress()
			if m.LongPress() {
				r.emit(UI(UIHaptic))
			}
		}
		return true
	}

	if !keys.IsModifierKey(ev.Code) {
		for _, m := range []*modifier.Modifier{r.dotCtrl, r.emojiMeta} {
			if m.Active() && m.ModKey() == keys.CodeUnknown && m.ModKeyCode != keys.CodeUnknown {
				if m.ActivateModKey() {
					r.sendKey(m.ModKey(), ev, keys.Down)
				}
				break
			}
		}
	}

	if r.emojiMeta.Active() && r.onEmojiMetaShortcut(ev) {
		return true
	}

	if r.claimed() {
		r.sendKey(ev.Code, ev, keys.Down)
		r.sendKey(ev.Code, ev, keys.Up)
		return true
	}
	return false
}

func (r *Router) tripleOnKeyUp(ev keys.Event) bool {
	if m := r.triple(ev.Code); m != nil {
		rel := m.Release()
		m.Reset()
		r.forceStatus = true
		switch {
		case rel.ModKey != keys.CodeUnknown:
			r.sendKey(rel.ModKey, ev, keys.Up)
		case rel.Tap != keys.CodeUnknown:
			r.simulateKeyTap(rel.Tap, ev)
			r.consumeNext()
		}
		return true
	}

	// Keys pressed under a claimed modifier were already sent as a full tap.
	return r.claimed()
}

// claimed reports whether a triple modifier is held as a live modifier.
func (r *Router) claimed() bool {
	return r.dotCtrl.ModKey() != keys.CodeUnknown || r.emojiMeta.ModKey() != keys.CodeUnknown
}

func (r *Router) onSymKey(ev keys.Event, pressed bool) bool {
	mapping, ok := r.symTable.Lookup(ev.Code)
	if !ok {
		return ev.Printing
	}

	a := mapping.Action
	switch {
	case pressed && ev.FirstPress():
		switch a.Kind {
		case layout.SendKey:
			r.sendKey(a.Code, ev, keys.Down)
		case layout.SendChar:
			r.sendCharacter(a.Text(r.shift.Active()))
			r.consumeNext()
		}
	case !pressed && a.Kind == layout.SendKey:
		r.sendKey(a.Code, ev, keys.Up)
	}
	return true
}

func (r *Router) onCyrillicKey(ev keys.Event) bool {
	upper := r.shift.Active() || r.caps.Active()

	var ch rune
	var ok bool
	if r.alt.Active() {
		ch, ok = layout.CyrillicAlt(ev.Code, upper)
	} else {
		ch, ok = layout.Cyrillic(ev.Code, upper)
	}
	if !ok {
		return false
	}
	if !ev.FirstPress() {
		return true
	}

	r.endMultipress()
	r.commit(string(ch))
	r.consumeNext()
	r.textChanged()
	return true
}

// simulateKeyTap taps a key on behalf of a triple modifier released alone.
func (r *Router) simulateKeyTap(code keys.Code, orig keys.Event) {
	switch code {
	case keys.CodePictSymbols:
		r.emit(UI(UIEmojiPicker))
		return
	case keys.CodeVoiceAssist:
		r.emit(UI(UIVoiceInput))
		return
	}

	tap := orig.WithCode(code)
	tap.Repeat = 0
	tap.LongPress = false
	if r.sym.Active() {
		tap.Action = keys.Down
		r.onSymKey(tap, true)
		tap.Action = keys.Up
		r.onSymKey(tap, false)
		return
	}
	r.sendKey(code, tap, keys.Down)
	r.sendKey(code, tap, keys.Up)
}

// sendKey forwards a key at the enhanced meta state of orig. Modifier keys for
// meta bits the raw event lacks are pressed around it.
func (r *Router) sendKey(code keys.Code, orig keys.Event, action keys.Action) {
	meta := r.enhancedMeta(orig)

	var forced []keys.Code
	if !keys.IsModifierKey(code) {
		for _, p := range forcedModifierKeys {
			if !orig.Meta.Has(p.bit) && meta.Has(p.bit) {
				forced = append(forced, p.code)
			}
		}
	}

	for _, c := range forced {
		r.forward(c, meta, keys.Down)
	}
	r.forward(code, meta, action)
	for i := len(forced) - 1; i >= 0; i-- {
		r.forward(forced[i], meta, keys.Up)
	}
}

func (r *Router) forward(code keys.Code, meta keys.Meta, action keys.Action) {
	r.emit(Forward(code, meta, action))
	if action == keys.Down && keys.IsPrintingKey(code) && !meta.Any(keys.MetaCtrl|keys.MetaMeta) {
		if ch := r.resolve(code, meta); ch != 0 {
			r.text.append(string(ch))
		}
	}
}

// sendCharacter commits s, upper-cased when Shift or auto-caps is active.
func (r *Router) sendCharacter(s string) {
	if r.shift.Active() || r.caps.Active() {
		s = r.upper.String(s)
	}
	r.commit(s)
}

func (r *Router) commit(s string) {
	if s == "" {
		return
	}
	r.emit(Commit(s))
	r.text.append(s)
}

func (r *Router) deleteBefore(n int) {
	r.emit(DeleteBefore(n))
	r.text.deleteBefore(n)
}

func (r *Router) emit(a Action) {
	r.out = append(r.out, a)
}

// endMultipress forgets what the engine typed last, so its next result
// cannot replace text that came from elsewhere.
func (r *Router) endMultipress() {
	r.engine.Reset()
	r.engine.ClearLookback()
}

// consumeNext tells every next-capable modifier that a key used its state.
func (r *Router) consumeNext() {
	r.shift.NextDidConsume()
	r.alt.NextDidConsume()
	r.caps.NextDidConsume()
	r.dotCtrl.NextDidConsume()
}

// enhancedMeta folds the virtual modifiers into the event meta state. Sym is
// always stripped.
func (r *Router) enhancedMeta(ev keys.Event) keys.Meta {
	m := ev.Meta
	if r.shift.Active() {
		m |= keys.MetaShift
	}
	if r.caps.Active() {
		m |= keys.MetaCapsLock
	}
	if r.alt.Active() {
		m |= keys.MetaAlt
	}
	if r.dotCtrl.ModKey() != keys.CodeUnknown {
		m |= keys.MetaCtrl
	}
	if r.emojiMeta.ModKey() != keys.CodeUnknown {
		m |= keys.MetaMeta
	}
	return m &^ keys.MetaSym
}

// resolve is the host resolver with the Alt-key override applied.
func (r *Router) resolve(c keys.Code, meta keys.Meta) rune {
	if r.altOverride && meta.Has(keys.MetaAlt) {
		if ch, ok := layout.AltChar(c); ok {
			return ch
		}
	}
	return r.resolver.Resolve(c, meta)
}

func (r *Router) updateAutoCapitalization() {
	if !r.autoCapitalize || !r.active {
		return
	}
	if r.field.CanUseSuggestions() && SentenceStart(r.text.String()) {
		r.caps.ActivateForNext()
	}
}

// textChanged re-evaluates auto-capitalization after the text before the
// cursor changed.
func (r *Router) textChanged() {
	if !r.sym.Active() {
		r.updateAutoCapitalization()
	}
}

func (r *Router) onSymPossiblyChanged() {
	cur := r.sym.Active()
	switch {
	case cur && !r.lastSym:
		if r.shift.Active() && !r.shift.Held() {
			r.shift.Reset()
		}
	case !cur && r.lastSym:
		r.updateAutoCapitalization()
	}
	r.lastSym = cur
}

func (r *Router) updateDevice(id int) {
	if id == r.lastDeviceID {
		return
	}
	r.lastDeviceID = id
	if r.classifier == nil {
		return
	}
	class, virtual := r.classifier(id)
	if virtual {
		return
	}
	if class != r.device {
		r.logger.Debug("device class changed", "device_id", id, "class", class.String())
	}
	r.setDevice(class)
}

func (r *Router) setDevice(d keys.DeviceClass) {
	r.device = d
	r.symTable = layout.SymTableFor(d)
}

func (r *Router) begin() {
	r.out = nil
	r.forceStatus = false
}

func (r *Router) finish(handled bool) Outcome {
	s := r.status()
	o := Outcome{
		Handled:       handled,
		Actions:       r.out,
		StatusChanged: r.forceStatus || !r.reported || s != r.lastStatus,
		Status:        s,
	}
	r.lastStatus = s
	r.reported = true
	r.lastSym = s.Sym
	r.out = nil
	r.forceStatus = false
	return o
}

// StartInput binds the router to a newly focused field.
func (r *Router) StartInput(f Field) Outcome {
	r.begin()
	r.field = f
	r.active = true
	r.text.set(f.TextBeforeCursor)
	r.endMultipress()
	if !r.sym.Active() {
		r.updateAutoCapitalization()
	}
	r.logger.Debug("input started", "field", f.Type.String())
	return r.finish(true)
}

// FinishInput detaches the router from the field. Shift and auto-caps are
// released so their indicator does not linger without a field.
func (r *Router) FinishInput() Outcome {
	r.begin()
	r.shift.Reset()
	r.caps.Reset()
	r.active = false
	r.forceStatus = true
	return r.finish(true)
}

// SelectionChanged resynchronizes the text before the cursor after the host
// moved the cursor or edited the field. A report that only echoes the
// router's own edits keeps the multipress cursor.
func (r *Router) SelectionChanged(textBefore string) Outcome {
	r.begin()
	if !r.text.matches(textBefore) {
		r.endMultipress()
	}
	r.text.set(textBefore)
	if !r.sym.Active() {
		r.updateAutoCapitalization()
	}
	return r.finish(true)
}

// Reset abandons every gesture in progress: all modifiers and the multipress
// cursor. The Cyrillic layer keeps its state.
func (r *Router) Reset() Outcome {
	r.begin()
	for _, m := range []*modifier.Modifier{r.shift, r.alt, r.sym, r.caps, r.dotCtrl, r.emojiMeta} {
		m.Reset()
	}
	r.engine.Reset()
	r.forceStatus = true
	return r.finish(true)
}

// Status returns the current modifier status.
func (r *Router) Status() Status {
	return r.status()
}

// Text returns the tracked text before the cursor.
func (r *Router) Text() string {
	return r.text.String()
}

// Field returns the focused field.
func (r *Router) Field() Field {
	return r.field
}

// Device returns the active device class.
func (r *Router) Device() keys.DeviceClass {
	return r.device
}

// Engine returns the multipress engine.
func (r *Router) Engine() *multipress.Engine {
	return r.engine
}
