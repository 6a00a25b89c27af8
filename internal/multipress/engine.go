// Package multipress implements multi-tap substitution: repeated taps of one
// key within a time window cycle through alternative characters, and holding
// the key through repeats switches to another substitution level.
package multipress

import (
	"log/slog"
	"time"

	"symlayer/internal/clock"
	"symlayer/internal/keys"
)

// DefaultThreshold is the maximum gap between two presses of one key for the
// second to continue the cycle.
const DefaultThreshold = 750 * time.Millisecond

// ResultKind classifies an engine result.
type ResultKind uint8

const (
	// ResultBypass leaves the key to its ordinary resolution.
	ResultBypass ResultKind = iota
	// ResultSuppress means nothing should happen at all.
	ResultSuppress
	// ResultChar replaces the previous character with Result.Char.
	ResultChar
	// ResultText replaces the previous character with Result.Text.
	ResultText
)

// Result is the outcome of processing one key event.
type Result struct {
	Kind ResultKind
	Char rune
	Text string
}

// String returns the text the result commits. It is empty for Bypass and
// Suppress.
func (r Result) String() string {
	switch r.Kind {
	case ResultChar:
		return string(r.Char)
	case ResultText:
		return r.Text
	}
	return ""
}

// IsBypass reports whether the result leaves the key alone.
func (r Result) IsBypass() bool {
	return r.Kind == ResultBypass
}

func charResult(r rune) Result {
	if r == 0 {
		return Result{Kind: ResultBypass}
	}
	return Result{Kind: ResultChar, Char: r}
}

// Options are the user-tunable engine settings.
type Options struct {
	// Threshold is the multipress window. Non-positive values disable
	// multipress continuation.
	Threshold time.Duration

	// IgnoreFirstLevel bypasses every level-0 substitution except dot-space.
	IgnoreFirstLevel bool

	// IgnoreDotSpace bypasses the ". " replacement.
	IgnoreDotSpace bool

	// IgnoreConsonants bypasses level 0 for the consonant keys C and S.
	IgnoreConsonants bool

	// Ligatures enables the "ae" → "æ" pre-pass.
	Ligatures bool
}

// DefaultOptions returns the default engine settings.
func DefaultOptions() Options {
	return Options{Threshold: DefaultThreshold}
}

// Engine is the multipress state machine. It is not safe for concurrent use.
type Engine struct {
	table    Table
	resolver keys.Resolver
	composer Composer
	clock    clock.Clock
	logger   *slog.Logger
	opts     Options

	last     keys.Code
	lastTime time.Time
	count    int
	level    int

	lastSubst    Result
	hasLastSubst bool

	lastPrinted rune
}

// Config holds the dependencies of an Engine.
type Config struct {
	Table    Table
	Resolver keys.Resolver
	Composer Composer
	Clock    clock.Clock
	Logger   *slog.Logger
	Options  Options
}

// New creates an engine. A nil table uses DefaultTable, a nil composer
// uses NormComposer and a nil clock uses the system clock.
func New(cfg Config) *Engine {
	e := &Engine{
		table:    cfg.Table.Clone(),
		resolver: cfg.Resolver,
		composer: cfg.Composer,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
		opts:     cfg.Options,
	}
	if e.table == nil {
		e.table = DefaultTable()
	}
	if e.composer == nil {
		e.composer = NormComposer{}
	}
	if e.clock == nil {
		e.clock = clock.System{}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Options returns the current settings.
func (e *Engine) Options() Options {
	return e.opts
}

// SetOptions replaces the settings.
func (e *Engine) SetOptions(o Options) {
	e.opts = o
}

// Table returns a copy of the substitution table in use.
func (e *Engine) Table() Table {
	return e.table.Clone()
}

// SetTable replaces the substitution table with a copy of t and resets the
// cursor.
func (e *Engine) SetTable(t Table) {
	e.table = t.Clone()
	e.Reset()
}

// SetFirstLevel replaces level 0 of the table.
func (e *Engine) SetFirstLevel(l Level) {
	t := e.table
	if len(t) == 0 {
		t = Table{l}
	} else {
		t[0] = l
	}
	e.SetTable(t)
}

// Level returns the current level index.
func (e *Engine) Level() int {
	return e.level
}

// Reset clears the multipress cursor. The ligature lookback is kept.
func (e *Engine) Reset() {
	e.last = keys.CodeUnknown
	e.lastTime = time.Time{}
	e.count = 0
	e.level = 0
	e.lastSubst = Result{}
	e.hasLastSubst = false
}

// OnDelete records that the previous character was deleted.
func (e *Engine) OnDelete() {
	e.Reset()
	e.lastPrinted = 0
}

// ClearLookback forgets the last printed character.
func (e *Engine) ClearLookback() {
	e.lastPrinted = 0
}

// Process handles a key-down event at the given effective meta state.
func (e *Engine) Process(ev keys.Event, meta keys.Meta) Result {
	if ev.Printing && e.opts.Ligatures && e.lastPrinted != 0 {
		cur := e.resolver.Resolve(ev.Code, meta)
		if lig, ok := Ligature(e.lastPrinted, cur); ok {
			e.lastPrinted = lig
			e.Reset()
			return Result{Kind: ResultChar, Char: lig}
		}
	}

	res := e.process(ev, meta)

	switch {
	case keys.IsDelete(ev.Code):
		e.lastPrinted = 0
	case res.Kind == ResultBypass:
		e.lastPrinted = e.resolver.Resolve(ev.Code, meta)
	case res.Kind == ResultChar:
		e.lastPrinted = res.Char
	default:
		e.lastPrinted = 0
	}
	return res
}

func (e *Engine) process(ev keys.Event, meta keys.Meta) Result {
	bypass := Result{Kind: ResultBypass}
	now := e.clock.Now()

	if e.last == ev.Code && !e.lastTime.IsZero() && now.Sub(e.lastTime) < e.opts.Threshold {
		e.lastTime = now

		if ev.Repeat == 1 {
			e.level++
			e.count = 0
		} else if ev.Repeat > 1 {
			return bypass
		}
		if e.level >= len(e.table) {
			e.level = 0
		}
		if len(e.table) == 0 {
			return bypass
		}

		if e.opts.IgnoreConsonants && e.level == 0 && isConsonant(ev.Code) {
			return bypass
		}

		if seq := e.table[e.level][ev.Code]; len(seq) > 0 {
			idx := e.count
			if idx >= len(seq) {
				idx = 0
			}
			d := seq[idx]
			e.count++
			if e.count >= len(seq) {
				e.count = 0
			}

			res := e.resolve(d, ev.Code, meta)

			if !d.IsDotSpace() && e.opts.IgnoreFirstLevel && e.level == 0 {
				return bypass
			}
			if d.IsDotSpace() && e.opts.IgnoreDotSpace {
				return bypass
			}
			if e.hasLastSubst && e.lastSubst == res {
				return Result{Kind: ResultSuppress}
			}
			e.lastSubst = res
			e.hasLastSubst = true

			e.logger.Debug("multipress substitution",
				"key", ev.Code.String(),
				"level", e.level,
				"directive", d.String(),
			)
			return res
		}
	} else {
		e.count = 0
		e.level = 0
		e.lastSubst = Result{}
		e.hasLastSubst = false
	}

	e.last = ev.Code
	e.lastTime = now
	return bypass
}

func (e *Engine) resolve(d Directive, code keys.Code, meta keys.Meta) Result {
	switch d.Kind {
	case KindLiteral:
		return charResult(d.Char)
	case KindBypass:
		return charResult(e.resolver.Resolve(code, meta))
	case KindSuppress:
		return Result{Kind: ResultSuppress}
	case KindNoMeta:
		return charResult(e.resolver.Resolve(code, 0))
	case KindShift:
		return charResult(e.resolver.Resolve(code, keys.MetaShift))
	case KindAlt:
		return charResult(e.resolver.Resolve(code, keys.MetaAlt))
	case KindToggleShift:
		m := keys.MetaShift
		if meta.Has(keys.MetaShift) {
			m = 0
		}
		return charResult(e.resolver.Resolve(code, m))
	case KindToggleAlt:
		m := keys.MetaAlt
		if meta.Has(keys.MetaAlt) {
			m = 0
		}
		return charResult(e.resolver.Resolve(code, m))
	case KindBacktick:
		return charResult('`')
	case KindCircumflex:
		return charResult('^')
	case KindDeadKey:
		base := e.resolver.Resolve(code, meta)
		if r, ok := e.composer.Compose(d.Char, base); ok {
			return charResult(r)
		}
		return Result{Kind: ResultBypass}
	case KindText:
		if d.Text == "" {
			return Result{Kind: ResultBypass}
		}
		return Result{Kind: ResultText, Text: d.Text}
	}
	return Result{Kind: ResultBypass}
}

func isConsonant(c keys.Code) bool {
	return c == keys.CodeC || c == keys.CodeS
}
