package multipress

import (
	"testing"
	"time"

	"symlayer/internal/clock"
	"symlayer/internal/keys"
	"symlayer/internal/layout"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t     *testing.T
	clock *clock.Manual
	e     *Engine
}

func newHarness(t *testing.T, table Table, opts Options) *harness {
	t.Helper()
	c := clock.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if opts.Threshold == 0 {
		opts.Threshold = DefaultThreshold
	}
	return &harness{
		t:     t,
		clock: c,
		e: New(Config{
			Table:    table,
			Resolver: layout.Reference,
			Clock:    c,
			Options:  opts,
		}),
	}
}

func (h *harness) press(code keys.Code, repeat int, meta keys.Meta) Result {
	ev := keys.NewEvent(code, keys.Down, meta, h.clock.Now())
	ev.Repeat = repeat
	return h.e.Process(ev, meta)
}

func (h *harness) tap(code keys.Code, after time.Duration) Result {
	h.clock.Advance(after)
	return h.press(code, 0, 0)
}

func frTable() Table {
	return Table{builtinTemplates["fr"].Clone(), HoldLevel()}
}

func TestEngine_CyclesFirstLevel(t *testing.T) {
	h := newHarness(t, frTable(), Options{})

	assert.True(t, h.tap(keys.CodeE, 0).IsBypass(), "first press is the plain key")

	want := []string{"é", "è", "ê", "ë", "e", "é"}
	for i, w := range want {
		res := h.tap(keys.CodeE, 100*time.Millisecond)
		require.Equal(t, ResultChar, res.Kind, "tap %d", i+2)
		assert.Equal(t, w, res.String(), "tap %d", i+2)
	}
	assert.Equal(t, 0, h.e.Level())
}

func TestEngine_CapitalDeadKey(t *testing.T) {
	h := newHarness(t, frTable(), Options{})

	assert.True(t, h.press(keys.CodeE, 0, keys.MetaShift).IsBypass())
	h.clock.Advance(50 * time.Millisecond)
	assert.Equal(t, "É", h.press(keys.CodeE, 0, keys.MetaShift).String())
}

func TestEngine_WindowExpiry(t *testing.T) {
	h := newHarness(t, frTable(), Options{})

	assert.True(t, h.tap(keys.CodeE, 0).IsBypass())
	assert.True(t, h.tap(keys.CodeE, 800*time.Millisecond).IsBypass())
	assert.Equal(t, "é", h.tap(keys.CodeE, 700*time.Millisecond).String())
}

func TestEngine_DifferentKeyResets(t *testing.T) {
	h := newHarness(t, frTable(), Options{})

	h.tap(keys.CodeE, 0)
	assert.Equal(t, "é", h.tap(keys.CodeE, 10*time.Millisecond).String())
	assert.True(t, h.tap(keys.CodeA, 10*time.Millisecond).IsBypass())
	assert.True(t, h.tap(keys.CodeE, 10*time.Millisecond).IsBypass())
	assert.Equal(t, "é", h.tap(keys.CodeE, 10*time.Millisecond).String())
}

func TestEngine_HoldSwitchesLevel(t *testing.T) {
	h := newHarness(t, frTable(), Options{})

	assert.True(t, h.press(keys.CodeE, 0, 0).IsBypass())

	h.clock.Advance(400 * time.Millisecond)
	res := h.press(keys.CodeE, 1, 0)
	assert.Equal(t, "2", res.String(), "toggle-alt is the first hold directive")
	assert.Equal(t, 1, h.e.Level())

	h.clock.Advance(50 * time.Millisecond)
	assert.True(t, h.press(keys.CodeE, 2, 0).IsBypass(), "further repeats are ignored")
	h.clock.Advance(50 * time.Millisecond)
	assert.True(t, h.press(keys.CodeE, 3, 0).IsBypass())

	// Re-tapping continues the cycle on the hold level.
	assert.Equal(t, "€", h.tap(keys.CodeE, 100*time.Millisecond).String())
	assert.Equal(t, "∃", h.tap(keys.CodeE, 100*time.Millisecond).String())
	assert.Equal(t, "E", h.tap(keys.CodeE, 100*time.Millisecond).String())
	assert.Equal(t, "e", h.tap(keys.CodeE, 100*time.Millisecond).String())

	// Holding again wraps back to level 0 and restarts the cycle.
	h.clock.Advance(400 * time.Millisecond)
	assert.Equal(t, "é", h.press(keys.CodeE, 1, 0).String())
	assert.Equal(t, 0, h.e.Level())
}

func TestEngine_SingleLevelHoldWraps(t *testing.T) {
	h := newHarness(t, Table{{keys.CodeA: {Lit('x'), Lit('y')}}}, Options{})

	h.tap(keys.CodeA, 0)
	assert.Equal(t, "x", h.tap(keys.CodeA, 10*time.Millisecond).String())
	h.clock.Advance(400 * time.Millisecond)
	res := h.press(keys.CodeA, 1, 0)
	assert.Equal(t, ResultSuppress, res.Kind, "the count restarts at x, which was just emitted")
	assert.Equal(t, 0, h.e.Level())
}

func TestEngine_Dedup(t *testing.T) {
	h := newHarness(t, Table{{keys.CodeA: {Lit('x'), Lit('x'), Lit('z')}}}, Options{})

	h.tap(keys.CodeA, 0)
	assert.Equal(t, "x", h.tap(keys.CodeA, 10*time.Millisecond).String())
	res := h.tap(keys.CodeA, 10*time.Millisecond)
	assert.Equal(t, ResultSuppress, res.Kind)
	assert.Equal(t, "z", h.tap(keys.CodeA, 10*time.Millisecond).String())
}

func TestEngine_DotSpace(t *testing.T) {
	h := newHarness(t, frTable(), Options{})

	assert.True(t, h.tap(keys.CodeSpace, 0).IsBypass())
	res := h.tap(keys.CodeSpace, 100*time.Millisecond)
	require.Equal(t, ResultText, res.Kind)
	assert.Equal(t, ". ", res.String())
	assert.Equal(t, ResultSuppress, h.tap(keys.CodeSpace, 100*time.Millisecond).Kind)
}

func TestEngine_Filters(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code keys.Code
		want ResultKind
	}{
		{"first level", Options{}, keys.CodeC, ResultChar},
		{"ignore first level", Options{IgnoreFirstLevel: true}, keys.CodeE, ResultBypass},
		{"ignore first level keeps dot-space", Options{IgnoreFirstLevel: true}, keys.CodeSpace, ResultText},
		{"ignore dot-space", Options{IgnoreDotSpace: true}, keys.CodeSpace, ResultBypass},
		{"ignore consonants", Options{IgnoreConsonants: true}, keys.CodeC, ResultBypass},
		{"ignore consonants keeps vowels", Options{IgnoreConsonants: true}, keys.CodeE, ResultChar},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, frTable(), tt.opts)
			h.tap(tt.code, 0)
			assert.Equal(t, tt.want, h.tap(tt.code, 100*time.Millisecond).Kind)
		})
	}
}

func TestEngine_IgnoreConsonantsOnlyOnFirstLevel(t *testing.T) {
	h := newHarness(t, frTable(), Options{IgnoreConsonants: true})

	h.tap(keys.CodeC, 0)
	h.clock.Advance(400 * time.Millisecond)
	assert.Equal(t, "9", h.press(keys.CodeC, 1, 0).String())
}

func TestEngine_Directives(t *testing.T) {
	tests := []struct {
		name string
		d    Directive
		meta keys.Meta
		want Result
	}{
		{"bypass", Bypass, keys.MetaShift, Result{Kind: ResultChar, Char: 'Q'}},
		{"nometa", NoMeta, keys.MetaShift, Result{Kind: ResultChar, Char: 'q'}},
		{"shift", ForceShift, keys.MetaAlt, Result{Kind: ResultChar, Char: 'Q'}},
		{"alt", ForceAlt, keys.MetaShift, Result{Kind: ResultChar, Char: '&'}},
		{"toggle shift on", ToggleShift, 0, Result{Kind: ResultChar, Char: 'Q'}},
		{"toggle shift off", ToggleShift, keys.MetaShift, Result{Kind: ResultChar, Char: 'q'}},
		{"toggle alt on", ToggleAlt, 0, Result{Kind: ResultChar, Char: '&'}},
		{"toggle alt off", ToggleAlt, keys.MetaAlt, Result{Kind: ResultChar, Char: 'q'}},
		{"backtick", Backtick, 0, Result{Kind: ResultChar, Char: '`'}},
		{"circumflex", Circumflex, 0, Result{Kind: ResultChar, Char: '^'}},
		{"suppress", Suppress, 0, Result{Kind: ResultSuppress}},
		{"text", Text("->"), 0, Result{Kind: ResultText, Text: "->"}},
		{"undefined composition", Dead('¨'), 0, Result{Kind: ResultBypass}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, Table{{keys.CodeQ: {tt.d}}}, Options{})
			h.press(keys.CodeQ, 0, tt.meta)
			h.clock.Advance(10 * time.Millisecond)
			assert.Equal(t, tt.want, h.press(keys.CodeQ, 0, tt.meta))
		})
	}
}

func TestEngine_CustomComposer(t *testing.T) {
	c := clock.NewManual(time.Unix(0, 0))
	e := New(Config{
		Table:    Table{{keys.CodeE: {Dead('´')}}},
		Resolver: layout.Reference,
		Composer: ComposerFunc(func(mark, base rune) (rune, bool) { return 0, false }),
		Clock:    c,
		Options:  DefaultOptions(),
	})

	ev := keys.NewEvent(keys.CodeE, keys.Down, 0, c.Now())
	e.Process(ev, 0)
	c.Advance(10 * time.Millisecond)
	assert.True(t, e.Process(ev, 0).IsBypass())
}

func TestEngine_Ligatures(t *testing.T) {
	h := newHarness(t, frTable(), Options{Ligatures: true})

	h.tap(keys.CodeA, 0)
	res := h.tap(keys.CodeE, 100*time.Millisecond)
	require.Equal(t, ResultChar, res.Kind)
	assert.Equal(t, "æ", res.String())

	// The cursor was reset: the next E starts a new cycle.
	assert.True(t, h.tap(keys.CodeE, 100*time.Millisecond).IsBypass())

	h.clock.Advance(time.Second)
	assert.True(t, h.press(keys.CodeO, 0, keys.MetaShift).IsBypass())
	h.clock.Advance(100 * time.Millisecond)
	assert.Equal(t, "Œ", h.press(keys.CodeE, 0, keys.MetaShift).String())
}

func TestEngine_NoLigature(t *testing.T) {
	h := newHarness(t, frTable(), Options{Ligatures: true})
	assert.True(t, h.tap(keys.CodeA, 0).IsBypass())
	assert.True(t, h.tap(keys.CodeX, 100*time.Millisecond).IsBypass())

	h = newHarness(t, frTable(), Options{})
	h.tap(keys.CodeA, 0)
	assert.True(t, h.tap(keys.CodeE, 100*time.Millisecond).IsBypass(), "disabled")
}

func TestEngine_LookbackClearedBySpaceAndDelete(t *testing.T) {
	h := newHarness(t, frTable(), Options{Ligatures: true})

	h.tap(keys.CodeA, 0)
	h.tap(keys.CodeSpace, 100*time.Millisecond)
	assert.True(t, h.tap(keys.CodeE, 100*time.Millisecond).IsBypass())

	h.tap(keys.CodeA, time.Second)
	h.tap(keys.CodeDel, 100*time.Millisecond)
	assert.True(t, h.tap(keys.CodeE, 100*time.Millisecond).IsBypass())

	h.tap(keys.CodeA, time.Second)
	h.e.OnDelete()
	assert.True(t, h.tap(keys.CodeE, 100*time.Millisecond).IsBypass())
}

func TestEngine_EmptyTable(t *testing.T) {
	h := newHarness(t, Table{}, Options{})
	h.tap(keys.CodeE, 0)
	assert.True(t, h.tap(keys.CodeE, 10*time.Millisecond).IsBypass())
	h.clock.Advance(400 * time.Millisecond)
	assert.True(t, h.press(keys.CodeE, 1, 0).IsBypass())
}

func TestEngine_SetFirstLevel(t *testing.T) {
	h := newHarness(t, nil, Options{})
	require.Len(t, h.e.Table(), 2)

	h.e.SetFirstLevel(BuiltinTemplates()["de"])
	h.tap(keys.CodeS, 0)
	assert.Equal(t, "ß", h.tap(keys.CodeS, 10*time.Millisecond).String())

	assert.Equal(t, Lit('œ'), builtinTemplates["fr"][keys.CodeO][1], "templates are not modified")
}
