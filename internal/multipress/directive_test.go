package multipress

import (
	"errors"
	"testing"

	"symlayer/internal/keys"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirective(t *testing.T) {
	tests := []struct {
		in   string
		want Directive
	}{
		{"{bypass}", Bypass},
		{"{BYPASS}", Bypass},
		{"{nothing}", Suppress},
		{"{suppress}", Suppress},
		{"{nometa}", NoMeta},
		{"{shift}", ForceShift},
		{"{alt}", ForceAlt},
		{"{toggle-shift}", ToggleShift},
		{"{toggle-alt}", ToggleAlt},
		{"{backtick}", Backtick},
		{"{circumflex}", Circumflex},
		{"{dot-space}", DotSpace},
		{"{lit:^}", Lit('^')},
		{"´", Dead('´')},
		{"~", Dead('~')},
		{"ç", Lit('ç')},
		{"{", Lit('{')},
		{"->", Text("->")},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDirective(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDirective_Errors(t *testing.T) {
	_, err := ParseDirective("")
	assert.True(t, errors.Is(err, ErrEmptyDirective))

	_, err = ParseDirective("{frobnicate}")
	assert.Error(t, err)

	_, err = ParseDirective("{lit:ab}")
	assert.Error(t, err)

	_, err = ParseSequence([]string{"´", ""})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry 1")
	assert.True(t, errors.Is(err, ErrEmptyDirective))
}

func TestDirective_StringParses(t *testing.T) {
	for _, lvl := range builtinTemplates {
		for _, seq := range lvl {
			for _, d := range seq {
				got, err := ParseDirective(d.String())
				require.NoError(t, err, d.String())
				assert.Equal(t, d, got)
			}
		}
	}
	for _, d := range []Directive{Lit('^'), Lit('{'), Suppress, NoMeta, ForceAlt} {
		got, err := ParseDirective(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}
}

func TestNormComposer(t *testing.T) {
	tests := []struct {
		mark, base rune
		want       rune
		ok         bool
	}{
		{'´', 'e', 'é', true},
		{'`', 'A', 'À', true},
		{'^', 'o', 'ô', true},
		{'¨', 'u', 'ü', true},
		{'~', 'n', 'ñ', true},
		{'ˇ', 'c', 'č', true},
		{'´', ' ', '´', true},
		{'¨', 'x', 0, false},
		{'´', 0, 0, false},
		{'*', 'e', 0, false},
	}

	var c NormComposer
	for _, tt := range tests {
		got, ok := c.Compose(tt.mark, tt.base)
		assert.Equal(t, tt.ok, ok, "%c+%c", tt.mark, tt.base)
		assert.Equal(t, tt.want, got, "%c+%c", tt.mark, tt.base)
	}
}

func TestLigature(t *testing.T) {
	r, ok := Ligature('A', 'E')
	require.True(t, ok)
	assert.Equal(t, 'Æ', r)

	_, ok = Ligature('a', 'E')
	assert.False(t, ok)
}

func TestTemplates(t *testing.T) {
	names := BuiltinTemplates().Names()
	assert.Equal(t, []string{"de", "es", "fr", "fr-ext", "order1", "order2", "pt"}, names)

	for name, lvl := range BuiltinTemplates() {
		assert.Equal(t, []Directive{DotSpace}, lvl[keys.CodeSpace], name)
	}
}

func TestTemplatesAreCopies(t *testing.T) {
	m := BuiltinTemplates()
	m["fr"][keys.CodeE] = []Directive{Lit('X')}
	m["fr"][keys.CodeA][0] = Lit('Y')
	m["order1"][keys.CodeA][0] = Lit('Y')
	delete(m, "de")

	fresh := BuiltinTemplates()
	assert.Equal(t, acute, fresh["fr"][keys.CodeE][0])
	assert.Equal(t, grave, fresh["fr"][keys.CodeA][0])
	assert.Equal(t, acute, fresh["order1"][keys.CodeA][0])
	assert.Contains(t, fresh.Names(), "de")

	// Keys sharing a sequence in the source table get their own slices.
	assert.Equal(t, acute, m["order1"][keys.CodeE][0])

	hold := HoldLevel()
	hold[keys.CodeQ][0] = Lit('Z')
	assert.Equal(t, ToggleAlt, HoldLevel()[keys.CodeQ][0])

	table := DefaultTable()
	table[1][keys.CodeW] = nil
	assert.NotEmpty(t, DefaultTable()[1][keys.CodeW])
}

func TestEngineTableIsCopied(t *testing.T) {
	table := DefaultTable()
	e := New(Config{Table: table})
	table[0][keys.CodeE] = []Directive{Lit('X')}
	assert.NotEqual(t, []Directive{Lit('X')}, e.Table()[0][keys.CodeE])

	got := e.Table()
	got[0][keys.CodeE] = []Directive{Lit('X')}
	assert.NotEqual(t, []Directive{Lit('X')}, e.Table()[0][keys.CodeE])
}
