package multipress

import (
	"sort"

	"symlayer/internal/keys"
)

// Level maps a key code to its ordered directive sequence.
type Level map[keys.Code][]Directive

// Table is the full substitution configuration. Index 0 is the tap level,
// higher indices are reached by holding the key through repeats.
type Table []Level

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	if t == nil {
		return nil
	}
	out := make(Table, len(t))
	for i, lvl := range t {
		out[i] = lvl.Clone()
	}
	return out
}

// Clone returns a copy of the level that shares no maps or slices with l.
func (l Level) Clone() Level {
	if l == nil {
		return nil
	}
	out := make(Level, len(l))
	for k, seq := range l {
		out[k] = append([]Directive(nil), seq...)
	}
	return out
}

// Keys returns the codes in the level in ascending order.
func (l Level) Keys() []keys.Code {
	out := make([]keys.Code, 0, len(l))
	for c := range l {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DefaultTemplate is the first-level template used when none is selected.
const DefaultTemplate = "fr"

var (
	acute      = Dead('´')
	grave      = Dead('`')
	circ       = Dead('^')
	diaeresis  = Dead('¨')
	tilde      = Dead('~')
	fiveAccent = []Directive{acute, grave, circ, diaeresis, tilde, Bypass}
	fiveGrave  = []Directive{grave, acute, circ, diaeresis, tilde, Bypass}
)

func vowels(seq []Directive) Level {
	return Level{
		keys.CodeA:     seq,
		keys.CodeE:     seq,
		keys.CodeI:     seq,
		keys.CodeO:     seq,
		keys.CodeU:     seq,
		keys.CodeSpace: {DotSpace},
	}
}

// builtinTemplates are the selectable first-level tables.
var builtinTemplates = Templates{
	"fr": {
		keys.CodeA:     {grave, circ, Lit('æ'), Bypass},
		keys.CodeE:     {acute, grave, circ, diaeresis, Bypass},
		keys.CodeI:     {circ, diaeresis, Bypass},
		keys.CodeO:     {circ, Lit('œ'), Bypass},
		keys.CodeU:     {grave, circ, diaeresis, Bypass},
		keys.CodeY:     {diaeresis, Bypass},
		keys.CodeC:     {Lit('ç'), Bypass},
		keys.CodeSpace: {DotSpace},
	},
	"fr-ext": {
		keys.CodeA:     {grave, circ, acute, diaeresis, Lit('æ'), tilde, Bypass},
		keys.CodeE:     {acute, grave, circ, diaeresis, Bypass},
		keys.CodeI:     {circ, acute, diaeresis, grave, Bypass},
		keys.CodeO:     {circ, acute, Lit('œ'), diaeresis, tilde, grave, Bypass},
		keys.CodeU:     {grave, circ, acute, diaeresis, Bypass},
		keys.CodeY:     {diaeresis, Bypass},
		keys.CodeC:     {Lit('ç'), Bypass},
		keys.CodeSpace: {DotSpace},
	},
	"es": {
		keys.CodeA:     {acute, Bypass},
		keys.CodeE:     {acute, Bypass},
		keys.CodeI:     {acute, Bypass},
		keys.CodeO:     {acute, Bypass},
		keys.CodeU:     {acute, Bypass},
		keys.CodeSpace: {DotSpace},
	},
	"de": {
		keys.CodeA:     {diaeresis, Bypass},
		keys.CodeO:     {diaeresis, Bypass},
		keys.CodeU:     {diaeresis, Bypass},
		keys.CodeS:     {Lit('ß'), Bypass},
		keys.CodeSpace: {DotSpace},
	},
	"pt": {
		keys.CodeA:     {acute, circ, grave, tilde, Bypass},
		keys.CodeE:     {acute, circ, Bypass},
		keys.CodeI:     {acute, Bypass},
		keys.CodeO:     {acute, circ, tilde, Bypass},
		keys.CodeU:     {acute, Bypass},
		keys.CodeC:     {Lit('ç'), Bypass},
		keys.CodeSpace: {DotSpace},
	},
	"order1": vowels(fiveAccent),
	"order2": vowels(fiveGrave),
}

func symbols(rs ...rune) []Directive {
	out := make([]Directive, 0, len(rs)+3)
	out = append(out, ToggleAlt)
	for _, r := range rs {
		out = append(out, Lit(r))
	}
	return append(out, ToggleShift, Bypass)
}

// holdLevel is the level reached by holding a key: the Alt character first,
// then symbols, then the opposite case.
var holdLevel = Level{
	keys.CodeQ:           symbols('°'),
	keys.CodeW:           symbols('&', '↑'),
	keys.CodeE:           symbols('€', '∃'),
	keys.CodeR:           symbols('®'),
	keys.CodeT:           symbols('[', '{', '<', '≤', '†', '™'),
	keys.CodeY:           symbols(']', '}', '>', '≥'),
	keys.CodeU:           symbols('—', '–', '∪'),
	keys.CodeI:           symbols('|'),
	keys.CodeO:           symbols('\\', 'œ', 'º', '÷'),
	keys.CodeP:           symbols(';', '¶'),
	keys.CodeA:           symbols('æ', 'ª', '←'),
	keys.CodeS:           symbols('ß', '§', '↓'),
	keys.CodeD:           symbols('∂', '→', '⇒'),
	keys.CodeF:           {ToggleAlt, Circumflex, ToggleShift, Bypass},
	keys.CodeG:           symbols('•', '·'),
	keys.CodeH:           symbols('²', '♯'),
	keys.CodeJ:           symbols('=', '≠', '≈', '±'),
	keys.CodeK:           symbols('%', '‰', '‱'),
	keys.CodeL:           {ToggleAlt, Backtick, ToggleShift, Bypass},
	keys.CodeZ:           symbols('¡', '‽'),
	keys.CodeX:           symbols('×', 'χ'),
	keys.CodeC:           symbols('ç', '©', '¢', '⊂', '⊄', '⊃', '⊅'),
	keys.CodeV:           symbols('∀', '√'),
	keys.CodeB:           symbols('…', 'ß', '∫', '♭'),
	keys.CodeN:           symbols('~', '¬', '∩'),
	keys.CodeM:           symbols('$', '€', '£', '¿'),
	keys.CodeEmojiPicker: {ToggleAlt, Bypass},
	keys.CodeDictate:     {ToggleAlt, Bypass},
	keys.CodeSpace:       {Lit('\t'), Lit('⇥'), Bypass},
}

// Templates is a set of named first-level tables.
type Templates map[string]Level

// BuiltinTemplates returns a fresh copy of the built-in first-level tables.
func BuiltinTemplates() Templates {
	return builtinTemplates.Clone()
}

// Clone returns a deep copy of every template.
func (t Templates) Clone() Templates {
	if t == nil {
		return nil
	}
	out := make(Templates, len(t))
	for name, lvl := range t {
		out[name] = lvl.Clone()
	}
	return out
}

// HoldLevel returns a copy of the built-in hold level.
func HoldLevel() Level {
	return holdLevel.Clone()
}

// Names returns the template names in sorted order.
func (t Templates) Names() []string {
	out := make([]string, 0, len(t))
	for n := range t {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// DefaultTable returns the default configuration: the "fr-ext" tap level
// and the hold level.
func DefaultTable() Table {
	return Table{builtinTemplates["fr-ext"].Clone(), HoldLevel()}
}
