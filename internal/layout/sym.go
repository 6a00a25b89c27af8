// Package layout holds the static key tables: the symbol layer for each
// device class, the Cyrillic layer, the Alt character table and a reference
// QWERTY resolver.
package layout

import (
	"sort"
	"strings"

	"symlayer/internal/keys"
)

// SymKind identifies what a symbol-layer key does.
type SymKind uint8

const (
	// SendKey forwards a key event (arrows, clipboard keys, Escape, ...).
	SendKey SymKind = iota
	// SendChar commits a character.
	SendChar
)

// SymAction is the action bound to a key in the symbol layer.
type SymAction struct {
	Kind SymKind

	// Code is the key forwarded by SendKey.
	Code keys.Code

	// Char is the text committed by SendChar. Shifted replaces it when Shift
	// is active and is optional.
	Char    string
	Shifted string
}

// Text returns the text committed for the given shift state.
func (a SymAction) Text(shift bool) string {
	if shift && a.Shifted != "" {
		return a.Shifted
	}
	return a.Char
}

// SymMapping pairs an action with its on-screen label.
type SymMapping struct {
	Display string
	Action  SymAction
}

// SymTable maps key codes to symbol-layer actions.
type SymTable map[keys.Code]SymMapping

func key(display string, code keys.Code) SymMapping {
	return SymMapping{Display: display, Action: SymAction{Kind: SendKey, Code: code}}
}

func char(display, s string) SymMapping {
	return SymMapping{Display: display, Action: SymAction{Kind: SendChar, Char: s}}
}

var titanSym = SymTable{
	keys.CodeW: key("↑", keys.CodeDpadUp),
	keys.CodeA: key("←", keys.CodeDpadLeft),
	keys.CodeS: key("↓", keys.CodeDpadDown),
	keys.CodeD: key("→", keys.CodeDpadRight),
	keys.CodeK: key("↑", keys.CodeDpadUp),
	keys.CodeH: key("←", keys.CodeDpadLeft),
	keys.CodeJ: key("↓", keys.CodeDpadDown),
	keys.CodeL: key("→", keys.CodeDpadRight),
	keys.CodeY: key("Home", keys.CodeMoveHome),
	keys.CodeU: key("PgDn", keys.CodePageDown),
	keys.CodeI: key("PgUp", keys.CodePageUp),
	keys.CodeO: key("End", keys.CodeMoveEnd),
	keys.CodeP: key("Esc", keys.CodeEscape),
	keys.CodeX: key("Cut", keys.CodeCut),
	keys.CodeC: key("Copy", keys.CodeCopy),
	keys.CodeV: key("Paste", keys.CodePaste),
	keys.CodeZ: key("Tab", keys.CodeTab),
	keys.CodeQ: key("Tab", keys.CodeTab),
	keys.CodeB: char("$", "$"),
	keys.CodeN: char("=", "="),
	keys.CodeE: char("€", "€"),
	keys.CodeM: char("%", "%"),
}

var mp01Sym = SymTable{
	keys.CodeW:      key("↑", keys.CodeDpadUp),
	keys.CodeA:      key("←", keys.CodeDpadLeft),
	keys.CodeS:      key("↓", keys.CodeDpadDown),
	keys.CodeD:      key("→", keys.CodeDpadRight),
	keys.CodeQ:      key("⇞", keys.CodePageUp),
	keys.CodeE:      key("⇟", keys.CodePageDown),
	keys.CodeR:      key("⇱", keys.CodeMoveHome),
	keys.CodeF:      key("⇲", keys.CodeMoveEnd),
	keys.CodeZ:      key("⇥", keys.CodeTab),
	keys.CodeX:      key("✂", keys.CodeCut),
	keys.CodeC:      key("⎘", keys.CodeCopy),
	keys.CodeV:      key("📋︎", keys.CodePaste),
	keys.CodeT:      char("~", "~"),
	keys.CodeG:      char("`", "`"),
	keys.CodeY:      char("[", "["),
	keys.CodeU:      char("]", "]"),
	keys.CodeI:      char("(", "("),
	keys.CodeO:      char(")", ")"),
	keys.CodeP:      {Display: "€/£", Action: SymAction{Kind: SendChar, Char: "€", Shifted: "£"}},
	keys.CodeH:      char("{", "{"),
	keys.CodeJ:      char("}", "}"),
	keys.CodeK:      char("^", "^"),
	keys.CodeL:      char("|", "|"),
	keys.CodeB:      char("\\", "\\"),
	keys.CodeN:      char("/", "/"),
	keys.CodeM:      char("<", "<"),
	keys.CodePeriod: char(">", ">"),
}

// SymTableFor returns the symbol-layer table of a device class. The table is
// shared and must not be modified.
func SymTableFor(d keys.DeviceClass) SymTable {
	if d == keys.DeviceMP01 {
		return mp01Sym
	}
	return titanSym
}

// Lookup returns the mapping for a key.
func (t SymTable) Lookup(c keys.Code) (SymMapping, bool) {
	m, ok := t[c]
	return m, ok
}

// Codes returns the mapped key codes in ascending order.
func (t SymTable) Codes() []keys.Code {
	out := make([]keys.Code, 0, len(t))
	for c := range t {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SymLabel returns the label shown for a key while the symbol layer is active.
func SymLabel(c keys.Code, d keys.DeviceClass) string {
	if m, ok := SymTableFor(d).Lookup(c); ok {
		return m.Display
	}
	switch {
	case keys.IsShift(c):
		return "⇧"
	case c == keys.CodeEnter:
		return "↵"
	case c == keys.CodeDel:
		return "⌫"
	}
	if r := Reference(c, 0); r > ' ' {
		return strings.ToUpper(string(r))
	}
	return ""
}
