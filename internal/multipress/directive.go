package multipress

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Kind identifies what a Directive does.
type Kind uint8

const (
	// KindLiteral emits Directive.Char as is.
	KindLiteral Kind = iota
	// KindBypass emits the key's character at the current meta state.
	KindBypass
	// KindSuppress emits nothing at all.
	KindSuppress
	// KindNoMeta emits the key's character without any modifier.
	KindNoMeta
	// KindShift emits the key's character as if only Shift were active.
	KindShift
	// KindAlt emits the key's character as if only Alt were active.
	KindAlt
	// KindToggleShift emits the key's character with Shift inverted.
	KindToggleShift
	// KindToggleAlt emits the key's character with Alt inverted.
	KindToggleAlt
	// KindBacktick emits a literal '`'.
	KindBacktick
	// KindCircumflex emits a literal '^'.
	KindCircumflex
	// KindDeadKey composes the mark in Directive.Char with the key's character.
	KindDeadKey
	// KindText emits Directive.Text.
	KindText
)

var kindNames = map[Kind]string{
	KindLiteral:     "literal",
	KindBypass:      "bypass",
	KindSuppress:    "suppress",
	KindNoMeta:      "nometa",
	KindShift:       "shift",
	KindAlt:         "alt",
	KindToggleShift: "toggle-shift",
	KindToggleAlt:   "toggle-alt",
	KindBacktick:    "backtick",
	KindCircumflex:  "circumflex",
	KindDeadKey:     "dead",
	KindText:        "text",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Directive is one entry of a key's substitution sequence.
type Directive struct {
	Kind Kind
	Char rune
	Text string
}

// Directives without payload.
var (
	Bypass      = Directive{Kind: KindBypass}
	Suppress    = Directive{Kind: KindSuppress}
	NoMeta      = Directive{Kind: KindNoMeta}
	ForceShift  = Directive{Kind: KindShift}
	ForceAlt    = Directive{Kind: KindAlt}
	ToggleShift = Directive{Kind: KindToggleShift}
	ToggleAlt   = Directive{Kind: KindToggleAlt}
	Backtick    = Directive{Kind: KindBacktick}
	Circumflex  = Directive{Kind: KindCircumflex}

	// DotSpace replaces the previous character with ". ".
	DotSpace = Text(". ")
)

// Lit returns a literal character directive.
func Lit(r rune) Directive {
	return Directive{Kind: KindLiteral, Char: r}
}

// Dead returns a dead-key directive for the spacing mark r.
func Dead(mark rune) Directive {
	return Directive{Kind: KindDeadKey, Char: mark}
}

// Text returns a replacement string directive.
func Text(s string) Directive {
	return Directive{Kind: KindText, Text: s}
}

// IsDotSpace reports whether d is the ". " replacement.
func (d Directive) IsDotSpace() bool {
	return d.Kind == KindText && d.Text == DotSpace.Text
}

// deadMarks are the spacing marks a table entry treats as dead keys.
var deadMarks = map[rune]bool{
	'`': true,
	'´': true,
	'^': true,
	'¨': true,
	'~': true,
}

// String renders the directive in the form accepted by ParseDirective.
func (d Directive) String() string {
	switch d.Kind {
	case KindLiteral:
		if deadMarks[d.Char] || d.Char == '{' {
			return "{lit:" + string(d.Char) + "}"
		}
		return string(d.Char)
	case KindDeadKey:
		return string(d.Char)
	case KindText:
		if d.IsDotSpace() {
			return "{dot-space}"
		}
		return d.Text
	default:
		return "{" + d.Kind.String() + "}"
	}
}

// ErrEmptyDirective is returned for an empty directive string.
var ErrEmptyDirective = errors.New("empty directive")

var namedDirectives = map[string]Directive{
	"bypass":       Bypass,
	"suppress":     Suppress,
	"nothing":      Suppress,
	"nometa":       NoMeta,
	"shift":        ForceShift,
	"alt":          ForceAlt,
	"toggle-shift": ToggleShift,
	"toggle-alt":   ToggleAlt,
	"backtick":     Backtick,
	"circumflex":   Circumflex,
	"dot-space":    DotSpace,
}

// ParseDirective parses the textual form of a directive:
//
//	"{bypass}", "{toggle-shift}", ...   named directives
//	"{lit:^}"                            a literal that would otherwise be a dead key
//	"´"                                  dead key (` ´ ^ ¨ ~)
//	"ç"                                  literal character
//	"->"                                 replacement string
func ParseDirective(s string) (Directive, error) {
	if s == "" {
		return Directive{}, ErrEmptyDirective
	}
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") && len(s) > 2 {
		body := s[1 : len(s)-1]
		if lit, ok := strings.CutPrefix(body, "lit:"); ok {
			if utf8.RuneCountInString(lit) != 1 {
				return Directive{}, fmt.Errorf("literal %q: want exactly one character", lit)
			}
			r, _ := utf8.DecodeRuneInString(lit)
			return Lit(r), nil
		}
		if d, ok := namedDirectives[strings.ToLower(body)]; ok {
			return d, nil
		}
		return Directive{}, fmt.Errorf("unknown directive %q", s)
	}
	if utf8.RuneCountInString(s) == 1 {
		r, _ := utf8.DecodeRuneInString(s)
		if deadMarks[r] {
			return Dead(r), nil
		}
		return Lit(r), nil
	}
	return Text(s), nil
}

// ParseSequence parses a list of directive strings.
func ParseSequence(items []string) ([]Directive, error) {
	out := make([]Directive, 0, len(items))
	for i, item := range items {
		d, err := ParseDirective(item)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, d)
	}
	return out, nil
}
