package router

import (
	"strings"
	"unicode"
)

// FieldType classifies the focused input field.
type FieldType uint8

const (
	FieldText FieldType = iota
	FieldNull
	FieldPassword
	FieldEmail
	FieldURI
	FieldNumber
	FieldTerminal
)

var fieldTypeNames = map[FieldType]string{
	FieldText:     "text",
	FieldNull:     "null",
	FieldPassword: "password",
	FieldEmail:    "email",
	FieldURI:      "uri",
	FieldNumber:   "number",
	FieldTerminal: "terminal",
}

func (t FieldType) String() string {
	if n, ok := fieldTypeNames[t]; ok {
		return n
	}
	return "unknown"
}

// ParseFieldType parses a field type name. Unknown names map to FieldText.
func ParseFieldType(s string) FieldType {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, n := range fieldTypeNames {
		if n == s {
			return t
		}
	}
	return FieldText
}

// Field describes the focused input field.
type Field struct {
	Type FieldType

	// TextBeforeCursor seeds sentence detection. Only the tail matters.
	TextBeforeCursor string
}

// CanUseSuggestions reports whether text transforms such as
// auto-capitalization may be applied in the field.
func (f Field) CanUseSuggestions() bool {
	switch f.Type {
	case FieldNull, FieldPassword, FieldEmail, FieldURI, FieldNumber, FieldTerminal:
		return false
	}
	return true
}

// maxTracked bounds the text kept for sentence detection.
const maxTracked = 256

// textTracker mirrors the text before the cursor from the router's own
// commits and deletions. The host resynchronizes it through
// Router.SelectionChanged.
type textTracker struct {
	runes []rune
}

func (t *textTracker) set(s string) {
	t.runes = t.runes[:0]
	t.append(s)
}

func (t *textTracker) append(s string) {
	t.runes = append(t.runes, []rune(s)...)
	if n := len(t.runes); n > maxTracked {
		t.runes = append(t.runes[:0], t.runes[n-maxTracked:]...)
	}
}

func (t *textTracker) deleteBefore(n int) {
	if n > len(t.runes) {
		n = len(t.runes)
	}
	t.runes = t.runes[:len(t.runes)-n]
}

// matches reports whether s is the text the tracker holds. Once the tracker
// has dropped old text only the kept suffix is compared.
func (t *textTracker) matches(s string) bool {
	if len(t.runes) < maxTracked {
		return s == string(t.runes)
	}
	return strings.HasSuffix(s, string(t.runes))
}

func (t *textTracker) String() string {
	return string(t.runes)
}

// SentenceStart reports whether a cursor placed after text sits at the start
// of a sentence: at the beginning of the text or a line, or after
// sentence-ending punctuation followed by whitespace. A word that ends in a
// period but already contains one ("e.g.") is treated as an abbreviation.
func SentenceStart(text string) bool {
	rs := []rune(text)
	i := len(rs)

	// Opening quotes and brackets directly before the cursor.
	for i > 0 && isOpening(rs[i-1]) {
		i--
	}

	j := i
	for j > 0 && (rs[j-1] == ' ' || rs[j-1] == '\t') {
		j--
	}
	if j == 0 || rs[j-1] == '\n' {
		return true
	}
	if j == i {
		return false
	}

	for j > 0 && isClosing(rs[j-1]) {
		j--
	}
	if j == 0 {
		return false
	}

	switch rs[j-1] {
	case '?', '!':
		return true
	case '.':
		for k := j - 2; k >= 0; k-- {
			if rs[k] == '.' {
				return false
			}
			if !unicode.IsLetter(rs[k]) {
				break
			}
		}
		return true
	}
	return false
}

func isOpening(r rune) bool {
	return r == '"' || r == '\'' || unicode.Is(unicode.Ps, r)
}

func isClosing(r rune) bool {
	return r == '"' || r == '\'' || unicode.Is(unicode.Pe, r)
}
