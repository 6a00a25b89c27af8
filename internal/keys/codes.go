package keys

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Key codes (Android numbering).
const (
	CodeUnknown      Code = 0
	CodeDpadUp       Code = 19
	CodeDpadDown     Code = 20
	CodeDpadLeft     Code = 21
	CodeDpadRight    Code = 22
	Code0            Code = 7
	Code1            Code = 8
	Code2            Code = 9
	Code3            Code = 10
	Code4            Code = 11
	Code5            Code = 12
	Code6            Code = 13
	Code7            Code = 14
	Code8            Code = 15
	Code9            Code = 16
	CodeA            Code = 29
	CodeB            Code = 30
	CodeC            Code = 31
	CodeD            Code = 32
	CodeE            Code = 33
	CodeF            Code = 34
	CodeG            Code = 35
	CodeH            Code = 36
	CodeI            Code = 37
	CodeJ            Code = 38
	CodeK            Code = 39
	CodeL            Code = 40
	CodeM            Code = 41
	CodeN            Code = 42
	CodeO            Code = 43
	CodeP            Code = 44
	CodeQ            Code = 45
	CodeR            Code = 46
	CodeS            Code = 47
	CodeT            Code = 48
	CodeU            Code = 49
	CodeV            Code = 50
	CodeW            Code = 51
	CodeX            Code = 52
	CodeY            Code = 53
	CodeZ            Code = 54
	CodeComma        Code = 55
	CodePeriod       Code = 56
	CodeAltLeft      Code = 57
	CodeAltRight     Code = 58
	CodeShiftLeft    Code = 59
	CodeShiftRight   Code = 60
	CodeTab          Code = 61
	CodeSpace        Code = 62
	CodeSym          Code = 63
	CodeEnter        Code = 66
	CodeDel          Code = 67
	CodeGrave        Code = 68
	CodeMinus        Code = 69
	CodeEquals       Code = 70
	CodeLeftBracket  Code = 71
	CodeRightBracket Code = 72
	CodeBackslash    Code = 73
	CodeSemicolon    Code = 74
	CodeApostrophe   Code = 75
	CodeSlash        Code = 76
	CodeAt           Code = 77
	CodeMenu         Code = 82
	CodePageUp       Code = 92
	CodePageDown     Code = 93
	CodePictSymbols  Code = 94
	CodeEscape       Code = 111
	CodeForwardDel   Code = 112
	CodeCtrlLeft     Code = 113
	CodeCtrlRight    Code = 114
	CodeCapsLock     Code = 115
	CodeMetaLeft     Code = 117
	CodeMetaRight    Code = 118
	CodeFunction     Code = 119
	CodeMoveHome     Code = 122
	CodeMoveEnd      Code = 123
	CodeF1           Code = 131
	CodeVoiceAssist  Code = 231
	CodeCut          Code = 277
	CodeCopy         Code = 278
	CodePaste        Code = 279

	// CodeEmojiPicker is sent by the MP01 keyboard instead of the platform
	// emoji picker code.
	CodeEmojiPicker Code = 666
	// CodeDictate is sent by the MP01 keyboard instead of the platform
	// dictation code.
	CodeDictate Code = 667
)

var codeNames = map[Code]string{
	CodeDpadUp: "DPAD_UP", CodeDpadDown: "DPAD_DOWN", CodeDpadLeft: "DPAD_LEFT", CodeDpadRight: "DPAD_RIGHT",
	Code0: "0", Code1: "1", Code2: "2", Code3: "3", Code4: "4",
	Code5: "5", Code6: "6", Code7: "7", Code8: "8", Code9: "9",
	CodeA: "A", CodeB: "B", CodeC: "C", CodeD: "D", CodeE: "E", CodeF: "F", CodeG: "G",
	CodeH: "H", CodeI: "I", CodeJ: "J", CodeK: "K", CodeL: "L", CodeM: "M", CodeN: "N",
	CodeO: "O", CodeP: "P", CodeQ: "Q", CodeR: "R", CodeS: "S", CodeT: "T", CodeU: "U",
	CodeV: "V", CodeW: "W", CodeX: "X", CodeY: "Y", CodeZ: "Z",
	CodeComma: "COMMA", CodePeriod: "PERIOD",
	CodeAltLeft: "ALT_LEFT", CodeAltRight: "ALT_RIGHT",
	CodeShiftLeft: "SHIFT_LEFT", CodeShiftRight: "SHIFT_RIGHT",
	CodeTab: "TAB", CodeSpace: "SPACE", CodeSym: "SYM", CodeEnter: "ENTER", CodeDel: "DEL",
	CodeGrave: "GRAVE", CodeMinus: "MINUS", CodeEquals: "EQUALS",
	CodeLeftBracket: "LEFT_BRACKET", CodeRightBracket: "RIGHT_BRACKET",
	CodeBackslash: "BACKSLASH", CodeSemicolon: "SEMICOLON", CodeApostrophe: "APOSTROPHE",
	CodeSlash: "SLASH", CodeAt: "AT", CodeMenu: "MENU",
	CodePageUp: "PAGE_UP", CodePageDown: "PAGE_DOWN", CodePictSymbols: "PICTSYMBOLS",
	CodeEscape: "ESCAPE", CodeForwardDel: "FORWARD_DEL",
	CodeCtrlLeft: "CTRL_LEFT", CodeCtrlRight: "CTRL_RIGHT", CodeCapsLock: "CAPS_LOCK",
	CodeMetaLeft: "META_LEFT", CodeMetaRight: "META_RIGHT", CodeFunction: "FUNCTION",
	CodeMoveHome: "MOVE_HOME", CodeMoveEnd: "MOVE_END", CodeF1: "F1",
	CodeVoiceAssist: "VOICE_ASSIST", CodeCut: "CUT", CodeCopy: "COPY", CodePaste: "PASTE",
	CodeEmojiPicker: "EMOJI_PICKER", CodeDictate: "DICTATE",
}

var namesToCode = func() map[string]Code {
	m := make(map[string]Code, len(codeNames))
	for c, n := range codeNames {
		m[n] = c
	}
	return m
}()

// ErrUnknownKey is returned when a key name cannot be resolved.
var ErrUnknownKey = errors.New("unknown key")

// UnknownNameError reports a name that is not part of a closed vocabulary.
type UnknownNameError struct {
	Kind string
	Name string
}

func (e *UnknownNameError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.Name)
}

func (e *UnknownNameError) Is(target error) bool {
	switch target {
	case ErrUnknownKey:
		return e.Kind == "key"
	case ErrUnknownRole:
		return e.Kind == "role"
	}
	return false
}

// String returns the symbolic name of the code, or its number when unnamed.
func (c Code) String() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return strconv.Itoa(int(c))
}

// ParseCode resolves a key name ("E", "KEYCODE_E", "shift_left") or a decimal
// code ("33").
func ParseCode(s string) (Code, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	name = strings.TrimPrefix(name, "KEYCODE_")
	if c, ok := namesToCode[name]; ok {
		return c, nil
	}
	if n, err := strconv.Atoi(name); err == nil && n > 0 {
		return Code(n), nil
	}
	return CodeUnknown, &UnknownNameError{Kind: "key", Name: s}
}

// Names returns every named key code in ascending numeric order.
func Names() []Code {
	out := make([]Code, 0, len(codeNames))
	for c := range codeNames {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsLetter reports whether the code is one of A..Z.
func IsLetter(c Code) bool {
	return c >= CodeA && c <= CodeZ
}

// IsDigit reports whether the code is one of 0..9.
func IsDigit(c Code) bool {
	return c >= Code0 && c <= Code9
}

// IsPrintingKey reports whether the key produces a visible character on its
// own. Space, Enter and Tab are not printing keys.
func IsPrintingKey(c Code) bool {
	if IsLetter(c) || IsDigit(c) {
		return true
	}
	switch c {
	case CodeComma, CodePeriod, CodeGrave, CodeMinus, CodeEquals,
		CodeLeftBracket, CodeRightBracket, CodeBackslash, CodeSemicolon,
		CodeApostrophe, CodeSlash, CodeAt, CodeEmojiPicker, CodeDictate:
		return true
	}
	return false
}

// IsModifierKey reports whether the key is a modifier key by itself.
func IsModifierKey(c Code) bool {
	switch c {
	case CodeShiftLeft, CodeShiftRight, CodeAltLeft, CodeAltRight,
		CodeCtrlLeft, CodeCtrlRight, CodeMetaLeft, CodeMetaRight,
		CodeSym, CodeFunction:
		return true
	}
	return false
}

// IsShift reports whether c is either Shift key.
func IsShift(c Code) bool {
	return c == CodeShiftLeft || c == CodeShiftRight
}

// IsAlt reports whether c is either Alt key.
func IsAlt(c Code) bool {
	return c == CodeAltLeft || c == CodeAltRight
}

// IsDelete reports whether c deletes text (backspace or forward delete).
func IsDelete(c Code) bool {
	return c == CodeDel || c == CodeForwardDel
}
