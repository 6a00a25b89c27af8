package layout

import (
	"unicode"

	"symlayer/internal/keys"
)

// altChars is the character printed on each key of the Titan keyboard for
// the Alt layer.
var altChars = map[keys.Code]rune{
	keys.CodeQ: '&', keys.CodeW: '1', keys.CodeE: '2', keys.CodeR: '3', keys.CodeT: '_',
	keys.CodeY: '-', keys.CodeU: '+', keys.CodeI: '!', keys.CodeO: '#', keys.CodeP: '$',
	keys.CodeA: '@', keys.CodeS: '4', keys.CodeD: '5', keys.CodeF: '6', keys.CodeG: '=',
	keys.CodeH: ':', keys.CodeJ: ';', keys.CodeK: '\'', keys.CodeL: '"',
	keys.CodeZ: '7', keys.CodeX: '8', keys.CodeC: '9', keys.CodeV: '*', keys.CodeB: '%',
	keys.CodeN: '?', keys.CodeM: ',',
	keys.CodeEmojiPicker: '0',
}

// AltChar returns the Alt character printed on a key.
func AltChar(c keys.Code) (rune, bool) {
	r, ok := altChars[c]
	return r, ok
}

var plainChars = map[keys.Code]rune{
	keys.CodeSpace:        ' ',
	keys.CodeEnter:        '\n',
	keys.CodeTab:          '\t',
	keys.CodeComma:        ',',
	keys.CodePeriod:       '.',
	keys.CodeGrave:        '`',
	keys.CodeMinus:        '-',
	keys.CodeEquals:       '=',
	keys.CodeLeftBracket:  '[',
	keys.CodeRightBracket: ']',
	keys.CodeBackslash:    '\\',
	keys.CodeSemicolon:    ';',
	keys.CodeApostrophe:   '\'',
	keys.CodeSlash:        '/',
	keys.CodeAt:           '@',
}

var shiftedChars = map[keys.Code]rune{
	keys.Code0: ')', keys.Code1: '!', keys.Code2: '@', keys.Code3: '#', keys.Code4: '$',
	keys.Code5: '%', keys.Code6: '^', keys.Code7: '&', keys.Code8: '*', keys.Code9: '(',
	keys.CodeComma:        '<',
	keys.CodePeriod:       '>',
	keys.CodeGrave:        '~',
	keys.CodeMinus:        '_',
	keys.CodeEquals:       '+',
	keys.CodeLeftBracket:  '{',
	keys.CodeRightBracket: '}',
	keys.CodeBackslash:    '|',
	keys.CodeSemicolon:    ':',
	keys.CodeApostrophe:   '"',
	keys.CodeSlash:        '?',
}

// Reference resolves key codes the way a Titan keyboard with a US QWERTY
// character map does. It satisfies keys.Resolver. Ctrl, Meta and Sym bits are
// ignored.
func Reference(c keys.Code, meta keys.Meta) rune {
	shift := meta.Has(keys.MetaShift)

	if meta.Has(keys.MetaAlt) {
		if r, ok := altChars[c]; ok {
			return r
		}
		return 0
	}

	switch {
	case keys.IsLetter(c):
		r := 'a' + rune(c-keys.CodeA)
		if shift != meta.Has(keys.MetaCapsLock) {
			return unicode.ToUpper(r)
		}
		return r
	case keys.IsDigit(c):
		if shift {
			return shiftedChars[c]
		}
		return '0' + rune(c-keys.Code0)
	}

	if shift {
		if r, ok := shiftedChars[c]; ok {
			return r
		}
	}
	return plainChars[c]
}
