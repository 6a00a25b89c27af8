package layout

import (
	"unicode"

	"symlayer/internal/keys"
)

// cyrillic is a JCUKEN-like layout on the QWERTY keys. Letters that have no
// key of their own are reached through cyrillicAlt.
var cyrillic = map[keys.Code]rune{
	keys.CodeQ: 'й', keys.CodeW: 'ц', keys.CodeE: 'у', keys.CodeR: 'к', keys.CodeT: 'е',
	keys.CodeY: 'н', keys.CodeU: 'г', keys.CodeI: 'ш', keys.CodeO: 'щ', keys.CodeP: 'з',
	keys.CodeA: 'ф', keys.CodeS: 'ы', keys.CodeD: 'в', keys.CodeF: 'а', keys.CodeG: 'п',
	keys.CodeH: 'р', keys.CodeJ: 'о', keys.CodeK: 'л', keys.CodeL: 'д',
	keys.CodeZ: 'я', keys.CodeX: 'ч', keys.CodeC: 'с', keys.CodeV: 'м', keys.CodeB: 'и',
	keys.CodeN: 'т', keys.CodeM: 'ь',
	keys.CodeSlash:     '.',
	keys.CodeBackslash: '/',
}

var cyrillicAlt = map[keys.Code]rune{
	keys.CodeY: 'х',
	keys.CodeU: 'ъ',
	keys.CodeG: 'ж',
	keys.CodeH: 'э',
	keys.CodeJ: 'ю',
	keys.CodeK: 'ё',
	keys.CodeM: 'б',
}

func withCase(r rune, upper bool) rune {
	if upper {
		return unicode.ToUpper(r)
	}
	return r
}

// Cyrillic returns the Cyrillic character for a key.
func Cyrillic(c keys.Code, upper bool) (rune, bool) {
	r, ok := cyrillic[c]
	if !ok {
		return 0, false
	}
	return withCase(r, upper), true
}

// CyrillicAlt returns the Cyrillic character for Alt plus a key.
func CyrillicAlt(c keys.Code, upper bool) (rune, bool) {
	r, ok := cyrillicAlt[c]
	if !ok {
		return 0, false
	}
	return withCase(r, upper), true
}
