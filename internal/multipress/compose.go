package multipress

import (
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Composer combines a dead-key spacing mark with a base character. ok is
// false when the pair has no precomposed form.
type Composer interface {
	Compose(mark, base rune) (r rune, ok bool)
}

// ComposerFunc adapts a function to the Composer interface.
type ComposerFunc func(mark, base rune) (rune, bool)

// Compose calls f.
func (f ComposerFunc) Compose(mark, base rune) (rune, bool) {
	return f(mark, base)
}

// combining maps spacing marks to their combining counterparts.
var combining = map[rune]rune{
	'`': '\u0300',
	'´': '\u0301',
	'^': '\u0302',
	'~': '\u0303',
	'¨': '\u0308',
	'˚': '\u030A',
	'¯': '\u0304',
	'¸': '\u0327',
	'˘': '\u0306',
	'ˇ': '\u030C',
}

// NormComposer composes with Unicode canonical composition (NFC). A space
// base yields the mark itself.
type NormComposer struct{}

// Compose implements Composer.
func (NormComposer) Compose(mark, base rune) (rune, bool) {
	if base == ' ' {
		return mark, true
	}
	comb, ok := combining[mark]
	if !ok || base == 0 {
		return 0, false
	}
	s := norm.NFC.String(string([]rune{base, comb}))
	if utf8.RuneCountInString(s) != 1 {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, true
}
