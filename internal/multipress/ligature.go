package multipress

// ligatures maps a previous character and the next one to their ligature.
var ligatures = map[[2]rune]rune{
	{'a', 'e'}: 'æ',
	{'o', 'e'}: 'œ',
	{'A', 'e'}: 'Æ',
	{'O', 'e'}: 'Œ',
	{'A', 'E'}: 'Æ',
	{'O', 'E'}: 'Œ',
}

// Ligature returns the ligature formed by prev followed by next.
func Ligature(prev, next rune) (rune, bool) {
	r, ok := ligatures[[2]rune{prev, next}]
	return r, ok
}
