package keys

// Resolver maps a key code at a given modifier state to the character the
// platform keymap would produce. A zero rune means the key produces nothing.
//
// The router never hardcodes a keyboard layout; hosts inject their own
// resolver (layout.Reference is a Titan/QWERTY implementation used by the
// tools and tests).
type Resolver func(code Code, meta Meta) rune

// Resolve calls r, treating a nil resolver as "no character".
func (r Resolver) Resolve(code Code, meta Meta) rune {
	if r == nil {
		return 0
	}
	return r(code, meta)
}
