package ibus

import (
	"time"
	"unicode"

	"symlayer/internal/keys"
)

// IBus key event state masks
const (
	ShiftMask   uint32 = 1 << 0
	LockMask    uint32 = 1 << 1
	ControlMask uint32 = 1 << 2
	Mod1Mask    uint32 = 1 << 3 // Alt
	Mod4Mask    uint32 = 1 << 6 // Super/Meta
	SuperMask   uint32 = 1 << 26
	ReleaseMask uint32 = 1 << 30
)

// X11 keysyms for keys that do not produce a character.
const (
	keysymBackSpace = 0xff08
	keysymTab       = 0xff09
	keysymReturn    = 0xff0d
	keysymEscape    = 0xff1b
	keysymHome      = 0xff50
	keysymLeft      = 0xff51
	keysymUp        = 0xff52
	keysymRight     = 0xff53
	keysymDown      = 0xff54
	keysymPageUp    = 0xff55
	keysymPageDown  = 0xff56
	keysymEnd       = 0xff57
	keysymMenu      = 0xff67
	keysymF1        = 0xffbe
	keysymShiftL    = 0xffe1
	keysymShiftR    = 0xffe2
	keysymControlL  = 0xffe3
	keysymControlR  = 0xffe4
	keysymCapsLock  = 0xffe5
	keysymAltL      = 0xffe9
	keysymAltR      = 0xffea
	keysymSuperL    = 0xffeb
	keysymSuperR    = 0xffec
	keysymMultiKey  = 0xff20
	keysymDelete    = 0xffff
)

type keyDef struct {
	evdev  uint32
	code   keys.Code
	keysym uint32 // zero for printing keys, which take the resolved character
}

// keyDefs maps Linux evdev key codes (the keycode IBus passes, already
// without the X11 offset of 8) to key codes. The Compose key stands in for
// Sym on PC keyboards.
var keyDefs = []keyDef{
	{1, keys.CodeEscape, keysymEscape},
	{2, keys.Code1, 0}, {3, keys.Code2, 0}, {4, keys.Code3, 0}, {5, keys.Code4, 0}, {6, keys.Code5, 0},
	{7, keys.Code6, 0}, {8, keys.Code7, 0}, {9, keys.Code8, 0}, {10, keys.Code9, 0}, {11, keys.Code0, 0},
	{12, keys.CodeMinus, 0}, {13, keys.CodeEquals, 0},
	{14, keys.CodeDel, keysymBackSpace},
	{15, keys.CodeTab, keysymTab},
	{16, keys.CodeQ, 0}, {17, keys.CodeW, 0}, {18, keys.CodeE, 0}, {19, keys.CodeR, 0}, {20, keys.CodeT, 0},
	{21, keys.CodeY, 0}, {22, keys.CodeU, 0}, {23, keys.CodeI, 0}, {24, keys.CodeO, 0}, {25, keys.CodeP, 0},
	{26, keys.CodeLeftBracket, 0}, {27, keys.CodeRightBracket, 0},
	{28, keys.CodeEnter, keysymReturn},
	{29, keys.CodeCtrlLeft, keysymControlL},
	{30, keys.CodeA, 0}, {31, keys.CodeS, 0}, {32, keys.CodeD, 0}, {33, keys.CodeF, 0}, {34, keys.CodeG, 0},
	{35, keys.CodeH, 0}, {36, keys.CodeJ, 0}, {37, keys.CodeK, 0}, {38, keys.CodeL, 0},
	{39, keys.CodeSemicolon, 0}, {40, keys.CodeApostrophe, 0}, {41, keys.CodeGrave, 0},
	{42, keys.CodeShiftLeft, keysymShiftL},
	{43, keys.CodeBackslash, 0},
	{44, keys.CodeZ, 0}, {45, keys.CodeX, 0}, {46, keys.CodeC, 0}, {47, keys.CodeV, 0}, {48, keys.CodeB, 0},
	{49, keys.CodeN, 0}, {50, keys.CodeM, 0},
	{51, keys.CodeComma, 0}, {52, keys.CodePeriod, 0}, {53, keys.CodeSlash, 0},
	{54, keys.CodeShiftRight, keysymShiftR},
	{56, keys.CodeAltLeft, keysymAltL},
	{57, keys.CodeSpace, 0},
	{58, keys.CodeCapsLock, keysymCapsLock},
	{59, keys.CodeF1, keysymF1},
	{97, keys.CodeCtrlRight, keysymControlR},
	{100, keys.CodeAltRight, keysymAltR},
	{102, keys.CodeMoveHome, keysymHome},
	{103, keys.CodeDpadUp, keysymUp},
	{104, keys.CodePageUp, keysymPageUp},
	{105, keys.CodeDpadLeft, keysymLeft},
	{106, keys.CodeDpadRight, keysymRight},
	{107, keys.CodeMoveEnd, keysymEnd},
	{108, keys.CodeDpadDown, keysymDown},
	{109, keys.CodePageDown, keysymPageDown},
	{111, keys.CodeForwardDel, keysymDelete},
	{125, keys.CodeMetaLeft, keysymSuperL},
	{126, keys.CodeMetaRight, keysymSuperR},
	{127, keys.CodeSym, keysymMultiKey},
	{139, keys.CodeMenu, keysymMenu},
	{0x246, keys.CodeVoiceAssist, 0},
	{0x249, keys.CodeEmojiPicker, 0},
	{0x24a, keys.CodeDictate, 0},
}

var (
	evdevToDef = func() map[uint32]keyDef {
		m := make(map[uint32]keyDef, len(keyDefs))
		for _, d := range keyDefs {
			m[d.evdev] = d
		}
		return m
	}()
	codeToDef = func() map[keys.Code]keyDef {
		m := make(map[keys.Code]keyDef, len(keyDefs))
		for _, d := range keyDefs {
			m[d.code] = d
		}
		return m
	}()
)

// CodeFor converts an IBus key event to a key code. The evdev keycode wins;
// letters and digits with an unmapped keycode fall back to the keysym.
// Anything else returns CodeUnknown.
func CodeFor(keyval, keycode uint32) keys.Code {
	if d, ok := evdevToDef[keycode]; ok {
		return d.code
	}
	switch r := unicode.ToLower(keysymToRune(keyval)); {
	case r >= 'a' && r <= 'z':
		return keys.CodeA + keys.Code(r-'a')
	case r >= '0' && r <= '9':
		return keys.Code0 + keys.Code(r-'0')
	}
	return keys.CodeUnknown
}

// MetaFromState converts an IBus modifier state to a Meta bitset.
func MetaFromState(state uint32) keys.Meta {
	var m keys.Meta
	if state&ShiftMask != 0 {
		m |= keys.MetaShift
	}
	if state&LockMask != 0 {
		m |= keys.MetaCapsLock
	}
	if state&ControlMask != 0 {
		m |= keys.MetaCtrl
	}
	if state&Mod1Mask != 0 {
		m |= keys.MetaAlt
	}
	if state&(Mod4Mask|SuperMask) != 0 {
		m |= keys.MetaMeta
	}
	return m
}

// StateFromMeta converts a Meta bitset to an IBus modifier state. Sym has no
// IBus equivalent and is dropped.
func StateFromMeta(m keys.Meta) uint32 {
	var s uint32
	if m.Has(keys.MetaShift) {
		s |= ShiftMask
	}
	if m.Has(keys.MetaCapsLock) {
		s |= LockMask
	}
	if m.Has(keys.MetaCtrl) {
		s |= ControlMask
	}
	if m.Has(keys.MetaAlt) {
		s |= Mod1Mask
	}
	if m.Has(keys.MetaMeta) {
		s |= Mod4Mask
	}
	return s
}

// Keysym returns the keysym and evdev keycode to forward for a key code.
// Printing keys use the character the resolver produces at the given meta
// state. ok is false when the key cannot be expressed as an X11 key event.
func Keysym(c keys.Code, meta keys.Meta, resolve keys.Resolver) (keysym, keycode uint32, ok bool) {
	d, known := codeToDef[c]
	if known && d.keysym != 0 {
		return d.keysym, d.evdev, true
	}
	r := resolve.Resolve(c, meta&^(keys.MetaCtrl|keys.MetaMeta|keys.MetaSym))
	if r == 0 {
		return 0, d.evdev, false
	}
	return runeToKeysym(r), d.evdev, true
}

// runeToKeysym converts a character to its X11 keysym.
func runeToKeysym(r rune) uint32 {
	if (r >= 0x20 && r <= 0x7e) || (r >= 0xa0 && r <= 0xff) {
		return uint32(r)
	}
	return 0x01000000 + uint32(r)
}

// keysymToRune converts an X11 keysym to the character it types.
func keysymToRune(keysym uint32) rune {
	if (keysym >= 0x20 && keysym <= 0x7e) || (keysym >= 0xa0 && keysym <= 0xff) {
		return rune(keysym)
	}
	if keysym >= 0x01000000 {
		return rune(keysym - 0x01000000)
	}
	return 0
}

// LongPressTimeout is how long a key must be held before its auto-repeat
// presses are flagged as a long press.
const LongPressTimeout = 500 * time.Millisecond

type heldKey struct {
	since   time.Time
	repeats int
}

// repeatTracker derives repeat counts from IBus, which delivers auto-repeat
// as further presses without an intervening release.
type repeatTracker struct {
	held map[keys.Code]heldKey
}

func newRepeatTracker() *repeatTracker {
	return &repeatTracker{held: make(map[keys.Code]heldKey)}
}

// press records a press and returns its repeat count and long-press flag.
func (t *repeatTracker) press(c keys.Code, now time.Time) (repeat int, longPress bool) {
	h, ok := t.held[c]
	if !ok {
		t.held[c] = heldKey{since: now}
		return 0, false
	}
	h.repeats++
	t.held[c] = h
	return h.repeats, now.Sub(h.since) >= LongPressTimeout
}

func (t *repeatTracker) release(c keys.Code) {
	delete(t.held, c)
}

func (t *repeatTracker) reset() {
	clear(t.held)
}
