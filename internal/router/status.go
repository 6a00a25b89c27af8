package router

import "strings"

// Indicator is the modifier icon the host should display.
type Indicator string

const (
	IndicatorNone      Indicator = ""
	IndicatorSym       Indicator = "sym"
	IndicatorSymShift  Indicator = "symshift"
	IndicatorMeta      Indicator = "meta"
	IndicatorAlt       Indicator = "alt"
	IndicatorAltLock   Indicator = "altlock"
	IndicatorCtrl      Indicator = "ctrl"
	IndicatorCtrlLock  Indicator = "ctrllock"
	IndicatorShift     Indicator = "shift"
	IndicatorShiftLock Indicator = "shiftlock"
	IndicatorCaps      Indicator = "caps"
	IndicatorCapsLock  Indicator = "capslock"
)

// Status is the active modifier set reported to the host.
type Status struct {
	Shift    bool `json:"shift,omitempty" yaml:"shift,omitempty"`
	Alt      bool `json:"alt,omitempty" yaml:"alt,omitempty"`
	Sym      bool `json:"sym,omitempty" yaml:"sym,omitempty"`
	Ctrl     bool `json:"ctrl,omitempty" yaml:"ctrl,omitempty"`
	Meta     bool `json:"meta,omitempty" yaml:"meta,omitempty"`
	Caps     bool `json:"caps,omitempty" yaml:"caps,omitempty"`
	Cyrillic bool `json:"cyrillic,omitempty" yaml:"cyrillic,omitempty"`

	Indicator Indicator `json:"indicator,omitempty" yaml:"indicator,omitempty"`

	// Language is the short language tag shown when no icon applies, cased
	// after the auto-capitalization state ("EN", "En", "en").
	Language string `json:"language" yaml:"language"`
}

func (r *Router) status() Status {
	s := Status{
		Shift:    r.shift.Active(),
		Alt:      r.alt.Active(),
		Sym:      r.sym.Active(),
		Ctrl:     r.dotCtrl.Active(),
		Meta:     r.emojiMeta.Active(),
		Caps:     r.caps.Active(),
		Cyrillic: r.cyrillicEnabled && r.cyrillic.Active(),
	}

	switch {
	case s.Sym:
		s.Indicator = IndicatorSym
		if s.Shift {
			s.Indicator = IndicatorSymShift
		}
	case s.Meta:
		s.Indicator = IndicatorMeta
	case s.Alt:
		s.Indicator = lockable(r.alt.Locked(), IndicatorAlt, IndicatorAltLock)
	case s.Ctrl:
		s.Indicator = lockable(r.dotCtrl.Locked(), IndicatorCtrl, IndicatorCtrlLock)
	case s.Shift:
		s.Indicator = lockable(r.shift.Locked(), IndicatorShift, IndicatorShiftLock)
	case s.Caps:
		s.Indicator = lockable(r.caps.Locked(), IndicatorCaps, IndicatorCapsLock)
	}

	lang := "en"
	if s.Cyrillic {
		lang = "ru"
	}
	switch {
	case r.caps.Locked():
		s.Language = strings.ToUpper(lang)
	case s.Caps:
		s.Language = strings.ToUpper(lang[:1]) + lang[1:]
	default:
		s.Language = lang
	}
	return s
}

func lockable(locked bool, plain, lock Indicator) Indicator {
	if locked {
		return lock
	}
	return plain
}
