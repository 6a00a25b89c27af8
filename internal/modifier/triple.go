package modifier

import "symlayer/internal/keys"

// ActivateModKey claims the current hold as a live modifier. It only applies
// while the key is held and a modifier code is assigned; the claim lasts until
// the key is released.
func (m *Modifier) ActivateModKey() bool {
	if m.caps&CapTriple == 0 || !m.held || m.ModKeyCode == keys.CodeUnknown {
		return false
	}
	m.modMode = true
	return true
}

// ModMode reports whether the current hold was claimed as a live modifier.
func (m *Modifier) ModMode() bool {
	return m.modMode
}

// ModKey returns ModKeyCode while the hold is claimed, CodeUnknown otherwise.
func (m *Modifier) ModKey() keys.Code {
	if m.modMode {
		return m.ModKeyCode
	}
	return keys.CodeUnknown
}

// ActivateLongPress records that the key was held alone past the long press
// threshold. It is ignored once the hold has been claimed as a modifier.
func (m *Modifier) ActivateLongPress() {
	if m.caps&CapTriple == 0 || !m.held || m.modMode {
		return
	}
	m.longPress = true
}

// LongPress reports whether a long press was registered for the current hold.
func (m *Modifier) LongPress() bool {
	return m.longPress
}

// Key returns the code to tap on release: LongPressKeyCode after a long press,
// ShortPressKeyCode otherwise.
func (m *Modifier) Key() keys.Code {
	if m.longPress {
		return m.LongPressKeyCode
	}
	return m.ShortPressKeyCode
}

// SetSkipKeyUp arms the one-shot latch that makes the next release emit
// nothing: neither the mod key release nor the tap.
func (m *Modifier) SetSkipKeyUp() {
	m.skipKeyUp = true
}

// TakeSkipKeyUp reports and clears the skip latch.
func (m *Modifier) TakeSkipKeyUp() bool {
	s := m.skipKeyUp
	m.skipKeyUp = false
	return s
}

// Release describes what the router must emit when a triple key is released.
type Release struct {
	// ModKey is set when the hold was claimed: forward its key-up.
	ModKey keys.Code
	// Tap is set when the key was used alone: tap this code.
	Tap keys.Code
}

// Release processes the key-up of a triple key and reports the resulting
// action. The modifier state is updated as by OnKeyUp.
func (m *Modifier) Release() Release {
	var r Release
	if !m.TakeSkipKeyUp() {
		if m.modMode {
			r.ModKey = m.ModKeyCode
		} else {
			r.Tap = m.Key()
		}
	}
	m.OnKeyUp()
	return r
}
