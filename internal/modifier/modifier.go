// Package modifier implements the virtual modifier state machines used by the
// keyboard: hold/lock/next modifiers (Shift, Alt, auto-caps), the simple
// hold/toggle modifier (Sym), the triple-duty modifier (a hardware key that is
// a modifier when chorded, one key when tapped and another when long pressed),
// and the long-press toggle layer.
//
// A Modifier is a single state machine whose behavior is selected by its
// Capability set:
//
//	Capability            down                      up
//	CapLock|CapNext       double press toggles lock  quick release arms "next"
//	CapLock (simple)      every press flips lock     long hold releases lock
//	+CapTriple            as CapLock|CapNext, plus mod-mode and long press
//
// None of the types are safe for concurrent use. The router owns them.
package modifier

import (
	"time"

	"symlayer/internal/clock"
	"symlayer/internal/keys"
)

// Capability selects which transitions a Modifier supports.
type Capability uint8

const (
	// CapLock allows the modifier to stay locked across key presses.
	CapLock Capability = 1 << iota
	// CapNext enables the "active for the next key only" state and the
	// double-press lock detection. Without it the modifier uses the simple
	// toggle-on-press semantics.
	CapNext
	// CapTriple enables mod-mode, long press and the tap/long-press key codes.
	CapTriple
)

// Default thresholds.
const (
	DefaultLockThreshold       = 250 * time.Millisecond
	DefaultNextThreshold       = 350 * time.Millisecond
	DefaultSimpleLockThreshold = 350 * time.Millisecond
)

// Modifier is a virtual modifier key.
type Modifier struct {
	caps  Capability
	clock clock.Clock

	// LockThreshold is the maximum gap between two presses for the second
	// press to toggle the lock. For simple modifiers it is the hold duration
	// beyond which releasing the key also releases the lock.
	LockThreshold time.Duration

	// NextThreshold is the maximum duration of a tap that arms the modifier
	// for the next key only.
	NextThreshold time.Duration

	// Triple key codes. ModKeyCode is reported while the key is claimed as a
	// live modifier; ShortPressKeyCode and LongPressKeyCode are tapped on
	// release.
	ModKeyCode        keys.Code
	ShortPressKeyCode keys.Code
	LongPressKeyCode  keys.Code

	held        bool
	locked      bool
	next        bool
	preventNext bool
	lastTime    time.Time

	longPress bool
	modMode   bool
	skipKeyUp bool
}

// New returns a hold/lock/next modifier (Shift, Alt, auto-caps).
func New(c clock.Clock) *Modifier {
	return newModifier(CapLock|CapNext, c, DefaultLockThreshold)
}

// NewSimple returns a hold/toggle-lock modifier (Sym).
func NewSimple(c clock.Clock) *Modifier {
	return newModifier(CapLock, c, DefaultSimpleLockThreshold)
}

// NewTriple returns a triple-duty modifier with the given key codes.
func NewTriple(c clock.Clock, mod, short, long keys.Code) *Modifier {
	m := newModifier(CapLock|CapNext|CapTriple, c, DefaultLockThreshold)
	m.ModKeyCode = mod
	m.ShortPressKeyCode = short
	m.LongPressKeyCode = long
	return m
}

// NewWithCapabilities returns a modifier with an explicit capability set.
func NewWithCapabilities(caps Capability, c clock.Clock) *Modifier {
	lock := DefaultLockThreshold
	if caps&CapNext == 0 {
		lock = DefaultSimpleLockThreshold
	}
	return newModifier(caps, c, lock)
}

func newModifier(caps Capability, c clock.Clock, lock time.Duration) *Modifier {
	if c == nil {
		c = clock.System{}
	}
	return &Modifier{
		caps:          caps,
		clock:         c,
		LockThreshold: lock,
		NextThreshold: DefaultNextThreshold,
	}
}

// Capabilities returns the capability set.
func (m *Modifier) Capabilities() Capability {
	return m.caps
}

// Reset clears all gesture state. Key code assignments and thresholds are kept.
func (m *Modifier) Reset() {
	m.held = false
	m.locked = false
	m.next = false
	m.preventNext = false
	m.lastTime = time.Time{}
	m.longPress = false
	m.modMode = false
	m.skipKeyUp = false
}

// Active reports whether the modifier currently applies: locked, held, or
// armed for the next key.
func (m *Modifier) Active() bool {
	return m.locked || m.held || m.next
}

// Locked reports whether the modifier is locked on.
func (m *Modifier) Locked() bool {
	return m.locked
}

// Held reports whether the modifier key is physically down.
func (m *Modifier) Held() bool {
	return m.held
}

// NextOnly reports whether the modifier is armed for the next key only.
func (m *Modifier) NextOnly() bool {
	return m.next
}

// OnKeyDown records a press of the modifier key.
func (m *Modifier) OnKeyDown() {
	m.held = true
	now := m.clock.Now()

	if m.caps&CapNext == 0 {
		if m.caps&CapLock != 0 {
			m.locked = !m.locked
		}
		m.lastTime = now
		return
	}

	if !m.lastTime.IsZero() && now.Sub(m.lastTime) < clampDuration(m.LockThreshold) {
		if m.caps&CapLock != 0 {
			m.locked = !m.locked
		}
		m.preventNext = true
	} else {
		m.preventNext = m.locked || m.next
		m.locked = false
	}
	m.lastTime = now
	m.skipKeyUp = false
}

// OnKeyUp records a release of the modifier key.
func (m *Modifier) OnKeyUp() {
	elapsed := m.clock.Now().Sub(m.lastTime)

	if m.caps&CapNext == 0 {
		if elapsed > clampDuration(m.LockThreshold) {
			m.locked = false
		}
		m.held = false
		return
	}

	m.next = !m.locked && elapsed < clampDuration(m.NextThreshold) && !m.preventNext
	m.preventNext = false
	m.held = false
	m.longPress = false
	m.modMode = false
}

// ActivateForNext arms the modifier for the next key (auto-capitalization).
func (m *Modifier) ActivateForNext() {
	if m.caps&CapNext == 0 {
		return
	}
	m.next = true
}

// NextDidConsume tells the modifier that a key consumed its "next" state.
// A following quick re-tap is then not read as a request to re-arm it.
func (m *Modifier) NextDidConsume() {
	if m.caps&CapNext == 0 {
		return
	}
	m.next = false
	m.preventNext = true
}

func clampDuration(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
