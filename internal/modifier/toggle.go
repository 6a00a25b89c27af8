package modifier

import (
	"time"

	"symlayer/internal/clock"
)

// DefaultToggleThreshold is the hold duration that toggles a layer.
const DefaultToggleThreshold = 500 * time.Millisecond

// ToggleLayer is a layer switch toggled by long-pressing a dedicated key.
// Short presses leave the layer untouched.
type ToggleLayer struct {
	clock clock.Clock

	// Threshold is the minimum hold duration that toggles the layer.
	Threshold time.Duration

	pressedAt time.Time
	pressed   bool
	active    bool
	toggled   bool
}

// NewToggleLayer returns an inactive layer switch.
func NewToggleLayer(c clock.Clock) *ToggleLayer {
	if c == nil {
		c = clock.System{}
	}
	return &ToggleLayer{clock: c, Threshold: DefaultToggleThreshold}
}

// OnKeyDown records the start of a press. Repeated downs during the same
// hold keep the original start time.
func (l *ToggleLayer) OnKeyDown() {
	if l.pressed {
		return
	}
	l.pressed = true
	l.pressedAt = l.clock.Now()
}

// OnKeyUp ends a press and reports whether it toggled the layer.
func (l *ToggleLayer) OnKeyUp() bool {
	if !l.pressed {
		return false
	}
	l.pressed = false
	if l.clock.Now().Sub(l.pressedAt) < clampDuration(l.Threshold) {
		return false
	}
	l.active = !l.active
	l.toggled = true
	return true
}

// Active reports whether the layer is on.
func (l *ToggleLayer) Active() bool {
	return l.active
}

// Pressed reports whether the toggle key is down.
func (l *ToggleLayer) Pressed() bool {
	return l.pressed
}

// WasJustToggled reports a toggle since the previous call. The flag clears on
// read.
func (l *ToggleLayer) WasJustToggled() bool {
	t := l.toggled
	l.toggled = false
	return t
}

// Activate turns the layer on.
func (l *ToggleLayer) Activate() {
	l.active = true
}

// Deactivate turns the layer off.
func (l *ToggleLayer) Deactivate() {
	l.active = false
}

// Reset turns the layer off and forgets any press in progress.
func (l *ToggleLayer) Reset() {
	l.active = false
	l.pressed = false
	l.toggled = false
	l.pressedAt = time.Time{}
}
