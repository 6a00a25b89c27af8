package modifier

import (
	"testing"
	"time"

	"symlayer/internal/clock"
	"symlayer/internal/keys"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClock() *clock.Manual {
	return clock.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
}

func TestModifier_HoldOnly(t *testing.T) {
	c := newClock()
	m := New(c)

	for i := 0; i < 5; i++ {
		c.Advance(DefaultLockThreshold + DefaultNextThreshold + time.Millisecond)
		assert.False(t, m.Active(), "press %d: active before down", i)

		m.OnKeyDown()
		assert.True(t, m.Active(), "press %d: inactive while held", i)

		c.Advance(DefaultNextThreshold + 10*time.Millisecond)
		m.OnKeyUp()
		assert.False(t, m.Active(), "press %d: active after a long release", i)
	}
}

func TestModifier_DoubleTapLockIsInvolution(t *testing.T) {
	c := newClock()
	m := New(c)

	m.OnKeyDown()
	c.Advance(50 * time.Millisecond)
	m.OnKeyUp()
	require.True(t, m.NextOnly())

	c.Advance(50 * time.Millisecond)
	m.OnKeyDown()
	c.Advance(50 * time.Millisecond)
	m.OnKeyUp()
	assert.True(t, m.Locked())
	assert.False(t, m.NextOnly())
	assert.True(t, m.Active())

	c.Advance(50 * time.Millisecond)
	m.OnKeyDown()
	c.Advance(50 * time.Millisecond)
	m.OnKeyUp()
	assert.False(t, m.Locked())
	assert.False(t, m.Active())
}

func TestModifier_TapArmsNext(t *testing.T) {
	c := newClock()
	m := New(c)

	m.OnKeyDown()
	c.Advance(100 * time.Millisecond)
	m.OnKeyUp()

	assert.True(t, m.Active())
	assert.True(t, m.NextOnly())
	assert.False(t, m.Locked())

	c.Advance(2 * time.Second)
	assert.True(t, m.Active(), "next state does not expire on its own")

	m.NextDidConsume()
	assert.False(t, m.Active())
}

func TestModifier_LockedDownClearsLock(t *testing.T) {
	c := newClock()
	m := New(c)

	m.OnKeyDown()
	m.OnKeyUp()
	c.Advance(10 * time.Millisecond)
	m.OnKeyDown()
	m.OnKeyUp()
	require.True(t, m.Locked())

	// A later single press unlocks without arming next.
	c.Advance(time.Second)
	m.OnKeyDown()
	assert.False(t, m.Locked())
	c.Advance(10 * time.Millisecond)
	m.OnKeyUp()
	assert.False(t, m.Active())
}

func TestModifier_ConsumedWhileHeld(t *testing.T) {
	c := newClock()
	m := New(c)

	// Shift held while a letter is typed, then released quickly.
	m.OnKeyDown()
	c.Advance(50 * time.Millisecond)
	m.NextDidConsume()
	c.Advance(50 * time.Millisecond)
	m.OnKeyUp()

	assert.False(t, m.NextOnly())
	assert.False(t, m.Active())
}

func TestModifier_ActivateForNext(t *testing.T) {
	m := New(newClock())

	m.ActivateForNext()
	require.True(t, m.Active())
	m.NextDidConsume()
	assert.False(t, m.Active())
}

func TestModifier_ThresholdsIndependent(t *testing.T) {
	c := newClock()
	m := New(c)
	m.LockThreshold = 100 * time.Millisecond
	m.NextThreshold = 500 * time.Millisecond

	m.OnKeyDown()
	c.Advance(400 * time.Millisecond)
	m.OnKeyUp()
	assert.True(t, m.NextOnly(), "a 400ms tap is within the next window")

	c.Advance(150 * time.Millisecond)
	m.OnKeyDown()
	assert.False(t, m.Locked(), "previous down was 550ms ago")
}

func TestModifier_NegativeThresholdsClamped(t *testing.T) {
	c := newClock()
	m := New(c)
	m.LockThreshold = -time.Second
	m.NextThreshold = -time.Second

	m.OnKeyDown()
	m.OnKeyUp()
	m.OnKeyDown()
	m.OnKeyUp()

	assert.False(t, m.Locked())
	assert.False(t, m.Active())
}

func TestModifier_Reset(t *testing.T) {
	c := newClock()
	m := NewTriple(c, keys.CodeCtrlRight, keys.CodePeriod, keys.CodeVoiceAssist)
	m.OnKeyDown()
	m.ActivateModKey()
	m.SetSkipKeyUp()

	m.Reset()

	assert.False(t, m.Active())
	assert.False(t, m.ModMode())
	assert.False(t, m.TakeSkipKeyUp())
	assert.Equal(t, keys.CodeCtrlRight, m.ModKeyCode)
}

func TestSimpleModifier(t *testing.T) {
	tests := []struct {
		name   string
		hold   time.Duration
		active bool
	}{
		{name: "quick tap locks", hold: 50 * time.Millisecond, active: true},
		{name: "long hold releases", hold: 400 * time.Millisecond, active: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClock()
			m := NewSimple(c)

			m.OnKeyDown()
			assert.True(t, m.Active())
			c.Advance(tt.hold)
			m.OnKeyUp()
			assert.Equal(t, tt.active, m.Active())
		})
	}
}

func TestSimpleModifier_SecondTapUnlocks(t *testing.T) {
	c := newClock()
	m := NewSimple(c)

	m.OnKeyDown()
	m.OnKeyUp()
	require.True(t, m.Locked())

	c.Advance(5 * time.Second)
	m.OnKeyDown()
	assert.False(t, m.Locked())
	assert.True(t, m.Active(), "held")
	m.OnKeyUp()
	assert.False(t, m.Active())

	m.ActivateForNext()
	assert.False(t, m.Active(), "simple modifiers have no next state")
}

func TestTripleModifier_Chord(t *testing.T) {
	c := newClock()
	m := NewTriple(c, keys.CodeCtrlRight, keys.CodePeriod, keys.CodeVoiceAssist)

	assert.False(t, m.ActivateModKey(), "not held")

	m.OnKeyDown()
	require.True(t, m.ActivateModKey())
	assert.Equal(t, keys.CodeCtrlRight, m.ModKey())

	// A long press after the claim does not change the tap key.
	c.Advance(time.Second)
	m.ActivateLongPress()
	assert.False(t, m.LongPress())

	r := m.Release()
	assert.Equal(t, Release{ModKey: keys.CodeCtrlRight}, r)
	assert.False(t, m.ModMode())
	assert.Equal(t, keys.CodeUnknown, m.ModKey())
}

func TestTripleModifier_TapAndLongPress(t *testing.T) {
	tests := []struct {
		name      string
		longPress bool
		want      keys.Code
	}{
		{name: "tap", want: keys.CodePeriod},
		{name: "long press", longPress: true, want: keys.CodeVoiceAssist},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClock()
			m := NewTriple(c, keys.CodeCtrlRight, keys.CodePeriod, keys.CodeVoiceAssist)

			m.OnKeyDown()
			if tt.longPress {
				c.Advance(600 * time.Millisecond)
				m.ActivateLongPress()
			}
			r := m.Release()
			assert.Equal(t, Release{Tap: tt.want}, r)
			assert.False(t, m.LongPress())
		})
	}
}

func TestTripleModifier_NoModCode(t *testing.T) {
	m := NewTriple(newClock(), keys.CodeUnknown, keys.CodePeriod, keys.CodeUnknown)
	m.OnKeyDown()
	assert.False(t, m.ActivateModKey())
	assert.Equal(t, Release{Tap: keys.CodePeriod}, m.Release())
}

func TestTripleModifier_SkipKeyUpOnce(t *testing.T) {
	c := newClock()
	m := NewTriple(c, keys.CodeMetaLeft, keys.CodePictSymbols, keys.Code0)

	m.OnKeyDown()
	m.SetSkipKeyUp()
	assert.Equal(t, Release{}, m.Release())

	c.Advance(time.Second)
	m.OnKeyDown()
	assert.Equal(t, Release{Tap: keys.CodePictSymbols}, m.Release())
}

func TestToggleLayer(t *testing.T) {
	c := newClock()
	l := NewToggleLayer(c)

	l.OnKeyDown()
	c.Advance(100 * time.Millisecond)
	assert.False(t, l.OnKeyUp(), "short press")
	assert.False(t, l.Active())
	assert.False(t, l.WasJustToggled())

	l.OnKeyDown()
	c.Advance(300 * time.Millisecond)
	l.OnKeyDown() // auto-repeat keeps the start time
	c.Advance(300 * time.Millisecond)
	assert.True(t, l.OnKeyUp())
	assert.True(t, l.Active())
	assert.True(t, l.WasJustToggled())
	assert.False(t, l.WasJustToggled(), "one-shot")

	l.OnKeyDown()
	c.Advance(DefaultToggleThreshold)
	assert.True(t, l.OnKeyUp())
	assert.False(t, l.Active())
}

func TestToggleLayer_Programmatic(t *testing.T) {
	l := NewToggleLayer(newClock())
	l.Activate()
	assert.True(t, l.Active())
	l.Deactivate()
	assert.False(t, l.Active())

	l.Activate()
	l.OnKeyDown()
	l.Reset()
	assert.False(t, l.Active())
	assert.False(t, l.Pressed())
	assert.False(t, l.OnKeyUp())
}
