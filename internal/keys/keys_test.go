package keys

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCode(t *testing.T) {
	tests := []struct {
		in   string
		want Code
	}{
		{"E", CodeE},
		{"e", CodeE},
		{"KEYCODE_E", CodeE},
		{" shift_left ", CodeShiftLeft},
		{"33", CodeE},
		{"999", Code(999)},
		{"EMOJI_PICKER", CodeEmojiPicker},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "NOPE", "-3", "0x21"} {
		_, err := ParseCode(bad)
		assert.ErrorIs(t, err, ErrUnknownKey, bad)
		assert.NotErrorIs(t, err, ErrUnknownRole, bad)
	}
}

func TestCodeNamesRoundTrip(t *testing.T) {
	for _, c := range Names() {
		got, err := ParseCode(c.String())
		require.NoError(t, err, c.String())
		assert.Equal(t, c, got)
	}
	assert.Equal(t, "12345", Code(12345).String())
}

func TestMeta(t *testing.T) {
	m := MetaShift | MetaCtrl
	assert.True(t, m.Has(MetaShift))
	assert.False(t, m.Has(MetaShift|MetaAlt))
	assert.True(t, m.Any(MetaShift|MetaAlt))
	assert.False(t, m.Any(MetaSym))
	assert.Equal(t, "shift|ctrl", m.String())
	assert.Equal(t, "none", Meta(0).String())

	parsed, err := ParseMeta("Shift+control, sym")
	require.NoError(t, err)
	assert.Equal(t, MetaShift|MetaCtrl|MetaSym, parsed)

	parsed, err = ParseMeta(m.String())
	require.NoError(t, err)
	assert.Equal(t, m, parsed)

	parsed, err = ParseMeta("none")
	require.NoError(t, err)
	assert.Zero(t, parsed)

	_, err = ParseMeta("shift|hyper")
	var unknown *UnknownNameError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "modifier", unknown.Kind)
}

func TestNewEventPrinting(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	ev := NewEvent(CodeE, Down, MetaShift, now)
	assert.True(t, ev.Printing)
	assert.True(t, ev.FirstPress())
	assert.Equal(t, now, ev.Time)

	ev.Repeat = 1
	assert.False(t, ev.FirstPress())

	moved := ev.WithCode(CodeSpace)
	assert.False(t, moved.Printing)
	assert.Equal(t, 1, moved.Repeat)
	assert.Equal(t, CodeE, ev.Code, "WithCode copies")

	assert.False(t, NewEvent(CodeE, Up, 0, now).FirstPress())
	assert.False(t, NewEvent(CodeEnter, Down, 0, now).Printing)
	assert.True(t, NewEvent(CodeEmojiPicker, Down, 0, now).Printing)
}

func TestClassifiers(t *testing.T) {
	assert.True(t, IsLetter(CodeZ))
	assert.False(t, IsLetter(Code0))
	assert.True(t, IsDigit(Code9))
	assert.True(t, IsModifierKey(CodeSym))
	assert.False(t, IsModifierKey(CodeE))
	assert.True(t, IsShift(CodeShiftRight))
	assert.True(t, IsAlt(CodeAltLeft))
	assert.True(t, IsDelete(CodeForwardDel))
	assert.False(t, IsDelete(CodeEscape))
}

func TestParseDeviceClass(t *testing.T) {
	for in, want := range map[string]DeviceClass{"": DeviceTitan, "Titan": DeviceTitan, "mp01": DeviceMP01} {
		got, err := ParseDeviceClass(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseDeviceClass("nokia")
	assert.Error(t, err)
	assert.Equal(t, "mp01", DeviceMP01.String())
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
		code Code
	}{
		{"", RoleNone, CodeUnknown},
		{"period", RolePeriod, CodePeriod},
		{"voice-assist", RoleVoice, CodeVoiceAssist},
		{"CTRL", RoleCtrl, CodeCtrlRight},
		{"emoji-picker", RoleEmoji, CodePictSymbols},
		{"zero", RoleZero, Code0},
		{"meta", RoleMeta, CodeMetaLeft},
	}
	for _, tt := range tests {
		got, err := ParseRole(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.code, got.Code())
	}

	_, err := ParseRole("launch")
	assert.ErrorIs(t, err, ErrUnknownRole)
	assert.NotErrorIs(t, err, ErrUnknownKey)
	assert.Len(t, Roles(), 7)
}

func TestResolver(t *testing.T) {
	var nilResolver Resolver
	assert.Zero(t, nilResolver.Resolve(CodeA, 0))

	r := Resolver(func(c Code, m Meta) rune {
		if m.Has(MetaShift) {
			return 'A'
		}
		return 'a'
	})
	assert.Equal(t, 'A', r.Resolve(CodeA, MetaShift))
	assert.Equal(t, 'a', r.Resolve(CodeA, 0))
}
