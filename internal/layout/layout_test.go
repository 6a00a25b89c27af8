package layout

import (
	"testing"

	"symlayer/internal/keys"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReference(t *testing.T) {
	tests := []struct {
		name string
		code keys.Code
		meta keys.Meta
		want rune
	}{
		{"letter", keys.CodeE, 0, 'e'},
		{"shift letter", keys.CodeE, keys.MetaShift, 'E'},
		{"caps letter", keys.CodeQ, keys.MetaCapsLock, 'Q'},
		{"shift cancels caps", keys.CodeQ, keys.MetaShift | keys.MetaCapsLock, 'q'},
		{"digit", keys.Code7, 0, '7'},
		{"shift digit", keys.Code1, keys.MetaShift, '!'},
		{"alt letter", keys.CodeW, keys.MetaAlt, '1'},
		{"alt unmapped", keys.CodeSpace, keys.MetaAlt, 0},
		{"space", keys.CodeSpace, 0, ' '},
		{"enter", keys.CodeEnter, keys.MetaShift, '\n'},
		{"shift period", keys.CodePeriod, keys.MetaShift, '>'},
		{"ctrl ignored", keys.CodeA, keys.MetaCtrl, 'a'},
		{"modifier key", keys.CodeShiftLeft, 0, 0},
		{"unknown code", keys.Code(9999), 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, string(tt.want), string(Reference(tt.code, tt.meta)))
		})
	}
}

func TestReference_IsResolver(t *testing.T) {
	var r keys.Resolver = Reference
	assert.Equal(t, 'a', r.Resolve(keys.CodeA, 0))
}

func TestSymTableFor(t *testing.T) {
	titan := SymTableFor(keys.DeviceTitan)
	mp01 := SymTableFor(keys.DeviceMP01)

	m, ok := titan.Lookup(keys.CodeW)
	require.True(t, ok)
	assert.Equal(t, SendKey, m.Action.Kind)
	assert.Equal(t, keys.CodeDpadUp, m.Action.Code)

	m, ok = titan.Lookup(keys.CodeE)
	require.True(t, ok)
	assert.Equal(t, "€", m.Action.Text(false))

	m, ok = mp01.Lookup(keys.CodeE)
	require.True(t, ok)
	assert.Equal(t, keys.CodePageDown, m.Action.Code)

	m, ok = mp01.Lookup(keys.CodeP)
	require.True(t, ok)
	assert.Equal(t, "€", m.Action.Text(false))
	assert.Equal(t, "£", m.Action.Text(true))

	_, ok = titan.Lookup(keys.CodeR)
	assert.False(t, ok)
	_, ok = titan.Lookup(keys.CodeEnter)
	assert.False(t, ok)

	codes := titan.Codes()
	require.Len(t, codes, len(titan))
	for i := 1; i < len(codes); i++ {
		assert.Less(t, codes[i-1], codes[i])
	}
}

func TestSymLabel(t *testing.T) {
	assert.Equal(t, "PgUp", SymLabel(keys.CodeI, keys.DeviceTitan))
	assert.Equal(t, "(", SymLabel(keys.CodeI, keys.DeviceMP01))
	assert.Equal(t, "⇧", SymLabel(keys.CodeShiftRight, keys.DeviceTitan))
	assert.Equal(t, "⌫", SymLabel(keys.CodeDel, keys.DeviceTitan))
	assert.Equal(t, "R", SymLabel(keys.CodeR, keys.DeviceTitan))
	assert.Equal(t, "", SymLabel(keys.CodeSpace, keys.DeviceTitan))
}

func TestCyrillic(t *testing.T) {
	r, ok := Cyrillic(keys.CodeQ, false)
	require.True(t, ok)
	assert.Equal(t, 'й', r)

	r, ok = Cyrillic(keys.CodeQ, true)
	require.True(t, ok)
	assert.Equal(t, 'Й', r)

	r, ok = Cyrillic(keys.CodeSlash, true)
	require.True(t, ok)
	assert.Equal(t, '.', r)

	_, ok = Cyrillic(keys.CodeComma, false)
	assert.False(t, ok)

	r, ok = CyrillicAlt(keys.CodeK, true)
	require.True(t, ok)
	assert.Equal(t, 'Ё', r)

	_, ok = CyrillicAlt(keys.CodeQ, false)
	assert.False(t, ok)
}

func TestAltChar(t *testing.T) {
	r, ok := AltChar(keys.CodeEmojiPicker)
	require.True(t, ok)
	assert.Equal(t, '0', r)

	_, ok = AltChar(keys.CodeSpace)
	assert.False(t, ok)
}
