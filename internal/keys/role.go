package keys

import (
	"errors"
	"strings"
)

// ErrUnknownRole is returned by ParseRole for names outside the role set.
var ErrUnknownRole = errors.New("unknown role")

// Role is a symbolic assignment for a triple-modifier gesture (tap, long
// press or hold).
type Role string

const (
	RoleNone   Role = "none"
	RolePeriod Role = "period"
	RoleVoice  Role = "voice"
	RoleCtrl   Role = "ctrl"
	RoleEmoji  Role = "emoji"
	RoleZero   Role = "0"
	RoleMeta   Role = "meta"
)

var roleAliases = map[string]Role{
	"":             RoleNone,
	"none":         RoleNone,
	"period":       RolePeriod,
	"voice":        RoleVoice,
	"voice-assist": RoleVoice,
	"ctrl":         RoleCtrl,
	"emoji":        RoleEmoji,
	"emoji-picker": RoleEmoji,
	"0":            RoleZero,
	"zero":         RoleZero,
	"meta":         RoleMeta,
}

// ParseRole parses a role name, accepting the long aliases
// ("voice-assist", "emoji-picker").
func ParseRole(s string) (Role, error) {
	r, ok := roleAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return RoleNone, &UnknownNameError{Kind: "role", Name: s}
	}
	return r, nil
}

// Code returns the key code a role stands for. RoleNone maps to CodeUnknown.
func (r Role) Code() Code {
	switch r {
	case RolePeriod:
		return CodePeriod
	case RoleVoice:
		return CodeVoiceAssist
	case RoleCtrl:
		return CodeCtrlRight
	case RoleEmoji:
		return CodePictSymbols
	case RoleZero:
		return Code0
	case RoleMeta:
		return CodeMetaLeft
	default:
		return CodeUnknown
	}
}

// Roles lists the closed set of role names.
func Roles() []Role {
	return []Role{RoleNone, RolePeriod, RoleVoice, RoleCtrl, RoleEmoji, RoleZero, RoleMeta}
}
