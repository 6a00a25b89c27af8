// Package keys defines the key event vocabulary shared by the modifier state
// machines, the multipress engine and the router.
//
// Key codes use the Android numbering so that tables written for the Titan
// Pocket and MP01 keyboards keep their meaning. Hosts on other platforms
// translate their native codes into this space before calling the router.
package keys

import (
	"strings"
	"time"
)

// Code is a physical key code.
type Code int32

// Action is the logical action of a key event.
type Action uint8

const (
	// Down is a key press, including simulated auto-repeat presses.
	Down Action = iota
	// Up is a key release.
	Up
)

func (a Action) String() string {
	switch a {
	case Down:
		return "down"
	case Up:
		return "up"
	default:
		return "unknown"
	}
}

// Meta is the modifier state bitset carried by an event.
type Meta uint32

const (
	MetaShift Meta = 1 << iota
	MetaAlt
	MetaCtrl
	MetaMeta // Super/Windows/Command
	MetaCapsLock
	MetaSym
)

// Has reports whether every bit in m2 is set.
func (m Meta) Has(m2 Meta) bool {
	return m&m2 == m2
}

// Any reports whether at least one bit in m2 is set.
func (m Meta) Any(m2 Meta) bool {
	return m&m2 != 0
}

// String renders the set bits, e.g. "shift|alt".
func (m Meta) String() string {
	if m == 0 {
		return "none"
	}
	var parts []string
	names := []struct {
		bit  Meta
		name string
	}{
		{MetaShift, "shift"},
		{MetaAlt, "alt"},
		{MetaCtrl, "ctrl"},
		{MetaMeta, "meta"},
		{MetaCapsLock, "capslock"},
		{MetaSym, "sym"},
	}
	for _, n := range names {
		if m&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseMeta parses a "|" or "+" separated list of modifier names.
func ParseMeta(s string) (Meta, error) {
	var m Meta
	s = strings.TrimSpace(s)
	if s == "" || s == "none" {
		return 0, nil
	}
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == '+' || r == ',' }) {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "shift":
			m |= MetaShift
		case "alt":
			m |= MetaAlt
		case "ctrl", "control":
			m |= MetaCtrl
		case "meta", "super":
			m |= MetaMeta
		case "capslock", "caps":
			m |= MetaCapsLock
		case "sym":
			m |= MetaSym
		default:
			return 0, &UnknownNameError{Kind: "modifier", Name: part}
		}
	}
	return m, nil
}

// Event is an immutable snapshot of one raw key event delivered by the host.
type Event struct {
	// Code is the physical key code.
	Code Code

	// Action is Down or Up.
	Action Action

	// Repeat is 0 for the first press and increases while the key is held.
	Repeat int

	// LongPress is set by the platform once a hold exceeds its own threshold.
	LongPress bool

	// Meta is the platform modifier state at the time of the event.
	Meta Meta

	// Time is the event timestamp. Hosts should use a monotonic source.
	Time time.Time

	// DeviceID identifies the physical keyboard.
	DeviceID int

	// Printing reports whether the key produces a visible character.
	Printing bool
}

// NewEvent builds an event with Printing derived from the code.
func NewEvent(code Code, action Action, meta Meta, t time.Time) Event {
	return Event{
		Code:     code,
		Action:   action,
		Meta:     meta,
		Time:     t,
		Printing: IsPrintingKey(code),
	}
}

// FirstPress reports whether the event is an initial press: not a repeat and
// not flagged as a long press.
func (e Event) FirstPress() bool {
	return e.Action == Down && e.Repeat == 0 && !e.LongPress
}

// WithCode returns a copy of the event with a different key code. Printing is
// recomputed for the new code.
func (e Event) WithCode(code Code) Event {
	e.Code = code
	e.Printing = IsPrintingKey(code)
	return e
}

// DeviceClass selects the physical layout family (symbol layer table and
// key labels).
type DeviceClass uint8

const (
	// DeviceTitan is the default class (Unihertz Titan family and generic keyboards).
	DeviceTitan DeviceClass = iota
	// DeviceMP01 is the Minimal Phone MP01 keyboard.
	DeviceMP01
)

func (d DeviceClass) String() string {
	switch d {
	case DeviceMP01:
		return "mp01"
	default:
		return "titan"
	}
}

// ParseDeviceClass parses "titan" or "mp01". The empty string maps to titan.
func ParseDeviceClass(s string) (DeviceClass, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "titan", "default":
		return DeviceTitan, nil
	case "mp01":
		return DeviceMP01, nil
	default:
		return DeviceTitan, &UnknownNameError{Kind: "device class", Name: s}
	}
}
