package router

import (
	"fmt"
	"strings"

	"symlayer/internal/keys"
)

// ActionKind identifies an output action.
type ActionKind uint8

const (
	// ActionCommit commits Action.Text at the cursor.
	ActionCommit ActionKind = iota
	// ActionDelete deletes Action.Count characters before the cursor.
	ActionDelete
	// ActionForward injects a synthetic key event into the focused
	// application.
	ActionForward
	// ActionUI requests a host UI action by name.
	ActionUI
)

func (k ActionKind) String() string {
	switch k {
	case ActionCommit:
		return "commit"
	case ActionDelete:
		return "delete"
	case ActionForward:
		return "forward"
	case ActionUI:
		return "ui"
	default:
		return fmt.Sprintf("action(%d)", uint8(k))
	}
}

// UIAction names a host-side action. The router treats it as an opaque tag.
type UIAction string

const (
	UIEmojiPicker UIAction = "emoji-picker"
	UIClipboard   UIAction = "clipboard"
	UIVoiceInput  UIAction = "voice-input"
	UIHaptic      UIAction = "haptic"
	UILaunchHome  UIAction = "launch-home"
	UILaunchEmail UIAction = "launch-email"
	UIAssist      UIAction = "assist"
	UIContacts    UIAction = "launch-contacts"
	UIBrowser     UIAction = "launch-browser"
	UISettings    UIAction = "launch-settings"
	UIMusic       UIAction = "launch-music"
	UICalendar    UIAction = "launch-calendar"
)

// Action is one side effect requested from the host.
type Action struct {
	Kind ActionKind `json:"kind" yaml:"kind"`

	Text  string `json:"text,omitempty" yaml:"text,omitempty"`
	Count int    `json:"count,omitempty" yaml:"count,omitempty"`

	Code      keys.Code   `json:"code,omitempty" yaml:"code,omitempty"`
	Meta      keys.Meta   `json:"meta,omitempty" yaml:"meta,omitempty"`
	KeyAction keys.Action `json:"key_action,omitempty" yaml:"key_action,omitempty"`

	UI UIAction `json:"ui,omitempty" yaml:"ui,omitempty"`
}

// Commit returns a commit action.
func Commit(s string) Action {
	return Action{Kind: ActionCommit, Text: s}
}

// DeleteBefore returns a delete action.
func DeleteBefore(n int) Action {
	return Action{Kind: ActionDelete, Count: n}
}

// Forward returns a key injection action.
func Forward(code keys.Code, meta keys.Meta, action keys.Action) Action {
	return Action{Kind: ActionForward, Code: code, Meta: meta, KeyAction: action}
}

// UI returns a UI action.
func UI(name UIAction) Action {
	return Action{Kind: ActionUI, UI: name}
}

func (a Action) String() string {
	switch a.Kind {
	case ActionCommit:
		return fmt.Sprintf("commit(%q)", a.Text)
	case ActionDelete:
		return fmt.Sprintf("delete(%d)", a.Count)
	case ActionForward:
		return fmt.Sprintf("forward(%s %s %s)", a.Code, a.KeyAction, a.Meta)
	case ActionUI:
		return fmt.Sprintf("ui(%s)", a.UI)
	}
	return a.Kind.String()
}

// Outcome is the result of routing one event.
//
// Handled=false is the NotHandled outcome: the host falls back to its
// default handling of the raw event. Handled with no text or key actions is
// the Suppress outcome.
type Outcome struct {
	Handled bool     `json:"handled" yaml:"handled"`
	Actions []Action `json:"actions,omitempty" yaml:"actions,omitempty"`

	// StatusChanged is set when the modifier indicator should be redrawn.
	StatusChanged bool   `json:"status_changed,omitempty" yaml:"status_changed,omitempty"`
	Status        Status `json:"status" yaml:"status"`
}

// Text returns the concatenation of every committed string.
func (o Outcome) Text() string {
	var b strings.Builder
	for _, a := range o.Actions {
		if a.Kind == ActionCommit {
			b.WriteString(a.Text)
		}
	}
	return b.String()
}

// Suppressed reports whether the event was swallowed without any text or
// key output.
func (o Outcome) Suppressed() bool {
	if !o.Handled {
		return false
	}
	for _, a := range o.Actions {
		if a.Kind != ActionUI {
			return false
		}
	}
	return true
}

// Forwarded returns the forward actions.
func (o Outcome) Forwarded() []Action {
	var out []Action
	for _, a := range o.Actions {
		if a.Kind == ActionForward {
			out = append(out, a)
		}
	}
	return out
}

// HasUI reports whether the outcome requests the given UI action.
func (o Outcome) HasUI(name UIAction) bool {
	for _, a := range o.Actions {
		if a.Kind == ActionUI && a.UI == name {
			return true
		}
	}
	return false
}

func (o Outcome) String() string {
	if !o.Handled {
		return "not-handled"
	}
	if len(o.Actions) == 0 {
		return "suppress"
	}
	parts := make([]string, len(o.Actions))
	for i, a := range o.Actions {
		parts[i] = a.String()
	}
	return strings.Join(parts, " ")
}
