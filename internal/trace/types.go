// Package trace records routed key events to SQLite and replays them
// against a fresh router. It also runs YAML scenario scripts, which is how
// gesture timing bugs are reproduced without a keyboard attached.
package trace

import (
	"fmt"
	"time"

	"symlayer/internal/keys"
	"symlayer/internal/router"
)

// Kind identifies what a record captures.
type Kind string

const (
	// KindKey is a key event passed to Router.Process.
	KindKey Kind = "key"
	// KindStartInput is a Router.StartInput call.
	KindStartInput Kind = "start-input"
	// KindFinishInput is a Router.FinishInput call.
	KindFinishInput Kind = "finish-input"
	// KindSelection is a Router.SelectionChanged call.
	KindSelection Kind = "selection"
	// KindReset is a Router.Reset call.
	KindReset Kind = "reset"
	// KindConfig is a configuration applied during the session.
	KindConfig Kind = "config"
)

// Session describes one recording.
type Session struct {
	ID        string
	StartedAt time.Time
	EndedAt   *time.Time

	// Source names the host that produced the events ("ibus", "simulate").
	Source string

	// Config is the TOML configuration snapshot the router started with.
	Config []byte

	Note string

	// Events is the number of stored records. Filled by Sessions and
	// Session.
	Events int
}

// Record is one routed call and its outcome.
type Record struct {
	Seq  int
	Kind Kind
	Time time.Time

	// Event is set for KindKey.
	Event keys.Event

	// Field is set for KindStartInput. For KindSelection only
	// Field.TextBeforeCursor is used.
	Field router.Field

	// Config is the TOML snapshot applied by a KindConfig record.
	Config []byte

	Outcome router.Outcome
}

func (r Record) String() string {
	switch r.Kind {
	case KindKey:
		return fmt.Sprintf("#%d %s %s r%d: %s", r.Seq, r.Event.Code, r.Event.Action, r.Event.Repeat, r.Outcome)
	case KindStartInput:
		return fmt.Sprintf("#%d start-input(%s): %s", r.Seq, r.Field.Type, r.Outcome)
	case KindConfig:
		return fmt.Sprintf("#%d config (%d bytes)", r.Seq, len(r.Config))
	default:
		return fmt.Sprintf("#%d %s: %s", r.Seq, r.Kind, r.Outcome)
	}
}

// Mismatch is a replayed record whose outcome differs from the recording,
// or a configuration record that could not be applied (Err set).
type Mismatch struct {
	Record Record
	Got    router.Outcome
	Err    error
}

func (m Mismatch) String() string {
	if m.Err != nil {
		return fmt.Sprintf("%s, replay failed: %v", m.Record, m.Err)
	}
	return fmt.Sprintf("%s, replay gave %s", m.Record, m.Got)
}
