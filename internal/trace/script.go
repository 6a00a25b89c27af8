package trace

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"symlayer/internal/clock"
	"symlayer/internal/config"
	"symlayer/internal/keys"
	"symlayer/internal/router"
)

// Script timing defaults.
const (
	DefaultGap     = time.Second
	DefaultTapHold = 50 * time.Millisecond
	DefaultHold    = time.Second
	LongPressAfter = 500 * time.Millisecond
	repeatStartsAt = 400 * time.Millisecond
	repeatInterval = 50 * time.Millisecond
)

// Script is a YAML scenario:
//
//	name: accent cycle
//	device: titan
//	field: text
//	config:
//	  multipress:
//	    first_level_template: fr
//	steps:
//	  - key: E
//	  - {key: E, after_ms: 100}
//	expect: "é"
type Script struct {
	Name string `yaml:"name"`

	// Device overrides keys.device_class of the configuration.
	Device string `yaml:"device"`

	// Field is the input field type passed to StartInput ("text", "password", ...).
	Field string `yaml:"field"`

	// Text seeds the text before the cursor.
	Text string `yaml:"text"`

	// Config is decoded on top of the default configuration.
	Config yaml.Node `yaml:"config"`

	Steps []Step `yaml:"steps"`

	// Expect, when set, is compared with the resulting editor text.
	Expect *string `yaml:"expect"`
}

// Step is one scripted key gesture.
type Step struct {
	// Key is a key name ("E", "SHIFT_LEFT") or an Android code.
	Key string `yaml:"key"`

	// Action is tap (default), down, up or hold.
	Action string `yaml:"action"`

	// AfterMs is the pause before the step. Defaults to one second.
	AfterMs *int `yaml:"after_ms"`

	// HoldMs is how long tap and hold keep the key down.
	HoldMs int `yaml:"hold_ms"`

	// Repeats is the number of auto-repeat presses a hold generates.
	// Defaults to one every 50ms after an initial 400ms delay.
	Repeats *int `yaml:"repeats"`

	// Meta is the platform modifier state, e.g. "shift" or "ctrl|alt".
	Meta string `yaml:"meta"`

	DeviceID int `yaml:"device_id"`
}

// ErrExpectation is returned by Run when the resulting text differs from
// Script.Expect.
var ErrExpectation = errors.New("unexpected result")

// ParseScript decodes a YAML scenario.
func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	if len(s.Steps) == 0 {
		return nil, fmt.Errorf("script %q has no steps", s.Name)
	}
	return &s, nil
}

// LoadScript reads a YAML scenario file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	s, err := ParseScript(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// BuildConfig returns the default configuration with the script's overrides
// applied and validated.
func (s *Script) BuildConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if !s.Config.IsZero() {
		if err := s.Config.Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode script config: %w", err)
		}
	}
	if s.Device != "" {
		cfg.Keys.DeviceClass = s.Device
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Events expands the steps into timed key events starting at start.
func (s *Script) Events(start time.Time) ([]keys.Event, error) {
	var out []keys.Event
	t := start
	for i, st := range s.Steps {
		code, err := keys.ParseCode(st.Key)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		meta, err := keys.ParseMeta(st.Meta)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}

		gap := DefaultGap
		if st.AfterMs != nil {
			gap = time.Duration(*st.AfterMs) * time.Millisecond
		}
		t = t.Add(gap)

		ev := func(a keys.Action, at time.Time) keys.Event {
			e := keys.NewEvent(code, a, meta, at)
			e.DeviceID = st.DeviceID
			return e
		}

		switch strings.ToLower(st.Action) {
		case "", "tap":
			hold := DefaultTapHold
			if st.HoldMs > 0 {
				hold = time.Duration(st.HoldMs) * time.Millisecond
			}
			out = append(out, ev(keys.Down, t))
			t = t.Add(hold)
			out = append(out, ev(keys.Up, t))
		case "down":
			out = append(out, ev(keys.Down, t))
		case "up":
			out = append(out, ev(keys.Up, t))
		case "hold":
			hold := DefaultHold
			if st.HoldMs > 0 {
				hold = time.Duration(st.HoldMs) * time.Millisecond
			}
			out = append(out, ev(keys.Down, t))
			for n, at := range repeatTimes(hold, st.Repeats) {
				e := ev(keys.Down, t.Add(at))
				e.Repeat = n + 1
				e.LongPress = at >= LongPressAfter
				out = append(out, e)
			}
			t = t.Add(hold)
			out = append(out, ev(keys.Up, t))
		default:
			return nil, fmt.Errorf("step %d: unknown action %q", i+1, st.Action)
		}
	}
	return out, nil
}

// repeatTimes returns the offsets of auto-repeat presses within a hold.
// An explicit count spreads the repeats evenly over the hold.
func repeatTimes(hold time.Duration, count *int) []time.Duration {
	var out []time.Duration
	if count != nil {
		n := *count
		for i := 1; i <= n; i++ {
			out = append(out, hold*time.Duration(i)/time.Duration(n+1))
		}
		return out
	}
	for at := repeatStartsAt; at < hold; at += repeatInterval {
		out = append(out, at)
	}
	return out
}

// Target receives scripted input. Both *router.Router and *Recorder
// satisfy it.
type Target interface {
	Process(keys.Event) router.Outcome
	StartInput(router.Field) router.Outcome
}

// Result is the outcome of a script run.
type Result struct {
	// Text is the editor content after the run.
	Text    string
	Records []Record
}

// Run starts input in the script's field, then feeds every event to target
// with clk moved to the event time. It returns ErrExpectation, along with
// the result, when Script.Expect is set and does not match.
func Run(s *Script, target Target, clk *clock.Manual) (*Result, error) {
	events, err := s.Events(clk.Now())
	if err != nil {
		return nil, err
	}

	ed := NewEditor(nil)
	ed.Set(s.Text)
	res := &Result{}

	field := router.Field{Type: router.ParseFieldType(s.Field), TextBeforeCursor: s.Text}
	o := target.StartInput(field)
	res.Records = append(res.Records, Record{Seq: 0, Kind: KindStartInput, Time: clk.Now(), Field: field, Outcome: o})

	for i, ev := range events {
		clk.Set(ev.Time)
		o := target.Process(ev)
		ed.Apply(ev, o)
		res.Records = append(res.Records, Record{Seq: i + 1, Kind: KindKey, Time: ev.Time, Event: ev, Outcome: o})
	}
	res.Text = ed.String()

	if s.Expect != nil && *s.Expect != res.Text {
		return res, fmt.Errorf("%w: want %q, got %q", ErrExpectation, *s.Expect, res.Text)
	}
	return res, nil
}
