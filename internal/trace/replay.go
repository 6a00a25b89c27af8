package trace

import (
	"log/slog"
	"slices"

	"symlayer/internal/clock"
	"symlayer/internal/config"
	"symlayer/internal/layout"
	"symlayer/internal/router"
)

// NewRouter builds a router for offline use (replay and scripts) from cfg,
// resolving characters with the reference layout.
func NewRouter(cfg *config.Config, clk clock.Clock, logger *slog.Logger) (*router.Router, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	r, err := router.New(router.Config{
		Resolver: layout.Reference,
		Clock:    clk,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	if err := r.ApplyConfig(cfg); err != nil {
		return nil, err
	}
	return r, nil
}

// SessionConfig decodes the configuration snapshot of a session. Sessions
// without a snapshot use the defaults.
func SessionConfig(s *Session) (*config.Config, error) {
	if len(s.Config) == 0 {
		return config.DefaultConfig(), nil
	}
	return config.DecodeTOML(s.Config)
}

// Replay feeds records to r in order, moving clk to each record's time, and
// returns the records whose outcome differs from the recorded one.
// Configuration records are applied to r as they were during recording.
func Replay(records []Record, r *router.Router, clk *clock.Manual) []Mismatch {
	var out []Mismatch
	for _, rec := range records {
		clk.Set(rec.Time)

		var got router.Outcome
		switch rec.Kind {
		case KindConfig:
			if err := applySnapshot(r, rec.Config); err != nil {
				out = append(out, Mismatch{Record: rec, Err: err})
			}
			continue
		case KindKey:
			got = r.Process(rec.Event)
		case KindStartInput:
			got = r.StartInput(rec.Field)
		case KindFinishInput:
			got = r.FinishInput()
		case KindSelection:
			got = r.SelectionChanged(rec.Field.TextBeforeCursor)
		case KindReset:
			got = r.Reset()
		default:
			continue
		}

		if !sameOutcome(rec.Outcome, got) {
			out = append(out, Mismatch{Record: rec, Got: got})
		}
	}
	return out
}

func applySnapshot(r *router.Router, snapshot []byte) error {
	cfg, err := config.DecodeTOML(snapshot)
	if err != nil {
		return err
	}
	return r.ApplyConfig(cfg)
}

// sameOutcome compares what the host acts on: handled, actions and the
// status indicator.
func sameOutcome(a, b router.Outcome) bool {
	return a.Handled == b.Handled &&
		slices.Equal(a.Actions, b.Actions) &&
		a.Status == b.Status
}
