package trace

import (
	"fmt"
	"log/slog"

	"symlayer/internal/clock"
	"symlayer/internal/config"
	"symlayer/internal/keys"
	"symlayer/internal/router"
)

// RecorderConfig configures a Recorder.
type RecorderConfig struct {
	Store  *Store
	Router *router.Router

	// Clock stamps lifecycle records. Defaults to the system clock.
	Clock clock.Clock

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Session is the metadata of the new session. ID is assigned by the store.
	Session Session
}

// Recorder wraps a router and stores every routed call with its outcome.
// Storage failures are logged and never change the outcome returned to the
// host.
type Recorder struct {
	store   *Store
	router  *router.Router
	clock   clock.Clock
	logger  *slog.Logger
	session *Session
	seq     int
	failed  int
}

// NewRecorder creates the session and returns a recorder for it.
func NewRecorder(cfg RecorderConfig) (*Recorder, error) {
	if cfg.Store == nil || cfg.Router == nil {
		return nil, fmt.Errorf("recorder needs a store and a router")
	}
	c := cfg.Clock
	if c == nil {
		c = clock.System{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	meta := cfg.Session
	if meta.StartedAt.IsZero() {
		meta.StartedAt = c.Now()
	}
	sess, err := cfg.Store.CreateSession(meta)
	if err != nil {
		return nil, err
	}
	logger.Info("trace session started", "session", sess.ID, "source", sess.Source)

	return &Recorder{
		store:   cfg.Store,
		router:  cfg.Router,
		clock:   c,
		logger:  logger,
		session: sess,
	}, nil
}

// Session returns the session being recorded.
func (rec *Recorder) Session() *Session {
	return rec.session
}

// Router returns the wrapped router.
func (rec *Recorder) Router() *router.Router {
	return rec.router
}

// Failures returns the number of records that could not be stored.
func (rec *Recorder) Failures() int {
	return rec.failed
}

// Process routes ev and records it.
func (rec *Recorder) Process(ev keys.Event) router.Outcome {
	o := rec.router.Process(ev)
	rec.append(Record{Kind: KindKey, Time: ev.Time, Event: ev, Outcome: o})
	return o
}

// StartInput forwards to Router.StartInput and records it.
func (rec *Recorder) StartInput(f router.Field) router.Outcome {
	o := rec.router.StartInput(f)
	rec.append(Record{Kind: KindStartInput, Time: rec.clock.Now(), Field: f, Outcome: o})
	return o
}

// FinishInput forwards to Router.FinishInput and records it.
func (rec *Recorder) FinishInput() router.Outcome {
	o := rec.router.FinishInput()
	rec.append(Record{Kind: KindFinishInput, Time: rec.clock.Now(), Outcome: o})
	return o
}

// SelectionChanged forwards to Router.SelectionChanged and records it.
func (rec *Recorder) SelectionChanged(textBefore string) router.Outcome {
	o := rec.router.SelectionChanged(textBefore)
	rec.append(Record{
		Kind:    KindSelection,
		Time:    rec.clock.Now(),
		Field:   router.Field{TextBeforeCursor: textBefore},
		Outcome: o,
	})
	return o
}

// Reset forwards to Router.Reset and records it.
func (rec *Recorder) Reset() router.Outcome {
	o := rec.router.Reset()
	rec.append(Record{Kind: KindReset, Time: rec.clock.Now(), Outcome: o})
	return o
}

// ApplyConfig applies cfg to the router and records a snapshot of it, so a
// replay switches configuration at the same point. A rejected configuration
// is not recorded.
func (rec *Recorder) ApplyConfig(cfg *config.Config) error {
	snapshot, err := cfg.EncodeTOML()
	if err != nil {
		return err
	}
	if err := rec.router.ApplyConfig(cfg); err != nil {
		return err
	}
	rec.append(Record{Kind: KindConfig, Time: rec.clock.Now(), Config: snapshot})
	return nil
}

func (rec *Recorder) append(r Record) {
	r.Seq = rec.seq
	rec.seq++
	if err := rec.store.AppendEvent(rec.session.ID, r); err != nil {
		rec.failed++
		// First failure, then every hundredth.
		if rec.failed == 1 || rec.failed%100 == 0 {
			rec.logger.Warn("trace record dropped", "session", rec.session.ID, "seq", r.Seq, "failures", rec.failed, "error", err)
		}
	}
}

// Close ends the session.
func (rec *Recorder) Close() error {
	if err := rec.store.EndSession(rec.session.ID, rec.clock.Now()); err != nil {
		return err
	}
	rec.logger.Info("trace session ended", "session", rec.session.ID, "records", rec.seq, "failures", rec.failed)
	return nil
}
