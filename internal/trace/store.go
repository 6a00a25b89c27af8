package trace

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"symlayer/internal/keys"
	"symlayer/internal/router"
)

// ErrSessionNotFound is returned when a session ID does not exist.
var ErrSessionNotFound = errors.New("trace session not found")

// schemaVersion is stored in PRAGMA user_version.
const schemaVersion = 2

// migrations upgrade a database from the version they are indexed by.
var migrations = map[int]string{
	1: `ALTER TABLE events ADD COLUMN config BLOB;`,
}

// Schema for the trace database.
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id          TEXT PRIMARY KEY,
    started_ns  INTEGER NOT NULL,
    ended_ns    INTEGER,
    source      TEXT NOT NULL,
    config      BLOB,
    note        TEXT
);

CREATE TABLE IF NOT EXISTS events (
    session_id  TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    seq         INTEGER NOT NULL,
    kind        TEXT NOT NULL,
    time_ns     INTEGER NOT NULL,
    code        INTEGER NOT NULL DEFAULT 0,
    action      INTEGER NOT NULL DEFAULT 0,
    repeat      INTEGER NOT NULL DEFAULT 0,
    long_press  INTEGER NOT NULL DEFAULT 0,
    meta        INTEGER NOT NULL DEFAULT 0,
    device_id   INTEGER NOT NULL DEFAULT 0,
    field_type  TEXT,
    field_text  TEXT,
    handled     INTEGER NOT NULL,
    actions     TEXT,
    status      TEXT,
    config      BLOB,
    PRIMARY KEY (session_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_ns);
`

// Store is the SQLite trace store.
type Store struct {
	db *sql.DB
}

// Open opens or creates the trace database at path.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		db.Close()
		return nil, fmt.Errorf("read schema version: %w", err)
	}
	if version > schemaVersion {
		db.Close()
		return nil, fmt.Errorf("trace database has schema version %d, newest supported is %d", version, schemaVersion)
	}

	for v := version; v > 0 && v < schemaVersion; v++ {
		if _, err := db.Exec(migrations[v]); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate schema from version %d: %w", v, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		db.Close()
		return nil, fmt.Errorf("set schema version: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// CreateSession stores a new session and returns it with a fresh ID.
// A zero StartedAt is set to the current time.
func (s *Store) CreateSession(meta Session) (*Session, error) {
	meta.ID = uuid.NewString()
	if meta.StartedAt.IsZero() {
		meta.StartedAt = time.Now()
	}
	meta.EndedAt = nil
	meta.Events = 0

	_, err := s.db.Exec(`
		INSERT INTO sessions (id, started_ns, source, config, note)
		VALUES (?, ?, ?, ?, ?)`,
		meta.ID, meta.StartedAt.UnixNano(), meta.Source, meta.Config, meta.Note,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return &meta, nil
}

// EndSession marks a session as finished.
func (s *Store) EndSession(id string, at time.Time) error {
	res, err := s.db.Exec("UPDATE sessions SET ended_ns = ? WHERE id = ?", at.UnixNano(), id)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return requireRow(res, id)
}

// DeleteSession removes a session and its records.
func (s *Store) DeleteSession(id string) error {
	res, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return requireRow(res, id)
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}

// AppendEvent stores one record of a session. rec.Seq must be unique within
// the session.
func (s *Store) AppendEvent(sessionID string, rec Record) error {
	actions, err := json.Marshal(rec.Outcome.Actions)
	if err != nil {
		return fmt.Errorf("encode actions: %w", err)
	}
	status, err := json.Marshal(rec.Outcome.Status)
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}

	var fieldType, fieldText sql.NullString
	var cfg []byte
	switch rec.Kind {
	case KindStartInput:
		fieldType = sql.NullString{String: rec.Field.Type.String(), Valid: true}
		fieldText = sql.NullString{String: rec.Field.TextBeforeCursor, Valid: true}
	case KindSelection:
		fieldText = sql.NullString{String: rec.Field.TextBeforeCursor, Valid: true}
	case KindConfig:
		cfg = rec.Config
	}

	ev := rec.Event
	_, err = s.db.Exec(`
		INSERT INTO events (session_id, seq, kind, time_ns, code, action, repeat, long_press, meta, device_id,
		                    field_type, field_text, handled, actions, status, config)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, rec.Seq, string(rec.Kind), rec.Time.UnixNano(),
		int32(ev.Code), int(ev.Action), ev.Repeat, ev.LongPress, uint32(ev.Meta), ev.DeviceID,
		fieldType, fieldText, rec.Outcome.Handled, string(actions), string(status), cfg,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func isForeignKeyError(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}

// Sessions returns every session, newest first.
func (s *Store) Sessions() ([]Session, error) {
	rows, err := s.db.Query(`
		SELECT s.id, s.started_ns, s.ended_ns, s.source, s.config, s.note, COUNT(e.seq)
		FROM sessions s LEFT JOIN events e ON e.session_id = s.id
		GROUP BY s.id
		ORDER BY s.started_ns DESC`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sess)
	}
	return out, rows.Err()
}

// Session returns one session by ID.
func (s *Store) Session(id string) (*Session, error) {
	row := s.db.QueryRow(`
		SELECT s.id, s.started_ns, s.ended_ns, s.source, s.config, s.note, COUNT(e.seq)
		FROM sessions s LEFT JOIN events e ON e.session_id = s.id
		WHERE s.id = ?
		GROUP BY s.id`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, err
}

// FindSession resolves a full ID or a unique ID prefix.
func (s *Store) FindSession(prefix string) (*Session, error) {
	rows, err := s.db.Query("SELECT id FROM sessions WHERE id LIKE ? || '%' LIMIT 2", prefix)
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()

	switch len(ids) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, prefix)
	case 1:
		return s.Session(ids[0])
	default:
		return nil, fmt.Errorf("session prefix %q is ambiguous", prefix)
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	var sess Session
	var started int64
	var ended sql.NullInt64
	var note sql.NullString
	if err := row.Scan(&sess.ID, &started, &ended, &sess.Source, &sess.Config, &note, &sess.Events); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	sess.StartedAt = time.Unix(0, started)
	if ended.Valid {
		t := time.Unix(0, ended.Int64)
		sess.EndedAt = &t
	}
	sess.Note = note.String
	return &sess, nil
}

// Events returns the records of a session in sequence order.
func (s *Store) Events(sessionID string) ([]Record, error) {
	if _, err := s.Session(sessionID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT seq, kind, time_ns, code, action, repeat, long_press, meta, device_id,
		       field_type, field_text, handled, actions, status, config
		FROM events WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var kind string
		var timeNs int64
		var code int32
		var action int
		var meta uint32
		var fieldType, fieldText, actions, status sql.NullString

		if err := rows.Scan(&rec.Seq, &kind, &timeNs, &code, &action, &rec.Event.Repeat, &rec.Event.LongPress,
			&meta, &rec.Event.DeviceID, &fieldType, &fieldText, &rec.Outcome.Handled, &actions, &status, &rec.Config); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}

		rec.Kind = Kind(kind)
		rec.Time = time.Unix(0, timeNs)
		if rec.Kind == KindKey {
			ev := keys.NewEvent(keys.Code(code), keys.Action(action), keys.Meta(meta), rec.Time)
			ev.Repeat = rec.Event.Repeat
			ev.LongPress = rec.Event.LongPress
			ev.DeviceID = rec.Event.DeviceID
			rec.Event = ev
		} else {
			rec.Event = keys.Event{}
		}
		if fieldType.Valid {
			rec.Field.Type = router.ParseFieldType(fieldType.String)
		}
		rec.Field.TextBeforeCursor = fieldText.String

		if actions.Valid && actions.String != "" && actions.String != "null" {
			if err := json.Unmarshal([]byte(actions.String), &rec.Outcome.Actions); err != nil {
				return nil, fmt.Errorf("decode actions of #%d: %w", rec.Seq, err)
			}
		}
		if status.Valid && status.String != "" {
			if err := json.Unmarshal([]byte(status.String), &rec.Outcome.Status); err != nil {
				return nil, fmt.Errorf("decode status of #%d: %w", rec.Seq, err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
