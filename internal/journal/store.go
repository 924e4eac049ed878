package journal

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id     TEXT PRIMARY KEY,
	started_at     TEXT NOT NULL,
	last_event_at  TEXT NOT NULL,
	event_count    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS events (
	id            TEXT PRIMARY KEY,
	session_id    TEXT NOT NULL,
	seq           INTEGER NOT NULL,
	event_type    TEXT NOT NULL,
	payload_json  TEXT,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id),
	UNIQUE (session_id, seq)
);
`

// #endregion schema

// #region store-struct
// Store is a Journal backed by SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion constructor

// #region record
// Record appends an event and bumps its session row in one transaction.
func (s *Store) Record(ev Event) error {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	ts := ev.At.Format(time.RFC3339Nano)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO sessions (session_id, started_at, last_event_at, event_count) VALUES (?, ?, ?, 0)
		 ON CONFLICT(session_id) DO NOTHING`,
		ev.SessionID, ts, ts,
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO events (id, session_id, seq, event_type, payload_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.SessionID, ev.Seq, ev.Type, nullIfEmpty(string(ev.Payload)), ts,
	)
	if err != nil {
		return fmt.Errorf("insert event %s/%d: %w", ev.SessionID, ev.Seq, err)
	}

	_, err = tx.Exec(
		`UPDATE sessions SET last_event_at = ?, event_count = event_count + 1 WHERE session_id = ?`,
		ts, ev.SessionID,
	)
	if err != nil {
		return fmt.Errorf("bump session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// #endregion record

// #region events
// Events returns a session's events in sequence order.
func (s *Store) Events(sessionID string) ([]Event, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, seq, event_type, payload_json, created_at
		 FROM events WHERE session_id = ? ORDER BY seq`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var payload sql.NullString
		var createdStr string
		if err := rows.Scan(&ev.ID, &ev.SessionID, &ev.Seq, &ev.Type, &payload, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if payload.Valid {
			ev.Payload = []byte(payload.String)
		}
		ev.At, _ = time.Parse(time.RFC3339Nano, createdStr)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// #endregion events

// #region sessions
// Sessions returns the most recently active sessions.
func (s *Store) Sessions(limit int) ([]SessionRecord, error) {
	rows, err := s.db.Query(
		`SELECT session_id, started_at, last_event_at, event_count
		 FROM sessions ORDER BY last_event_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var records []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		var started, last string
		if err := rows.Scan(&rec.SessionID, &started, &last, &rec.Events); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		rec.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		rec.LastEventAt, _ = time.Parse(time.RFC3339Nano, last)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// #endregion sessions

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
