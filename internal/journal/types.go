// Package journal records session events: an append-only SQLite log, an
// in-memory log for tests and dry runs, and a JSONL export.
package journal

import (
	"encoding/json"
	"fmt"
	"time"
)

// #region event-types
const (
	EventReset            = "reset"
	EventPickNext         = "pick_next"
	EventAnswer           = "answer"
	EventFollowupEnqueued = "followup_enqueued"
	EventStopCheck        = "stop_check"
	EventFocusEnter       = "focus_enter"
	EventFocusExit        = "focus_exit"
	EventSafetyToggle     = "safety_toggle"
	EventResultView       = "result_view"
)

// #endregion event-types

// #region event
// Event is one journal entry. Seq is the per-session event counter;
// Payload is stored as JSON.
type Event struct {
	ID        string          `json:"-"`
	Type      string          `json:"type"`
	SessionID string          `json:"session_id"`
	Seq       int64           `json:"event_id"`
	At        time.Time       `json:"ts"`
	Payload   json.RawMessage `json:"payload"`
}

// NewEvent marshals payload into an event stamped with the current time.
func NewEvent(eventType, sessionID string, seq int64, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		Type:      eventType,
		SessionID: sessionID,
		Seq:       seq,
		At:        time.Now().UTC(),
		Payload:   raw,
	}, nil
}

// SessionRecord summarises one journaled session.
type SessionRecord struct {
	SessionID   string
	StartedAt   time.Time
	LastEventAt time.Time
	Events      int
}

// #endregion event

// #region journal
// Journal is where a session writes its events.
type Journal interface {
	Record(ev Event) error
	Events(sessionID string) ([]Event, error)
	Close() error
}

// #endregion journal
