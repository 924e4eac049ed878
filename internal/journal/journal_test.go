package journal

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func tempDB(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := NewStore(filepath.Join(dir, "journal.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustEvent(t *testing.T, typ, session string, seq int64, payload any) Event {
	t.Helper()
	ev, err := NewEvent(typ, session, seq, payload)
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	ev.At = time.Date(2026, 1, 1, 0, 0, int(seq), 0, time.UTC)
	return ev
}

func TestRecordAndEvents(t *testing.T) {
	s := tempDB(t)

	for i, typ := range []string{EventReset, EventPickNext, EventAnswer} {
		ev := mustEvent(t, typ, "s1", int64(i), map[string]any{"n": i})
		if err := s.Record(ev); err != nil {
			t.Fatalf("Record %s: %v", typ, err)
		}
	}
	if err := s.Record(mustEvent(t, EventReset, "s2", 0, nil)); err != nil {
		t.Fatalf("Record s2: %v", err)
	}

	events, err := s.Events("s1")
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[2].Type != EventAnswer || events[2].Seq != 2 {
		t.Fatalf("unexpected last event %+v", events[2])
	}
	if events[0].ID == "" {
		t.Fatal("expected generated event id")
	}
	if !events[1].At.Equal(time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC)) {
		t.Fatalf("timestamp not preserved: %v", events[1].At)
	}
	var p map[string]any
	if err := json.Unmarshal(events[1].Payload, &p); err != nil || p["n"] != float64(1) {
		t.Fatalf("payload not preserved: %s", events[1].Payload)
	}
}

func TestRecordNullPayload(t *testing.T) {
	s := tempDB(t)
	ev := mustEvent(t, EventReset, "s1", 0, nil)
	ev.Payload = nil
	if err := s.Record(ev); err != nil {
		t.Fatalf("Record: %v", err)
	}
	events, _ := s.Events("s1")
	if len(events) != 1 || events[0].Payload != nil {
		t.Fatalf("expected nil payload, got %+v", events)
	}
}

func TestRecordDuplicateSeqRollsBack(t *testing.T) {
	s := tempDB(t)
	if err := s.Record(mustEvent(t, EventReset, "s1", 0, nil)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := s.Record(mustEvent(t, EventPickNext, "s1", 0, nil)); err == nil {
		t.Fatal("expected unique violation on repeated seq")
	}

	sessions, err := s.Sessions(10)
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Events != 1 {
		t.Fatalf("failed insert must not bump the session, got %+v", sessions)
	}
}

func TestSessionsOrderedByActivity(t *testing.T) {
	s := tempDB(t)
	s.Record(mustEvent(t, EventReset, "old", 0, nil))
	s.Record(mustEvent(t, EventReset, "new", 5, nil))
	s.Record(mustEvent(t, EventPickNext, "old", 1, nil))

	sessions, err := s.Sessions(10)
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].SessionID != "new" {
		t.Fatalf("expected most recent first, got %s", sessions[0].SessionID)
	}
	if sessions[1].Events != 2 || !sessions[1].StartedAt.Before(sessions[1].LastEventAt) {
		t.Fatalf("unexpected session row %+v", sessions[1])
	}

	limited, _ := s.Sessions(1)
	if len(limited) != 1 {
		t.Fatalf("expected limit 1, got %d", len(limited))
	}
}

func TestNewStoreInvalidPath(t *testing.T) {
	_, err := NewStore(filepath.Join(string(os.PathSeparator), "nonexistent", "deep", "path", "journal.db"))
	if err == nil {
		t.Fatal("expected error for invalid path")
	}
}

func TestMemoryJournal(t *testing.T) {
	m := NewMemory()
	m.Record(mustEvent(t, EventReset, "a", 0, nil))
	m.Record(mustEvent(t, EventReset, "b", 0, nil))
	m.Record(Event{Type: EventPickNext, SessionID: "a", Seq: 1})

	events, err := m.Events("a")
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) != 2 || events[1].ID == "" || events[1].At.IsZero() {
		t.Fatalf("unexpected events %+v", events)
	}
	if len(m.All()) != 3 {
		t.Fatalf("expected 3 events in total, got %d", len(m.All()))
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestJSONLRoundTrip(t *testing.T) {
	events := []Event{
		mustEvent(t, EventReset, "s1", 0, map[string]any{"session_id": "s1"}),
		mustEvent(t, EventStopCheck, "s1", 1, map[string]any{
			"propose": false,
			"reasons": []string{"min_questions"},
			"metrics": map[string]any{"margin": nil, "asked": 3},
		}),
		{Type: EventPickNext, SessionID: "s1", Seq: 2, At: time.UnixMilli(1767225600123).UTC()},
	}

	var buf bytes.Buffer
	if err := WriteJSONL(&buf, events); err != nil {
		t.Fatalf("WriteJSONL: %v", err)
	}
	if n := strings.Count(buf.String(), "\n"); n != 3 {
		t.Fatalf("expected 3 lines, got %d", n)
	}

	var first map[string]any
	line, _, _ := strings.Cut(buf.String(), "\n")
	if err := json.Unmarshal([]byte(line), &first); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if first["type"] != EventReset || first["event_id"] != float64(0) {
		t.Fatalf("unexpected line %v", first)
	}

	back, err := ReadJSONL(strings.NewReader(buf.String() + "\n\n"))
	if err != nil {
		t.Fatalf("ReadJSONL: %v", err)
	}
	if len(back) != 3 {
		t.Fatalf("expected 3 events, got %d", len(back))
	}
	if back[1].Type != EventStopCheck || back[1].Seq != 1 || !back[1].At.Equal(events[1].At) {
		t.Fatalf("unexpected event %+v", back[1])
	}
	var p struct {
		Propose bool     `json:"propose"`
		Reasons []string `json:"reasons"`
	}
	if err := json.Unmarshal(back[1].Payload, &p); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if p.Propose || len(p.Reasons) != 1 || p.Reasons[0] != "min_questions" {
		t.Fatalf("unexpected payload %+v", p)
	}
	if back[2].Payload != nil {
		t.Fatalf("expected nil payload, got %s", back[2].Payload)
	}
	if back[2].At.UnixMilli() != 1767225600123 {
		t.Fatalf("millisecond timestamp lost: %v", back[2].At)
	}
}

func TestReadJSONLRejectsGarbage(t *testing.T) {
	if _, err := ReadJSONL(strings.NewReader("{not json}\n")); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := ReadJSONL(strings.NewReader(`{"session_id":"x"}` + "\n")); err == nil {
		t.Fatal("expected error for missing type")
	}
}
