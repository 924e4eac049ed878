package replay

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/yegorkir/aqs/internal/catalog/catalogtest"
	"github.com/yegorkir/aqs/internal/journal"
	"github.com/yegorkir/aqs/internal/session"
	"github.com/yegorkir/aqs/internal/state"
)

func recordSession(t *testing.T) (*journal.Memory, string) {
	t.Helper()
	mem := journal.NewMemory()
	e, err := session.New(catalogtest.SampleCatalogue(t), session.Options{Journal: mem})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := e.SetSafety(nil, []string{"gore"}, true); err != nil {
		t.Fatalf("SetSafety: %v", err)
	}
	e.Start()

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	answers := []state.Answer{
		{OptionID: "left"},
		{QID: "q_a", OptionID: "down"},
		{QID: "q_b", Value: 9},
		{QID: "q_mod", OptionID: "keen"},
	}
	for i, a := range answers {
		if a.QID == "" {
			a.QID = e.State().NextQID
		}
		a.At = start.Add(time.Duration(i) * time.Second)
		if _, err := e.Answer(a); err != nil {
			t.Fatalf("Answer %d: %v", i, err)
		}
	}
	return mem, e.SessionID()
}

func TestFixtureFromEvents_ReplaysCleanly(t *testing.T) {
	mem, id := recordSession(t)
	events, err := mem.Events(id)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}

	f, err := FixtureFromEvents(events, "bundle.yaml", 0)
	if err != nil {
		t.Fatalf("FixtureFromEvents: %v", err)
	}
	if len(f.Steps) != 4 {
		t.Fatalf("expected 4 steps, got %d", len(f.Steps))
	}
	if f.Setup.Safety == nil || !f.Setup.Safety.Completed || f.Setup.Safety.Veils[0] != "gore" {
		t.Fatalf("expected the safety setup to be recovered, got %+v", f.Setup.Safety)
	}
	if f.Steps[1].Followup != "q_b" || f.Steps[2].Followup != "q_mod" {
		t.Errorf("expected followups to be captured, got %q and %q", f.Steps[1].Followup, f.Steps[2].Followup)
	}

	results, sum, err := Replay(catalogtest.SampleCatalogue(t), f, session.Options{})
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if sum.Mismatches != 0 {
		for _, r := range results {
			t.Logf("step %d: %v", r.Index, r.Mismatches)
		}
		t.Fatalf("expected an exported session to replay without drift, got %d mismatches", sum.Mismatches)
	}
}

func TestWriteFixture_RoundTrip(t *testing.T) {
	mem, id := recordSession(t)
	events, _ := mem.Events(id)
	f, err := FixtureFromEvents(events, "bundle.yaml", 5)
	if err != nil {
		t.Fatalf("FixtureFromEvents: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteFixture(&buf, f); err != nil {
		t.Fatalf("WriteFixture: %v", err)
	}
	p := filepath.Join(t.TempDir(), "exported.yaml")
	if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := LoadFixture(p)
	if err != nil {
		t.Fatalf("LoadFixture: %v\n%s", err, buf.String())
	}
	if diff := cmp.Diff(f, got, cmpopts.IgnoreUnexported(Fixture{}), cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("fixture changed across YAML (-want +got):\n%s", diff)
	}
}

func TestFixtureFromEvents_Rejects(t *testing.T) {
	mem := journal.NewMemory()
	e, err := session.New(catalogtest.SampleCatalogue(t), session.Options{Journal: mem})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	events, _ := mem.Events(e.SessionID())
	if _, err := FixtureFromEvents(events, "b.yaml", 0); err == nil {
		t.Error("expected an error for a session without answers")
	}

	if _, err := e.Answer(state.Answer{QID: "q_dilemma", OptionID: "left"}); err != nil {
		t.Fatal(err)
	}
	if err := e.SetSafety([]string{"gore"}, nil, true); err != nil {
		t.Fatal(err)
	}
	events, _ = mem.Events(e.SessionID())
	if _, err := FixtureFromEvents(events, "b.yaml", 0); err == nil {
		t.Error("expected an error for a mid-session safety change")
	}
}
