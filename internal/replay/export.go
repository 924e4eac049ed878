package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/yegorkir/aqs/internal/journal"
	"github.com/yegorkir/aqs/internal/state"
)

// #region extract

type answerEvent struct {
	Answer state.Answer `json:"answer"`
}

type followupEvent struct {
	Followup string `json:"followup"`
}

type stopEvent struct {
	Reasons []string `json:"reasons"`
}

type pickEvent struct {
	Pick *string `json:"pick"`
}

type safetyEvent struct {
	Enabled bool     `json:"enabled"`
	Lines   []string `json:"lines"`
	Veils   []string `json:"veils"`
}

type focusEvent struct {
	Kind state.FocusKind `json:"type"`
	ID   string          `json:"id"`
}

// FixtureFromEvents turns one session's journal into a regression fixture:
// every answer becomes a step expecting the question the session presented
// before it and what the session actually did next. Safety and focus set before the first answer become
// setup; changes after it cannot be replayed and are rejected.
func FixtureFromEvents(events []journal.Event, bundle string, seed uint64) (*Fixture, error) {
	f := &Fixture{Bundle: bundle, Seed: seed}
	var cur *Step
	presented := ""
	flush := func() {
		if cur != nil {
			f.Steps = append(f.Steps, *cur)
			cur = nil
		}
	}

	for _, ev := range events {
		switch ev.Type {
		case journal.EventAnswer:
			flush()
			var a answerEvent
			if err := decode(ev, &a); err != nil {
				return nil, err
			}
			if f.Start.IsZero() {
				f.Start = a.Answer.At
				if f.Description == "" {
					f.Description = "exported from session " + ev.SessionID
				}
			}
			cur = &Step{
				QID:        a.Answer.QID,
				OptionID:   a.Answer.OptionID,
				Value:      a.Answer.Value,
				Selections: a.Answer.Selections,
				Levels:     a.Answer.Levels,
				Expect:     presented,
			}
		case journal.EventFollowupEnqueued:
			var fe followupEvent
			if err := decode(ev, &fe); err != nil {
				return nil, err
			}
			if cur != nil {
				cur.Followup = fe.Followup
			}
		case journal.EventStopCheck:
			var se stopEvent
			if err := decode(ev, &se); err != nil {
				return nil, err
			}
			if cur != nil && len(se.Reasons) > 0 {
				cur.Stop = se.Reasons[0]
			}
		case journal.EventPickNext:
			var pe pickEvent
			if err := decode(ev, &pe); err != nil {
				return nil, err
			}
			presented = ""
			if pe.Pick != nil {
				presented = *pe.Pick
			}
			if cur != nil {
				cur.Next = NextNone
				if pe.Pick != nil {
					cur.Next = *pe.Pick
				}
				flush()
			}
		case journal.EventFocusExit:
			presented = ""
			if cur != nil {
				cur.Next = NextNone
				cur.Phase = state.PhaseResult
				flush()
			}
		case journal.EventSafetyToggle:
			if len(f.Steps) > 0 || cur != nil {
				return nil, fmt.Errorf("event %d: safety changed mid-session", ev.Seq)
			}
			var se safetyEvent
			if err := decode(ev, &se); err != nil {
				return nil, err
			}
			f.Setup.Safety = &SafetySetup{Lines: se.Lines, Veils: se.Veils, Completed: se.Enabled}
		case journal.EventFocusEnter:
			if len(f.Steps) > 0 || cur != nil {
				return nil, fmt.Errorf("event %d: focus entered mid-session", ev.Seq)
			}
			var fe focusEvent
			if err := decode(ev, &fe); err != nil {
				return nil, err
			}
			f.Setup.Focus = &FocusSetup{Kind: fe.Kind, ID: fe.ID}
		}
	}
	flush()

	if len(f.Steps) == 0 {
		return nil, errors.New("session has no answers")
	}
	return f, nil
}

func decode(ev journal.Event, v any) error {
	if len(ev.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(ev.Payload, v); err != nil {
		return fmt.Errorf("decode %s event %d: %w", ev.Type, ev.Seq, err)
	}
	return nil
}

// #endregion extract

// #region write

// WriteFixture encodes f as YAML, readable by LoadFixture.
func WriteFixture(w io.Writer, f *Fixture) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode fixture: %w", err)
	}
	return enc.Close()
}

// #endregion write
