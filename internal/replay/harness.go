package replay

import (
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/yegorkir/aqs/internal/catalog"
	"github.com/yegorkir/aqs/internal/session"
	"github.com/yegorkir/aqs/internal/state"
)

// #region types
// StepResult captures what one scripted answer produced.
type StepResult struct {
	Index     int
	Presented string // question the session offered before the answer
	Answered  string
	NoOp      bool
	Followup  string
	Stop      string
	Propose   bool
	Phase     state.Phase
	Next      string

	Mismatches []string
}

// Summary provides aggregate stats from a replay run.
type Summary struct {
	TotalSteps int
	Answers    int
	NoOps      int
	Followups  int
	Proposals  int
	Mismatches int
	FinalPhase state.Phase
	SessionID  string
}

// #endregion types

// #region replay
// Replay drives a fresh session through the fixture's steps and checks each
// cycle against its expectations. Errors are reserved for setup and journal
// failures; expectation drift is reported per step.
func Replay(cat *catalog.Catalogue, f *Fixture, opts session.Options) ([]StepResult, Summary, error) {
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(f.Seed, f.Seed))
	}
	e, err := session.New(cat, opts)
	if err != nil {
		return nil, Summary{}, err
	}

	// 1. Setup
	if err := setup(e, f.Setup); err != nil {
		return nil, Summary{}, err
	}

	// 2. Steps
	results := make([]StepResult, 0, len(f.Steps))
	for i, step := range f.Steps {
		presented := e.State().NextQID
		var at time.Time
		if !f.Start.IsZero() {
			at = f.Start.Add(time.Duration(i) * time.Second)
		}
		ans := step.answer(presented, at)

		out, err := e.Answer(ans)
		if err != nil {
			return results, summarize(e, results), fmt.Errorf("step %d: %w", i, err)
		}

		r := StepResult{
			Index:     i,
			Presented: presented,
			Answered:  ans.QID,
			NoOp:      out.NoOp,
			Stop:      out.Stop.Reason(),
			Propose:   out.Stop.Propose,
			Phase:     out.Phase,
			Next:      out.Next,
		}
		if out.Followup != nil {
			r.Followup = out.Followup.QID
		}
		r.Mismatches = check(step, r)
		results = append(results, r)
	}

	return results, summarize(e, results), nil
}

func setup(e *session.Engine, s Setup) error {
	if s.Safety != nil {
		if err := e.SetSafety(s.Safety.Lines, s.Safety.Veils, s.Safety.Completed); err != nil {
			return fmt.Errorf("setup safety: %w", err)
		}
	}
	if s.Priors != nil {
		if _, err := e.SetPriors(s.Priors.Axes, s.Priors.Modules); err != nil {
			return fmt.Errorf("setup priors: %w", err)
		}
		if len(s.Priors.Clarify) > 0 {
			if err := e.Clarify(s.Priors.Clarify); err != nil {
				return fmt.Errorf("setup clarify: %w", err)
			}
		}
	}
	for _, axis := range slices.Sorted(maps.Keys(s.AxisPriority)) {
		tier := s.AxisPriority[axis]
		ok, err := e.SetAxisPriority(axis, tier)
		if err != nil {
			return fmt.Errorf("setup axis priority: %w", err)
		}
		if !ok {
			return fmt.Errorf("setup axis priority: invalid %s=%d", axis, tier)
		}
	}
	e.Start()
	if s.Focus != nil {
		ok, err := e.EnterFocus(s.Focus.Kind, s.Focus.ID)
		if err != nil {
			return fmt.Errorf("setup focus: %w", err)
		}
		if !ok {
			return fmt.Errorf("setup focus: unknown %s %q", s.Focus.Kind, s.Focus.ID)
		}
	}
	return nil
}

func check(s Step, r StepResult) []string {
	var out []string
	mismatch := func(field, want, got string) {
		out = append(out, fmt.Sprintf("%s: expected %q, got %q", field, want, got))
	}
	if s.Expect != "" && s.Expect != r.Presented {
		mismatch("presented", s.Expect, r.Presented)
	}
	if s.Followup != "" && s.Followup != r.Followup {
		mismatch("followup", s.Followup, r.Followup)
	}
	if s.Stop != "" && s.Stop != r.Stop {
		mismatch("stop", s.Stop, r.Stop)
	}
	if s.Phase != "" && s.Phase != r.Phase {
		mismatch("phase", string(s.Phase), string(r.Phase))
	}
	switch {
	case s.Next == NextNone && r.Next != "":
		mismatch("next", "", r.Next)
	case s.Next != "" && s.Next != NextNone && s.Next != r.Next:
		mismatch("next", s.Next, r.Next)
	}
	return out
}

func summarize(e *session.Engine, results []StepResult) Summary {
	s := Summary{
		TotalSteps: len(results),
		FinalPhase: e.Phase(),
		SessionID:  e.SessionID(),
	}
	for _, r := range results {
		switch {
		case r.NoOp:
			s.NoOps++
		default:
			s.Answers++
		}
		if r.Followup != "" {
			s.Followups++
		}
		if r.Propose {
			s.Proposals++
		}
		s.Mismatches += len(r.Mismatches)
	}
	return s
}

// #endregion replay
