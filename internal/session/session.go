// Package session drives one respondent through the pick, answer, followup
// and stop cycle, journaling every step.
package session

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/yegorkir/aqs/internal/catalog"
	"github.com/yegorkir/aqs/internal/followup"
	"github.com/yegorkir/aqs/internal/gate"
	"github.com/yegorkir/aqs/internal/journal"
	"github.com/yegorkir/aqs/internal/metrics"
	"github.com/yegorkir/aqs/internal/preconfig"
	"github.com/yegorkir/aqs/internal/selector"
	"github.com/yegorkir/aqs/internal/state"
	"github.com/yegorkir/aqs/internal/stop"
	"github.com/yegorkir/aqs/internal/update"
)

// #region engine-struct

// Engine owns one session's state and runs each cycle to completion.
// It is not safe for concurrent use.
type Engine struct {
	cat     *catalog.Catalogue
	st      *state.State
	journal journal.Journal
	metrics *metrics.Metrics
	log     *zap.Logger
	rnd     selector.RandSource

	seq         int64
	proposeSeen bool
	debug       selector.Debug
	lastStop    *stop.Decision
	editing     string // safety question presented again by EditSafety
}

// #endregion

// #region constructor

// New creates an engine and starts a fresh session.
func New(cat *catalog.Catalogue, opts Options) (*Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		cat:     cat,
		journal: opts.Journal,
		metrics: opts.Metrics,
		log:     logger.Named("session"),
		rnd:     opts.Rand,
	}
	if err := e.Reset(); err != nil {
		return nil, err
	}
	return e, nil
}

// Reset discards all state and starts a new session in the welcome phase.
func (e *Engine) Reset() error {
	e.st = state.New(e.cat)
	e.seq = 0
	e.proposeSeen = false
	e.debug = selector.Debug{}
	e.lastStop = nil
	e.editing = ""

	if err := e.record(journal.EventReset, map[string]any{"session_id": e.st.SessionID}); err != nil {
		return err
	}
	e.log.Info("session reset", zap.String("session_id", e.st.SessionID))
	return e.pick()
}

// #endregion

// #region accessors

// State returns a copy of the session state.
func (e *Engine) State() *state.State { return e.st.Clone() }

func (e *Engine) SessionID() string     { return e.st.SessionID }
func (e *Engine) Phase() state.Phase    { return e.st.Phase }
func (e *Engine) Debug() selector.Debug { return e.debug }
func (e *Engine) ProposeSeen() bool     { return e.proposeSeen }

// LastStop returns the most recent stop decision, if any since the last
// reset or continue.
func (e *Engine) LastStop() (stop.Decision, bool) {
	if e.lastStop == nil {
		return stop.Decision{}, false
	}
	return *e.lastStop, true
}

// Current returns the question to ask next and how to present it.
func (e *Engine) Current() (*catalog.Question, catalog.Presented, bool) {
	q, ok := e.cat.Question(e.st.NextQID)
	if !ok {
		return nil, catalog.Presented{}, false
	}
	d := gate.SafetyStatus(q, e.st, e.cat)
	return q, q.Presented(d.Veiled), true
}

// #endregion

// #region start

// Start moves a welcome-phase session into the quiz.
func (e *Engine) Start() {
	if e.st.Phase == state.PhaseWelcome {
		e.st.Phase = state.PhaseQuiz
	}
}

// #endregion

// #region answer

// Answer applies one answer and runs the rest of the cycle: followup
// resolution, the stop check, focus exit and the next pick. An answer for an
// unknown question changes nothing. A question already in the history is
// rejected with ErrAlreadyAnswered unless mode focus allows repeats or
// EditSafety presented it again.
func (e *Engine) Answer(ans state.Answer) (Outcome, error) {
	if e.editing != "" && ans.QID == e.editing {
		return e.answerSafetyEdit(ans)
	}
	if e.st.HasAsked(ans.QID) && !e.st.Focus.AllowsRepeat() {
		out := Outcome{Next: e.st.NextQID, Phase: e.st.Phase}
		return out, fmt.Errorf("%w: %s", ErrAlreadyAnswered, ans.QID)
	}

	// 1. Apply
	res := update.Apply(e.cat, e.st, ans)
	e.metrics.ObserveAnswer(res)
	out := Outcome{Log: res.Log, NoOp: res.NoOp}
	if res.NoOp {
		e.log.Warn("answer for unknown question", zap.String("qid", ans.QID))
		out.Next, out.Phase = e.st.NextQID, e.st.Phase
		return out, nil
	}
	e.st = res.State

	q, _ := e.cat.Question(ans.QID)
	err := e.record(journal.EventAnswer, answerPayload{
		Log:         res.Log,
		Prompt:      q.Prompt,
		OptionLabel: answerLabel(q, res.Log.Answer),
	})
	if err != nil {
		return out, err
	}
	e.log.Debug("answer applied",
		zap.String("qid", ans.QID),
		zap.String("type", string(res.Log.Kind)),
		zap.Int("asked", len(e.st.Asked)))

	// 2. Followup
	if m := followup.Resolve(e.cat, e.st, q, res.Log.Answer); m != nil {
		e.st.Pending = append(e.st.Pending, m.QID)
		out.Followup = m
		err := e.record(journal.EventFollowupEnqueued, map[string]any{
			"from":        ans.QID,
			"from_prompt": q.Prompt,
			"followup":    m.QID,
			"rule":        map[string]any{"index": m.RuleIndex, "trigger": m.Trigger},
		})
		if err != nil {
			return out, err
		}
	}

	// 3. Stop check
	d := stop.Evaluate(e.cat, e.st)
	e.lastStop = &d
	out.Stop = d
	e.metrics.ObserveStop(d)
	if err := e.record(journal.EventStopCheck, d); err != nil {
		return out, err
	}
	e.log.Debug("stop check", zap.Bool("propose", d.Propose), zap.Strings("reasons", d.Reasons))

	// 4. Focus exit
	if exit := e.focusExit(); exit != nil {
		out.FocusExit = exit
		if err := e.exitFocus(*exit); err != nil {
			return out, err
		}
		out.Next, out.Phase = e.st.NextQID, e.st.Phase
		return out, nil
	}

	// 5. Phase
	if d.Propose && !e.proposeSeen {
		e.st.Phase = state.PhaseProposeResult
		e.proposeSeen = true
		e.log.Info("result proposed", zap.String("reason", d.Reason()), zap.Int("asked", len(e.st.Asked)))
	}

	// 6. Next pick
	if err := e.pick(); err != nil {
		return out, err
	}
	out.Next, out.Phase = e.st.NextQID, e.st.Phase
	return out, nil
}

// answerSafetyEdit refolds lines and veils without touching the history,
// then picks again.
func (e *Engine) answerSafetyEdit(ans state.Answer) (Outcome, error) {
	res := update.ApplySafetyEdit(e.cat, e.st, ans)
	out := Outcome{Log: res.Log, NoOp: res.NoOp}
	if res.NoOp {
		out.Next, out.Phase = e.st.NextQID, e.st.Phase
		return out, nil
	}
	e.st = res.State
	e.editing = ""

	err := e.record(journal.EventSafetyToggle, map[string]any{
		"enabled":         true,
		"edited":          ans.QID,
		"lines":           e.st.Safety.Lines,
		"veils":           e.st.Safety.Veils,
		"completion_mode": e.st.Safety.CompletionMode,
	})
	if err != nil {
		return out, err
	}
	e.log.Info("safety edited",
		zap.Strings("lines", e.st.Safety.Lines),
		zap.Strings("veils", e.st.Safety.Veils))

	if err := e.pick(); err != nil {
		return out, err
	}
	out.Next, out.Phase = e.st.NextQID, e.st.Phase
	return out, nil
}

type answerPayload struct {
	update.Log
	Prompt      string `json:"prompt"`
	OptionLabel string `json:"option_label"`
}

// answerLabel renders the answer the way the respondent saw it.
func answerLabel(q *catalog.Question, ans state.Answer) string {
	switch b := q.Body.(type) {
	case *catalog.ChoiceBody:
		if o, ok := b.Option(ans.OptionID); ok && o.Label != "" {
			return o.Label
		}
		return ans.OptionID
	case *catalog.SliderBody:
		v := strconv.FormatFloat(ans.Value, 'f', -1, 64)
		if label := b.Labels[v]; label != "" {
			return fmt.Sprintf("%s (%s)", v, label)
		}
		return v
	case *catalog.SafetyBody:
		labels := make(map[string]string, len(b.Options))
		for _, o := range b.Options {
			labels[o.ID] = o.Label
		}
		ids := ans.Selections
		if b.TriState {
			ids = nil
			for _, id := range slices.Sorted(maps.Keys(ans.Levels)) {
				if ans.Levels[id] != state.LevelOK {
					ids = append(ids, id)
				}
			}
		}
		out := make([]string, 0, len(ids))
		for _, id := range ids {
			if l := labels[id]; l != "" {
				out = append(out, l)
				continue
			}
			out = append(out, id)
		}
		return strings.Join(out, ", ")
	}
	return ""
}

// #endregion

// #region focus

// EnterFocus restricts the quiz to one axis, module or mode. It reports
// false for an unknown id. When nothing can serve the focus it exits at once.
func (e *Engine) EnterFocus(kind state.FocusKind, id string) (bool, error) {
	if !e.focusTargetExists(kind, id) {
		return false, nil
	}

	e.st.Focus = &state.Focus{Kind: kind, ID: id}
	e.proposeSeen = true
	e.st.Phase = state.PhaseQuiz
	if err := e.record(journal.EventFocusEnter, map[string]any{"type": kind, "id": id}); err != nil {
		return true, err
	}
	e.log.Info("focus entered", zap.String("type", string(kind)), zap.String("id", id))

	if err := e.repick(); err != nil {
		return true, err
	}
	if e.st.NextQID != "" {
		return true, nil
	}

	exit := FocusExit{Kind: kind, ID: id, Reason: ExitNoQuestions}
	switch kind {
	case state.FocusAxis:
		c := e.st.AxisConfidence(id)
		exit.Confidence = &c
	case state.FocusModule:
		c := e.st.ModuleConfidence(id)
		exit.Confidence = &c
	case state.FocusMode:
		exit.Value = string(e.st.Mode(id))
	}
	return true, e.exitFocus(exit)
}

func (e *Engine) focusTargetExists(kind state.FocusKind, id string) bool {
	switch kind {
	case state.FocusAxis:
		_, ok := e.cat.Axis(id)
		return ok
	case state.FocusModule:
		_, ok := e.cat.Module(id)
		return ok
	case state.FocusMode:
		_, ok := e.cat.Mode(id)
		return ok
	}
	return false
}

// focusExit reports whether the active focus is done: axis and module focus
// end at the definition's high threshold, mode focus once the mode is known,
// and any focus once no question can serve it.
func (e *Engine) focusExit() *FocusExit {
	f := e.st.Focus
	if f == nil {
		return nil
	}

	exit := &FocusExit{Kind: f.Kind, ID: f.ID}
	var done bool
	switch f.Kind {
	case state.FocusAxis:
		high := catalog.DefaultThresholds().High
		if def, ok := e.cat.Axis(f.ID); ok {
			high = def.Thresholds.High
		}
		c := e.st.AxisConfidence(f.ID)
		exit.Confidence = &c
		done = c >= high
		exit.Reason = ExitConfidenceHigh
	case state.FocusModule:
		high := catalog.DefaultThresholds().High
		if def, ok := e.cat.Module(f.ID); ok {
			high = def.Thresholds.High
		}
		c := e.st.ModuleConfidence(f.ID)
		exit.Confidence = &c
		done = c >= high
		exit.Reason = ExitConfidenceHigh
	case state.FocusMode:
		v := e.st.Mode(f.ID)
		exit.Value = string(v)
		done = !v.IsUnknown()
		exit.Reason = ExitAnswered
	}

	if done {
		return exit
	}
	if !selector.FocusAvailable(e.cat, e.st) {
		exit.Reason = ExitNoQuestions
		return exit
	}
	return nil
}

func (e *Engine) exitFocus(exit FocusExit) error {
	e.st.Focus = nil
	e.st.Phase = state.PhaseResult
	e.st.NextQID = ""
	e.metrics.ObserveFocusExit(exit.Reason)
	e.log.Info("focus exited",
		zap.String("type", string(exit.Kind)),
		zap.String("id", exit.ID),
		zap.String("reason", exit.Reason))
	return e.record(journal.EventFocusExit, exit)
}

// #endregion

// #region phase-controls

// Continue returns from a proposed or shown result to the quiz.
func (e *Engine) Continue() (bool, error) {
	if e.st.Phase != state.PhaseProposeResult && e.st.Phase != state.PhaseResult {
		return false, nil
	}
	e.st.Phase = state.PhaseQuiz
	e.lastStop = nil
	return true, e.repick()
}

// ShowResult moves to the result phase once a result was proposed, when
// forced, or when no question is left.
func (e *Engine) ShowResult(force bool) (bool, error) {
	ready := e.st.Phase == state.PhaseProposeResult || e.proposeSeen || force || e.st.NextQID == ""
	if !ready {
		return false, nil
	}
	e.st.Phase = state.PhaseResult
	return true, e.record(journal.EventResultView, map[string]any{"reason": "user_accept"})
}

// EditSafety clears any focus and puts the safety configuration question
// next. It reports false when the catalogue has none.
func (e *Engine) EditSafety() (bool, error) {
	q, ok := e.cat.SafetyLinesVeilsQuestion()
	if !ok {
		return false, nil
	}
	e.st.Focus = nil
	e.st.Phase = state.PhaseQuiz
	e.st.Pending = []string{q.ID}
	if err := e.pick(); err != nil {
		return true, err
	}
	if e.st.NextQID == q.ID {
		return true, nil
	}

	// Already answered once: the queue drops asked ids, so present it
	// directly. The next answer to it edits safety instead of adding history.
	e.st.Pending = []string{}
	e.st.NextQID = q.ID
	e.st.LastMargin = nil
	e.editing = q.ID
	e.debug = selector.Debug{Top: []selector.Candidate{}, FollowupForced: true, FollowupQID: q.ID}
	return true, e.record(journal.EventPickNext, map[string]any{"pick": q.ID, "debug": e.debug})
}

// #endregion

// #region configuration

// SetSafety replaces the respondent's lines and veils.
func (e *Engine) SetSafety(lines, veils []string, completed bool) error {
	e.st.Safety.Lines = slices.Clone(lines)
	e.st.Safety.Veils = slices.Clone(veils)
	e.st.Safety.CompletionMode = state.CompletionUnset
	if completed {
		e.st.Safety.CompletionMode = state.CompletionCompleted
	}
	err := e.record(journal.EventSafetyToggle, map[string]any{
		"enabled":         completed,
		"lines":           e.st.Safety.Lines,
		"veils":           e.st.Safety.Veils,
		"completion_mode": e.st.Safety.CompletionMode,
	})
	if err != nil {
		return err
	}
	return e.repick()
}

// SetPriors stores pre-session estimates and returns the axis pairs too
// close to call, which the respondent should disambiguate via Clarify.
func (e *Engine) SetPriors(axes, modules map[string]float64) ([][2]string, error) {
	e.st.Priors = &state.Priors{Axes: maps.Clone(axes), Modules: maps.Clone(modules)}
	pairs := preconfig.ClarifyPairs(axes, e.cat.Preconfig())
	e.log.Debug("priors set", zap.Int("axes", len(axes)), zap.Int("clarify_pairs", len(pairs)))
	return pairs, e.repick()
}

// Clarify applies the respondent's signed shift per ambiguous pair, keyed by
// preconfig.PairKey.
func (e *Engine) Clarify(specify map[string]float64) error {
	if e.st.Priors == nil {
		return nil
	}
	e.st.Priors.Axes = preconfig.Apply(e.st.Priors.Axes, specify, e.cat.Preconfig())
	return e.repick()
}

// SetAxisPriority sets an axis's priority tier (1 or 2); tier 0 clears it.
// It reports false for an unknown axis or tier.
func (e *Engine) SetAxisPriority(axisID string, tier int) (bool, error) {
	if _, ok := e.cat.Axis(axisID); !ok || tier < 0 || tier > 2 {
		return false, nil
	}
	if tier == 0 {
		delete(e.st.AxisPriority, axisID)
	} else {
		e.st.AxisPriority[axisID] = state.Priority{Tier: tier}
	}
	return true, e.repick()
}

// #endregion

// #region pick

func (e *Engine) pick() error {
	e.editing = ""
	p := selector.Pick(e.cat, e.st, e.rnd)
	e.st.Pending = p.Pending
	e.st.NextQID = p.QID
	e.st.LastMargin = p.Debug.Margin
	e.debug = p.Debug
	e.metrics.ObservePick(p)

	e.log.Debug("pick",
		zap.String("qid", p.QID),
		zap.Int("candidates", p.Debug.Count),
		zap.Bool("followup_forced", p.Debug.FollowupForced))

	var pick any
	if p.QID != "" {
		pick = p.QID
	}
	return e.record(journal.EventPickNext, map[string]any{"pick": pick, "debug": p.Debug})
}

// repick picks again after a configuration change. An unanswered followup
// already taken off the queue goes back to its front first.
func (e *Engine) repick() error {
	next := e.st.NextQID
	if e.debug.FollowupForced && next != "" && !e.st.HasAsked(next) && !e.st.IsPending(next) {
		e.st.Pending = append([]string{next}, e.st.Pending...)
	}
	return e.pick()
}

// #endregion

// #region journal

func (e *Engine) record(eventType string, payload any) error {
	seq := e.seq
	e.seq++
	if e.journal == nil {
		return nil
	}
	ev, err := journal.NewEvent(eventType, e.st.SessionID, seq, payload)
	if err != nil {
		return err
	}
	if err := e.journal.Record(ev); err != nil {
		return fmt.Errorf("journal %s: %w", eventType, err)
	}
	return nil
}

// #endregion
