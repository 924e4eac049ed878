package state

import (
	"maps"
	"slices"

	"github.com/google/uuid"

	"github.com/yegorkir/aqs/internal/catalog"
)

// #region constructor
// New creates a fresh session state from catalogue defaults.
func New(cat *catalog.Catalogue) *State {
	st := &State{
		SessionID:    uuid.New().String(),
		Phase:        PhaseWelcome,
		Asked:        []string{},
		Answers:      []AnswerRecord{},
		Pending:      []string{},
		Cooldowns:    map[string]Cooldown{},
		Tags:         []string{},
		Axes:         map[string]AxisState{},
		Modules:      map[string]ModuleState{},
		Modes:        map[string]catalog.ModeValue{},
		AxisPriority: map[string]Priority{},
		Safety:       Safety{CompletionMode: CompletionUnset},
		Stop:         cat.Stop(),
	}
	for _, a := range cat.Axes() {
		st.Axes[a.ID] = AxisState{
			Score:        a.Score,
			Confidence:   a.Confidence,
			Evidence:     a.Evidence,
			RecentDeltas: []float64{},
		}
	}
	for _, m := range cat.Modules() {
		st.Modules[m.ID] = ModuleState{Level: m.Level, Confidence: m.Confidence, Evidence: m.Evidence}
	}
	for _, m := range cat.Modes() {
		st.Modes[m.ID] = m.Default
	}
	return st
}

// #endregion constructor

// #region clone
// Clone returns a deep copy that shares no mutable memory with s.
func (s *State) Clone() *State {
	c := *s
	c.Asked = slices.Clone(s.Asked)
	c.Pending = slices.Clone(s.Pending)
	c.Tags = slices.Clone(s.Tags)
	c.Cooldowns = maps.Clone(s.Cooldowns)
	c.Modules = maps.Clone(s.Modules)
	c.Modes = maps.Clone(s.Modes)
	c.AxisPriority = maps.Clone(s.AxisPriority)
	c.Safety.Lines = slices.Clone(s.Safety.Lines)
	c.Safety.Veils = slices.Clone(s.Safety.Veils)

	c.Axes = make(map[string]AxisState, len(s.Axes))
	for id, ax := range s.Axes {
		ax.RecentDeltas = slices.Clone(ax.RecentDeltas)
		c.Axes[id] = ax
	}

	c.Answers = make([]AnswerRecord, len(s.Answers))
	for i, rec := range s.Answers {
		rec.Selections = slices.Clone(rec.Selections)
		rec.Levels = maps.Clone(rec.Levels)
		c.Answers[i] = rec
	}

	if s.Focus != nil {
		f := *s.Focus
		c.Focus = &f
	}
	if s.LastMargin != nil {
		m := *s.LastMargin
		c.LastMargin = &m
	}
	if s.Priors != nil {
		c.Priors = &Priors{Axes: maps.Clone(s.Priors.Axes), Modules: maps.Clone(s.Priors.Modules)}
	}
	return &c
}

// #endregion clone

// #region queries
// HasAsked reports whether qid is in the asked history.
func (s *State) HasAsked(qid string) bool {
	return slices.Contains(s.Asked, qid)
}

// IsPending reports whether qid is queued as a followup.
func (s *State) IsPending(qid string) bool {
	return slices.Contains(s.Pending, qid)
}

// CooldownBlocked reports whether qid is still cooling down. Cooldowns
// count asked questions, not wall-clock time.
func (s *State) CooldownBlocked(qid string) bool {
	cd, ok := s.Cooldowns[qid]
	return ok && len(s.Asked) < cd.Until
}

// HasTag reports whether the session tag set contains t.
func (s *State) HasTag(t string) bool {
	return slices.Contains(s.Tags, t)
}

// AxisConfidence returns an axis's confidence, 0 for unknown axes.
func (s *State) AxisConfidence(id string) float64 {
	return s.Axes[id].Confidence
}

// ModuleConfidence returns a module's confidence, 0 for unknown modules.
func (s *State) ModuleConfidence(id string) float64 {
	return s.Modules[id].Confidence
}

// Mode returns a mode's current value; unknown modes read as ModeUnknown.
func (s *State) Mode(id string) catalog.ModeValue {
	v, ok := s.Modes[id]
	if !ok {
		return catalog.ModeUnknown
	}
	return v
}

// #endregion queries

// #region focus-predicate
// Matches reports whether a question with touch set t touches the focus.
// A nil focus matches nothing.
func (f *Focus) Matches(t catalog.TouchSet) bool {
	if f == nil {
		return false
	}
	switch f.Kind {
	case FocusAxis:
		return t.HasAxis(f.ID)
	case FocusModule:
		return t.HasModule(f.ID)
	case FocusMode:
		return t.HasMode(f.ID)
	}
	return false
}

// AllowsRepeat reports whether already-asked questions may be asked again.
// Only mode focus re-asks.
func (f *Focus) AllowsRepeat() bool {
	return f != nil && f.Kind == FocusMode
}

// IgnoredAxis is the axis whose confidence requirements are waived while
// focused on it; empty for non-axis focus.
func (f *Focus) IgnoredAxis() string {
	if f == nil || f.Kind != FocusAxis {
		return ""
	}
	return f.ID
}

// #endregion focus-predicate

// #region safety-sets
// IsLine reports whether tag is blocked.
func (s Safety) IsLine(tag string) bool { return slices.Contains(s.Lines, tag) }

// IsVeil reports whether tag is veiled.
func (s Safety) IsVeil(tag string) bool { return slices.Contains(s.Veils, tag) }

// Completed reports whether safety configuration is finished.
func (s Safety) Completed() bool { return s.CompletionMode == CompletionCompleted }

// #endregion safety-sets
