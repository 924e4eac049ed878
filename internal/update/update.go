package update

import (
	"maps"
	"slices"
	"time"

	"github.com/yegorkir/aqs/internal/catalog"
	"github.com/yegorkir/aqs/internal/state"
)

// #region update-function
// Apply is a pure function that computes the session state after an answer.
// The input state is never modified. Effects referring to unknown axes,
// modules or modes contribute nothing. An unknown question id is a no-op.
func Apply(cat *catalog.Catalogue, old *state.State, ans state.Answer) Result {
	st := old.Clone()
	log := newLog(ans)

	q, ok := cat.Question(ans.QID)
	if !ok {
		return Result{State: st, Log: log, NoOp: true}
	}
	log.Kind = q.Kind()
	if ans.At.IsZero() {
		ans.At = time.Now().UTC()
		log.Answer.At = ans.At
	}

	effects := resolveEffects(q, ans)

	// 1. Axis deltas feed the score and the recent-deltas window
	for _, axisID := range sortedKeys(effects.AxisDeltas) {
		ax, ok := st.Axes[axisID]
		if !ok {
			continue
		}
		delta := effects.AxisDeltas[axisID]
		ax.Score += delta
		ax.RecentDeltas = append(ax.RecentDeltas, delta)
		if n := len(ax.RecentDeltas); n > state.RecentDeltaWindow {
			ax.RecentDeltas = slices.Clone(ax.RecentDeltas[n-state.RecentDeltaWindow:])
		}
		st.Axes[axisID] = ax
		ch := log.AxisChanges[axisID]
		ch.Delta += delta
		log.AxisChanges[axisID] = ch
	}

	// 2. Axis evidence
	for _, axisID := range sortedKeys(effects.AxisEvidence) {
		ax, ok := st.Axes[axisID]
		if !ok {
			continue
		}
		ev := effects.AxisEvidence[axisID]
		ax.Evidence += ev
		st.Axes[axisID] = ax
		ch := log.AxisChanges[axisID]
		ch.Evidence += ev
		log.AxisChanges[axisID] = ch
	}

	// 3. Conflicts, then 4. confidence, for every axis touched this turn
	for axisID, ch := range log.AxisChanges {
		ax := st.Axes[axisID]
		params := conflictParams(cat, axisID)
		if HasConflict(ax.RecentDeltas, params.Window, params.StrongDelta) {
			ax.Conflicts++
			ch.ConflictDetected = true
		}
		ax.Confidence = AxisConfidence(ax.Evidence, ax.Conflicts, params.Penalty)
		st.Axes[axisID] = ax
		ch.Conflicts = ax.Conflicts
		ch.Confidence = ax.Confidence
		log.AxisChanges[axisID] = ch
	}

	// 5. Module levels: relative deltas, then absolute assignments
	for _, mid := range sortedKeys(effects.ModuleDeltaLevels) {
		ms, ok := st.Modules[mid]
		if !ok {
			continue
		}
		d := effects.ModuleDeltaLevels[mid]
		ms.Level = clampLevel(ms.Level + d)
		st.Modules[mid] = ms
		ch := log.ModuleChanges[mid]
		ch.DeltaLevel = &d
		ch.Level = ms.Level
		ch.Confidence = ms.Confidence
		log.ModuleChanges[mid] = ch
	}
	for _, mid := range sortedKeys(effects.SetModuleLevel) {
		ms, ok := st.Modules[mid]
		if !ok {
			continue
		}
		lvl := clampLevel(effects.SetModuleLevel[mid])
		ms.Level = lvl
		st.Modules[mid] = ms
		ch := log.ModuleChanges[mid]
		ch.SetLevel = &lvl
		ch.Level = lvl
		ch.Confidence = ms.Confidence
		log.ModuleChanges[mid] = ch
	}

	// 6. Module evidence
	for _, mid := range sortedKeys(effects.ModuleEvidence) {
		ms, ok := st.Modules[mid]
		if !ok {
			continue
		}
		ev := effects.ModuleEvidence[mid]
		ms.Evidence += ev
		ms.Confidence = ModuleConfidence(ms.Evidence)
		st.Modules[mid] = ms
		ch := log.ModuleChanges[mid]
		ch.Evidence += ev
		ch.Level = ms.Level
		ch.Confidence = ms.Confidence
		log.ModuleChanges[mid] = ch
	}

	// 7. Modes
	for _, modeID := range sortedKeys(effects.SetModes) {
		if _, ok := st.Modes[modeID]; !ok {
			continue
		}
		v := catalog.NormalizeMode(effects.SetModes[modeID])
		st.Modes[modeID] = v
		log.ModeChanges[modeID] = v
	}

	// 8. Tags, idempotent
	for _, t := range effects.SetTags {
		if !st.HasTag(t) {
			st.Tags = append(st.Tags, t)
			log.TagsAdded = append(log.TagsAdded, t)
		}
	}
	for _, t := range effects.UnsetTags {
		if i := slices.Index(st.Tags, t); i >= 0 {
			st.Tags = slices.Delete(st.Tags, i, i+1)
			log.TagsRemoved = append(log.TagsRemoved, t)
		}
	}

	// 9. Safety configuration from a safety answer
	if body, ok := q.Body.(*catalog.SafetyBody); ok {
		applySafety(cat, st, body, ans)
		log.Safety = safetyChange(st)
	}

	// 10. History and cooldown
	st.Asked = append(st.Asked, q.ID)
	st.Answers = append(st.Answers, state.AnswerRecord{Answer: ans, Kind: q.Kind()})
	st.Last = state.Last{QID: q.ID, Kind: q.Kind()}
	if q.Cooldown > 0 {
		until := len(st.Asked) + q.Cooldown
		st.Cooldowns[q.ID] = state.Cooldown{Until: until}
		log.CooldownUntil = until
	}

	return Result{State: st, Log: log}
}

// #endregion update-function

// #region safety-edit
// ApplySafetyEdit folds a fresh answer to a safety question that is already
// in the history. Only lines, veils and the completion mode change: asked
// history, answers, cooldowns and scores are left alone. Anything but a
// known safety question is a no-op.
func ApplySafetyEdit(cat *catalog.Catalogue, old *state.State, ans state.Answer) Result {
	st := old.Clone()
	log := newLog(ans)

	q, ok := cat.Question(ans.QID)
	if !ok {
		return Result{State: st, Log: log, NoOp: true}
	}
	body, ok := q.Body.(*catalog.SafetyBody)
	if !ok {
		return Result{State: st, Log: log, NoOp: true}
	}
	log.Kind = q.Kind()
	if ans.At.IsZero() {
		log.Answer.At = time.Now().UTC()
	}

	applySafety(cat, st, body, log.Answer)
	log.Safety = safetyChange(st)
	return Result{State: st, Log: log}
}

func safetyChange(st *state.State) *SafetyChange {
	return &SafetyChange{
		Lines:          slices.Clone(st.Safety.Lines),
		Veils:          slices.Clone(st.Safety.Veils),
		CompletionMode: st.Safety.CompletionMode,
	}
}

// #endregion safety-edit

// #region effects
func resolveEffects(q *catalog.Question, ans state.Answer) catalog.Effects {
	switch b := q.Body.(type) {
	case *catalog.ChoiceBody:
		if o, ok := b.Option(ans.OptionID); ok {
			return o.Effects
		}
	case *catalog.SliderBody:
		if e, ok := b.EffectsFor(ans.Value); ok {
			return e
		}
	}
	return catalog.Effects{}
}

// applySafety folds a safety answer into the line/veil sets. Every option's
// tags are reclassified: tri-state answers carry a level per option (missing
// means ok); plain answers list the options that are lines.
func applySafety(cat *catalog.Catalogue, st *state.State, body *catalog.SafetyBody, ans state.Answer) {
	for _, o := range body.Options {
		level := state.LevelOK
		if body.TriState {
			if l, ok := ans.Levels[o.ID]; ok {
				level = l
			}
		} else if slices.Contains(ans.Selections, o.ID) {
			level = state.LevelLine
		}
		for _, raw := range o.Tags() {
			tag := cat.CanonicalTag(raw)
			st.Safety.Lines = slices.DeleteFunc(st.Safety.Lines, func(t string) bool { return cat.CanonicalTag(t) == tag })
			st.Safety.Veils = slices.DeleteFunc(st.Safety.Veils, func(t string) bool { return cat.CanonicalTag(t) == tag })
			switch level {
			case state.LevelLine:
				st.Safety.Lines = append(st.Safety.Lines, tag)
			case state.LevelVeil:
				st.Safety.Veils = append(st.Safety.Veils, tag)
			}
		}
	}
	st.Safety.CompletionMode = state.CompletionCompleted
}

func conflictParams(cat *catalog.Catalogue, axisID string) catalog.ConflictParams {
	if def, ok := cat.Axis(axisID); ok {
		return def.Conflict
	}
	return catalog.DefaultConflictParams()
}

// #endregion effects

// #region helpers
func clampLevel(l int) int {
	return min(max(l, 0), catalog.MaxModuleLevel)
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

// #endregion helpers
