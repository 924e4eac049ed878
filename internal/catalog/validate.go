package catalog

import (
	"fmt"
	"maps"
	"slices"
)

// #region validate

// Validate reports content problems the engine tolerates at runtime.
// Duplicate ids and malformed slider ranges wrap ErrContentSanity; dangling
// references wrap ErrContentReference. An empty result means the bundle is clean.
func Validate(b *Bundle) []error {
	var problems []error
	sanity := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf("%w: "+format, append([]any{ErrContentSanity}, args...)...))
	}
	dangling := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf("%w: "+format, append([]any{ErrContentReference}, args...)...))
	}

	if len(b.Axes) == 0 {
		sanity("axes array is empty")
	}
	if len(b.Questions) == 0 {
		sanity("questions array is empty")
	}

	axisIDs := uniqueIDs(b.Axes, func(a AxisDoc) string { return a.ID }, "axis", sanity)
	moduleIDs := uniqueIDs(b.Modules, func(m ModuleDoc) string { return m.ID }, "module", sanity)
	modeIDs := uniqueIDs(b.Modes, func(m ModeDoc) string { return m.ID }, "mode", sanity)
	tagIDs := uniqueIDs(b.SafetyTags, func(t SafetyTagDoc) string { return t.ID }, "safety tag", sanity)
	questionIDs := uniqueIDs(b.Questions, func(q QuestionDoc) string { return q.ID }, "question", sanity)
	for _, t := range b.SafetyTags {
		for _, alias := range t.Aliases {
			tagIDs[alias] = true
		}
	}

	for _, id := range b.KeyAxes {
		if !axisIDs[id] {
			dangling("key_axes references unknown axis %q", id)
		}
	}
	if b.Preconfig != nil {
		for _, p := range b.Preconfig.AxisPairs {
			for _, id := range p.Pair {
				if !axisIDs[id] {
					dangling("preconfig pair references unknown axis %q", id)
				}
			}
		}
	}

	checkEffects := func(ctx string, e Effects) {
		for _, id := range sortedKeys(e.AxisDeltas) {
			if !axisIDs[id] {
				dangling("%s: axis_deltas references unknown axis %q", ctx, id)
			}
		}
		for _, id := range sortedKeys(e.AxisEvidence) {
			if !axisIDs[id] {
				dangling("%s: axis_evidence references unknown axis %q", ctx, id)
			}
		}
		for _, id := range sortedKeys(e.ModuleDeltaLevels) {
			if !moduleIDs[id] {
				dangling("%s: module_delta_levels references unknown module %q", ctx, id)
			}
		}
		for _, id := range sortedKeys(e.SetModuleLevel) {
			if !moduleIDs[id] {
				dangling("%s: set_module_level references unknown module %q", ctx, id)
			}
		}
		for _, id := range sortedKeys(e.ModuleEvidence) {
			if !moduleIDs[id] {
				dangling("%s: module_evidence references unknown module %q", ctx, id)
			}
		}
		for _, id := range sortedKeys(e.SetModes) {
			if !modeIDs[id] {
				dangling("%s: set_modes references unknown mode %q", ctx, id)
			}
		}
	}
	checkTags := func(ctx string, tags []string) {
		for _, t := range tags {
			if !tagIDs[t] {
				dangling("%s: content tag %q not found in safety_tags", ctx, t)
			}
		}
	}
	checkPool := func(ctx string, pool []string) {
		for _, id := range pool {
			if !questionIDs[id] {
				dangling("%s: followup pool references unknown question %q", ctx, id)
			}
		}
	}

	for _, q := range b.Questions {
		if q.ID == "" {
			continue
		}
		ctx := fmt.Sprintf("question %q", q.ID)
		checkTags(ctx, q.ContentTags)

		var optionIDs []string
		for _, o := range q.Options {
			octx := fmt.Sprintf("%s option %q", ctx, o.ID)
			if slices.Contains(optionIDs, o.ID) {
				sanity("%s: duplicate option id %q", ctx, o.ID)
			}
			optionIDs = append(optionIDs, o.ID)
			checkTags(octx, o.ContentTags)
			checkEffects(octx, o.Effects)
		}
		for _, f := range q.Followups {
			for _, oid := range f.When.OptionIDIn {
				if !slices.Contains(optionIDs, oid) {
					dangling("%s: followup rule references unknown option %q", ctx, oid)
				}
			}
			checkPool(ctx, f.Policy.Pool)
		}

		if q.Type == string(KindSlider) {
			if q.Slider == nil || q.Slider.Min == nil || q.Slider.Max == nil {
				sanity("%s: slider min/max must be numbers", ctx)
			} else if *q.Slider.Min >= *q.Slider.Max {
				sanity("%s: slider min must be < max", ctx)
			}
		}
		for i, r := range q.EffectsByRange {
			rctx := fmt.Sprintf("%s range %d", ctx, i)
			if r.Range.Min == nil || r.Range.Max == nil {
				sanity("%s: range must have numeric min/max", rctx)
			} else if *r.Range.Min > *r.Range.Max {
				sanity("%s: range min must be <= max", rctx)
			}
			checkEffects(rctx, r.Effects)
		}
		for _, f := range q.FollowupsByRange {
			checkPool(ctx, f.Policy.Pool)
		}
	}

	return problems
}

func uniqueIDs[T any](items []T, id func(T) string, label string, report func(string, ...any)) map[string]bool {
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		v := id(item)
		if v == "" {
			report("%s without id", label)
			continue
		}
		if seen[v] {
			report("duplicate %s id %q", label, v)
		}
		seen[v] = true
	}
	return seen
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

// #endregion validate
