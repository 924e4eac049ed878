package gate

import (
	"slices"

	"github.com/yegorkir/aqs/internal/catalog"
	"github.com/yegorkir/aqs/internal/state"
)

// #region safety-gate
// SafetyStatus classifies a question against the session's safety settings.
// Content tags of the question and all of its options are compared after
// alias resolution. Checks run in order and the first block wins, so a tag
// that is both a line and a veil blocks.
func SafetyStatus(q *catalog.Question, st *state.State, cat *catalog.Catalogue) SafetyDecision {
	tags := canonicalTags(cat, q.AllContentTags())

	// 1. Sensitive groups stay closed until safety setup is done
	if !st.Safety.Completed() {
		for _, t := range tags {
			if cat.IsSensitive(t) {
				return SafetyDecision{Allowed: false, Reason: ReasonPreSafetyGate, Tag: t}
			}
		}
	}

	lines := canonicalTags(cat, st.Safety.Lines)
	veils := canonicalTags(cat, st.Safety.Veils)

	// 2. Lines exclude outright
	for _, t := range tags {
		if slices.Contains(lines, t) {
			return SafetyDecision{Allowed: false, Reason: ReasonLine, Tag: t}
		}
	}

	// 3. Veils need a softened variant
	for _, t := range tags {
		if !slices.Contains(veils, t) {
			continue
		}
		if q.Veil == nil {
			return SafetyDecision{Allowed: false, Reason: ReasonVeilMissing, Tag: t}
		}
		return SafetyDecision{Allowed: true, Veiled: true}
	}

	return SafetyDecision{Allowed: true}
}

func canonicalTags(cat *catalog.Catalogue, tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		c := cat.CanonicalTag(t)
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}

// #endregion safety-gate
