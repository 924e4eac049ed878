package gate

import (
	"github.com/yegorkir/aqs/internal/catalog"
	"github.com/yegorkir/aqs/internal/state"
)

// #region eligibility
// Eligible checks a question's requires/forbids against the session.
// ignoreAxis, when non-empty, is skipped in both confidence checks so a
// focused axis does not disqualify its own questions.
func Eligible(q *catalog.Question, st *state.State, ignoreAxis string) bool {
	req := q.Eligibility.Requires
	fb := q.Eligibility.Forbids

	// 1. Minimum asked count
	if len(st.Asked) < req.MinAsked {
		return false
	}

	// 2. Axis confidence must stay below the threshold
	for axisID, thr := range req.AxesConfidenceLT {
		if axisID == ignoreAxis {
			continue
		}
		if st.AxisConfidence(axisID) >= thr {
			return false
		}
	}

	// 3. Axis confidence must have reached the threshold
	for axisID, thr := range req.AxesConfidenceGTE {
		if axisID == ignoreAxis {
			continue
		}
		if st.AxisConfidence(axisID) < thr {
			return false
		}
	}

	// 4. Required tags
	for _, t := range req.TagsAll {
		if !st.HasTag(t) {
			return false
		}
	}
	if len(req.TagsAny) > 0 && !anyTag(st, req.TagsAny) {
		return false
	}

	// 5. Required mode values
	for modeID, want := range req.Modes {
		if !st.Mode(modeID).Matches(want) {
			return false
		}
	}

	// 6. Forbidden tags and mode values
	if anyTag(st, fb.TagsAny) {
		return false
	}
	for modeID, banned := range fb.Modes {
		if st.Mode(modeID).Matches(banned) {
			return false
		}
	}

	return true
}

// EligibleForFocus is Eligible with the focused axis (if any) exempted.
func EligibleForFocus(q *catalog.Question, st *state.State) bool {
	return Eligible(q, st, st.Focus.IgnoredAxis())
}

func anyTag(st *state.State, tags []string) bool {
	for _, t := range tags {
		if st.HasTag(t) {
			return true
		}
	}
	return false
}

// #endregion eligibility
