package gate

import (
	"github.com/yegorkir/aqs/internal/catalog"
	"github.com/yegorkir/aqs/internal/state"
)

// #region admit
// Admit runs the checks every question source shares, in order, and stops
// at the first failure: asked history, cooldown, eligibility, safety.
func Admit(cat *catalog.Catalogue, q *catalog.Question, st *state.State, opts AdmitOptions) Admission {
	if q == nil {
		return Admission{Rejection: RejectUnknown}
	}

	// --- Hard checks ---

	// 1. Already asked
	if !opts.AllowRepeat && st.HasAsked(q.ID) {
		return Admission{Rejection: RejectAsked}
	}

	// 2. Cooling down
	if st.CooldownBlocked(q.ID) {
		return Admission{Rejection: RejectCooldown}
	}

	// 3. Requires/forbids
	if !Eligible(q, st, opts.IgnoreAxis) {
		return Admission{Rejection: RejectEligibility}
	}

	// 4. Safety
	safety := SafetyStatus(q, st, cat)
	if !safety.Allowed {
		return Admission{Rejection: RejectSafety, Safety: safety}
	}

	return Admission{Admitted: true, Safety: safety}
}

// AdmitByID is Admit for a question id; unknown ids are rejected.
func AdmitByID(cat *catalog.Catalogue, qid string, st *state.State, opts AdmitOptions) Admission {
	q, ok := cat.Question(qid)
	if !ok {
		return Admission{Rejection: RejectUnknown}
	}
	return Admit(cat, q, st, opts)
}

// FocusOptions returns the admit options that apply under the session's focus.
func FocusOptions(st *state.State) AdmitOptions {
	return AdmitOptions{AllowRepeat: st.Focus.AllowsRepeat(), IgnoreAxis: st.Focus.IgnoredAxis()}
}

// #endregion admit
