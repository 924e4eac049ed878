package selector

import (
	"cmp"
	"slices"

	"github.com/yegorkir/aqs/internal/catalog"
	"github.com/yegorkir/aqs/internal/gate"
	"github.com/yegorkir/aqs/internal/state"
)

// #region pick
// Pick chooses the next question. It is pure: the state is read, never
// modified, and the resulting followup queue is returned in Selection.Pending.
//
// A pending followup that passes every check always wins. Otherwise all
// non-excluded questions are filtered and scored; a priority-tier override
// may then pick a dilemma at random before the default highest-score pick.
func Pick(cat *catalog.Catalogue, st *state.State, rnd RandSource) Selection {
	// 1. Followup precedence
	qid, pending, ok := pickFollowup(cat, st)
	if ok {
		return Selection{
			QID:     qid,
			Pending: pending,
			Debug: Debug{
				Top:            []Candidate{},
				FollowupForced: true,
				FollowupQID:    qid,
			},
		}
	}
	st = withPending(st, pending)

	// 2. Candidate enumeration
	candidates, rejected := enumerate(cat, st)
	slices.SortStableFunc(candidates, func(a, b Candidate) int {
		return cmp.Compare(b.Score.Total, a.Score.Total)
	})

	out := Selection{Pending: st.Pending, Debug: Debug{Count: len(candidates), Rejected: rejected}}

	// 3. Priority-tier override
	if p, ok := pickPriority(st, candidates, rnd); ok {
		out.QID = p.pick.QID
		out.Debug.Top = head(p.prioritized)
		out.Debug.Margin = margin(p.prioritized)
		out.Debug.Priority = &p.detail
		return out
	}

	// 4. Highest score, definition order on ties
	out.Debug.Top = head(candidates)
	out.Debug.Margin = margin(candidates)
	if len(candidates) > 0 {
		out.QID = candidates[0].QID
	}
	return out
}

// #endregion pick

// #region followups
// pickFollowup drains the queue in order. Entries that are unknown or
// already asked are dropped; entries that are only temporarily blocked stay
// queued in their original order. The picked entry is removed.
func pickFollowup(cat *catalog.Catalogue, st *state.State) (string, []string, bool) {
	pending := make([]string, 0, len(st.Pending))
	for i, qid := range st.Pending {
		a := gate.AdmitByID(cat, qid, st, gate.AdmitOptions{})
		switch {
		case a.Admitted:
			pending = append(pending, st.Pending[i+1:]...)
			return qid, pending, true
		case a.Rejection == gate.RejectUnknown || a.Rejection == gate.RejectAsked:
			continue
		default:
			pending = append(pending, qid)
		}
	}
	return "", pending, false
}

func withPending(st *state.State, pending []string) *state.State {
	if slices.Equal(st.Pending, pending) {
		return st
	}
	c := *st
	c.Pending = pending
	return &c
}

// #endregion followups

// #region enumerate
func enumerate(cat *catalog.Catalogue, st *state.State) ([]Candidate, Rejections) {
	var rejected Rejections
	candidates := []Candidate{}
	opts := gate.FocusOptions(st)

	for _, q := range cat.Questions() {
		if q.HasTag(catalog.TagPoolExclude) {
			rejected.PoolExclude++
			continue
		}
		a := gate.Admit(cat, q, st, opts)
		switch a.Rejection {
		case gate.RejectAsked:
			rejected.Asked++
			continue
		case gate.RejectCooldown:
			rejected.Cooldown++
			continue
		case gate.RejectEligibility:
			rejected.Eligibility++
			continue
		case gate.RejectSafety:
			rejected.Safety++
			continue
		}
		if st.Focus != nil && !st.Focus.Matches(q.Touched) {
			rejected.Focus++
			continue
		}
		candidates = append(candidates, Candidate{
			QID:     q.ID,
			Score:   Score(q, st, a.Safety.Veiled, cat),
			Veiled:  a.Safety.Veiled,
			Dilemma: q.HasTag(catalog.TagDilemma),
		})
	}
	return candidates, rejected
}

// #endregion enumerate

// #region focus
// FocusAvailable reports whether any unasked question could still serve the
// session's focus. Unlike Pick, asked questions never count, even under mode focus.
func FocusAvailable(cat *catalog.Catalogue, st *state.State) bool {
	if st.Focus == nil {
		return false
	}
	opts := gate.AdmitOptions{IgnoreAxis: st.Focus.IgnoredAxis()}
	for _, q := range cat.Questions() {
		if q.HasTag(catalog.TagPoolExclude) {
			continue
		}
		if !gate.Admit(cat, q, st, opts).Admitted {
			continue
		}
		if st.Focus.Matches(q.Touched) {
			return true
		}
	}
	return false
}

// #endregion focus

// #region helpers
// margin is the score gap between the two best candidates; nil with fewer than two.
// candidates must already be sorted by descending total.
func margin(candidates []Candidate) *float64 {
	if len(candidates) < 2 {
		return nil
	}
	m := candidates[0].Score.Total - candidates[1].Score.Total
	return &m
}

func head(candidates []Candidate) []Candidate {
	return slices.Clone(candidates[:min(TopN, len(candidates))])
}

// #endregion helpers
