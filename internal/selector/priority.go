package selector

import (
	"math/rand/v2"
	"slices"

	"github.com/yegorkir/aqs/internal/state"
)

// #region priority
type priorityPick struct {
	pick        Candidate
	prioritized []Candidate
	detail      PriorityDetail
}

// pickPriority forces exploration of dilemmas touching the highest-tier
// priority axes: tier 2 if any axis has it, else tier 1. The pick is
// uniform over matching dilemmas, not by score. candidates must be sorted.
func pickPriority(st *state.State, candidates []Candidate, rnd RandSource) (priorityPick, bool) {
	axes, tier := priorityAxes(st.AxisPriority)
	if len(axes) == 0 {
		return priorityPick{}, false
	}

	var prioritized []Candidate
	for _, c := range candidates {
		if c.Dilemma && c.Score.Touched.HasAnyAxis(axes) {
			prioritized = append(prioritized, c)
		}
	}
	if len(prioritized) == 0 {
		return priorityPick{}, false
	}

	pick := prioritized[intN(rnd, len(prioritized))]
	return priorityPick{
		pick:        pick,
		prioritized: prioritized,
		detail: PriorityDetail{
			Tier:            tier,
			Axes:            axes,
			CandidatesCount: len(prioritized),
			Pick:            pick.QID,
		},
	}, true
}

// priorityAxes returns the sorted axis ids of the highest populated tier.
func priorityAxes(priority map[string]state.Priority) ([]string, int) {
	var tier1, tier2 []string
	for axisID, p := range priority {
		switch p.Tier {
		case 2:
			tier2 = append(tier2, axisID)
		case 1:
			tier1 = append(tier1, axisID)
		}
	}
	if len(tier2) > 0 {
		slices.Sort(tier2)
		return tier2, 2
	}
	slices.Sort(tier1)
	return tier1, 1
}

func intN(rnd RandSource, n int) int {
	if rnd == nil {
		return rand.IntN(n)
	}
	return rnd.IntN(n)
}

// #endregion priority
