package followup

import (
	"slices"

	"github.com/yegorkir/aqs/internal/catalog"
	"github.com/yegorkir/aqs/internal/gate"
	"github.com/yegorkir/aqs/internal/state"
)

// #region types
// Trigger says which kind of rule matched.
type Trigger string

const (
	TriggerOption Trigger = "option"
	TriggerRange  Trigger = "range"
)

// Match is the question a followup rule selected.
type Match struct {
	QID       string
	RuleIndex int // position of the rule in the question's declared list
	Trigger   Trigger
	Pool      []string
}

// #endregion types

// #region resolve
// Resolve finds the followup for an answer, or nil. The first rule matching
// the answer wins; a winning rule with no admissible pool entry yields nil
// without trying later rules. Safety questions have no followups.
func Resolve(cat *catalog.Catalogue, st *state.State, q *catalog.Question, ans state.Answer) *Match {
	switch b := q.Body.(type) {
	case *catalog.ChoiceBody:
		for _, rule := range b.Followups {
			if !slices.Contains(rule.OptionIDs, ans.OptionID) {
				continue
			}
			return fromPool(cat, st, rule.Pool, rule.Index, TriggerOption)
		}
	case *catalog.SliderBody:
		for _, rule := range b.Followups {
			if !rule.Range.Contains(ans.Value) {
				continue
			}
			return fromPool(cat, st, rule.Pool, rule.Index, TriggerRange)
		}
	}
	return nil
}

// fromPool returns the first pool entry that is known, unasked, not already
// pending, not cooling down, eligible and safety-allowed. Focus never applies.
func fromPool(cat *catalog.Catalogue, st *state.State, pool []string, index int, trigger Trigger) *Match {
	for _, qid := range pool {
		if st.IsPending(qid) {
			continue
		}
		if !gate.AdmitByID(cat, qid, st, gate.AdmitOptions{}).Admitted {
			continue
		}
		return &Match{QID: qid, RuleIndex: index, Trigger: trigger, Pool: pool}
	}
	return nil
}

// #endregion resolve
