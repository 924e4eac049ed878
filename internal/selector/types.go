package selector

import "github.com/yegorkir/aqs/internal/catalog"

// #region rand-source
// RandSource is the randomness used for priority exploration.
// *math/rand/v2.Rand satisfies it; tests pin a seed.
type RandSource interface {
	IntN(n int) int
}

// #endregion rand-source

// #region utility
// AxisNeed is the information need one touched axis contributes to the base score.
type AxisNeed struct {
	NeedConf     float64 `json:"need_conf"`
	NeedConflict float64 `json:"need_conflict"`
	Need         float64 `json:"need"`
}

// AxisPrior is the prior-gain detail for one touched axis.
type AxisPrior struct {
	Value float64 `json:"value"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Peak  float64 `json:"peak"`
	Gain  float64 `json:"gain"`
}

// ModulePrior is the prior-gain detail for one touched module.
type ModulePrior struct {
	Value float64 `json:"value"`
	Gain  float64 `json:"gain"`
}

// PriorDetail breaks the prior gain down per axis and module.
type PriorDetail struct {
	Axes    map[string]AxisPrior   `json:"axes"`
	Modules map[string]ModulePrior `json:"modules"`
}

// Penalties breaks the penalty down by source.
type Penalties struct {
	Fatigue float64 `json:"fatigue"`
	Veil    float64 `json:"veil"`
}

// Utility is a candidate's score with every intermediate kept for diagnostics.
// Total = Base + PriorGain - Penalty.
type Utility struct {
	Total     float64             `json:"total"`
	Base      float64             `json:"base"`
	PriorGain float64             `json:"prior_gain"`
	Penalty   float64             `json:"penalty"`
	Axes      map[string]AxisNeed `json:"axes"`
	Prior     PriorDetail         `json:"prior"`
	Penalties Penalties           `json:"penalties"`
	Touched   catalog.TouchSet    `json:"-"`
}

// #endregion utility

// #region pick
// Candidate is a question that passed every filter.
type Candidate struct {
	QID     string  `json:"qid"`
	Score   Utility `json:"score"`
	Veiled  bool    `json:"veiled"`
	Dilemma bool    `json:"is_dilemma"`
}

// Rejections counts why questions were filtered out.
type Rejections struct {
	Asked       int `json:"asked"`
	Cooldown    int `json:"cooldown"`
	Eligibility int `json:"eligibility"`
	Focus       int `json:"focus"`
	Safety      int `json:"safety"`
	PoolExclude int `json:"pool_exclude"`
}

// PriorityDetail describes a priority-tier override.
type PriorityDetail struct {
	Tier            int      `json:"tier"`
	Axes            []string `json:"axes"`
	CandidatesCount int      `json:"candidates_count"`
	Pick            string   `json:"pick"`
}

// Debug is the selector's decision trace.
type Debug struct {
	Top            []Candidate     `json:"top"`
	Count          int             `json:"count"`
	Rejected       Rejections      `json:"rejected"`
	FollowupForced bool            `json:"followup_forced"`
	FollowupQID    string          `json:"followup_qid,omitempty"`
	Margin         *float64        `json:"margin"`
	Priority       *PriorityDetail `json:"priority"`
}

// Selection is the selector's output. QID is empty when no question is available.
// Pending is the followup queue after the pick; the caller stores it.
type Selection struct {
	QID     string
	Debug   Debug
	Pending []string
}

// TopN is how many scored candidates Debug.Top keeps.
const TopN = 5

// #endregion pick
