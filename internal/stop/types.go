package stop

// #region reasons
// Reason codes, one per decision branch.
const (
	ReasonAxisModuleDefined = "axis_module_defined_override"
	ReasonAxisMix           = "axis_mix_override"
	ReasonMaxQuestions      = "max_questions_forced"
	ReasonMinQuestions      = "min_questions"
	ReasonLowAxisConfidence = "low_axis_confidence"
	ReasonLowMargin         = "low_margin"
	ReasonConflicts         = "conflicts"
	ReasonAxisUndefined     = "axis_undefined"
	ReasonAxisMixMissing    = "axis_mix_missing"
	ReasonSaturated         = "saturated"
)

// #endregion reasons

// #region decision
// Buckets are the fixed confidence edges: unknown below Low, low below
// Medium, medium below High, high at or above High.
type Buckets struct {
	Low    float64 `json:"low"`
	Medium float64 `json:"medium"`
	High   float64 `json:"high"`
}

// DefaultBuckets returns the edges used for every stop decision.
func DefaultBuckets() Buckets {
	return Buckets{Low: 0.2, Medium: 0.4, High: 0.66}
}

// Counts is how many key axes fall in each bucket.
type Counts struct {
	High    int `json:"high"`
	Medium  int `json:"medium"`
	Low     int `json:"low"`
	Unknown int `json:"unknown"`
}

// Metrics is the snapshot every decision is computed from.
type Metrics struct {
	KeyAxes             []string  `json:"key_axes"`
	AxisIDs             []string  `json:"axis_ids"`
	AxisConf            []float64 `json:"axis_conf"`
	MinAxisConfidence   *float64  `json:"min_axis_confidence"` // nil without key axes
	Thresholds          Buckets   `json:"thresholds"`
	AxisCounts          Counts    `json:"axis_counts"`
	ModuleIDs           []string  `json:"module_ids"`
	ModuleConf          []float64 `json:"module_conf"`
	ModuleMinConfidence float64   `json:"module_min_confidence"`
	ModulesUnknown      int       `json:"modules_unknown"`
	Conflicts           int       `json:"conflicts"`
	Margin              *float64  `json:"margin"`
	Asked               int       `json:"asked"`
}

// Decision is the stop evaluator's verdict. Reasons[0] is always the
// reason code of the branch that decided.
type Decision struct {
	Propose bool     `json:"propose"`
	Reasons []string `json:"reasons"`
	Metrics Metrics  `json:"metrics"`
}

// Reason returns the deciding reason code.
func (d Decision) Reason() string {
	if len(d.Reasons) == 0 {
		return ""
	}
	return d.Reasons[0]
}

// #endregion decision
