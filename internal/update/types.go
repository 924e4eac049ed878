package update

import (
	"github.com/yegorkir/aqs/internal/catalog"
	"github.com/yegorkir/aqs/internal/state"
)

// #region changes
// AxisChange records what one answer did to an axis.
type AxisChange struct {
	Delta            float64 `json:"delta,omitempty"`
	Evidence         float64 `json:"evidence,omitempty"`
	ConflictDetected bool    `json:"conflict_detected,omitempty"`
	Conflicts        int     `json:"conflicts"`
	Confidence       float64 `json:"confidence"`
}

// ModuleChange records what one answer did to a module.
type ModuleChange struct {
	DeltaLevel *int    `json:"delta_level,omitempty"`
	SetLevel   *int    `json:"set_level,omitempty"`
	Level      int     `json:"level"`
	Evidence   float64 `json:"evidence,omitempty"`
	Confidence float64 `json:"confidence"`
}

// SafetyChange records the safety configuration after a safety answer.
type SafetyChange struct {
	Lines          []string             `json:"lines"`
	Veils          []string             `json:"veils"`
	CompletionMode state.CompletionMode `json:"completion_mode"`
}

// #endregion changes

// #region log
// Log is the structured record of every change one answer made.
type Log struct {
	QID           string                       `json:"qid"`
	Kind          catalog.Kind                 `json:"type"`
	Answer        state.Answer                 `json:"answer"`
	AxisChanges   map[string]AxisChange        `json:"axis_changes"`
	ModuleChanges map[string]ModuleChange      `json:"module_changes"`
	ModeChanges   map[string]catalog.ModeValue `json:"mode_changes"`
	TagsAdded     []string                     `json:"tags_added"`
	TagsRemoved   []string                     `json:"tags_removed"`
	Safety        *SafetyChange                `json:"safety,omitempty"`
	CooldownUntil int                          `json:"cooldown_until,omitempty"`
}

func newLog(ans state.Answer) Log {
	return Log{
		QID:           ans.QID,
		Answer:        ans,
		AxisChanges:   map[string]AxisChange{},
		ModuleChanges: map[string]ModuleChange{},
		ModeChanges:   map[string]catalog.ModeValue{},
		TagsAdded:     []string{},
		TagsRemoved:   []string{},
	}
}

// #endregion log

// #region update-result
// Result bundles everything returned by Apply.
type Result struct {
	State *state.State
	Log   Log
	NoOp  bool // the answered question id is unknown; State is an unchanged copy
}

// #endregion update-result
