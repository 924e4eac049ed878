package state

import (
	"time"

	"github.com/yegorkir/aqs/internal/catalog"
)

// #region phase
// Phase is the session's position in the welcome → quiz → result flow.
type Phase string

const (
	PhaseWelcome       Phase = "welcome"
	PhaseQuiz          Phase = "quiz"
	PhaseProposeResult Phase = "propose_result"
	PhaseResult        Phase = "result"
)

// #endregion phase

// #region dimensions
// AxisState is the running estimate for one axis.
type AxisState struct {
	Score        float64   // unbounded running sum of deltas
	Confidence   float64   // always in [0,1]
	Evidence     float64   // monotonic accumulator
	RecentDeltas []float64 // most recent RecentDeltaWindow deltas, oldest first
	Conflicts    int       // never decreases
}

// RecentDeltaWindow bounds AxisState.RecentDeltas.
const RecentDeltaWindow = 6

// ModuleState is the running estimate for one module.
type ModuleState struct {
	Level      int // 0..catalog.MaxModuleLevel
	Confidence float64
	Evidence   float64
}

// #endregion dimensions

// #region focus
// FocusKind says which kind of definition a focus targets.
type FocusKind string

const (
	FocusAxis   FocusKind = "axis"
	FocusModule FocusKind = "module"
	FocusMode   FocusKind = "mode"
)

// Focus restricts selection to questions touching one axis, module or mode.
type Focus struct {
	Kind FocusKind
	ID   string
}

// #endregion focus

// #region safety
// CompletionMode records whether the respondent finished safety configuration.
type CompletionMode string

const (
	CompletionUnset     CompletionMode = "unset"
	CompletionCompleted CompletionMode = "completed"
)

// Safety is the respondent's content configuration.
type Safety struct {
	Lines          []string // blocked content tags
	Veils          []string // softened content tags
	CompletionMode CompletionMode
}

// SafetyLevel is a respondent's classification of one safety option.
type SafetyLevel string

const (
	LevelOK   SafetyLevel = "ok"
	LevelVeil SafetyLevel = "veil"
	LevelLine SafetyLevel = "line"
)

// #endregion safety

// #region answers
// Answer is the respondent's reply to one question. Which payload field is
// meaningful depends on the question kind.
type Answer struct {
	QID        string                 `json:"qid"`
	OptionID   string                 `json:"oid,omitempty"`        // choice
	Value      float64                `json:"value,omitempty"`      // slider
	Selections []string               `json:"selections,omitempty"` // safety: selected option ids, each meaning line
	Levels     map[string]SafetyLevel `json:"levels,omitempty"`     // safety_lines_veils: option id → level
	At         time.Time              `json:"ts"`                   // zero means "now" when applied
}

// AnswerRecord is an applied answer as kept in the session's answer log.
type AnswerRecord struct {
	Answer
	Kind catalog.Kind `json:"type"`
}

// Last points at the most recently answered question.
type Last struct {
	QID  string
	Kind catalog.Kind
}

// #endregion answers

// #region session-state
// Cooldown keeps a question ineligible while len(Asked) < Until.
type Cooldown struct {
	Until int
}

// Priority is an axis emphasis tier (1 or 2).
type Priority struct {
	Tier int
}

// Priors are pre-session estimates folded into scoring. Values are fractions in [0,1].
type Priors struct {
	Axes    map[string]float64
	Modules map[string]float64
}

// State is everything one session knows. Core functions take a State and
// return a new one; nothing in a State is shared with another session.
type State struct {
	SessionID string
	Phase     Phase

	Asked     []string
	Answers   []AnswerRecord
	Pending   []string // followup queue, FIFO
	Cooldowns map[string]Cooldown
	Tags      []string // insertion-ordered set

	Axes    map[string]AxisState
	Modules map[string]ModuleState
	Modes   map[string]catalog.ModeValue

	Safety       Safety
	Focus        *Focus
	AxisPriority map[string]Priority
	Stop         catalog.StopConfig
	Priors       *Priors

	LastMargin *float64 // margin of the most recent scored pick; nil when undefined
	Last       Last
	NextQID    string
}

// #endregion session-state
