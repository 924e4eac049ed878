package session

import (
	"errors"

	"go.uber.org/zap"

	"github.com/yegorkir/aqs/internal/followup"
	"github.com/yegorkir/aqs/internal/journal"
	"github.com/yegorkir/aqs/internal/metrics"
	"github.com/yegorkir/aqs/internal/selector"
	"github.com/yegorkir/aqs/internal/state"
	"github.com/yegorkir/aqs/internal/stop"
	"github.com/yegorkir/aqs/internal/update"
)

// ErrAlreadyAnswered rejects a second answer to a question outside mode focus.
var ErrAlreadyAnswered = errors.New("question already answered")

// #region options
// Options wires an Engine's collaborators. Every field may be left zero.
type Options struct {
	Journal journal.Journal     // nil: events are not recorded
	Metrics *metrics.Metrics    // nil: nothing is counted
	Logger  *zap.Logger         // nil: zap.NewNop()
	Rand    selector.RandSource // nil: math/rand/v2 global source
}

// #endregion options

// #region focus-exit
// Focus exit reasons.
const (
	ExitConfidenceHigh = "confidence_high"
	ExitAnswered       = "answered"
	ExitNoQuestions    = "no_questions"
)

// FocusExit describes why a focus ended.
type FocusExit struct {
	Kind       state.FocusKind `json:"type"`
	ID         string          `json:"id"`
	Reason     string          `json:"reason"`
	Confidence *float64        `json:"confidence,omitempty"`
	Value      string          `json:"value,omitempty"`
}

// #endregion focus-exit

// #region outcome
// Outcome is everything one answer cycle produced.
type Outcome struct {
	Log       update.Log
	NoOp      bool
	Followup  *followup.Match
	Stop      stop.Decision
	FocusExit *FocusExit
	Next      string
	Phase     state.Phase
}

// #endregion outcome

// #region share
// SharePayload is the portable record of a session's answers.
type SharePayload struct {
	SessionID  string        `json:"session_id"`
	ExportedAt int64         `json:"exported_at"`
	Answers    []ShareAnswer `json:"answers"`
}

// ShareAnswer is one answer in a SharePayload. Only the field matching
// Type is set.
type ShareAnswer struct {
	Order      int                          `json:"order"`
	QID        string                       `json:"qid"`
	Type       string                       `json:"type"`
	TS         int64                        `json:"ts"`
	OptionID   *string                      `json:"oid,omitempty"`
	Value      *float64                     `json:"value,omitempty"`
	Selections []string                     `json:"selections,omitempty"`
	Levels     map[string]state.SafetyLevel `json:"levels,omitempty"`
}

// #endregion share
