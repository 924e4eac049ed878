package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yegorkir/aqs/internal/catalog"
	"github.com/yegorkir/aqs/internal/selector"
	"github.com/yegorkir/aqs/internal/stop"
	"github.com/yegorkir/aqs/internal/update"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	return New(prometheus.NewRegistry())
}

func TestObservePickSources(t *testing.T) {
	m := newTestMetrics(t)
	margin := 0.3

	m.ObservePick(selector.Selection{QID: "q1", Debug: selector.Debug{FollowupForced: true}})
	m.ObservePick(selector.Selection{QID: "q2", Debug: selector.Debug{Priority: &selector.PriorityDetail{Tier: 2}}})
	m.ObservePick(selector.Selection{QID: "q3", Debug: selector.Debug{
		Margin:   &margin,
		Rejected: selector.Rejections{Asked: 2, PoolExclude: 1},
	}})
	m.ObservePick(selector.Selection{})

	for source, want := range map[string]float64{"followup": 1, "priority": 1, "score": 1, "none": 1} {
		if got := testutil.ToFloat64(m.PicksTotal.WithLabelValues(source)); got != want {
			t.Errorf("PicksTotal[%s] = %f, want %f", source, got, want)
		}
	}
	if got := testutil.ToFloat64(m.RejectionsTotal.WithLabelValues("asked")); got != 2 {
		t.Errorf("RejectionsTotal[asked] = %f, want 2", got)
	}
	if got := testutil.CollectAndCount(m.RejectionsTotal); got != 2 {
		t.Errorf("expected 2 rejection series, got %d", got)
	}
	if got := testutil.CollectAndCount(m.PickMargin); got != 1 {
		t.Errorf("expected margin histogram, got %d series", got)
	}
}

func TestObserveAnswer(t *testing.T) {
	m := newTestMetrics(t)

	m.ObserveAnswer(update.Result{NoOp: true})
	m.ObserveAnswer(update.Result{Log: update.Log{
		Kind: catalog.KindChoice,
		AxisChanges: map[string]update.AxisChange{
			"a": {ConflictDetected: true, Confidence: 0.4},
			"b": {Confidence: 0.1},
		},
	}})

	if got := testutil.ToFloat64(m.AnswersTotal.WithLabelValues("noop")); got != 1 {
		t.Errorf("AnswersTotal[noop] = %f, want 1", got)
	}
	if got := testutil.ToFloat64(m.AnswersTotal.WithLabelValues("choice")); got != 1 {
		t.Errorf("AnswersTotal[choice] = %f, want 1", got)
	}
	if got := testutil.ToFloat64(m.ConflictsTotal.WithLabelValues("a")); got != 1 {
		t.Errorf("ConflictsTotal[a] = %f, want 1", got)
	}
	if got := testutil.ToFloat64(m.AxisConfidence.WithLabelValues("a")); got != 0.4 {
		t.Errorf("AxisConfidence[a] = %f, want 0.4", got)
	}
}

func TestObserveStopAndFocus(t *testing.T) {
	m := newTestMetrics(t)

	m.ObserveStop(stop.Decision{Propose: true, Reasons: []string{stop.ReasonAxisMix}})
	m.ObserveStop(stop.Decision{Reasons: []string{stop.ReasonMinQuestions}})
	m.ObserveFocusExit("confidence_high")

	if got := testutil.ToFloat64(m.StopDecisionsTotal.WithLabelValues(stop.ReasonAxisMix, "true")); got != 1 {
		t.Errorf("StopDecisionsTotal[axis_mix_override,true] = %f, want 1", got)
	}
	if got := testutil.ToFloat64(m.StopDecisionsTotal.WithLabelValues(stop.ReasonMinQuestions, "false")); got != 1 {
		t.Errorf("StopDecisionsTotal[min_questions,false] = %f, want 1", got)
	}
	if got := testutil.ToFloat64(m.FocusExitsTotal.WithLabelValues("confidence_high")); got != 1 {
		t.Errorf("FocusExitsTotal = %f, want 1", got)
	}
}

func TestNilMetricsIsNoOp(t *testing.T) {
	var m *Metrics
	m.ObservePick(selector.Selection{QID: "q"})
	m.ObserveAnswer(update.Result{})
	m.ObserveStop(stop.Decision{})
	m.ObserveFocusExit("no_questions")
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	New(reg)
}
