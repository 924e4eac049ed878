// Package metrics exposes session counters for Prometheus.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/yegorkir/aqs/internal/selector"
	"github.com/yegorkir/aqs/internal/stop"
	"github.com/yegorkir/aqs/internal/update"
)

const (
	namespace = "aqs"
	subsystem = "session"
)

// #region metrics
// Metrics holds the engine counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// PicksTotal counts selector outcomes. Labels: source (followup, priority, score, none)
	PicksTotal *prometheus.CounterVec

	// RejectionsTotal counts filtered candidates. Labels: reason
	RejectionsTotal *prometheus.CounterVec

	// AnswersTotal counts applied answers. Labels: kind (choice, slider, safety, noop)
	AnswersTotal *prometheus.CounterVec

	// ConflictsTotal counts conflict detections per axis. Labels: axis
	ConflictsTotal *prometheus.CounterVec

	// StopDecisionsTotal counts stop checks. Labels: reason, propose
	StopDecisionsTotal *prometheus.CounterVec

	// FocusExitsTotal counts focus exits. Labels: reason
	FocusExitsTotal *prometheus.CounterVec

	// AxisConfidence is the latest confidence per axis. Labels: axis
	AxisConfidence *prometheus.GaugeVec

	// PickMargin is the distribution of the top-two score gap.
	PickMargin prometheus.Histogram
}

// New creates and registers the counters on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PicksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "picks_total",
			Help: "Questions picked by source",
		}, []string{"source"}),
		RejectionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "rejections_total",
			Help: "Candidates filtered out by reason",
		}, []string{"reason"}),
		AnswersTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "answers_total",
			Help: "Answers applied by question kind",
		}, []string{"kind"}),
		ConflictsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "conflicts_total",
			Help: "Axis conflicts detected",
		}, []string{"axis"}),
		StopDecisionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "stop_decisions_total",
			Help: "Stop checks by deciding reason",
		}, []string{"reason", "propose"}),
		FocusExitsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "focus_exits_total",
			Help: "Focus exits by reason",
		}, []string{"reason"}),
		AxisConfidence: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "axis_confidence",
			Help: "Latest confidence per axis",
		}, []string{"axis"}),
		PickMargin: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name:    "pick_margin",
			Help:    "Score gap between the two best candidates",
			Buckets: []float64{0.01, 0.05, 0.12, 0.25, 0.5, 1, 2},
		}),
	}
}

// #endregion metrics

// #region observe
// ObservePick records one selector run.
func (m *Metrics) ObservePick(p selector.Selection) {
	if m == nil {
		return
	}
	source := "score"
	switch {
	case p.Debug.FollowupForced:
		source = "followup"
	case p.QID == "":
		source = "none"
	case p.Debug.Priority != nil:
		source = "priority"
	}
	m.PicksTotal.WithLabelValues(source).Inc()

	r := p.Debug.Rejected
	for reason, n := range map[string]int{
		"asked":        r.Asked,
		"cooldown":     r.Cooldown,
		"eligibility":  r.Eligibility,
		"focus":        r.Focus,
		"safety":       r.Safety,
		"pool_exclude": r.PoolExclude,
	} {
		if n > 0 {
			m.RejectionsTotal.WithLabelValues(reason).Add(float64(n))
		}
	}
	if p.Debug.Margin != nil {
		m.PickMargin.Observe(*p.Debug.Margin)
	}
}

// ObserveAnswer records one applied answer.
func (m *Metrics) ObserveAnswer(res update.Result) {
	if m == nil {
		return
	}
	if res.NoOp {
		m.AnswersTotal.WithLabelValues("noop").Inc()
		return
	}
	m.AnswersTotal.WithLabelValues(string(res.Log.Kind)).Inc()
	for axisID, ch := range res.Log.AxisChanges {
		if ch.ConflictDetected {
			m.ConflictsTotal.WithLabelValues(axisID).Inc()
		}
		m.AxisConfidence.WithLabelValues(axisID).Set(ch.Confidence)
	}
}

// ObserveStop records one stop decision.
func (m *Metrics) ObserveStop(d stop.Decision) {
	if m == nil {
		return
	}
	m.StopDecisionsTotal.WithLabelValues(d.Reason(), strconv.FormatBool(d.Propose)).Inc()
}

// ObserveFocusExit records a focus exit.
func (m *Metrics) ObserveFocusExit(reason string) {
	if m == nil {
		return
	}
	m.FocusExitsTotal.WithLabelValues(reason).Inc()
}

// #endregion observe
