// Package stop decides when enough has been learned to propose a result.
package stop

import (
	"maps"
	"slices"

	"github.com/yegorkir/aqs/internal/catalog"
	"github.com/yegorkir/aqs/internal/state"
)

// #region evaluate
// Evaluate runs the ordered stop checks. The two overrides come first and
// can propose before min_questions is reached; the hard cap then overrides
// every remaining check.
func Evaluate(cat *catalog.Catalogue, st *state.State) Decision {
	m := Measure(cat, st)
	cfg := st.Stop
	c := m.AxisCounts

	// 1. Every key axis and module defined
	if c.Unknown == 0 && m.ModulesUnknown == 0 {
		return propose(m, ReasonAxisModuleDefined)
	}

	// 2. High/medium mix
	if c.High >= 1 && c.Medium >= 1 {
		return propose(m, ReasonAxisMix)
	}

	// 3. Hard cap
	if cfg.MaxQuestions > 0 && m.Asked >= cfg.MaxQuestions {
		return propose(m, ReasonMaxQuestions)
	}

	// 4. Floor on questions asked
	if m.Asked < cfg.MinQuestions {
		return hold(m, ReasonMinQuestions)
	}

	// 5. Weakest key axis
	if m.MinAxisConfidence != nil && *m.MinAxisConfidence < cfg.MinAxisConfidence {
		return hold(m, ReasonLowAxisConfidence)
	}

	// 6. Selection margin, only when known
	if m.Margin != nil && *m.Margin < cfg.TargetMargin {
		return hold(m, ReasonLowMargin)
	}

	// 7. Conflicts on key axes
	if m.Conflicts > 0 {
		return hold(m, ReasonConflicts)
	}

	// 8. Any key axis still unknown
	if c.Unknown > 0 {
		return hold(m, ReasonAxisUndefined)
	}

	// 9. Bucket spread
	if c.High < 1 || c.Medium < 1 || c.Low < 1 {
		return hold(m, ReasonAxisMixMissing)
	}

	return propose(m, ReasonSaturated)
}

func propose(m Metrics, reason string) Decision {
	return Decision{Propose: true, Reasons: []string{reason}, Metrics: m}
}

func hold(m Metrics, reason string) Decision {
	return Decision{Propose: false, Reasons: []string{reason}, Metrics: m}
}

// #endregion evaluate

// #region metrics
// Measure computes the stop metrics without deciding. Missing axis or
// module state reads as confidence 0. With no key axes there is no minimum
// confidence and the floor check never defers.
func Measure(cat *catalog.Catalogue, st *state.State) Metrics {
	b := DefaultBuckets()
	keyAxes := cat.KeyAxes()

	m := Metrics{
		KeyAxes:    slices.Clone(keyAxes),
		AxisIDs:    slices.Clone(keyAxes),
		AxisConf:   make([]float64, 0, len(keyAxes)),
		Thresholds: b,
		Asked:      len(st.Asked),
	}
	if st.LastMargin != nil {
		v := *st.LastMargin
		m.Margin = &v
	}

	for _, id := range keyAxes {
		ax := st.Axes[id]
		m.AxisConf = append(m.AxisConf, ax.Confidence)
		m.Conflicts += ax.Conflicts
		switch bucket(ax.Confidence, b) {
		case "high":
			m.AxisCounts.High++
		case "medium":
			m.AxisCounts.Medium++
		case "low":
			m.AxisCounts.Low++
		default:
			m.AxisCounts.Unknown++
		}
	}

	m.ModuleIDs = slices.Sorted(maps.Keys(st.Modules))
	m.ModuleConf = make([]float64, 0, len(m.ModuleIDs))
	for _, id := range m.ModuleIDs {
		conf := st.Modules[id].Confidence
		m.ModuleConf = append(m.ModuleConf, conf)
		if conf < b.Low {
			m.ModulesUnknown++
		}
	}
	if len(m.AxisConf) > 0 {
		v := slices.Min(m.AxisConf)
		m.MinAxisConfidence = &v
	}
	if len(m.ModuleConf) > 0 {
		m.ModuleMinConfidence = slices.Min(m.ModuleConf)
	}
	return m
}

// Bucket names the confidence bucket of v under the default edges.
func Bucket(v float64) string {
	return bucket(v, DefaultBuckets())
}

func bucket(v float64, b Buckets) string {
	switch {
	case v >= b.High:
		return "high"
	case v >= b.Medium:
		return "medium"
	case v >= b.Low:
		return "low"
	default:
		return "unknown"
	}
}

// #endregion metrics
