package selector

import (
	"math"

	"github.com/yegorkir/aqs/internal/catalog"
	"github.com/yegorkir/aqs/internal/state"
)

// #region weights
const (
	weightConfidence = 1.0  // w1
	weightConflict   = 1.2  // w2
	conflictNeed     = 0.35 // need added when the axis has any conflict
	safetyBase       = 0.6
	priorWeight      = 0.8
	priorStdFloor    = 0.05
	priorDefault     = 0.5
	fatiguePenalty   = 0.15
	veilPenalty      = 0.4
)

// #endregion weights

// #region score
// Score computes a question's utility. Safety questions get a fixed base;
// choice and slider questions earn need from every touched axis plus a
// prior gain when the session has priors.
func Score(q *catalog.Question, st *state.State, veiled bool, cat *catalog.Catalogue) Utility {
	u := Utility{
		Axes:    map[string]AxisNeed{},
		Prior:   PriorDetail{Axes: map[string]AxisPrior{}, Modules: map[string]ModulePrior{}},
		Touched: q.Touched,
	}

	u.Penalties.Fatigue = q.FatigueCost * fatiguePenalty
	if veiled {
		u.Penalties.Veil = veilPenalty
	}
	u.Penalty = u.Penalties.Fatigue + u.Penalties.Veil

	if q.Kind() == catalog.KindSafety {
		u.Base = safetyBase
		u.Total = u.Base - u.Penalty
		return u
	}

	for _, axisID := range q.Touched.Axes {
		ax, ok := st.Axes[axisID]
		if !ok {
			continue
		}
		need := AxisNeed{NeedConf: 1 - ax.Confidence}
		if ax.Conflicts > 0 {
			need.NeedConflict = conflictNeed
		}
		need.Need = weightConfidence*need.NeedConf + weightConflict*need.NeedConflict
		u.Base += need.Need
		u.Axes[axisID] = need
	}

	u.PriorGain = priorGain(q.Touched, st, cat, &u.Prior)
	u.Total = u.Base + u.PriorGain - u.Penalty
	return u
}

// priorGain rewards touching axes whose prior stands out from the rest and
// modules with a strong prior, both scaled by remaining uncertainty.
func priorGain(touched catalog.TouchSet, st *state.State, cat *catalog.Catalogue, detail *PriorDetail) float64 {
	if st.Priors == nil {
		return 0
	}

	// Distribution over the full axis universe; axes without a prior count as 0.5.
	var values []float64
	if axes := cat.Axes(); len(axes) > 0 {
		for _, a := range axes {
			v, ok := priorValue(st.Priors.Axes, a.ID)
			if !ok {
				v = priorDefault
			}
			values = append(values, v)
		}
	} else {
		for id := range st.Priors.Axes {
			if v, ok := priorValue(st.Priors.Axes, id); ok {
				values = append(values, v)
			}
		}
	}
	if len(values) == 0 {
		return 0
	}

	mean, std := meanStd(values)
	denom := math.Max(std, priorStdFloor)

	var total float64
	for _, axisID := range touched.Axes {
		v, ok := priorValue(st.Priors.Axes, axisID)
		if !ok {
			continue
		}
		peak := math.Abs(v-mean) / denom
		gain := priorWeight * peak * (1 - st.AxisConfidence(axisID))
		total += gain
		detail.Axes[axisID] = AxisPrior{Value: v, Mean: mean, Std: std, Peak: peak, Gain: gain}
	}
	for _, modID := range touched.Modules {
		v, ok := priorValue(st.Priors.Modules, modID)
		if !ok {
			continue
		}
		gain := priorWeight * v * (1 - st.ModuleConfidence(modID))
		total += gain
		detail.Modules[modID] = ModulePrior{Value: v, Gain: gain}
	}
	return total
}

func priorValue(m map[string]float64, id string) (float64, bool) {
	v, ok := m[id]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// meanStd returns the mean and population standard deviation.
func meanStd(values []float64) (float64, float64) {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}

// #endregion score
