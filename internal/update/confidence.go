package update

import "math"

// #region confidence
// EvidenceRate is the saturation rate of the evidence → confidence curve.
const EvidenceRate = 0.8

// Saturate maps accumulated evidence onto [0,1].
func Saturate(evidence float64) float64 {
	return clamp(1-math.Exp(-EvidenceRate*evidence), 0, 1)
}

// AxisConfidence is saturated evidence discounted by penalty per detected conflict.
func AxisConfidence(evidence float64, conflicts int, penalty float64) float64 {
	return clamp(Saturate(evidence)-penalty*float64(conflicts), 0, 1)
}

// ModuleConfidence is saturated evidence; modules carry no conflict term.
func ModuleConfidence(evidence float64) float64 {
	return Saturate(evidence)
}

// #endregion confidence

// #region conflict
// HasConflict reports whether the last window deltas contain both a strong
// positive (>= strong) and a strong negative (<= -strong) signal.
func HasConflict(deltas []float64, window int, strong float64) bool {
	if window > 0 && len(deltas) > window {
		deltas = deltas[len(deltas)-window:]
	}
	var pos, neg bool
	for _, d := range deltas {
		if d >= strong {
			pos = true
		}
		if d <= -strong {
			neg = true
		}
	}
	return pos && neg
}

// #endregion conflict

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
