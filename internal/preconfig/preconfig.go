package preconfig

import (
	"math"
	"strings"
)

// #region config

// Config holds the axis pairs and clarify thresholds for the pre-session self-report.
type Config struct {
	AxisPairs     [][2]string
	MinPercent    float64 // both values must reach this percentage to be ambiguous
	MaxDiff       float64 // and differ by at most this many percentage points
	MinMultiplier float64
	MaxMultiplier float64
}

// DefaultConfig returns the standard clarify thresholds with no pairs configured.
func DefaultConfig() Config {
	return Config{
		MinPercent:    50,
		MaxDiff:       10,
		MinMultiplier: 0.5,
		MaxMultiplier: 1.5,
	}
}

// #endregion config

// #region clarify

// ClarifyPairs returns the configured pairs whose prior values are both high
// and close enough to need explicit disambiguation. Values are fractions in [0,1];
// pairs with a missing or non-finite value are skipped.
func ClarifyPairs(values map[string]float64, cfg Config) [][2]string {
	result := [][2]string{}
	for _, pair := range cfg.AxisPairs {
		left, right := pair[0], pair[1]
		if left == "" || right == "" {
			continue
		}
		lv, lok := finite(values, left)
		rv, rok := finite(values, right)
		if !lok || !rok {
			continue
		}
		lp, rp := lv*100, rv*100
		bothHigh := lp >= cfg.MinPercent && rp >= cfg.MinPercent
		near := math.Abs(lp-rp) <= cfg.MaxDiff
		if bothHigh && near {
			result = append(result, [2]string{left, right})
		}
	}
	return result
}

// #endregion clarify

// #region adjust

// PairKey is the key Apply expects for a pair in the specify map.
func PairKey(left, right string) string {
	return left + "-" + right
}

// Apply folds the respondent's signed shifts into the prior values.
// specify maps "left-right" to a shift in [-1,1]: the left value is scaled by
// clamp(1-shift) and the right by clamp(1+shift), both within the configured
// multiplier bounds, then clamped to [0,1]. The input map is not modified.
func Apply(values map[string]float64, specify map[string]float64, cfg Config) map[string]float64 {
	adjusted := make(map[string]float64, len(values))
	for k, v := range values {
		adjusted[k] = v
	}
	for key, shift := range specify {
		parts := strings.Split(key, "-")
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			continue
		}
		if math.IsNaN(shift) || math.IsInf(shift, 0) {
			continue
		}
		left, right := parts[0], parts[1]
		leftMul := clamp(1-shift, cfg.MinMultiplier, cfg.MaxMultiplier)
		rightMul := clamp(1+shift, cfg.MinMultiplier, cfg.MaxMultiplier)
		if v, ok := finite(values, left); ok {
			adjusted[left] = clamp(v*leftMul, 0, 1)
		}
		if v, ok := finite(values, right); ok {
			adjusted[right] = clamp(v*rightMul, 0, 1)
		}
	}
	return adjusted
}

// #endregion adjust

// #region helpers

func finite(values map[string]float64, id string) (float64, bool) {
	v, ok := values[id]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// #endregion helpers
