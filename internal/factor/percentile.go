package factor

import (
	"math"
	"sort"
)

// Percentile ranks v within set on a 0-1 scale.
//
// Non-finite members of set are ignored. Values at or below the minimum rank
// 0, values at or above the maximum rank 1, and anything in between is
// linearly interpolated between the neighbouring ranks. Ranks are divided by
// n-1 rather than n so the minimum maps to exactly 0 and the maximum to
// exactly 1; with n the top rank would stop at (n-1)/n. When the usable set
// has fewer than two members, no spread, or v itself is not finite, the
// neutral rank 0.5 is returned.
func Percentile(v float64, set []float64) float64 {
	if !isFinite(v) {
		return 0.5
	}
	sorted := make([]float64, 0, len(set))
	for _, x := range set {
		if isFinite(x) {
			sorted = append(sorted, x)
		}
	}
	n := len(sorted)
	if n < 2 {
		return 0.5
	}
	sort.Float64s(sorted)
	lo, hi := sorted[0], sorted[n-1]
	if lo == hi {
		return 0.5
	}
	if v <= lo {
		return 0
	}
	if v >= hi {
		return 1
	}

	i := sort.SearchFloat64s(sorted, v) // smallest i with sorted[i] >= v
	lower, upper := sorted[i-1], sorted[i]
	frac := 1.0
	if upper > lower {
		frac = (v - lower) / (upper - lower)
	}
	return (float64(i-1) + frac) / float64(n-1)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
