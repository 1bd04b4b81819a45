package calculator

import "math"

// SlopeStdDev returns the population standard deviation of the
// period-over-period percentage change of series over the lookback bars
// ending at index end. NaN or non-positive bases are skipped; fewer than two
// usable slopes yield 0.
func SlopeStdDev(series []float64, end, lookback int) float64 {
	if end >= len(series) {
		end = len(series) - 1
	}
	start := end - lookback + 1
	if start < 1 {
		start = 1
	}
	slopes := make([]float64, 0, lookback)
	for j := start; j <= end; j++ {
		prev, cur := series[j-1], series[j]
		if math.IsNaN(prev) || math.IsNaN(cur) || prev <= 0 {
			continue
		}
		slopes = append(slopes, (cur-prev)/prev)
	}
	if len(slopes) < 2 {
		return 0
	}
	return StdDev(slopes)
}

// AvgSlopeStdDev averages SlopeStdDev across several series.
func AvgSlopeStdDev(series [][]float64, end, lookback int) float64 {
	if len(series) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range series {
		sum += SlopeStdDev(s, end, lookback)
	}
	return sum / float64(len(series))
}
