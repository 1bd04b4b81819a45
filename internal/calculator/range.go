package calculator

import (
	"errors"
	"math"
)

// TrailingRange scans the last window values and returns their high and low.
// A window larger than the series covers the whole series.
func TrailingRange(values []float64, window int) (high, low float64, err error) {
	if len(values) == 0 {
		return 0, 0, errors.New("no values provided")
	}
	if window <= 0 {
		return 0, 0, errors.New("window must be positive")
	}
	n := len(values)
	start := n - window
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < n; i++ {
		if values[i] > high {
			high = values[i]
		}
		if values[i] < low {
			low = values[i]
		}
	}
	return high, low, nil
}

// TrailingMeanVolume returns the mean volume of the count bars ending just
// before index end. It returns 0 when fewer than one bar is available.
func TrailingMeanVolume(volumes []float64, end, count int) float64 {
	start := end - count
	if start < 0 {
		start = 0
	}
	if end > len(volumes) {
		end = len(volumes)
	}
	if end-start <= 0 {
		return 0
	}
	sum := 0.0
	for i := start; i < end; i++ {
		sum += volumes[i]
	}
	return sum / float64(end-start)
}
