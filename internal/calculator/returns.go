package calculator

import "math"

// AnnualizationFactor converts daily volatility to annual; crypto trades every day.
var AnnualizationFactor = math.Sqrt(365)

// CalculateReturn returns the simple return over the last window steps:
// (p[t] - p[t-window]) / p[t-window]. It returns 0 when fewer than window+1
// prices exist or the base price is not positive.
func CalculateReturn(prices []float64, window int) float64 {
	n := len(prices)
	if window <= 0 || n < window+1 {
		return 0
	}
	base := prices[n-1-window]
	if base <= 0 {
		return 0
	}
	return (prices[n-1] - base) / base
}

// SimpleReturns returns the period-over-period returns of prices.
// Steps whose previous price is not positive are skipped.
func SimpleReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] <= 0 {
			continue
		}
		out = append(out, (prices[i]-prices[i-1])/prices[i-1])
	}
	return out
}

// CalculateVolatility returns the annualized population standard deviation of
// daily returns within the last window prices. It returns 0 when fewer than
// two returns are available.
func CalculateVolatility(prices []float64, window int) float64 {
	if window <= 0 {
		return 0
	}
	start := len(prices) - window
	if start < 0 {
		start = 0
	}
	returns := SimpleReturns(prices[start:])
	if len(returns) < 2 {
		return 0
	}
	return StdDev(returns) * AnnualizationFactor
}

// CalculateMaxDrawdown returns the largest peak-to-trough decline of prices
// as a fraction of the running peak. A non-decreasing series returns 0.
func CalculateMaxDrawdown(prices []float64) float64 {
	peak := math.Inf(-1)
	maxDD := 0.0
	for _, p := range prices {
		if p > peak {
			peak = p
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - p) / peak; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// Mean returns the arithmetic mean of values, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation of values.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := Mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}
