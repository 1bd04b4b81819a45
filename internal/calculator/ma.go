package calculator

import (
	"errors"
	"math"

	"AssetSentinel/internal/model"
)

// Moving-average periods of the cluster family.
const (
	PeriodShort  = 20
	PeriodMedium = 60
	PeriodLong   = 120
)

// CalculateSMA computes the simple moving average of the last period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// SMASeries returns the simple moving average at every index.
// Indices before period-1 are NaN.
func SMASeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		if period <= 0 || i < period-1 {
			out[i] = math.NaN()
			continue
		}
		sum := 0.0
		for j := i - period + 1; j <= i; j++ {
			sum += values[j]
		}
		out[i] = sum / float64(period)
	}
	return out
}

// EMASeries returns the exponential moving average at every index.
//
// The first value is seeded with values[0]. Until index period-1 the series
// is the plain mean of all values seen so far rather than a true EMA; from
// period-1 onward the usual recursion with multiplier 2/(period+1) applies.
// Downstream scores depend on this warm-up, so keep it as is.
func EMASeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	if period <= 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	k := 2.0 / float64(period+1)
	out[0] = values[0]
	sum := values[0]
	for i := 1; i < len(values); i++ {
		sum += values[i]
		if i < period-1 {
			out[i] = sum / float64(i+1)
			continue
		}
		out[i] = values[i]*k + out[i-1]*(1-k)
	}
	return out
}

// ComputeIndicators builds the MA/EMA family and MACD(12,26,9) for a bar series.
func ComputeIndicators(bars []model.OHLCV) *model.Indicators {
	closes := ExtractCloses(bars)
	macd := MACD(closes, DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal)
	return &model.Indicators{
		MA20:      SMASeries(closes, PeriodShort),
		MA60:      SMASeries(closes, PeriodMedium),
		MA120:     SMASeries(closes, PeriodLong),
		EMA20:     EMASeries(closes, PeriodShort),
		EMA60:     EMASeries(closes, PeriodMedium),
		EMA120:    EMASeries(closes, PeriodLong),
		DIF:       macd.DIF,
		DEA:       macd.DEA,
		Histogram: macd.Histogram,
	}
}

// ExtractCloses returns the close prices of bars in order.
func ExtractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
