package calculator

import "math"

// Default MACD parameters.
const (
	DefaultMACDFast   = 12
	DefaultMACDSlow   = 26
	DefaultMACDSignal = 9
)

// MACDResult holds the three MACD series, index-aligned with the input.
type MACDResult struct {
	DIF       []float64
	DEA       []float64
	Histogram []float64
}

// MACD computes DIF = EMA(fast) - EMA(slow), DEA = EMA(signal) of DIF and
// their difference. DEA is computed over the DIF values with NaNs removed and
// then placed back at the original positions; positions where DIF is NaN stay NaN.
func MACD(closes []float64, fast, slow, signal int) MACDResult {
	n := len(closes)
	fastEMA := EMASeries(closes, fast)
	slowEMA := EMASeries(closes, slow)

	dif := make([]float64, n)
	compact := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(fastEMA[i]) || math.IsNaN(slowEMA[i]) {
			dif[i] = math.NaN()
			continue
		}
		dif[i] = fastEMA[i] - slowEMA[i]
		if !math.IsNaN(dif[i]) {
			compact = append(compact, dif[i])
		}
	}

	compactDEA := EMASeries(compact, signal)
	dea := make([]float64, n)
	hist := make([]float64, n)
	j := 0
	for i := 0; i < n; i++ {
		if math.IsNaN(dif[i]) {
			dea[i] = math.NaN()
			hist[i] = math.NaN()
			continue
		}
		dea[i] = compactDEA[j]
		j++
		hist[i] = dif[i] - dea[i]
	}
	return MACDResult{DIF: dif, DEA: dea, Histogram: hist}
}
