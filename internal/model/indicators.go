package model

// Indicators holds the per-bar indicator series used by the signal scanners.
// Every slice has the same length as the bar series it was computed from;
// undefined positions are NaN.
type Indicators struct {
	MA20   []float64
	MA60   []float64
	MA120  []float64
	EMA20  []float64
	EMA60  []float64
	EMA120 []float64

	DIF       []float64
	DEA       []float64
	Histogram []float64
}

// MAFamily returns the six moving-average series in a fixed order.
func (ind *Indicators) MAFamily() [6][]float64 {
	return [6][]float64{ind.MA20, ind.MA60, ind.MA120, ind.EMA20, ind.EMA60, ind.EMA120}
}
