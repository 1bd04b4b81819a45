package factor

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"AssetSentinel/internal/calculator"
	"AssetSentinel/internal/model"
)

// ErrInsufficientData is returned when a series is shorter than the longest
// factor window. Callers skip the asset instead of substituting zeros.
var ErrInsufficientData = errors.New("insufficient data")

const (
	// MinHistoryPoints is the longest factor window.
	MinHistoryPoints = 365
	// HistoryDays is how much history a caller should request: the longest
	// window plus a 30-day buffer.
	HistoryDays = MinHistoryPoints + 30

	volumeWindow = 30
)

// ReturnWindows are the momentum lookbacks in days.
var ReturnWindows = [3]int{90, 180, 365}

// NormalizeSeries sorts points ascending and keeps one point per calendar day
// (UTC). When a day appears more than once the later entry in the input wins.
func NormalizeSeries(points []model.MarketDataPoint) []model.MarketDataPoint {
	byDay := make(map[string]int, len(points))
	out := make([]model.MarketDataPoint, 0, len(points))
	for _, p := range points {
		key := p.Date.UTC().Format("2006-01-02")
		if idx, ok := byDay[key]; ok {
			out[idx] = p
			continue
		}
		byDay[key] = len(out)
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// ComputeRawFactors derives the twelve raw factors of one asset from its
// ascending daily series, using only points dated at or before asOf.
func ComputeRawFactors(series []model.MarketDataPoint, asOf time.Time) (model.RawFactors, error) {
	end := len(series)
	for end > 0 && series[end-1].Date.After(asOf) {
		end--
	}
	points := series[:end]
	if len(points) < MinHistoryPoints {
		return model.RawFactors{}, fmt.Errorf("%w: have %d points, need %d", ErrInsufficientData, len(points), MinHistoryPoints)
	}

	prices := make([]float64, len(points))
	highs := make([]float64, len(points))
	for i, p := range points {
		prices[i] = p.Price
		highs[i] = p.Price
		if p.High != nil {
			highs[i] = *p.High
		}
	}
	current := points[len(points)-1]
	marketCap := valueOr(current.MarketCap, 0)

	f := model.RawFactors{AsOf: asOf}

	// Valuation
	if marketCap > 0 {
		f.LogMarketCap = math.Log(marketCap)
	}
	f.FDVToMarketCapRatio = 1
	if current.FDV != nil && current.MarketCap != nil && marketCap > 0 {
		f.FDVToMarketCapRatio = *current.FDV / marketCap
	}
	if high, _, err := calculator.TrailingRange(highs, MinHistoryPoints); err == nil && high != 0 {
		f.PriceToHigh365d = current.Price / high
	}

	// Momentum
	f.Return90d = calculator.CalculateReturn(prices, ReturnWindows[0])
	f.Return180d = calculator.CalculateReturn(prices, ReturnWindows[1])
	f.Return365d = calculator.CalculateReturn(prices, ReturnWindows[2])
	f.Volatility90d = calculator.CalculateVolatility(prices, 90)
	f.Volatility180d = calculator.CalculateVolatility(prices, 180)

	// Liquidity
	if marketCap > 0 && current.Volume != nil {
		f.VolumeToMarketCapRatio = *current.Volume / marketCap
	}
	f.AvgDailyVolume30d = averageVolume(points, volumeWindow)

	// Risk
	f.Volatility365d = calculator.CalculateVolatility(prices, 365)
	// Drawdown is measured over the trailing 365 points only, not the whole series.
	f.MaxDrawdown365d = calculator.CalculateMaxDrawdown(prices[len(prices)-MinHistoryPoints:])

	return f, nil
}

// averageVolume averages the reported, positive volumes among the last window points.
func averageVolume(points []model.MarketDataPoint, window int) float64 {
	start := len(points) - window
	if start < 0 {
		start = 0
	}
	var vols []float64
	for _, p := range points[start:] {
		if p.Volume != nil && *p.Volume > 0 {
			vols = append(vols, *p.Volume)
		}
	}
	return calculator.Mean(vols)
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
