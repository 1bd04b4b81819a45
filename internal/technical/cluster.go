package technical

import (
	"math"

	"AssetSentinel/internal/calculator"
	"AssetSentinel/internal/model"
)

// ClusterFromValues measures how tightly the six moving averages are packed.
// The density score here is the base score, before any flatness factor.
// It reports false when a value is NaN or the mean is not positive.
func ClusterFromValues(values [6]float64, cfg Config) (model.ClusterInfo, bool) {
	high, low := math.Inf(-1), math.Inf(1)
	sum := 0.0
	for _, v := range values {
		if math.IsNaN(v) {
			return model.ClusterInfo{}, false
		}
		sum += v
		high = math.Max(high, v)
		low = math.Min(low, v)
	}
	mean := sum / float64(len(values))
	if mean <= 0 {
		return model.ClusterInfo{}, false
	}
	width := high - low
	ratio := width / mean

	density := 1.0
	if cfg.DensityMaxRatio > 0 {
		density = 1 - math.Min(ratio/cfg.DensityMaxRatio, 1)
	}

	return model.ClusterInfo{
		ClusterMean:  mean,
		ClusterHigh:  high,
		ClusterLow:   low,
		ClusterWidth: width,
		DensityRatio: ratio,
		DensityScore: clamp01(density),
	}, true
}

// DetectCluster evaluates the MA family at bar i. With cfg.UseFlatness the
// density is further scaled down by how much the averages' slopes wobble
// over the last cfg.SlopeLookback bars.
func DetectCluster(ind *model.Indicators, i int, cfg Config) (model.ClusterInfo, bool) {
	family := ind.MAFamily()
	var values [6]float64
	for k, series := range family {
		if i < 0 || i >= len(series) {
			return model.ClusterInfo{}, false
		}
		values[k] = series[i]
	}
	info, ok := ClusterFromValues(values, cfg)
	if !ok {
		return info, false
	}
	info.Index = i

	if cfg.UseFlatness && cfg.SlopeStdMax > 0 {
		avgStd := calculator.AvgSlopeStdDev(family[:], i, cfg.SlopeLookback)
		flatness := 1 - math.Min(avgStd/cfg.SlopeStdMax, 1)
		info.DensityScore = clamp01(info.DensityScore * flatness)
	}
	return info, true
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// capped normalizes x by limit and clamps the result to [0,1].
func capped(x, limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	return clamp01(x / limit)
}
