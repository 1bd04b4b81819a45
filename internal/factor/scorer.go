package factor

import (
	"sort"

	"AssetSentinel/internal/model"
)

// Sub-score weights of the total score.
const (
	WeightValuation = 0.25
	WeightMomentum  = 0.30
	WeightLiquidity = 0.20
	WeightRisk      = 0.25

	MaxScore     = 5.0
	NeutralScore = MaxScore / 2
)

// column gathers one factor across the cross-section.
func column(crossSection []model.RawFactors, get func(model.RawFactors) float64) []float64 {
	out := make([]float64, len(crossSection))
	for i, f := range crossSection {
		out[i] = get(f)
	}
	return out
}

// NormalizeFactorScores scores f against every asset evaluated on the same
// date. Scores are percentile based, so they are only comparable within one
// cross-section.
func NormalizeFactorScores(f model.RawFactors, crossSection []model.RawFactors) model.FactorScores {
	if len(crossSection) < 2 {
		return withTotal(model.FactorScores{
			ValuationScore: NeutralScore,
			MomentumScore:  NeutralScore,
			LiquidityScore: NeutralScore,
			RiskScore:      NeutralScore,
		})
	}

	pct := func(get func(model.RawFactors) float64) float64 {
		return Percentile(get(f), column(crossSection, get))
	}

	valuation := MaxScore * (0.3*pct(func(r model.RawFactors) float64 { return r.LogMarketCap }) +
		0.3*(1-pct(func(r model.RawFactors) float64 { return r.FDVToMarketCapRatio })) +
		0.4*pct(func(r model.RawFactors) float64 { return r.PriceToHigh365d }))

	momentum := MaxScore * (0.7*pct(func(r model.RawFactors) float64 { return r.Return365d }) +
		0.3*(1-pct(func(r model.RawFactors) float64 { return r.Volatility180d })))

	liquidity := MaxScore * (0.5*pct(func(r model.RawFactors) float64 { return r.VolumeToMarketCapRatio }) +
		0.5*pct(func(r model.RawFactors) float64 { return r.AvgDailyVolume30d }))

	risk := MaxScore * (0.5*(1-pct(func(r model.RawFactors) float64 { return r.Volatility365d })) +
		0.5*(1-pct(func(r model.RawFactors) float64 { return r.MaxDrawdown365d })))

	return withTotal(model.FactorScores{
		ValuationScore: clampScore(valuation),
		MomentumScore:  clampScore(momentum),
		LiquidityScore: clampScore(liquidity),
		RiskScore:      clampScore(risk),
	})
}

// ScoreCrossSection scores every asset of one evaluation date.
func ScoreCrossSection(factors map[string]model.RawFactors) map[string]model.FactorScores {
	ids := make([]string, 0, len(factors))
	for id := range factors {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	crossSection := make([]model.RawFactors, 0, len(ids))
	for _, id := range ids {
		crossSection = append(crossSection, factors[id])
	}

	out := make(map[string]model.FactorScores, len(ids))
	for _, id := range ids {
		out[id] = NormalizeFactorScores(factors[id], crossSection)
	}
	return out
}

func withTotal(s model.FactorScores) model.FactorScores {
	s.TotalScore = clampScore(WeightValuation*s.ValuationScore +
		WeightMomentum*s.MomentumScore +
		WeightLiquidity*s.LiquidityScore +
		WeightRisk*s.RiskScore)
	return s
}

func clampScore(v float64) float64 {
	if !isFinite(v) {
		return NeutralScore
	}
	if v < 0 {
		return 0
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}
