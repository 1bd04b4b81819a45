package model

import (
	"math"
	"time"
)

// RawFactors is the fixed-shape factor record of one asset on one evaluation date.
type RawFactors struct {
	AssetID string    `json:"asset_id"`
	AsOf    time.Time `json:"as_of"`

	// Valuation
	LogMarketCap        float64 `json:"log_market_cap"`
	FDVToMarketCapRatio float64 `json:"fdv_to_market_cap_ratio"`
	PriceToHigh365d     float64 `json:"price_to_high_365d"`

	// Momentum
	Return90d      float64 `json:"return_90d"`
	Return180d     float64 `json:"return_180d"`
	Return365d     float64 `json:"return_365d"`
	Volatility90d  float64 `json:"volatility_90d"`
	Volatility180d float64 `json:"volatility_180d"`

	// Liquidity
	VolumeToMarketCapRatio float64 `json:"volume_to_market_cap_ratio"`
	AvgDailyVolume30d      float64 `json:"avg_daily_volume_30d"`

	// Risk
	Volatility365d  float64 `json:"volatility_365d"`
	MaxDrawdown365d float64 `json:"max_drawdown_365d"`
}

// Values returns the twelve factor fields in declaration order.
func (f RawFactors) Values() []float64 {
	return []float64{
		f.LogMarketCap, f.FDVToMarketCapRatio, f.PriceToHigh365d,
		f.Return90d, f.Return180d, f.Return365d, f.Volatility90d, f.Volatility180d,
		f.VolumeToMarketCapRatio, f.AvgDailyVolume30d,
		f.Volatility365d, f.MaxDrawdown365d,
	}
}

// Valid reports whether every factor is a finite number.
func (f RawFactors) Valid() bool {
	for _, v := range f.Values() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// FactorScores holds the 0-5 sub-scores and the weighted total.
type FactorScores struct {
	ValuationScore float64 `json:"valuation_score"`
	MomentumScore  float64 `json:"momentum_score"`
	LiquidityScore float64 `json:"liquidity_score"`
	RiskScore      float64 `json:"risk_score"`
	TotalScore     float64 `json:"total_score"`
}

// WeightBand maps a total-score range to a target weight.
// A nil MaxScore leaves the band unbounded above.
type WeightBand struct {
	MinScore     float64  `json:"min_score" yaml:"min_score"`
	MaxScore     *float64 `json:"max_score,omitempty" yaml:"max_score,omitempty"`
	TargetWeight float64  `json:"target_weight" yaml:"target_weight"`
}

// ScoringRules configures the score-to-weight mapping.
type ScoringRules struct {
	WeightThresholds     []WeightBand `json:"weight_thresholds" yaml:"weight_thresholds"`
	AllowNegativeWeights bool         `json:"allow_negative_weights" yaml:"allow_negative_weights"`
	MinWeightThreshold   float64      `json:"min_weight_threshold" yaml:"min_weight_threshold"`
	MaxTotalWeight       float64      `json:"max_total_weight" yaml:"max_total_weight"`
}

// PortfolioAllocation is the weight assigned to one asset in one evaluation run.
type PortfolioAllocation struct {
	AssetID        string  `json:"asset_id"`
	TotalScore     float64 `json:"total_score"`
	TargetWeight   float64 `json:"target_weight"`
	AdjustedWeight float64 `json:"adjusted_weight"`
}
