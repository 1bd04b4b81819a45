package strategy

import "AssetSentinel/internal/model"

// DefaultMaxTotalWeight caps the sum of adjusted weights.
const DefaultMaxTotalWeight = 1.0

// DefaultScoringRules returns the default score bands, highest first.
func DefaultScoringRules() model.ScoringRules {
	return model.ScoringRules{
		WeightThresholds: []model.WeightBand{
			{MinScore: 4.0, TargetWeight: 0.20},
			{MinScore: 3.5, MaxScore: model.Float(4.0), TargetWeight: 0.12},
			{MinScore: 3.0, MaxScore: model.Float(3.5), TargetWeight: 0.08},
			{MinScore: 2.5, MaxScore: model.Float(3.0), TargetWeight: 0.04},
			{MinScore: 0, MaxScore: model.Float(2.5), TargetWeight: 0},
		},
		AllowNegativeWeights: false,
		MinWeightThreshold:   0.01,
		MaxTotalWeight:       DefaultMaxTotalWeight,
	}
}
