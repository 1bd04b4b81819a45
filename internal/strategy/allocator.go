package strategy

import (
	"math"
	"sort"

	"AssetSentinel/internal/model"
)

// matchBand returns the first band whose [MinScore, MaxScore) contains score.
//
// Bands are scanned in caller order and the first match wins, so overlapping
// bands resolve to whichever comes first. Callers list bands from the highest
// MinScore down; the order is not checked here.
func matchBand(score float64, bands []model.WeightBand) (model.WeightBand, bool) {
	for _, b := range bands {
		if score < b.MinScore {
			continue
		}
		if b.MaxScore != nil && score >= *b.MaxScore {
			continue
		}
		return b, true
	}
	return model.WeightBand{}, false
}

// maxTotalScore is the top of the factor score scale.
const maxTotalScore = 5.0

// CalculateTargetWeight maps a total score to a target weight. A non-finite
// score gets no weight; other scores are clamped to [0, 5] before matching.
func CalculateTargetWeight(scores model.FactorScores, rules model.ScoringRules) float64 {
	total := scores.TotalScore
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return 0
	}
	total = math.Max(0, math.Min(maxTotalScore, total))

	band, ok := matchBand(total, rules.WeightThresholds)
	if !ok {
		return 0
	}
	w := band.TargetWeight
	if w < 0 && !rules.AllowNegativeWeights {
		w = 0
	}
	if math.Abs(w) < rules.MinWeightThreshold {
		w = 0
	}
	return w
}

// GenerateWeightAllocation computes target weights for every asset, drops
// zero weights and scales the rest so the gross total never exceeds the cap.
// Weights are left untouched when they already fit under the cap.
func GenerateWeightAllocation(scores map[string]model.FactorScores, rules model.ScoringRules) []model.PortfolioAllocation {
	limit := rules.MaxTotalWeight
	if limit <= 0 {
		limit = DefaultMaxTotalWeight
	}

	allocs := make([]model.PortfolioAllocation, 0, len(scores))
	gross := 0.0
	for id, s := range scores {
		w := CalculateTargetWeight(s, rules)
		if w == 0 {
			continue
		}
		allocs = append(allocs, model.PortfolioAllocation{
			AssetID:      id,
			TotalScore:   s.TotalScore,
			TargetWeight: w,
		})
		gross += math.Abs(w)
	}

	scale := 1.0
	if gross > limit {
		scale = limit / gross
	}
	for i := range allocs {
		allocs[i].AdjustedWeight = allocs[i].TargetWeight * scale
	}

	sort.Slice(allocs, func(i, j int) bool {
		if allocs[i].TotalScore != allocs[j].TotalScore {
			return allocs[i].TotalScore > allocs[j].TotalScore
		}
		return allocs[i].AssetID < allocs[j].AssetID
	})
	return allocs
}

// TotalWeight sums the adjusted weights of allocs.
func TotalWeight(allocs []model.PortfolioAllocation) float64 {
	sum := 0.0
	for _, a := range allocs {
		sum += a.AdjustedWeight
	}
	return sum
}
