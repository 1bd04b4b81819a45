package strategy

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AssetSentinel/internal/model"
)

func TestCalculateTargetWeight_DefaultBands(t *testing.T) {
	rules := DefaultScoringRules()
	tests := []struct {
		score float64
		want  float64
	}{
		{5.0, 0.20},
		{4.0, 0.20},
		{3.99, 0.12},
		{3.5, 0.12},
		{3.2, 0.08},
		{3.0, 0.08},
		{2.7, 0.04},
		{2.5, 0.04},
		{2.49, 0},
		{0, 0},
	}
	for _, tt := range tests {
		got := CalculateTargetWeight(model.FactorScores{TotalScore: tt.score}, rules)
		assert.Equal(t, tt.want, got, "score %.2f", tt.score)
	}
}

func TestCalculateTargetWeight_OutOfRangeScores(t *testing.T) {
	rules := DefaultScoringRules()
	tests := []struct {
		name  string
		score float64
		want  float64
	}{
		{"nan", math.NaN(), 0},
		{"+inf", math.Inf(1), 0},
		{"-inf", math.Inf(-1), 0},
		{"above scale", 7, 0.20},
		{"below scale", -3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateTargetWeight(model.FactorScores{TotalScore: tt.score}, rules)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculateTargetWeight_ClampsBeforeMatching(t *testing.T) {
	// Only a band above the scale exists, so a clamped score of 5 matches nothing.
	rules := model.ScoringRules{
		WeightThresholds: []model.WeightBand{{MinScore: 6, TargetWeight: 0.5}},
	}
	assert.Zero(t, CalculateTargetWeight(model.FactorScores{TotalScore: 7}, rules))
}

func TestGenerateWeightAllocation_SkipsNaNScores(t *testing.T) {
	scores := map[string]model.FactorScores{
		"bitcoin": {TotalScore: 4.2},
		"broken":  {TotalScore: math.NaN()},
	}
	allocs := GenerateWeightAllocation(scores, DefaultScoringRules())
	require.Len(t, allocs, 1)
	assert.Equal(t, "bitcoin", allocs[0].AssetID)
}

// Bands are not sorted internally: the first band that matches wins even when
// a later band is more specific. This pins that documented behaviour.
func TestCalculateTargetWeight_FirstMatchWinsQuirk(t *testing.T) {
	rules := model.ScoringRules{
		WeightThresholds: []model.WeightBand{
			{MinScore: 1.0, TargetWeight: 0.05},
			{MinScore: 4.0, TargetWeight: 0.30},
		},
	}
	got := CalculateTargetWeight(model.FactorScores{TotalScore: 4.5}, rules)
	assert.Equal(t, 0.05, got)
}

func TestCalculateTargetWeight_NegativeAndThreshold(t *testing.T) {
	bands := []model.WeightBand{
		{MinScore: 4.0, TargetWeight: 0.005},
		{MinScore: 0, MaxScore: model.Float(1.0), TargetWeight: -0.1},
	}
	noShort := model.ScoringRules{WeightThresholds: bands, MinWeightThreshold: 0.01}
	assert.Equal(t, 0.0, CalculateTargetWeight(model.FactorScores{TotalScore: 0.5}, noShort))
	assert.Equal(t, 0.0, CalculateTargetWeight(model.FactorScores{TotalScore: 4.2}, noShort), "below min weight")

	short := noShort
	short.AllowNegativeWeights = true
	assert.Equal(t, -0.1, CalculateTargetWeight(model.FactorScores{TotalScore: 0.5}, short))

	assert.Equal(t, 0.0, CalculateTargetWeight(model.FactorScores{TotalScore: 2.0}, noShort), "no band matches")
}

func TestGenerateWeightAllocation_NoScalingUnderCap(t *testing.T) {
	scores := map[string]model.FactorScores{
		"btc":  {TotalScore: 4.5},
		"eth":  {TotalScore: 3.6},
		"doge": {TotalScore: 1.0},
	}
	allocs := GenerateWeightAllocation(scores, DefaultScoringRules())
	require.Len(t, allocs, 2, "zero-weight assets are dropped")

	assert.Equal(t, "btc", allocs[0].AssetID)
	assert.Equal(t, "eth", allocs[1].AssetID)
	for _, a := range allocs {
		assert.Equal(t, a.TargetWeight, a.AdjustedWeight)
	}
	assert.InDelta(t, 0.32, TotalWeight(allocs), 1e-12)
}

func TestGenerateWeightAllocation_ScalesToCap(t *testing.T) {
	scores := make(map[string]model.FactorScores)
	for i := 0; i < 8; i++ {
		scores[fmt.Sprintf("asset-%d", i)] = model.FactorScores{TotalScore: 4.0 + float64(i)*0.1}
	}
	allocs := GenerateWeightAllocation(scores, DefaultScoringRules())
	require.Len(t, allocs, 8)

	// 8 x 0.20 = 1.6 > 1.0, so every weight is scaled by 1/1.6.
	for _, a := range allocs {
		assert.Equal(t, 0.20, a.TargetWeight)
		assert.InDelta(t, 0.125, a.AdjustedWeight, 1e-12)
	}
	assert.LessOrEqual(t, TotalWeight(allocs), 1.0+1e-12)
	assert.Equal(t, "asset-7", allocs[0].AssetID, "highest score first")
}

func TestGenerateWeightAllocation_PreservesProportions(t *testing.T) {
	rules := DefaultScoringRules()
	rules.MaxTotalWeight = 0.2
	scores := map[string]model.FactorScores{
		"a": {TotalScore: 4.1},
		"b": {TotalScore: 3.1},
	}
	allocs := GenerateWeightAllocation(scores, rules)
	require.Len(t, allocs, 2)
	assert.InDelta(t, 0.2, TotalWeight(allocs), 1e-12)
	assert.InDelta(t, allocs[0].TargetWeight/allocs[1].TargetWeight,
		allocs[0].AdjustedWeight/allocs[1].AdjustedWeight, 1e-12)
}

func TestGenerateWeightAllocation_Empty(t *testing.T) {
	assert.Empty(t, GenerateWeightAllocation(nil, DefaultScoringRules()))
}
