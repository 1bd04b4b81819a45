package technical

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AssetSentinel/internal/model"
)

func TestScanBreakoutUp_EndToEnd(t *testing.T) {
	bars := upBreakoutSeries()
	s := NewScanner(DefaultConfig())

	sig := s.ScanBreakoutUp(bars, 50)
	require.NotNil(t, sig)

	assert.Equal(t, model.DirectionUp, sig.Direction)
	assert.Equal(t, 399, sig.BreakoutBarIndex)
	assert.Equal(t, bars[399].OpenTime, sig.BreakoutBarTime)
	assert.Equal(t, 398, sig.Cluster.Index)
	assert.Greater(t, sig.Cluster.DensityScore, 0.5)
	assert.Greater(t, sig.BreakoutScore, 0.9)
	assert.LessOrEqual(t, sig.BreakoutScore, 1.0)
	assert.Equal(t, bars[399].Close, sig.EntryPrice)

	assert.Less(t, sig.StopLoss, sig.Cluster.ClusterLow)
	assert.Greater(t, sig.TakeProfit1, sig.EntryPrice)
	assert.Greater(t, sig.TakeProfit2, sig.TakeProfit1)

	assert.Nil(t, s.ScanBreakoutDown(bars, 50))
}

func TestScanBreakoutDown_EndToEnd(t *testing.T) {
	bars := downBreakoutSeries()
	s := NewScanner(DefaultConfig())

	sig := s.ScanBreakoutDown(bars, 50)
	require.NotNil(t, sig)
	assert.Equal(t, model.DirectionDown, sig.Direction)
	assert.Equal(t, 399, sig.BreakoutBarIndex)
	assert.Greater(t, sig.StopLoss, sig.Cluster.ClusterHigh)
	assert.Less(t, sig.TakeProfit1, sig.EntryPrice)
	assert.Less(t, sig.TakeProfit2, sig.TakeProfit1)

	assert.Nil(t, s.ScanBreakoutUp(bars, 50))
}

func TestScanBreakout_NoSignalOnFlatOrShortSeries(t *testing.T) {
	s := NewScanner(DefaultConfig())
	assert.Nil(t, s.ScanBreakoutUp(flatBars(300, 100), 50))
	assert.Nil(t, s.ScanBreakoutDown(flatBars(300, 100), 50))
	assert.Nil(t, s.ScanBreakoutUp(flatBars(1, 100), 50))
	assert.Nil(t, s.ScanBreakoutUp(nil, 50))
}

func TestScanBreakout_ZeroVolumeDropsVolumeTerm(t *testing.T) {
	bars := upBreakoutSeries()
	for i := range bars {
		bars[i].Volume = 0
	}
	sig := NewScanner(DefaultConfig()).ScanBreakoutUp(bars, 50)
	require.NotNil(t, sig)
	assert.InDelta(t, 0.7, sig.BreakoutScore, 1e-6, "distance and move saturate, volume contributes nothing")
}

func TestScanBreakoutUp_PriorCloseAlreadyOutside(t *testing.T) {
	bars := flatBars(400, 100)
	for i := 390; i < 399; i++ {
		setClose(bars, i, 103, 1000)
	}
	setClose(bars, 399, 108, 3000)

	assert.Nil(t, NewScanner(DefaultConfig()).ScanBreakoutUp(bars, 1))
}

func TestScanBreakoutUp_LookbackExcludesOlderBreakout(t *testing.T) {
	bars := upBreakoutSeries()
	for i := 0; i < 5; i++ {
		bars = append(bars, bar(400+i, 104.58, 104.7, 104.5, 104.6, 1000))
	}
	s := NewScanner(DefaultConfig())

	sig := s.ScanBreakoutUp(bars, 50)
	require.NotNil(t, sig)
	assert.Equal(t, 399, sig.BreakoutBarIndex)

	assert.Nil(t, s.ScanBreakoutUp(bars, 5))
}

func TestScanBreakoutUp_NextOpenEntry(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EntryMode = EntryNextOpen
	s := NewScanner(cfg)

	bars := upBreakoutSeries()
	sig := s.ScanBreakoutUp(bars, 50)
	require.NotNil(t, sig)
	assert.Equal(t, bars[399].Close, sig.EntryPrice, "newest bar falls back to its close")

	bars = append(bars, bar(400, 105, 105.5, 104.8, 105.2, 1000))
	sig = s.ScanBreakoutUp(bars, 50)
	require.NotNil(t, sig)
	assert.Equal(t, 399, sig.BreakoutBarIndex)
	assert.Equal(t, 105.0, sig.EntryPrice)
}

func TestScanBreakout_ReturnedBreakoutsStartInsideCluster(t *testing.T) {
	cfg := DefaultConfig()
	s := NewScanner(cfg)

	for seed := int64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		bars := flatBars(300, 100)
		price := 100.0
		for i := 1; i < len(bars); i++ {
			price *= 1 + (rng.Float64()-0.5)*0.01
			setClose(bars, i, price, 500+rng.Float64()*1000)
		}

		if up := s.ScanBreakoutUp(bars, 200); up != nil {
			i := up.BreakoutBarIndex
			assert.LessOrEqual(t, bars[i-1].Close, up.Cluster.ClusterHigh, "seed %d", seed)
			assert.Greater(t, bars[i].Close, up.Cluster.ClusterHigh*(1+cfg.BreakoutBuffer), "seed %d", seed)
			assert.GreaterOrEqual(t, up.Cluster.DensityScore, cfg.MinDensityScore)
		}
		if down := s.ScanBreakoutDown(bars, 200); down != nil {
			i := down.BreakoutBarIndex
			assert.GreaterOrEqual(t, bars[i-1].Close, down.Cluster.ClusterLow, "seed %d", seed)
			assert.Less(t, bars[i].Close, down.Cluster.ClusterLow*(1-cfg.BreakoutBuffer), "seed %d", seed)
			assert.GreaterOrEqual(t, down.Cluster.DensityScore, cfg.MinDensityScore)
		}
	}
}

func TestLevels(t *testing.T) {
	s := NewScanner(DefaultConfig())
	c := testCluster()

	stop, tp1, tp2 := s.levels(model.DirectionUp, 103, c)
	assert.InDelta(t, 98.6, stop, 1e-9)
	assert.InDelta(t, 109.6, tp1, 1e-9)
	assert.InDelta(t, 116.2, tp2, 1e-9)

	stop, tp1, tp2 = s.levels(model.DirectionDown, 97, c)
	assert.InDelta(t, 101.4, stop, 1e-9)
	assert.InDelta(t, 90.4, tp1, 1e-9)
	assert.InDelta(t, 83.8, tp2, 1e-9)
}

func TestLevels_ZeroWidthUsesMinimumOffset(t *testing.T) {
	s := NewScanner(DefaultConfig())
	c := model.ClusterInfo{ClusterMean: 100, ClusterHigh: 100, ClusterLow: 100}

	stop, _, _ := s.levels(model.DirectionUp, 101, c)
	assert.InDelta(t, 99.8, stop, 1e-9)
}
