package technical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AssetSentinel/internal/model"
)

func testBreakout(dir model.Direction) *model.BreakoutSignal {
	return &model.BreakoutSignal{
		Direction:        dir,
		BreakoutBarIndex: 5,
		Cluster:          testCluster(),
		BreakoutScore:    0.9,
	}
}

func TestScanRetestLong(t *testing.T) {
	bars := flatBars(10, 103)
	bars[6] = bar(6, 103, 104, 103, 103.5, 1000)
	bars[7] = bar(7, 103, 103, 100.6, 102, 1000)

	parent := testBreakout(model.DirectionUp)
	r := NewScanner(DefaultConfig()).ScanRetestLong(bars, parent)
	require.NotNil(t, r)

	assert.Equal(t, model.DirectionUp, r.Direction)
	assert.Equal(t, 7, r.RetestBarIndex)
	assert.Equal(t, bars[7].OpenTime, r.RetestBarTime)
	assert.Same(t, parent, r.Parent)
	assert.InDelta(t, 0.7, r.RetestScore, 1e-9)
	assert.Equal(t, 102.0, r.EntryPrice)
	assert.InDelta(t, 98.6, r.StopLoss, 1e-9)
	assert.InDelta(t, 107.1, r.TakeProfit1, 1e-9)
	assert.InDelta(t, 112.2, r.TakeProfit2, 1e-9)
}

func TestScanRetestShort(t *testing.T) {
	bars := flatBars(10, 97)
	bars[6] = bar(6, 97, 99.2, 96.8, 98, 1000)

	r := NewScanner(DefaultConfig()).ScanRetestShort(bars, testBreakout(model.DirectionDown))
	require.NotNil(t, r)
	assert.Equal(t, model.DirectionDown, r.Direction)
	assert.Equal(t, 6, r.RetestBarIndex)
	assert.InDelta(t, 0.6, r.RetestScore, 1e-9)
	assert.InDelta(t, 101.4, r.StopLoss, 1e-9)
	assert.Less(t, r.TakeProfit1, r.EntryPrice)
}

func TestScanRetest_InvalidatedBreakout(t *testing.T) {
	bars := flatBars(10, 103)
	bars[6] = bar(6, 103, 103, 98, 98.5, 1000) // closes below the cluster low
	bars[7] = bar(7, 99, 102, 100, 101, 1000)  // would otherwise qualify

	assert.Nil(t, NewScanner(DefaultConfig()).ScanRetestLong(bars, testBreakout(model.DirectionUp)))

	short := flatBars(10, 97)
	short[6] = bar(6, 97, 102, 97, 101.5, 1000)
	short[7] = bar(7, 100, 100, 98, 99, 1000)
	assert.Nil(t, NewScanner(DefaultConfig()).ScanRetestShort(short, testBreakout(model.DirectionDown)))
}

func TestScanRetest_OutsideWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RetestWindow = 2
	bars := flatBars(10, 103)
	bars[8] = bar(8, 103, 103, 100, 101, 1000)

	assert.Nil(t, NewScanner(cfg).ScanRetestLong(bars, testBreakout(model.DirectionUp)))

	cfg.RetestWindow = 3
	r := NewScanner(cfg).ScanRetestLong(bars, testBreakout(model.DirectionUp))
	require.NotNil(t, r)
	assert.Equal(t, 8, r.RetestBarIndex)
	assert.Equal(t, 1.0, r.RetestScore)
}

func TestScanRetest_DirectionMismatchOrMissingParent(t *testing.T) {
	bars := flatBars(10, 100)
	s := NewScanner(DefaultConfig())

	assert.Nil(t, s.ScanRetestLong(bars, testBreakout(model.DirectionDown)))
	assert.Nil(t, s.ScanRetestShort(bars, testBreakout(model.DirectionUp)))
	assert.Nil(t, s.ScanRetestLong(bars, nil))
}

func TestScanRetest_BreakoutOnLastBar(t *testing.T) {
	bars := flatBars(6, 100)
	assert.Nil(t, NewScanner(DefaultConfig()).ScanRetestLong(bars, testBreakout(model.DirectionUp)))
}
