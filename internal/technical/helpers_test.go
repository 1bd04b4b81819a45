package technical

import (
	"time"

	"AssetSentinel/internal/model"
)

var testStart = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func bar(i int, open, high, low, close, volume float64) model.OHLCV {
	return model.OHLCV{
		OpenTime:  testStart.Add(time.Duration(i) * time.Hour),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     close,
		Volume:    volume,
		CloseTime: testStart.Add(time.Duration(i+1)*time.Hour - time.Millisecond),
	}
}

func flatBars(n int, price float64) []model.OHLCV {
	bars := make([]model.OHLCV, n)
	for i := range bars {
		bars[i] = bar(i, price, price, price, price, 1000)
	}
	return bars
}

func setClose(bars []model.OHLCV, i int, close, volume float64) {
	open := bars[i-1].Close
	bars[i] = bar(i, open, max(open, close), min(open, close), close, volume)
}

// upBreakoutSeries sits flat at 100, drifts down for four bars and then
// jumps 5% on triple volume on the last bar.
func upBreakoutSeries() []model.OHLCV {
	bars := flatBars(400, 100)
	for i, c := range []float64{99.9, 99.8, 99.7, 99.6} {
		setClose(bars, 395+i, c, 1000)
	}
	setClose(bars, 399, 99.6*1.05, 3000)
	return bars
}

// downBreakoutSeries mirrors upBreakoutSeries.
func downBreakoutSeries() []model.OHLCV {
	bars := flatBars(400, 100)
	for i, c := range []float64{100.1, 100.2, 100.3, 100.4} {
		setClose(bars, 395+i, c, 1000)
	}
	setClose(bars, 399, 100.4*0.95, 3000)
	return bars
}

func testCluster() model.ClusterInfo {
	return model.ClusterInfo{
		Index:        4,
		ClusterMean:  100,
		ClusterHigh:  101,
		ClusterLow:   99,
		ClusterWidth: 2,
		DensityRatio: 0.02,
		DensityScore: 0.8,
	}
}
