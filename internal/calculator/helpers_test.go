package calculator

import (
	"time"

	"AssetSentinel/internal/model"
)

func flatBars(n int, price float64) []model.OHLCV {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, n)
	for i := range bars {
		bars[i] = model.OHLCV{
			OpenTime:  start.Add(time.Duration(i) * time.Hour),
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			Volume:    1000,
			CloseTime: start.Add(time.Duration(i+1)*time.Hour - time.Millisecond),
		}
	}
	return bars
}
