package collector

import (
	"context"

	"AssetSentinel/internal/model"
)

// DataSource provides daily market data for the factor pipeline.
type DataSource interface {
	// FetchUniverse returns up to limit assets ordered by market cap.
	FetchUniverse(ctx context.Context, limit int) ([]model.Asset, error)
	// FetchHistoricalData returns about days daily points, ascending.
	FetchHistoricalData(ctx context.Context, assetID string, days int) ([]model.MarketDataPoint, error)
	// FetchCurrentMarketData returns today's snapshot, including fields the
	// historical endpoint does not report (FDV, high).
	FetchCurrentMarketData(ctx context.Context, assetID string) (*model.MarketDataPoint, error)
	Name() string
}

// KlineSource provides OHLCV bars for the signal pipeline.
type KlineSource interface {
	// FetchKlines returns the latest limit bars of symbol at tf, oldest first.
	FetchKlines(ctx context.Context, symbol string, tf model.Timeframe, limit int) ([]model.OHLCV, error)
	Name() string
}
