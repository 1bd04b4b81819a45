package collector

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"AssetSentinel/internal/factor"
	"AssetSentinel/internal/model"
)

// DefaultKlineLimit covers the longest moving average plus room for a
// breakout lookback and retest window.
const DefaultKlineLimit = 500

// Collector gathers the inputs both pipelines need from their providers.
type Collector struct {
	Source     DataSource
	Klines     KlineSource
	KlineLimit int
}

// NewCollector creates a new Collector.
func NewCollector(source DataSource, klines KlineSource) *Collector {
	return &Collector{Source: source, Klines: klines, KlineLimit: DefaultKlineLimit}
}

// Universe returns configured when non-empty, otherwise the top limit assets
// of the data source.
func (c *Collector) Universe(ctx context.Context, configured []model.Asset, limit int) ([]model.Asset, error) {
	if len(configured) > 0 {
		return configured, nil
	}
	assets, err := c.Source.FetchUniverse(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch universe: %w", err)
	}
	return assets, nil
}

// History fetches the daily series for one asset and folds in today's
// snapshot. A failed snapshot is logged and the history is used as is.
func (c *Collector) History(ctx context.Context, assetID string) ([]model.MarketDataPoint, error) {
	points, err := c.Source.FetchHistoricalData(ctx, assetID, factor.HistoryDays)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}

	current, err := c.Source.FetchCurrentMarketData(ctx, assetID)
	if err != nil {
		log.Warn().Err(err).Str("asset", assetID).Msg("current market data unavailable, using history only")
	} else if current != nil {
		points = append(points, *current)
	}
	return factor.NormalizeSeries(points), nil
}

// Bars fetches klines for one asset at tf.
func (c *Collector) Bars(ctx context.Context, asset model.Asset, tf model.Timeframe) ([]model.OHLCV, error) {
	limit := c.KlineLimit
	if limit <= 0 {
		limit = DefaultKlineLimit
	}
	bars, err := c.Klines.FetchKlines(ctx, asset.Symbol, tf, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch klines: %w", err)
	}
	return bars, nil
}
