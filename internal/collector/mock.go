package collector

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"AssetSentinel/internal/model"
)

// MockSource returns deterministic synthetic data for development and testing.
// It implements both DataSource and KlineSource.
type MockSource struct {
	Assets []model.Asset
	// Now anchors generated series; zero means time.Now.
	Now time.Time
	// History and Klines override generated data when set.
	History map[string][]model.MarketDataPoint
	Klines  map[string][]model.OHLCV
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) now() time.Time {
	if m.Now.IsZero() {
		return time.Now().UTC()
	}
	return m.Now.UTC()
}

func (m *MockSource) FetchUniverse(_ context.Context, limit int) ([]model.Asset, error) {
	if limit > 0 && limit < len(m.Assets) {
		return m.Assets[:limit], nil
	}
	return m.Assets, nil
}

func (m *MockSource) FetchHistoricalData(_ context.Context, assetID string, days int) ([]model.MarketDataPoint, error) {
	if pts, ok := m.History[assetID]; ok {
		return pts, nil
	}
	return generateMockHistory(assetID, m.now(), days), nil
}

func (m *MockSource) FetchCurrentMarketData(ctx context.Context, assetID string) (*model.MarketDataPoint, error) {
	pts, err := m.FetchHistoricalData(ctx, assetID, 1)
	if err != nil {
		return nil, err
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("mock: no data for %s", assetID)
	}
	last := pts[len(pts)-1]
	if last.MarketCap != nil && last.FDV == nil {
		last.FDV = model.Float(*last.MarketCap * 1.2)
	}
	return &last, nil
}

func (m *MockSource) FetchKlines(_ context.Context, symbol string, tf model.Timeframe, limit int) ([]model.OHLCV, error) {
	if bars, ok := m.Klines[symbol]; ok {
		return bars, nil
	}
	return generateMockBars(symbol, tf, m.now(), limit), nil
}

var mockOrigin = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

func seedOf(s string) float64 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return float64(h.Sum32()%1000) / 1000
}

func generateMockHistory(assetID string, now time.Time, days int) []model.MarketDataPoint {
	seed := seedOf(assetID)
	base := 10 + seed*1000
	supply := 1e6 * (1 + seed*100)
	today := now.Truncate(24 * time.Hour)

	points := make([]model.MarketDataPoint, days)
	for i := 0; i < days; i++ {
		date := today.AddDate(0, 0, -(days - 1 - i))
		// Values depend on the date only, so overlapping requests agree.
		t := date.Sub(mockOrigin).Hours() / 24
		p := base * (1 + 0.0005*t*(seed-0.4)) * (1 + 0.1*math.Sin(t/(20+seed*30)))
		points[i] = model.MarketDataPoint{
			Date:      date,
			Price:     p,
			MarketCap: model.Float(p * supply),
			Volume:    model.Float(p * supply * (0.02 + 0.03*seed)),
		}
	}
	return points
}

func timeframeDuration(tf model.Timeframe) time.Duration {
	switch tf {
	case model.Timeframe4h:
		return 4 * time.Hour
	case model.Timeframe1d:
		return 24 * time.Hour
	default:
		return time.Hour
	}
}

func generateMockBars(symbol string, tf model.Timeframe, now time.Time, count int) []model.OHLCV {
	seed := seedOf(symbol)
	base := 10 + seed*1000
	step := timeframeDuration(tf)
	last := now.Truncate(step)

	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		t := float64(i)
		p := base * (1 + 0.02*math.Sin(t/(15+seed*10)))
		open := last.Add(-time.Duration(count-1-i) * step)
		bars[i] = model.OHLCV{
			OpenTime:  open,
			Open:      p * 0.999,
			High:      p * 1.004,
			Low:       p * 0.996,
			Close:     p,
			Volume:    1000 * (1 + seed),
			CloseTime: open.Add(step - time.Millisecond),
		}
	}
	return bars
}
