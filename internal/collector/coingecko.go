package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"AssetSentinel/internal/model"
)

const defaultCoinGeckoURL = "https://api.coingecko.com/api/v3"

// CoinGeckoSource implements DataSource using the CoinGecko REST API.
type CoinGeckoSource struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Guard   *Guard
}

// NewCoinGeckoSource creates a source with optional proxy support.
func NewCoinGeckoSource(baseURL, apiKey, proxyURL string, guard *Guard) *CoinGeckoSource {
	if baseURL == "" {
		baseURL = defaultCoinGeckoURL
	}
	return &CoinGeckoSource{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
		Guard:   guard,
	}
}

func (s *CoinGeckoSource) Name() string { return "coingecko" }

func (s *CoinGeckoSource) header() http.Header {
	h := http.Header{}
	if s.APIKey != "" {
		h.Set("x-cg-demo-api-key", s.APIKey)
	}
	return h
}

// cgMarket is one row of /coins/markets.
type cgMarket struct {
	ID                    string   `json:"id"`
	Symbol                string   `json:"symbol"`
	Name                  string   `json:"name"`
	CurrentPrice          *float64 `json:"current_price"`
	MarketCap             *float64 `json:"market_cap"`
	TotalVolume           *float64 `json:"total_volume"`
	FullyDilutedValuation *float64 `json:"fully_diluted_valuation"`
	High24h               *float64 `json:"high_24h"`
	Low24h                *float64 `json:"low_24h"`
	LastUpdated           string   `json:"last_updated"`
}

// cgMarketChart is the response of /coins/{id}/market_chart.
// Each entry is [unix millis, value].
type cgMarketChart struct {
	Prices       [][2]float64 `json:"prices"`
	MarketCaps   [][2]float64 `json:"market_caps"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}

func (s *CoinGeckoSource) markets(ctx context.Context, q url.Values) ([]cgMarket, error) {
	q.Set("vs_currency", "usd")
	endpoint := fmt.Sprintf("%s/coins/markets?%s", s.BaseURL, q.Encode())
	var rows []cgMarket
	if err := getJSON(ctx, s.Client, s.Guard, endpoint, s.header(), &rows); err != nil {
		return nil, fmt.Errorf("coingecko markets: %w", err)
	}
	return rows, nil
}

func (s *CoinGeckoSource) FetchUniverse(ctx context.Context, limit int) ([]model.Asset, error) {
	q := url.Values{}
	q.Set("order", "market_cap_desc")
	q.Set("per_page", strconv.Itoa(limit))
	q.Set("page", "1")
	rows, err := s.markets(ctx, q)
	if err != nil {
		return nil, err
	}
	assets := make([]model.Asset, 0, len(rows))
	for _, r := range rows {
		assets = append(assets, model.Asset{
			ID:     r.ID,
			Symbol: defaultKlineSymbol(r.Symbol),
			Name:   r.Name,
		})
	}
	return assets, nil
}

func (s *CoinGeckoSource) FetchHistoricalData(ctx context.Context, assetID string, days int) ([]model.MarketDataPoint, error) {
	endpoint := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=usd&days=%d&interval=daily",
		s.BaseURL, url.PathEscape(assetID), days)
	var chart cgMarketChart
	if err := getJSON(ctx, s.Client, s.Guard, endpoint, s.header(), &chart); err != nil {
		return nil, fmt.Errorf("coingecko market_chart %s: %w", assetID, err)
	}
	if len(chart.Prices) == 0 {
		return nil, fmt.Errorf("coingecko: no history for %s", assetID)
	}

	caps := indexByMillis(chart.MarketCaps)
	vols := indexByMillis(chart.TotalVolumes)
	points := make([]model.MarketDataPoint, 0, len(chart.Prices))
	for _, p := range chart.Prices {
		ms := int64(p[0])
		pt := model.MarketDataPoint{
			Date:  time.UnixMilli(ms).UTC(),
			Price: p[1],
		}
		if v, ok := caps[ms]; ok {
			pt.MarketCap = model.Float(v)
		}
		if v, ok := vols[ms]; ok {
			pt.Volume = model.Float(v)
		}
		points = append(points, pt)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

func (s *CoinGeckoSource) FetchCurrentMarketData(ctx context.Context, assetID string) (*model.MarketDataPoint, error) {
	q := url.Values{}
	q.Set("ids", assetID)
	rows, err := s.markets(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0].CurrentPrice == nil {
		return nil, fmt.Errorf("coingecko: no current data for %s", assetID)
	}
	r := rows[0]
	date := time.Now().UTC()
	if t, err := time.Parse(time.RFC3339, r.LastUpdated); err == nil {
		date = t.UTC()
	}
	return &model.MarketDataPoint{
		Date:      date,
		Price:     *r.CurrentPrice,
		MarketCap: r.MarketCap,
		Volume:    r.TotalVolume,
		FDV:       r.FullyDilutedValuation,
		High:      r.High24h,
		Low:       r.Low24h,
	}, nil
}

func indexByMillis(pairs [][2]float64) map[int64]float64 {
	m := make(map[int64]float64, len(pairs))
	for _, p := range pairs {
		m[int64(p[0])] = p[1]
	}
	return m
}
