package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"AssetSentinel/internal/model"
)

const defaultBinanceURL = "https://api.binance.com"

// BinanceKlineSource implements KlineSource using the Binance spot klines endpoint.
type BinanceKlineSource struct {
	BaseURL string
	Client  *http.Client
	Guard   *Guard
	// Now decides which candle is still open; nil means time.Now.
	Now func() time.Time
}

// NewBinanceKlineSource creates a kline source with optional proxy support.
func NewBinanceKlineSource(baseURL, proxyURL string, guard *Guard) *BinanceKlineSource {
	if baseURL == "" {
		baseURL = defaultBinanceURL
	}
	return &BinanceKlineSource{
		BaseURL: baseURL,
		Client:  newHTTPClient(proxyURL),
		Guard:   guard,
	}
}

func (b *BinanceKlineSource) Name() string { return "binance" }

// FetchKlines returns up to limit closed bars. The candle still in progress is
// dropped, so callers may get one bar fewer than limit. Binance caps a single
// request at 1000.
func (b *BinanceKlineSource) FetchKlines(ctx context.Context, symbol string, tf model.Timeframe, limit int) ([]model.OHLCV, error) {
	if !tf.Valid() {
		return nil, fmt.Errorf("binance: unsupported timeframe %q", tf)
	}
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}
	q := url.Values{}
	q.Set("symbol", strings.ToUpper(symbol))
	q.Set("interval", string(tf))
	q.Set("limit", strconv.Itoa(limit))
	endpoint := fmt.Sprintf("%s/api/v3/klines?%s", b.BaseURL, q.Encode())

	// Each row: [openTime, open, high, low, close, volume, closeTime, ...]
	var rows [][]json.RawMessage
	if err := getJSON(ctx, b.Client, b.Guard, endpoint, nil, &rows); err != nil {
		return nil, fmt.Errorf("binance klines %s %s: %w", symbol, tf, err)
	}

	now := time.Now()
	if b.Now != nil {
		now = b.Now()
	}
	bars := make([]model.OHLCV, 0, len(rows))
	for i, row := range rows {
		bar, err := parseKline(row)
		if err != nil {
			return nil, fmt.Errorf("binance kline %d: %w", i, err)
		}
		if bar.CloseTime.After(now) {
			continue
		}
		bars = append(bars, bar)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].OpenTime.Before(bars[j].OpenTime) })
	return bars, nil
}

func parseKline(row []json.RawMessage) (model.OHLCV, error) {
	if len(row) < 7 {
		return model.OHLCV{}, fmt.Errorf("short row: %d fields", len(row))
	}
	var openMs, closeMs int64
	if err := json.Unmarshal(row[0], &openMs); err != nil {
		return model.OHLCV{}, fmt.Errorf("open time: %w", err)
	}
	if err := json.Unmarshal(row[6], &closeMs); err != nil {
		return model.OHLCV{}, fmt.Errorf("close time: %w", err)
	}
	var vals [5]float64
	for k := range vals {
		var s string
		if err := json.Unmarshal(row[k+1], &s); err != nil {
			return model.OHLCV{}, fmt.Errorf("field %d: %w", k+1, err)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return model.OHLCV{}, fmt.Errorf("field %d: %w", k+1, err)
		}
		vals[k] = v
	}
	return model.OHLCV{
		OpenTime:  time.UnixMilli(openMs).UTC(),
		Open:      vals[0],
		High:      vals[1],
		Low:       vals[2],
		Close:     vals[3],
		Volume:    vals[4],
		CloseTime: time.UnixMilli(closeMs).UTC(),
	}, nil
}

// defaultKlineSymbol maps a market-data ticker to its USDT spot pair.
func defaultKlineSymbol(ticker string) string {
	return strings.ToUpper(ticker) + "USDT"
}
