package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	OpenTime  time.Time `json:"open_time"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	CloseTime time.Time `json:"close_time"`
}

// Timeframe is the bar interval of a kline series.
type Timeframe string

const (
	Timeframe1h Timeframe = "1h"
	Timeframe4h Timeframe = "4h"
	Timeframe1d Timeframe = "1d"
)

// Valid reports whether tf is one of the supported intervals.
func (tf Timeframe) Valid() bool {
	switch tf {
	case Timeframe1h, Timeframe4h, Timeframe1d:
		return true
	}
	return false
}

// Asset identifies one member of the tracked universe.
type Asset struct {
	ID     string `json:"id" yaml:"id"`         // market-data provider id, e.g. "bitcoin"
	Symbol string `json:"symbol" yaml:"symbol"` // kline symbol, e.g. "BTCUSDT"
	Name   string `json:"name" yaml:"name"`
}

// MarketDataPoint is one daily observation of an asset.
// Optional fields are nil when the provider did not report them.
type MarketDataPoint struct {
	Date      time.Time `json:"date"`
	Price     float64   `json:"price"`
	MarketCap *float64  `json:"market_cap,omitempty"`
	Volume    *float64  `json:"volume,omitempty"`
	FDV       *float64  `json:"fdv,omitempty"`
	High      *float64  `json:"high,omitempty"`
	Low       *float64  `json:"low,omitempty"`
	Open      *float64  `json:"open,omitempty"`
}

// Float returns a pointer to v, for filling optional fields.
func Float(v float64) *float64 { return &v }
