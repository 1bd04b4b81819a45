package main

import (
	"context"
	"fmt"
	"io"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"AssetSentinel/internal/collector"
	"AssetSentinel/internal/config"
	"AssetSentinel/internal/logger"
	"AssetSentinel/internal/metrics"
	"AssetSentinel/internal/model"
	"AssetSentinel/internal/pipeline"
	"AssetSentinel/internal/recorder"
	"AssetSentinel/internal/technical"
)

var mockAssets = []model.Asset{
	{ID: "bitcoin", Symbol: "BTCUSDT", Name: "Bitcoin"},
	{ID: "ethereum", Symbol: "ETHUSDT", Name: "Ethereum"},
	{ID: "solana", Symbol: "SOLUSDT", Name: "Solana"},
	{ID: "chainlink", Symbol: "LINKUSDT", Name: "Chainlink"},
	{ID: "dogecoin", Symbol: "DOGEUSDT", Name: "Dogecoin"},
}

// app holds everything built from the config. close releases it in reverse.
type app struct {
	cfg      *config.Config
	pipeline *pipeline.Pipeline
	recorder recorder.Recorder
	metrics  *metrics.Metrics
	closers  []io.Closer
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			log.Warn().Err(err).Msg("close")
		}
	}
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	logCloser, err := logger.Init(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a := &app{cfg: cfg, closers: []io.Closer{logCloser}}

	guardCfg := collector.GuardConfig{
		RequestsPerSecond: cfg.DataSource.RequestsPerSecond,
		Burst:             cfg.DataSource.Burst,
		MaxFailures:       cfg.DataSource.BreakerMaxFailures,
		OpenTimeout:       cfg.DataSource.BreakerTimeout,
	}
	mock := &collector.MockSource{Assets: mockAssets}

	var source collector.DataSource = mock
	if cfg.DataSource.Provider == "coingecko" {
		source = collector.NewCoinGeckoSource(cfg.DataSource.CoinGeckoURL, cfg.DataSource.APIKey, cfg.Proxy,
			collector.NewGuard("coingecko", guardCfg))
	}
	var klines collector.KlineSource = mock
	if cfg.DataSource.KlineProvider == "binance" {
		klines = collector.NewBinanceKlineSource(cfg.DataSource.BinanceURL, cfg.Proxy,
			collector.NewGuard("binance", guardCfg))
	}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, kline cache disabled")
			_ = rdb.Close()
		} else {
			klines = collector.NewCachedKlineSource(klines, rdb, cfg.Redis.KlineTTL)
			a.closers = append(a.closers, rdb)
		}
	}
	log.Info().Str("source", source.Name()).Str("klines", klines.Name()).Msg("data sources ready")

	col := collector.NewCollector(source, klines)
	col.KlineLimit = cfg.Universe.KlineLimit

	a.recorder = openRecorder(ctx, cfg)
	a.closers = append(a.closers, a.recorder)
	a.metrics = metrics.New("")

	a.pipeline = pipeline.New(pipeline.Options{
		Collector:  col,
		Scanner:    technical.NewScanner(cfg.Technical),
		Recorder:   a.recorder,
		Metrics:    a.metrics,
		Rules:      cfg.Scoring,
		Assets:     cfg.Universe.Assets,
		TopN:       cfg.Universe.TopN,
		Timeframes: cfg.Universe.Timeframes,
		Throttle:   cfg.Schedule.Throttle,
	})
	return a, nil
}

// openRecorder prefers Postgres, then SQLite, and falls back to a no-op
// recorder so the pipelines keep running without storage.
func openRecorder(ctx context.Context, cfg *config.Config) recorder.Recorder {
	if dsn := cfg.Database.PostgresDSN; dsn != "" {
		pr, err := recorder.NewPostgresRecorder(ctx, dsn, cfg.Database.QueryTimeout)
		if err == nil {
			log.Info().Msg("recording to postgres")
			return pr
		}
		log.Warn().Err(err).Msg("init postgres recorder failed")
	}
	if path := cfg.Database.SQLitePath; path != "" {
		sr, err := recorder.NewSQLiteRecorder(path)
		if err == nil {
			log.Info().Str("path", path).Msg("recording to sqlite")
			return sr
		}
		log.Warn().Err(err).Msg("init sqlite recorder failed")
	}
	log.Warn().Msg("no recorder available, results are not persisted")
	return recorder.NewNoopRecorder()
}
