package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"AssetSentinel/internal/logger"
	"AssetSentinel/internal/model"
	"AssetSentinel/internal/strategy"
	"AssetSentinel/internal/technical"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider           string        `yaml:"provider"`       // coingecko or mock
		KlineProvider      string        `yaml:"kline_provider"` // binance or mock
		CoinGeckoURL       string        `yaml:"coingecko_url"`
		APIKey             string        `yaml:"api_key"`
		BinanceURL         string        `yaml:"binance_url"`
		RequestsPerSecond  float64       `yaml:"requests_per_second"`
		Burst              int           `yaml:"burst"`
		BreakerMaxFailures uint32        `yaml:"breaker_max_failures"`
		BreakerTimeout     time.Duration `yaml:"breaker_timeout"`
	} `yaml:"data_source"`
	Universe struct {
		Assets     []model.Asset     `yaml:"assets"` // empty means top N by market cap
		TopN       int               `yaml:"top_n"`
		Timeframes []model.Timeframe `yaml:"timeframes"`
		KlineLimit int               `yaml:"kline_limit"`
	} `yaml:"universe"`
	Schedule struct {
		PortfolioCron string        `yaml:"portfolio_cron"`
		SignalCron    string        `yaml:"signal_cron"`
		Throttle      time.Duration `yaml:"throttle"`
	} `yaml:"schedule"`
	Scoring   model.ScoringRules `yaml:"scoring"`
	Technical technical.Config   `yaml:"technical"`
	Database  struct {
		SQLitePath   string        `yaml:"sqlite_path"`
		PostgresDSN  string        `yaml:"postgres_dsn"`
		QueryTimeout time.Duration `yaml:"query_timeout"`
	} `yaml:"database"`
	Redis struct {
		Addr     string        `yaml:"addr"` // empty disables the kline cache
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		KlineTTL time.Duration `yaml:"kline_ttl"`
	} `yaml:"redis"`
	HTTP struct {
		Addr string `yaml:"addr"` // empty disables the HTTP API
	} `yaml:"http"`
	Log   logger.Config `yaml:"log"`
	Proxy string        `yaml:"proxy"`
}

// Default returns a configuration with every default filled in.
func Default() *Config {
	cfg := &Config{}
	cfg.DataSource.Provider = "coingecko"
	cfg.DataSource.KlineProvider = "binance"
	cfg.DataSource.RequestsPerSecond = 0.5
	cfg.DataSource.Burst = 1
	cfg.DataSource.BreakerMaxFailures = 3
	cfg.DataSource.BreakerTimeout = 60 * time.Second
	cfg.Universe.TopN = 20
	cfg.Universe.Timeframes = []model.Timeframe{model.Timeframe1h, model.Timeframe4h, model.Timeframe1d}
	cfg.Universe.KlineLimit = 500
	cfg.Schedule.PortfolioCron = "0 0 1 * * *"
	cfg.Schedule.SignalCron = "0 5 * * * *"
	cfg.Schedule.Throttle = 2 * time.Second
	cfg.Scoring = strategy.DefaultScoringRules()
	cfg.Technical = technical.DefaultConfig()
	cfg.Database.SQLitePath = "data/asset_sentinel.db"
	cfg.Database.QueryTimeout = 10 * time.Second
	cfg.Redis.KlineTTL = 5 * time.Minute
	cfg.Log = logger.Config{Level: "info", Format: "auto", MaxSizeMB: 50, MaxBackups: 5, MaxAgeDays: 30}
	return cfg
}

// Load reads .env (if present) and the YAML file over the defaults, then
// applies environment variable overrides. A missing YAML file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	str := map[string]*string{
		"TELEGRAM_BOT_TOKEN": &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":   &c.Telegram.ChatID,
		"DATA_PROVIDER":      &c.DataSource.Provider,
		"KLINE_PROVIDER":     &c.DataSource.KlineProvider,
		"COINGECKO_API_KEY":  &c.DataSource.APIKey,
		"HTTPS_PROXY":        &c.Proxy,
		"CRON_PORTFOLIO":     &c.Schedule.PortfolioCron,
		"CRON_SIGNALS":       &c.Schedule.SignalCron,
		"SQLITE_PATH":        &c.Database.SQLitePath,
		"POSTGRES_DSN":       &c.Database.PostgresDSN,
		"REDIS_ADDR":         &c.Redis.Addr,
		"REDIS_PASSWORD":     &c.Redis.Password,
		"HTTP_ADDR":          &c.HTTP.Addr,
		"LOG_LEVEL":          &c.Log.Level,
		"LOG_FORMAT":         &c.Log.Format,
		"LOG_FILE":           &c.Log.File,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("UNIVERSE_TOP_N"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Universe.TopN = n
		}
	}
	if v := os.Getenv("MAX_TOTAL_WEIGHT"); v != "" {
		if w, err := strconv.ParseFloat(v, 64); err == nil {
			c.Scoring.MaxTotalWeight = w
		}
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	switch c.DataSource.Provider {
	case "coingecko", "mock":
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	switch c.DataSource.KlineProvider {
	case "binance", "mock":
	default:
		return fmt.Errorf("data_source.kline_provider %q is not supported", c.DataSource.KlineProvider)
	}
	if len(c.Universe.Assets) == 0 && c.Universe.TopN <= 0 {
		return fmt.Errorf("universe.assets or universe.top_n is required")
	}
	for _, a := range c.Universe.Assets {
		if a.ID == "" || a.Symbol == "" {
			return fmt.Errorf("universe.assets entries need id and symbol")
		}
	}
	if len(c.Universe.Timeframes) == 0 {
		return fmt.Errorf("universe.timeframes is required")
	}
	for _, tf := range c.Universe.Timeframes {
		if !tf.Valid() {
			return fmt.Errorf("universe.timeframes: unsupported %q", tf)
		}
	}
	if c.Schedule.PortfolioCron == "" || c.Schedule.SignalCron == "" {
		return fmt.Errorf("schedule.portfolio_cron and schedule.signal_cron are required")
	}
	if err := validateScoring(c.Scoring); err != nil {
		return err
	}
	return validateTechnical(c.Technical)
}

func validateScoring(r model.ScoringRules) error {
	if len(r.WeightThresholds) == 0 {
		return fmt.Errorf("scoring.weight_thresholds is required")
	}
	for i, b := range r.WeightThresholds {
		if b.MaxScore != nil && *b.MaxScore <= b.MinScore {
			return fmt.Errorf("scoring.weight_thresholds[%d]: max_score must exceed min_score", i)
		}
		if b.TargetWeight < -1 || b.TargetWeight > 1 {
			return fmt.Errorf("scoring.weight_thresholds[%d]: target_weight out of [-1,1]", i)
		}
	}
	if r.MinWeightThreshold < 0 {
		return fmt.Errorf("scoring.min_weight_threshold must not be negative")
	}
	return nil
}

func validateTechnical(t technical.Config) error {
	if t.Lookback <= 0 || t.MACDWindow <= 0 || t.RetestWindow <= 0 || t.VolumeAvgPeriod <= 0 {
		return fmt.Errorf("technical: lookback, macd_window, retest_window and volume_avg_period must be positive")
	}
	if t.MinDensityScore < 0 || t.MinDensityScore > 1 {
		return fmt.Errorf("technical.min_density_score must be within [0,1]")
	}
	switch t.EntryMode {
	case technical.EntryClose, technical.EntryNextOpen:
	default:
		return fmt.Errorf("technical.entry_mode %q is not supported", t.EntryMode)
	}
	return nil
}
