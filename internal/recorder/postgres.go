package recorder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"AssetSentinel/internal/model"
)

// postgresSchema is applied in order by Migrate. Prices and weights are
// stored as NUMERIC so reports read back exactly what was written.
var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS factor_snapshots (
		id                         BIGSERIAL PRIMARY KEY,
		run_id                     UUID NOT NULL,
		asset_id                   TEXT NOT NULL,
		as_of                      TIMESTAMPTZ NOT NULL,
		log_market_cap             DOUBLE PRECISION,
		fdv_to_market_cap_ratio    DOUBLE PRECISION,
		price_to_high_365d         DOUBLE PRECISION,
		return_90d                 DOUBLE PRECISION,
		return_180d                DOUBLE PRECISION,
		return_365d                DOUBLE PRECISION,
		volatility_90d             DOUBLE PRECISION,
		volatility_180d            DOUBLE PRECISION,
		volume_to_market_cap_ratio DOUBLE PRECISION,
		avg_daily_volume_30d       DOUBLE PRECISION,
		volatility_365d            DOUBLE PRECISION,
		max_drawdown_365d          DOUBLE PRECISION,
		valuation_score            DOUBLE PRECISION,
		momentum_score             DOUBLE PRECISION,
		liquidity_score            DOUBLE PRECISION,
		risk_score                 DOUBLE PRECISION,
		total_score                DOUBLE PRECISION
	)`,
	`CREATE INDEX IF NOT EXISTS idx_factor_asset_ts ON factor_snapshots(asset_id, as_of)`,
	`CREATE TABLE IF NOT EXISTS allocations (
		id              BIGSERIAL PRIMARY KEY,
		run_id          UUID NOT NULL,
		as_of           TIMESTAMPTZ NOT NULL,
		asset_id        TEXT NOT NULL,
		total_score     DOUBLE PRECISION,
		target_weight   NUMERIC(10,6),
		adjusted_weight NUMERIC(10,6)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_alloc_run ON allocations(run_id)`,
	`CREATE TABLE IF NOT EXISTS technical_signals (
		asset_id          TEXT NOT NULL,
		timeframe         TEXT NOT NULL,
		source            TEXT NOT NULL,
		direction         TEXT NOT NULL,
		bar_index         INTEGER,
		bar_time          TIMESTAMPTZ NOT NULL,
		breakout_bar_time TIMESTAMPTZ,
		cluster_mean      NUMERIC(30,12),
		cluster_high      NUMERIC(30,12),
		cluster_low       NUMERIC(30,12),
		cluster_width     NUMERIC(30,12),
		density_score     DOUBLE PRECISION,
		breakout_score    DOUBLE PRECISION,
		retest_score      DOUBLE PRECISION,
		signal_score      DOUBLE PRECISION,
		entry_price       NUMERIC(30,12),
		stop_loss         NUMERIC(30,12),
		take_profit_1     NUMERIC(30,12),
		take_profit_2     NUMERIC(30,12),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (asset_id, timeframe)
	)`,
}

// PostgresRecorder persists pipeline output to PostgreSQL.
type PostgresRecorder struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewPostgresRecorder connects to dsn and applies the schema.
func NewPostgresRecorder(ctx context.Context, dsn string, timeout time.Duration) (*PostgresRecorder, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	r := NewPostgresRecorderWithDB(db, timeout)
	if err := r.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info().Msg("postgres recorder opened")
	return r, nil
}

// NewPostgresRecorderWithDB wraps an existing handle without migrating.
func NewPostgresRecorderWithDB(db *sqlx.DB, timeout time.Duration) *PostgresRecorder {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PostgresRecorder{db: db, timeout: timeout}
}

// Migrate creates missing tables and indexes.
func (r *PostgresRecorder) Migrate(ctx context.Context) error {
	for _, s := range postgresSchema {
		if _, err := r.db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *PostgresRecorder) RecordFactors(ctx context.Context, runID string, records []FactorRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, rec := range records {
		f, s := rec.Factors, rec.Scores
		_, err := tx.ExecContext(ctx, `INSERT INTO factor_snapshots
			(run_id, asset_id, as_of,
			 log_market_cap, fdv_to_market_cap_ratio, price_to_high_365d,
			 return_90d, return_180d, return_365d, volatility_90d, volatility_180d,
			 volume_to_market_cap_ratio, avg_daily_volume_30d,
			 volatility_365d, max_drawdown_365d,
			 valuation_score, momentum_score, liquidity_score, risk_score, total_score)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
			runID, f.AssetID, f.AsOf,
			f.LogMarketCap, f.FDVToMarketCapRatio, f.PriceToHigh365d,
			f.Return90d, f.Return180d, f.Return365d, f.Volatility90d, f.Volatility180d,
			f.VolumeToMarketCapRatio, f.AvgDailyVolume30d,
			f.Volatility365d, f.MaxDrawdown365d,
			s.ValuationScore, s.MomentumScore, s.LiquidityScore, s.RiskScore, s.TotalScore,
		)
		if err != nil {
			return fmt.Errorf("insert factors %s: %w", f.AssetID, err)
		}
	}
	return tx.Commit()
}

func (r *PostgresRecorder) RecordAllocations(ctx context.Context, runID string, asOf time.Time, allocs []model.PortfolioAllocation) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, a := range allocs {
		_, err := tx.ExecContext(ctx, `INSERT INTO allocations
			(run_id, as_of, asset_id, total_score, target_weight, adjusted_weight)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			runID, asOf, a.AssetID, a.TotalScore,
			decimal.NewFromFloat(a.TargetWeight), decimal.NewFromFloat(a.AdjustedWeight),
		)
		if err != nil {
			return fmt.Errorf("insert allocation %s: %w", a.AssetID, err)
		}
	}
	return tx.Commit()
}

// signalRow mirrors a technical_signals row.
type signalRow struct {
	Source          string          `db:"source"`
	Direction       string          `db:"direction"`
	BarIndex        int             `db:"bar_index"`
	BarTime         time.Time       `db:"bar_time"`
	BreakoutBarTime time.Time       `db:"breakout_bar_time"`
	ClusterMean     decimal.Decimal `db:"cluster_mean"`
	ClusterHigh     decimal.Decimal `db:"cluster_high"`
	ClusterLow      decimal.Decimal `db:"cluster_low"`
	ClusterWidth    decimal.Decimal `db:"cluster_width"`
	DensityScore    float64         `db:"density_score"`
	BreakoutScore   float64         `db:"breakout_score"`
	RetestScore     float64         `db:"retest_score"`
	SignalScore     float64         `db:"signal_score"`
	EntryPrice      decimal.Decimal `db:"entry_price"`
	StopLoss        decimal.Decimal `db:"stop_loss"`
	TakeProfit1     decimal.Decimal `db:"take_profit_1"`
	TakeProfit2     decimal.Decimal `db:"take_profit_2"`
}

func (r *PostgresRecorder) UpsertSignal(ctx context.Context, sig model.TechnicalSignal) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `INSERT INTO technical_signals
		(asset_id, timeframe, source, direction, bar_index, bar_time, breakout_bar_time,
		 cluster_mean, cluster_high, cluster_low, cluster_width,
		 density_score, breakout_score, retest_score, signal_score,
		 entry_price, stop_loss, take_profit_1, take_profit_2, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,now())
		ON CONFLICT (asset_id, timeframe) DO UPDATE SET
			source = EXCLUDED.source,
			direction = EXCLUDED.direction,
			bar_index = EXCLUDED.bar_index,
			bar_time = EXCLUDED.bar_time,
			breakout_bar_time = EXCLUDED.breakout_bar_time,
			cluster_mean = EXCLUDED.cluster_mean,
			cluster_high = EXCLUDED.cluster_high,
			cluster_low = EXCLUDED.cluster_low,
			cluster_width = EXCLUDED.cluster_width,
			density_score = EXCLUDED.density_score,
			breakout_score = EXCLUDED.breakout_score,
			retest_score = EXCLUDED.retest_score,
			signal_score = EXCLUDED.signal_score,
			entry_price = EXCLUDED.entry_price,
			stop_loss = EXCLUDED.stop_loss,
			take_profit_1 = EXCLUDED.take_profit_1,
			take_profit_2 = EXCLUDED.take_profit_2,
			updated_at = EXCLUDED.updated_at
		WHERE EXCLUDED.bar_time > technical_signals.bar_time`,
		sig.AssetID, string(sig.Timeframe), string(sig.Source), string(sig.Direction),
		sig.BarIndex, sig.BarTime, sig.BreakoutBarTime,
		decimal.NewFromFloat(sig.ClusterMean), decimal.NewFromFloat(sig.ClusterHigh),
		decimal.NewFromFloat(sig.ClusterLow), decimal.NewFromFloat(sig.ClusterWidth),
		sig.DensityScore, sig.BreakoutScore, sig.RetestScore, sig.SignalScore,
		decimal.NewFromFloat(sig.EntryPrice), decimal.NewFromFloat(sig.StopLoss),
		decimal.NewFromFloat(sig.TakeProfit1), decimal.NewFromFloat(sig.TakeProfit2),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			return false, fmt.Errorf("upsert signal %s/%s: %s: %w", sig.AssetID, sig.Timeframe, pqErr.Code.Name(), err)
		}
		return false, fmt.Errorf("upsert signal %s/%s: %w", sig.AssetID, sig.Timeframe, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PostgresRecorder) LatestSignal(ctx context.Context, assetID string, tf model.Timeframe) (*model.TechnicalSignal, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var row signalRow
	err := r.db.GetContext(ctx, &row, `SELECT
		source, direction, bar_index, bar_time, breakout_bar_time,
		cluster_mean, cluster_high, cluster_low, cluster_width,
		density_score, breakout_score, retest_score, signal_score,
		entry_price, stop_loss, take_profit_1, take_profit_2
		FROM technical_signals WHERE asset_id = $1 AND timeframe = $2`,
		assetID, string(tf),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query signal %s/%s: %w", assetID, tf, err)
	}
	return &model.TechnicalSignal{
		AssetID:         assetID,
		Timeframe:       tf,
		Source:          model.SignalSource(row.Source),
		Direction:       model.Direction(row.Direction),
		BarIndex:        row.BarIndex,
		BarTime:         row.BarTime.UTC(),
		BreakoutBarTime: row.BreakoutBarTime.UTC(),
		ClusterMean:     row.ClusterMean.InexactFloat64(),
		ClusterHigh:     row.ClusterHigh.InexactFloat64(),
		ClusterLow:      row.ClusterLow.InexactFloat64(),
		ClusterWidth:    row.ClusterWidth.InexactFloat64(),
		DensityScore:    row.DensityScore,
		BreakoutScore:   row.BreakoutScore,
		RetestScore:     row.RetestScore,
		SignalScore:     row.SignalScore,
		EntryPrice:      row.EntryPrice.InexactFloat64(),
		StopLoss:        row.StopLoss.InexactFloat64(),
		TakeProfit1:     row.TakeProfit1.InexactFloat64(),
		TakeProfit2:     row.TakeProfit2.InexactFloat64(),
	}, nil
}

func (r *PostgresRecorder) Close() error {
	log.Info().Msg("closing postgres recorder")
	return r.db.Close()
}
