package recorder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"AssetSentinel/internal/model"
)

// SQLiteRecorder persists pipeline output to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while the pipeline writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS factor_snapshots (
			id                         INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id                     TEXT NOT NULL,
			asset_id                   TEXT NOT NULL,
			as_of                      INTEGER NOT NULL,
			log_market_cap             REAL,
			fdv_to_market_cap_ratio    REAL,
			price_to_high_365d         REAL,
			return_90d                 REAL,
			return_180d                REAL,
			return_365d                REAL,
			volatility_90d             REAL,
			volatility_180d            REAL,
			volume_to_market_cap_ratio REAL,
			avg_daily_volume_30d       REAL,
			volatility_365d            REAL,
			max_drawdown_365d          REAL,
			valuation_score            REAL,
			momentum_score             REAL,
			liquidity_score            REAL,
			risk_score                 REAL,
			total_score                REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_factor_asset_ts ON factor_snapshots(asset_id, as_of)`,

		`CREATE TABLE IF NOT EXISTS allocations (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id          TEXT NOT NULL,
			as_of           INTEGER NOT NULL,
			asset_id        TEXT NOT NULL,
			total_score     REAL,
			target_weight   REAL,
			adjusted_weight REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alloc_run ON allocations(run_id)`,

		`CREATE TABLE IF NOT EXISTS technical_signals (
			asset_id          TEXT NOT NULL,
			timeframe         TEXT NOT NULL,
			source            TEXT NOT NULL,
			direction         TEXT NOT NULL,
			bar_index         INTEGER,
			bar_time          INTEGER NOT NULL,
			breakout_bar_time INTEGER,
			cluster_mean      REAL,
			cluster_high      REAL,
			cluster_low       REAL,
			cluster_width     REAL,
			density_score     REAL,
			breakout_score    REAL,
			retest_score      REAL,
			signal_score      REAL,
			entry_price       REAL,
			stop_loss         REAL,
			take_profit_1     REAL,
			take_profit_2     REAL,
			updated_at        INTEGER NOT NULL,
			PRIMARY KEY (asset_id, timeframe)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordFactors(ctx context.Context, runID string, records []FactorRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
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
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			runID, f.AssetID, f.AsOf.Unix(),
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

func (r *SQLiteRecorder) RecordAllocations(ctx context.Context, runID string, asOf time.Time, allocs []model.PortfolioAllocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, a := range allocs {
		_, err := tx.ExecContext(ctx, `INSERT INTO allocations
			(run_id, as_of, asset_id, total_score, target_weight, adjusted_weight)
			VALUES (?,?,?,?,?,?)`,
			runID, asOf.Unix(), a.AssetID, a.TotalScore, a.TargetWeight, a.AdjustedWeight,
		)
		if err != nil {
			return fmt.Errorf("insert allocation %s: %w", a.AssetID, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) UpsertSignal(ctx context.Context, sig model.TechnicalSignal) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx, `INSERT INTO technical_signals
		(asset_id, timeframe, source, direction, bar_index, bar_time, breakout_bar_time,
		 cluster_mean, cluster_high, cluster_low, cluster_width,
		 density_score, breakout_score, retest_score, signal_score,
		 entry_price, stop_loss, take_profit_1, take_profit_2, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(asset_id, timeframe) DO UPDATE SET
			source = excluded.source,
			direction = excluded.direction,
			bar_index = excluded.bar_index,
			bar_time = excluded.bar_time,
			breakout_bar_time = excluded.breakout_bar_time,
			cluster_mean = excluded.cluster_mean,
			cluster_high = excluded.cluster_high,
			cluster_low = excluded.cluster_low,
			cluster_width = excluded.cluster_width,
			density_score = excluded.density_score,
			breakout_score = excluded.breakout_score,
			retest_score = excluded.retest_score,
			signal_score = excluded.signal_score,
			entry_price = excluded.entry_price,
			stop_loss = excluded.stop_loss,
			take_profit_1 = excluded.take_profit_1,
			take_profit_2 = excluded.take_profit_2,
			updated_at = excluded.updated_at
		WHERE excluded.bar_time > technical_signals.bar_time`,
		sig.AssetID, string(sig.Timeframe), string(sig.Source), string(sig.Direction),
		sig.BarIndex, sig.BarTime.UnixMilli(), sig.BreakoutBarTime.UnixMilli(),
		sig.ClusterMean, sig.ClusterHigh, sig.ClusterLow, sig.ClusterWidth,
		sig.DensityScore, sig.BreakoutScore, sig.RetestScore, sig.SignalScore,
		sig.EntryPrice, sig.StopLoss, sig.TakeProfit1, sig.TakeProfit2,
		time.Now().UnixMilli(),
	)
	if err != nil {
		return false, fmt.Errorf("upsert signal %s/%s: %w", sig.AssetID, sig.Timeframe, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SQLiteRecorder) LatestSignal(ctx context.Context, assetID string, tf model.Timeframe) (*model.TechnicalSignal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		sig                    model.TechnicalSignal
		source, direction      string
		barTime, breakoutBarMs int64
	)
	err := r.db.QueryRowContext(ctx, `SELECT
		source, direction, bar_index, bar_time, breakout_bar_time,
		cluster_mean, cluster_high, cluster_low, cluster_width,
		density_score, breakout_score, retest_score, signal_score,
		entry_price, stop_loss, take_profit_1, take_profit_2
		FROM technical_signals WHERE asset_id = ? AND timeframe = ?`,
		assetID, string(tf),
	).Scan(
		&source, &direction, &sig.BarIndex, &barTime, &breakoutBarMs,
		&sig.ClusterMean, &sig.ClusterHigh, &sig.ClusterLow, &sig.ClusterWidth,
		&sig.DensityScore, &sig.BreakoutScore, &sig.RetestScore, &sig.SignalScore,
		&sig.EntryPrice, &sig.StopLoss, &sig.TakeProfit1, &sig.TakeProfit2,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query signal %s/%s: %w", assetID, tf, err)
	}
	sig.AssetID = assetID
	sig.Timeframe = tf
	sig.Source = model.SignalSource(source)
	sig.Direction = model.Direction(direction)
	sig.BarTime = time.UnixMilli(barTime).UTC()
	sig.BreakoutBarTime = time.UnixMilli(breakoutBarMs).UTC()
	return &sig, nil
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
