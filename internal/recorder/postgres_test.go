package recorder

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AssetSentinel/internal/model"
)

func newMockPostgres(t *testing.T) (*PostgresRecorder, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRecorderWithDB(sqlx.NewDb(db, "postgres"), time.Second), mock
}

func TestPostgresRecorder_Migrate(t *testing.T) {
	r, mock := newMockPostgres(t)
	for range postgresSchema {
		mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, r.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecorder_UpsertSignal(t *testing.T) {
	r, mock := newMockPostgres(t)
	upsert := regexp.QuoteMeta("INSERT INTO technical_signals")
	sig := testSignal(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC), 0.8)

	mock.ExpectExec(upsert).WillReturnResult(sqlmock.NewResult(0, 1))
	wrote, err := r.UpsertSignal(context.Background(), sig)
	require.NoError(t, err)
	assert.True(t, wrote)

	mock.ExpectExec(upsert).WillReturnResult(sqlmock.NewResult(0, 0))
	wrote, err = r.UpsertSignal(context.Background(), sig)
	require.NoError(t, err)
	assert.False(t, wrote)

	mock.ExpectExec(upsert).WillReturnError(errors.New("connection reset"))
	_, err = r.UpsertSignal(context.Background(), sig)
	assert.ErrorContains(t, err, "upsert signal bitcoin/4h")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecorder_LatestSignal(t *testing.T) {
	r, mock := newMockPostgres(t)
	barTime := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	query := regexp.QuoteMeta("FROM technical_signals WHERE asset_id = $1 AND timeframe = $2")

	cols := []string{
		"source", "direction", "bar_index", "bar_time", "breakout_bar_time",
		"cluster_mean", "cluster_high", "cluster_low", "cluster_width",
		"density_score", "breakout_score", "retest_score", "signal_score",
		"entry_price", "stop_loss", "take_profit_1", "take_profit_2",
	}
	mock.ExpectQuery(query).WithArgs("bitcoin", "4h").WillReturnRows(
		sqlmock.NewRows(cols).AddRow(
			"retest", "down", 410, barTime, barTime.Add(-8*time.Hour),
			"100.5", "101", "100", "1",
			0.9, 0.8, 0.7, 0.75,
			"100.25", "101.3", "98.825", "97.4",
		),
	)

	got, err := r.LatestSignal(context.Background(), "bitcoin", model.Timeframe4h)
	require.NoError(t, err)
	assert.Equal(t, model.SourceRetest, got.Source)
	assert.Equal(t, model.DirectionDown, got.Direction)
	assert.Equal(t, 410, got.BarIndex)
	assert.True(t, got.BarTime.Equal(barTime))
	assert.Equal(t, 100.5, got.ClusterMean)
	assert.Equal(t, 100.25, got.EntryPrice)
	assert.Equal(t, 97.4, got.TakeProfit2)
	assert.Equal(t, 0.75, got.SignalScore)

	mock.ExpectQuery(query).WithArgs("bitcoin", "1d").WillReturnError(sql.ErrNoRows)
	_, err = r.LatestSignal(context.Background(), "bitcoin", model.Timeframe1d)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecorder_RecordAllocations(t *testing.T) {
	r, mock := newMockPostgres(t)
	asOf := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO allocations")).
		WithArgs("run-1", asOf, "bitcoin", 4.2, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO allocations")).
		WithArgs("run-1", asOf, "ethereum", 3.2, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	err := r.RecordAllocations(context.Background(), "run-1", asOf, []model.PortfolioAllocation{
		{AssetID: "bitcoin", TotalScore: 4.2, TargetWeight: 0.2, AdjustedWeight: 0.2},
		{AssetID: "ethereum", TotalScore: 3.2, TargetWeight: 0.08, AdjustedWeight: 0.08},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecorder_RecordFactorsRollsBackOnError(t *testing.T) {
	r, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO factor_snapshots")).WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := r.RecordFactors(context.Background(), "run-1", []FactorRecord{
		{Factors: model.RawFactors{AssetID: "bitcoin"}},
	})
	assert.ErrorContains(t, err, "insert factors bitcoin")
	assert.NoError(t, mock.ExpectationsWereMet())
}
