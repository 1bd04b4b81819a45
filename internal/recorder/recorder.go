package recorder

import (
	"context"
	"errors"
	"time"

	"AssetSentinel/internal/model"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// FactorRecord pairs an asset's raw factors with the scores derived from them.
type FactorRecord struct {
	Factors model.RawFactors
	Scores  model.FactorScores
}

// Recorder persists pipeline output for later analysis.
type Recorder interface {
	RecordFactors(ctx context.Context, runID string, records []FactorRecord) error
	RecordAllocations(ctx context.Context, runID string, asOf time.Time, allocs []model.PortfolioAllocation) error
	// UpsertSignal stores sig as the current signal of its (asset, timeframe)
	// unless the stored one is on the same or a later bar. It reports whether
	// the row was written.
	UpsertSignal(ctx context.Context, sig model.TechnicalSignal) (bool, error)
	LatestSignal(ctx context.Context, assetID string, tf model.Timeframe) (*model.TechnicalSignal, error)
	Close() error
}
