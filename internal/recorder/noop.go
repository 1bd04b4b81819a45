package recorder

import (
	"context"
	"time"

	"AssetSentinel/internal/model"
)

// NoopRecorder is a no-op implementation used when no database is configured.
// UpsertSignal always reports a write so callers still notify.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordFactors(context.Context, string, []FactorRecord) error { return nil }
func (n *NoopRecorder) RecordAllocations(context.Context, string, time.Time, []model.PortfolioAllocation) error {
	return nil
}
func (n *NoopRecorder) UpsertSignal(context.Context, model.TechnicalSignal) (bool, error) {
	return true, nil
}
func (n *NoopRecorder) LatestSignal(context.Context, string, model.Timeframe) (*model.TechnicalSignal, error) {
	return nil, ErrNotFound
}
func (n *NoopRecorder) Close() error { return nil }
