package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AssetSentinel/internal/metrics"
	"AssetSentinel/internal/model"
	"AssetSentinel/internal/pipeline"
	"AssetSentinel/internal/recorder"
)

type stubRecorder struct {
	recorder.NoopRecorder
	sig *model.TechnicalSignal
	err error
}

func (s *stubRecorder) LatestSignal(_ context.Context, assetID string, tf model.Timeframe) (*model.TechnicalSignal, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.sig == nil || s.sig.AssetID != assetID || s.sig.Timeframe != tf {
		return nil, recorder.ErrNotFound
	}
	return s.sig, nil
}

func do(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthAndRequestID(t *testing.T) {
	s := NewServer(":0", &pipeline.Snapshot{}, &stubRecorder{}, nil)
	rec := do(t, s.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Len(t, rec.Header().Get("X-Request-ID"), 8)
}

func TestPortfolioAndSignals(t *testing.T) {
	snap := &pipeline.Snapshot{}
	s := NewServer(":0", snap, &stubRecorder{}, nil)

	assert.Equal(t, http.StatusServiceUnavailable, do(t, s.Handler(), "/api/portfolio").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, s.Handler(), "/api/signals").Code)

	snap.SetPortfolio(&pipeline.PortfolioResult{
		RunID:       "run-1",
		AsOf:        time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Allocations: []model.PortfolioAllocation{{AssetID: "bitcoin", TargetWeight: 0.2, AdjustedWeight: 0.2}},
	})
	rec := do(t, s.Handler(), "/api/portfolio")
	require.Equal(t, http.StatusOK, rec.Code)
	var got pipeline.PortfolioResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "run-1", got.RunID)
	require.Len(t, got.Allocations, 1)
	assert.Equal(t, "bitcoin", got.Allocations[0].AssetID)

	snap.SetSignals(&pipeline.SignalResult{RunID: "run-2"})
	rec = do(t, s.Handler(), "/api/signals")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"run_id":"run-2"`)
}

func TestLatestSignal(t *testing.T) {
	stub := &stubRecorder{sig: &model.TechnicalSignal{
		AssetID:   "bitcoin",
		Timeframe: model.Timeframe4h,
		Source:    model.SourceClusterBreakout,
		Direction: model.DirectionUp,
	}}
	s := NewServer(":0", &pipeline.Snapshot{}, stub, nil)

	rec := do(t, s.Handler(), "/api/signals/bitcoin/4h")
	require.Equal(t, http.StatusOK, rec.Code)
	var sig model.TechnicalSignal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sig))
	assert.Equal(t, model.DirectionUp, sig.Direction)

	assert.Equal(t, http.StatusNotFound, do(t, s.Handler(), "/api/signals/ethereum/4h").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s.Handler(), "/api/signals/bitcoin/5m").Code)

	stub.err = errors.New("db closed")
	assert.Equal(t, http.StatusInternalServerError, do(t, s.Handler(), "/api/signals/bitcoin/4h").Code)
}

func TestMetricsAndNotFound(t *testing.T) {
	m := metrics.New("test")
	m.PipelineRuns.WithLabelValues("portfolio", "ok").Inc()
	s := NewServer(":0", &pipeline.Snapshot{}, &stubRecorder{}, m.Handler())

	rec := do(t, s.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_pipeline_runs_total")

	rec = do(t, s.Handler(), "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not found"}`, rec.Body.String())
}
