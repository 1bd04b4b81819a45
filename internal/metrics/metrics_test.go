package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IndependentRegistries(t *testing.T) {
	a := New("test")
	b := New("test")

	a.PipelineRuns.WithLabelValues("portfolio", "ok").Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.PipelineRuns.WithLabelValues("portfolio", "ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.PipelineRuns.WithLabelValues("portfolio", "ok")))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	m := New("test")
	m.TargetWeight.WithLabelValues("bitcoin").Set(0.2)
	m.SignalsEmitted.WithLabelValues("4h", "retest", "up").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `test_portfolio_adjusted_weight{asset="bitcoin"} 0.2`)
	assert.Contains(t, string(body), `test_signals_emitted_total{direction="up",source="retest",timeframe="4h"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
