package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AssetSentinel/internal/model"
	"AssetSentinel/internal/pipeline"
)

type fakeRunner struct {
	snap         pipeline.Snapshot
	portfolio    *pipeline.PortfolioResult
	signals      *pipeline.SignalResult
	err          error
	portfolioRun int
}

func (f *fakeRunner) RunPortfolio(context.Context) (*pipeline.PortfolioResult, error) {
	f.portfolioRun++
	if f.err != nil {
		return nil, f.err
	}
	f.snap.SetPortfolio(f.portfolio)
	return f.portfolio, nil
}

func (f *fakeRunner) RunSignals(context.Context) (*pipeline.SignalResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.snap.SetSignals(f.signals)
	return f.signals, nil
}

func (f *fakeRunner) Snapshot() *pipeline.Snapshot { return &f.snap }

type fakeSender struct{ sent []string }

func (f *fakeSender) SendWithRetry(_ context.Context, text string, _ int) error {
	f.sent = append(f.sent, text)
	return nil
}

func testPortfolio() *pipeline.PortfolioResult {
	return &pipeline.PortfolioResult{
		AsOf:        time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Scores:      map[string]model.FactorScores{"bitcoin": {TotalScore: 4.1}},
		Allocations: []model.PortfolioAllocation{{AssetID: "bitcoin", TotalScore: 4.1, TargetWeight: 0.2, AdjustedWeight: 0.2}},
	}
}

func TestRegisterAll(t *testing.T) {
	s := NewScheduler(context.Background(), &fakeRunner{}, nil)
	require.NoError(t, s.RegisterAll("0 0 1 * * *", "0 5 * * * *"))
	assert.Len(t, s.Cron.Entries(), 2)

	s = NewScheduler(context.Background(), &fakeRunner{}, nil)
	assert.Error(t, s.RegisterAll("not a cron", "0 5 * * * *"))
}

func TestPortfolioTask_SendsReport(t *testing.T) {
	sender := &fakeSender{}
	s := NewScheduler(context.Background(), &fakeRunner{portfolio: testPortfolio()}, sender)

	s.RunPortfolioNow()
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "bitcoin: 20.0%")
}

func TestPortfolioTask_ReportsFailure(t *testing.T) {
	sender := &fakeSender{}
	s := NewScheduler(context.Background(), &fakeRunner{err: errors.New("provider down")}, sender)

	s.portfolioTask()
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "provider down")
}

func TestSignalTask_AlertsOnlyFreshSignals(t *testing.T) {
	sender := &fakeSender{}
	old := model.TechnicalSignal{AssetID: "ethereum", Timeframe: model.Timeframe1h, Source: model.SourceClusterBreakout, Direction: model.DirectionUp}
	fresh := model.TechnicalSignal{AssetID: "bitcoin", Timeframe: model.Timeframe4h, Source: model.SourceRetest, Direction: model.DirectionDown}
	runner := &fakeRunner{signals: &pipeline.SignalResult{
		Signals: []model.TechnicalSignal{old, fresh},
		Fresh:   []model.TechnicalSignal{fresh},
	}}
	s := NewScheduler(context.Background(), runner, sender)

	s.signalTask()
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "bitcoin 4h")
}

func TestHandleCommand(t *testing.T) {
	runner := &fakeRunner{portfolio: testPortfolio()}
	s := NewScheduler(context.Background(), runner, nil)
	ctx := context.Background()

	assert.Contains(t, s.HandleCommand(ctx, "/portfolio"), "No portfolio run yet")
	assert.Contains(t, s.HandleCommand(ctx, "/signals"), "No signal scan yet")

	assert.Contains(t, s.HandleCommand(ctx, "/run@sentinel_bot"), "bitcoin: 20.0%")
	assert.Equal(t, 1, runner.portfolioRun)
	assert.Contains(t, s.HandleCommand(ctx, "/portfolio"), "bitcoin: 20.0%")
	assert.Equal(t, 1, runner.portfolioRun, "/portfolio reads the snapshot")

	runner.snap.SetSignals(&pipeline.SignalResult{})
	assert.Contains(t, s.HandleCommand(ctx, "/signals"), "No active signals")

	assert.Contains(t, s.HandleCommand(ctx, "hello"), "Available commands")
}
