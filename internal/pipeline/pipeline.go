package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"AssetSentinel/internal/collector"
	"AssetSentinel/internal/factor"
	"AssetSentinel/internal/metrics"
	"AssetSentinel/internal/model"
	"AssetSentinel/internal/recorder"
	"AssetSentinel/internal/strategy"
	"AssetSentinel/internal/technical"
)

// ErrNoScorableAssets is returned when no asset had enough data to score.
var ErrNoScorableAssets = errors.New("no scorable assets")

// Options wires a Pipeline.
type Options struct {
	Collector  *collector.Collector
	Scanner    *technical.Scanner
	Recorder   recorder.Recorder
	Metrics    *metrics.Metrics
	Rules      model.ScoringRules
	Assets     []model.Asset // fixed universe; empty means top TopN
	TopN       int
	Timeframes []model.Timeframe
	Throttle   time.Duration // pause between provider calls
	Now        func() time.Time
}

// Pipeline runs the factor and signal pipelines end to end.
type Pipeline struct {
	opts     Options
	snapshot *Snapshot

	// Runs of the same kind never overlap.
	portfolioMu sync.Mutex
	signalsMu   sync.Mutex
}

// New creates a Pipeline.
func New(opts Options) *Pipeline {
	if opts.Recorder == nil {
		opts.Recorder = recorder.NewNoopRecorder()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New("")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{opts: opts, snapshot: &Snapshot{}}
}

// Snapshot exposes the latest results.
func (p *Pipeline) Snapshot() *Snapshot { return p.snapshot }

func (p *Pipeline) universe(ctx context.Context) ([]model.Asset, error) {
	return p.opts.Collector.Universe(ctx, p.opts.Assets, p.opts.TopN)
}

// RunPortfolio scores the universe on today's data and derives target weights.
// Assets with too little history are skipped; the run fails only when none remain.
func (p *Pipeline) RunPortfolio(ctx context.Context) (*PortfolioResult, error) {
	p.portfolioMu.Lock()
	defer p.portfolioMu.Unlock()

	start := time.Now()
	res, err := p.runPortfolio(ctx)
	p.observe("portfolio", start, err)
	if err != nil {
		return nil, err
	}
	p.snapshot.SetPortfolio(res)
	return res, nil
}

func (p *Pipeline) runPortfolio(ctx context.Context) (*PortfolioResult, error) {
	m := p.opts.Metrics
	res := &PortfolioResult{
		RunID:   uuid.NewString(),
		AsOf:    p.opts.Now().UTC(),
		Factors: make(map[string]model.RawFactors),
	}
	logger := log.With().Str("run_id", res.RunID).Str("pipeline", "portfolio").Logger()

	assets, err := p.universe(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info().Int("assets", len(assets)).Msg("portfolio run started")

	for i, a := range assets {
		if i > 0 {
			if err := sleepCtx(ctx, p.opts.Throttle); err != nil {
				return nil, err
			}
		}
		points, err := p.opts.Collector.History(ctx, a.ID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn().Err(err).Str("asset", a.ID).Msg("history unavailable, skipping")
			m.FetchErrors.WithLabelValues(p.opts.Collector.Source.Name()).Inc()
			m.AssetsSkipped.WithLabelValues("fetch_error").Inc()
			res.Skipped = append(res.Skipped, a.ID)
			continue
		}

		f, err := factor.ComputeRawFactors(points, res.AsOf)
		if errors.Is(err, factor.ErrInsufficientData) {
			logger.Warn().Err(err).Str("asset", a.ID).Msg("skipping asset")
			m.AssetsSkipped.WithLabelValues("insufficient_data").Inc()
			res.Skipped = append(res.Skipped, a.ID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("compute factors %s: %w", a.ID, err)
		}
		if !f.Valid() {
			logger.Warn().Str("asset", a.ID).Msg("non-finite factors, skipping")
			m.AssetsSkipped.WithLabelValues("invalid_factors").Inc()
			res.Skipped = append(res.Skipped, a.ID)
			continue
		}
		f.AssetID = a.ID
		res.Factors[a.ID] = f
	}

	if len(res.Factors) == 0 {
		return nil, ErrNoScorableAssets
	}

	res.Scores = factor.ScoreCrossSection(res.Factors)
	res.Allocations = strategy.GenerateWeightAllocation(res.Scores, p.opts.Rules)

	records := make([]recorder.FactorRecord, 0, len(res.Factors))
	ids := make([]string, 0, len(res.Factors))
	for id := range res.Factors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		records = append(records, recorder.FactorRecord{Factors: res.Factors[id], Scores: res.Scores[id]})
	}
	if err := p.opts.Recorder.RecordFactors(ctx, res.RunID, records); err != nil {
		logger.Error().Err(err).Msg("record factors")
	}
	if err := p.opts.Recorder.RecordAllocations(ctx, res.RunID, res.AsOf, res.Allocations); err != nil {
		logger.Error().Err(err).Msg("record allocations")
	}

	m.TargetWeight.Reset()
	for _, a := range res.Allocations {
		m.TargetWeight.WithLabelValues(a.AssetID).Set(a.AdjustedWeight)
	}

	logger.Info().
		Int("scored", len(res.Scores)).
		Int("skipped", len(res.Skipped)).
		Float64("total_weight", strategy.TotalWeight(res.Allocations)).
		Msg("portfolio run finished")
	return res, nil
}

// RunSignals scans every asset and timeframe for breakout and retest signals
// and stores those on a newer bar than the one already recorded.
func (p *Pipeline) RunSignals(ctx context.Context) (*SignalResult, error) {
	p.signalsMu.Lock()
	defer p.signalsMu.Unlock()

	start := time.Now()
	res, err := p.runSignals(ctx)
	p.observe("signals", start, err)
	if err != nil {
		return nil, err
	}
	p.snapshot.SetSignals(res)
	return res, nil
}

func (p *Pipeline) runSignals(ctx context.Context) (*SignalResult, error) {
	m := p.opts.Metrics
	res := &SignalResult{
		RunID:     uuid.NewString(),
		ScannedAt: p.opts.Now().UTC(),
	}
	logger := log.With().Str("run_id", res.RunID).Str("pipeline", "signals").Logger()

	assets, err := p.universe(ctx)
	if err != nil {
		return nil, err
	}

	first := true
	for _, a := range assets {
		for _, tf := range p.opts.Timeframes {
			if !first {
				if err := sleepCtx(ctx, p.opts.Throttle); err != nil {
					return nil, err
				}
			}
			first = false

			bars, err := p.opts.Collector.Bars(ctx, a, tf)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				logger.Warn().Err(err).Str("asset", a.ID).Str("timeframe", string(tf)).Msg("klines unavailable")
				m.FetchErrors.WithLabelValues(p.opts.Collector.Klines.Name()).Inc()
				continue
			}

			sig := p.opts.Scanner.Analyze(a.ID, tf, bars)
			if sig == nil {
				continue
			}
			res.Signals = append(res.Signals, *sig)

			stored, err := p.opts.Recorder.UpsertSignal(ctx, *sig)
			if err != nil {
				logger.Error().Err(err).Str("asset", a.ID).Msg("store signal")
				continue
			}
			if stored {
				res.Fresh = append(res.Fresh, *sig)
				m.SignalsEmitted.WithLabelValues(string(tf), string(sig.Source), string(sig.Direction)).Inc()
				logger.Info().
					Str("asset", a.ID).
					Str("timeframe", string(tf)).
					Str("source", string(sig.Source)).
					Str("direction", string(sig.Direction)).
					Float64("score", sig.SignalScore).
					Msg("new signal")
			}
		}
	}

	logger.Info().Int("signals", len(res.Signals)).Int("fresh", len(res.Fresh)).Msg("signal scan finished")
	return res, nil
}

func (p *Pipeline) observe(name string, start time.Time, err error) {
	m := p.opts.Metrics
	m.PipelineDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		m.PipelineRuns.WithLabelValues(name, "error").Inc()
		return
	}
	m.PipelineRuns.WithLabelValues(name, "ok").Inc()
	m.LastSuccess.WithLabelValues(name).SetToCurrentTime()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
