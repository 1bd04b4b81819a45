package pipeline

import (
	"sync"
	"time"

	"AssetSentinel/internal/model"
)

// PortfolioResult is the outcome of one portfolio run.
type PortfolioResult struct {
	RunID       string                        `json:"run_id"`
	AsOf        time.Time                     `json:"as_of"`
	Factors     map[string]model.RawFactors   `json:"factors"`
	Scores      map[string]model.FactorScores `json:"scores"`
	Allocations []model.PortfolioAllocation   `json:"allocations"`
	Skipped     []string                      `json:"skipped,omitempty"`
}

// SignalResult is the outcome of one signal scan.
type SignalResult struct {
	RunID     string    `json:"run_id"`
	ScannedAt time.Time `json:"scanned_at"`
	// Signals holds the current signal of every (asset, timeframe) that has one.
	Signals []model.TechnicalSignal `json:"signals"`
	// Fresh holds the signals that were stored for the first time this run.
	Fresh []model.TechnicalSignal `json:"fresh"`
}

// Snapshot keeps the latest results for readers outside the pipeline.
type Snapshot struct {
	mu        sync.RWMutex
	portfolio *PortfolioResult
	signals   *SignalResult
}

func (s *Snapshot) SetPortfolio(r *PortfolioResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.portfolio = r
}

func (s *Snapshot) SetSignals(r *SignalResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals = r
}

// Portfolio returns the latest portfolio result, or nil before the first run.
func (s *Snapshot) Portfolio() *PortfolioResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.portfolio
}

// Signals returns the latest signal result, or nil before the first scan.
func (s *Snapshot) Signals() *SignalResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.signals
}
