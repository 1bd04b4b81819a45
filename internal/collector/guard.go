package collector

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// GuardConfig tunes request pacing and the circuit breaker of one provider.
type GuardConfig struct {
	RequestsPerSecond float64
	Burst             int
	MaxFailures       uint32        // consecutive failures that open the breaker
	OpenTimeout       time.Duration // how long the breaker stays open
}

// Guard paces calls to a provider and stops calling it after repeated
// failures. A nil *Guard runs calls directly.
type Guard struct {
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewGuard creates a guard named after the provider it protects.
func NewGuard(name string, cfg GuardConfig) *Guard {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 3
	}
	timeout := cfg.OpenTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	st := gobreaker.Settings{
		Name:    name,
		Timeout: timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
	}
	return &Guard{
		limiter: rate.NewLimiter(limit, burst),
		breaker: gobreaker.NewCircuitBreaker(st),
	}
}

// Do waits for a rate-limit token and runs fn through the breaker.
// It returns gobreaker.ErrOpenState while the breaker is open.
func (g *Guard) Do(ctx context.Context, fn func() error) error {
	if g == nil {
		return fn()
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

// State reports the breaker state for status output.
func (g *Guard) State() string {
	if g == nil {
		return "disabled"
	}
	return g.breaker.State().String()
}
