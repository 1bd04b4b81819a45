package scheduler

import (
	"context"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"AssetSentinel/internal/notifier"
	"AssetSentinel/internal/pipeline"
)

// Sender delivers a message to the operator.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Runner is the part of the pipeline the scheduler drives.
type Runner interface {
	RunPortfolio(ctx context.Context) (*pipeline.PortfolioResult, error)
	RunSignals(ctx context.Context) (*pipeline.SignalResult, error)
	Snapshot() *pipeline.Snapshot
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron     *cron.Cron
	Pipeline Runner
	Notifier Sender // nil disables notifications
	Ctx      context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, p Runner, n Sender) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		Pipeline: p,
		Notifier: n,
		Ctx:      ctx,
	}
}

// RegisterAll registers the portfolio and signal tasks.
func (s *Scheduler) RegisterAll(portfolioCron, signalCron string) error {
	if _, err := s.Cron.AddFunc(portfolioCron, s.portfolioTask); err != nil {
		return fmt.Errorf("register portfolio task: %w", err)
	}
	if _, err := s.Cron.AddFunc(signalCron, s.signalTask); err != nil {
		return fmt.Errorf("register signal task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("tasks", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running tasks.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunPortfolioNow executes the portfolio task immediately.
func (s *Scheduler) RunPortfolioNow() {
	s.portfolioTask()
}

func (s *Scheduler) portfolioTask() {
	log.Info().Msg("running portfolio task")
	res, err := s.Pipeline.RunPortfolio(s.Ctx)
	if err != nil {
		log.Error().Err(err).Msg("portfolio run")
		s.trySend(fmt.Sprintf("❌ Portfolio run failed: %v", err))
		return
	}
	s.trySend(notifier.FormatPortfolioReport(res))
}

func (s *Scheduler) signalTask() {
	log.Info().Msg("running signal task")
	res, err := s.Pipeline.RunSignals(s.Ctx)
	if err != nil {
		log.Error().Err(err).Msg("signal run")
		return
	}
	for _, sig := range res.Fresh {
		s.trySend(notifier.FormatSignalAlert(sig))
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	// Strip a bot mention such as /portfolio@my_bot.
	cmd, _, _ := strings.Cut(command, "@")
	switch cmd {
	case "/portfolio":
		if res := s.Pipeline.Snapshot().Portfolio(); res != nil {
			return notifier.FormatPortfolioReport(res)
		}
		return "No portfolio run yet. Send /run to evaluate now."
	case "/signals":
		if res := s.Pipeline.Snapshot().Signals(); res != nil {
			return notifier.FormatSignalSummary(res)
		}
		return "No signal scan yet."
	case "/run":
		res, err := s.Pipeline.RunPortfolio(ctx)
		if err != nil {
			return fmt.Sprintf("❌ Portfolio run failed: %v", err)
		}
		return notifier.FormatPortfolioReport(res)
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
