package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	appsupply "github.com/stockpile/backend/internal/application/supply"
)

// AutoArchiveScheduler runs the stale-supply archival sweep on an interval
type AutoArchiveScheduler struct {
	service   *appsupply.AutoArchiveService
	logger    *zap.Logger
	config    AutoArchiveSchedulerConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// AutoArchiveSchedulerConfig holds configuration for the auto-archive scheduler
type AutoArchiveSchedulerConfig struct {
	// Enabled determines if the scheduler is active
	Enabled bool

	// CheckInterval is how often the sweep runs
	CheckInterval time.Duration

	// SweepTimeout is the maximum time for a single sweep
	SweepTimeout time.Duration

	// RunOnStart triggers one sweep immediately when the scheduler starts
	RunOnStart bool
}

// DefaultAutoArchiveSchedulerConfig returns default configuration
func DefaultAutoArchiveSchedulerConfig() AutoArchiveSchedulerConfig {
	return AutoArchiveSchedulerConfig{
		Enabled:       true,
		CheckInterval: time.Hour,
		SweepTimeout:  10 * time.Minute,
		RunOnStart:    false,
	}
}

// NewAutoArchiveScheduler creates a new auto-archive scheduler
func NewAutoArchiveScheduler(
	service *appsupply.AutoArchiveService,
	logger *zap.Logger,
	config AutoArchiveSchedulerConfig,
) *AutoArchiveScheduler {
	return &AutoArchiveScheduler{
		service: service,
		logger:  logger,
		config:  config,
	}
}

// Start starts the auto-archive scheduler
func (s *AutoArchiveScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Auto-archive scheduler is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("Auto-archive scheduler started",
		zap.Duration("check_interval", s.config.CheckInterval),
		zap.Bool("run_on_start", s.config.RunOnStart),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *AutoArchiveScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Auto-archive scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Auto-archive scheduler stop timed out")
		return ctx.Err()
	}
}

// run sweeps on the configured interval until the context is cancelled
func (s *AutoArchiveScheduler) run(ctx context.Context) {
	defer s.wg.Done()

	if s.config.RunOnStart {
		s.sweep(ctx)
	}

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep runs one archival pass with a timeout
func (s *AutoArchiveScheduler) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, s.config.SweepTimeout)
	defer cancel()

	stats, err := s.service.Sweep(sweepCtx)
	if err != nil {
		s.logger.Error("Auto-archive sweep failed", zap.Error(err))
		return
	}

	if stats.Candidates == 0 {
		s.logger.Debug("Auto-archive sweep found no candidates")
		return
	}

	s.logger.Info("Auto-archive sweep completed",
		zap.Int("candidates", stats.Candidates),
		zap.Int("archived", len(stats.Archived)),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", len(stats.Failed)),
	)
}
