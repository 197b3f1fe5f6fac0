package supply

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stockpile/backend/internal/domain/history"
	"github.com/stockpile/backend/internal/domain/shared"
	"github.com/stockpile/backend/internal/domain/supply"
)

// DefaultAutoArchiveWindow is how long a supply must sit at zero stock
// before the sweep archives it.
const DefaultAutoArchiveWindow = 30 * 24 * time.Hour

// AutoArchiveFailure records one candidate the sweep could not archive
type AutoArchiveFailure struct {
	SupplyID uuid.UUID
	TeamID   uuid.UUID
	Reason   string
}

// AutoArchiveStats summarizes one sweep run
type AutoArchiveStats struct {
	Candidates int
	Archived   []uuid.UUID
	Skipped    int
	Failed     []AutoArchiveFailure
	SweptAt    time.Time
}

// AutoArchiveService archives supplies that have sat at zero stock past the
// window. Each candidate is processed in its own transaction so one bad row
// cannot abort the whole sweep.
type AutoArchiveService struct {
	scope      TransactionScope
	supplyRepo supply.Repository
	listCache  supply.ListCache
	eventBus   shared.EventBus
	logger     *zap.Logger
	window     time.Duration
}

// AutoArchiveOption is a functional option for configuring the service
type AutoArchiveOption func(*AutoArchiveService)

// WithAutoArchiveWindow overrides the zero stock window
func WithAutoArchiveWindow(window time.Duration) AutoArchiveOption {
	return func(s *AutoArchiveService) {
		if window > 0 {
			s.window = window
		}
	}
}

// WithAutoArchiveCache sets the supply list cache to invalidate after archiving
func WithAutoArchiveCache(cache supply.ListCache) AutoArchiveOption {
	return func(s *AutoArchiveService) {
		s.listCache = cache
	}
}

// WithAutoArchiveEventBus sets the bus archive events are published to
func WithAutoArchiveEventBus(bus shared.EventBus) AutoArchiveOption {
	return func(s *AutoArchiveService) {
		s.eventBus = bus
	}
}

// WithAutoArchiveLogger sets the logger
func WithAutoArchiveLogger(logger *zap.Logger) AutoArchiveOption {
	return func(s *AutoArchiveService) {
		s.logger = logger
	}
}

// NewAutoArchiveService creates a new auto-archive service
func NewAutoArchiveService(scope TransactionScope, supplyRepo supply.Repository, opts ...AutoArchiveOption) *AutoArchiveService {
	s := &AutoArchiveService{
		scope:      scope,
		supplyRepo: supplyRepo,
		logger:     zap.NewNop(),
		window:     DefaultAutoArchiveWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sweep finds supplies whose stock has been zero past the window and archives
// them under the system principal. Candidates are re-checked under lock, so a
// restock racing the sweep wins.
func (s *AutoArchiveService) Sweep(ctx context.Context) (*AutoArchiveStats, error) {
	now := time.Now()
	cutoff := now.Add(-s.window)

	candidates, err := s.supplyRepo.FindAutoArchiveCandidates(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to find auto-archive candidates: %w", err)
	}

	stats := &AutoArchiveStats{
		Candidates: len(candidates),
		SweptAt:    now,
	}

	for i := range candidates {
		candidate := &candidates[i]
		archived, err := s.archiveCandidate(ctx, candidate, now)
		if err != nil {
			s.logger.Error("failed to auto-archive supply",
				zap.String("supply_id", candidate.ID.String()),
				zap.String("team_id", candidate.TeamID.String()),
				zap.Error(err),
			)
			stats.Failed = append(stats.Failed, AutoArchiveFailure{
				SupplyID: candidate.ID,
				TeamID:   candidate.TeamID,
				Reason:   err.Error(),
			})
			continue
		}
		if !archived {
			stats.Skipped++
			continue
		}
		stats.Archived = append(stats.Archived, candidate.ID)
	}

	if stats.Candidates > 0 {
		s.logger.Info("auto-archive sweep finished",
			zap.Int("candidates", stats.Candidates),
			zap.Int("archived", len(stats.Archived)),
			zap.Int("skipped", stats.Skipped),
			zap.Int("failed", len(stats.Failed)),
		)
	}
	return stats, nil
}

// archiveCandidate archives one candidate in its own transaction. Returns
// false when the candidate is no longer eligible under lock.
func (s *AutoArchiveService) archiveCandidate(ctx context.Context, candidate *supply.Supply, now time.Time) (bool, error) {
	var entity *supply.Supply
	archived := false

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		entity, err = repos.SupplyRepo().FindByIDForUpdate(ctx, candidate.TeamID, candidate.ID)
		if err != nil {
			return err
		}

		// The candidate query ran without a lock; a restock or manual
		// archive may have landed since.
		if !entity.IsZeroStockFor(s.window, now) {
			return nil
		}

		if err := archiveInTx(ctx, repos, entity, history.SystemArchiver); err != nil {
			return err
		}
		archived = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if archived {
		s.publishAndInvalidate(ctx, entity)
	}
	return archived, nil
}

func (s *AutoArchiveService) publishAndInvalidate(ctx context.Context, entity *supply.Supply) {
	if s.eventBus != nil {
		events := entity.GetDomainEvents()
		if len(events) > 0 {
			if err := s.eventBus.Publish(ctx, events...); err != nil {
				s.logger.Warn("failed to publish archive events",
					zap.String("supply_id", entity.ID.String()),
					zap.Error(err))
			}
		}
	}
	entity.ClearDomainEvents()

	if s.listCache != nil {
		if err := s.listCache.Invalidate(ctx, entity.TeamID); err != nil {
			s.logger.Warn("failed to invalidate supply list cache",
				zap.String("team_id", entity.TeamID.String()),
				zap.Error(err))
		}
	}
}
