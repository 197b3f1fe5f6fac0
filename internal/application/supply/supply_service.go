package supply

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stockpile/backend/internal/domain/history"
	"github.com/stockpile/backend/internal/domain/shared"
	"github.com/stockpile/backend/internal/domain/supply"
)

// Service implements the supply workflows. Stock mutations run inside a
// transaction scope with the aggregate row locked, so concurrent consume and
// restock requests serialize instead of losing updates.
type Service struct {
	scope       TransactionScope
	supplyRepo  supply.Repository
	reviewRepo  supply.ReviewRepository
	historyRepo history.Repository
	listCache   supply.ListCache
	eventBus    shared.EventBus
	logger      *zap.Logger
	cacheTTL    time.Duration
}

// ServiceOption is a functional option for configuring the service
type ServiceOption func(*Service)

// WithListCache sets the supply list cache
func WithListCache(cache supply.ListCache, ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.listCache = cache
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithEventBus sets the bus domain events are published to after commit
func WithEventBus(bus shared.EventBus) ServiceOption {
	return func(s *Service) {
		s.eventBus = bus
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a new supply service
func NewService(
	scope TransactionScope,
	supplyRepo supply.Repository,
	reviewRepo supply.ReviewRepository,
	historyRepo history.Repository,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		scope:       scope,
		supplyRepo:  supplyRepo,
		reviewRepo:  reviewRepo,
		historyRepo: historyRepo,
		listCache:   nil,
		logger:      zap.NewNop(),
		cacheTTL:    supply.DefaultCacheConfig().TTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new supply for a team
func (s *Service) Create(ctx context.Context, teamID uuid.UUID, req CreateSupplyRequest) (*SupplyResponse, error) {
	entity, err := supply.NewSupply(teamID, req.Name, req.Category, req.Unit, req.Quantity, req.ExpiryDate)
	if err != nil {
		return nil, err
	}
	entity.PurchaseLocation = req.PurchaseLocation
	entity.EnsureLots()

	if err := s.supplyRepo.Save(ctx, entity); err != nil {
		return nil, fmt.Errorf("failed to save supply: %w", err)
	}

	s.invalidateListCache(ctx, teamID)
	s.logger.Info("supply created",
		zap.String("supply_id", entity.ID.String()),
		zap.String("team_id", teamID.String()),
		zap.String("name", entity.Name),
	)
	return ToSupplyResponse(entity), nil
}

// GetByID returns a single supply owned by the team
func (s *Service) GetByID(ctx context.Context, teamID, supplyID uuid.UUID) (*SupplyResponse, error) {
	entity, err := s.supplyRepo.FindByIDForTeam(ctx, teamID, supplyID)
	if err != nil {
		return nil, err
	}
	return ToSupplyResponse(entity), nil
}

// List returns the team's supplies matching the query. The unfiltered first
// page is served from the list cache when possible.
func (s *Service) List(ctx context.Context, teamID uuid.UUID, query ListSuppliesQuery) ([]SupplyResponse, int64, error) {
	filter := query.toFilter()

	if s.cacheableQuery(query) {
		if cached, ok, err := s.listCache.Get(ctx, teamID); err == nil && ok {
			return ToSupplyResponses(cached.Supplies), cached.Total, nil
		}
	}

	supplies, err := s.supplyRepo.FindAllForTeam(ctx, teamID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list supplies: %w", err)
	}
	total, err := s.supplyRepo.CountForTeam(ctx, teamID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count supplies: %w", err)
	}

	if s.cacheableQuery(query) {
		list := supply.CachedList{Supplies: supplies, Total: total}
		if err := s.listCache.Set(ctx, teamID, list, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache supply list",
				zap.String("team_id", teamID.String()),
				zap.Error(err))
		}
	}

	return ToSupplyResponses(supplies), total, nil
}

// Update changes the descriptive fields of a supply
func (s *Service) Update(ctx context.Context, teamID, supplyID uuid.UUID, req UpdateSupplyRequest) (*SupplyResponse, error) {
	var entity *supply.Supply

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		entity, err = s.loadForTeam(ctx, repos, teamID, supplyID)
		if err != nil {
			return err
		}

		if req.Name != nil {
			entity.Name = *req.Name
		}
		if req.Category != nil {
			entity.Category = *req.Category
		}
		if req.Unit != nil {
			entity.Unit = *req.Unit
		}
		if req.PurchaseLocation != nil {
			entity.PurchaseLocation = *req.PurchaseLocation
		}
		entity.IncrementVersion()

		return repos.SupplyRepo().Save(ctx, entity)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateListCache(ctx, teamID)
	return ToSupplyResponse(entity), nil
}

// Consume takes stock out of a supply, draining lots closest to expiry first
func (s *Service) Consume(ctx context.Context, teamID, supplyID uuid.UUID, req ConsumeRequest) (*ConsumeResponse, error) {
	var (
		entity *supply.Supply
		result *supply.ConsumptionResult
	)

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		entity, err = s.loadForTeam(ctx, repos, teamID, supplyID)
		if err != nil {
			return err
		}

		result, err = entity.Consume(req.Quantity)
		if err != nil {
			return err
		}

		return repos.SupplyRepo().Save(ctx, entity)
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, entity)
	s.logger.Info("supply consumed",
		zap.String("supply_id", supplyID.String()),
		zap.String("team_id", teamID.String()),
		zap.Int("requested", result.Requested),
		zap.Int("fulfilled", result.Fulfilled),
		zap.Int("remaining", result.Remaining),
	)
	return ToConsumeResponse(result, entity), nil
}

// Restock adds stock to a supply, merging into an existing lot when the
// expiry date matches exactly
func (s *Service) Restock(ctx context.Context, teamID, supplyID uuid.UUID, req RestockRequest) (*RestockResponse, error) {
	var (
		entity *supply.Supply
		result *supply.RestockResult
	)

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		entity, err = s.loadForTeam(ctx, repos, teamID, supplyID)
		if err != nil {
			return err
		}

		result, err = entity.Restock(req.Quantity, req.ExpiryDate, req.PurchasePrice)
		if err != nil {
			return err
		}

		return repos.SupplyRepo().Save(ctx, entity)
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, entity)
	s.logger.Info("supply restocked",
		zap.String("supply_id", supplyID.String()),
		zap.String("team_id", teamID.String()),
		zap.Int("added", result.Added),
		zap.Bool("merged", result.Merged),
		zap.Int("total", result.Total),
	)
	return ToRestockResponse(result, entity), nil
}

// Archive marks a supply archived and folds its lifetime stats into the
// team's history. The supply load, history lookup and both writes share one
// transaction so a concurrent archive cannot produce duplicate history rows.
func (s *Service) Archive(ctx context.Context, teamID, supplyID uuid.UUID, archivedBy string) (*SupplyResponse, error) {
	var entity *supply.Supply

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		entity, err = s.loadForTeam(ctx, repos, teamID, supplyID)
		if err != nil {
			return err
		}
		return archiveInTx(ctx, repos, entity, archivedBy)
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, entity)
	s.logger.Info("supply archived",
		zap.String("supply_id", supplyID.String()),
		zap.String("team_id", teamID.String()),
		zap.String("archived_by", archivedBy),
	)
	return ToSupplyResponse(entity), nil
}

// Delete permanently removes a supply without writing history
func (s *Service) Delete(ctx context.Context, teamID, supplyID uuid.UUID) error {
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		entity, err := s.loadForTeam(ctx, repos, teamID, supplyID)
		if err != nil {
			return err
		}
		return repos.SupplyRepo().Delete(ctx, teamID, entity.ID)
	})
	if err != nil {
		return err
	}

	s.invalidateListCache(ctx, teamID)
	s.logger.Info("supply deleted",
		zap.String("supply_id", supplyID.String()),
		zap.String("team_id", teamID.String()),
	)
	return nil
}

// AddReview attaches a review to a supply
func (s *Service) AddReview(ctx context.Context, teamID, supplyID, authorID uuid.UUID, req CreateReviewRequest) (*ReviewResponse, error) {
	if _, err := s.supplyRepo.FindByIDForTeam(ctx, teamID, supplyID); err != nil {
		return nil, err
	}

	review, err := supply.NewReview(supplyID, authorID, req.Rating, req.Comment)
	if err != nil {
		return nil, err
	}

	if err := s.reviewRepo.Save(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to save review: %w", err)
	}
	return ToReviewResponse(review), nil
}

// ListReviews returns the reviews of a supply
func (s *Service) ListReviews(ctx context.Context, teamID, supplyID uuid.UUID) ([]ReviewResponse, error) {
	if _, err := s.supplyRepo.FindByIDForTeam(ctx, teamID, supplyID); err != nil {
		return nil, err
	}

	reviews, err := s.reviewRepo.FindBySupply(ctx, supplyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return ToReviewResponses(reviews), nil
}

// archiveInTx runs the archive pipeline against an already locked supply.
// Shared with the auto-archive sweep.
func archiveInTx(ctx context.Context, repos TransactionalRepositories, entity *supply.Supply, archivedBy string) error {
	reviews, err := repos.ReviewRepo().FindBySupply(ctx, entity.ID)
	if err != nil {
		return fmt.Errorf("failed to load reviews: %w", err)
	}

	if err := entity.Archive(); err != nil {
		return err
	}

	incoming := history.NewFromSupply(entity, archivedBy, reviews)

	existing, err := repos.HistoryRepo().FindByKey(ctx, entity.TeamID, entity.Name, entity.Category)
	switch {
	case err == nil:
		if err := existing.Merge(incoming); err != nil {
			return err
		}
		if err := repos.HistoryRepo().Save(ctx, existing); err != nil {
			return fmt.Errorf("failed to update history: %w", err)
		}
	case errors.Is(err, shared.ErrNotFound):
		if err := repos.HistoryRepo().Save(ctx, incoming); err != nil {
			return fmt.Errorf("failed to create history: %w", err)
		}
	default:
		return fmt.Errorf("failed to look up history: %w", err)
	}

	return repos.SupplyRepo().Save(ctx, entity)
}

// loadForTeam loads a team's supply with a row lock. A supply belonging to
// another team is reported as not found.
func (s *Service) loadForTeam(ctx context.Context, repos TransactionalRepositories, teamID, supplyID uuid.UUID) (*supply.Supply, error) {
	return repos.SupplyRepo().FindByIDForUpdate(ctx, teamID, supplyID)
}

// afterCommit publishes the aggregate's pending events and drops the team's
// cached listing. Called only after the transaction committed.
func (s *Service) afterCommit(ctx context.Context, entity *supply.Supply) {
	if s.eventBus != nil {
		events := entity.GetDomainEvents()
		if len(events) > 0 {
			if err := s.eventBus.Publish(ctx, events...); err != nil {
				s.logger.Warn("failed to publish domain events",
					zap.String("supply_id", entity.ID.String()),
					zap.Error(err))
			}
		}
	}
	entity.ClearDomainEvents()
	s.invalidateListCache(ctx, entity.TeamID)
}

func (s *Service) invalidateListCache(ctx context.Context, teamID uuid.UUID) {
	if s.listCache == nil {
		return
	}
	if err := s.listCache.Invalidate(ctx, teamID); err != nil {
		s.logger.Warn("failed to invalidate supply list cache",
			zap.String("team_id", teamID.String()),
			zap.Error(err))
	}
}

// cacheableQuery reports whether the query is the plain default listing
func (s *Service) cacheableQuery(query ListSuppliesQuery) bool {
	if s.listCache == nil {
		return false
	}
	return query.Page <= 1 &&
		query.PageSize == 0 &&
		query.Archived == nil &&
		!query.ZeroStock &&
		query.ExpiringWithinDays == 0 &&
		query.OrderBy == "" &&
		query.OrderDir == ""
}
