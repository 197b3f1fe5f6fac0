package supply

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/stockpile/backend/internal/domain/shared"
)

// SupplyFilter narrows supply list queries
type SupplyFilter struct {
	shared.Filter
	Archived           *bool
	ZeroStock          bool
	ExpiringWithinDays int
}

// Repository defines the interface for supply persistence.
//
// Lots are child entities of the Supply aggregate: they are loaded and saved
// through the aggregate root, never modified directly. Consume and restock
// mutate the in-memory aggregate; Save persists the whole of it, including
// pruned lots.
type Repository interface {
	// FindByID finds a supply by its ID, lots included
	FindByID(ctx context.Context, id uuid.UUID) (*Supply, error)

	// FindByIDForTeam finds a supply by ID within a team
	FindByIDForTeam(ctx context.Context, teamID, id uuid.UUID) (*Supply, error)

	// FindByIDForUpdate loads a supply with a row lock inside the given
	// transaction, so a read-modify-write cannot lose concurrent updates
	FindByIDForUpdate(ctx context.Context, teamID, id uuid.UUID) (*Supply, error)

	// FindAllForTeam lists supplies for a team
	FindAllForTeam(ctx context.Context, teamID uuid.UUID, filter SupplyFilter) ([]Supply, error)

	// FindAutoArchiveCandidates finds unarchived supplies whose stock has been
	// zero since before the cutoff, across all teams
	FindAutoArchiveCandidates(ctx context.Context, zeroSince time.Time) ([]Supply, error)

	// Save creates or updates a supply and its lots
	Save(ctx context.Context, s *Supply) error

	// Delete removes a supply and its lots
	Delete(ctx context.Context, teamID, id uuid.UUID) error

	// CountForTeam counts supplies matching the filter
	CountForTeam(ctx context.Context, teamID uuid.UUID, filter SupplyFilter) (int64, error)
}

// ReviewRepository defines the interface for review persistence
type ReviewRepository interface {
	// FindBySupply lists reviews for a supply
	FindBySupply(ctx context.Context, supplyID uuid.UUID) ([]Review, error)

	// CountBySupply counts reviews for a supply
	CountBySupply(ctx context.Context, supplyID uuid.UUID) (int64, error)

	// Save creates or updates a review
	Save(ctx context.Context, r *Review) error
}
