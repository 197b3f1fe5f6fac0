package history

import (
	"context"

	"github.com/google/uuid"

	"github.com/stockpile/backend/internal/domain/shared"
)

// Repository defines the interface for history persistence.
//
// FindByKey plus Save must be executed inside one transaction by callers
// performing merge-or-create, otherwise two concurrent archivals of the same
// key can both observe "no existing record" and create duplicates.
type Repository interface {
	// FindByID finds a history record by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*SupplyHistory, error)

	// FindByKey finds the history record for a (team, name, category) key,
	// or shared.ErrNotFound when none exists
	FindByKey(ctx context.Context, teamID uuid.UUID, name, category string) (*SupplyHistory, error)

	// FindAllForTeam lists history records for a team, most recently archived first
	FindAllForTeam(ctx context.Context, teamID uuid.UUID, filter shared.Filter) ([]SupplyHistory, error)

	// Save creates or updates a history record
	Save(ctx context.Context, h *SupplyHistory) error

	// CountForTeam counts history records for a team
	CountForTeam(ctx context.Context, teamID uuid.UUID) (int64, error)
}
