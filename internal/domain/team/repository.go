package team

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for team persistence
type Repository interface {
	// FindByID finds a team by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Team, error)

	// FindByMember finds all teams a user belongs to
	FindByMember(ctx context.Context, userID uuid.UUID) ([]Team, error)

	// Save creates or updates a team
	Save(ctx context.Context, t *Team) error
}
