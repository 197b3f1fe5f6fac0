package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/stockpile/backend/internal/domain/shared"
	"github.com/stockpile/backend/internal/domain/team"
)

// GormTeamRepository implements team.Repository using GORM
type GormTeamRepository struct {
	db *gorm.DB
}

// NewGormTeamRepository creates a new GormTeamRepository
func NewGormTeamRepository(db *gorm.DB) *GormTeamRepository {
	return &GormTeamRepository{db: db}
}

// FindByID finds a team by its ID
func (r *GormTeamRepository) FindByID(ctx context.Context, id uuid.UUID) (*team.Team, error) {
	var entity team.Team
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find team: %w", err)
	}
	return &entity, nil
}

// FindByMember finds all teams a user belongs to in any role. Membership
// arrays are stored as Postgres text[] and matched with array containment.
func (r *GormTeamRepository) FindByMember(ctx context.Context, userID uuid.UUID) ([]team.Team, error) {
	var teams []team.Team
	id := userID.String()
	err := r.db.WithContext(ctx).
		Where("owner_id = ? OR admins @> ? OR members @> ?", userID, pq.StringArray{id}, pq.StringArray{id}).
		Order("created_at ASC").
		Find(&teams).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for user: %w", err)
	}
	return teams, nil
}

// Save creates or updates a team
func (r *GormTeamRepository) Save(ctx context.Context, t *team.Team) error {
	if err := r.db.WithContext(ctx).Save(t).Error; err != nil {
		return fmt.Errorf("failed to save team: %w", err)
	}
	return nil
}

// Ensure GormTeamRepository implements team.Repository
var _ team.Repository = (*GormTeamRepository)(nil)
