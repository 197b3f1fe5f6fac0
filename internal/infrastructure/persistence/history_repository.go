package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockpile/backend/internal/domain/history"
	"github.com/stockpile/backend/internal/domain/shared"
)

// GormHistoryRepository implements history.Repository using GORM
type GormHistoryRepository struct {
	db *gorm.DB
}

// NewGormHistoryRepository creates a new GormHistoryRepository
func NewGormHistoryRepository(db *gorm.DB) *GormHistoryRepository {
	return &GormHistoryRepository{db: db}
}

// FindByID finds a history record by its ID
func (r *GormHistoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*history.SupplyHistory, error) {
	var record history.SupplyHistory
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find history record: %w", err)
	}
	return &record, nil
}

// FindByKey finds the history record for a (team, name, category) key.
// Callers merging archivals must run this and the subsequent Save in one
// transaction; the unique index on the key backstops any race that slips
// through.
func (r *GormHistoryRepository) FindByKey(ctx context.Context, teamID uuid.UUID, name, category string) (*history.SupplyHistory, error) {
	var record history.SupplyHistory
	err := r.db.WithContext(ctx).
		Where("team_id = ? AND name = ? AND category = ?", teamID, name, category).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find history record: %w", err)
	}
	return &record, nil
}

// FindAllForTeam lists history records for a team
func (r *GormHistoryRepository) FindAllForTeam(ctx context.Context, teamID uuid.UUID, filter shared.Filter) ([]history.SupplyHistory, error) {
	var records []history.SupplyHistory

	orderBy := ValidateSortField(filter.OrderBy, HistorySortFields, "archived_at")
	orderDir := ValidateSortOrder(filter.OrderDir)

	err := r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order(fmt.Sprintf("%s %s", orderBy, orderDir)).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list history records: %w", err)
	}
	return records, nil
}

// Save creates or updates a history record
func (r *GormHistoryRepository) Save(ctx context.Context, h *history.SupplyHistory) error {
	if err := r.db.WithContext(ctx).Save(h).Error; err != nil {
		return fmt.Errorf("failed to save history record: %w", err)
	}
	return nil
}

// CountForTeam counts history records for a team
func (r *GormHistoryRepository) CountForTeam(ctx context.Context, teamID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&history.SupplyHistory{}).
		Where("team_id = ?", teamID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count history records: %w", err)
	}
	return count, nil
}

// Ensure GormHistoryRepository implements history.Repository
var _ history.Repository = (*GormHistoryRepository)(nil)
