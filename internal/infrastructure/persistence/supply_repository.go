package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stockpile/backend/internal/domain/shared"
	"github.com/stockpile/backend/internal/domain/supply"
)

// GormSupplyRepository implements supply.Repository using GORM.
//
// Lots travel with their aggregate root: reads preload them, Save persists
// the full set and deletes the rows the aggregate pruned in memory.
type GormSupplyRepository struct {
	db *gorm.DB
}

// NewGormSupplyRepository creates a new GormSupplyRepository
func NewGormSupplyRepository(db *gorm.DB) *GormSupplyRepository {
	return &GormSupplyRepository{db: db}
}

// FindByID finds a supply by its ID, lots included
func (r *GormSupplyRepository) FindByID(ctx context.Context, id uuid.UUID) (*supply.Supply, error) {
	var entity supply.Supply
	err := r.db.WithContext(ctx).
		Preload("Lots").
		Where("id = ?", id).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find supply: %w", err)
	}
	return &entity, nil
}

// FindByIDForTeam finds a supply by ID within a team
func (r *GormSupplyRepository) FindByIDForTeam(ctx context.Context, teamID, id uuid.UUID) (*supply.Supply, error) {
	var entity supply.Supply
	err := r.db.WithContext(ctx).
		Preload("Lots").
		Where("team_id = ? AND id = ?", teamID, id).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find supply: %w", err)
	}
	return &entity, nil
}

// FindByIDForUpdate loads a supply with a row lock on the aggregate root.
// Locking the root row serializes consume/restock/archive against each other;
// lot rows are only ever touched through a locked root.
func (r *GormSupplyRepository) FindByIDForUpdate(ctx context.Context, teamID, id uuid.UUID) (*supply.Supply, error) {
	var entity supply.Supply
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Lots").
		Where("team_id = ? AND id = ?", teamID, id).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find supply for update: %w", err)
	}
	return &entity, nil
}

// FindAllForTeam lists supplies for a team matching the filter
func (r *GormSupplyRepository) FindAllForTeam(ctx context.Context, teamID uuid.UUID, filter supply.SupplyFilter) ([]supply.Supply, error) {
	var entities []supply.Supply
	query := r.db.WithContext(ctx).
		Preload("Lots").
		Where("team_id = ?", teamID)
	query = applySupplyFilter(query, filter)
	if err := query.Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("failed to list supplies: %w", err)
	}
	return entities, nil
}

// FindAutoArchiveCandidates finds unarchived supplies whose stock has been
// zero since before the cutoff, across all teams
func (r *GormSupplyRepository) FindAutoArchiveCandidates(ctx context.Context, zeroSince time.Time) ([]supply.Supply, error) {
	var entities []supply.Supply
	err := r.db.WithContext(ctx).
		Preload("Lots").
		Where("is_archived = ? AND quantity = 0 AND zero_stock_since IS NOT NULL AND zero_stock_since < ?", false, zeroSince).
		Order("zero_stock_since ASC").
		Find(&entities).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find auto-archive candidates: %w", err)
	}
	return entities, nil
}

// Save creates or updates a supply together with its lots. Lots pruned from
// the in-memory aggregate are deleted so the stored set always mirrors it.
func (r *GormSupplyRepository) Save(ctx context.Context, s *supply.Supply) error {
	db := r.db.WithContext(ctx)
	if err := db.Session(&gorm.Session{FullSaveAssociations: true}).Save(s).Error; err != nil {
		return fmt.Errorf("failed to save supply: %w", err)
	}
	return r.deletePrunedLots(db, s)
}

func (r *GormSupplyRepository) deletePrunedLots(db *gorm.DB, s *supply.Supply) error {
	var err error
	if len(s.Lots) == 0 {
		err = db.Where("supply_id = ?", s.ID).Delete(&supply.Lot{}).Error
	} else {
		kept := make([]uuid.UUID, 0, len(s.Lots))
		for _, lot := range s.Lots {
			kept = append(kept, lot.ID)
		}
		err = db.Where("supply_id = ? AND id NOT IN ?", s.ID, kept).Delete(&supply.Lot{}).Error
	}
	if err != nil {
		return fmt.Errorf("failed to delete pruned lots: %w", err)
	}
	return nil
}

// Delete removes a supply and its lots
func (r *GormSupplyRepository) Delete(ctx context.Context, teamID, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	result := db.Where("team_id = ? AND id = ?", teamID, id).Delete(&supply.Supply{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete supply: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	if err := db.Where("supply_id = ?", id).Delete(&supply.Lot{}).Error; err != nil {
		return fmt.Errorf("failed to delete lots: %w", err)
	}
	if err := db.Where("supply_id = ?", id).Delete(&supply.Review{}).Error; err != nil {
		return fmt.Errorf("failed to delete reviews: %w", err)
	}
	return nil
}

// CountForTeam counts supplies matching the filter
func (r *GormSupplyRepository) CountForTeam(ctx context.Context, teamID uuid.UUID, filter supply.SupplyFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).
		Model(&supply.Supply{}).
		Where("team_id = ?", teamID)
	query = applySupplyPredicate(query, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count supplies: %w", err)
	}
	return count, nil
}

// applySupplyPredicate adds the filter's WHERE conditions without pagination
func applySupplyPredicate(query *gorm.DB, filter supply.SupplyFilter) *gorm.DB {
	if filter.Archived != nil {
		query = query.Where("is_archived = ?", *filter.Archived)
	}
	if filter.ZeroStock {
		query = query.Where("quantity = 0")
	}
	if filter.ExpiringWithinDays > 0 {
		cutoff := time.Now().AddDate(0, 0, filter.ExpiringWithinDays).Format(supply.LotDateLayout)
		query = query.Where("expiry_date <> '' AND expiry_date <= ?", cutoff)
	}
	return query
}

// applySupplyFilter adds WHERE conditions, ordering and pagination
func applySupplyFilter(query *gorm.DB, filter supply.SupplyFilter) *gorm.DB {
	query = applySupplyPredicate(query, filter)

	orderBy := ValidateSortField(filter.OrderBy, SupplySortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", orderBy, orderDir))

	return query.Offset(filter.Offset()).Limit(filter.Limit())
}

// Ensure GormSupplyRepository implements supply.Repository
var _ supply.Repository = (*GormSupplyRepository)(nil)
