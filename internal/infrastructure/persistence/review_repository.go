package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockpile/backend/internal/domain/supply"
)

// GormReviewRepository implements supply.ReviewRepository using GORM
type GormReviewRepository struct {
	db *gorm.DB
}

// NewGormReviewRepository creates a new GormReviewRepository
func NewGormReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

// FindBySupply lists reviews for a supply, oldest first
func (r *GormReviewRepository) FindBySupply(ctx context.Context, supplyID uuid.UUID) ([]supply.Review, error) {
	var reviews []supply.Review
	err := r.db.WithContext(ctx).
		Where("supply_id = ?", supplyID).
		Order("created_at ASC").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

// CountBySupply counts reviews for a supply
func (r *GormReviewRepository) CountBySupply(ctx context.Context, supplyID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&supply.Review{}).
		Where("supply_id = ?", supplyID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return count, nil
}

// Save creates or updates a review
func (r *GormReviewRepository) Save(ctx context.Context, review *supply.Review) error {
	if err := r.db.WithContext(ctx).Save(review).Error; err != nil {
		return fmt.Errorf("failed to save review: %w", err)
	}
	return nil
}

// Ensure GormReviewRepository implements supply.ReviewRepository
var _ supply.ReviewRepository = (*GormReviewRepository)(nil)
