package supply

import (
	"github.com/google/uuid"

	"github.com/stockpile/backend/internal/domain/shared"
)

// Review is a member's note on a supply, counted into the history record
// when the supply is archived.
type Review struct {
	shared.BaseEntity
	SupplyID uuid.UUID `gorm:"type:uuid;not null;index"`
	AuthorID uuid.UUID `gorm:"type:uuid;not null"`
	Rating   int       `gorm:"not null"`
	Comment  string
}

// TableName returns the table name for GORM
func (Review) TableName() string {
	return "supply_reviews"
}

// NewReview creates a new review for a supply
func NewReview(supplyID, authorID uuid.UUID, rating int, comment string) (*Review, error) {
	if rating < 1 || rating > 5 {
		return nil, shared.NewDomainError("INVALID_RATING", "Rating must be between 1 and 5")
	}
	return &Review{
		BaseEntity: shared.NewBaseEntity(),
		SupplyID:   supplyID,
		AuthorID:   authorID,
		Rating:     rating,
		Comment:    comment,
	}, nil
}
