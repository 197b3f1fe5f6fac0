package supply

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockpile/backend/internal/domain/shared"
)

// LotDateLayout is the calendar date format used for lot expiry dates.
// Dates in this layout sort lexicographically in chronological order, which
// the consumption engine relies on.
const LotDateLayout = "2006-01-02"

// ParseLotDate validates an expiry date string
func ParseLotDate(date string) (time.Time, error) {
	t, err := time.Parse(LotDateLayout, date)
	if err != nil {
		return time.Time{}, shared.NewDomainError("INVALID_EXPIRY_DATE", "Expiry date must be a calendar date in YYYY-MM-DD format")
	}
	return t, nil
}

// Lot is one purchased batch of a supply: a quantity tied to a single expiry
// date. Lots are owned exclusively by their parent Supply and are removed
// entirely once their quantity reaches zero.
type Lot struct {
	shared.BaseEntity
	SupplyID      uuid.UUID        `gorm:"type:uuid;not null;index"`
	ExpiryDate    string           `gorm:"type:varchar(10);not null"` // YYYY-MM-DD
	Quantity      int              `gorm:"not null"`
	AddedAt       time.Time        `gorm:"not null"`
	PurchasePrice *decimal.Decimal `gorm:"type:decimal(18,4)"`
}

// NewLot creates a new lot for a supply
func NewLot(supplyID uuid.UUID, expiryDate string, quantity int, addedAt time.Time, purchasePrice *decimal.Decimal) Lot {
	return Lot{
		BaseEntity:    shared.NewBaseEntity(),
		SupplyID:      supplyID,
		ExpiryDate:    expiryDate,
		Quantity:      quantity,
		AddedAt:       addedAt,
		PurchasePrice: purchasePrice,
	}
}

// Take removes up to quantity units from the lot and returns the amount
// actually taken
func (l *Lot) Take(quantity int) int {
	taken := quantity
	if taken > l.Quantity {
		taken = l.Quantity
	}
	l.Quantity -= taken
	l.UpdatedAt = time.Now()
	return taken
}

// Add increases the lot quantity
func (l *Lot) Add(quantity int) {
	l.Quantity += quantity
	l.UpdatedAt = time.Now()
}

// IsExhausted returns true if the lot has no remaining quantity
func (l *Lot) IsExhausted() bool {
	return l.Quantity <= 0
}

// DaysUntilExpiry returns the number of whole days until the lot expires,
// negative if already expired
func (l *Lot) DaysUntilExpiry(now time.Time) int {
	expiry, err := ParseLotDate(l.ExpiryDate)
	if err != nil {
		return 0
	}
	return int(expiry.Sub(now).Hours() / 24)
}
