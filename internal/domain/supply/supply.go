package supply

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockpile/backend/internal/domain/shared"
)

// Supply represents one trackable inventory item owned by a team. It is the
// aggregate root for all stock operations.
//
// Quantity and ExpiryDate are derived fields: whenever Lots is non-empty,
// Quantity equals the sum of lot quantities and ExpiryDate equals the earliest
// lot date. Records created before multi-lot tracking existed carry only the
// legacy pair; EnsureLots migrates them on first use.
type Supply struct {
	shared.TeamAggregateRoot
	Name             string `gorm:"not null;index"`
	Category         string `gorm:"not null;index"`
	Unit             string `gorm:"not null"`
	Quantity         int    `gorm:"not null;default:0"`
	ExpiryDate       string `gorm:"type:varchar(10)"` // nearest lot date, legacy single-lot field
	PurchaseLocation string
	ConsumptionCount int        `gorm:"not null;default:0"`
	LastConsumedAt   *time.Time `gorm:""`
	ZeroStockSince   *time.Time `gorm:"index"`
	IsArchived       bool       `gorm:"not null;default:false;index"`
	RegisteredAt     time.Time  `gorm:"not null"`

	Lots []Lot `gorm:"foreignKey:SupplyID;references:ID"`
}

// TableName returns the table name for GORM
func (Supply) TableName() string {
	return "supplies"
}

// NewSupply creates a new supply for a team
func NewSupply(teamID uuid.UUID, name, category, unit string, quantity int, expiryDate string) (*Supply, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Supply name cannot be empty")
	}
	if quantity < 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	if expiryDate != "" {
		if _, err := ParseLotDate(expiryDate); err != nil {
			return nil, err
		}
	}

	s := &Supply{
		TeamAggregateRoot: shared.NewTeamAggregateRoot(teamID),
		Name:              name,
		Category:          category,
		Unit:              unit,
		Quantity:          quantity,
		ExpiryDate:        expiryDate,
		RegisteredAt:      time.Now(),
		Lots:              make([]Lot, 0),
	}
	return s, nil
}

// EnsureLots migrates a legacy single-lot record into lot-based tracking.
// If the supply has no lots but a positive quantity, a single lot is
// synthesized from the legacy ExpiryDate/Quantity pair, stamped with the
// registration time. Calling it again is a no-op.
func (s *Supply) EnsureLots() {
	if len(s.Lots) > 0 || s.Quantity <= 0 {
		return
	}
	addedAt := s.RegisteredAt
	if addedAt.IsZero() {
		addedAt = time.Now()
	}
	s.Lots = append(s.Lots, NewLot(s.ID, s.ExpiryDate, s.Quantity, addedAt, nil))
}

// NearestExpiry returns the earliest expiry date across lots, or the legacy
// ExpiryDate field when no lots exist
func (s *Supply) NearestExpiry() string {
	if len(s.Lots) == 0 {
		return s.ExpiryDate
	}
	nearest := s.Lots[0].ExpiryDate
	for _, lot := range s.Lots[1:] {
		if lot.ExpiryDate < nearest {
			nearest = lot.ExpiryDate
		}
	}
	return nearest
}

// TotalQuantity returns the sum of lot quantities, or the legacy Quantity
// field when no lots exist
func (s *Supply) TotalQuantity() int {
	if len(s.Lots) == 0 {
		return s.Quantity
	}
	return s.lotSum()
}

// lotSum sums the surviving lot quantities with no legacy fallback. Consume
// and Restock recompute Quantity through this so a fully drained supply
// reads 0 instead of the stale pre-operation value.
func (s *Supply) lotSum() int {
	total := 0
	for _, lot := range s.Lots {
		total += lot.Quantity
	}
	return total
}

// LotConsumption records how much was taken from one lot during consumption
type LotConsumption struct {
	ExpiryDate string `json:"expiry_date"`
	Quantity   int    `json:"quantity"`
}

// ConsumptionResult describes the outcome of a consume operation
type ConsumptionResult struct {
	Requested   int              `json:"requested"`
	Fulfilled   int              `json:"fulfilled"`
	Unfulfilled int              `json:"unfulfilled"`
	Remaining   int              `json:"remaining"`
	Consumed    []LotConsumption `json:"consumed"`
}

// Consume removes the requested quantity from the supply's lots in FEFO order
// (earliest expiry first). Lots drained to zero are pruned and the derived
// Quantity/ExpiryDate fields are recomputed.
//
// Requesting more than is available is not an error: all lots are drained and
// the unsatisfied remainder is reported in the result. ConsumptionCount is
// credited with the full requested amount either way, tracking intended usage.
func (s *Supply) Consume(requested int) (*ConsumptionResult, error) {
	if requested <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Consume quantity must be positive")
	}
	if s.IsArchived {
		return nil, shared.ErrAlreadyArchived
	}

	s.EnsureLots()

	sort.Slice(s.Lots, func(i, j int) bool {
		return s.Lots[i].ExpiryDate < s.Lots[j].ExpiryDate
	})

	preExpiry := s.ExpiryDate
	consumed := make([]LotConsumption, 0, len(s.Lots))
	remaining := requested
	for i := range s.Lots {
		if remaining == 0 {
			break
		}
		taken := s.Lots[i].Take(remaining)
		if taken == 0 {
			continue
		}
		consumed = append(consumed, LotConsumption{ExpiryDate: s.Lots[i].ExpiryDate, Quantity: taken})
		remaining -= taken
	}

	s.pruneExhaustedLots()

	s.Quantity = s.lotSum()
	if len(s.Lots) > 0 {
		s.ExpiryDate = s.NearestExpiry()
	} else {
		// No lots survive: keep the pre-consumption date for display
		s.ExpiryDate = preExpiry
	}

	now := time.Now()
	s.LastConsumedAt = &now
	s.ConsumptionCount += requested
	s.UpdatedAt = now
	s.IncrementVersion()

	depleted := s.applyZeroStockTransition(now)

	result := &ConsumptionResult{
		Requested:   requested,
		Fulfilled:   requested - remaining,
		Unfulfilled: remaining,
		Remaining:   s.Quantity,
		Consumed:    consumed,
	}

	s.AddDomainEvent(NewSupplyConsumedEvent(s, result))
	if depleted {
		s.AddDomainEvent(NewSupplyDepletedEvent(s))
	}

	return result, nil
}

// RestockResult describes the outcome of a restock operation
type RestockResult struct {
	ExpiryDate string `json:"expiry_date"`
	Added      int    `json:"added"`
	Merged     bool   `json:"merged"`
	Total      int    `json:"total"`
}

// Restock adds a purchased batch. When a lot with the exact same expiry date
// already exists the quantity is merged into it (and the purchase price
// overwritten if one was supplied); otherwise a new lot is appended. Restocking
// always ends a zero-stock period.
//
// A supply sitting at zero with no lots starts from an empty lot list rather
// than resurrecting the stale legacy expiry date.
func (s *Supply) Restock(quantity int, expiryDate string, purchasePrice *decimal.Decimal) (*RestockResult, error) {
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Restock quantity must be positive")
	}
	if expiryDate == "" {
		return nil, shared.NewDomainError("INVALID_EXPIRY_DATE", "Expiry date is required")
	}
	if _, err := ParseLotDate(expiryDate); err != nil {
		return nil, err
	}
	if s.IsArchived {
		return nil, shared.ErrAlreadyArchived
	}
	if purchasePrice != nil && purchasePrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Purchase price cannot be negative")
	}

	s.EnsureLots()

	now := time.Now()
	merged := false
	for i := range s.Lots {
		if s.Lots[i].ExpiryDate == expiryDate {
			s.Lots[i].Add(quantity)
			if purchasePrice != nil {
				s.Lots[i].PurchasePrice = purchasePrice
			}
			merged = true
			break
		}
	}
	if !merged {
		s.Lots = append(s.Lots, NewLot(s.ID, expiryDate, quantity, now, purchasePrice))
	}

	s.Quantity = s.lotSum()
	s.ExpiryDate = s.NearestExpiry()
	s.ZeroStockSince = nil
	s.UpdatedAt = now
	s.IncrementVersion()

	result := &RestockResult{
		ExpiryDate: expiryDate,
		Added:      quantity,
		Merged:     merged,
		Total:      s.Quantity,
	}

	s.AddDomainEvent(NewSupplyRestockedEvent(s, result))

	return result, nil
}

// Archive marks the supply as archived. Archived supplies reject further
// consume/restock operations.
func (s *Supply) Archive() error {
	if s.IsArchived {
		return shared.ErrAlreadyArchived
	}
	s.IsArchived = true
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	s.AddDomainEvent(NewSupplyArchivedEvent(s))
	return nil
}

// IsZeroStockFor returns true if the supply has been continuously out of
// stock for at least the given duration as of now
func (s *Supply) IsZeroStockFor(d time.Duration, now time.Time) bool {
	if s.IsArchived || s.Quantity != 0 || s.ZeroStockSince == nil {
		return false
	}
	return s.ZeroStockSince.Before(now.Add(-d))
}

// applyZeroStockTransition stamps or clears ZeroStockSince on 0 crossings.
// The transition is edge-triggered: an already-stamped supply staying at zero
// keeps its original timestamp. Returns true when the supply just ran out.
func (s *Supply) applyZeroStockTransition(now time.Time) bool {
	if s.Quantity == 0 {
		if s.ZeroStockSince == nil {
			s.ZeroStockSince = &now
			return true
		}
		return false
	}
	s.ZeroStockSince = nil
	return false
}

func (s *Supply) pruneExhaustedLots() {
	kept := s.Lots[:0]
	for _, lot := range s.Lots {
		if !lot.IsExhausted() {
			kept = append(kept, lot)
		}
	}
	s.Lots = kept
}
