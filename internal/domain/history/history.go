package history

import (
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/stockpile/backend/internal/domain/shared"
	"github.com/stockpile/backend/internal/domain/supply"
)

// SystemArchiver identifies the maintenance sweep as the archiving principal
const SystemArchiver = "system"

// SupplyHistory is the archival aggregate for a supply, keyed by
// (team, name, category). Archiving a second supply with the same key merges
// into the existing record instead of creating a duplicate; history records
// are never deleted.
type SupplyHistory struct {
	shared.TeamAggregateRoot
	Name              string         `gorm:"not null;uniqueIndex:idx_supply_history_key,priority:2"`
	Category          string         `gorm:"not null;uniqueIndex:idx_supply_history_key,priority:3"`
	Unit              string         `gorm:"not null"`
	TotalConsumed     int            `gorm:"not null;default:0"`
	AverageStock      float64        `gorm:"not null;default:0"`
	PurchaseLocations pq.StringArray `gorm:"type:text[]"`
	LastUsedAt        time.Time      `gorm:"not null"`
	FirstRegisteredAt time.Time      `gorm:"not null"`
	HasReviews        bool           `gorm:"not null;default:false"`
	ReviewCount       int            `gorm:"not null;default:0"`
	ArchivedAt        time.Time      `gorm:"not null"`
	ArchivedBy        string         `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SupplyHistory) TableName() string {
	return "supply_histories"
}

// NewFromSupply converts an archived supply and its reviews into a history
// record. This is a pure transform: whether it becomes a new row or is merged
// into an existing one is the caller's decision.
func NewFromSupply(s *supply.Supply, archivedBy string, reviews []supply.Review) *SupplyHistory {
	locations := pq.StringArray{}
	if loc := strings.TrimSpace(s.PurchaseLocation); loc != "" {
		locations = append(locations, loc)
	}

	lastUsed := s.RegisteredAt
	if s.LastConsumedAt != nil {
		lastUsed = *s.LastConsumedAt
	}

	return &SupplyHistory{
		TeamAggregateRoot: shared.NewTeamAggregateRoot(s.TeamID),
		Name:              s.Name,
		Category:          s.Category,
		Unit:              s.Unit,
		TotalConsumed:     s.ConsumptionCount,
		AverageStock:      float64(s.Quantity),
		PurchaseLocations: locations,
		LastUsedAt:        lastUsed,
		FirstRegisteredAt: s.RegisteredAt,
		HasReviews:        len(reviews) > 0,
		ReviewCount:       len(reviews),
		ArchivedAt:        time.Now(),
		ArchivedBy:        archivedBy,
	}
}

// KeyMatches reports whether the incoming record targets the same history row.
// The key comparison is exact and case-sensitive.
func (h *SupplyHistory) KeyMatches(incoming *SupplyHistory) bool {
	return h.TeamID == incoming.TeamID && h.Name == incoming.Name && h.Category == incoming.Category
}

// Merge folds a newly archived record into this one: counters are summed,
// purchase locations unioned, and the incoming (most recent) usage and
// archival timestamps win. Identity fields stay as they are.
//
// AverageStock becomes the arithmetic mean of the two snapshots. That matches
// the historical behavior of this system rather than a true running average.
func (h *SupplyHistory) Merge(incoming *SupplyHistory) error {
	if !h.KeyMatches(incoming) {
		return shared.NewDomainError("HISTORY_KEY_MISMATCH", "Cannot merge history records with different keys")
	}

	h.TotalConsumed += incoming.TotalConsumed
	h.ReviewCount += incoming.ReviewCount
	h.HasReviews = h.HasReviews || incoming.HasReviews
	h.PurchaseLocations = unionLocations(h.PurchaseLocations, incoming.PurchaseLocations)
	h.AverageStock = (h.AverageStock + incoming.AverageStock) / 2
	h.LastUsedAt = incoming.LastUsedAt
	h.ArchivedAt = incoming.ArchivedAt
	h.ArchivedBy = incoming.ArchivedBy
	h.UpdatedAt = time.Now()
	h.IncrementVersion()

	return nil
}

func unionLocations(existing, incoming pq.StringArray) pq.StringArray {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	union := make(pq.StringArray, 0, len(existing)+len(incoming))
	for _, loc := range existing {
		if _, ok := seen[loc]; !ok {
			seen[loc] = struct{}{}
			union = append(union, loc)
		}
	}
	for _, loc := range incoming {
		if _, ok := seen[loc]; !ok {
			seen[loc] = struct{}{}
			union = append(union, loc)
		}
	}
	return union
}
