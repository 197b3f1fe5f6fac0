package history

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockpile/backend/internal/domain/supply"
)

func newArchivedSupply(t *testing.T, teamID uuid.UUID, name string) *supply.Supply {
	t.Helper()
	s, err := supply.NewSupply(teamID, name, "food", "can", 0, "")
	require.NoError(t, err)
	return s
}

func TestNewFromSupply(t *testing.T) {
	teamID := uuid.New()

	t.Run("derives all fields from the supply", func(t *testing.T) {
		s := newArchivedSupply(t, teamID, "Canned Beans")
		s.ConsumptionCount = 12
		s.Quantity = 3
		s.PurchaseLocation = "  Corner Market  "
		lastUsed := time.Now().AddDate(0, 0, -2)
		s.LastConsumedAt = &lastUsed

		reviews := []supply.Review{{Rating: 4}, {Rating: 5}}
		h := NewFromSupply(s, "user-1", reviews)

		assert.Equal(t, teamID, h.TeamID)
		assert.Equal(t, "Canned Beans", h.Name)
		assert.Equal(t, 12, h.TotalConsumed)
		assert.Equal(t, float64(3), h.AverageStock)
		assert.Equal(t, []string{"Corner Market"}, []string(h.PurchaseLocations))
		assert.Equal(t, lastUsed, h.LastUsedAt)
		assert.Equal(t, s.RegisteredAt, h.FirstRegisteredAt)
		assert.True(t, h.HasReviews)
		assert.Equal(t, 2, h.ReviewCount)
		assert.Equal(t, "user-1", h.ArchivedBy)
		assert.False(t, h.ArchivedAt.IsZero())
	})

	t.Run("blank purchase location yields empty set", func(t *testing.T) {
		s := newArchivedSupply(t, teamID, "Rice")
		s.PurchaseLocation = "   "

		h := NewFromSupply(s, SystemArchiver, nil)

		assert.Empty(t, h.PurchaseLocations)
		assert.False(t, h.HasReviews)
		assert.Equal(t, 0, h.ReviewCount)
	})

	t.Run("falls back to registration time when never consumed", func(t *testing.T) {
		s := newArchivedSupply(t, teamID, "Rice")

		h := NewFromSupply(s, SystemArchiver, nil)

		assert.Equal(t, s.RegisteredAt, h.LastUsedAt)
	})
}

func TestSupplyHistory_Merge(t *testing.T) {
	teamID := uuid.New()

	makePair := func(t *testing.T) (*SupplyHistory, *SupplyHistory) {
		t.Helper()
		a := newArchivedSupply(t, teamID, "Canned Beans")
		a.ConsumptionCount = 10
		a.Quantity = 4
		a.PurchaseLocation = "Corner Market"
		b := newArchivedSupply(t, teamID, "Canned Beans")
		b.ConsumptionCount = 6
		b.Quantity = 2
		b.PurchaseLocation = "Depot"
		return NewFromSupply(a, "user-1", []supply.Review{{Rating: 3}}),
			NewFromSupply(b, "user-2", nil)
	}

	t.Run("sums counters and unions locations", func(t *testing.T) {
		existing, incoming := makePair(t)

		require.NoError(t, existing.Merge(incoming))

		assert.Equal(t, 16, existing.TotalConsumed)
		assert.Equal(t, 1, existing.ReviewCount)
		assert.True(t, existing.HasReviews)
		assert.ElementsMatch(t, []string{"Corner Market", "Depot"}, []string(existing.PurchaseLocations))
		assert.Equal(t, float64(3), existing.AverageStock)
	})

	t.Run("deduplicates shared locations", func(t *testing.T) {
		existing, incoming := makePair(t)
		incoming.PurchaseLocations = pq.StringArray{"Corner Market", "Depot"}

		require.NoError(t, existing.Merge(incoming))

		assert.ElementsMatch(t, []string{"Corner Market", "Depot"}, []string(existing.PurchaseLocations))
	})

	t.Run("incoming timestamps and archiver win", func(t *testing.T) {
		existing, incoming := makePair(t)
		incoming.LastUsedAt = time.Now().Add(time.Hour)
		incoming.ArchivedAt = time.Now().Add(2 * time.Hour)

		require.NoError(t, existing.Merge(incoming))

		assert.Equal(t, incoming.LastUsedAt, existing.LastUsedAt)
		assert.Equal(t, incoming.ArchivedAt, existing.ArchivedAt)
		assert.Equal(t, "user-2", existing.ArchivedBy)
	})

	t.Run("rejects a different key", func(t *testing.T) {
		existing, _ := makePair(t)
		other := newArchivedSupply(t, uuid.New(), "Canned Beans")
		incoming := NewFromSupply(other, "user-3", nil)

		err := existing.Merge(incoming)
		require.Error(t, err)
	})

	t.Run("key comparison is case-sensitive", func(t *testing.T) {
		existing, incoming := makePair(t)
		incoming.Name = "canned beans"

		err := existing.Merge(incoming)
		require.Error(t, err)
	})
}
