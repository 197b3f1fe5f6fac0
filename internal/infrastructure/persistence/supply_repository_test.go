package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stockpile/backend/internal/domain/history"
	"github.com/stockpile/backend/internal/domain/shared"
	"github.com/stockpile/backend/internal/domain/supply"
)

func setupSupplyTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&supply.Supply{}, &supply.Lot{}, &supply.Review{}, &history.SupplyHistory{})
	require.NoError(t, err)

	return db
}

func newTestSupply(t *testing.T, teamID uuid.UUID, name string) *supply.Supply {
	s, err := supply.NewSupply(teamID, name, "pantry", "kg", 0, "")
	require.NoError(t, err)
	return s
}

func TestGormSupplyRepository_SaveAndFind(t *testing.T) {
	db := setupSupplyTestDB(t)
	repo := NewGormSupplyRepository(db)
	ctx := context.Background()
	teamID := uuid.New()

	t.Run("round trips a supply with lots", func(t *testing.T) {
		s := newTestSupply(t, teamID, "Rice")
		_, err := s.Restock(5, "2025-06-01", nil)
		require.NoError(t, err)
		_, err = s.Restock(3, "2025-03-01", nil)
		require.NoError(t, err)

		require.NoError(t, repo.Save(ctx, s))

		found, err := repo.FindByID(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, "Rice", found.Name)
		assert.Equal(t, 8, found.Quantity)
		assert.Equal(t, "2025-03-01", found.ExpiryDate)
		assert.Len(t, found.Lots, 2)
	})

	t.Run("returns ErrNotFound for unknown id", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("scopes lookup to the team", func(t *testing.T) {
		s := newTestSupply(t, teamID, "Beans")
		require.NoError(t, repo.Save(ctx, s))

		_, err := repo.FindByIDForTeam(ctx, uuid.New(), s.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		found, err := repo.FindByIDForTeam(ctx, teamID, s.ID)
		require.NoError(t, err)
		assert.Equal(t, s.ID, found.ID)
	})
}

func TestGormSupplyRepository_SaveDeletesPrunedLots(t *testing.T) {
	db := setupSupplyTestDB(t)
	repo := NewGormSupplyRepository(db)
	ctx := context.Background()
	teamID := uuid.New()

	s := newTestSupply(t, teamID, "Milk")
	_, err := s.Restock(2, "2025-01-10", nil)
	require.NoError(t, err)
	_, err = s.Restock(4, "2025-02-10", nil)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, s))

	// Drains the first lot entirely, so its row must go away
	_, err = s.Consume(2)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, s))

	found, err := repo.FindByID(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, found.Lots, 1)
	assert.Equal(t, "2025-02-10", found.Lots[0].ExpiryDate)
	assert.Equal(t, 4, found.Quantity)

	// Draining the rest leaves the supply with no lot rows at all
	_, err = s.Consume(4)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, s))

	var lotCount int64
	require.NoError(t, db.Model(&supply.Lot{}).Where("supply_id = ?", s.ID).Count(&lotCount).Error)
	assert.Zero(t, lotCount)
}

func TestGormSupplyRepository_FindByIDForUpdate(t *testing.T) {
	// SELECT ... FOR UPDATE is not supported by SQLite; the locking path is
	// covered by integration tests against PostgreSQL
	t.Skip("row locking requires PostgreSQL")
}

func TestGormSupplyRepository_FindAllForTeam(t *testing.T) {
	db := setupSupplyTestDB(t)
	repo := NewGormSupplyRepository(db)
	ctx := context.Background()
	teamID := uuid.New()

	inDays := func(days int) string {
		return time.Now().AddDate(0, 0, days).Format(supply.LotDateLayout)
	}

	active := newTestSupply(t, teamID, "Apples")
	_, err := active.Restock(6, inDays(120), nil)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, active))

	empty := newTestSupply(t, teamID, "Flour")
	_, err = empty.Restock(1, inDays(90), nil)
	require.NoError(t, err)
	_, err = empty.Consume(1)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, empty))

	archived := newTestSupply(t, teamID, "Old Jam")
	require.NoError(t, archived.Archive())
	require.NoError(t, repo.Save(ctx, archived))

	other := newTestSupply(t, uuid.New(), "Not Ours")
	require.NoError(t, repo.Save(ctx, other))

	t.Run("excludes other teams", func(t *testing.T) {
		all, err := repo.FindAllForTeam(ctx, teamID, supply.SupplyFilter{Filter: shared.DefaultFilter()})
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("filters by archived flag", func(t *testing.T) {
		archivedOnly := true
		filter := supply.SupplyFilter{Filter: shared.DefaultFilter(), Archived: &archivedOnly}
		results, err := repo.FindAllForTeam(ctx, teamID, filter)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "Old Jam", results[0].Name)
	})

	t.Run("filters by zero stock", func(t *testing.T) {
		activeOnly := false
		filter := supply.SupplyFilter{Filter: shared.DefaultFilter(), Archived: &activeOnly, ZeroStock: true}
		results, err := repo.FindAllForTeam(ctx, teamID, filter)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "Flour", results[0].Name)
	})

	t.Run("filters by expiry window", func(t *testing.T) {
		soon := newTestSupply(t, teamID, "Yogurt")
		_, err := soon.Restock(2, inDays(3), nil)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, soon))

		filter := supply.SupplyFilter{Filter: shared.DefaultFilter(), ExpiringWithinDays: 7}
		results, err := repo.FindAllForTeam(ctx, teamID, filter)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "Yogurt", results[0].Name)
	})

	t.Run("orders and paginates", func(t *testing.T) {
		filter := supply.SupplyFilter{Filter: shared.Filter{Page: 1, PageSize: 2, OrderBy: "name", OrderDir: "asc"}}
		results, err := repo.FindAllForTeam(ctx, teamID, filter)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "Apples", results[0].Name)
		assert.Equal(t, "Flour", results[1].Name)
	})

	t.Run("rejects unknown sort fields", func(t *testing.T) {
		filter := supply.SupplyFilter{Filter: shared.Filter{Page: 1, PageSize: 10, OrderBy: "name; DROP TABLE supplies"}}
		_, err := repo.FindAllForTeam(ctx, teamID, filter)
		require.NoError(t, err)
	})
}

func TestGormSupplyRepository_FindAutoArchiveCandidates(t *testing.T) {
	db := setupSupplyTestDB(t)
	repo := NewGormSupplyRepository(db)
	ctx := context.Background()
	teamID := uuid.New()

	deplete := func(name string, zeroFor time.Duration) *supply.Supply {
		s := newTestSupply(t, teamID, name)
		_, err := s.Restock(1, "2025-01-01", nil)
		require.NoError(t, err)
		_, err = s.Consume(1)
		require.NoError(t, err)
		since := time.Now().Add(-zeroFor)
		s.ZeroStockSince = &since
		require.NoError(t, repo.Save(ctx, s))
		return s
	}

	stale := deplete("Stale", 40*24*time.Hour)
	deplete("Fresh", 2*24*time.Hour)

	stocked := newTestSupply(t, teamID, "Stocked")
	_, err := stocked.Restock(5, "2025-09-01", nil)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, stocked))

	cutoff := time.Now().Add(-30 * 24 * time.Hour)
	candidates, err := repo.FindAutoArchiveCandidates(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, stale.ID, candidates[0].ID)
}

func TestGormSupplyRepository_Delete(t *testing.T) {
	db := setupSupplyTestDB(t)
	repo := NewGormSupplyRepository(db)
	reviews := NewGormReviewRepository(db)
	ctx := context.Background()
	teamID := uuid.New()

	s := newTestSupply(t, teamID, "Soap")
	_, err := s.Restock(2, "2026-01-01", nil)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, s))

	review, err := supply.NewReview(s.ID, uuid.New(), 4, "fine")
	require.NoError(t, err)
	require.NoError(t, reviews.Save(ctx, review))

	t.Run("rejects wrong team", func(t *testing.T) {
		err := repo.Delete(ctx, uuid.New(), s.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("removes supply with lots and reviews", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, teamID, s.ID))

		_, err := repo.FindByID(ctx, s.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		count, err := reviews.CountBySupply(ctx, s.ID)
		require.NoError(t, err)
		assert.Zero(t, count)

		var lotCount int64
		require.NoError(t, db.Model(&supply.Lot{}).Where("supply_id = ?", s.ID).Count(&lotCount).Error)
		assert.Zero(t, lotCount)
	})
}

func TestGormSupplyRepository_CountForTeam(t *testing.T) {
	db := setupSupplyTestDB(t)
	repo := NewGormSupplyRepository(db)
	ctx := context.Background()
	teamID := uuid.New()

	for _, name := range []string{"A", "B", "C"} {
		require.NoError(t, repo.Save(ctx, newTestSupply(t, teamID, name)))
	}
	archived := newTestSupply(t, teamID, "D")
	require.NoError(t, archived.Archive())
	require.NoError(t, repo.Save(ctx, archived))

	total, err := repo.CountForTeam(ctx, teamID, supply.SupplyFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)

	activeOnly := false
	active, err := repo.CountForTeam(ctx, teamID, supply.SupplyFilter{Archived: &activeOnly})
	require.NoError(t, err)
	assert.Equal(t, int64(3), active)
}
