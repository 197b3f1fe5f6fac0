package supply

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stockpile/backend/internal/domain/history"
	"github.com/stockpile/backend/internal/domain/shared"
	"github.com/stockpile/backend/internal/domain/supply"
)

// MockEventBus records published events
type MockEventBus struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func NewMockEventBus() *MockEventBus {
	return &MockEventBus{events: make([]shared.DomainEvent, 0)}
}

func (m *MockEventBus) Publish(_ context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventBus) Subscribe(shared.EventHandler, ...string) {}
func (m *MockEventBus) Unsubscribe(shared.EventHandler)         {}
func (m *MockEventBus) Start(context.Context) error             { return nil }
func (m *MockEventBus) Stop(context.Context) error              { return nil }

func (m *MockEventBus) GetEventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, 0)
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}

// MockSupplyRepository is a mock implementation of supply.Repository
type MockSupplyRepository struct {
	mock.Mock
}

func (m *MockSupplyRepository) FindByID(ctx context.Context, id uuid.UUID) (*supply.Supply, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*supply.Supply), args.Error(1)
}

func (m *MockSupplyRepository) FindByIDForTeam(ctx context.Context, teamID, id uuid.UUID) (*supply.Supply, error) {
	args := m.Called(ctx, teamID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*supply.Supply), args.Error(1)
}

func (m *MockSupplyRepository) FindByIDForUpdate(ctx context.Context, teamID, id uuid.UUID) (*supply.Supply, error) {
	args := m.Called(ctx, teamID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*supply.Supply), args.Error(1)
}

func (m *MockSupplyRepository) FindAllForTeam(ctx context.Context, teamID uuid.UUID, filter supply.SupplyFilter) ([]supply.Supply, error) {
	args := m.Called(ctx, teamID, filter)
	return args.Get(0).([]supply.Supply), args.Error(1)
}

func (m *MockSupplyRepository) FindAutoArchiveCandidates(ctx context.Context, zeroSince time.Time) ([]supply.Supply, error) {
	args := m.Called(ctx, zeroSince)
	return args.Get(0).([]supply.Supply), args.Error(1)
}

func (m *MockSupplyRepository) Save(ctx context.Context, s *supply.Supply) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSupplyRepository) Delete(ctx context.Context, teamID, id uuid.UUID) error {
	args := m.Called(ctx, teamID, id)
	return args.Error(0)
}

func (m *MockSupplyRepository) CountForTeam(ctx context.Context, teamID uuid.UUID, filter supply.SupplyFilter) (int64, error) {
	args := m.Called(ctx, teamID, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockReviewRepository is a mock implementation of supply.ReviewRepository
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) FindBySupply(ctx context.Context, supplyID uuid.UUID) ([]supply.Review, error) {
	args := m.Called(ctx, supplyID)
	return args.Get(0).([]supply.Review), args.Error(1)
}

func (m *MockReviewRepository) CountBySupply(ctx context.Context, supplyID uuid.UUID) (int64, error) {
	args := m.Called(ctx, supplyID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReviewRepository) Save(ctx context.Context, r *supply.Review) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

// MockHistoryRepository is a mock implementation of history.Repository
type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*history.SupplyHistory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*history.SupplyHistory), args.Error(1)
}

func (m *MockHistoryRepository) FindByKey(ctx context.Context, teamID uuid.UUID, name, category string) (*history.SupplyHistory, error) {
	args := m.Called(ctx, teamID, name, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*history.SupplyHistory), args.Error(1)
}

func (m *MockHistoryRepository) FindAllForTeam(ctx context.Context, teamID uuid.UUID, filter shared.Filter) ([]history.SupplyHistory, error) {
	args := m.Called(ctx, teamID, filter)
	return args.Get(0).([]history.SupplyHistory), args.Error(1)
}

func (m *MockHistoryRepository) Save(ctx context.Context, h *history.SupplyHistory) error {
	args := m.Called(ctx, h)
	return args.Error(0)
}

func (m *MockHistoryRepository) CountForTeam(ctx context.Context, teamID uuid.UUID) (int64, error) {
	args := m.Called(ctx, teamID)
	return args.Get(0).(int64), args.Error(1)
}

type serviceFixture struct {
	service     *Service
	supplyRepo  *MockSupplyRepository
	reviewRepo  *MockReviewRepository
	historyRepo *MockHistoryRepository
	eventBus    *MockEventBus
}

func newServiceFixture() *serviceFixture {
	supplyRepo := new(MockSupplyRepository)
	reviewRepo := new(MockReviewRepository)
	historyRepo := new(MockHistoryRepository)
	eventBus := NewMockEventBus()
	scope := NewNoOpTransactionScope(supplyRepo, reviewRepo, historyRepo)

	return &serviceFixture{
		service:     NewService(scope, supplyRepo, reviewRepo, historyRepo, WithEventBus(eventBus)),
		supplyRepo:  supplyRepo,
		reviewRepo:  reviewRepo,
		historyRepo: historyRepo,
		eventBus:    eventBus,
	}
}

func newServiceSupply(t *testing.T, teamID uuid.UUID, quantity int) *supply.Supply {
	t.Helper()
	s, err := supply.NewSupply(teamID, "Oat Milk", "pantry", "carton", quantity, "2025-04-01")
	require.NoError(t, err)
	s.EnsureLots()
	return s
}

func TestService_Create(t *testing.T) {
	f := newServiceFixture()
	teamID := uuid.New()

	f.supplyRepo.On("Save", mock.Anything, mock.AnythingOfType("*supply.Supply")).Return(nil)

	resp, err := f.service.Create(context.Background(), teamID, CreateSupplyRequest{
		Name:             "Oat Milk",
		Category:         "pantry",
		Unit:             "carton",
		Quantity:         6,
		ExpiryDate:       "2025-04-01",
		PurchaseLocation: "Corner Market",
	})

	require.NoError(t, err)
	assert.Equal(t, teamID, resp.TeamID)
	assert.Equal(t, 6, resp.Quantity)
	require.Len(t, resp.Lots, 1)
	assert.Equal(t, "2025-04-01", resp.Lots[0].ExpiryDate)
	f.supplyRepo.AssertExpectations(t)
}

func TestService_Create_InvalidInput(t *testing.T) {
	f := newServiceFixture()

	_, err := f.service.Create(context.Background(), uuid.New(), CreateSupplyRequest{
		Name: "", Category: "pantry", Unit: "carton",
	})

	require.Error(t, err)
	f.supplyRepo.AssertNotCalled(t, "Save")
}

func TestService_Consume(t *testing.T) {
	f := newServiceFixture()
	teamID := uuid.New()
	entity := newServiceSupply(t, teamID, 6)

	f.supplyRepo.On("FindByIDForUpdate", mock.Anything, teamID, entity.ID).Return(entity, nil)
	f.supplyRepo.On("Save", mock.Anything, entity).Return(nil)

	resp, err := f.service.Consume(context.Background(), teamID, entity.ID, ConsumeRequest{Quantity: 4})

	require.NoError(t, err)
	assert.Equal(t, 4, resp.Fulfilled)
	assert.Equal(t, 0, resp.Unfulfilled)
	assert.Equal(t, 2, resp.Remaining)
	assert.Len(t, f.eventBus.GetEventsByType(supply.EventTypeSupplyConsumed), 1)
	f.supplyRepo.AssertExpectations(t)
}

func TestService_Consume_PublishesDepletedEvent(t *testing.T) {
	f := newServiceFixture()
	teamID := uuid.New()
	entity := newServiceSupply(t, teamID, 2)

	f.supplyRepo.On("FindByIDForUpdate", mock.Anything, teamID, entity.ID).Return(entity, nil)
	f.supplyRepo.On("Save", mock.Anything, entity).Return(nil)

	resp, err := f.service.Consume(context.Background(), teamID, entity.ID, ConsumeRequest{Quantity: 2})

	require.NoError(t, err)
	assert.Equal(t, 0, resp.Remaining)
	assert.Len(t, f.eventBus.GetEventsByType(supply.EventTypeSupplyDepleted), 1)
}

func TestService_Consume_NotFound(t *testing.T) {
	f := newServiceFixture()
	teamID := uuid.New()
	supplyID := uuid.New()

	f.supplyRepo.On("FindByIDForUpdate", mock.Anything, teamID, supplyID).Return(nil, shared.ErrNotFound)

	_, err := f.service.Consume(context.Background(), teamID, supplyID, ConsumeRequest{Quantity: 1})

	require.ErrorIs(t, err, shared.ErrNotFound)
	f.supplyRepo.AssertNotCalled(t, "Save")
}

func TestService_Restock(t *testing.T) {
	f := newServiceFixture()
	teamID := uuid.New()
	entity := newServiceSupply(t, teamID, 2)

	f.supplyRepo.On("FindByIDForUpdate", mock.Anything, teamID, entity.ID).Return(entity, nil)
	f.supplyRepo.On("Save", mock.Anything, entity).Return(nil)

	resp, err := f.service.Restock(context.Background(), teamID, entity.ID, RestockRequest{
		Quantity:   3,
		ExpiryDate: "2025-04-01",
	})

	require.NoError(t, err)
	assert.True(t, resp.Merged)
	assert.Equal(t, 5, resp.Total)
	assert.Len(t, f.eventBus.GetEventsByType(supply.EventTypeSupplyRestocked), 1)
}

func TestService_Restock_RollsBackOnSaveFailure(t *testing.T) {
	f := newServiceFixture()
	teamID := uuid.New()
	entity := newServiceSupply(t, teamID, 2)

	f.supplyRepo.On("FindByIDForUpdate", mock.Anything, teamID, entity.ID).Return(entity, nil)
	f.supplyRepo.On("Save", mock.Anything, entity).Return(errors.New("connection reset"))

	_, err := f.service.Restock(context.Background(), teamID, entity.ID, RestockRequest{
		Quantity:   3,
		ExpiryDate: "2025-04-01",
	})

	require.Error(t, err)
	assert.Empty(t, f.eventBus.GetEventsByType(supply.EventTypeSupplyRestocked))
}

func TestService_Archive_CreatesHistoryWhenNoneExists(t *testing.T) {
	f := newServiceFixture()
	teamID := uuid.New()
	entity := newServiceSupply(t, teamID, 0)

	f.supplyRepo.On("FindByIDForUpdate", mock.Anything, teamID, entity.ID).Return(entity, nil)
	f.supplyRepo.On("Save", mock.Anything, entity).Return(nil)
	f.reviewRepo.On("FindBySupply", mock.Anything, entity.ID).Return([]supply.Review{}, nil)
	f.historyRepo.On("FindByKey", mock.Anything, teamID, entity.Name, entity.Category).Return(nil, shared.ErrNotFound)
	f.historyRepo.On("Save", mock.Anything, mock.AnythingOfType("*history.SupplyHistory")).Return(nil)

	resp, err := f.service.Archive(context.Background(), teamID, entity.ID, "user-42")

	require.NoError(t, err)
	assert.True(t, resp.IsArchived)
	assert.Len(t, f.eventBus.GetEventsByType(supply.EventTypeSupplyArchived), 1)
	f.historyRepo.AssertExpectations(t)
}

func TestService_Archive_MergesIntoExistingHistory(t *testing.T) {
	f := newServiceFixture()
	teamID := uuid.New()
	entity := newServiceSupply(t, teamID, 0)
	entity.ConsumptionCount = 7

	existing := history.NewFromSupply(newServiceSupply(t, teamID, 0), "user-1", nil)
	existing.Name = entity.Name
	existing.Category = entity.Category
	existing.TotalConsumed = 3

	f.supplyRepo.On("FindByIDForUpdate", mock.Anything, teamID, entity.ID).Return(entity, nil)
	f.supplyRepo.On("Save", mock.Anything, entity).Return(nil)
	f.reviewRepo.On("FindBySupply", mock.Anything, entity.ID).Return([]supply.Review{}, nil)
	f.historyRepo.On("FindByKey", mock.Anything, teamID, entity.Name, entity.Category).Return(existing, nil)
	f.historyRepo.On("Save", mock.Anything, existing).Return(nil)

	_, err := f.service.Archive(context.Background(), teamID, entity.ID, "user-42")

	require.NoError(t, err)
	assert.Equal(t, 10, existing.TotalConsumed)
	assert.Equal(t, "user-42", existing.ArchivedBy)
	f.historyRepo.AssertExpectations(t)
}

func TestService_Archive_AlreadyArchived(t *testing.T) {
	f := newServiceFixture()
	teamID := uuid.New()
	entity := newServiceSupply(t, teamID, 0)
	require.NoError(t, entity.Archive())
	entity.ClearDomainEvents()

	f.supplyRepo.On("FindByIDForUpdate", mock.Anything, teamID, entity.ID).Return(entity, nil)
	f.reviewRepo.On("FindBySupply", mock.Anything, entity.ID).Return([]supply.Review{}, nil)

	_, err := f.service.Archive(context.Background(), teamID, entity.ID, "user-42")

	require.ErrorIs(t, err, shared.ErrAlreadyArchived)
	f.historyRepo.AssertNotCalled(t, "Save")
}

func TestService_List_UsesCacheOnSecondCall(t *testing.T) {
	supplyRepo := new(MockSupplyRepository)
	reviewRepo := new(MockReviewRepository)
	historyRepo := new(MockHistoryRepository)
	scope := NewNoOpTransactionScope(supplyRepo, reviewRepo, historyRepo)
	cache := newFakeListCache()
	service := NewService(scope, supplyRepo, reviewRepo, historyRepo, WithListCache(cache, time.Minute))

	teamID := uuid.New()
	entity := newServiceSupply(t, teamID, 3)

	supplyRepo.On("FindAllForTeam", mock.Anything, teamID, mock.Anything).Return([]supply.Supply{*entity}, nil).Once()
	supplyRepo.On("CountForTeam", mock.Anything, teamID, mock.Anything).Return(int64(1), nil).Once()

	first, total, err := service.List(context.Background(), teamID, ListSuppliesQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, first, 1)

	second, _, err := service.List(context.Background(), teamID, ListSuppliesQuery{})
	require.NoError(t, err)
	require.Len(t, second, 1)
	supplyRepo.AssertExpectations(t)
}

func TestService_List_CacheHitKeepsFullCount(t *testing.T) {
	supplyRepo := new(MockSupplyRepository)
	reviewRepo := new(MockReviewRepository)
	historyRepo := new(MockHistoryRepository)
	scope := NewNoOpTransactionScope(supplyRepo, reviewRepo, historyRepo)
	cache := newFakeListCache()
	service := NewService(scope, supplyRepo, reviewRepo, historyRepo, WithListCache(cache, time.Minute))

	teamID := uuid.New()
	entity := newServiceSupply(t, teamID, 3)

	// One page of results out of a much larger set
	supplyRepo.On("FindAllForTeam", mock.Anything, teamID, mock.Anything).Return([]supply.Supply{*entity}, nil).Once()
	supplyRepo.On("CountForTeam", mock.Anything, teamID, mock.Anything).Return(int64(57), nil).Once()

	_, total, err := service.List(context.Background(), teamID, ListSuppliesQuery{})
	require.NoError(t, err)
	require.Equal(t, int64(57), total)

	cachedPage, cachedTotal, err := service.List(context.Background(), teamID, ListSuppliesQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(57), cachedTotal)
	require.Len(t, cachedPage, 1)
	supplyRepo.AssertExpectations(t)
}

func TestService_List_FilteredQueriesBypassCache(t *testing.T) {
	supplyRepo := new(MockSupplyRepository)
	reviewRepo := new(MockReviewRepository)
	historyRepo := new(MockHistoryRepository)
	scope := NewNoOpTransactionScope(supplyRepo, reviewRepo, historyRepo)
	cache := newFakeListCache()
	service := NewService(scope, supplyRepo, reviewRepo, historyRepo, WithListCache(cache, time.Minute))

	teamID := uuid.New()
	archived := true
	query := ListSuppliesQuery{Archived: &archived}

	supplyRepo.On("FindAllForTeam", mock.Anything, teamID, mock.Anything).Return([]supply.Supply{}, nil).Twice()
	supplyRepo.On("CountForTeam", mock.Anything, teamID, mock.Anything).Return(int64(0), nil).Twice()

	_, _, err := service.List(context.Background(), teamID, query)
	require.NoError(t, err)
	_, _, err = service.List(context.Background(), teamID, query)
	require.NoError(t, err)
	supplyRepo.AssertExpectations(t)
}

// fakeListCache is a minimal in-memory supply.ListCache for service tests
type fakeListCache struct {
	mu      sync.Mutex
	entries map[uuid.UUID]supply.CachedList
}

func newFakeListCache() *fakeListCache {
	return &fakeListCache{entries: make(map[uuid.UUID]supply.CachedList)}
}

func (c *fakeListCache) Get(_ context.Context, teamID uuid.UUID) (*supply.CachedList, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	list, ok := c.entries[teamID]
	if !ok {
		return nil, false, nil
	}
	return &list, true, nil
}

func (c *fakeListCache) Set(_ context.Context, teamID uuid.UUID, list supply.CachedList, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[teamID] = list
	return nil
}

func (c *fakeListCache) Invalidate(_ context.Context, teamID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, teamID)
	return nil
}

func (c *fakeListCache) Close() error { return nil }
