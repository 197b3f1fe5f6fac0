package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stockpile/backend/internal/domain/shared"
)

type testEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

func newTestEvent(eventType string, teamID uuid.UUID) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", uuid.New(), teamID),
		Data:            "test data",
	}
}

type testHandler struct {
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	mu         sync.Mutex
}

func (h *testHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) handledCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func TestInMemoryEventBus_PublishToSubscribedHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &testHandler{eventTypes: []string{"supply.consumed"}}
	bus.Subscribe(handler)

	err := bus.Publish(context.Background(), newTestEvent("supply.consumed", uuid.New()))
	require.NoError(t, err)
	assert.Equal(t, 1, handler.handledCount())
}

func TestInMemoryEventBus_IgnoresUnsubscribedTypes(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &testHandler{eventTypes: []string{"supply.consumed"}}
	bus.Subscribe(handler)

	err := bus.Publish(context.Background(), newTestEvent("supply.restocked", uuid.New()))
	require.NoError(t, err)
	assert.Equal(t, 0, handler.handledCount())
}

func TestInMemoryEventBus_WildcardHandlerReceivesAll(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &testHandler{}
	bus.Subscribe(handler)

	require.NoError(t, bus.Publish(context.Background(),
		newTestEvent("supply.consumed", uuid.New()),
		newTestEvent("supply.depleted", uuid.New()),
	))
	assert.Equal(t, 2, handler.handledCount())
}

func TestInMemoryEventBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	failing := &testHandler{eventTypes: []string{"supply.consumed"}, err: errors.New("boom")}
	healthy := &testHandler{eventTypes: []string{"supply.consumed"}}
	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newTestEvent("supply.consumed", uuid.New()))
	require.NoError(t, err)
	assert.Equal(t, 1, healthy.handledCount())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &testHandler{eventTypes: []string{"supply.consumed"}}
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("supply.consumed", uuid.New())))
	assert.Equal(t, 0, handler.handledCount())
}
