package supply

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/stockpile/backend/internal/domain/shared"
	"github.com/stockpile/backend/internal/domain/supply"
)

// SupplyDepletedHandler reacts to supplies running out of stock. The default
// behavior is a log line; a notifier can be attached to push the news to a
// shopping list or chat channel.
type SupplyDepletedHandler struct {
	logger   *zap.Logger
	notifier SupplyDepletedNotifier
}

// SupplyDepletedNotifier delivers depletion notices to an external channel
type SupplyDepletedNotifier interface {
	NotifySupplyDepleted(ctx context.Context, notification SupplyDepletedNotification) error
}

// SupplyDepletedNotification describes a supply that just ran out
type SupplyDepletedNotification struct {
	TeamID   string `json:"team_id"`
	SupplyID string `json:"supply_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// NewSupplyDepletedHandler creates a new handler for supply depleted events
func NewSupplyDepletedHandler(logger *zap.Logger) *SupplyDepletedHandler {
	return &SupplyDepletedHandler{logger: logger}
}

// WithNotifier sets the notifier for sending depletion notices
func (h *SupplyDepletedHandler) WithNotifier(notifier SupplyDepletedNotifier) *SupplyDepletedHandler {
	h.notifier = notifier
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *SupplyDepletedHandler) EventTypes() []string {
	return []string{supply.EventTypeSupplyDepleted}
}

// Handle processes a SupplyDepletedEvent
func (h *SupplyDepletedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	depleted, ok := event.(*supply.SupplyDepletedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			supply.EventTypeSupplyDepleted, event.EventType())
	}

	h.logger.Info("supply depleted",
		zap.String("team_id", event.TeamID().String()),
		zap.String("supply_id", event.AggregateID().String()),
		zap.String("name", depleted.SupplyName),
		zap.String("category", depleted.Category),
	)

	if h.notifier == nil {
		return nil
	}

	notification := SupplyDepletedNotification{
		TeamID:   event.TeamID().String(),
		SupplyID: event.AggregateID().String(),
		Name:     depleted.SupplyName,
		Category: depleted.Category,
	}
	if err := h.notifier.NotifySupplyDepleted(ctx, notification); err != nil {
		// Notification failure must not fail the event handling
		h.logger.Error("failed to send supply depleted notification",
			zap.String("supply_id", notification.SupplyID),
			zap.Error(err),
		)
	}
	return nil
}

var _ shared.EventHandler = (*SupplyDepletedHandler)(nil)
