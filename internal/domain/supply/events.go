package supply

import (
	"github.com/stockpile/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeSupply = "Supply"

// Event type constants
const (
	EventTypeSupplyConsumed  = "SupplyConsumed"
	EventTypeSupplyRestocked = "SupplyRestocked"
	EventTypeSupplyDepleted  = "SupplyDepleted"
	EventTypeSupplyArchived  = "SupplyArchived"
)

// SupplyConsumedEvent is raised when stock is consumed from a supply
type SupplyConsumedEvent struct {
	shared.BaseDomainEvent
	SupplyName   string           `json:"supply_name"`
	Requested    int              `json:"requested"`
	Fulfilled    int              `json:"fulfilled"`
	Remaining    int              `json:"remaining"`
	ConsumedFrom []LotConsumption `json:"consumed_from"`
}

// NewSupplyConsumedEvent creates a new SupplyConsumedEvent
func NewSupplyConsumedEvent(s *Supply, result *ConsumptionResult) *SupplyConsumedEvent {
	return &SupplyConsumedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSupplyConsumed, AggregateTypeSupply, s.ID, s.TeamID),
		SupplyName:      s.Name,
		Requested:       result.Requested,
		Fulfilled:       result.Fulfilled,
		Remaining:       result.Remaining,
		ConsumedFrom:    result.Consumed,
	}
}

// EventType returns the event type name
func (e *SupplyConsumedEvent) EventType() string {
	return EventTypeSupplyConsumed
}

// SupplyRestockedEvent is raised when a purchase is added to a supply
type SupplyRestockedEvent struct {
	shared.BaseDomainEvent
	SupplyName string `json:"supply_name"`
	ExpiryDate string `json:"expiry_date"`
	Added      int    `json:"added"`
	Total      int    `json:"total"`
}

// NewSupplyRestockedEvent creates a new SupplyRestockedEvent
func NewSupplyRestockedEvent(s *Supply, result *RestockResult) *SupplyRestockedEvent {
	return &SupplyRestockedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSupplyRestocked, AggregateTypeSupply, s.ID, s.TeamID),
		SupplyName:      s.Name,
		ExpiryDate:      result.ExpiryDate,
		Added:           result.Added,
		Total:           result.Total,
	}
}

// EventType returns the event type name
func (e *SupplyRestockedEvent) EventType() string {
	return EventTypeSupplyRestocked
}

// SupplyDepletedEvent is raised when a supply's quantity first reaches zero
type SupplyDepletedEvent struct {
	shared.BaseDomainEvent
	SupplyName string `json:"supply_name"`
	Category   string `json:"category"`
}

// NewSupplyDepletedEvent creates a new SupplyDepletedEvent
func NewSupplyDepletedEvent(s *Supply) *SupplyDepletedEvent {
	return &SupplyDepletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSupplyDepleted, AggregateTypeSupply, s.ID, s.TeamID),
		SupplyName:      s.Name,
		Category:        s.Category,
	}
}

// EventType returns the event type name
func (e *SupplyDepletedEvent) EventType() string {
	return EventTypeSupplyDepleted
}

// SupplyArchivedEvent is raised when a supply is archived into history
type SupplyArchivedEvent struct {
	shared.BaseDomainEvent
	SupplyName string `json:"supply_name"`
	Category   string `json:"category"`
}

// NewSupplyArchivedEvent creates a new SupplyArchivedEvent
func NewSupplyArchivedEvent(s *Supply) *SupplyArchivedEvent {
	return &SupplyArchivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSupplyArchived, AggregateTypeSupply, s.ID, s.TeamID),
		SupplyName:      s.Name,
		Category:        s.Category,
	}
}

// EventType returns the event type name
func (e *SupplyArchivedEvent) EventType() string {
	return EventTypeSupplyArchived
}
