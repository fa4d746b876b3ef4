package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DomainEvent is something that happened to an aggregate
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
	TenantID() uuid.UUID
}

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventHandler consumes domain events of the types it lists
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	EventTypes() []string
}

// BaseDomainEvent implements DomainEvent; concrete events embed it
type BaseDomainEvent struct {
	Meta struct {
		ID         uuid.UUID `json:"event_id"`
		Type       string    `json:"event_type"`
		OccurredAt time.Time `json:"occurred_at"`
		TenantID   uuid.UUID `json:"tenant_id"`
	} `json:"meta"`
	Aggregate struct {
		ID   uuid.UUID `json:"id"`
		Type string    `json:"type"`
	} `json:"aggregate"`
}

// NewBaseDomainEvent stamps a new event at the given instant
func NewBaseDomainEvent(eventType, aggType string, aggID, tenantID uuid.UUID, at time.Time) BaseDomainEvent {
	var e BaseDomainEvent
	e.Meta.ID = uuid.New()
	e.Meta.Type = eventType
	e.Meta.OccurredAt = at
	e.Meta.TenantID = tenantID
	e.Aggregate.ID = aggID
	e.Aggregate.Type = aggType
	return e
}

func (e *BaseDomainEvent) EventID() uuid.UUID     { return e.Meta.ID }
func (e *BaseDomainEvent) EventType() string      { return e.Meta.Type }
func (e *BaseDomainEvent) OccurredAt() time.Time  { return e.Meta.OccurredAt }
func (e *BaseDomainEvent) TenantID() uuid.UUID    { return e.Meta.TenantID }
func (e *BaseDomainEvent) AggregateID() uuid.UUID { return e.Aggregate.ID }
func (e *BaseDomainEvent) AggregateType() string  { return e.Aggregate.Type }
