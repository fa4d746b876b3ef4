package addon

import (
	"time"

	"github.com/boxibox/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeRecurringAddon = "RecurringAddon"

// Event type constants
const (
	EventTypeAddonAttached  = "AddonAttached"
	EventTypeAddonPaused    = "AddonPaused"
	EventTypeAddonResumed   = "AddonResumed"
	EventTypeAddonCancelled = "AddonCancelled"
	EventTypeAddonExpired   = "AddonExpired"
	EventTypeAddonBilled    = "AddonBilled"
)

// AddonStatusChangedEvent is raised on every lifecycle transition
type AddonStatusChangedEvent struct {
	shared.BaseDomainEvent
	AddonID    uuid.UUID   `json:"addon_id"`
	ContractID uuid.UUID   `json:"contract_id"`
	ProductID  uuid.UUID   `json:"product_id"`
	Status     AddonStatus `json:"status"`
	Reason     string      `json:"reason,omitempty"`
}

func newStatusChangedEvent(eventType string, a *RecurringAddon, at time.Time) *AddonStatusChangedEvent {
	return &AddonStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeRecurringAddon, a.ID, a.TenantID, at),
		AddonID:         a.ID,
		ContractID:      a.ContractID,
		ProductID:       a.ProductID,
		Status:          a.Status,
	}
}

// NewAddonAttachedEvent creates the event for a newly attached add-on
func NewAddonAttachedEvent(a *RecurringAddon, at time.Time) *AddonStatusChangedEvent {
	return newStatusChangedEvent(EventTypeAddonAttached, a, at)
}

// NewAddonPausedEvent creates the event for a paused add-on
func NewAddonPausedEvent(a *RecurringAddon, at time.Time) *AddonStatusChangedEvent {
	return newStatusChangedEvent(EventTypeAddonPaused, a, at)
}

// NewAddonResumedEvent creates the event for a resumed add-on
func NewAddonResumedEvent(a *RecurringAddon, at time.Time) *AddonStatusChangedEvent {
	return newStatusChangedEvent(EventTypeAddonResumed, a, at)
}

// NewAddonCancelledEvent creates the event for a cancelled add-on
func NewAddonCancelledEvent(a *RecurringAddon, at time.Time) *AddonStatusChangedEvent {
	e := newStatusChangedEvent(EventTypeAddonCancelled, a, at)
	e.Reason = a.CancellationReason
	return e
}

// NewAddonExpiredEvent creates the event for an expired add-on
func NewAddonExpiredEvent(a *RecurringAddon, at time.Time) *AddonStatusChangedEvent {
	return newStatusChangedEvent(EventTypeAddonExpired, a, at)
}

// AddonBilledEvent is raised when a cycle has been emitted as a line item
type AddonBilledEvent struct {
	shared.BaseDomainEvent
	AddonID         uuid.UUID       `json:"addon_id"`
	ContractID      uuid.UUID       `json:"contract_id"`
	PeriodStart     time.Time       `json:"period_start"`
	PeriodEnd       time.Time       `json:"period_end"`
	Total           decimal.Decimal `json:"total"`
	NextBillingDate time.Time       `json:"next_billing_date"`
}

// NewAddonBilledEvent creates the event for an emitted cycle
func NewAddonBilledEvent(a *RecurringAddon, item LineItem, at time.Time) *AddonBilledEvent {
	return &AddonBilledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAddonBilled, AggregateTypeRecurringAddon, a.ID, a.TenantID, at),
		AddonID:         a.ID,
		ContractID:      a.ContractID,
		PeriodStart:     item.PeriodStart,
		PeriodEnd:       item.PeriodEnd,
		Total:           item.Total,
		NextBillingDate: a.NextBillingDate,
	}
}
