package shared

import (
	"time"

	"github.com/google/uuid"
)

// Entity carries identity and audit timestamps
type Entity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Touch records a modification at the given instant
func (e *Entity) Touch(at time.Time) {
	e.UpdatedAt = at
}

// TenantAggregateRoot is a tenant-owned aggregate. Version backs optimistic
// locking; recorded events wait in memory until the service publishes them.
type TenantAggregateRoot struct {
	Entity
	TenantID uuid.UUID
	Version  int
	pending  []DomainEvent
}

// NewTenantAggregateRoot starts a new aggregate at version 1
func NewTenantAggregateRoot(tenantID uuid.UUID, at time.Time) TenantAggregateRoot {
	return TenantAggregateRoot{
		Entity:   Entity{ID: uuid.New(), CreatedAt: at, UpdatedAt: at},
		TenantID: tenantID,
		Version:  1,
	}
}

// RestoreTenantAggregateRoot rebuilds the aggregate header from persisted state
func RestoreTenantAggregateRoot(id, tenantID uuid.UUID, version int, createdAt, updatedAt time.Time) TenantAggregateRoot {
	return TenantAggregateRoot{
		Entity:   Entity{ID: id, CreatedAt: createdAt, UpdatedAt: updatedAt},
		TenantID: tenantID,
		Version:  version,
	}
}

func (a *TenantAggregateRoot) IncrementVersion() {
	a.Version++
}

// Record queues an event for publication
func (a *TenantAggregateRoot) Record(e DomainEvent) {
	a.pending = append(a.pending, e)
}

// PendingEvents returns the events recorded since the last ClearEvents
func (a *TenantAggregateRoot) PendingEvents() []DomainEvent {
	return a.pending
}

func (a *TenantAggregateRoot) ClearEvents() {
	a.pending = nil
}
