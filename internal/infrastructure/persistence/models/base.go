package models

import (
	"time"

	"github.com/boxibox/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// TenantAggregateModel provides common persistence fields for tenant-scoped
// aggregate roots, with version for optimistic locking
type TenantAggregateModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Version   int       `gorm:"not null;default:1"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// FromDomain populates the header from a domain aggregate root
func (m *TenantAggregateModel) FromDomain(a shared.TenantAggregateRoot) {
	m.ID = a.ID
	m.TenantID = a.TenantID
	m.Version = a.Version
	m.CreatedAt = a.CreatedAt
	m.UpdatedAt = a.UpdatedAt
}

// ToDomain rebuilds the domain aggregate root header
func (m *TenantAggregateModel) ToDomain() shared.TenantAggregateRoot {
	return shared.RestoreTenantAggregateRoot(m.ID, m.TenantID, m.Version, m.CreatedAt, m.UpdatedAt)
}

// CivilDate drops the clock and zone of t, keeping its calendar day at UTC
// midnight. Every DATE column is written and read through it.
func CivilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CivilDatePtr is CivilDate for optional dates
func CivilDatePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := CivilDate(*t)
	return &d
}
