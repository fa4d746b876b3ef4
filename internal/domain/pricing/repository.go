package pricing

import (
	"context"

	"github.com/google/uuid"
)

// PromotionFinder looks up promotion codes. Implementations return an error
// satisfying shared.IsNotFound for unknown codes.
type PromotionFinder interface {
	// FindByCode finds a tenant's promotion by its normalized code
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*PromotionCode, error)
}

// PromotionRepository defines the interface for promotion code persistence
type PromotionRepository interface {
	PromotionFinder

	// FindByIDForTenant finds a promotion by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*PromotionCode, error)

	// Save creates or updates a promotion code
	Save(ctx context.Context, promo *PromotionCode) error

	// IncrementUses atomically consumes one use, failing when the cap is reached
	IncrementUses(ctx context.Context, tenantID, id uuid.UUID) error
}

// RentalUnitRepository reads rental units
type RentalUnitRepository interface {
	// FindByIDForTenant finds a rental unit by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*RentalUnit, error)
}

// BookingSettingsRepository reads deposit policies
type BookingSettingsRepository interface {
	// FindForSite returns the site's settings, falling back to the tenant-wide
	// settings; nil when neither exists
	FindForSite(ctx context.Context, tenantID uuid.UUID, siteID *uuid.UUID) (*BookingSettings, error)
}
