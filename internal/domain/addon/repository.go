package addon

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecurringAddonRepository defines the interface for recurring add-on persistence
type RecurringAddonRepository interface {
	// FindByIDForTenant finds an add-on by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*RecurringAddon, error)

	// FindByContract returns every add-on of a contract, including terminal ones
	FindByContract(ctx context.Context, tenantID, contractID uuid.UUID) ([]*RecurringAddon, error)

	// ExistsActiveForProduct checks for an active add-on of the product on the contract
	ExistsActiveForProduct(ctx context.Context, tenantID, contractID, productID uuid.UUID) (bool, error)

	// FindDueForBilling returns active add-ons with next_billing_date on or before asOf.
	// It never mutates state.
	FindDueForBilling(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]*RecurringAddon, error)

	// LockDueForContract selects the due add-ons of one contract and locks them
	// for the enclosing transaction; rows locked by another sweep are skipped
	LockDueForContract(ctx context.Context, tenantID, contractID uuid.UUID, asOf time.Time) ([]*RecurringAddon, error)

	// FindContractsWithDue returns the distinct contracts having due add-ons
	FindContractsWithDue(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]uuid.UUID, error)

	// FindExpired returns active add-ons whose end date lies before asOf
	FindExpired(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]*RecurringAddon, error)

	// FindActiveByTenant returns every active add-on of a tenant
	FindActiveByTenant(ctx context.Context, tenantID uuid.UUID) ([]*RecurringAddon, error)

	// Create inserts a new add-on
	Create(ctx context.Context, a *RecurringAddon) error

	// Update persists a mutated add-on; the stored version must be a.Version-1.
	// A second active add-on of the same product fails with shared.ErrAlreadyExists
	Update(ctx context.Context, a *RecurringAddon) error

	// CountByStatus counts a tenant's add-ons per status
	CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[AddonStatus]int64, error)

	// PopularProducts ranks products by number of active add-ons
	PopularProducts(ctx context.Context, tenantID uuid.UUID, limit int) ([]PopularAddon, error)
}

// BillingRecordRepository persists the ledger of emitted cycles
type BillingRecordRepository interface {
	// Create inserts a record; a second record for the same add-on cycle fails
	// with shared.ErrAlreadyExists
	Create(ctx context.Context, r *BillingRecord) error

	// ExistsForCycle checks whether the cycle starting at cycleStart was emitted
	ExistsForCycle(ctx context.Context, addonID uuid.UUID, cycleStart time.Time) (bool, error)

	// FindByContract lists a contract's emitted cycles, oldest first
	FindByContract(ctx context.Context, tenantID, contractID uuid.UUID) ([]BillingRecord, error)
}

// ProductRepository reads catalog products
type ProductRepository interface {
	// FindByIDForTenant finds a product by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Product, error)
}

// ContractRepository reads contracts
type ContractRepository interface {
	// FindByIDForTenant finds a contract by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Contract, error)
}

// TenantLister enumerates tenants that own add-ons, for scheduled sweeps
type TenantLister interface {
	ListTenantsWithAddons(ctx context.Context) ([]uuid.UUID, error)
}

// PopularAddon is a product ranked by how many contracts carry it
type PopularAddon struct {
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	UsageCount   int64           `json:"usage_count"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}
