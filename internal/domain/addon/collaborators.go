package addon

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the catalog view of a service that can be attached to a contract
type Product struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	Name          string
	SKU           string
	Price         decimal.Decimal
	TaxRate       *decimal.Decimal // percent; nil falls back to the default add-on rate
	BillingPeriod BillingPeriod    // empty when the catalog does not define one
	IsRecurring   bool
}

// Contract is the rental contract add-ons are billed against
type Contract struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	CustomerID     uuid.UUID
	ContractNumber string
}

// BillableContract is a contract together with its add-ons
type BillableContract struct {
	Contract
	Addons []*RecurringAddon
}

// MonthlyRecurring sums quantity × unit price over active add-ons, excl. tax
func (c *BillableContract) MonthlyRecurring() decimal.Decimal {
	total := decimal.Zero
	for _, a := range c.Addons {
		if a.Status == AddonStatusActive {
			total = total.Add(a.MonthlyAmount())
		}
	}
	return total
}
