package addon

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItemTypeAddon marks invoice lines produced by recurring add-ons
const LineItemTypeAddon = "addon"

// LineItem is one invoice line for a billing cycle of an add-on
type LineItem struct {
	Type        string          `json:"type"`
	AddonID     uuid.UUID       `json:"addon_id"`
	ContractID  uuid.UUID       `json:"contract_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	Discount    decimal.Decimal `json:"discount"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Total       decimal.Decimal `json:"total"`
	PeriodStart time.Time       `json:"period_start"`
	PeriodEnd   time.Time       `json:"period_end"`
}

func describe(name string, quantity int) string {
	if quantity > 1 {
		return fmt.Sprintf("%s x%d", name, quantity)
	}
	return name
}

// BillingRecord is the durable ledger entry of one emitted cycle
type BillingRecord struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	AddonID    uuid.UUID
	ContractID uuid.UUID
	CycleStart time.Time
	CycleEnd   time.Time
	Item       LineItem
	EmittedAt  time.Time
}

// NewBillingRecord records the emission of item
func NewBillingRecord(tenantID uuid.UUID, item LineItem, at time.Time) *BillingRecord {
	return &BillingRecord{
		ID:         uuid.New(),
		TenantID:   tenantID,
		AddonID:    item.AddonID,
		ContractID: item.ContractID,
		CycleStart: item.PeriodStart,
		CycleEnd:   item.PeriodEnd,
		Item:       item,
		EmittedAt:  at,
	}
}
