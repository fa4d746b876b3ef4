package addon

import (
	"time"

	"github.com/boxibox/backend/internal/domain/addon"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AttachAddonRequest represents a request to attach a recurring add-on to a contract
type AttachAddonRequest struct {
	ProductID     uuid.UUID        `json:"product_id" binding:"required"`
	Quantity      *int             `json:"quantity" binding:"omitempty,min=1"`
	UnitPrice     *decimal.Decimal `json:"unit_price"`
	TaxRate       *decimal.Decimal `json:"tax_rate"`
	BillingPeriod string           `json:"billing_period" binding:"omitempty,oneof=monthly quarterly yearly"`
	StartDate     *time.Time       `json:"start_date"`
	EndDate       *time.Time       `json:"end_date"`
	Notes         string           `json:"notes" binding:"max=2000"`
}

// CancelAddonRequest represents a request to cancel one or all add-ons
type CancelAddonRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// AddonResponse represents a recurring add-on in API responses
type AddonResponse struct {
	ID                 uuid.UUID       `json:"id"`
	TenantID           uuid.UUID       `json:"tenant_id"`
	ContractID         uuid.UUID       `json:"contract_id"`
	ProductID          uuid.UUID       `json:"product_id"`
	ProductName        string          `json:"product_name"`
	ProductSKU         string          `json:"product_sku"`
	Quantity           int             `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	TaxRate            decimal.Decimal `json:"tax_rate"`
	BillingPeriod      string          `json:"billing_period"`
	StartDate          time.Time       `json:"start_date"`
	EndDate            *time.Time      `json:"end_date,omitempty"`
	NextBillingDate    time.Time       `json:"next_billing_date"`
	Status             string          `json:"status"`
	MonthlyAmount      decimal.Decimal `json:"monthly_amount"`
	TotalWithTax       decimal.Decimal `json:"total_with_tax"`
	PausedAt           *time.Time      `json:"paused_at,omitempty"`
	CancelledAt        *time.Time      `json:"cancelled_at,omitempty"`
	CancellationReason string          `json:"cancellation_reason,omitempty"`
	Notes              string          `json:"notes,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	Version            int             `json:"version"`
}

// ToAddonResponse converts a domain add-on to a response
func ToAddonResponse(a *addon.RecurringAddon) AddonResponse {
	return AddonResponse{
		ID:                 a.ID,
		TenantID:           a.TenantID,
		ContractID:         a.ContractID,
		ProductID:          a.ProductID,
		ProductName:        a.ProductName,
		ProductSKU:         a.ProductSKU,
		Quantity:           a.Quantity,
		UnitPrice:          a.UnitPrice,
		TaxRate:            a.TaxRate,
		BillingPeriod:      a.BillingPeriod.String(),
		StartDate:          a.StartDate,
		EndDate:            a.EndDate,
		NextBillingDate:    a.NextBillingDate,
		Status:             a.Status.String(),
		MonthlyAmount:      a.MonthlyAmount(),
		TotalWithTax:       a.TotalWithTax(),
		PausedAt:           a.PausedAt,
		CancelledAt:        a.CancelledAt,
		CancellationReason: a.CancellationReason,
		Notes:              a.Notes,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
		Version:            a.Version,
	}
}

// ToAddonResponses converts a list of domain add-ons
func ToAddonResponses(addons []*addon.RecurringAddon) []AddonResponse {
	out := make([]AddonResponse, len(addons))
	for i, a := range addons {
		out[i] = ToAddonResponse(a)
	}
	return out
}

// BulkResult reports how many add-ons a bulk operation changed and how many
// it left alone
type BulkResult struct {
	ContractID uuid.UUID `json:"contract_id"`
	Count      int       `json:"count"`
	Skipped    int       `json:"skipped,omitempty"`
}

// MonthlyRecurringResponse is a contract's recurring add-on revenue
type MonthlyRecurringResponse struct {
	ContractID  uuid.UUID       `json:"contract_id"`
	Amount      decimal.Decimal `json:"amount"`
	ActiveCount int             `json:"active_count"`
}

// EmissionResult is the outcome of emitting one contract's due cycles
type EmissionResult struct {
	ContractID uuid.UUID        `json:"contract_id"`
	AsOf       time.Time        `json:"as_of"`
	Items      []addon.LineItem `json:"items"`
	Emitted    int              `json:"emitted"`
	Skipped    int              `json:"skipped"`
}

// BillingSweepResult aggregates a tenant-wide billing sweep
type BillingSweepResult struct {
	TenantID        uuid.UUID        `json:"tenant_id"`
	AsOf            time.Time        `json:"as_of"`
	Contracts       int              `json:"contracts"`
	FailedContracts int              `json:"failed_contracts"`
	Emitted         int              `json:"emitted"`
	Skipped         int              `json:"skipped"`
	Results         []EmissionResult `json:"results"`
	ProcessedAt     time.Time        `json:"processed_at"`
}

// ExpirySweepResult aggregates a tenant-wide expiry sweep
type ExpirySweepResult struct {
	TenantID    uuid.UUID `json:"tenant_id"`
	AsOf        time.Time `json:"as_of"`
	Total       int       `json:"total"`
	Expired     int       `json:"expired"`
	Failed      int       `json:"failed"`
	ProcessedAt time.Time `json:"processed_at"`
}

// AddonStatistics summarizes a tenant's add-on portfolio
type AddonStatistics struct {
	Total                   int64           `json:"total"`
	Active                  int64           `json:"active"`
	Paused                  int64           `json:"paused"`
	Cancelled               int64           `json:"cancelled"`
	Expired                 int64           `json:"expired"`
	MonthlyRecurringRevenue decimal.Decimal `json:"monthly_recurring_revenue"`
	UniqueProducts          int             `json:"unique_products"`
}
