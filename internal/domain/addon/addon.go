package addon

import (
	"fmt"
	"time"

	"github.com/boxibox/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultTaxRate is the add-on tax rate (percent) when the product defines none
var DefaultTaxRate = decimal.NewFromInt(20)

var hundred = decimal.NewFromInt(100)

// RecurringAddon is an optional service billed periodically against a contract.
// Add-ons are never deleted; they settle in cancelled or expired.
type RecurringAddon struct {
	shared.TenantAggregateRoot
	ContractID         uuid.UUID
	ProductID          uuid.UUID
	ProductName        string
	ProductSKU         string
	Quantity           int
	UnitPrice          decimal.Decimal
	TaxRate            decimal.Decimal // percent
	BillingPeriod      BillingPeriod
	StartDate          time.Time
	EndDate            *time.Time
	NextBillingDate    time.Time
	Status             AddonStatus
	PausedAt           *time.Time
	CancelledAt        *time.Time
	CancellationReason string
	Notes              string
}

// AttachOptions overrides product defaults when attaching an add-on
type AttachOptions struct {
	Quantity      *int
	UnitPrice     *decimal.Decimal
	TaxRate       *decimal.Decimal
	BillingPeriod BillingPeriod
	StartDate     *time.Time
	EndDate       *time.Time
	Notes         string
}

// NewRecurringAddon attaches product to contract as an active add-on.
// Duplicate detection needs persisted state and is left to the caller.
func NewRecurringAddon(contract *Contract, product *Product, opts AttachOptions, now time.Time) (*RecurringAddon, error) {
	if contract == nil {
		return nil, shared.NewNotFoundError("Contract")
	}
	if product == nil {
		return nil, shared.NewNotFoundError("Product")
	}
	if product.TenantID != contract.TenantID {
		return nil, shared.NewNotFoundError("Product")
	}
	if !product.IsRecurring {
		return nil, shared.NewValidationError("NOT_RECURRING", fmt.Sprintf("Product %s is not a recurring product", product.Name))
	}

	quantity := 1
	if opts.Quantity != nil {
		quantity = *opts.Quantity
	}
	if quantity < 1 {
		return nil, shared.NewValidationError("INVALID_QUANTITY", "Quantity must be at least 1")
	}

	unitPrice := product.Price
	if opts.UnitPrice != nil {
		unitPrice = *opts.UnitPrice
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewValidationError("INVALID_PRICE", "Unit price cannot be negative")
	}

	taxRate := DefaultTaxRate
	if product.TaxRate != nil {
		taxRate = *product.TaxRate
	}
	if opts.TaxRate != nil {
		taxRate = *opts.TaxRate
	}
	if taxRate.IsNegative() {
		return nil, shared.NewValidationError("INVALID_TAX_RATE", "Tax rate cannot be negative")
	}

	period := BillingPeriodMonthly
	if product.BillingPeriod != "" {
		period = product.BillingPeriod
	}
	if opts.BillingPeriod != "" {
		period = opts.BillingPeriod
	}
	if !period.IsValid() {
		return nil, shared.NewValidationError("INVALID_BILLING_PERIOD", fmt.Sprintf("Unknown billing period %q", period))
	}

	start := shared.DateOf(now)
	if opts.StartDate != nil {
		start = shared.DateOf(*opts.StartDate)
	}
	var end *time.Time
	if opts.EndDate != nil {
		d := shared.DateOf(*opts.EndDate)
		if d.Before(start) {
			return nil, shared.NewValidationError("INVALID_END_DATE", "End date cannot be before start date")
		}
		end = &d
	}

	a := &RecurringAddon{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(contract.TenantID, now),
		ContractID:          contract.ID,
		ProductID:           product.ID,
		ProductName:         product.Name,
		ProductSKU:          product.SKU,
		Quantity:            quantity,
		UnitPrice:           unitPrice,
		TaxRate:             taxRate,
		BillingPeriod:       period,
		StartDate:           start,
		EndDate:             end,
		NextBillingDate:     start,
		Status:              AddonStatusActive,
		Notes:               opts.Notes,
	}
	a.Record(NewAddonAttachedEvent(a, now))
	return a, nil
}

func (a *RecurringAddon) transitionError(action string) error {
	return shared.NewStateError(fmt.Sprintf("Cannot %s add-on in %s status", action, a.Status))
}

// Pause excludes the add-on from billing until resumed
func (a *RecurringAddon) Pause(now time.Time) error {
	if !a.Status.CanTransitionTo(AddonStatusPaused) {
		return a.transitionError("pause")
	}
	a.Status = AddonStatusPaused
	a.PausedAt = &now
	a.Touch(now)
	a.IncrementVersion()
	a.Record(NewAddonPausedEvent(a, now))
	return nil
}

// Resume re-includes a paused add-on in billing. The next billing date is
// kept as is, so an overdue add-on is billed by the next sweep.
func (a *RecurringAddon) Resume(now time.Time) error {
	if a.Status != AddonStatusPaused {
		return a.transitionError("resume")
	}
	a.Status = AddonStatusActive
	a.PausedAt = nil
	a.Touch(now)
	a.IncrementVersion()
	a.Record(NewAddonResumedEvent(a, now))
	return nil
}

// Cancel terminates the add-on and ends it on the day of cancellation
func (a *RecurringAddon) Cancel(reason string, now time.Time) error {
	if !a.Status.CanTransitionTo(AddonStatusCancelled) {
		return a.transitionError("cancel")
	}
	today := shared.DateOf(now)
	a.Status = AddonStatusCancelled
	a.CancelledAt = &now
	a.CancellationReason = reason
	a.EndDate = &today
	a.Touch(now)
	a.IncrementVersion()
	a.Record(NewAddonCancelledEvent(a, now))
	return nil
}

// IsExpiredAt reports whether an active add-on's end date lies before asOf
func (a *RecurringAddon) IsExpiredAt(asOf time.Time) bool {
	return a.Status == AddonStatusActive && a.EndDate != nil && a.EndDate.Before(shared.DateOf(asOf))
}

// Expire moves an active add-on past its end date into expired
func (a *RecurringAddon) Expire(asOf, now time.Time) error {
	if !a.Status.CanTransitionTo(AddonStatusExpired) {
		return a.transitionError("expire")
	}
	if !a.IsExpiredAt(asOf) {
		return shared.NewValidationError("NOT_EXPIRED", "Add-on has not reached its end date")
	}
	a.Status = AddonStatusExpired
	a.Touch(now)
	a.IncrementVersion()
	a.Record(NewAddonExpiredEvent(a, now))
	return nil
}

// IsDueAt reports whether the add-on has a billing cycle due on or before asOf
func (a *RecurringAddon) IsDueAt(asOf time.Time) bool {
	return a.Status == AddonStatusActive && !a.NextBillingDate.After(shared.DateOf(asOf))
}

// Subtotal is quantity × unit price for one cycle, excl. tax
func (a *RecurringAddon) Subtotal() decimal.Decimal {
	return a.UnitPrice.Mul(decimal.NewFromInt(int64(a.Quantity)))
}

// MonthlyAmount is the recurring revenue figure: quantity × unit price,
// independent of billing period and excl. tax
func (a *RecurringAddon) MonthlyAmount() decimal.Decimal {
	return a.Subtotal()
}

// TaxAmount is the tax on one cycle
func (a *RecurringAddon) TaxAmount() decimal.Decimal {
	return a.Subtotal().Mul(a.TaxRate).Div(hundred)
}

// TotalWithTax is one cycle including tax
func (a *RecurringAddon) TotalWithTax() decimal.Decimal {
	return a.Subtotal().Add(a.TaxAmount())
}

// Bill emits the line item for the current cycle and advances the next
// billing date by one period. The caller persists both in one unit of work.
func (a *RecurringAddon) Bill(asOf, now time.Time) (LineItem, error) {
	if a.Status != AddonStatusActive {
		return LineItem{}, a.transitionError("bill")
	}
	if !a.IsDueAt(asOf) {
		return LineItem{}, shared.NewValidationError("NOT_DUE", fmt.Sprintf("Add-on is not due until %s", a.NextBillingDate.Format(time.DateOnly)))
	}

	cycleStart := a.NextBillingDate
	cycleEnd := a.BillingPeriod.Next(a.StartDate, cycleStart)
	subtotal := a.Subtotal()
	tax := a.TaxAmount()

	item := LineItem{
		Type:        LineItemTypeAddon,
		AddonID:     a.ID,
		ContractID:  a.ContractID,
		ProductID:   a.ProductID,
		Description: describe(a.ProductName, a.Quantity),
		Quantity:    a.Quantity,
		UnitPrice:   a.UnitPrice,
		TaxRate:     a.TaxRate,
		TaxAmount:   tax,
		Discount:    decimal.Zero,
		Subtotal:    subtotal,
		Total:       subtotal.Add(tax),
		PeriodStart: cycleStart,
		PeriodEnd:   cycleEnd,
	}

	a.NextBillingDate = cycleEnd
	a.Touch(now)
	a.IncrementVersion()
	a.Record(NewAddonBilledEvent(a, item, now))
	return item, nil
}
