package pricing

import (
	"context"
	"time"

	"github.com/boxibox/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultInsuranceMonthly is the monthly insurance premium offered at booking
var DefaultInsuranceMonthly = decimal.RequireFromString("15.00")

// BookingSettings holds a tenant's (or one site's) deposit policy
type BookingSettings struct {
	ID                uuid.UUID
	TenantID          uuid.UUID
	SiteID            *uuid.UUID
	RequireDeposit    bool
	DepositPercentage decimal.Decimal
	DepositAmount     decimal.Decimal
}

// Deposit returns the deposit owed for a unit with the given reference price
func (s *BookingSettings) Deposit(basePrice decimal.Decimal) decimal.Decimal {
	if s == nil || !s.RequireDeposit {
		return decimal.Zero
	}
	if s.DepositPercentage.IsPositive() {
		return basePrice.Mul(s.DepositPercentage).Div(hundred).Round(2)
	}
	return s.DepositAmount
}

// BookingRequest describes a booking to be priced
type BookingRequest struct {
	Unit             *RentalUnit
	StartDate        time.Time
	DurationMonths   int // 0 when open-ended
	PromotionCode    string
	Settings         *BookingSettings
	IncludeInsurance bool
	InsuranceMonthly *decimal.Decimal
}

// BookingQuote is the amount due at booking plus the recurring charge
type BookingQuote struct {
	Price                   *PriceBreakdown     `json:"price"`
	MonthlyPriceHT          decimal.Decimal     `json:"monthly_price_ht"`
	MonthlyPriceTTC         decimal.Decimal     `json:"monthly_price_ttc"`
	DurationMonths          int                 `json:"duration_months"`
	DurationDiscountPercent decimal.Decimal     `json:"duration_discount_percent"`
	DurationDiscount        decimal.Decimal     `json:"duration_discount"`
	FirstMonth              FirstMonthProration `json:"first_month"`
	DepositRequired         bool                `json:"deposit_required"`
	DepositAmount           decimal.Decimal     `json:"deposit_amount"`
	InsuranceIncluded       bool                `json:"insurance_included"`
	InsuranceAmount         decimal.Decimal     `json:"insurance_amount"`
	VATRate                 decimal.Decimal     `json:"vat_rate"`
	TaxableAmount           decimal.Decimal     `json:"taxable_amount"`
	VATAmount               decimal.Decimal     `json:"vat_amount"`
	SubtotalHT              decimal.Decimal     `json:"subtotal_ht"`
	TotalTTC                decimal.Decimal     `json:"total_ttc"`
	MonthlyRecurringHT      decimal.Decimal     `json:"monthly_recurring_ht"`
	MonthlyRecurringTTC     decimal.Decimal     `json:"monthly_recurring_ttc"`
}

// BookingTotal prices the first payment of a booking: prorated first month,
// deposit and optional insurance. The deposit is not subject to VAT.
func (c *PriceCalculator) BookingTotal(ctx context.Context, req BookingRequest) (*BookingQuote, error) {
	if req.Unit == nil {
		return nil, shared.NewNotFoundError("Rental unit")
	}
	if req.DurationMonths < 0 {
		return nil, shared.NewValidationError("INVALID_RENTAL_MONTHS", "Duration cannot be negative")
	}
	start := shared.DateOf(req.StartDate)
	price, err := c.Price(ctx, req.Unit, req.PromotionCode, &start)
	if err != nil {
		return nil, err
	}

	monthly := price.FinalPrice
	durationPercent, durationAmount := decimal.Zero, decimal.Zero
	if req.DurationMonths >= 3 {
		d := c.DurationDiscount(monthly, req.DurationMonths)
		durationPercent, durationAmount = d.Percent, d.Amount
		monthly = d.FinalPrice
	}

	firstMonth := c.proration.FirstMonth(monthly, start)
	deposit := req.Settings.Deposit(price.BasePrice)

	insurance := decimal.Zero
	if req.IncludeInsurance {
		insurance = DefaultInsuranceMonthly
		if req.InsuranceMonthly != nil {
			insurance = *req.InsuranceMonthly
		}
	}

	one := decimal.NewFromInt(1)
	subtotal := firstMonth.Amount.Add(deposit).Add(insurance).Round(2)
	taxable := firstMonth.Amount.Add(insurance)
	vat := taxable.Mul(c.vatRate).Round(2)
	recurring := monthly.Add(insurance)

	return &BookingQuote{
		Price:                   price,
		MonthlyPriceHT:          monthly,
		MonthlyPriceTTC:         monthly.Mul(one.Add(c.vatRate)).Round(2),
		DurationMonths:          req.DurationMonths,
		DurationDiscountPercent: durationPercent,
		DurationDiscount:        durationAmount,
		FirstMonth:              firstMonth,
		DepositRequired:         req.Settings != nil && req.Settings.RequireDeposit,
		DepositAmount:           deposit,
		InsuranceIncluded:       req.IncludeInsurance,
		InsuranceAmount:         insurance,
		VATRate:                 c.vatRate,
		TaxableAmount:           taxable,
		VATAmount:               vat,
		SubtotalHT:              subtotal,
		TotalTTC:                subtotal.Add(vat).Round(2),
		MonthlyRecurringHT:      recurring,
		MonthlyRecurringTTC:     recurring.Mul(one.Add(c.vatRate)).Round(2),
	}, nil
}
