package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/boxibox/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DefaultVATRate is applied to booking totals unless overridden
var DefaultVATRate = decimal.RequireFromString("0.20")

// PriceBreakdown exposes every step of a monthly price calculation
type PriceBreakdown struct {
	BasePrice          decimal.Decimal   `json:"base_price"`
	SeasonalMultiplier decimal.Decimal   `json:"seasonal_multiplier"`
	SeasonalPrice      decimal.Decimal   `json:"seasonal_price"`
	SeasonalAdjustment decimal.Decimal   `json:"seasonal_adjustment"`
	SeasonLabel        string            `json:"season_label,omitempty"`
	Discount           decimal.Decimal   `json:"discount"`
	FinalPrice         decimal.Decimal   `json:"final_price"`
	Promotion          *AppliedPromotion `json:"promotion"`
	AsOf               time.Time         `json:"as_of"`
}

// DurationDiscount is the long-term commitment discount on a monthly price
type DurationDiscount struct {
	Months        int             `json:"months"`
	Percent       decimal.Decimal `json:"discount_percent"`
	Amount        decimal.Decimal `json:"discount_amount"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	FinalPrice    decimal.Decimal `json:"final_price"`
}

// TotalCostBreakdown is the cost of a rental over a number of months
type TotalCostBreakdown struct {
	BaseMonthlyPrice        decimal.Decimal   `json:"base_monthly_price"`
	SeasonalAdjustment      decimal.Decimal   `json:"seasonal_adjustment"`
	PromotionDiscount       decimal.Decimal   `json:"promotion_discount"`
	DurationDiscount        decimal.Decimal   `json:"duration_discount"`
	DurationDiscountPercent decimal.Decimal   `json:"duration_discount_percent"`
	FinalMonthlyPrice       decimal.Decimal   `json:"final_monthly_price"`
	RentalMonths            int               `json:"rental_months"`
	TotalRentalCost         decimal.Decimal   `json:"total_rental_cost"`
	DepositAmount           decimal.Decimal   `json:"deposit_amount"`
	FirstPayment            decimal.Decimal   `json:"first_payment"`
	SubsequentPayments      decimal.Decimal   `json:"subsequent_payments"`
	Promotion               *AppliedPromotion `json:"promotion"`
}

// durationTiers is ordered from the highest threshold down; the first match wins
var durationTiers = []struct {
	minMonths int
	percent   decimal.Decimal
}{
	{12, decimal.NewFromInt(15)},
	{6, decimal.NewFromInt(10)},
	{3, decimal.NewFromInt(5)},
}

// DurationDiscountPercent returns the tier percentage for a rental length
func DurationDiscountPercent(months int) decimal.Decimal {
	for _, tier := range durationTiers {
		if months >= tier.minMonths {
			return tier.percent
		}
	}
	return decimal.Zero
}

// PriceCalculator composes base price, seasonal rate, promotion and duration
// discount into monthly prices.
type PriceCalculator struct {
	schedule   RateSchedule
	promotions PromotionFinder
	clock      shared.Clock
	vatRate    decimal.Decimal
	proration  ProrationCalculator
}

// CalculatorOption configures a PriceCalculator
type CalculatorOption func(*PriceCalculator)

// WithRateSchedule replaces the seasonal rate schedule
func WithRateSchedule(s RateSchedule) CalculatorOption {
	return func(c *PriceCalculator) { c.schedule = s }
}

// WithoutSeasonalPricing fixes the multiplier at 1.00
func WithoutSeasonalPricing() CalculatorOption {
	return WithRateSchedule(FlatRateSchedule{})
}

// WithVATRate sets the VAT rate used for booking totals, as a fraction (0.20)
func WithVATRate(rate decimal.Decimal) CalculatorOption {
	return func(c *PriceCalculator) { c.vatRate = rate }
}

// NewPriceCalculator creates a calculator backed by the given promotion lookup
func NewPriceCalculator(promotions PromotionFinder, clock shared.Clock, opts ...CalculatorOption) *PriceCalculator {
	c := &PriceCalculator{
		schedule:   SeasonalRateSchedule{},
		promotions: promotions,
		clock:      clock,
		vatRate:    DefaultVATRate,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// VATRate returns the configured VAT rate
func (c *PriceCalculator) VATRate() decimal.Decimal {
	return c.vatRate
}

// Price computes the monthly price of a unit on asOf (today when nil).
// An unknown or no longer valid promotion code is ignored.
func (c *PriceCalculator) Price(ctx context.Context, unit *RentalUnit, promotionCode string, asOf *time.Time) (*PriceBreakdown, error) {
	if unit == nil {
		return nil, shared.NewNotFoundError("Rental unit")
	}
	date := shared.Today(c.clock)
	if asOf != nil {
		date = shared.DateOf(*asOf)
	}

	basePrice := unit.CurrentPrice
	multiplier := c.schedule.MultiplierFor(date)
	seasonalPrice := basePrice.Mul(multiplier).Round(2)

	discount := decimal.Zero
	var applied *AppliedPromotion
	if promotionCode != "" {
		promo, err := c.findApplicablePromotion(ctx, unit, promotionCode)
		if err != nil {
			return nil, err
		}
		if promo != nil {
			discount = promo.CalculateDiscount(seasonalPrice, 1, c.clock.Now()).Round(2)
			applied = promo.Snapshot()
		}
	}

	finalPrice := decimal.Max(decimal.Zero, seasonalPrice.Sub(discount).Round(2))

	return &PriceBreakdown{
		BasePrice:          basePrice,
		SeasonalMultiplier: multiplier,
		SeasonalPrice:      seasonalPrice,
		SeasonalAdjustment: seasonalPrice.Sub(basePrice).Round(2),
		SeasonLabel:        SeasonLabel(multiplier),
		Discount:           discount,
		FinalPrice:         finalPrice,
		Promotion:          applied,
		AsOf:               date,
	}, nil
}

func (c *PriceCalculator) findApplicablePromotion(ctx context.Context, unit *RentalUnit, code string) (*PromotionCode, error) {
	if c.promotions == nil {
		return nil, nil
	}
	promo, err := c.promotions.FindByCode(ctx, unit.TenantID, NormalizeCode(code))
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup promotion code: %w", err)
	}
	if promo == nil || !promo.AppliesToSite(unit.SiteID) || !promo.IsValidAt(c.clock.Now()) {
		return nil, nil
	}
	return promo, nil
}

// DurationDiscount applies the commitment tier for months to basePrice
func (c *PriceCalculator) DurationDiscount(basePrice decimal.Decimal, months int) DurationDiscount {
	percent := DurationDiscountPercent(months)
	amount := basePrice.Mul(percent).Div(hundred)
	return DurationDiscount{
		Months:        months,
		Percent:       percent,
		Amount:        amount,
		OriginalPrice: basePrice,
		FinalPrice:    basePrice.Sub(amount),
	}
}

// TotalCost prices a rental of the given length. The duration discount stacks
// on the promotional price; the deposit is the undiscounted reference price.
func (c *PriceCalculator) TotalCost(ctx context.Context, unit *RentalUnit, months int, promotionCode string, asOf *time.Time) (*TotalCostBreakdown, error) {
	if months < 1 {
		return nil, shared.NewValidationError("INVALID_RENTAL_MONTHS", "Rental months must be at least 1")
	}
	price, err := c.Price(ctx, unit, promotionCode, asOf)
	if err != nil {
		return nil, err
	}

	duration := c.DurationDiscount(price.FinalPrice, months)
	monthlyPrice := duration.FinalPrice
	deposit := unit.CurrentPrice
	firstPayment := deposit.Add(monthlyPrice)

	return &TotalCostBreakdown{
		BaseMonthlyPrice:        price.BasePrice,
		SeasonalAdjustment:      price.SeasonalAdjustment,
		PromotionDiscount:       price.Discount,
		DurationDiscount:        duration.Amount,
		DurationDiscountPercent: duration.Percent,
		FinalMonthlyPrice:       monthlyPrice,
		RentalMonths:            months,
		TotalRentalCost:         monthlyPrice.Mul(decimal.NewFromInt(int64(months))),
		DepositAmount:           deposit,
		FirstPayment:            firstPayment,
		SubsequentPayments:      monthlyPrice,
		Promotion:               price.Promotion,
	}, nil
}
