package pricing

import (
	"time"

	"github.com/boxibox/backend/internal/domain/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuoteRequest asks for the monthly price of a unit
type QuoteRequest struct {
	PromotionCode string     `json:"promotion_code" binding:"max=50"`
	AsOf          *time.Time `json:"as_of"`
}

// TotalCostRequest asks for the cost of a fixed-length rental
type TotalCostRequest struct {
	RentalMonths  int        `json:"months" binding:"required,min=1,max=120"`
	PromotionCode string     `json:"promotion_code" binding:"max=50"`
	AsOf          *time.Time `json:"as_of"`
}

// BookingTotalRequest asks for the first payment of a booking
type BookingTotalRequest struct {
	StartDate        time.Time        `json:"start_date" binding:"required"`
	DurationMonths   int              `json:"duration_months" binding:"min=0,max=120"`
	PromotionCode    string           `json:"promotion_code" binding:"max=50"`
	IncludeInsurance bool             `json:"include_insurance"`
	InsuranceMonthly *decimal.Decimal `json:"insurance_monthly"`
}

// ProrateRequest asks for the charge of a partial period
type ProrateRequest struct {
	MonthlyPrice decimal.Decimal `json:"monthly_price" binding:"required"`
	StartDate    time.Time       `json:"start_date" binding:"required"`
	EndDate      time.Time       `json:"end_date" binding:"required"`
}

// ProrateResponse is the prorated charge
type ProrateResponse struct {
	MonthlyPrice decimal.Decimal `json:"monthly_price"`
	StartDate    time.Time       `json:"start_date"`
	EndDate      time.Time       `json:"end_date"`
	Days         int             `json:"days"`
	Amount       decimal.Decimal `json:"amount"`
}

// QuoteResponse wraps a price breakdown with the unit it applies to
type QuoteResponse struct {
	UnitID   uuid.UUID               `json:"unit_id"`
	UnitCode string                  `json:"unit_code"`
	Price    *pricing.PriceBreakdown `json:"price"`
}

// TotalCostResponse wraps a total cost breakdown with the unit it applies to
type TotalCostResponse struct {
	UnitID   uuid.UUID                   `json:"unit_id"`
	UnitCode string                      `json:"unit_code"`
	Cost     *pricing.TotalCostBreakdown `json:"cost"`
}

// BookingTotalResponse wraps a booking quote with the unit it applies to
type BookingTotalResponse struct {
	UnitID   uuid.UUID             `json:"unit_id"`
	UnitCode string                `json:"unit_code"`
	Quote    *pricing.BookingQuote `json:"quote"`
}

// PromotionResponse represents a promotion code in API responses
type PromotionResponse struct {
	ID         uuid.UUID            `json:"id"`
	Code       string               `json:"code"`
	Name       string               `json:"name"`
	Type       pricing.DiscountType `json:"type"`
	Value      decimal.Decimal      `json:"value"`
	Label      string               `json:"label"`
	IsActive   bool                 `json:"is_active"`
	MaxUses    *int                 `json:"max_uses,omitempty"`
	UsesCount  int                  `json:"uses_count"`
	ValidFrom  *time.Time           `json:"valid_from,omitempty"`
	ValidUntil *time.Time           `json:"valid_until,omitempty"`
}

// ToPromotionResponse converts a domain promotion to a response
func ToPromotionResponse(p *pricing.PromotionCode) PromotionResponse {
	return PromotionResponse{
		ID:         p.ID,
		Code:       p.Code,
		Name:       p.Name,
		Type:       p.Discount.Type(),
		Value:      p.Discount.Value(),
		Label:      p.Discount.Label(),
		IsActive:   p.IsActive,
		MaxUses:    p.MaxUses,
		UsesCount:  p.UsesCount,
		ValidFrom:  p.ValidFrom,
		ValidUntil: p.ValidUntil,
	}
}
