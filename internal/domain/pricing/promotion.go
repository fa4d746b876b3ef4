package pricing

import (
	"strings"
	"time"

	"github.com/boxibox/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PromotionCode is a tenant-scoped code granting a discount on the monthly price
type PromotionCode struct {
	shared.TenantAggregateRoot
	SiteID          *uuid.UUID
	Code            string
	Name            string
	Discount        DiscountKind
	IsActive        bool
	MaxUses         *int
	UsesCount       int
	ValidFrom       *time.Time
	ValidUntil      *time.Time
	MinRentalAmount *decimal.Decimal
	MinRentalMonths *int
}

// NormalizeCode returns the canonical stored form of a promotion code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NewPromotionCode creates an active promotion code
func NewPromotionCode(tenantID uuid.UUID, code, name string, discount DiscountKind, at time.Time) (*PromotionCode, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, shared.NewValidationError("INVALID_CODE", "Promotion code cannot be empty")
	}
	if discount == nil {
		return nil, shared.NewValidationError("INVALID_DISCOUNT", "Promotion discount is required")
	}
	return &PromotionCode{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID, at),
		Code:                code,
		Name:                name,
		Discount:            discount,
		IsActive:            true,
	}, nil
}

// IsExhausted reports whether the usage cap has been reached
func (p *PromotionCode) IsExhausted() bool {
	return p.MaxUses != nil && p.UsesCount >= *p.MaxUses
}

// IsValidAt reports whether the code can be applied on the date of now.
// Validity bounds are inclusive calendar dates.
func (p *PromotionCode) IsValidAt(now time.Time) bool {
	if !p.IsActive || p.IsExhausted() {
		return false
	}
	today := shared.DateOf(now)
	if p.ValidFrom != nil && today.Before(shared.DateOf(p.ValidFrom.In(now.Location()))) {
		return false
	}
	if p.ValidUntil != nil && today.After(shared.DateOf(p.ValidUntil.In(now.Location()))) {
		return false
	}
	return true
}

// AppliesToSite reports whether the code is usable at the given site.
// Codes without a site apply everywhere.
func (p *PromotionCode) AppliesToSite(siteID *uuid.UUID) bool {
	if p.SiteID == nil {
		return true
	}
	return siteID != nil && *siteID == *p.SiteID
}

// CalculateDiscount returns the discount on monthlyPrice for a rental of the
// given length, or zero when the code or its minimums do not apply.
func (p *PromotionCode) CalculateDiscount(monthlyPrice decimal.Decimal, rentalMonths int, now time.Time) decimal.Decimal {
	if !p.IsValidAt(now) {
		return decimal.Zero
	}
	if p.MinRentalAmount != nil && monthlyPrice.LessThan(*p.MinRentalAmount) {
		return decimal.Zero
	}
	if p.MinRentalMonths != nil && rentalMonths < *p.MinRentalMonths {
		return decimal.Zero
	}
	return p.Discount.Apply(monthlyPrice)
}

// Redeem consumes one use of the code
func (p *PromotionCode) Redeem(now time.Time) error {
	if !p.IsValidAt(now) {
		return shared.NewValidationError("PROMOTION_NOT_APPLICABLE", "Promotion code "+p.Code+" cannot be redeemed")
	}
	p.UsesCount++
	p.Touch(now)
	p.IncrementVersion()
	return nil
}

// AppliedPromotion is the promotion snapshot reported in a breakdown
type AppliedPromotion struct {
	Code  string          `json:"code"`
	Name  string          `json:"name"`
	Type  DiscountType    `json:"type"`
	Value decimal.Decimal `json:"value"`
	Label string          `json:"label"`
}

// Snapshot returns the presentation view of the promotion
func (p *PromotionCode) Snapshot() *AppliedPromotion {
	return &AppliedPromotion{
		Code:  p.Code,
		Name:  p.Name,
		Type:  p.Discount.Type(),
		Value: p.Discount.Value(),
		Label: p.Discount.Label(),
	}
}
