package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DiscountKind is the closed set of discount shapes a promotion can carry.
// Implementations live in this package only.
type DiscountKind interface {
	// Apply returns the discount taken off price
	Apply(price decimal.Decimal) decimal.Decimal
	// Type returns the persisted discriminator
	Type() DiscountType
	// Value returns the configured percentage or amount
	Value() decimal.Decimal
	// Label renders the discount for display
	Label() string

	discountKind()
}

// DiscountType is the persisted discriminator of a DiscountKind
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// IsValid checks if the discount type is known
func (t DiscountType) IsValid() bool {
	return t == DiscountTypePercentage || t == DiscountTypeFixed
}

// PercentageDiscount takes value percent off the price
type PercentageDiscount struct {
	Percent decimal.Decimal
}

func (PercentageDiscount) discountKind() {}

// Apply returns price * percent / 100
func (d PercentageDiscount) Apply(price decimal.Decimal) decimal.Decimal {
	return price.Mul(d.Percent).Div(hundred)
}

func (d PercentageDiscount) Type() DiscountType     { return DiscountTypePercentage }
func (d PercentageDiscount) Value() decimal.Decimal { return d.Percent }
func (d PercentageDiscount) Label() string          { return d.Percent.String() + "%" }

// FixedDiscount takes a flat amount off, never more than the price itself
type FixedDiscount struct {
	Amount decimal.Decimal
}

func (FixedDiscount) discountKind() {}

// Apply returns min(amount, price)
func (d FixedDiscount) Apply(price decimal.Decimal) decimal.Decimal {
	return decimal.Min(d.Amount, price)
}

func (d FixedDiscount) Type() DiscountType     { return DiscountTypeFixed }
func (d FixedDiscount) Value() decimal.Decimal { return d.Amount }
func (d FixedDiscount) Label() string          { return d.Amount.StringFixed(2) + " EUR" }

// NewDiscountKind rebuilds a DiscountKind from its persisted form
func NewDiscountKind(t DiscountType, value decimal.Decimal) (DiscountKind, error) {
	if value.IsNegative() {
		return nil, fmt.Errorf("discount value cannot be negative: %s", value)
	}
	switch t {
	case DiscountTypePercentage:
		if value.GreaterThan(hundred) {
			return nil, fmt.Errorf("percentage discount cannot exceed 100: %s", value)
		}
		return PercentageDiscount{Percent: value}, nil
	case DiscountTypeFixed:
		return FixedDiscount{Amount: value}, nil
	}
	return nil, fmt.Errorf("unknown discount type %q", t)
}
