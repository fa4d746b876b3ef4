package pricing

import (
	"testing"
	"time"

	"github.com/boxibox/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDiscountKind(t *testing.T) {
	t.Run("percentage", func(t *testing.T) {
		k, err := NewDiscountKind(DiscountTypePercentage, dec("10"))
		require.NoError(t, err)
		assert.Equal(t, DiscountTypePercentage, k.Type())
		assert.Equal(t, "10%", k.Label())
		assertDecimal(t, "11", k.Apply(dec("110")))
	})

	t.Run("fixed is capped at price", func(t *testing.T) {
		k, err := NewDiscountKind(DiscountTypeFixed, dec("50"))
		require.NoError(t, err)
		assert.Equal(t, "50.00 EUR", k.Label())
		assertDecimal(t, "50", k.Apply(dec("80")))
		assertDecimal(t, "30", k.Apply(dec("30")))
	})

	t.Run("rejects bad input", func(t *testing.T) {
		_, err := NewDiscountKind(DiscountTypePercentage, dec("120"))
		assert.Error(t, err)
		_, err = NewDiscountKind(DiscountTypeFixed, dec("-1"))
		assert.Error(t, err)
		_, err = NewDiscountKind("bogus", dec("1"))
		assert.Error(t, err)
	})
}

func TestNewPromotionCode(t *testing.T) {
	p, err := NewPromotionCode(uuid.New(), "  summer10 ", "Summer", PercentageDiscount{Percent: dec("10")}, date(2024, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, "SUMMER10", p.Code)
	assert.True(t, p.IsActive)
	assert.Equal(t, 1, p.Version)

	_, err = NewPromotionCode(uuid.New(), " ", "Empty", PercentageDiscount{Percent: dec("10")}, date(2024, 1, 1))
	assert.True(t, shared.IsValidationError(err))

	_, err = NewPromotionCode(uuid.New(), "X", "No discount", nil, date(2024, 1, 1))
	assert.True(t, shared.IsValidationError(err))
}

func TestPromotionCode_IsValidAt(t *testing.T) {
	now := time.Date(2024, 6, 15, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		mutate func(p *PromotionCode)
		valid  bool
	}{
		{"no constraints", func(p *PromotionCode) {}, true},
		{"inactive", func(p *PromotionCode) { p.IsActive = false }, false},
		{"exhausted", func(p *PromotionCode) { p.MaxUses = ptr(5); p.UsesCount = 5 }, false},
		{"uses left", func(p *PromotionCode) { p.MaxUses = ptr(5); p.UsesCount = 4 }, true},
		{"not started", func(p *PromotionCode) { p.ValidFrom = ptr(date(2024, 6, 16)) }, false},
		{"starts today", func(p *PromotionCode) { p.ValidFrom = ptr(date(2024, 6, 15)) }, true},
		{"ends today", func(p *PromotionCode) { p.ValidUntil = ptr(date(2024, 6, 15)) }, true},
		{"expired", func(p *PromotionCode) { p.ValidUntil = ptr(date(2024, 6, 14)) }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPromotion(t, uuid.New(), "X", PercentageDiscount{Percent: dec("10")})
			tt.mutate(p)
			assert.Equal(t, tt.valid, p.IsValidAt(now))
		})
	}
}

func TestPromotionCode_CalculateDiscount(t *testing.T) {
	now := date(2024, 6, 15)

	t.Run("minimum amount not met", func(t *testing.T) {
		p := newTestPromotion(t, uuid.New(), "X", PercentageDiscount{Percent: dec("10")})
		p.MinRentalAmount = ptr(dec("200"))
		assert.True(t, p.CalculateDiscount(dec("110"), 1, now).IsZero())
		assertDecimal(t, "25", p.CalculateDiscount(dec("250"), 1, now))
	})

	t.Run("minimum months not met", func(t *testing.T) {
		p := newTestPromotion(t, uuid.New(), "X", FixedDiscount{Amount: dec("20")})
		p.MinRentalMonths = ptr(6)
		assert.True(t, p.CalculateDiscount(dec("110"), 1, now).IsZero())
		assertDecimal(t, "20", p.CalculateDiscount(dec("110"), 6, now))
	})

	t.Run("invalid code yields zero", func(t *testing.T) {
		p := newTestPromotion(t, uuid.New(), "X", FixedDiscount{Amount: dec("20")})
		p.IsActive = false
		assert.True(t, p.CalculateDiscount(dec("110"), 1, now).IsZero())
	})
}

func TestPromotionCode_AppliesToSite(t *testing.T) {
	site := uuid.New()
	p := newTestPromotion(t, uuid.New(), "X", FixedDiscount{Amount: dec("5")})
	assert.True(t, p.AppliesToSite(nil))
	assert.True(t, p.AppliesToSite(&site))

	p.SiteID = &site
	other := uuid.New()
	assert.True(t, p.AppliesToSite(&site))
	assert.False(t, p.AppliesToSite(&other))
	assert.False(t, p.AppliesToSite(nil))
}

func TestPromotionCode_Redeem(t *testing.T) {
	now := date(2024, 6, 15)
	p := newTestPromotion(t, uuid.New(), "ONCE", FixedDiscount{Amount: dec("5")})
	p.MaxUses = ptr(1)

	require.NoError(t, p.Redeem(now))
	assert.Equal(t, 1, p.UsesCount)
	assert.Equal(t, 2, p.Version)

	err := p.Redeem(now)
	assert.True(t, shared.IsValidationError(err))
	assert.Equal(t, 1, p.UsesCount)
}
