package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(expected).Equal(actual), "expected %s, got %s", expected, actual.String())
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T {
	return &v
}

type mockPromotionFinder struct {
	mock.Mock
}

func (m *mockPromotionFinder) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*PromotionCode, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PromotionCode), args.Error(1)
}

func newTestUnit(price string) *RentalUnit {
	return &RentalUnit{
		ID:           uuid.New(),
		TenantID:     uuid.New(),
		Code:         "A-101",
		Name:         "Box 3m²",
		CurrentPrice: dec(price),
	}
}

func newTestPromotion(t *testing.T, tenantID uuid.UUID, code string, discount DiscountKind) *PromotionCode {
	t.Helper()
	p, err := NewPromotionCode(tenantID, code, "Test promotion", discount, date(2024, 1, 1))
	if err != nil {
		t.Fatalf("create promotion: %v", err)
	}
	return p
}
