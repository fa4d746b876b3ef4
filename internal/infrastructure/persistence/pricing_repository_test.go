package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/boxibox/backend/internal/domain/pricing"
	"github.com/boxibox/backend/internal/domain/shared"
	"github.com/boxibox/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormRentalUnitRepository_FindByIDForTenant(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormRentalUnitRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	siteID := uuid.New()
	unit := models.RentalUnitModel{
		ID:           uuid.New(),
		TenantID:     tenantID,
		SiteID:       &siteID,
		Code:         "A-101",
		Name:         "Box 5m2",
		CurrentPrice: decimal.RequireFromString("89.90"),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	require.NoError(t, db.Create(&unit).Error)

	t.Run("finds unit of tenant", func(t *testing.T) {
		found, err := repo.FindByIDForTenant(ctx, tenantID, unit.ID)
		require.NoError(t, err)
		assert.Equal(t, "A-101", found.Code)
		assert.True(t, found.CurrentPrice.Equal(decimal.RequireFromString("89.90")))
		require.NotNil(t, found.SiteID)
		assert.Equal(t, siteID, *found.SiteID)
	})

	t.Run("other tenant gets not found", func(t *testing.T) {
		_, err := repo.FindByIDForTenant(ctx, uuid.New(), unit.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormPromotionRepository(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	newPromo := func(t *testing.T, code string, maxUses *int) *pricing.PromotionCode {
		t.Helper()
		p, err := pricing.NewPromotionCode(tenantID, code, "Spring offer", pricing.PercentageDiscount{Percent: decimal.NewFromInt(10)}, time.Now())
		require.NoError(t, err)
		p.MaxUses = maxUses
		from := date(2024, 3, 1)
		p.ValidFrom = &from
		return p
	}

	t.Run("saves and finds by normalized code", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewGormPromotionRepository(db)
		promo := newPromo(t, "spring10", nil)
		require.NoError(t, repo.Save(ctx, promo))

		found, err := repo.FindByCode(ctx, tenantID, " Spring10 ")
		require.NoError(t, err)
		assert.Equal(t, promo.ID, found.ID)
		assert.Equal(t, pricing.DiscountTypePercentage, found.Discount.Type())
		assert.True(t, found.Discount.Value().Equal(decimal.NewFromInt(10)))
		require.NotNil(t, found.ValidFrom)
		assert.Equal(t, "2024-03-01", found.ValidFrom.Format(time.DateOnly))

		byID, err := repo.FindByIDForTenant(ctx, tenantID, promo.ID)
		require.NoError(t, err)
		assert.Equal(t, found.Code, byID.Code)
	})

	t.Run("unknown code is not found", func(t *testing.T) {
		repo := NewGormPromotionRepository(setupTestDB(t))
		_, err := repo.FindByCode(ctx, tenantID, "NOPE")
		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("duplicate code conflicts", func(t *testing.T) {
		repo := NewGormPromotionRepository(setupTestDB(t))
		require.NoError(t, repo.Save(ctx, newPromo(t, "DUP", nil)))
		err := repo.Save(ctx, newPromo(t, "dup", nil))
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("increment stops at max uses", func(t *testing.T) {
		repo := NewGormPromotionRepository(setupTestDB(t))
		limit := 2
		promo := newPromo(t, "TWICE", &limit)
		require.NoError(t, repo.Save(ctx, promo))

		require.NoError(t, repo.IncrementUses(ctx, tenantID, promo.ID))
		require.NoError(t, repo.IncrementUses(ctx, tenantID, promo.ID))
		err := repo.IncrementUses(ctx, tenantID, promo.ID)
		require.Error(t, err)
		assert.True(t, shared.IsValidationError(err))

		found, err := repo.FindByIDForTenant(ctx, tenantID, promo.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, found.UsesCount)
		assert.Equal(t, promo.Version+2, found.Version)
	})

	t.Run("inactive promotion cannot be consumed", func(t *testing.T) {
		repo := NewGormPromotionRepository(setupTestDB(t))
		promo := newPromo(t, "OFF", nil)
		promo.IsActive = false
		require.NoError(t, repo.Save(ctx, promo))

		err := repo.IncrementUses(ctx, tenantID, promo.ID)
		assert.True(t, shared.IsValidationError(err))
	})
}

func TestGormBookingSettingsRepository_FindForSite(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBookingSettingsRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	siteID := uuid.New()
	now := time.Now()
	tenantWide := models.BookingSettingsModel{
		ID: uuid.New(), TenantID: tenantID, RequireDeposit: true,
		DepositAmount: decimal.NewFromInt(50), CreatedAt: now, UpdatedAt: now,
	}
	siteSpecific := models.BookingSettingsModel{
		ID: uuid.New(), TenantID: tenantID, SiteID: &siteID, RequireDeposit: true,
		DepositPercentage: decimal.NewFromInt(100), CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, db.Create(&tenantWide).Error)
	require.NoError(t, db.Create(&siteSpecific).Error)

	t.Run("prefers site settings", func(t *testing.T) {
		s, err := repo.FindForSite(ctx, tenantID, &siteID)
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, siteSpecific.ID, s.ID)
	})

	t.Run("falls back to tenant-wide settings", func(t *testing.T) {
		other := uuid.New()
		s, err := repo.FindForSite(ctx, tenantID, &other)
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, tenantWide.ID, s.ID)

		s, err = repo.FindForSite(ctx, tenantID, nil)
		require.NoError(t, err)
		assert.Equal(t, tenantWide.ID, s.ID)
	})

	t.Run("nil when tenant has none", func(t *testing.T) {
		s, err := repo.FindForSite(ctx, uuid.New(), &siteID)
		require.NoError(t, err)
		assert.Nil(t, s)
	})
}
