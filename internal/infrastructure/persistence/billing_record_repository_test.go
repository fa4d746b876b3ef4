package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/boxibox/backend/internal/domain/addon"
	"github.com/boxibox/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormBillingRecordRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBillingRecordRepository(db)
	seed := seedAddonCatalog(t, db)
	ctx := context.Background()

	a := seed.newAddon(t, date(2024, 1, 15))
	jan, err := a.Bill(date(2024, 1, 15), time.Now())
	require.NoError(t, err)
	feb, err := a.Bill(date(2024, 2, 15), time.Now())
	require.NoError(t, err)

	require.NoError(t, repo.Create(ctx, addon.NewBillingRecord(seed.tenantID, feb, time.Now())))
	require.NoError(t, repo.Create(ctx, addon.NewBillingRecord(seed.tenantID, jan, time.Now())))

	t.Run("second record for a cycle conflicts", func(t *testing.T) {
		err := repo.Create(ctx, addon.NewBillingRecord(seed.tenantID, jan, time.Now()))
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("exists for emitted cycle only", func(t *testing.T) {
		ok, err := repo.ExistsForCycle(ctx, a.ID, date(2024, 1, 15))
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.ExistsForCycle(ctx, a.ID, date(2024, 3, 15))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("lists contract records oldest first", func(t *testing.T) {
		records, err := repo.FindByContract(ctx, seed.tenantID, seed.contract.ID)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "2024-01-15", records[0].CycleStart.Format(time.DateOnly))
		assert.Equal(t, "2024-02-15", records[0].CycleEnd.Format(time.DateOnly))
		assert.Equal(t, "2024-02-15", records[1].CycleStart.Format(time.DateOnly))
		assert.Equal(t, addon.LineItemTypeAddon, records[0].Item.Type)
		assert.True(t, records[0].Item.Total.Equal(jan.Total))
		assert.Equal(t, jan.Description, records[0].Item.Description)
	})
}
