package persistence

import (
	"testing"
	"time"

	"github.com/boxibox/backend/internal/domain/addon"
	"github.com/boxibox/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	// Every connection to :memory: opens a fresh database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.AutoMigrate(
		&models.RentalUnitModel{},
		&models.PromotionCodeModel{},
		&models.BookingSettingsModel{},
		&models.ProductModel{},
		&models.ContractModel{},
		&models.RecurringAddonModel{},
		&models.AddonBillingRecordModel{},
	)
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE UNIQUE INDEX idx_promotion_codes_tenant_code ON promotion_codes (tenant_id, code)`).Error)
	require.NoError(t, db.Exec(`CREATE UNIQUE INDEX idx_recurring_addons_active_product
		ON recurring_addons (contract_id, product_id) WHERE status = 'active'`).Error)

	return db
}

type addonSeed struct {
	db       *gorm.DB
	tenantID uuid.UUID
	contract *addon.Contract
	product  *addon.Product
}

func seedAddonCatalog(t *testing.T, db *gorm.DB) *addonSeed {
	t.Helper()
	now := time.Now()
	s := &addonSeed{db: db, tenantID: uuid.New()}

	contract := newContract(s.tenantID)
	require.NoError(t, db.Create(&models.ContractModel{
		ID:             contract.ID,
		TenantID:       contract.TenantID,
		CustomerID:     contract.CustomerID,
		ContractNumber: contract.ContractNumber,
		CreatedAt:      now,
		UpdatedAt:      now,
	}).Error)
	s.contract = contract

	product := newRecurringProduct(s.tenantID)
	require.NoError(t, db.Create(&models.ProductModel{
		ID:            product.ID,
		TenantID:      product.TenantID,
		Name:          product.Name,
		SKU:           product.SKU,
		Price:         product.Price,
		BillingPeriod: string(product.BillingPeriod),
		IsRecurring:   product.IsRecurring,
		CreatedAt:     now,
		UpdatedAt:     now,
	}).Error)
	s.product = product
	return s
}

func newContract(tenantID uuid.UUID) *addon.Contract {
	return &addon.Contract{
		ID:             uuid.New(),
		TenantID:       tenantID,
		CustomerID:     uuid.New(),
		ContractNumber: "CT-0001",
	}
}

func newRecurringProduct(tenantID uuid.UUID) *addon.Product {
	return &addon.Product{
		ID:            uuid.New(),
		TenantID:      tenantID,
		Name:          "Padlock",
		SKU:           "LOCK-01",
		Price:         decimal.NewFromInt(5),
		BillingPeriod: addon.BillingPeriodMonthly,
		IsRecurring:   true,
	}
}

// newAddon attaches a copy of the seeded product under a fresh product ID
func (s *addonSeed) newAddon(t *testing.T, start time.Time) *addon.RecurringAddon {
	t.Helper()
	product := *s.product
	product.ID = uuid.New()
	a, err := addon.NewRecurringAddon(s.contract, &product, addon.AttachOptions{StartDate: &start}, start)
	require.NoError(t, err)
	a.ClearEvents()
	return a
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
