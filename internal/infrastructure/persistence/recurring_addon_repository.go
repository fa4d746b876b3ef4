package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boxibox/backend/internal/domain/addon"
	"github.com/boxibox/backend/internal/domain/shared"
	"github.com/boxibox/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRecurringAddonRepository implements addon.RecurringAddonRepository using GORM
type GormRecurringAddonRepository struct {
	db *gorm.DB
}

// NewGormRecurringAddonRepository creates a new GormRecurringAddonRepository
func NewGormRecurringAddonRepository(db *gorm.DB) *GormRecurringAddonRepository {
	return &GormRecurringAddonRepository{db: db}
}

// FindByIDForTenant finds an add-on by ID within a tenant
func (r *GormRecurringAddonRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*addon.RecurringAddon, error) {
	var model models.RecurringAddonModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByContract returns every add-on of a contract, oldest first
func (r *GormRecurringAddonRepository) FindByContract(ctx context.Context, tenantID, contractID uuid.UUID) ([]*addon.RecurringAddon, error) {
	return r.find(r.db.WithContext(ctx).
		Where("tenant_id = ? AND contract_id = ?", tenantID, contractID).
		Order("created_at ASC, id ASC"))
}

// ExistsActiveForProduct checks for an active add-on of the product on the contract
func (r *GormRecurringAddonRepository) ExistsActiveForProduct(ctx context.Context, tenantID, contractID, productID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.RecurringAddonModel{}).
		Where("tenant_id = ? AND contract_id = ? AND product_id = ? AND status = ?",
			tenantID, contractID, productID, addon.AddonStatusActive).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindDueForBilling returns active add-ons with next_billing_date on or before asOf
func (r *GormRecurringAddonRepository) FindDueForBilling(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]*addon.RecurringAddon, error) {
	return r.find(r.dueQuery(ctx, tenantID, asOf).Order("next_billing_date ASC, id ASC"))
}

// LockDueForContract selects the due add-ons of one contract with
// FOR UPDATE SKIP LOCKED; it must run inside a transaction
func (r *GormRecurringAddonRepository) LockDueForContract(ctx context.Context, tenantID, contractID uuid.UUID, asOf time.Time) ([]*addon.RecurringAddon, error) {
	return r.find(r.dueQuery(ctx, tenantID, asOf).
		Where("contract_id = ?", contractID).
		Order("next_billing_date ASC, id ASC").
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}))
}

// FindContractsWithDue returns the distinct contracts having due add-ons
func (r *GormRecurringAddonRepository) FindContractsWithDue(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.dueQuery(ctx, tenantID, asOf).
		Distinct("contract_id").
		Order("contract_id").
		Pluck("contract_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// FindExpired returns active add-ons whose end date lies before asOf
func (r *GormRecurringAddonRepository) FindExpired(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]*addon.RecurringAddon, error) {
	return r.find(r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, addon.AddonStatusActive).
		Where("end_date IS NOT NULL AND end_date < ?", models.CivilDate(asOf)).
		Order("end_date ASC, id ASC"))
}

// FindActiveByTenant returns every active add-on of a tenant
func (r *GormRecurringAddonRepository) FindActiveByTenant(ctx context.Context, tenantID uuid.UUID) ([]*addon.RecurringAddon, error) {
	return r.find(r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, addon.AddonStatusActive).
		Order("contract_id ASC, created_at ASC"))
}

// Create inserts a new add-on. A concurrent attach of the same active product
// trips the partial unique index and yields shared.ErrAlreadyExists.
func (r *GormRecurringAddonRepository) Create(ctx context.Context, a *addon.RecurringAddon) error {
	var model models.RecurringAddonModel
	model.FromDomain(a)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Update persists a mutated add-on, checking that the stored row is still at
// the version the aggregate was loaded with. Reactivating a product that is
// already active on the contract yields shared.ErrAlreadyExists.
func (r *GormRecurringAddonRepository) Update(ctx context.Context, a *addon.RecurringAddon) error {
	var model models.RecurringAddonModel
	model.FromDomain(a)

	result := r.db.WithContext(ctx).
		Model(&models.RecurringAddonModel{}).
		Where("tenant_id = ? AND id = ? AND version = ?", a.TenantID, a.ID, a.Version-1).
		Updates(map[string]any{
			"quantity":            model.Quantity,
			"unit_price":          model.UnitPrice,
			"tax_rate":            model.TaxRate,
			"billing_period":      model.BillingPeriod,
			"end_date":            model.EndDate,
			"next_billing_date":   model.NextBillingDate,
			"status":              model.Status,
			"paused_at":           model.PausedAt,
			"cancelled_at":        model.CancelledAt,
			"cancellation_reason": model.CancellationReason,
			"notes":               model.Notes,
			"version":             model.Version,
			"updated_at":          model.UpdatedAt,
		})
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return shared.ErrAlreadyExists
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("add-on %s: %w", a.ID, shared.ErrConcurrencyConflict)
	}
	return nil
}

// CountByStatus counts a tenant's add-ons per status
func (r *GormRecurringAddonRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[addon.AddonStatus]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.RecurringAddonModel{}).
		Select("status, COUNT(*) AS count").
		Where("tenant_id = ?", tenantID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[addon.AddonStatus]int64, len(addon.AllAddonStatuses))
	for _, s := range addon.AllAddonStatuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[addon.AddonStatus(row.Status)] = row.Count
	}
	return counts, nil
}

// PopularProducts ranks products by number of active add-ons
func (r *GormRecurringAddonRepository) PopularProducts(ctx context.Context, tenantID uuid.UUID, limit int) ([]addon.PopularAddon, error) {
	var rows []popularProductRow
	if err := r.db.WithContext(ctx).
		Model(&models.RecurringAddonModel{}).
		Select("product_id, MAX(product_name) AS product_name, COUNT(*) AS usage_count, SUM(unit_price * quantity) AS total_revenue").
		Where("tenant_id = ? AND status = ?", tenantID, addon.AddonStatusActive).
		Group("product_id").
		Order("usage_count DESC, product_name ASC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	return lo.Map(rows, func(row popularProductRow, _ int) addon.PopularAddon {
		return addon.PopularAddon{
			ProductID:    row.ProductID,
			ProductName:  row.ProductName,
			UsageCount:   row.UsageCount,
			TotalRevenue: row.TotalRevenue.Round(2),
		}
	}), nil
}

type popularProductRow struct {
	ProductID    uuid.UUID
	ProductName  string
	UsageCount   int64
	TotalRevenue decimal.Decimal
}

// ListTenantsWithAddons returns every tenant owning at least one add-on
func (r *GormRecurringAddonRepository) ListTenantsWithAddons(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.RecurringAddonModel{}).
		Distinct("tenant_id").
		Order("tenant_id").
		Pluck("tenant_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *GormRecurringAddonRepository) dueQuery(ctx context.Context, tenantID uuid.UUID, asOf time.Time) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.RecurringAddonModel{}).
		Where("tenant_id = ? AND status = ? AND next_billing_date <= ?",
			tenantID, addon.AddonStatusActive, models.CivilDate(asOf))
}

func (r *GormRecurringAddonRepository) find(query *gorm.DB) ([]*addon.RecurringAddon, error) {
	var rows []models.RecurringAddonModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return lo.Map(rows, func(m models.RecurringAddonModel, _ int) *addon.RecurringAddon {
		return m.ToDomain()
	}), nil
}

var (
	_ addon.RecurringAddonRepository = (*GormRecurringAddonRepository)(nil)
	_ addon.TenantLister             = (*GormRecurringAddonRepository)(nil)
)
