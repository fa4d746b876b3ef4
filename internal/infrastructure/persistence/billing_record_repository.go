package persistence

import (
	"context"
	"time"

	"github.com/boxibox/backend/internal/domain/addon"
	"github.com/boxibox/backend/internal/domain/shared"
	"github.com/boxibox/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

// GormBillingRecordRepository implements addon.BillingRecordRepository using GORM
type GormBillingRecordRepository struct {
	db *gorm.DB
}

// NewGormBillingRecordRepository creates a new GormBillingRecordRepository
func NewGormBillingRecordRepository(db *gorm.DB) *GormBillingRecordRepository {
	return &GormBillingRecordRepository{db: db}
}

// Create inserts a ledger row. The unique (addon_id, cycle_start) index turns
// a second emission of the same cycle into shared.ErrAlreadyExists.
func (r *GormBillingRecordRepository) Create(ctx context.Context, rec *addon.BillingRecord) error {
	var model models.AddonBillingRecordModel
	model.FromDomain(rec)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// ExistsForCycle checks whether the cycle starting at cycleStart was emitted
func (r *GormBillingRecordRepository) ExistsForCycle(ctx context.Context, addonID uuid.UUID, cycleStart time.Time) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.AddonBillingRecordModel{}).
		Where("addon_id = ? AND cycle_start = ?", addonID, models.CivilDate(cycleStart)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindByContract lists a contract's emitted cycles, oldest first
func (r *GormBillingRecordRepository) FindByContract(ctx context.Context, tenantID, contractID uuid.UUID) ([]addon.BillingRecord, error) {
	var rows []models.AddonBillingRecordModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND contract_id = ?", tenantID, contractID).
		Order("cycle_start ASC, addon_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return lo.Map(rows, func(m models.AddonBillingRecordModel, _ int) addon.BillingRecord {
		return m.ToDomain()
	}), nil
}

var _ addon.BillingRecordRepository = (*GormBillingRecordRepository)(nil)
