package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/boxibox/backend/internal/domain/pricing"
	"github.com/boxibox/backend/internal/domain/shared"
	"github.com/boxibox/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPromotionRepository implements pricing.PromotionRepository using GORM
type GormPromotionRepository struct {
	db *gorm.DB
}

// NewGormPromotionRepository creates a new GormPromotionRepository
func NewGormPromotionRepository(db *gorm.DB) *GormPromotionRepository {
	return &GormPromotionRepository{db: db}
}

// FindByCode finds a promotion by its normalized code within a tenant
func (r *GormPromotionRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*pricing.PromotionCode, error) {
	var model models.PromotionCodeModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND code = ?", tenantID, pricing.NormalizeCode(code)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindByIDForTenant finds a promotion by ID within a tenant
func (r *GormPromotionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*pricing.PromotionCode, error) {
	var model models.PromotionCodeModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// Save creates or updates a promotion code
func (r *GormPromotionRepository) Save(ctx context.Context, promo *pricing.PromotionCode) error {
	var model models.PromotionCodeModel
	model.FromDomain(promo)
	db := r.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.PromotionCodeModel{}).Where("id = ?", model.ID).Count(&count).Error; err != nil {
		return err
	}
	var err error
	if count == 0 {
		err = db.Create(&model).Error
	} else {
		err = db.Save(&model).Error
	}
	if err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// IncrementUses consumes one use of the promotion in a single conditional
// update, so concurrent redemptions can never exceed max_uses
func (r *GormPromotionRepository) IncrementUses(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.PromotionCodeModel{}).
		Where("tenant_id = ? AND id = ? AND is_active = ?", tenantID, id, true).
		Where("max_uses IS NULL OR uses_count < max_uses").
		Updates(map[string]any{
			"uses_count": gorm.Expr("uses_count + 1"),
			"version":    gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return fmt.Errorf("increment promotion uses: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewValidationError("PROMOTION_NOT_APPLICABLE", "Promotion code is no longer available")
	}
	return nil
}

var _ pricing.PromotionRepository = (*GormPromotionRepository)(nil)
