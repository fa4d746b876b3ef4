package persistence

import (
	"context"
	"errors"

	"github.com/boxibox/backend/internal/domain/pricing"
	"github.com/boxibox/backend/internal/domain/shared"
	"github.com/boxibox/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormRentalUnitRepository implements pricing.RentalUnitRepository using GORM
type GormRentalUnitRepository struct {
	db *gorm.DB
}

// NewGormRentalUnitRepository creates a new GormRentalUnitRepository
func NewGormRentalUnitRepository(db *gorm.DB) *GormRentalUnitRepository {
	return &GormRentalUnitRepository{db: db}
}

// FindByIDForTenant finds a rental unit by ID within a tenant
func (r *GormRentalUnitRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*pricing.RentalUnit, error) {
	var model models.RentalUnitModel
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

var _ pricing.RentalUnitRepository = (*GormRentalUnitRepository)(nil)
