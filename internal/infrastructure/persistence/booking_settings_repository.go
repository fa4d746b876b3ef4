package persistence

import (
	"context"
	"errors"

	"github.com/boxibox/backend/internal/domain/pricing"
	"github.com/boxibox/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBookingSettingsRepository implements pricing.BookingSettingsRepository using GORM
type GormBookingSettingsRepository struct {
	db *gorm.DB
}

// NewGormBookingSettingsRepository creates a new GormBookingSettingsRepository
func NewGormBookingSettingsRepository(db *gorm.DB) *GormBookingSettingsRepository {
	return &GormBookingSettingsRepository{db: db}
}

// FindForSite returns the site's settings, then the tenant-wide row, then nil
func (r *GormBookingSettingsRepository) FindForSite(ctx context.Context, tenantID uuid.UUID, siteID *uuid.UUID) (*pricing.BookingSettings, error) {
	if siteID != nil {
		settings, err := r.first(r.db.WithContext(ctx).Where("tenant_id = ? AND site_id = ?", tenantID, *siteID))
		if err != nil || settings != nil {
			return settings, err
		}
	}
	return r.first(r.db.WithContext(ctx).Where("tenant_id = ? AND site_id IS NULL", tenantID))
}

func (r *GormBookingSettingsRepository) first(query *gorm.DB) (*pricing.BookingSettings, error) {
	var model models.BookingSettingsModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

var _ pricing.BookingSettingsRepository = (*GormBookingSettingsRepository)(nil)
