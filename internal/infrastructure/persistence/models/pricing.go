package models

import (
	"fmt"
	"time"

	"github.com/boxibox/backend/internal/domain/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RentalUnitModel is the persistence model for a rentable storage unit
type RentalUnitModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	SiteID       *uuid.UUID      `gorm:"type:uuid;index"`
	Code         string          `gorm:"type:varchar(50);not null"`
	Name         string          `gorm:"type:varchar(200);not null"`
	CurrentPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt    time.Time       `gorm:"not null"`
	UpdatedAt    time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (RentalUnitModel) TableName() string {
	return "rental_units"
}

// ToDomain converts the persistence model to a domain RentalUnit
func (m *RentalUnitModel) ToDomain() *pricing.RentalUnit {
	return &pricing.RentalUnit{
		ID:           m.ID,
		TenantID:     m.TenantID,
		SiteID:       m.SiteID,
		Code:         m.Code,
		Name:         m.Name,
		CurrentPrice: m.CurrentPrice,
	}
}

// PromotionCodeModel is the persistence model for the PromotionCode aggregate
type PromotionCodeModel struct {
	TenantAggregateModel
	SiteID          *uuid.UUID           `gorm:"type:uuid"`
	Code            string               `gorm:"type:varchar(50);not null"`
	Name            string               `gorm:"type:varchar(200);not null"`
	DiscountType    pricing.DiscountType `gorm:"type:varchar(20);not null"`
	DiscountValue   decimal.Decimal      `gorm:"type:decimal(12,2);not null"`
	IsActive        bool                 `gorm:"not null"`
	MaxUses         *int
	UsesCount       int        `gorm:"not null;default:0"`
	ValidFrom       *time.Time `gorm:"type:date"`
	ValidUntil      *time.Time `gorm:"type:date"`
	MinRentalAmount *decimal.Decimal `gorm:"type:decimal(12,2)"`
	MinRentalMonths *int
}

// TableName returns the table name for GORM
func (PromotionCodeModel) TableName() string {
	return "promotion_codes"
}

// ToDomain converts the persistence model to a domain PromotionCode
func (m *PromotionCodeModel) ToDomain() (*pricing.PromotionCode, error) {
	discount, err := pricing.NewDiscountKind(m.DiscountType, m.DiscountValue)
	if err != nil {
		return nil, fmt.Errorf("promotion %s: %w", m.Code, err)
	}
	return &pricing.PromotionCode{
		TenantAggregateRoot: m.TenantAggregateModel.ToDomain(),
		SiteID:              m.SiteID,
		Code:                m.Code,
		Name:                m.Name,
		Discount:            discount,
		IsActive:            m.IsActive,
		MaxUses:             m.MaxUses,
		UsesCount:           m.UsesCount,
		ValidFrom:           CivilDatePtr(m.ValidFrom),
		ValidUntil:          CivilDatePtr(m.ValidUntil),
		MinRentalAmount:     m.MinRentalAmount,
		MinRentalMonths:     m.MinRentalMonths,
	}, nil
}

// FromDomain populates the persistence model from a domain PromotionCode
func (m *PromotionCodeModel) FromDomain(p *pricing.PromotionCode) {
	m.TenantAggregateModel.FromDomain(p.TenantAggregateRoot)
	m.SiteID = p.SiteID
	m.Code = p.Code
	m.Name = p.Name
	m.DiscountType = p.Discount.Type()
	m.DiscountValue = p.Discount.Value()
	m.IsActive = p.IsActive
	m.MaxUses = p.MaxUses
	m.UsesCount = p.UsesCount
	m.ValidFrom = CivilDatePtr(p.ValidFrom)
	m.ValidUntil = CivilDatePtr(p.ValidUntil)
	m.MinRentalAmount = p.MinRentalAmount
	m.MinRentalMonths = p.MinRentalMonths
}

// BookingSettingsModel is the persistence model for a deposit policy. A row
// without site applies tenant-wide.
type BookingSettingsModel struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	SiteID            *uuid.UUID      `gorm:"type:uuid"`
	RequireDeposit    bool            `gorm:"not null;default:false"`
	DepositPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	DepositAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt         time.Time       `gorm:"not null"`
	UpdatedAt         time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (BookingSettingsModel) TableName() string {
	return "booking_settings"
}

// ToDomain converts the persistence model to domain BookingSettings
func (m *BookingSettingsModel) ToDomain() *pricing.BookingSettings {
	return &pricing.BookingSettings{
		ID:                m.ID,
		TenantID:          m.TenantID,
		SiteID:            m.SiteID,
		RequireDeposit:    m.RequireDeposit,
		DepositPercentage: m.DepositPercentage,
		DepositAmount:     m.DepositAmount,
	}
}
