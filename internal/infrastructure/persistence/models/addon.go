package models

import (
	"time"

	"github.com/boxibox/backend/internal/domain/addon"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductModel is the read model of a catalog product
type ProductModel struct {
	ID            uuid.UUID        `gorm:"type:uuid;primaryKey"`
	TenantID      uuid.UUID        `gorm:"type:uuid;not null;index"`
	Name          string           `gorm:"type:varchar(200);not null"`
	SKU           string           `gorm:"column:sku;type:varchar(100)"`
	Price         decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	TaxRate       *decimal.Decimal `gorm:"type:decimal(5,2)"`
	BillingPeriod string           `gorm:"type:varchar(20)"`
	IsRecurring   bool             `gorm:"not null;default:false"`
	CreatedAt     time.Time        `gorm:"not null"`
	UpdatedAt     time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *addon.Product {
	return &addon.Product{
		ID:            m.ID,
		TenantID:      m.TenantID,
		Name:          m.Name,
		SKU:           m.SKU,
		Price:         m.Price,
		TaxRate:       m.TaxRate,
		BillingPeriod: addon.BillingPeriod(m.BillingPeriod),
		IsRecurring:   m.IsRecurring,
	}
}

// ContractModel is the read model of a rental contract
type ContractModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID       uuid.UUID `gorm:"type:uuid;not null;index"`
	CustomerID     uuid.UUID `gorm:"type:uuid;not null"`
	ContractNumber string    `gorm:"type:varchar(50);not null"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ContractModel) TableName() string {
	return "contracts"
}

// ToDomain converts the persistence model to a domain Contract
func (m *ContractModel) ToDomain() *addon.Contract {
	return &addon.Contract{
		ID:             m.ID,
		TenantID:       m.TenantID,
		CustomerID:     m.CustomerID,
		ContractNumber: m.ContractNumber,
	}
}

// RecurringAddonModel is the persistence model for the RecurringAddon aggregate
type RecurringAddonModel struct {
	TenantAggregateModel
	ContractID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName        string          `gorm:"type:varchar(200);not null"`
	ProductSKU         string          `gorm:"column:product_sku;type:varchar(100)"`
	Quantity           int             `gorm:"not null;default:1"`
	UnitPrice          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TaxRate            decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	BillingPeriod      string          `gorm:"type:varchar(20);not null"`
	StartDate          time.Time       `gorm:"type:date;not null"`
	EndDate            *time.Time      `gorm:"type:date"`
	NextBillingDate    time.Time       `gorm:"type:date;not null;index"`
	Status             string          `gorm:"type:varchar(20);not null;index"`
	PausedAt           *time.Time
	CancelledAt        *time.Time
	CancellationReason string `gorm:"type:text"`
	Notes              string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (RecurringAddonModel) TableName() string {
	return "recurring_addons"
}

// ToDomain converts the persistence model to a domain RecurringAddon
func (m *RecurringAddonModel) ToDomain() *addon.RecurringAddon {
	return &addon.RecurringAddon{
		TenantAggregateRoot: m.TenantAggregateModel.ToDomain(),
		ContractID:          m.ContractID,
		ProductID:           m.ProductID,
		ProductName:         m.ProductName,
		ProductSKU:          m.ProductSKU,
		Quantity:            m.Quantity,
		UnitPrice:           m.UnitPrice,
		TaxRate:             m.TaxRate,
		BillingPeriod:       addon.BillingPeriod(m.BillingPeriod),
		StartDate:           CivilDate(m.StartDate),
		EndDate:             CivilDatePtr(m.EndDate),
		NextBillingDate:     CivilDate(m.NextBillingDate),
		Status:              addon.AddonStatus(m.Status),
		PausedAt:            m.PausedAt,
		CancelledAt:         m.CancelledAt,
		CancellationReason:  m.CancellationReason,
		Notes:               m.Notes,
	}
}

// FromDomain populates the persistence model from a domain RecurringAddon
func (m *RecurringAddonModel) FromDomain(a *addon.RecurringAddon) {
	m.TenantAggregateModel.FromDomain(a.TenantAggregateRoot)
	m.ContractID = a.ContractID
	m.ProductID = a.ProductID
	m.ProductName = a.ProductName
	m.ProductSKU = a.ProductSKU
	m.Quantity = a.Quantity
	m.UnitPrice = a.UnitPrice
	m.TaxRate = a.TaxRate
	m.BillingPeriod = string(a.BillingPeriod)
	m.StartDate = CivilDate(a.StartDate)
	m.EndDate = CivilDatePtr(a.EndDate)
	m.NextBillingDate = CivilDate(a.NextBillingDate)
	m.Status = string(a.Status)
	m.PausedAt = a.PausedAt
	m.CancelledAt = a.CancelledAt
	m.CancellationReason = a.CancellationReason
	m.Notes = a.Notes
}

// AddonBillingRecordModel is one row of the emitted-cycle ledger. The pair
// (addon_id, cycle_start) is unique.
type AddonBillingRecordModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	AddonID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_addon_billing_cycle"`
	ContractID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"`
	CycleStart  time.Time       `gorm:"type:date;not null;uniqueIndex:idx_addon_billing_cycle"`
	CycleEnd    time.Time       `gorm:"type:date;not null"`
	Description string          `gorm:"type:varchar(255);not null"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	TaxAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Discount    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	EmittedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AddonBillingRecordModel) TableName() string {
	return "addon_billing_records"
}

// ToDomain converts the persistence model to a domain BillingRecord
func (m *AddonBillingRecordModel) ToDomain() addon.BillingRecord {
	start := CivilDate(m.CycleStart)
	end := CivilDate(m.CycleEnd)
	return addon.BillingRecord{
		ID:         m.ID,
		TenantID:   m.TenantID,
		AddonID:    m.AddonID,
		ContractID: m.ContractID,
		CycleStart: start,
		CycleEnd:   end,
		EmittedAt:  m.EmittedAt,
		Item: addon.LineItem{
			Type:        addon.LineItemTypeAddon,
			AddonID:     m.AddonID,
			ContractID:  m.ContractID,
			ProductID:   m.ProductID,
			Description: m.Description,
			Quantity:    m.Quantity,
			UnitPrice:   m.UnitPrice,
			TaxRate:     m.TaxRate,
			TaxAmount:   m.TaxAmount,
			Discount:    m.Discount,
			Subtotal:    m.Subtotal,
			Total:       m.Total,
			PeriodStart: start,
			PeriodEnd:   end,
		},
	}
}

// FromDomain populates the persistence model from a domain BillingRecord
func (m *AddonBillingRecordModel) FromDomain(r *addon.BillingRecord) {
	m.ID = r.ID
	m.TenantID = r.TenantID
	m.AddonID = r.AddonID
	m.ContractID = r.ContractID
	m.ProductID = r.Item.ProductID
	m.CycleStart = CivilDate(r.CycleStart)
	m.CycleEnd = CivilDate(r.CycleEnd)
	m.Description = r.Item.Description
	m.Quantity = r.Item.Quantity
	m.UnitPrice = r.Item.UnitPrice
	m.TaxRate = r.Item.TaxRate
	m.TaxAmount = r.Item.TaxAmount
	m.Discount = r.Item.Discount
	m.Subtotal = r.Item.Subtotal
	m.Total = r.Item.Total
	m.EmittedAt = r.EmittedAt
}
