package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RentalUnit is a storage unit offered for rent. Its reference price is owned
// by the catalog and only read here.
type RentalUnit struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	SiteID       *uuid.UUID
	Code         string
	Name         string
	CurrentPrice decimal.Decimal // reference monthly price, excl. VAT
}
