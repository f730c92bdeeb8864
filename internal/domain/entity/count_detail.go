package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CountDetail renglón de un conteo: existencia del sistema vs existencia contada.
type CountDetail struct {
	ID                   int64
	CountID              int64
	ItemCode             string
	ItemDescription      string
	Unit                 string
	WarehouseID          int
	WarehouseName        string
	SystemStock          decimal.Decimal
	CountedStock         *decimal.Decimal
	Difference           *decimal.Decimal
	DifferencePercentage *decimal.Decimal
	CountedAt            *time.Time
	CountedByUserID      *int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// IsCounted indica si el renglón ya fue capturado.
func (d *CountDetail) IsCounted() bool {
	return d.CountedAt != nil
}

// HasDifference indica si el renglón capturado difiere de la existencia del sistema.
func (d *CountDetail) HasDifference() bool {
	return d.CountedStock != nil && !d.CountedStock.Equal(d.SystemStock)
}
