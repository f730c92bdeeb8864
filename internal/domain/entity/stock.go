package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockSnapshot existencias por almacén de un artículo en una sucursal, tal como se cachean.
type StockSnapshot struct {
	BranchID   int64                   `json:"branch_id"`
	ItemCode   string                  `json:"item_code"`
	Warehouses map[int]decimal.Decimal `json:"warehouses"`
	Total      decimal.Decimal         `json:"total"`
	FetchedAt  time.Time               `json:"fetched_at"`
}

// InWarehouse devuelve la existencia del almacén indicado (cero si no hay registro).
func (s StockSnapshot) InWarehouse(warehouseID int) decimal.Decimal {
	if q, ok := s.Warehouses[warehouseID]; ok {
		return q
	}
	return decimal.Zero
}
