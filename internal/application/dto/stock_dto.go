package dto

import "github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"

// StockRequest body para POST /api/stock.
type StockRequest struct {
	BranchID  int64    `json:"branch_id"`
	ItemCodes []string `json:"item_codes"`
}

// StockResponse existencias por artículo; un artículo sin registro viene en cero.
type StockResponse struct {
	BranchID int64                           `json:"branch_id"`
	Items    map[string]entity.StockSnapshot `json:"items"`
}

// ItemListResponse listado de artículos de una sucursal.
type ItemListResponse struct {
	Items []entity.ItemListing `json:"items"`
	Page  PageResponse         `json:"page"`
}

// InvalidateCacheRequest body para POST /api/cache/invalidate; item_code vacío limpia la sucursal.
type InvalidateCacheRequest struct {
	BranchID int64  `json:"branch_id"`
	ItemCode string `json:"item_code"`
}

// InvalidateCacheResponse claves eliminadas.
type InvalidateCacheResponse struct {
	Removed int `json:"removed"`
}
