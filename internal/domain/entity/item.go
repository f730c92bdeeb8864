package entity

import "github.com/shopspring/decimal"

// CatalogItem artículo del catálogo remoto de una sucursal.
type CatalogItem struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Unit        string `json:"unit"`
	Line        string `json:"line,omitempty"`
}

// ItemRecord artículo con sus existencias en todas las sucursales disponibles.
type ItemRecord struct {
	CatalogItem
	StockByBranch map[int64]decimal.Decimal `json:"stock_by_branch"`
}

// SeedRow datos para sembrar un detalle de conteo: catálogo + existencia del almacén.
type SeedRow struct {
	Item          CatalogItem
	WarehouseID   int
	WarehouseName string
	Stock         decimal.Decimal
}

// ItemFilter filtro de listado de artículos por sucursal.
type ItemFilter struct {
	Search      string `json:"search,omitempty"`
	Line        string `json:"line,omitempty"`
	WarehouseID int    `json:"warehouse_id,omitempty"`
	OnlyInStock bool   `json:"only_in_stock,omitempty"`
	Limit       int    `json:"limit"`
	Offset      int    `json:"offset"`
}

// ItemListing fila de listado: artículo y existencia en el almacén filtrado.
type ItemListing struct {
	CatalogItem
	Stock decimal.Decimal `json:"stock"`
}
