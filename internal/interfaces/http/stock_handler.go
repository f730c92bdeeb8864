package http

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ACasillas1999/Inventarios-sub001/internal/application/dto"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
)

// stockService lecturas de existencias con caché (lo implementa *stock.Service).
type stockService interface {
	Stock(ctx context.Context, branchID int64, codes []string) (map[string]entity.StockSnapshot, error)
	Item(ctx context.Context, code string) (entity.ItemRecord, error)
	Search(ctx context.Context, branchID int64, f entity.ItemFilter) ([]entity.ItemListing, error)
	Invalidate(ctx context.Context, branchID int64, itemCode string) (int, error)
}

// StockHandler consultas de existencias y artículos (protegido).
type StockHandler struct {
	svc stockService
}

// NewStockHandler construye el handler.
func NewStockHandler(svc stockService) *StockHandler {
	return &StockHandler{svc: svc}
}

// Stock existencias por almacén de varios artículos en una sucursal.
// POST /api/stock
func (h *StockHandler) Stock(c *fiber.Ctx) error {
	var in dto.StockRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.svc.Stock(c.UserContext(), in.BranchID, in.ItemCodes)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.StockResponse{BranchID: in.BranchID, Items: out})
}

// Search listado de artículos de la sucursal.
// GET /api/branches/:id/items?search=&line=&warehouse_id=&only_in_stock=&limit=&offset=
func (h *StockHandler) Search(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "MISSING_ID", "id inválido")
	}
	page := dto.PageRequest{Limit: c.QueryInt("limit", 50), Offset: c.QueryInt("offset", 0)}
	page.DefaultPage()
	f := entity.ItemFilter{
		Search:      strings.TrimSpace(c.Query("search")),
		Line:        strings.TrimSpace(c.Query("line")),
		WarehouseID: c.QueryInt("warehouse_id", 0),
		OnlyInStock: c.QueryBool("only_in_stock", false),
		Limit:       page.Limit,
		Offset:      page.Offset,
	}
	rows, err := h.svc.Search(c.UserContext(), int64(id), f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.ItemListResponse{
		Items: rows,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: len(rows)},
	})
}

// Item artículo con existencias en todas las sucursales disponibles.
// GET /api/items/:code
func (h *StockHandler) Item(c *fiber.Ctx) error {
	code := strings.TrimSpace(c.Params("code"))
	if code == "" {
		return badRequest(c, "MISSING_CODE", "code es requerido")
	}
	rec, err := h.svc.Item(c.UserContext(), code)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(rec)
}

// Invalidate limpia la caché de un artículo o de toda la sucursal.
// POST /api/cache/invalidate
func (h *StockHandler) Invalidate(c *fiber.Ctx) error {
	var in dto.InvalidateCacheRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	n, err := h.svc.Invalidate(c.UserContext(), in.BranchID, in.ItemCode)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.InvalidateCacheResponse{Removed: n})
}
