package http

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ACasillas1999/Inventarios-sub001/internal/application/counts"
	"github.com/ACasillas1999/Inventarios-sub001/internal/application/dto"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
)

// countEngine casos de uso de conteos que expone la API (lo implementa *counts.Engine).
type countEngine interface {
	CreateCounts(ctx context.Context, in counts.CreateInput) (*counts.CreateResult, error)
	CreateAdjustments(ctx context.Context, in counts.AdjustmentInput) (*counts.CreateResult, error)
	UpdateStatus(ctx context.Context, countID int64, to string, actorID int64) (*entity.Count, error)
	CaptureDetail(ctx context.Context, in counts.CaptureInput) (*counts.DetailCaptureResult, error)
	AddDetail(ctx context.Context, countID int64, itemCode string, actorID int64) (*entity.CountDetail, error)
	Get(ctx context.Context, id int64) (*entity.Count, []*entity.CountDetail, error)
	List(ctx context.Context, f entity.CountFilter) ([]*entity.Count, int, error)
	Update(ctx context.Context, in counts.UpdateInput) (*entity.Count, error)
	Delete(ctx context.Context, id, actorID int64) error
}

// sheetDownloader genera la hoja de conteo (lo implementa *counts.SheetUseCase).
type sheetDownloader interface {
	Download(ctx context.Context, countID int64, blind bool) ([]byte, string, error)
}

// CountHandler maneja las peticiones HTTP de conteos (protegido).
type CountHandler struct {
	engine countEngine
	sheets sheetDownloader
}

// NewCountHandler construye el handler.
func NewCountHandler(engine countEngine, sheets sheetDownloader) *CountHandler {
	return &CountHandler{engine: engine, sheets: sheets}
}

// Create crea un conteo por artículo en la sucursal y almacén indicados.
// POST /api/counts
func (h *CountHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateCountsRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if in.BranchID <= 0 {
		return badRequest(c, "VALIDATION", "branch_id es requerido")
	}
	res, err := h.engine.CreateCounts(c.UserContext(), in.ToCreateInput(GetUserID(c)))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewCreateCountsResponse(res))
}

// CreateAdjustments crea conteos de ajuste directo ya cerrados y sus solicitudes.
// POST /api/counts/adjustments
func (h *CountHandler) CreateAdjustments(c *fiber.Ctx) error {
	var in dto.CreateAdjustmentsRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if in.BranchID <= 0 {
		return badRequest(c, "VALIDATION", "branch_id es requerido")
	}
	res, err := h.engine.CreateAdjustments(c.UserContext(), in.ToAdjustmentInput(GetUserID(c)))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewCreateCountsResponse(res))
}

// List lista conteos con filtros.
// GET /api/counts?branch_id=&almacen=&status=&classification=&responsible_user_id=&folio=&from=&to=&limit=&offset=
func (h *CountHandler) List(c *fiber.Ctx) error {
	page := dto.PageRequest{Limit: c.QueryInt("limit", 50), Offset: c.QueryInt("offset", 0)}
	page.DefaultPage()
	f := entity.CountFilter{
		BranchID:          int64(c.QueryInt("branch_id", 0)),
		Almacen:           c.QueryInt("almacen", 0),
		Status:            c.Query("status"),
		Classification:    c.Query("classification"),
		ResponsibleUserID: int64(c.QueryInt("responsible_user_id", 0)),
		Folio:             strings.TrimSpace(c.Query("folio")),
		Limit:             page.Limit,
		Offset:            page.Offset,
	}
	var err error
	if f.From, err = queryTime(c, "from", false); err != nil {
		return badRequest(c, "VALIDATION", "from inválido (YYYY-MM-DD o RFC3339)")
	}
	if f.To, err = queryTime(c, "to", true); err != nil {
		return badRequest(c, "VALIDATION", "to inválido (YYYY-MM-DD o RFC3339)")
	}
	list, total, err := h.engine.List(c.UserContext(), f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.CountListResponse{
		Items: dto.NewCountResponses(list),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	})
}

// GetByID devuelve el conteo con sus renglones.
// GET /api/counts/:id
func (h *CountHandler) GetByID(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "MISSING_ID", "id inválido")
	}
	count, details, err := h.engine.Get(c.UserContext(), int64(id))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.NewCountWithDetailsResponse(count, details))
}

// Update cambia responsable, prioridad, notas o tolerancia.
// PATCH /api/counts/:id
func (h *CountHandler) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "MISSING_ID", "id inválido")
	}
	var in dto.UpdateCountRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.engine.Update(c.UserContext(), counts.UpdateInput{
		ID:                  int64(id),
		ResponsibleUserID:   in.ResponsibleUserID,
		Priority:            in.Priority,
		Notes:               in.Notes,
		TolerancePercentage: in.TolerancePercentage,
		ActorID:             GetUserID(c),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.NewCountResponse(out))
}

// UpdateStatus mueve el conteo en su ciclo de vida.
// PATCH /api/counts/:id/status
func (h *CountHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "MISSING_ID", "id inválido")
	}
	var in dto.UpdateStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if strings.TrimSpace(in.Status) == "" {
		return badRequest(c, "VALIDATION", "status es requerido")
	}
	out, err := h.engine.UpdateStatus(c.UserContext(), int64(id), strings.TrimSpace(in.Status), GetUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.NewCountResponse(out))
}

// Capture registra la cantidad contada de un renglón.
// PUT /api/counts/:id/details/:detailId
func (h *CountHandler) Capture(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "MISSING_ID", "id inválido")
	}
	detailID, err := c.ParamsInt("detailId")
	if err != nil || detailID <= 0 {
		return badRequest(c, "MISSING_ID", "detailId inválido")
	}
	var in dto.CaptureRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	res, err := h.engine.CaptureDetail(c.UserContext(), counts.CaptureInput{
		CountID: int64(id), DetailID: int64(detailID), Counted: in.Counted, ActorID: GetUserID(c),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.NewCaptureResponse(res))
}

// AddDetail agrega un artículo a un conteo existente.
// POST /api/counts/:id/details
func (h *CountHandler) AddDetail(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "MISSING_ID", "id inválido")
	}
	var in dto.AddDetailRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if strings.TrimSpace(in.ItemCode) == "" {
		return badRequest(c, "VALIDATION", "item_code es requerido")
	}
	d, err := h.engine.AddDetail(c.UserContext(), int64(id), in.ItemCode, GetUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewCountDetailResponse(d))
}

// Delete elimina el conteo.
// DELETE /api/counts/:id
func (h *CountHandler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "MISSING_ID", "id inválido")
	}
	if err := h.engine.Delete(c.UserContext(), int64(id), GetUserID(c)); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Sheet descarga la hoja de conteo en PDF; ?blind=true oculta existencias del sistema.
// GET /api/counts/:id/sheet
func (h *CountHandler) Sheet(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "MISSING_ID", "id inválido")
	}
	pdf, filename, err := h.sheets.Download(c.UserContext(), int64(id), c.QueryBool("blind", false))
	if err != nil {
		return fail(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdf)
}

// queryTime acepta YYYY-MM-DD o RFC3339; con endOfDay una fecha sola cubre el día completo.
func queryTime(c *fiber.Ctx, key string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
