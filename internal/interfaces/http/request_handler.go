package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/ACasillas1999/Inventarios-sub001/internal/application/dto"
	"github.com/ACasillas1999/Inventarios-sub001/internal/application/requests"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
)

// requestWorkflow casos de uso de solicitudes de ajuste (lo implementa *requests.Workflow).
type requestWorkflow interface {
	DeriveFromCount(ctx context.Context, countID, actorID int64) ([]*entity.Request, error)
	Update(ctx context.Context, in requests.UpdateInput) (*entity.Request, error)
	Get(ctx context.Context, id int64) (*entity.Request, error)
	List(ctx context.Context, f entity.RequestFilter) ([]*entity.Request, int, error)
}

// RequestHandler maneja las peticiones HTTP de solicitudes de ajuste (protegido).
type RequestHandler struct {
	workflow requestWorkflow
}

// NewRequestHandler construye el handler.
func NewRequestHandler(workflow requestWorkflow) *RequestHandler {
	return &RequestHandler{workflow: workflow}
}

// Derive genera las solicitudes de un conteo cerrado; es idempotente por renglón.
// POST /api/counts/:id/requests
func (h *RequestHandler) Derive(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "MISSING_ID", "id inválido")
	}
	out, err := h.workflow.DeriveFromCount(c.UserContext(), int64(id), GetUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewRequestResponses(out))
}

// List lista solicitudes.
// GET /api/requests?branch_id=&count_id=&status=&item_code=&limit=&offset=
func (h *RequestHandler) List(c *fiber.Ctx) error {
	page := dto.PageRequest{Limit: c.QueryInt("limit", 50), Offset: c.QueryInt("offset", 0)}
	page.DefaultPage()
	list, total, err := h.workflow.List(c.UserContext(), entity.RequestFilter{
		BranchID: int64(c.QueryInt("branch_id", 0)),
		CountID:  int64(c.QueryInt("count_id", 0)),
		Status:   c.Query("status"),
		ItemCode: c.Query("item_code"),
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.RequestListResponse{
		Items: dto.NewRequestResponses(list),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	})
}

// GetByID devuelve una solicitud.
// GET /api/requests/:id
func (h *RequestHandler) GetByID(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "MISSING_ID", "id inválido")
	}
	out, err := h.workflow.Get(c.UserContext(), int64(id))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.NewRequestResponse(out))
}

// Update revisa la solicitud: estatus, notas de resolución o evidencia.
// PATCH /api/requests/:id
func (h *RequestHandler) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "MISSING_ID", "id inválido")
	}
	var in dto.UpdateRequestRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.workflow.Update(c.UserContext(), requests.UpdateInput{
		ID:              int64(id),
		Status:          in.Status,
		ResolutionNotes: in.ResolutionNotes,
		EvidenceFile:    in.EvidenceFile,
		ActorID:         GetUserID(c),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.NewRequestResponse(out))
}
