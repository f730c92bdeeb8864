package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/ACasillas1999/Inventarios-sub001/internal/application/branches"
	"github.com/ACasillas1999/Inventarios-sub001/internal/application/dto"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
)

// branchService administración de sucursales (lo implementa *branches.Service).
type branchService interface {
	List(ctx context.Context) ([]*entity.Branch, error)
	Get(ctx context.Context, id int64) (*entity.Branch, error)
	Create(ctx context.Context, in branches.Input) (*entity.Branch, *entity.BranchStatus, error)
	Update(ctx context.Context, id int64, in branches.Input) (*entity.Branch, *entity.BranchStatus, error)
	Delete(ctx context.Context, id, actorID int64) error
	Health() []entity.BranchStatus
	Recheck(ctx context.Context) []entity.BranchStatus
}

// BranchHandler maneja sucursales y su salud.
type BranchHandler struct {
	svc branchService
}

// NewBranchHandler construye el handler.
func NewBranchHandler(svc branchService) *BranchHandler {
	return &BranchHandler{svc: svc}
}

// Health estatus de conexión por sucursal (público, para balanceadores y monitoreo).
// GET /health
func (h *BranchHandler) Health(c *fiber.Ctx) error {
	return c.JSON(dto.NewHealthResponse(h.svc.Health()))
}

// Recheck fuerza un chequeo inmediato.
// POST /api/branches/health/check
func (h *BranchHandler) Recheck(c *fiber.Ctx) error {
	return c.JSON(dto.NewHealthResponse(h.svc.Recheck(c.UserContext())))
}

// List lista sucursales con su estatus de conexión.
// GET /api/branches
func (h *BranchHandler) List(c *fiber.Ctx) error {
	list, err := h.svc.List(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	health := map[int64]entity.BranchStatus{}
	for _, s := range h.svc.Health() {
		health[s.ID] = s
	}
	out := make([]dto.BranchResponse, 0, len(list))
	for _, b := range list {
		var st *entity.BranchStatus
		if s, ok := health[b.ID]; ok {
			st = &s
		}
		out = append(out, dto.NewBranchResponse(b, st))
	}
	return c.JSON(out)
}

// GetByID devuelve una sucursal.
// GET /api/branches/:id
func (h *BranchHandler) GetByID(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "MISSING_ID", "id inválido")
	}
	b, err := h.svc.Get(c.UserContext(), int64(id))
	if err != nil {
		return fail(c, err)
	}
	for _, s := range h.svc.Health() {
		if s.ID == b.ID {
			return c.JSON(dto.NewBranchResponse(b, &s))
		}
	}
	return c.JSON(dto.NewBranchResponse(b, nil))
}

// Create da de alta la sucursal y la conecta si está activa.
// POST /api/branches
func (h *BranchHandler) Create(c *fiber.Ctx) error {
	var in dto.BranchRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	b, st, err := h.svc.Create(c.UserContext(), in.ToInput(GetUserID(c)))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewBranchResponse(b, st))
}

// Update edita la sucursal y reemplaza su conexión.
// PUT /api/branches/:id
func (h *BranchHandler) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "MISSING_ID", "id inválido")
	}
	var in dto.BranchRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	b, st, err := h.svc.Update(c.UserContext(), int64(id), in.ToInput(GetUserID(c)))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.NewBranchResponse(b, st))
}

// Delete da de baja la sucursal y cierra su conexión.
// DELETE /api/branches/:id
func (h *BranchHandler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "MISSING_ID", "id inválido")
	}
	if err := h.svc.Delete(c.UserContext(), int64(id), GetUserID(c)); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
