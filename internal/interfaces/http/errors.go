package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ACasillas1999/Inventarios-sub001/internal/application/dto"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain"
	"github.com/ACasillas1999/Inventarios-sub001/pkg/logger"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// Orden importa: se toma la primera coincidencia con errors.Is.
var errorMappings = []errorMapping{
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrNoItems, fiber.StatusBadRequest, "NO_ITEMS"},
	{domain.ErrTooManyItems, fiber.StatusBadRequest, "TOO_MANY_ITEMS"},
	{domain.ErrNoMatchingItems, fiber.StatusBadRequest, "NO_MATCHING_ITEMS"},
	{domain.ErrBatchLimitExceeded, fiber.StatusBadRequest, "BATCH_LIMIT_EXCEEDED"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrInvalidStatusTransition, fiber.StatusConflict, "INVALID_STATUS_TRANSITION"},
	{domain.ErrAlreadyStarted, fiber.StatusConflict, "ALREADY_STARTED"},
	{domain.ErrCountNotClosed, fiber.StatusConflict, "COUNT_NOT_CLOSED"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrBranchUnavailable, fiber.StatusServiceUnavailable, "BRANCH_UNAVAILABLE"},
	{domain.ErrCatalogUnavailable, fiber.StatusServiceUnavailable, "CATALOG_UNAVAILABLE"},
}

// fail responde el error de dominio con su código HTTP. Lo no mapeado sube a ErrorHandler.
func fail(c *fiber.Ctx, err error) error {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: err.Error()})
		}
	}
	return err
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

// NewErrorHandler registra los errores no mapeados y responde 500 sin exponer el detalle.
func NewErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	if log == nil {
		log = logger.Nop()
	}
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: "HTTP_ERROR", Message: fe.Message})
		}
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error no controlado")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
	}
}
