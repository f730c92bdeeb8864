package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/ACasillas1999/Inventarios-sub001/internal/application/dto"
)

// permissionChecker es el contrato mínimo que necesita el middleware para verificar permisos.
// Lo implementa *auth.PermissionChecker.
type permissionChecker interface {
	HasPermission(ctx context.Context, userID int64, role, permission string) (bool, error)
}

// RequirePermission devuelve un middleware Fiber que verifica si el usuario del token JWT
// tiene el permiso. Debe usarse DESPUÉS de AuthMiddleware (necesita LocalUserID y LocalRole).
//
// Comportamiento:
//   - 403 Forbidden  → el usuario no tiene el permiso.
//   - 503 Service Unavailable → fallo de infraestructura al consultar la DB.
//   - Si no hay user_id en el contexto, responde 401.
func RequirePermission(permission string, checker permissionChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := GetUserID(c)
		if userID == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    "UNAUTHORIZED",
				Message: "user_id no encontrado en el token",
			})
		}

		allowed, err := checker.HasPermission(c.UserContext(), userID, GetRole(c), permission)
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code:    "PERMISSION_CHECK_FAILED",
				Message: "no se pudo verificar el permiso, intente más tarde",
			})
		}

		if !allowed {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "FORBIDDEN",
				Message: "sin permiso '" + permission + "'",
			})
		}

		return c.Next()
	}
}
