package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")

	// Errores del llamador en el ciclo de conteos y solicitudes.
	ErrNoItems                 = errors.New("no se recibieron artículos")
	ErrTooManyItems            = errors.New("demasiados artículos en una sola solicitud")
	ErrNoMatchingItems         = errors.New("ningún artículo existe en el catálogo de la sucursal")
	ErrBatchLimitExceeded      = errors.New("el lote excede el máximo permitido")
	ErrInvalidStatusTransition = errors.New("transición de estatus inválida")
	ErrAlreadyStarted          = errors.New("el conteo ya fue iniciado")
	ErrCountNotClosed          = errors.New("el conteo no está cerrado")

	// Errores de sucursal (bases remotas).
	ErrBranchUnavailable  = errors.New("sucursal no disponible")
	ErrCatalogUnavailable = errors.New("catálogo de artículos no disponible en la sucursal")
)
