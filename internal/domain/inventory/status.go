package inventory

import (
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
)

// countOrder posición de cada estatus en la cadena pendiente → contando → contado → cerrado.
var countOrder = map[string]int{
	entity.CountStatusPendiente: 0,
	entity.CountStatusContando:  1,
	entity.CountStatusContado:   2,
	entity.CountStatusCerrado:   3,
}

// IsValidCountStatus indica si el estatus existe.
func IsValidCountStatus(status string) bool {
	_, ok := countOrder[status]
	return ok || status == entity.CountStatusCancelado
}

// ValidateCountTransition valida un cambio de estatus de conteo.
// Las transiciones solo avanzan; cancelado solo desde pendiente; cerrado y cancelado son terminales.
// Pedir contando cuando el conteo ya pasó de pendiente devuelve ErrAlreadyStarted.
func ValidateCountTransition(from, to string) error {
	if !IsValidCountStatus(from) || !IsValidCountStatus(to) {
		return domain.ErrInvalidStatusTransition
	}
	if to == entity.CountStatusContando && from != entity.CountStatusPendiente {
		if from == entity.CountStatusCancelado {
			return domain.ErrInvalidStatusTransition
		}
		return domain.ErrAlreadyStarted
	}
	if to == entity.CountStatusCancelado {
		if from != entity.CountStatusPendiente {
			return domain.ErrInvalidStatusTransition
		}
		return nil
	}
	if from == entity.CountStatusCancelado {
		return domain.ErrInvalidStatusTransition
	}
	if countOrder[to] <= countOrder[from] {
		return domain.ErrInvalidStatusTransition
	}
	return nil
}

// CanCapture indica si se pueden capturar renglones en un conteo con este estatus.
func CanCapture(status string) bool {
	switch status {
	case entity.CountStatusPendiente, entity.CountStatusContando, entity.CountStatusContado:
		return true
	}
	return false
}

var requestTransitions = map[string][]string{
	entity.RequestStatusPendiente:  {entity.RequestStatusEnRevision},
	entity.RequestStatusEnRevision: {entity.RequestStatusAjustado, entity.RequestStatusRechazado},
	entity.RequestStatusAjustado:   nil,
	entity.RequestStatusRechazado:  nil,
}

// IsValidRequestStatus indica si el estatus de solicitud existe.
func IsValidRequestStatus(status string) bool {
	_, ok := requestTransitions[status]
	return ok
}

// ValidateRequestTransition valida pendiente → en_revision → {ajustado, rechazado}.
// Repetir el estatus actual siempre es válido (actualización idempotente).
func ValidateRequestTransition(from, to string) error {
	next, ok := requestTransitions[from]
	if !ok || !IsValidRequestStatus(to) {
		return domain.ErrInvalidStatusTransition
	}
	if from == to {
		return nil
	}
	for _, s := range next {
		if s == to {
			return nil
		}
	}
	return domain.ErrInvalidStatusTransition
}
