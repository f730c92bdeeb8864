package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estatus de una solicitud de ajuste.
const (
	RequestStatusPendiente  = "pendiente"
	RequestStatusEnRevision = "en_revision"
	RequestStatusAjustado   = "ajustado"
	RequestStatusRechazado  = "rechazado"
)

// Request solicitud de ajuste derivada de un renglón de conteo con diferencia.
type Request struct {
	ID                int64
	Folio             string
	CountID           int64
	CountDetailID     int64
	BranchID          int64
	ItemCode          string
	SystemStock       decimal.Decimal
	CountedStock      decimal.Decimal
	Difference        decimal.Decimal
	Status            string
	RequestedByUserID int64
	ReviewedByUserID  *int64
	ReviewedAt        *time.Time
	ResolutionNotes   string
	EvidenceFile      string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// RequestFilter filtros para listar solicitudes.
type RequestFilter struct {
	BranchID int64
	CountID  int64
	Status   string
	ItemCode string
	Limit    int
	Offset   int
}
