package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estatus de un conteo.
const (
	CountStatusPendiente = "pendiente"
	CountStatusContando  = "contando"
	CountStatusContado   = "contado"
	CountStatusCerrado   = "cerrado"
	CountStatusCancelado = "cancelado"
)

// Clasificaciones de conteo.
const (
	ClassificationInventario = "inventario"
	ClassificationAjuste     = "ajuste"
	ClassificationCiclico    = "ciclico"
)

// Prioridades.
const (
	PriorityBaja    = "baja"
	PriorityMedia   = "media"
	PriorityAlta    = "alta"
	PriorityUrgente = "urgente"
)

// Count conteo físico de un artículo en un almacén de una sucursal.
type Count struct {
	ID                  int64
	Folio               string
	BatchID             string // uuid de la llamada de creación masiva
	BranchID            int64
	Almacen             int
	Type                string
	Classification      string
	Priority            string
	Status              string
	ResponsibleUserID   *int64
	CreatedByUserID     int64
	AssignedAt          *time.Time
	StartedAt           *time.Time
	FinishedAt          *time.Time
	ClosedAt            *time.Time
	TolerancePercentage decimal.Decimal
	Notes               string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// CountFilter filtros para listar conteos.
type CountFilter struct {
	BranchID          int64
	Almacen           int
	Status            string
	Classification    string
	ResponsibleUserID int64
	Folio             string
	From              *time.Time
	To                *time.Time
	Limit             int
	Offset            int
}
