package repository

import (
	"context"
	"time"

	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
)

// StatusStamps fechas que acompañan un cambio de estatus (nil = no se toca la columna).
type StatusStamps struct {
	StartedAt  *time.Time
	FinishedAt *time.Time
	ClosedAt   *time.Time
}

// CountRepository define el puerto de persistencia para Count (DIP).
// Usable dentro o fuera de transacción según el Querier del adaptador.
type CountRepository interface {
	Create(ctx context.Context, count *entity.Count) error
	GetByID(ctx context.Context, id int64) (*entity.Count, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*entity.Count, error)
	List(ctx context.Context, filter entity.CountFilter) ([]*entity.Count, int, error)
	Update(ctx context.Context, count *entity.Count) error
	// UpdateStatus cambia el estatus solo si el actual es from; devuelve false si otra
	// operación lo cambió primero (ninguna fila afectada).
	UpdateStatus(ctx context.Context, id int64, from, to string, stamps StatusStamps) (bool, error)
	AppendNote(ctx context.Context, id int64, note string) error
	Delete(ctx context.Context, id int64) error
	// CountedItemCodes devuelve, de entre codes, los artículos con conteo creado en el rango y almacén.
	CountedItemCodes(ctx context.Context, branchID int64, almacen int, from, to time.Time, codes []string) ([]string, error)
}
