package repository

import (
	"context"

	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
)

// RequestRepository define el puerto de persistencia para Request (DIP).
type RequestRepository interface {
	CreateBatch(ctx context.Context, requests []*entity.Request) error
	GetByID(ctx context.Context, id int64) (*entity.Request, error)
	List(ctx context.Context, filter entity.RequestFilter) ([]*entity.Request, int, error)
	// Update persiste la revisión solo si el estatus guardado sigue siendo fromStatus;
	// si otro revisor lo cambió devuelve domain.ErrConflict.
	Update(ctx context.Context, request *entity.Request, fromStatus string) error
	// DetailIDsWithRequest devuelve en una sola consulta los renglones del conteo que ya tienen solicitud.
	DetailIDsWithRequest(ctx context.Context, countID int64) (map[int64]bool, error)
}
