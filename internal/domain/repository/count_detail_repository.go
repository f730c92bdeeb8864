package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
)

// CountDetailRepository define el puerto de persistencia para CountDetail (DIP).
type CountDetailRepository interface {
	Create(ctx context.Context, detail *entity.CountDetail) error
	GetByID(ctx context.Context, id int64) (*entity.CountDetail, error)
	GetByCountAndItem(ctx context.Context, countID int64, itemCode string) (*entity.CountDetail, error)
	ListByCount(ctx context.Context, countID int64) ([]*entity.CountDetail, error)
	// UpdateCapture guarda existencia contada, diferencia, porcentaje, fecha y usuario de captura.
	UpdateCapture(ctx context.Context, detail *entity.CountDetail) error
	// UpdateSystemStock refresca la existencia del sistema (y recalcula diferencias si ya hay captura).
	UpdateSystemStock(ctx context.Context, id int64, systemStock decimal.Decimal, diff, pct *decimal.Decimal) error
	// CountPending cuenta los renglones del conteo sin captura (counted_at IS NULL).
	CountPending(ctx context.Context, countID int64) (int, error)
}
