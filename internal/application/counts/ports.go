package counts

import (
	"context"

	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción local con repositorios atados a ella.
// Las consultas a sucursales nunca forman parte de la transacción.
type TxRunner interface {
	RunCounts(ctx context.Context, fn func(
		countRepo repository.CountRepository,
		detailRepo repository.CountDetailRepository,
	) error) error
}

// Catalog consultas de catálogo de sucursal que usa el motor (ver branchdb.Catalog).
type Catalog interface {
	ExistingCodes(ctx context.Context, branchID int64, codes []string) ([]string, error)
	SeedRows(ctx context.Context, branchID int64, almacen int, codes []string) ([]entity.SeedRow, error)
}

// FolioAllocator reserva bloques contiguos de folios.
type FolioAllocator interface {
	Next(ctx context.Context, scope string, n int) ([]string, error)
}

// RequestDeriver genera solicitudes de ajuste de un conteo cerrado.
type RequestDeriver interface {
	DeriveFromCount(ctx context.Context, countID, actorID int64) ([]*entity.Request, error)
}

// StockInvalidator invalida la caché de existencias de una sucursal.
type StockInvalidator interface {
	Invalidate(ctx context.Context, branchID int64, itemCode string) (int, error)
}
