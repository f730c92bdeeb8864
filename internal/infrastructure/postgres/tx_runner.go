package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ACasillas1999/Inventarios-sub001/internal/application/counts"
	"github.com/ACasillas1999/Inventarios-sub001/internal/application/requests"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/repository"
)

// Ensure TxRunner implements counts.TxRunner and requests.TxRunner.
var _ counts.TxRunner = (*TxRunner)(nil)
var _ requests.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunCounts inicia una transacción con repos de conteos y renglones atados a la tx.
func (r *TxRunner) RunCounts(ctx context.Context, fn func(
	countRepo repository.CountRepository,
	detailRepo repository.CountDetailRepository,
) error) error {
	return r.run(ctx, func(tx pgx.Tx) error {
		return fn(NewCountRepository(tx), NewCountDetailRepository(tx))
	})
}

// RunRequests inicia una transacción con el repo de solicitudes (creación por lote todo o nada).
func (r *TxRunner) RunRequests(ctx context.Context, fn func(requestRepo repository.RequestRepository) error) error {
	return r.run(ctx, func(tx pgx.Tx) error {
		return fn(NewRequestRepository(tx))
	})
}

func (r *TxRunner) run(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
