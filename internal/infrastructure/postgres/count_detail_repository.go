package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ACasillas1999/Inventarios-sub001/internal/domain"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/repository"
)

var _ repository.CountDetailRepository = (*CountDetailRepo)(nil)

const detailColumns = `id, count_id, item_code, item_description, unit, warehouse_id, warehouse_name, system_stock,
	counted_stock, difference, difference_percentage, counted_at, counted_by_user_id, created_at, updated_at`

// CountDetailRepo implementación de CountDetailRepository sobre PostgreSQL (usable con pool o tx).
type CountDetailRepo struct {
	q Querier
}

// NewCountDetailRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCountDetailRepository(q Querier) *CountDetailRepo {
	return &CountDetailRepo{q: q}
}

// Create inserta un renglón. Un artículo repetido en el mismo conteo es ErrDuplicate.
func (r *CountDetailRepo) Create(ctx context.Context, d *entity.CountDetail) error {
	query := `
		INSERT INTO count_details (count_id, item_code, item_description, unit, warehouse_id, warehouse_name,
			system_stock, counted_stock, difference, difference_percentage, counted_at, counted_by_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`
	err := r.q.QueryRow(ctx, query,
		d.CountID, d.ItemCode, d.ItemDescription, d.Unit, d.WarehouseID, d.WarehouseName,
		d.SystemStock, d.CountedStock, d.Difference, d.DifferencePercentage, d.CountedAt, d.CountedByUserID,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert count detail %s: %w", d.ItemCode, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert count detail: %w", err)
	}
	return nil
}

// GetByID obtiene un renglón; nil,nil si no existe.
func (r *CountDetailRepo) GetByID(ctx context.Context, id int64) (*entity.CountDetail, error) {
	d, err := scanDetail(r.q.QueryRow(ctx, `SELECT `+detailColumns+` FROM count_details WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get count detail: %w", err)
	}
	return d, nil
}

// GetByCountAndItem busca el renglón de un artículo (sin distinguir mayúsculas); nil,nil si no existe.
func (r *CountDetailRepo) GetByCountAndItem(ctx context.Context, countID int64, itemCode string) (*entity.CountDetail, error) {
	query := `SELECT ` + detailColumns + ` FROM count_details WHERE count_id = $1 AND UPPER(item_code) = UPPER($2)`
	d, err := scanDetail(r.q.QueryRow(ctx, query, countID, itemCode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get count detail by item: %w", err)
	}
	return d, nil
}

// ListByCount renglones del conteo en orden de inserción.
func (r *CountDetailRepo) ListByCount(ctx context.Context, countID int64) ([]*entity.CountDetail, error) {
	rows, err := r.q.Query(ctx, `SELECT `+detailColumns+` FROM count_details WHERE count_id = $1 ORDER BY id`, countID)
	if err != nil {
		return nil, fmt.Errorf("list count details: %w", err)
	}
	defer rows.Close()
	list := []*entity.CountDetail{}
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("scan count detail: %w", err)
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

// UpdateCapture guarda la captura del renglón.
func (r *CountDetailRepo) UpdateCapture(ctx context.Context, d *entity.CountDetail) error {
	query := `
		UPDATE count_details SET counted_stock = $2, difference = $3, difference_percentage = $4,
			counted_at = $5, counted_by_user_id = $6, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`
	err := r.q.QueryRow(ctx, query,
		d.ID, d.CountedStock, d.Difference, d.DifferencePercentage, d.CountedAt, d.CountedByUserID,
	).Scan(&d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("update count detail capture: %w", err)
	}
	return nil
}

// UpdateSystemStock refresca la existencia del sistema; diff y pct solo se escriben si hay captura.
func (r *CountDetailRepo) UpdateSystemStock(ctx context.Context, id int64, systemStock decimal.Decimal, diff, pct *decimal.Decimal) error {
	query := `
		UPDATE count_details SET system_stock = $2,
			difference = CASE WHEN counted_at IS NULL THEN difference ELSE $3 END,
			difference_percentage = CASE WHEN counted_at IS NULL THEN difference_percentage ELSE $4 END,
			updated_at = now()
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query, id, systemStock, diff, pct)
	if err != nil {
		return fmt.Errorf("update count detail system stock: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CountPending renglones del conteo sin captura.
func (r *CountDetailRepo) CountPending(ctx context.Context, countID int64) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM count_details WHERE count_id = $1 AND counted_at IS NULL`, countID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending details: %w", err)
	}
	return n, nil
}

func scanDetail(row pgx.Row) (*entity.CountDetail, error) {
	var d entity.CountDetail
	err := row.Scan(
		&d.ID, &d.CountID, &d.ItemCode, &d.ItemDescription, &d.Unit, &d.WarehouseID, &d.WarehouseName,
		&d.SystemStock, &d.CountedStock, &d.Difference, &d.DifferencePercentage, &d.CountedAt,
		&d.CountedByUserID, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
