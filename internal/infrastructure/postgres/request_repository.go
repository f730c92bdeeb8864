package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ACasillas1999/Inventarios-sub001/internal/domain"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/repository"
)

var _ repository.RequestRepository = (*RequestRepo)(nil)

const requestColumns = `id, folio, count_id, count_detail_id, branch_id, item_code, system_stock, counted_stock,
	difference, status, requested_by_user_id, reviewed_by_user_id, reviewed_at, resolution_notes, evidence_file,
	created_at, updated_at`

// RequestRepo implementación de RequestRepository sobre PostgreSQL (usable con pool o tx).
type RequestRepo struct {
	q Querier
}

// NewRequestRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRequestRepository(q Querier) *RequestRepo {
	return &RequestRepo{q: q}
}

// CreateBatch inserta todas las solicitudes con un solo viaje (pgx.Batch).
// Un renglón que ya tiene solicitud viola el índice único y se reporta como ErrDuplicate.
func (r *RequestRepo) CreateBatch(ctx context.Context, reqs []*entity.Request) error {
	if len(reqs) == 0 {
		return nil
	}
	query := `
		INSERT INTO adjustment_requests (folio, count_id, count_detail_id, branch_id, item_code, system_stock,
			counted_stock, difference, status, requested_by_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`
	batch := &pgx.Batch{}
	for _, req := range reqs {
		batch.Queue(query,
			req.Folio, req.CountID, req.CountDetailID, req.BranchID, req.ItemCode, req.SystemStock,
			req.CountedStock, req.Difference, req.Status, req.RequestedByUserID,
		).QueryRow(func(row pgx.Row) error {
			return row.Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
		})
	}
	if err := r.q.SendBatch(ctx, batch).Close(); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert requests: %w", domain.ErrDuplicate)
		}
		return fmt.Errorf("insert requests: %w", err)
	}
	return nil
}

// GetByID obtiene una solicitud; nil,nil si no existe.
func (r *RequestRepo) GetByID(ctx context.Context, id int64) (*entity.Request, error) {
	req, err := scanRequest(r.q.QueryRow(ctx, `SELECT `+requestColumns+` FROM adjustment_requests WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get request: %w", err)
	}
	return req, nil
}

// List lista solicitudes con filtros y paginación; devuelve también el total sin paginar.
func (r *RequestRepo) List(ctx context.Context, f entity.RequestFilter) ([]*entity.Request, int, error) {
	var w whereBuilder
	if f.BranchID != 0 {
		w.add("branch_id = ?", f.BranchID)
	}
	if f.CountID != 0 {
		w.add("count_id = ?", f.CountID)
	}
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	if f.ItemCode != "" {
		w.add("UPPER(item_code) = UPPER(?)", f.ItemCode)
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM adjustment_requests`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count requests: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	args := append(w.args, limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s FROM adjustment_requests%s ORDER BY id LIMIT $%d OFFSET $%d`,
		requestColumns, w.String(), len(w.args)+1, len(w.args)+2)
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()
	list := []*entity.Request{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan request: %w", err)
		}
		list = append(list, req)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// Update persiste estatus, revisión, notas y evidencia condicionado al estatus leído.
func (r *RequestRepo) Update(ctx context.Context, req *entity.Request, fromStatus string) error {
	query := `
		UPDATE adjustment_requests SET status = $2, reviewed_by_user_id = $3, reviewed_at = $4,
			resolution_notes = $5, evidence_file = $6, updated_at = now()
		WHERE id = $1 AND status = $7
		RETURNING updated_at`
	err := r.q.QueryRow(ctx, query,
		req.ID, req.Status, req.ReviewedByUserID, req.ReviewedAt, req.ResolutionNotes, req.EvidenceFile, fromStatus,
	).Scan(&req.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("update request: %w", err)
	}
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM adjustment_requests WHERE id = $1)`, req.ID).Scan(&exists); err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	if exists {
		return domain.ErrConflict
	}
	return domain.ErrNotFound
}

// DetailIDsWithRequest renglones del conteo que ya tienen solicitud, en una sola consulta.
func (r *RequestRepo) DetailIDsWithRequest(ctx context.Context, countID int64) (map[int64]bool, error) {
	rows, err := r.q.Query(ctx, `SELECT count_detail_id FROM adjustment_requests WHERE count_id = $1`, countID)
	if err != nil {
		return nil, fmt.Errorf("detail ids with request: %w", err)
	}
	defer rows.Close()
	out := map[int64]bool{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan detail id: %w", err)
		}
		out[id] = true
	}
	return out, rows.Err()
}

func scanRequest(row pgx.Row) (*entity.Request, error) {
	var req entity.Request
	err := row.Scan(
		&req.ID, &req.Folio, &req.CountID, &req.CountDetailID, &req.BranchID, &req.ItemCode, &req.SystemStock,
		&req.CountedStock, &req.Difference, &req.Status, &req.RequestedByUserID, &req.ReviewedByUserID,
		&req.ReviewedAt, &req.ResolutionNotes, &req.EvidenceFile, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}
