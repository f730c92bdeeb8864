package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ACasillas1999/Inventarios-sub001/internal/domain"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/repository"
)

var _ repository.CountRepository = (*CountRepo)(nil)

const countColumns = `id, folio, COALESCE(batch_id::text, ''), branch_id, almacen, type, classification, priority,
	status, responsible_user_id, created_by_user_id, assigned_at, started_at, finished_at, closed_at,
	tolerance_percentage, notes, created_at, updated_at`

// CountRepo implementación de CountRepository sobre PostgreSQL (usable con pool o tx).
type CountRepo struct {
	q Querier
}

// NewCountRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCountRepository(q Querier) *CountRepo {
	return &CountRepo{q: q}
}

// Create inserta el conteo y completa ID y fechas.
func (r *CountRepo) Create(ctx context.Context, c *entity.Count) error {
	query := `
		INSERT INTO counts (folio, batch_id, branch_id, almacen, type, classification, priority, status,
			responsible_user_id, created_by_user_id, assigned_at, started_at, finished_at, closed_at,
			tolerance_percentage, notes)
		VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at`
	err := r.q.QueryRow(ctx, query,
		c.Folio, c.BatchID, c.BranchID, c.Almacen, c.Type, c.Classification, c.Priority, c.Status,
		c.ResponsibleUserID, c.CreatedByUserID, c.AssignedAt, c.StartedAt, c.FinishedAt, c.ClosedAt,
		c.TolerancePercentage, c.Notes,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert count %s: %w", c.Folio, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert count: %w", err)
	}
	return nil
}

// GetByID obtiene un conteo; nil,nil si no existe.
func (r *CountRepo) GetByID(ctx context.Context, id int64) (*entity.Count, error) {
	c, err := scanCount(r.q.QueryRow(ctx, `SELECT `+countColumns+` FROM counts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get count: %w", err)
	}
	return c, nil
}

// GetByIDs obtiene varios conteos en una sola consulta, ordenados por ID.
func (r *CountRepo) GetByIDs(ctx context.Context, ids []int64) ([]*entity.Count, error) {
	if len(ids) == 0 {
		return []*entity.Count{}, nil
	}
	rows, err := r.q.Query(ctx, `SELECT `+countColumns+` FROM counts WHERE id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("get counts: %w", err)
	}
	defer rows.Close()
	return collectCounts(rows)
}

// List lista conteos con filtros y paginación; devuelve también el total sin paginar.
func (r *CountRepo) List(ctx context.Context, f entity.CountFilter) ([]*entity.Count, int, error) {
	var w whereBuilder
	if f.BranchID != 0 {
		w.add("branch_id = ?", f.BranchID)
	}
	if f.Almacen != 0 {
		w.add("almacen = ?", f.Almacen)
	}
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	if f.Classification != "" {
		w.add("classification = ?", f.Classification)
	}
	if f.ResponsibleUserID != 0 {
		w.add("responsible_user_id = ?", f.ResponsibleUserID)
	}
	if f.Folio != "" {
		w.add(`folio ILIKE ? ESCAPE '\'`, "%"+escapeLike(f.Folio)+"%")
	}
	if f.From != nil {
		w.add("created_at >= ?", *f.From)
	}
	if f.To != nil {
		w.add("created_at <= ?", *f.To)
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM counts`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count counts: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	args := append(w.args, limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s FROM counts%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		countColumns, w.String(), len(w.args)+1, len(w.args)+2)
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list counts: %w", err)
	}
	defer rows.Close()
	list, err := collectCounts(rows)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// Update persiste los campos editables (responsable, prioridad, notas, tolerancia, asignación).
func (r *CountRepo) Update(ctx context.Context, c *entity.Count) error {
	query := `
		UPDATE counts SET responsible_user_id = $2, priority = $3, notes = $4, tolerance_percentage = $5,
			assigned_at = $6, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`
	err := r.q.QueryRow(ctx, query,
		c.ID, c.ResponsibleUserID, c.Priority, c.Notes, c.TolerancePercentage, c.AssignedAt,
	).Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("update count: %w", err)
	}
	return nil
}

// UpdateStatus cambia el estatus condicionado al estatus actual (status = from).
func (r *CountRepo) UpdateStatus(ctx context.Context, id int64, from, to string, st repository.StatusStamps) (bool, error) {
	query := `
		UPDATE counts SET status = $3,
			started_at = COALESCE($4, started_at),
			finished_at = COALESCE($5, finished_at),
			closed_at = COALESCE($6, closed_at),
			updated_at = now()
		WHERE id = $1 AND status = $2`
	cmd, err := r.q.Exec(ctx, query, id, from, to, st.StartedAt, st.FinishedAt, st.ClosedAt)
	if err != nil {
		return false, fmt.Errorf("update count status: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

// AppendNote agrega una línea a las notas del conteo.
func (r *CountRepo) AppendNote(ctx context.Context, id int64, note string) error {
	query := `
		UPDATE counts SET notes = CASE WHEN notes = '' THEN $2 ELSE notes || E'\n' || $2 END, updated_at = now()
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query, id, note)
	if err != nil {
		return fmt.Errorf("append count note: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete borra el conteo y sus renglones. Si tiene solicitudes de ajuste la llave foránea
// lo impide y se devuelve domain.ErrConflict.
func (r *CountRepo) Delete(ctx context.Context, id int64) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM counts WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("delete count: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CountedItemCodes artículos de codes con conteo creado en [from, to] para la sucursal y almacén.
func (r *CountRepo) CountedItemCodes(ctx context.Context, branchID int64, almacen int, from, to time.Time, codes []string) ([]string, error) {
	if len(codes) == 0 {
		return []string{}, nil
	}
	upper := make([]string, len(codes))
	for i, c := range codes {
		upper[i] = strings.ToUpper(c)
	}
	query := `
		SELECT DISTINCT d.item_code
		FROM count_details d
		JOIN counts c ON c.id = d.count_id
		WHERE c.branch_id = $1 AND c.almacen = $2 AND c.created_at BETWEEN $3 AND $4
			AND UPPER(d.item_code) = ANY($5)`
	rows, err := r.q.Query(ctx, query, branchID, almacen, from, to, upper)
	if err != nil {
		return nil, fmt.Errorf("counted item codes: %w", err)
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan item code: %w", err)
		}
		out = append(out, code)
	}
	return out, rows.Err()
}

func scanCount(row pgx.Row) (*entity.Count, error) {
	var c entity.Count
	err := row.Scan(
		&c.ID, &c.Folio, &c.BatchID, &c.BranchID, &c.Almacen, &c.Type, &c.Classification, &c.Priority,
		&c.Status, &c.ResponsibleUserID, &c.CreatedByUserID, &c.AssignedAt, &c.StartedAt, &c.FinishedAt,
		&c.ClosedAt, &c.TolerancePercentage, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectCounts(rows pgx.Rows) ([]*entity.Count, error) {
	list := []*entity.Count{}
	for rows.Next() {
		c, err := scanCount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}
