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

var _ repository.BranchRepository = (*BranchRepo)(nil)

// Sealer cifra y descifra la contraseña de la sucursal (ver pkg/secret).
type Sealer interface {
	Seal(plain string) (string, error)
	Open(sealed string) (string, error)
}

const branchColumns = `id, code, name, host, port, db_user, db_password, db_name, charset, active, created_at, updated_at`

// BranchRepo topología de sucursales persistida localmente; la contraseña se guarda cifrada.
type BranchRepo struct {
	q   Querier
	box Sealer
}

// NewBranchRepository construye el adaptador.
func NewBranchRepository(q Querier, box Sealer) *BranchRepo {
	return &BranchRepo{q: q, box: box}
}

// Create inserta la sucursal. Un código repetido es ErrDuplicate.
func (r *BranchRepo) Create(ctx context.Context, b *entity.Branch) error {
	sealed, err := r.box.Seal(b.Password)
	if err != nil {
		return fmt.Errorf("cifrar contraseña de sucursal: %w", err)
	}
	query := `
		INSERT INTO branches (code, name, host, port, db_user, db_password, db_name, charset, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`
	err = r.q.QueryRow(ctx, query,
		b.Code, b.Name, b.Host, b.Port, b.User, sealed, b.Database, b.Charset, b.Active,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sucursal %s: %w", b.Code, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert branch: %w", err)
	}
	return nil
}

// GetByID obtiene la sucursal con la contraseña descifrada; nil,nil si no existe.
func (r *BranchRepo) GetByID(ctx context.Context, id int64) (*entity.Branch, error) {
	b, err := r.scan(r.q.QueryRow(ctx, `SELECT `+branchColumns+` FROM branches WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get branch: %w", err)
	}
	return b, nil
}

// Update reemplaza la configuración. Password vacío conserva la contraseña guardada.
func (r *BranchRepo) Update(ctx context.Context, b *entity.Branch) error {
	sealed := ""
	if b.Password != "" {
		s, err := r.box.Seal(b.Password)
		if err != nil {
			return fmt.Errorf("cifrar contraseña de sucursal: %w", err)
		}
		sealed = s
	}
	query := `
		UPDATE branches SET code = $2, name = $3, host = $4, port = $5, db_user = $6,
			db_password = CASE WHEN $7 = '' THEN db_password ELSE $7 END,
			db_name = $8, charset = $9, active = $10, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`
	err := r.q.QueryRow(ctx, query,
		b.ID, b.Code, b.Name, b.Host, b.Port, b.User, sealed, b.Database, b.Charset, b.Active,
	).Scan(&b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("sucursal %s: %w", b.Code, domain.ErrDuplicate)
		}
		return fmt.Errorf("update branch: %w", err)
	}
	return nil
}

// List sucursales ordenadas por ID.
func (r *BranchRepo) List(ctx context.Context, onlyActive bool) ([]*entity.Branch, error) {
	query := `SELECT ` + branchColumns + ` FROM branches`
	if onlyActive {
		query += ` WHERE active`
	}
	rows, err := r.q.Query(ctx, query+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	defer rows.Close()
	list := []*entity.Branch{}
	for rows.Next() {
		b, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan branch: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// Delete borra la sucursal.
func (r *BranchRepo) Delete(ctx context.Context, id int64) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM branches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete branch: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *BranchRepo) scan(row pgx.Row) (*entity.Branch, error) {
	var b entity.Branch
	var sealed string
	err := row.Scan(&b.ID, &b.Code, &b.Name, &b.Host, &b.Port, &b.User, &sealed, &b.Database, &b.Charset,
		&b.Active, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if b.Password, err = r.box.Open(sealed); err != nil {
		return nil, fmt.Errorf("sucursal %s: %w", b.Code, err)
	}
	return &b, nil
}
