package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo lectura de usuarios y permisos sobre PostgreSQL.
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador de lectura de usuarios.
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

// GetByID obtiene un usuario por ID; nil,nil si no existe.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	query := `SELECT id, name, email, role, active FROM users WHERE id = $1`
	var u entity.User
	err := r.q.QueryRow(ctx, query, id).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// HasPermission permiso directo del usuario o heredado de su rol. Un usuario inactivo no tiene permisos.
func (r *UserRepo) HasPermission(ctx context.Context, userID int64, permission string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM users u
			WHERE u.id = $1 AND u.active AND (
				EXISTS (SELECT 1 FROM user_permissions up WHERE up.user_id = u.id AND up.permission = $2)
				OR EXISTS (SELECT 1 FROM role_permissions rp WHERE rp.role = u.role AND rp.permission = $2)
			)
		)`
	var ok bool
	if err := r.q.QueryRow(ctx, query, userID, permission).Scan(&ok); err != nil {
		return false, fmt.Errorf("has permission: %w", err)
	}
	return ok, nil
}
