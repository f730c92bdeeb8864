package repository

import (
	"context"

	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
)

// UserRepository puerto de lectura de usuarios y permisos (la administración vive en otro servicio).
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	HasPermission(ctx context.Context, userID int64, permission string) (bool, error)
}
