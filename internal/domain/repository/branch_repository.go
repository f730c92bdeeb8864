package repository

import (
	"context"

	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
)

// BranchRepository define el puerto de persistencia de la topología de sucursales (DIP).
type BranchRepository interface {
	Create(ctx context.Context, branch *entity.Branch) error
	GetByID(ctx context.Context, id int64) (*entity.Branch, error)
	Update(ctx context.Context, branch *entity.Branch) error
	List(ctx context.Context, onlyActive bool) ([]*entity.Branch, error)
	Delete(ctx context.Context, id int64) error
}
