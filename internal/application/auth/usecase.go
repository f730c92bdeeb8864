package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/repository"
	"github.com/ACasillas1999/Inventarios-sub001/pkg/logger"
)

// DefaultDecisionTTL tiempo que se recuerda una decisión de permiso.
const DefaultDecisionTTL = time.Minute

// PermissionChecker resuelve si un usuario tiene un permiso. Se construye una sola vez en el
// arranque con una referencia explícita al repositorio; el rol admin tiene todos los permisos.
type PermissionChecker struct {
	users     repository.UserRepository
	decisions *expirable.LRU[string, bool]
	log       *logger.Logger
}

// NewPermissionChecker construye el verificador. ttl <= 0 usa DefaultDecisionTTL.
func NewPermissionChecker(users repository.UserRepository, ttl time.Duration, log *logger.Logger) *PermissionChecker {
	if ttl <= 0 {
		ttl = DefaultDecisionTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &PermissionChecker{
		users:     users,
		decisions: expirable.NewLRU[string, bool](4096, nil, ttl),
		log:       log.Named("permissions"),
	}
}

// HasPermission consulta la base solo si la decisión no está en memoria.
// Un error de la base no se recuerda y se devuelve al llamador.
func (p *PermissionChecker) HasPermission(ctx context.Context, userID int64, role, permission string) (bool, error) {
	if role == entity.RoleAdmin {
		return true, nil
	}
	if userID <= 0 || permission == "" {
		return false, nil
	}
	key := strconv.FormatInt(userID, 10) + "|" + permission
	if ok, hit := p.decisions.Get(key); hit {
		return ok, nil
	}
	ok, err := p.users.HasPermission(ctx, userID, permission)
	if err != nil {
		return false, fmt.Errorf("verificar permiso %s: %w", permission, err)
	}
	p.decisions.Add(key, ok)
	if !ok {
		p.log.Debug().Int64("user_id", userID).Str("permission", permission).Msg("permiso denegado")
	}
	return ok, nil
}

// Forget descarta las decisiones recordadas (tras cambiar roles o permisos).
func (p *PermissionChecker) Forget() {
	p.decisions.Purge()
}
