// Package branches administra la topología de sucursales y expone su salud.
// Cada alta, edición o baja se persiste primero y después se refleja en el registro de conexiones.
package branches

import (
	"context"
	"fmt"
	"strings"

	"github.com/ACasillas1999/Inventarios-sub001/internal/application/ports"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/repository"
	"github.com/ACasillas1999/Inventarios-sub001/pkg/logger"
)

// Registry registro de conexiones por sucursal (ver branchdb.Registry).
type Registry interface {
	Initialize(ctx context.Context, branches []entity.Branch)
	AddOrReplace(ctx context.Context, b entity.Branch) entity.BranchStatus
	Remove(id int64) bool
	Statuses() []entity.BranchStatus
	CheckAll(ctx context.Context)
}

// StockInvalidator limpia la caché de la sucursal cuando cambia su conexión.
type StockInvalidator interface {
	Invalidate(ctx context.Context, branchID int64, itemCode string) (int, error)
}

// Input datos de alta/edición. En edición, Password vacío conserva la contraseña guardada.
type Input struct {
	Code     string
	Name     string
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Charset  string
	Active   *bool
	ActorID  int64
}

// Service casos de uso de sucursales.
type Service struct {
	repo     repository.BranchRepository
	registry Registry
	cache    StockInvalidator
	audit    ports.AuditLog
	log      *logger.Logger
}

// NewService construye el servicio. cache y audit pueden ser nil.
func NewService(repo repository.BranchRepository, registry Registry, cache StockInvalidator, audit ports.AuditLog, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repo: repo, registry: registry, cache: cache, audit: audit, log: log.Named("branches")}
}

// Load lee las sucursales activas y abre sus conexiones. Una sucursal inaccesible no detiene el arranque.
func (s *Service) Load(ctx context.Context) (int, error) {
	list, err := s.repo.List(ctx, true)
	if err != nil {
		return 0, fmt.Errorf("cargar sucursales: %w", err)
	}
	branches := make([]entity.Branch, len(list))
	for i, b := range list {
		branches[i] = *b
	}
	s.registry.Initialize(ctx, branches)
	return len(branches), nil
}

// List todas las sucursales configuradas (activas e inactivas).
func (s *Service) List(ctx context.Context) ([]*entity.Branch, error) {
	return s.repo.List(ctx, false)
}

// Get una sucursal; ErrNotFound si no existe.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Branch, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

// Create da de alta la sucursal y, si está activa, la conecta.
func (s *Service) Create(ctx context.Context, in Input) (*entity.Branch, *entity.BranchStatus, error) {
	b := &entity.Branch{Active: true}
	apply(b, in)
	if err := validate(b); err != nil {
		return nil, nil, err
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, nil, err
	}
	s.record(ctx, in.ActorID, "branch.created", b.ID, nil, redacted(b))

	var st *entity.BranchStatus
	if b.Active {
		status := s.registry.AddOrReplace(ctx, *b)
		st = &status
	}
	return b, st, nil
}

// Update edita la configuración y reemplaza la conexión (o la quita si se desactiva).
func (s *Service) Update(ctx context.Context, id int64, in Input) (*entity.Branch, *entity.BranchStatus, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	before := redacted(b)
	apply(b, in)
	if err := validate(b); err != nil {
		return nil, nil, err
	}
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, nil, err
	}
	// Lo guardado puede conservar la contraseña anterior; se relee para conectar con la vigente.
	if in.Password == "" {
		if fresh, err := s.repo.GetByID(ctx, id); err == nil && fresh != nil {
			b = fresh
		}
	}
	s.record(ctx, in.ActorID, "branch.updated", b.ID, before, redacted(b))
	s.invalidate(ctx, b.ID)

	if !b.Active {
		s.registry.Remove(b.ID)
		return b, nil, nil
	}
	status := s.registry.AddOrReplace(ctx, *b)
	return b, &status, nil
}

// Delete borra la sucursal y cierra su conexión.
func (s *Service) Delete(ctx context.Context, id, actorID int64) error {
	b, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.registry.Remove(id)
	s.invalidate(ctx, id)
	s.record(ctx, actorID, "branch.deleted", id, redacted(b), nil)
	return nil
}

// Health estatus de conexión por sucursal, ordenado por ID.
func (s *Service) Health() []entity.BranchStatus {
	return s.registry.Statuses()
}

// Recheck fuerza un chequeo inmediato de todas las sucursales y devuelve el resultado.
func (s *Service) Recheck(ctx context.Context) []entity.BranchStatus {
	s.registry.CheckAll(ctx)
	return s.registry.Statuses()
}

func (s *Service) invalidate(ctx context.Context, branchID int64) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Invalidate(ctx, branchID, ""); err != nil {
		s.log.Warn().Err(err).Int64("branch_id", branchID).Msg("no se pudo invalidar la caché de la sucursal")
	}
}

func (s *Service) record(ctx context.Context, actorID int64, action string, id int64, oldValues, newValues any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Append(ctx, ports.AuditEntry{
		ActorID: actorID, Action: action, EntityType: "branch", EntityID: id,
		OldValues: oldValues, NewValues: newValues,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("action", action).Int64("branch_id", id).Msg("auditoría no registrada")
	}
}

func apply(b *entity.Branch, in Input) {
	if v := strings.TrimSpace(in.Code); v != "" {
		b.Code = strings.ToUpper(v)
	}
	if v := strings.TrimSpace(in.Name); v != "" {
		b.Name = v
	}
	if v := strings.TrimSpace(in.Host); v != "" {
		b.Host = v
	}
	if in.Port > 0 {
		b.Port = in.Port
	}
	if v := strings.TrimSpace(in.User); v != "" {
		b.User = v
	}
	if in.Password != "" {
		b.Password = in.Password
	}
	if v := strings.TrimSpace(in.Database); v != "" {
		b.Database = v
	}
	if v := strings.TrimSpace(in.Charset); v != "" {
		b.Charset = strings.ToLower(v)
	}
	if in.Active != nil {
		b.Active = *in.Active
	}
	if b.Port == 0 {
		b.Port = 3306
	}
	if b.Charset == "" {
		b.Charset = "utf8mb4"
	}
}

func validate(b *entity.Branch) error {
	missing := []string{}
	for _, f := range [][2]string{{"code", b.Code}, {"name", b.Name}, {"host", b.Host}, {"user", b.User}, {"database", b.Database}} {
		if f[1] == "" {
			missing = append(missing, f[0])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: faltan campos de sucursal %v", domain.ErrInvalidInput, missing)
	}
	if b.Port <= 0 || b.Port > 65535 {
		return fmt.Errorf("%w: puerto inválido %d", domain.ErrInvalidInput, b.Port)
	}
	switch b.Charset {
	case "utf8mb4", "utf8", "latin1":
	default:
		return fmt.Errorf("%w: charset no soportado %q", domain.ErrInvalidInput, b.Charset)
	}
	return nil
}

// redacted copia para auditoría sin la contraseña.
func redacted(b *entity.Branch) map[string]any {
	return map[string]any{
		"code": b.Code, "name": b.Name, "host": b.Host, "port": b.Port,
		"user": b.User, "database": b.Database, "charset": b.Charset, "active": b.Active,
	}
}
