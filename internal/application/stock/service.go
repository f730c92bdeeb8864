package stock

import (
	"context"
	"errors"
	"strings"

	"github.com/ACasillas1999/Inventarios-sub001/internal/domain"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
	"github.com/ACasillas1999/Inventarios-sub001/pkg/logger"
)

// Catalog lecturas de sucursal que respaldan la caché (ver branchdb.Catalog).
type Catalog interface {
	StockForItems(ctx context.Context, branchID int64, codes []string) (map[string]entity.StockSnapshot, error)
	SearchItems(ctx context.Context, branchID int64, f entity.ItemFilter) ([]entity.ItemListing, error)
	ItemAcrossBranches(ctx context.Context, code string) (entity.ItemRecord, bool)
}

// Cache caché de existencias, artículos y listados (ver cache.StockCache).
type Cache interface {
	GetMultiple(ctx context.Context, branchID int64, codes []string, load func(ctx context.Context, codes []string) (map[string]entity.StockSnapshot, error)) (map[string]entity.StockSnapshot, error)
	GetItem(ctx context.Context, itemCode string) (entity.ItemRecord, bool)
	SetItem(ctx context.Context, rec entity.ItemRecord)
	GetListing(ctx context.Context, branchID int64, f entity.ItemFilter) ([]entity.ItemListing, bool)
	SetListing(ctx context.Context, branchID int64, f entity.ItemFilter, rows []entity.ItemListing)
	Invalidate(ctx context.Context, branchID int64, itemCode string) (int, error)
}

// Service consultas de existencias y artículos con caché al frente. En rutas de lectura una
// sucursal caída degrada a resultado vacío o cero; no es un error para el llamador.
type Service struct {
	catalog Catalog
	cache   Cache
	log     *logger.Logger
}

// NewService construye el servicio.
func NewService(catalog Catalog, cache Cache, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{catalog: catalog, cache: cache, log: log.Named("stock")}
}

// Stock existencias por almacén de los artículos en una sucursal.
func (s *Service) Stock(ctx context.Context, branchID int64, codes []string) (map[string]entity.StockSnapshot, error) {
	if branchID <= 0 {
		return nil, domain.ErrInvalidInput
	}
	clean := make([]string, 0, len(codes))
	for _, c := range codes {
		if c = strings.TrimSpace(c); c != "" {
			clean = append(clean, c)
		}
	}
	if len(clean) == 0 {
		return nil, domain.ErrNoItems
	}
	out, err := s.cache.GetMultiple(ctx, branchID, clean, func(ctx context.Context, missing []string) (map[string]entity.StockSnapshot, error) {
		return s.catalog.StockForItems(ctx, branchID, missing)
	})
	if err != nil {
		if degradable(err) {
			s.log.Warn().Err(err).Int64("branch_id", branchID).Msg("existencias no disponibles; se devuelve lo cacheado")
			return out, nil
		}
		return nil, err
	}
	return out, nil
}

// Item artículo con sus existencias en todas las sucursales conectadas.
func (s *Service) Item(ctx context.Context, code string) (entity.ItemRecord, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return entity.ItemRecord{}, domain.ErrInvalidInput
	}
	if rec, ok := s.cache.GetItem(ctx, code); ok {
		return rec, nil
	}
	rec, ok := s.catalog.ItemAcrossBranches(ctx, code)
	if !ok {
		return entity.ItemRecord{}, domain.ErrNotFound
	}
	s.cache.SetItem(ctx, rec)
	return rec, nil
}

// Search listado de artículos de una sucursal.
func (s *Service) Search(ctx context.Context, branchID int64, f entity.ItemFilter) ([]entity.ItemListing, error) {
	if branchID <= 0 {
		return nil, domain.ErrInvalidInput
	}
	if rows, ok := s.cache.GetListing(ctx, branchID, f); ok {
		return rows, nil
	}
	rows, err := s.catalog.SearchItems(ctx, branchID, f)
	if err != nil {
		if degradable(err) {
			s.log.Warn().Err(err).Int64("branch_id", branchID).Msg("listado no disponible; se devuelve vacío")
			return []entity.ItemListing{}, nil
		}
		return nil, err
	}
	s.cache.SetListing(ctx, branchID, f, rows)
	return rows, nil
}

// Invalidate borra la caché de un artículo o de toda la sucursal.
func (s *Service) Invalidate(ctx context.Context, branchID int64, itemCode string) (int, error) {
	if branchID <= 0 {
		return 0, domain.ErrInvalidInput
	}
	return s.cache.Invalidate(ctx, branchID, strings.TrimSpace(itemCode))
}

func degradable(err error) bool {
	return errors.Is(err, domain.ErrBranchUnavailable) || errors.Is(err, domain.ErrCatalogUnavailable)
}
