package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
	"github.com/ACasillas1999/Inventarios-sub001/pkg/logger"
)

// TTL por defecto: existencias cambian mucho más que el catálogo.
const (
	DefaultStockTTL = 2 * time.Minute
	DefaultItemTTL  = time.Hour
)

const (
	kindStock   = "stock"
	kindItem    = "item"
	kindListing = "listing"
)

// Observer recibe aciertos y fallos por tipo de entrada. Ver infrastructure/metrics.
type Observer interface {
	CacheLookup(kind string, hits, misses int)
}

type nopObserver struct{}

func (nopObserver) CacheLookup(string, int, int) {}

// StockLoader trae de la sucursal las existencias de los códigos que faltan en caché.
type StockLoader = func(ctx context.Context, codes []string) (map[string]entity.StockSnapshot, error)

// Options TTL de la caché.
type Options struct {
	StockTTL time.Duration
	ItemTTL  time.Duration
}

// StockCache caché de existencias por sucursal/artículo, artículos y listados.
// Los errores del almacén se registran y se tratan como fallo de caché.
type StockCache struct {
	store    Store
	stockTTL time.Duration
	itemTTL  time.Duration
	log      *logger.Logger
	obs      Observer
	now      func() time.Time
}

// NewStockCache crea la caché. obs puede ser nil.
func NewStockCache(store Store, opts Options, log *logger.Logger, obs Observer) *StockCache {
	if opts.StockTTL <= 0 {
		opts.StockTTL = DefaultStockTTL
	}
	if opts.ItemTTL <= 0 {
		opts.ItemTTL = DefaultItemTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	if obs == nil {
		obs = nopObserver{}
	}
	return &StockCache{
		store:    store,
		stockTTL: opts.StockTTL,
		itemTTL:  opts.ItemTTL,
		log:      log.Named("stock_cache"),
		obs:      obs,
		now:      time.Now,
	}
}

// StockKey inv:stock:{branch}:{item}
func StockKey(branchID int64, itemCode string) string {
	return fmt.Sprintf("inv:stock:%d:%s", branchID, itemCode)
}

// ItemKey inv:item:{item}
func ItemKey(itemCode string) string {
	return "inv:item:" + itemCode
}

// ListingKey inv:list:{branch}:{firma del filtro}
func ListingKey(branchID int64, f entity.ItemFilter) string {
	b, _ := json.Marshal(f)
	sum := sha256.Sum256(b)
	return fmt.Sprintf("inv:list:%d:%s", branchID, hex.EncodeToString(sum[:])[:16])
}

// GetStock existencias cacheadas de un artículo en una sucursal.
func (c *StockCache) GetStock(ctx context.Context, branchID int64, itemCode string) (entity.StockSnapshot, bool) {
	var snap entity.StockSnapshot
	ok := c.get(ctx, StockKey(branchID, itemCode), &snap)
	c.observe(kindStock, ok)
	return snap, ok
}

// SetStock guarda las existencias con el TTL de existencias.
func (c *StockCache) SetStock(ctx context.Context, snap entity.StockSnapshot) {
	c.set(ctx, StockKey(snap.BranchID, snap.ItemCode), snap, c.stockTTL)
}

// GetItem registro de artículo entre sucursales.
func (c *StockCache) GetItem(ctx context.Context, itemCode string) (entity.ItemRecord, bool) {
	var rec entity.ItemRecord
	ok := c.get(ctx, ItemKey(itemCode), &rec)
	c.observe(kindItem, ok)
	return rec, ok
}

// SetItem guarda el registro de artículo con el TTL de catálogo.
func (c *StockCache) SetItem(ctx context.Context, rec entity.ItemRecord) {
	c.set(ctx, ItemKey(rec.Code), rec, c.itemTTL)
}

// GetListing listado cacheado para la firma del filtro.
func (c *StockCache) GetListing(ctx context.Context, branchID int64, f entity.ItemFilter) ([]entity.ItemListing, bool) {
	var rows []entity.ItemListing
	ok := c.get(ctx, ListingKey(branchID, f), &rows)
	c.observe(kindListing, ok)
	return rows, ok
}

// SetListing guarda un listado con el TTL de catálogo.
func (c *StockCache) SetListing(ctx context.Context, branchID int64, f entity.ItemFilter, rows []entity.ItemListing) {
	if rows == nil {
		rows = []entity.ItemListing{}
	}
	c.set(ctx, ListingKey(branchID, f), rows, c.itemTTL)
}

// GetMultiple separa aciertos y fallos; solo los fallos van al loader y su resultado se
// escribe en caché antes de devolver. Los códigos que el loader no devuelve se cachean
// como existencia cero, de modo que una segunda llamada idéntica no consulta la sucursal.
func (c *StockCache) GetMultiple(ctx context.Context, branchID int64, codes []string, load StockLoader) (map[string]entity.StockSnapshot, error) {
	out := make(map[string]entity.StockSnapshot, len(codes))
	var missing []string
	for _, code := range codes {
		if _, dup := out[code]; dup {
			continue
		}
		var snap entity.StockSnapshot
		if c.get(ctx, StockKey(branchID, code), &snap) {
			out[code] = snap
			continue
		}
		missing = append(missing, code)
	}
	c.obs.CacheLookup(kindStock, len(out), len(missing))
	if len(missing) == 0 {
		return out, nil
	}

	loaded, err := load(ctx, missing)
	if err != nil {
		return out, err
	}
	now := c.now()
	for _, code := range missing {
		snap, ok := loaded[code]
		if !ok {
			snap = entity.StockSnapshot{BranchID: branchID, ItemCode: code, Warehouses: map[int]decimal.Decimal{}, Total: decimal.Zero, FetchedAt: now}
		}
		c.SetStock(ctx, snap)
		out[code] = snap
	}
	return out, nil
}

// Invalidate borra la existencia de un artículo, o todas las entradas de la sucursal si itemCode es "".
func (c *StockCache) Invalidate(ctx context.Context, branchID int64, itemCode string) (int, error) {
	if itemCode != "" {
		if err := c.store.Delete(ctx, StockKey(branchID, itemCode), ItemKey(itemCode)); err != nil {
			return 0, fmt.Errorf("invalidar caché: %w", err)
		}
		return 1, nil
	}
	total := 0
	for _, prefix := range []string{
		fmt.Sprintf("inv:stock:%d:", branchID),
		fmt.Sprintf("inv:list:%d:", branchID),
	} {
		n, err := c.store.DeletePrefix(ctx, prefix)
		total += n
		if err != nil {
			return total, fmt.Errorf("invalidar caché: %w", err)
		}
	}
	c.log.Info().Int64("branch_id", branchID).Int("keys", total).Msg("caché de sucursal invalidada")
	return total, nil
}

func (c *StockCache) get(ctx context.Context, key string, dst any) bool {
	b, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("lectura de caché fallida")
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("entrada de caché corrupta")
		return false
	}
	return true
}

func (c *StockCache) set(ctx context.Context, key string, v any, ttl time.Duration) {
	b, err := json.Marshal(v)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("no se pudo serializar entrada de caché")
		return
	}
	if err := c.store.Set(ctx, key, b, ttl); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("escritura de caché fallida")
	}
}

func (c *StockCache) observe(kind string, hit bool) {
	if hit {
		c.obs.CacheLookup(kind, 1, 0)
		return
	}
	c.obs.CacheLookup(kind, 0, 1)
}
