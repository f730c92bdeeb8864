package branchdb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ACasillas1999/Inventarios-sub001/internal/domain"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
	"github.com/ACasillas1999/Inventarios-sub001/pkg/logger"
)

// DefaultChunkSize tamaño de lote para listas IN (...) hacia las sucursales.
const DefaultChunkSize = 500

// Querier lo que Catalog necesita del ejecutor.
type Querier interface {
	Query(ctx context.Context, branchID int64, query string, params ...any) ([]Row, error)
	QueryAllFunc(ctx context.Context, build func(SchemaVariant) string, params ...any) map[int64][]Row
	Variant(branchID int64) (SchemaVariant, error)
	Reprobe(ctx context.Context, branchID int64)
}

// Catalog consultas tipadas de catálogo y existencias sobre las variantes de esquema.
type Catalog struct {
	q     Querier
	chunk int
	log   *logger.Logger
	now   func() time.Time
}

// NewCatalog crea el catálogo. chunk <= 0 usa DefaultChunkSize.
func NewCatalog(q Querier, chunk int, log *logger.Logger) *Catalog {
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Catalog{q: q, chunk: chunk, log: log.Named("branch_catalog"), now: time.Now}
}

// ExistingCodes devuelve, en el orden recibido, los códigos que existen en el catálogo de la sucursal.
// ErrCatalogUnavailable si la sucursal no tiene ninguna de las tablas de catálogo conocidas.
func (c *Catalog) ExistingCodes(ctx context.Context, branchID int64, codes []string) ([]string, error) {
	found := make(map[string]bool, len(codes))
	for _, part := range chunks(codes, c.chunk) {
		rows, err := c.query(ctx, branchID, func(v SchemaVariant) string {
			return fmt.Sprintf("SELECT %s AS code FROM %s WHERE %s IN (%s)",
				v.ItemCode, v.ItemTable, v.ItemCode, placeholders(len(part)))
		}, part)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			found[strings.ToUpper(r.String("code"))] = true
		}
	}
	out := make([]string, 0, len(found))
	for _, code := range codes {
		if found[strings.ToUpper(code)] {
			out = append(out, code)
		}
	}
	return out, nil
}

// LookupItems devuelve los metadatos de catálogo de los códigos indicados.
func (c *Catalog) LookupItems(ctx context.Context, branchID int64, codes []string) (map[string]entity.CatalogItem, error) {
	out := make(map[string]entity.CatalogItem, len(codes))
	for _, part := range chunks(codes, c.chunk) {
		rows, err := c.query(ctx, branchID, func(v SchemaVariant) string {
			return fmt.Sprintf("SELECT %s AS code, %s AS description, %s AS unit, %s AS line FROM %s WHERE %s IN (%s)",
				v.ItemCode, v.ItemDesc, v.ItemUnit, v.ItemLine, v.ItemTable, v.ItemCode, placeholders(len(part)))
		}, part)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			it := catalogItem(r)
			out[it.Code] = it
		}
	}
	return out, nil
}

// WarehouseStock existencias de un almacén para los códigos indicados. Códigos sin registro no aparecen.
func (c *Catalog) WarehouseStock(ctx context.Context, branchID int64, almacen int, codes []string) (map[string]decimal.Decimal, string, error) {
	out := make(map[string]decimal.Decimal, len(codes))
	name := ""
	for _, part := range chunks(codes, c.chunk) {
		args := append([]any{almacen}, toAny(part)...)
		rows, err := c.query(ctx, branchID, func(v SchemaVariant) string {
			return fmt.Sprintf("SELECT e.%s AS code, e.%s AS qty, a.%s AS warehouse_name FROM %s e LEFT JOIN %s a ON a.%s = e.%s WHERE e.%s = ? AND e.%s IN (%s)",
				v.StockItem, v.StockQty, v.WarehouseName, v.StockTable, v.WarehouseTable, v.WarehouseNumber,
				v.StockWarehouse, v.StockWarehouse, v.StockItem, placeholders(len(part)))
		}, args)
		if err != nil {
			return nil, "", err
		}
		for _, r := range rows {
			out[r.String("code")] = r.Decimal("qty")
			if name == "" {
				name = r.String("warehouse_name")
			}
		}
	}
	return out, name, nil
}

// WarehouseName nombre legible del almacén; "Almacén N" si la sucursal no lo tiene registrado.
func (c *Catalog) WarehouseName(ctx context.Context, branchID int64, almacen int) string {
	rows, err := c.query(ctx, branchID, func(v SchemaVariant) string {
		return fmt.Sprintf("SELECT %s AS name FROM %s WHERE %s = ? LIMIT 1", v.WarehouseName, v.WarehouseTable, v.WarehouseNumber)
	}, []any{almacen})
	if err == nil && len(rows) > 0 {
		if name := rows[0].String("name"); name != "" {
			return name
		}
	}
	if err != nil {
		c.log.Debug().Err(err).Int64("branch_id", branchID).Int("almacen", almacen).Msg("nombre de almacén no disponible")
	}
	return fallbackWarehouseName(almacen)
}

// SeedRows une catálogo y existencias del almacén para sembrar detalles de conteo.
// Artículos sin registro de existencia se siembran con cero.
func (c *Catalog) SeedRows(ctx context.Context, branchID int64, almacen int, codes []string) ([]entity.SeedRow, error) {
	items, err := c.LookupItems(ctx, branchID, codes)
	if err != nil {
		return nil, err
	}
	stock, name, err := c.WarehouseStock(ctx, branchID, almacen, codes)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = c.WarehouseName(ctx, branchID, almacen)
	}

	upper := make(map[string]entity.CatalogItem, len(items))
	for code, it := range items {
		upper[strings.ToUpper(code)] = it
	}
	upperStock := make(map[string]decimal.Decimal, len(stock))
	for code, q := range stock {
		upperStock[strings.ToUpper(code)] = q
	}

	out := make([]entity.SeedRow, 0, len(codes))
	for _, code := range codes {
		key := strings.ToUpper(code)
		it, ok := upper[key]
		if !ok {
			continue
		}
		qty, ok := upperStock[key]
		if !ok {
			qty = decimal.Zero
		}
		out = append(out, entity.SeedRow{Item: it, WarehouseID: almacen, WarehouseName: name, Stock: qty})
	}
	return out, nil
}

// StockForItems existencias por almacén de varios artículos. Todo código solicitado tiene
// instantánea en el resultado (vacía si la sucursal no registra existencia).
func (c *Catalog) StockForItems(ctx context.Context, branchID int64, codes []string) (map[string]entity.StockSnapshot, error) {
	now := c.now()
	out := make(map[string]entity.StockSnapshot, len(codes))
	byUpper := make(map[string]string, len(codes))
	for _, code := range codes {
		out[code] = entity.StockSnapshot{BranchID: branchID, ItemCode: code, Warehouses: map[int]decimal.Decimal{}, Total: decimal.Zero, FetchedAt: now}
		byUpper[strings.ToUpper(code)] = code
	}
	for _, part := range chunks(codes, c.chunk) {
		rows, err := c.query(ctx, branchID, func(v SchemaVariant) string {
			return fmt.Sprintf("SELECT %s AS code, %s AS warehouse, %s AS qty FROM %s WHERE %s IN (%s)",
				v.StockItem, v.StockWarehouse, v.StockQty, v.StockTable, v.StockItem, placeholders(len(part)))
		}, part)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			code, ok := byUpper[strings.ToUpper(r.String("code"))]
			if !ok {
				continue
			}
			snap := out[code]
			qty := r.Decimal("qty")
			wh := r.Int("warehouse")
			snap.Warehouses[wh] = snap.Warehouses[wh].Add(qty)
			snap.Total = snap.Total.Add(qty)
			out[code] = snap
		}
	}
	return out, nil
}

// StockByItem existencias de un artículo en todos los almacenes de la sucursal.
func (c *Catalog) StockByItem(ctx context.Context, branchID int64, code string) (entity.StockSnapshot, error) {
	m, err := c.StockForItems(ctx, branchID, []string{code})
	if err != nil {
		return entity.StockSnapshot{}, err
	}
	return m[code], nil
}

// SearchItems listado paginado de artículos de una sucursal con su existencia en el almacén filtrado.
func (c *Catalog) SearchItems(ctx context.Context, branchID int64, f entity.ItemFilter) ([]entity.ItemListing, error) {
	wh := f.WarehouseID
	if wh <= 0 {
		wh = entity.PrimaryWarehouse
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := c.query(ctx, branchID, func(v SchemaVariant) string {
		var b strings.Builder
		fmt.Fprintf(&b, "SELECT a.%s AS code, a.%s AS description, a.%s AS unit, a.%s AS line, COALESCE(e.%s, 0) AS qty",
			v.ItemCode, v.ItemDesc, v.ItemUnit, v.ItemLine, v.StockQty)
		fmt.Fprintf(&b, " FROM %s a LEFT JOIN %s e ON e.%s = a.%s AND e.%s = ?",
			v.ItemTable, v.StockTable, v.StockItem, v.ItemCode, v.StockWarehouse)
		b.WriteString(" WHERE 1=1")
		if f.Search != "" {
			fmt.Fprintf(&b, " AND (a.%s LIKE ? OR a.%s LIKE ?)", v.ItemCode, v.ItemDesc)
		}
		if f.Line != "" {
			fmt.Fprintf(&b, " AND a.%s = ?", v.ItemLine)
		}
		if f.OnlyInStock {
			fmt.Fprintf(&b, " AND e.%s > 0", v.StockQty)
		}
		fmt.Fprintf(&b, " ORDER BY a.%s LIMIT %d OFFSET %d", v.ItemCode, limit, offset)
		return b.String()
	}, searchArgs(wh, f))
	if err != nil {
		return nil, err
	}
	out := make([]entity.ItemListing, 0, len(rows))
	for _, r := range rows {
		out = append(out, entity.ItemListing{CatalogItem: catalogItem(r), Stock: r.Decimal("qty")})
	}
	return out, nil
}

// ItemAcrossBranches consulta un artículo en todas las sucursales conectadas. ok=false si
// ninguna lo tiene en catálogo.
func (c *Catalog) ItemAcrossBranches(ctx context.Context, code string) (entity.ItemRecord, bool) {
	results := c.q.QueryAllFunc(ctx, func(v SchemaVariant) string {
		return fmt.Sprintf("SELECT a.%s AS code, a.%s AS description, a.%s AS unit, a.%s AS line, (SELECT COALESCE(SUM(e.%s), 0) FROM %s e WHERE e.%s = a.%s) AS qty FROM %s a WHERE a.%s = ? LIMIT 1",
			v.ItemCode, v.ItemDesc, v.ItemUnit, v.ItemLine, v.StockQty, v.StockTable, v.StockItem, v.ItemCode, v.ItemTable, v.ItemCode)
	}, code)

	rec := entity.ItemRecord{StockByBranch: make(map[int64]decimal.Decimal)}
	found := false
	for branchID, rows := range results {
		if len(rows) == 0 {
			continue
		}
		if !found {
			rec.CatalogItem = catalogItem(rows[0])
			found = true
		}
		rec.StockByBranch[branchID] = rows[0].Decimal("qty")
	}
	return rec, found
}

// query ejecuta la consulta con la variante detectada. Ante "tabla inexistente" vuelve a
// sondear la variante y reintenta una vez con la alterna.
func (c *Catalog) query(ctx context.Context, branchID int64, build func(SchemaVariant) string, args any) ([]Row, error) {
	v, err := c.q.Variant(branchID)
	if err != nil {
		return nil, err
	}
	rows, err := c.q.Query(ctx, branchID, build(v), args)
	if err == nil || !IsNoSuchTable(err) {
		return rows, err
	}

	c.log.Warn().Int64("branch_id", branchID).Str("variant", v.Name).Msg("tabla inexistente; se vuelve a sondear la variante")
	c.q.Reprobe(ctx, branchID)
	alt, verr := c.q.Variant(branchID)
	if verr != nil || alt.Name == v.Name {
		alt = alternate(v)
	}
	rows, err = c.q.Query(ctx, branchID, build(alt), args)
	if err != nil && IsNoSuchTable(err) {
		return nil, fmt.Errorf("sucursal %d: %w", branchID, errors.Join(domain.ErrCatalogUnavailable, err))
	}
	return rows, err
}

func alternate(v SchemaVariant) SchemaVariant {
	for _, o := range variants {
		if o.Name != v.Name {
			return o
		}
	}
	return v
}

func catalogItem(r Row) entity.CatalogItem {
	return entity.CatalogItem{
		Code:        r.String("code"),
		Description: r.String("description"),
		Unit:        r.String("unit"),
		Line:        r.String("line"),
	}
}

func searchArgs(wh int, f entity.ItemFilter) []any {
	args := []any{wh}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		args = append(args, like, like)
	}
	if f.Line != "" {
		args = append(args, f.Line)
	}
	return args
}

func fallbackWarehouseName(almacen int) string {
	return fmt.Sprintf("Almacén %d", almacen)
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func chunks(codes []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(codes); start += size {
		end := start + size
		if end > len(codes) {
			end = len(codes)
		}
		out = append(out, codes[start:end])
	}
	return out
}

func toAny(codes []string) []any {
	out := make([]any, len(codes))
	for i, c := range codes {
		out[i] = c
	}
	return out
}
