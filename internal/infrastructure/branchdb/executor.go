package branchdb

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"golang.org/x/sync/errgroup"

	"github.com/ACasillas1999/Inventarios-sub001/internal/domain"
	"github.com/ACasillas1999/Inventarios-sub001/pkg/logger"
)

// mysqlNoSuchTable código de error de MySQL para tabla inexistente.
const mysqlNoSuchTable = 1146

// QueryError falla de una consulta en una sucursal; conserva el código del driver.
type QueryError struct {
	BranchID int64
	Code     uint16
	Err      error
}

func (e *QueryError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("sucursal %d: error %d: %v", e.BranchID, e.Code, e.Err)
	}
	return fmt.Sprintf("sucursal %d: %v", e.BranchID, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Is hace que una falla de conexión o de ejecución en la sucursal cuente como
// domain.ErrBranchUnavailable. Tabla inexistente no: es un problema de esquema.
func (e *QueryError) Is(target error) bool {
	return target == domain.ErrBranchUnavailable && !e.IsNoSuchTable()
}

// IsNoSuchTable indica si la consulta falló porque la tabla no existe.
func (e *QueryError) IsNoSuchTable() bool { return e.Code == mysqlNoSuchTable }

// IsNoSuchTable reconoce "tabla inexistente" tanto en QueryError como en el error crudo del driver.
func IsNoSuchTable(err error) bool {
	var qe *QueryError
	if errors.As(err, &qe) && qe.IsNoSuchTable() {
		return true
	}
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlNoSuchTable
}

// Source lo que el ejecutor necesita del registro.
type Source interface {
	Handle(id int64) (Handle, bool)
	Connected() []Handle
	Reprobe(ctx context.Context, id int64)
}

// Executor ejecuta consultas de lectura contra una sucursal o contra todas en paralelo.
type Executor struct {
	src     Source
	log     *logger.Logger
	metrics Metrics
	timeout time.Duration
}

// NewExecutor crea el ejecutor. timeout <= 0 deja el límite al pool; metrics puede ser nil.
func NewExecutor(src Source, timeout time.Duration, log *logger.Logger, metrics Metrics) *Executor {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Executor{src: src, log: log.Named("branch_executor"), metrics: metrics, timeout: timeout}
}

// Query ejecuta la consulta en una sucursal. ErrBranchUnavailable si no hay pool utilizable.
func (x *Executor) Query(ctx context.Context, branchID int64, query string, params ...any) ([]Row, error) {
	h, ok := x.src.Handle(branchID)
	if !ok {
		return nil, fmt.Errorf("sucursal %d: %w", branchID, domain.ErrBranchUnavailable)
	}
	return x.run(ctx, h, query, normalizeParams(params))
}

// QueryAll ejecuta la misma consulta en todas las sucursales conectadas y espera a todas.
// Una sucursal que falla queda con resultado vacío; nunca devuelve error.
func (x *Executor) QueryAll(ctx context.Context, query string, params ...any) map[int64][]Row {
	return x.fanOut(ctx, func(SchemaVariant, bool) (string, bool) { return query, true }, params)
}

// QueryAllFunc como QueryAll pero arma la consulta según la variante de esquema de cada sucursal.
// Sucursales con esquema desconocido devuelven resultado vacío.
func (x *Executor) QueryAllFunc(ctx context.Context, build func(SchemaVariant) string, params ...any) map[int64][]Row {
	return x.fanOut(ctx, func(v SchemaVariant, known bool) (string, bool) {
		if !known {
			return "", false
		}
		return build(v), true
	}, params)
}

func (x *Executor) fanOut(ctx context.Context, build func(SchemaVariant, bool) (string, bool), params []any) map[int64][]Row {
	handles := x.src.Connected()
	args := normalizeParams(params)

	var (
		mu  sync.Mutex
		out = make(map[int64][]Row, len(handles))
		g   errgroup.Group
	)
	for _, h := range handles {
		h := h
		g.Go(func() error {
			rows := []Row{}
			v, known := VariantByName(h.Variant)
			if query, ok := build(v, known); ok {
				got, err := x.run(ctx, h, query, args)
				if err != nil {
					x.log.Warn().Err(err).Int64("branch_id", h.Branch.ID).Msg("consulta en abanico fallida; resultado vacío")
				} else if got != nil {
					rows = got
				}
			}
			mu.Lock()
			out[h.Branch.ID] = rows
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Variant devuelve la variante de esquema detectada para la sucursal.
func (x *Executor) Variant(branchID int64) (SchemaVariant, error) {
	h, ok := x.src.Handle(branchID)
	if !ok {
		return SchemaVariant{}, fmt.Errorf("sucursal %d: %w", branchID, domain.ErrBranchUnavailable)
	}
	v, ok := VariantByName(h.Variant)
	if !ok {
		return SchemaVariant{}, fmt.Errorf("sucursal %d: %w", branchID, domain.ErrCatalogUnavailable)
	}
	return v, nil
}

// Reprobe solicita al registro volver a detectar la variante de la sucursal.
func (x *Executor) Reprobe(ctx context.Context, branchID int64) {
	x.src.Reprobe(ctx, branchID)
}

func (x *Executor) run(ctx context.Context, h Handle, query string, args []any) ([]Row, error) {
	if x.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.timeout)
		defer cancel()
	}
	start := time.Now()
	rows, err := h.Conn.Query(ctx, query, args...)
	x.metrics.ObserveQuery(h.Branch.Code, time.Since(start), err)
	if err != nil {
		qe := &QueryError{BranchID: h.Branch.ID, Err: err}
		var me *mysql.MySQLError
		if errors.As(err, &me) {
			qe.Code = me.Number
		}
		return nil, qe
	}
	return rows, nil
}

// normalizeParams aplana un único argumento de tipo slice ([]string, []any, ...) a la lista
// de parámetros; cualquier otro caso se pasa tal cual. []byte se trata como escalar.
func normalizeParams(params []any) []any {
	if len(params) != 1 {
		return params
	}
	p := params[0]
	if _, isBytes := p.([]byte); isBytes {
		return params
	}
	if list, ok := p.([]any); ok {
		return list
	}
	rv := reflect.ValueOf(p)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		return params
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
