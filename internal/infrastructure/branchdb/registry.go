package branchdb

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
	"github.com/ACasillas1999/Inventarios-sub001/pkg/logger"
)

// Metrics recibe observaciones de salud y consultas por sucursal. Ver infrastructure/metrics.
type Metrics interface {
	ObserveHealth(branch entity.Branch, health entity.BranchHealth)
	ForgetBranch(branch entity.Branch)
	ObserveQuery(branchCode string, elapsed time.Duration, err error)
}

type nopMetrics struct{}

func (nopMetrics) ObserveHealth(entity.Branch, entity.BranchHealth) {}
func (nopMetrics) ForgetBranch(entity.Branch)                       {}
func (nopMetrics) ObserveQuery(string, time.Duration, error)        {}

// RegistryConfig parámetros del registro de sucursales.
type RegistryConfig struct {
	HealthInterval time.Duration
	ConnectTimeout time.Duration
	// Paralelismo máximo del chequeo de salud (0 = 16).
	CheckParallelism int
}

// Handle vista de una sucursal utilizable: pool conectado y variante de esquema detectada.
type Handle struct {
	Branch  entity.Branch
	Conn    Conn
	Variant string
}

type entry struct {
	branch entity.Branch
	conn   Conn // nil si el pool no se pudo crear; el chequeo de salud lo reintenta
	health atomic.Pointer[entity.BranchHealth]
}

func (e *entry) currentHealth() entity.BranchHealth {
	if h := e.health.Load(); h != nil {
		return *h
	}
	return entity.BranchHealth{Status: entity.BranchStatusError}
}

func (e *entry) usable() bool {
	return e.conn != nil && e.currentHealth().Status == entity.BranchStatusConnected
}

// Registry fuente única de qué sucursales están disponibles y cómo alcanzarlas.
// Una entrada por id de sucursal; reemplazar la configuración reemplaza el pool completo.
type Registry struct {
	open    Opener
	cfg     RegistryConfig
	log     *logger.Logger
	metrics Metrics
	now     func() time.Time

	mu      sync.RWMutex
	entries map[int64]*entry

	loopOnce  sync.Once
	closeOnce sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// NewRegistry construye el registro. metrics puede ser nil.
func NewRegistry(open Opener, cfg RegistryConfig, log *logger.Logger, metrics Metrics) *Registry {
	if cfg.HealthInterval <= 0 {
		cfg.HealthInterval = 30 * time.Second
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	if cfg.CheckParallelism <= 0 {
		cfg.CheckParallelism = 16
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{
		open:    open,
		cfg:     cfg,
		log:     log.Named("branch_registry"),
		metrics: metrics,
		now:     time.Now,
		entries: make(map[int64]*entry),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Initialize conecta todas las sucursales en paralelo y arranca el chequeo periódico.
// Una sucursal que falla queda registrada con estatus error para reintentarse después.
func (r *Registry) Initialize(ctx context.Context, branches []entity.Branch) {
	var (
		g   errgroup.Group
		mu  sync.Mutex
		got = make(map[int64]*entry, len(branches))
	)
	g.SetLimit(r.cfg.CheckParallelism)
	for _, b := range branches {
		b := b
		g.Go(func() error {
			e := r.connect(ctx, b)
			mu.Lock()
			got[b.ID] = e
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	r.mu.Lock()
	for id, e := range got {
		if prev, ok := r.entries[id]; ok {
			closeConn(prev)
		}
		r.entries[id] = e
	}
	r.mu.Unlock()

	connected := 0
	for _, e := range got {
		if e.usable() {
			connected++
		}
	}
	r.log.Info().Int("total", len(got)).Int("connected", connected).Msg("sucursales inicializadas")

	r.loopOnce.Do(func() { go r.loop() })
}

// AddOrReplace abre un pool nuevo para la sucursal y reemplaza la entrada anterior completa.
// El pool anterior se cierra; nunca se reutiliza.
func (r *Registry) AddOrReplace(ctx context.Context, b entity.Branch) entity.BranchStatus {
	e := r.connect(ctx, b)

	r.mu.Lock()
	prev := r.entries[b.ID]
	r.entries[b.ID] = e
	r.mu.Unlock()

	if prev != nil {
		closeConn(prev)
		if prev.branch.Code != b.Code {
			r.metrics.ForgetBranch(prev.branch)
		}
	}
	r.log.ForBranch(b.ID, b.Code).Info().Str("status", e.currentHealth().Status).Msg("sucursal registrada")
	return statusOf(e)
}

// Remove cierra el pool de la sucursal y elimina la entrada. Devuelve false si no existía.
func (r *Registry) Remove(id int64) bool {
	r.mu.Lock()
	e, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()
	if !ok {
		return false
	}
	closeConn(e)
	r.metrics.ForgetBranch(e.branch)
	r.log.ForBranch(id, e.branch.Code).Info().Msg("sucursal eliminada del registro")
	return true
}

// Get devuelve el pool de la sucursal solo si está conectada. Una sucursal desconocida
// o con error devuelve ok=false: es una falla suave, no un error.
func (r *Registry) Get(id int64) (Conn, bool) {
	h, ok := r.Handle(id)
	if !ok {
		return nil, false
	}
	return h.Conn, true
}

// GetByCode igual que Get pero buscando por código de sucursal.
func (r *Registry) GetByCode(code string) (Conn, int64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, e := range r.entries {
		if e.branch.Code == code {
			if !e.usable() {
				return nil, id, false
			}
			return e.conn, id, true
		}
	}
	return nil, 0, false
}

// Handle devuelve la vista utilizable de una sucursal conectada.
func (r *Registry) Handle(id int64) (Handle, bool) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok || !e.usable() {
		return Handle{}, false
	}
	return Handle{Branch: e.branch, Conn: e.conn, Variant: e.currentHealth().SchemaVariant}, true
}

// Connected devuelve las sucursales conectadas en este momento.
func (r *Registry) Connected() []Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Handle, 0, len(r.entries))
	for _, e := range r.entries {
		if e.usable() {
			out = append(out, Handle{Branch: e.branch, Conn: e.conn, Variant: e.currentHealth().SchemaVariant})
		}
	}
	return out
}

// Statuses instantánea de todas las entradas, ordenada por id.
func (r *Registry) Statuses() []entity.BranchStatus {
	r.mu.RLock()
	out := make([]entity.BranchStatus, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, statusOf(e))
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CheckAll ejecuta una pasada de chequeo de salud sobre todas las sucursales en paralelo.
// Cada sucursal actualiza su terna estatus/fecha/error con una sola escritura atómica.
func (r *Registry) CheckAll(ctx context.Context) {
	r.mu.RLock()
	snapshot := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		snapshot = append(snapshot, e)
	}
	r.mu.RUnlock()

	var g errgroup.Group
	g.SetLimit(r.cfg.CheckParallelism)
	for _, e := range snapshot {
		e := e
		g.Go(func() error {
			r.check(ctx, e)
			return nil
		})
	}
	_ = g.Wait()
}

// Reprobe vuelve a detectar la variante de esquema de una sucursal (p. ej. tras un "no such table").
func (r *Registry) Reprobe(ctx context.Context, id int64) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if ok {
		r.check(ctx, e)
	}
}

// Close detiene el chequeo periódico y cierra todos los pools.
func (r *Registry) Close() {
	r.closeOnce.Do(func() {
		close(r.stop)
		started := true
		r.loopOnce.Do(func() { started = false })
		if started {
			<-r.done
		}

		r.mu.Lock()
		entries := r.entries
		r.entries = make(map[int64]*entry)
		r.mu.Unlock()
		for _, e := range entries {
			closeConn(e)
		}
		r.log.Info().Int("closed", len(entries)).Msg("pools de sucursales cerrados")
	})
}

func (r *Registry) loop() {
	defer close(r.done)
	ticker := time.NewTicker(r.cfg.HealthInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), r.cfg.HealthInterval)
			r.CheckAll(ctx)
			cancel()
		}
	}
}

// check re-sondea una entrada. Si el pool nunca se creó, intenta crearlo y reemplaza la
// entrada solo si nadie la reemplazó mientras tanto.
func (r *Registry) check(ctx context.Context, e *entry) {
	if e.conn == nil {
		fresh := r.connect(ctx, e.branch)
		r.mu.Lock()
		current, ok := r.entries[e.branch.ID]
		if ok && current == e {
			r.entries[e.branch.ID] = fresh
			r.mu.Unlock()
			return
		}
		r.mu.Unlock()
		closeConn(fresh)
		return
	}

	prev := e.currentHealth()
	h := r.probe(ctx, e.conn)
	e.health.Store(&h)
	r.metrics.ObserveHealth(e.branch, h)

	if prev.Status != h.Status {
		bl := r.log.ForBranch(e.branch.ID, e.branch.Code)
		var ev *zerolog.Event
		if h.Status == entity.BranchStatusConnected {
			ev = bl.Info()
		} else {
			ev = bl.Warn()
		}
		ev.Str("from", prev.Status).Str("to", h.Status).Str("error", h.ErrorMessage).
			Msg("cambio de estatus de sucursal")
	}
}

func (r *Registry) connect(ctx context.Context, b entity.Branch) *entry {
	e := &entry{branch: b}
	cctx, cancel := context.WithTimeout(ctx, r.cfg.ConnectTimeout)
	defer cancel()

	conn, err := r.open(cctx, b)
	if err != nil {
		h := entity.BranchHealth{Status: entity.BranchStatusError, LastCheck: r.now(), ErrorMessage: err.Error()}
		e.health.Store(&h)
		r.metrics.ObserveHealth(b, h)
		r.log.ForBranch(b.ID, b.Code).Warn().Err(err).Msg("no se pudo crear el pool de la sucursal")
		return e
	}
	e.conn = conn
	h := r.probe(cctx, conn)
	e.health.Store(&h)
	r.metrics.ObserveHealth(b, h)
	if h.Status != entity.BranchStatusConnected {
		r.log.ForBranch(b.ID, b.Code).Warn().Str("error", h.ErrorMessage).Msg("sucursal sin conexión")
	}
	return e
}

// probe hace ping y detecta la variante de esquema. Un esquema desconocido deja la
// sucursal conectada (las consultas de catálogo fallarán con catálogo no disponible).
func (r *Registry) probe(ctx context.Context, conn Conn) entity.BranchHealth {
	cctx, cancel := context.WithTimeout(ctx, r.cfg.ConnectTimeout)
	defer cancel()

	now := r.now()
	if err := conn.Ping(cctx); err != nil {
		return entity.BranchHealth{Status: entity.BranchStatusError, LastCheck: now, ErrorMessage: err.Error()}
	}
	v, err := DetectVariant(cctx, conn)
	if err != nil && !errors.Is(err, ErrUnknownSchema) {
		return entity.BranchHealth{Status: entity.BranchStatusError, LastCheck: now, ErrorMessage: err.Error()}
	}
	h := entity.BranchHealth{Status: entity.BranchStatusConnected, LastCheck: now, SchemaVariant: v.Name}
	if err != nil {
		h.ErrorMessage = err.Error()
	}
	return h
}

func statusOf(e *entry) entity.BranchStatus {
	h := e.currentHealth()
	return entity.BranchStatus{
		ID:            e.branch.ID,
		Code:          e.branch.Code,
		Name:          e.branch.Name,
		Status:        h.Status,
		LastCheck:     h.LastCheck,
		ErrorMessage:  h.ErrorMessage,
		SchemaVariant: h.SchemaVariant,
	}
}

func closeConn(e *entry) {
	if e != nil && e.conn != nil {
		_ = e.conn.Close()
	}
}
