package counts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ACasillas1999/Inventarios-sub001/internal/application/ports"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/inventory"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/repository"
	"github.com/ACasillas1999/Inventarios-sub001/pkg/logger"
)

// DefaultMaxItems máximo de artículos por llamada de creación masiva.
const DefaultMaxItems = 5000

// Deps dependencias del motor. Audit, Notifier, Events y Cache son opcionales.
type Deps struct {
	Counts   repository.CountRepository
	Details  repository.CountDetailRepository
	Tx       TxRunner
	Catalog  Catalog
	Folios   FolioAllocator
	Requests RequestDeriver
	Cache    StockInvalidator
	Audit    ports.AuditLog
	Notifier ports.Notifier
	Events   ports.EventBroadcaster
	Log      *logger.Logger
	MaxItems int
}

// Engine ciclo de vida de conteos: creación masiva, transiciones de estatus, captura y cierre automático.
type Engine struct {
	counts   repository.CountRepository
	details  repository.CountDetailRepository
	tx       TxRunner
	catalog  Catalog
	folios   FolioAllocator
	requests RequestDeriver
	cache    StockInvalidator
	audit    ports.AuditLog
	notifier ports.Notifier
	events   ports.EventBroadcaster
	log      *logger.Logger
	maxItems int
	now      func() time.Time
}

// NewEngine construye el motor.
func NewEngine(d Deps) *Engine {
	if d.MaxItems <= 0 {
		d.MaxItems = DefaultMaxItems
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	return &Engine{
		counts:   d.Counts,
		details:  d.Details,
		tx:       d.Tx,
		catalog:  d.Catalog,
		folios:   d.Folios,
		requests: d.Requests,
		cache:    d.Cache,
		audit:    d.Audit,
		notifier: d.Notifier,
		events:   d.Events,
		log:      d.Log.Named("counts"),
		maxItems: d.MaxItems,
		now:      time.Now,
	}
}

// CreateInput alta masiva de conteos: un conteo por artículo.
type CreateInput struct {
	BranchID            int64
	Almacen             int
	ItemCodes           []string
	Type                string
	Classification      string
	Priority            string
	ResponsibleUserID   *int64
	TolerancePercentage decimal.Decimal
	Notes               string
	// Excluir artículos con conteo creado en este rango (ambos requeridos para aplicar).
	ExcludeFrom *time.Time
	ExcludeTo   *time.Time
	ActorID     int64
}

// AdjustmentLine artículo con la existencia ya contada.
type AdjustmentLine struct {
	ItemCode string
	Counted  decimal.Decimal
}

// AdjustmentInput ajuste directo: conteos creados cerrados con su captura.
type AdjustmentInput struct {
	BranchID          int64
	Almacen           int
	Lines             []AdjustmentLine
	Priority          string
	ResponsibleUserID *int64
	Notes             string
	ActorID           int64
}

// CreateResult resultado de una creación masiva.
type CreateResult struct {
	BatchID  string
	Counts   []*entity.Count
	NotFound []string
	Excluded []string
	Requests []*entity.Request
}

// ToleranceAlert diferencia capturada fuera de la tolerancia del conteo.
type ToleranceAlert struct {
	ItemCode             string
	Difference           decimal.Decimal
	DifferencePercentage decimal.Decimal
	TolerancePercentage  decimal.Decimal
}

// DetailCaptureResult resultado explícito de una captura: si cerró el conteo y si generó alerta.
type DetailCaptureResult struct {
	Detail     *entity.CountDetail
	Count      *entity.Count
	AutoClosed bool
	Alert      *ToleranceAlert
}

// CaptureInput captura de existencia contada de un renglón.
type CaptureInput struct {
	CountID  int64
	DetailID int64
	Counted  decimal.Decimal
	ActorID  int64
}

// UpdateInput cambios administrativos de un conteo (nil = sin cambio).
type UpdateInput struct {
	ID                  int64
	ResponsibleUserID   *int64
	Priority            *string
	Notes               *string
	TolerancePercentage *decimal.Decimal
	ActorID             int64
}

// seedPlan artículo validado listo para sembrar.
type seedPlan struct {
	row     entity.SeedRow
	counted *decimal.Decimal
}

// CreateCounts crea un conteo pendiente por artículo válido, con su renglón sembrado desde la sucursal.
func (e *Engine) CreateCounts(ctx context.Context, in CreateInput) (*CreateResult, error) {
	if in.BranchID <= 0 {
		return nil, domain.ErrInvalidInput
	}
	codes, err := e.normalizeCodes(in.ItemCodes)
	if err != nil {
		return nil, err
	}
	found, notFound, err := e.validate(ctx, in.BranchID, codes)
	if err != nil {
		return nil, err
	}

	almacen := warehouseOrDefault(in.Almacen)
	var excluded []string
	if in.ExcludeFrom != nil && in.ExcludeTo != nil {
		counted, err := e.counts.CountedItemCodes(ctx, in.BranchID, almacen, *in.ExcludeFrom, *in.ExcludeTo, found)
		if err != nil {
			return nil, fmt.Errorf("artículos ya contados: %w", err)
		}
		found, excluded = subtract(found, counted)
		if len(found) == 0 {
			return nil, fmt.Errorf("todos los artículos ya tienen conteo en el rango: %w", domain.ErrNoMatchingItems)
		}
	}

	rows, err := e.catalog.SeedRows(ctx, in.BranchID, almacen, found)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrNoMatchingItems
	}
	plans := make([]seedPlan, len(rows))
	for i, r := range rows {
		plans[i] = seedPlan{row: r}
	}

	template := entity.Count{
		BranchID:            in.BranchID,
		Almacen:             almacen,
		Type:                defaultString(in.Type, entity.ClassificationInventario),
		Classification:      defaultString(in.Classification, entity.ClassificationInventario),
		Priority:            defaultString(in.Priority, entity.PriorityMedia),
		Status:              entity.CountStatusPendiente,
		ResponsibleUserID:   in.ResponsibleUserID,
		CreatedByUserID:     in.ActorID,
		TolerancePercentage: in.TolerancePercentage,
		Notes:               in.Notes,
	}
	res, err := e.create(ctx, template, plans, in.ActorID)
	if err != nil {
		return nil, err
	}
	res.NotFound = notFound
	res.Excluded = excluded
	return res, nil
}

// CreateAdjustments crea conteos de ajuste directo ya cerrados con la diferencia calculada,
// y deriva sus solicitudes. Una falla al derivar se registra y no revierte los conteos.
func (e *Engine) CreateAdjustments(ctx context.Context, in AdjustmentInput) (*CreateResult, error) {
	if in.BranchID <= 0 {
		return nil, domain.ErrInvalidInput
	}
	raw := make([]string, len(in.Lines))
	counted := make(map[string]decimal.Decimal, len(in.Lines))
	for i, l := range in.Lines {
		if l.Counted.IsNegative() {
			return nil, fmt.Errorf("existencia contada negativa para %s: %w", l.ItemCode, domain.ErrInvalidInput)
		}
		raw[i] = l.ItemCode
		key := strings.ToUpper(strings.TrimSpace(l.ItemCode))
		if _, dup := counted[key]; !dup {
			counted[key] = l.Counted
		}
	}
	codes, err := e.normalizeCodes(raw)
	if err != nil {
		return nil, err
	}
	found, notFound, err := e.validate(ctx, in.BranchID, codes)
	if err != nil {
		return nil, err
	}

	almacen := warehouseOrDefault(in.Almacen)
	rows, err := e.catalog.SeedRows(ctx, in.BranchID, almacen, found)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrNoMatchingItems
	}
	plans := make([]seedPlan, 0, len(rows))
	for _, r := range rows {
		c, ok := counted[strings.ToUpper(r.Item.Code)]
		if !ok {
			continue
		}
		plans = append(plans, seedPlan{row: r, counted: &c})
	}
	if len(plans) == 0 {
		return nil, domain.ErrNoMatchingItems
	}

	now := e.now()
	template := entity.Count{
		BranchID:          in.BranchID,
		Almacen:           almacen,
		Type:              entity.ClassificationAjuste,
		Classification:    entity.ClassificationAjuste,
		Priority:          defaultString(in.Priority, entity.PriorityMedia),
		Status:            entity.CountStatusCerrado,
		ResponsibleUserID: in.ResponsibleUserID,
		CreatedByUserID:   in.ActorID,
		StartedAt:         &now,
		FinishedAt:        &now,
		ClosedAt:          &now,
		Notes:             in.Notes,
	}
	res, err := e.create(ctx, template, plans, in.ActorID)
	if err != nil {
		return nil, err
	}
	res.NotFound = notFound

	if e.requests != nil {
		for _, c := range res.Counts {
			reqs, err := e.requests.DeriveFromCount(ctx, c.ID, in.ActorID)
			if err != nil {
				e.log.Error().Err(err).Int64("count_id", c.ID).Msg("no se pudieron derivar solicitudes del ajuste")
				continue
			}
			res.Requests = append(res.Requests, reqs...)
		}
	}
	return res, nil
}

// create asigna folios, inserta conteos y renglones en una sola transacción y, ya confirmada,
// relee los conteos y dispara eventos, avisos y bitácora.
func (e *Engine) create(ctx context.Context, tpl entity.Count, plans []seedPlan, actorID int64) (*CreateResult, error) {
	folios, err := e.folios.Next(ctx, repository.FolioScopeCounts, len(plans))
	if err != nil {
		return nil, fmt.Errorf("folios de conteo: %w", err)
	}
	if len(folios) != len(plans) {
		return nil, fmt.Errorf("folios de conteo: se esperaban %d, llegaron %d", len(plans), len(folios))
	}

	now := e.now()
	batchID := uuid.New().String()
	if tpl.ResponsibleUserID != nil {
		tpl.AssignedAt = &now
	}

	ids := make([]int64, 0, len(plans))
	err = e.tx.RunCounts(ctx, func(countRepo repository.CountRepository, detailRepo repository.CountDetailRepository) error {
		for i, p := range plans {
			c := tpl
			c.Folio = folios[i]
			c.BatchID = batchID
			c.CreatedAt = now
			c.UpdatedAt = now
			if err := countRepo.Create(ctx, &c); err != nil {
				return fmt.Errorf("crear conteo %s: %w", c.Folio, err)
			}
			d := seedDetail(c.ID, p.row, now)
			if p.counted != nil {
				applyCapture(d, *p.counted, actorID, now)
			}
			if err := detailRepo.Create(ctx, d); err != nil {
				return fmt.Errorf("sembrar renglón %s: %w", p.row.Item.Code, err)
			}
			ids = append(ids, c.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	created, err := e.counts.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("releer conteos creados: %w", err)
	}
	for _, c := range created {
		e.emit(ctx, ports.EventCountCreated, countEvent(c))
		if c.ResponsibleUserID != nil {
			e.notify(func() error { return e.notifier.NotifyAssignment(ctx, c, *c.ResponsibleUserID) }, "asignación", c.ID)
		}
		e.record(ctx, actorID, "count.create", c.ID, nil, countEvent(c))
	}
	e.log.Info().Str("batch_id", batchID).Int64("branch_id", tpl.BranchID).Int("counts", len(created)).
		Str("status", tpl.Status).Msg("conteos creados")
	return &CreateResult{BatchID: batchID, Counts: created}, nil
}

// UpdateStatus aplica una transición de estatus. El cambio es condicional sobre el estatus
// leído: si otra operación lo cambió primero, contando devuelve ErrAlreadyStarted.
func (e *Engine) UpdateStatus(ctx context.Context, countID int64, to string, actorID int64) (*entity.Count, error) {
	c, err := e.get(ctx, countID)
	if err != nil {
		return nil, err
	}
	from := c.Status
	if err := inventory.ValidateCountTransition(from, to); err != nil {
		return nil, err
	}

	now := e.now()
	var stamps repository.StatusStamps
	switch to {
	case entity.CountStatusContando:
		stamps.StartedAt = &now
	case entity.CountStatusContado:
		stamps.FinishedAt = &now
	case entity.CountStatusCerrado:
		stamps.ClosedAt = &now
		if c.FinishedAt == nil {
			stamps.FinishedAt = &now
		}
	}
	ok, err := e.counts.UpdateStatus(ctx, countID, from, to, stamps)
	if err != nil {
		return nil, fmt.Errorf("actualizar estatus: %w", err)
	}
	if !ok {
		if to == entity.CountStatusContando {
			return nil, domain.ErrAlreadyStarted
		}
		return nil, fmt.Errorf("el conteo cambió de estatus: %w", domain.ErrConflict)
	}

	if to == entity.CountStatusContando {
		if err := e.refreshStock(ctx, c); err != nil {
			e.log.Warn().Err(err).Int64("count_id", countID).Msg("no se pudo sincronizar existencias al iniciar conteo")
			note := fmt.Sprintf("[Sistema] %s: no se pudieron sincronizar existencias de la sucursal (%v)", now.Format("2006-01-02 15:04"), err)
			if nerr := e.counts.AppendNote(ctx, countID, note); nerr != nil {
				e.log.Error().Err(nerr).Int64("count_id", countID).Msg("no se pudo registrar nota de sincronización")
			}
		}
	}

	updated, err := e.get(ctx, countID)
	if err != nil {
		return nil, err
	}
	e.emit(ctx, ports.EventCountStatusChanged, map[string]any{
		"id": updated.ID, "folio": updated.Folio, "branch_id": updated.BranchID, "from": from, "to": to,
	})
	if to == entity.CountStatusContado || to == entity.CountStatusCerrado {
		e.notify(func() error { return e.notifier.NotifyCountFinished(ctx, updated) }, "conteo terminado", countID)
	}
	e.record(ctx, actorID, "count.status", countID, map[string]any{"status": from}, map[string]any{"status": to})
	return updated, nil
}

// refreshStock vuelve a leer la existencia de la sucursal para cada renglón del conteo.
func (e *Engine) refreshStock(ctx context.Context, c *entity.Count) error {
	details, err := e.details.ListByCount(ctx, c.ID)
	if err != nil {
		return err
	}
	if len(details) == 0 {
		return nil
	}
	if e.cache != nil {
		if _, err := e.cache.Invalidate(ctx, c.BranchID, ""); err != nil {
			e.log.Warn().Err(err).Int64("branch_id", c.BranchID).Msg("no se pudo invalidar caché")
		}
	}
	codes := make([]string, len(details))
	for i, d := range details {
		codes[i] = d.ItemCode
	}
	rows, err := e.catalog.SeedRows(ctx, c.BranchID, c.Almacen, codes)
	if err != nil {
		return err
	}
	stock := make(map[string]decimal.Decimal, len(rows))
	for _, r := range rows {
		stock[strings.ToUpper(r.Item.Code)] = r.Stock
	}
	for _, d := range details {
		qty, ok := stock[strings.ToUpper(d.ItemCode)]
		if !ok {
			continue
		}
		var diff, pct *decimal.Decimal
		if d.CountedStock != nil {
			df, pc := inventory.Difference(qty, *d.CountedStock)
			diff, pct = &df, &pc
		}
		if err := e.details.UpdateSystemStock(ctx, d.ID, qty, diff, pct); err != nil {
			return fmt.Errorf("actualizar existencia de %s: %w", d.ItemCode, err)
		}
	}
	return nil
}

// CaptureDetail registra la existencia contada de un renglón. Si era el último renglón sin
// captura, cierra el conteo por la misma ruta que un cierre manual.
func (e *Engine) CaptureDetail(ctx context.Context, in CaptureInput) (*DetailCaptureResult, error) {
	if in.Counted.IsNegative() {
		return nil, fmt.Errorf("existencia contada negativa: %w", domain.ErrInvalidInput)
	}
	d, err := e.details.GetByID(ctx, in.DetailID)
	if err != nil {
		return nil, err
	}
	if d == nil || (in.CountID != 0 && d.CountID != in.CountID) {
		return nil, domain.ErrNotFound
	}
	c, err := e.get(ctx, d.CountID)
	if err != nil {
		return nil, err
	}
	if !inventory.CanCapture(c.Status) {
		return nil, fmt.Errorf("conteo en estatus %s: %w", c.Status, domain.ErrInvalidStatusTransition)
	}

	applyCapture(d, in.Counted, in.ActorID, e.now())
	if err := e.details.UpdateCapture(ctx, d); err != nil {
		return nil, fmt.Errorf("guardar captura: %w", err)
	}
	e.record(ctx, in.ActorID, "count_detail.capture", d.ID, nil, map[string]any{
		"count_id": d.CountID, "item_code": d.ItemCode, "counted_stock": in.Counted.String(),
	})

	res := &DetailCaptureResult{Detail: d, Count: c}
	if inventory.ExceedsTolerance(*d.DifferencePercentage, c.TolerancePercentage) {
		res.Alert = &ToleranceAlert{
			ItemCode:             d.ItemCode,
			Difference:           *d.Difference,
			DifferencePercentage: *d.DifferencePercentage,
			TolerancePercentage:  c.TolerancePercentage,
		}
	}

	pending, err := e.details.CountPending(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("renglones pendientes: %w", err)
	}
	if pending == 0 && c.Status != entity.CountStatusCerrado {
		closed, err := e.UpdateStatus(ctx, c.ID, entity.CountStatusCerrado, in.ActorID)
		switch {
		case err == nil:
			res.Count = closed
			res.AutoClosed = true
		case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvalidStatusTransition):
			// otro usuario lo cerró o canceló entre la captura y el cierre
			e.log.Info().Int64("count_id", c.ID).Msg("cierre automático omitido")
		default:
			return nil, err
		}
	}
	return res, nil
}

// AddDetail agrega un artículo a un conteo abierto sembrándolo desde la sucursal.
func (e *Engine) AddDetail(ctx context.Context, countID int64, itemCode string, actorID int64) (*entity.CountDetail, error) {
	code := strings.TrimSpace(itemCode)
	if code == "" {
		return nil, domain.ErrNoItems
	}
	c, err := e.get(ctx, countID)
	if err != nil {
		return nil, err
	}
	if !inventory.CanCapture(c.Status) {
		return nil, fmt.Errorf("conteo en estatus %s: %w", c.Status, domain.ErrInvalidStatusTransition)
	}
	existing, err := e.details.GetByCountAndItem(ctx, countID, code)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("artículo %s ya está en el conteo: %w", code, domain.ErrDuplicate)
	}

	rows, err := e.catalog.SeedRows(ctx, c.BranchID, c.Almacen, []string{code})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrNoMatchingItems
	}
	d := seedDetail(countID, rows[0], e.now())
	if err := e.details.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("agregar renglón: %w", err)
	}
	e.emit(ctx, ports.EventCountDetailAdded, map[string]any{"count_id": countID, "detail_id": d.ID, "item_code": d.ItemCode})
	e.record(ctx, actorID, "count_detail.create", d.ID, nil, map[string]any{"count_id": countID, "item_code": d.ItemCode})
	return d, nil
}

// Get devuelve el conteo con sus renglones.
func (e *Engine) Get(ctx context.Context, id int64) (*entity.Count, []*entity.CountDetail, error) {
	c, err := e.get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	details, err := e.details.ListByCount(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("renglones del conteo: %w", err)
	}
	return c, details, nil
}

// List lista conteos con filtros y paginación.
func (e *Engine) List(ctx context.Context, f entity.CountFilter) ([]*entity.Count, int, error) {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.Status != "" && !inventory.IsValidCountStatus(f.Status) {
		return nil, 0, domain.ErrInvalidInput
	}
	return e.counts.List(ctx, f)
}

// Update cambia responsable, prioridad, notas o tolerancia. Un cambio de responsable avisa
// al nuevo responsable y emite count.reassigned.
func (e *Engine) Update(ctx context.Context, in UpdateInput) (*entity.Count, error) {
	c, err := e.get(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if c.Status == entity.CountStatusCerrado || c.Status == entity.CountStatusCancelado {
		return nil, fmt.Errorf("conteo en estatus %s: %w", c.Status, domain.ErrConflict)
	}
	before := countEvent(c)

	var prevResponsible *int64
	reassigned := false
	if in.ResponsibleUserID != nil && (c.ResponsibleUserID == nil || *c.ResponsibleUserID != *in.ResponsibleUserID) {
		prevResponsible = c.ResponsibleUserID
		id := *in.ResponsibleUserID
		c.ResponsibleUserID = &id
		now := e.now()
		c.AssignedAt = &now
		reassigned = true
	}
	if in.Priority != nil {
		c.Priority = *in.Priority
	}
	if in.Notes != nil {
		c.Notes = *in.Notes
	}
	if in.TolerancePercentage != nil {
		if in.TolerancePercentage.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		c.TolerancePercentage = *in.TolerancePercentage
	}
	c.UpdatedAt = e.now()
	if err := e.counts.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("actualizar conteo: %w", err)
	}

	if reassigned {
		to := *c.ResponsibleUserID
		if prevResponsible == nil {
			e.notify(func() error { return e.notifier.NotifyAssignment(ctx, c, to) }, "asignación", c.ID)
		} else {
			from := *prevResponsible
			e.notify(func() error { return e.notifier.NotifyReassignment(ctx, c, from, to) }, "reasignación", c.ID)
			e.emit(ctx, ports.EventCountReassigned, map[string]any{"id": c.ID, "folio": c.Folio, "from": from, "to": to})
		}
	}
	e.record(ctx, in.ActorID, "count.update", c.ID, before, countEvent(c))
	return c, nil
}

// Delete elimina el conteo y sus renglones. Un conteo con solicitudes de ajuste no se
// puede borrar (domain.ErrConflict).
func (e *Engine) Delete(ctx context.Context, id, actorID int64) error {
	c, err := e.get(ctx, id)
	if err != nil {
		return err
	}
	if err := e.counts.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return fmt.Errorf("el conteo %s tiene solicitudes de ajuste: %w", c.Folio, err)
		}
		return fmt.Errorf("eliminar conteo: %w", err)
	}
	e.record(ctx, actorID, "count.delete", id, countEvent(c), nil)
	return nil
}

func (e *Engine) get(ctx context.Context, id int64) (*entity.Count, error) {
	if id <= 0 {
		return nil, domain.ErrInvalidInput
	}
	c, err := e.counts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

// normalizeCodes recorta, descarta vacíos y quita duplicados (sin distinguir mayúsculas).
func (e *Engine) normalizeCodes(raw []string) ([]string, error) {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		key := strings.ToUpper(c)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, domain.ErrNoItems
	}
	if len(out) > e.maxItems {
		return nil, fmt.Errorf("%d artículos, máximo %d: %w", len(out), e.maxItems, domain.ErrTooManyItems)
	}
	return out, nil
}

// validate separa los códigos que existen en el catálogo de la sucursal de los que no.
func (e *Engine) validate(ctx context.Context, branchID int64, codes []string) (found, notFound []string, err error) {
	found, err = e.catalog.ExistingCodes(ctx, branchID, codes)
	if err != nil {
		return nil, nil, err
	}
	if len(found) == 0 {
		return nil, codes, domain.ErrNoMatchingItems
	}
	_, notFound = subtract(codes, found)
	return found, notFound, nil
}

func (e *Engine) emit(ctx context.Context, event string, payload any) {
	if e.events != nil {
		e.events.Emit(ctx, event, payload)
	}
}

func (e *Engine) notify(send func() error, what string, countID int64) {
	if e.notifier == nil {
		return
	}
	if err := send(); err != nil {
		e.log.Warn().Err(err).Int64("count_id", countID).Str("aviso", what).Msg("aviso no entregado")
	}
}

func (e *Engine) record(ctx context.Context, actorID int64, action string, entityID int64, oldValues, newValues any) {
	if e.audit == nil {
		return
	}
	entityType := "count"
	if strings.HasPrefix(action, "count_detail.") {
		entityType = "count_detail"
	}
	err := e.audit.Append(ctx, ports.AuditEntry{
		ActorID: actorID, Action: action, EntityType: entityType, EntityID: entityID,
		OldValues: oldValues, NewValues: newValues,
	})
	if err != nil {
		e.log.Warn().Err(err).Str("action", action).Int64("entity_id", entityID).Msg("bitácora no registrada")
	}
}

func seedDetail(countID int64, r entity.SeedRow, now time.Time) *entity.CountDetail {
	return &entity.CountDetail{
		CountID:         countID,
		ItemCode:        r.Item.Code,
		ItemDescription: r.Item.Description,
		Unit:            r.Item.Unit,
		WarehouseID:     r.WarehouseID,
		WarehouseName:   r.WarehouseName,
		SystemStock:     r.Stock,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func applyCapture(d *entity.CountDetail, counted decimal.Decimal, actorID int64, now time.Time) {
	diff, pct := inventory.Difference(d.SystemStock, counted)
	d.CountedStock = &counted
	d.Difference = &diff
	d.DifferencePercentage = &pct
	d.CountedAt = &now
	if actorID > 0 {
		d.CountedByUserID = &actorID
	}
	d.UpdatedAt = now
}

func countEvent(c *entity.Count) map[string]any {
	ev := map[string]any{
		"id":             c.ID,
		"folio":          c.Folio,
		"batch_id":       c.BatchID,
		"branch_id":      c.BranchID,
		"almacen":        c.Almacen,
		"classification": c.Classification,
		"priority":       c.Priority,
		"status":         c.Status,
	}
	if c.ResponsibleUserID != nil {
		ev["responsible_user_id"] = *c.ResponsibleUserID
	}
	return ev
}

func subtract(all, remove []string) (kept, removed []string) {
	drop := make(map[string]bool, len(remove))
	for _, r := range remove {
		drop[strings.ToUpper(r)] = true
	}
	for _, a := range all {
		if drop[strings.ToUpper(a)] {
			removed = append(removed, a)
			continue
		}
		kept = append(kept, a)
	}
	return kept, removed
}

func warehouseOrDefault(almacen int) int {
	if almacen <= 0 {
		return entity.PrimaryWarehouse
	}
	return almacen
}

func defaultString(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
