package requests

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ACasillas1999/Inventarios-sub001/internal/application/ports"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/inventory"
	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/repository"
	"github.com/ACasillas1999/Inventarios-sub001/pkg/logger"
)

// DefaultMaxBatch máximo de solicitudes nuevas por conversión de un conteo.
const DefaultMaxBatch = 1000

// TxRunner ejecuta fn dentro de una transacción local con el repositorio de solicitudes atado a ella.
type TxRunner interface {
	RunRequests(ctx context.Context, fn func(requestRepo repository.RequestRepository) error) error
}

// FolioAllocator reserva bloques contiguos de folios.
type FolioAllocator interface {
	Next(ctx context.Context, scope string, n int) ([]string, error)
}

// Deps dependencias del flujo de solicitudes. Audit, Notifier y Events son opcionales.
type Deps struct {
	Requests repository.RequestRepository
	Counts   repository.CountRepository
	Details  repository.CountDetailRepository
	Tx       TxRunner
	Folios   FolioAllocator
	Audit    ports.AuditLog
	Notifier ports.Notifier
	Events   ports.EventBroadcaster
	Log      *logger.Logger
	MaxBatch int
}

// Workflow solicitudes de ajuste: derivación desde conteos cerrados y revisión.
type Workflow struct {
	requests repository.RequestRepository
	counts   repository.CountRepository
	details  repository.CountDetailRepository
	tx       TxRunner
	folios   FolioAllocator
	audit    ports.AuditLog
	notifier ports.Notifier
	events   ports.EventBroadcaster
	log      *logger.Logger
	maxBatch int
	now      func() time.Time
}

// NewWorkflow construye el flujo.
func NewWorkflow(d Deps) *Workflow {
	if d.MaxBatch <= 0 {
		d.MaxBatch = DefaultMaxBatch
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	return &Workflow{
		requests: d.Requests,
		counts:   d.Counts,
		details:  d.Details,
		tx:       d.Tx,
		folios:   d.Folios,
		audit:    d.Audit,
		notifier: d.Notifier,
		events:   d.Events,
		log:      d.Log.Named("requests"),
		maxBatch: d.MaxBatch,
		now:      time.Now,
	}
}

// UpdateInput revisión de una solicitud (nil = sin cambio).
type UpdateInput struct {
	ID              int64
	Status          *string
	ResolutionNotes *string
	EvidenceFile    *string
	ActorID         int64
}

// DeriveFromCount crea una solicitud por cada renglón capturado con diferencia que aún no
// tenga solicitud. Repetir la llamada no crea duplicados.
func (w *Workflow) DeriveFromCount(ctx context.Context, countID, actorID int64) ([]*entity.Request, error) {
	if countID <= 0 {
		return nil, domain.ErrInvalidInput
	}
	c, err := w.counts.GetByID(ctx, countID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	if c.Status != entity.CountStatusCerrado {
		return nil, fmt.Errorf("conteo %s en estatus %s: %w", c.Folio, c.Status, domain.ErrCountNotClosed)
	}

	details, err := w.details.ListByCount(ctx, countID)
	if err != nil {
		return nil, fmt.Errorf("renglones del conteo: %w", err)
	}
	existing, err := w.requests.DetailIDsWithRequest(ctx, countID)
	if err != nil {
		return nil, fmt.Errorf("solicitudes existentes: %w", err)
	}

	var pending []*entity.CountDetail
	for _, d := range details {
		if !d.IsCounted() || !d.HasDifference() || existing[d.ID] {
			continue
		}
		pending = append(pending, d)
	}
	if len(pending) == 0 {
		return []*entity.Request{}, nil
	}
	if len(pending) > w.maxBatch {
		return nil, fmt.Errorf("%d solicitudes, máximo %d: %w", len(pending), w.maxBatch, domain.ErrBatchLimitExceeded)
	}

	folios, err := w.folios.Next(ctx, repository.FolioScopeRequests, len(pending))
	if err != nil {
		return nil, fmt.Errorf("folios de solicitud: %w", err)
	}
	if len(folios) != len(pending) {
		return nil, fmt.Errorf("folios de solicitud: se esperaban %d, llegaron %d", len(pending), len(folios))
	}

	now := w.now()
	created := make([]*entity.Request, len(pending))
	for i, d := range pending {
		created[i] = &entity.Request{
			Folio:             folios[i],
			CountID:           countID,
			CountDetailID:     d.ID,
			BranchID:          c.BranchID,
			ItemCode:          d.ItemCode,
			SystemStock:       d.SystemStock,
			CountedStock:      *d.CountedStock,
			Difference:        d.CountedStock.Sub(d.SystemStock),
			Status:            entity.RequestStatusPendiente,
			RequestedByUserID: actorID,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
	}
	err = w.tx.RunRequests(ctx, func(repo repository.RequestRepository) error {
		return repo.CreateBatch(ctx, created)
	})
	if err != nil {
		return nil, fmt.Errorf("crear solicitudes: %w", err)
	}

	for _, r := range created {
		w.emit(ctx, ports.EventRequestCreated, requestEvent(r))
		w.record(ctx, actorID, "request.create", r.ID, nil, requestEvent(r))
	}
	if w.notifier != nil {
		if err := w.notifier.NotifyRequestCreated(ctx, created); err != nil {
			w.log.Warn().Err(err).Int64("count_id", countID).Msg("aviso de solicitudes no entregado")
		}
	}
	w.log.Info().Int64("count_id", countID).Int("requests", len(created)).Msg("solicitudes derivadas")
	return created, nil
}

// Update aplica la revisión. Cambiar estatus o notas sella revisor y fecha.
func (w *Workflow) Update(ctx context.Context, in UpdateInput) (*entity.Request, error) {
	r, err := w.Get(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	before := requestEvent(r)
	from := r.Status

	touched := false
	if in.Status != nil {
		to := strings.TrimSpace(*in.Status)
		if err := inventory.ValidateRequestTransition(r.Status, to); err != nil {
			return nil, err
		}
		r.Status = to
		touched = true
	}
	if in.ResolutionNotes != nil {
		r.ResolutionNotes = *in.ResolutionNotes
		touched = true
	}
	if in.EvidenceFile != nil {
		r.EvidenceFile = *in.EvidenceFile
	}
	now := w.now()
	if touched {
		actor := in.ActorID
		r.ReviewedByUserID = &actor
		r.ReviewedAt = &now
	}
	r.UpdatedAt = now
	if err := w.requests.Update(ctx, r, from); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			w.log.Warn().Int64("request_id", r.ID).Str("from", from).Str("to", r.Status).
				Msg("la solicitud cambió de estatus durante la revisión")
			return nil, err
		}
		return nil, fmt.Errorf("actualizar solicitud: %w", err)
	}

	if r.Status != from {
		w.emit(ctx, ports.EventRequestStatusChanged, map[string]any{"id": r.ID, "folio": r.Folio, "from": from, "to": r.Status})
	}
	w.record(ctx, in.ActorID, "request.update", r.ID, before, requestEvent(r))
	return r, nil
}

// Get devuelve una solicitud por id.
func (w *Workflow) Get(ctx context.Context, id int64) (*entity.Request, error) {
	if id <= 0 {
		return nil, domain.ErrInvalidInput
	}
	r, err := w.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

// List lista solicitudes con filtros y paginación.
func (w *Workflow) List(ctx context.Context, f entity.RequestFilter) ([]*entity.Request, int, error) {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.Status != "" && !inventory.IsValidRequestStatus(f.Status) {
		return nil, 0, domain.ErrInvalidInput
	}
	return w.requests.List(ctx, f)
}

func (w *Workflow) emit(ctx context.Context, event string, payload any) {
	if w.events != nil {
		w.events.Emit(ctx, event, payload)
	}
}

func (w *Workflow) record(ctx context.Context, actorID int64, action string, id int64, oldValues, newValues any) {
	if w.audit == nil {
		return
	}
	err := w.audit.Append(ctx, ports.AuditEntry{
		ActorID: actorID, Action: action, EntityType: "request", EntityID: id,
		OldValues: oldValues, NewValues: newValues,
	})
	if err != nil {
		w.log.Warn().Err(err).Str("action", action).Int64("entity_id", id).Msg("bitácora no registrada")
	}
}

func requestEvent(r *entity.Request) map[string]any {
	return map[string]any{
		"id":              r.ID,
		"folio":           r.Folio,
		"count_id":        r.CountID,
		"count_detail_id": r.CountDetailID,
		"branch_id":       r.BranchID,
		"item_code":       r.ItemCode,
		"difference":      r.Difference.String(),
		"status":          r.Status,
	}
}
