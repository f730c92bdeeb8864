package ports

import (
	"context"

	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
)

// Nombres de eventos emitidos hacia los clientes conectados.
const (
	EventCountCreated         = "count.created"
	EventCountStatusChanged   = "count.status_changed"
	EventCountReassigned      = "count.reassigned"
	EventCountDetailAdded     = "count.detail_added"
	EventRequestCreated       = "request.created"
	EventRequestStatusChanged = "request.status_changed"
)

// Claves de configuración leídas del SettingsStore.
const (
	SettingCountFolioTemplate   = "folio_conteo_plantilla"
	SettingRequestFolioTemplate = "folio_solicitud_plantilla"
)

// AuditEntry registro de auditoría de una operación.
type AuditEntry struct {
	ActorID    int64
	Action     string
	EntityType string
	EntityID   int64
	OldValues  any
	NewValues  any
}

// AuditLog puerto de salida de bitácora. Quien llama registra el error y sigue: nunca aborta la operación.
type AuditLog interface {
	Append(ctx context.Context, entry AuditEntry) error
}

// Notifier entrega de avisos a usuarios (chat, correo, etc.). Entrega de mejor esfuerzo.
type Notifier interface {
	NotifyAssignment(ctx context.Context, count *entity.Count, userID int64) error
	NotifyReassignment(ctx context.Context, count *entity.Count, fromUserID, toUserID int64) error
	NotifyCountFinished(ctx context.Context, count *entity.Count) error
	NotifyRequestCreated(ctx context.Context, requests []*entity.Request) error
}

// EventBroadcaster difunde eventos a clientes en vivo. Como máximo una entrega, sin acuse.
type EventBroadcaster interface {
	Emit(ctx context.Context, event string, payload any)
}

// SettingsStore lectura síncrona de configuración clave-valor; def aplica si la clave no existe.
type SettingsStore interface {
	GetValue(ctx context.Context, key, def string) string
}
