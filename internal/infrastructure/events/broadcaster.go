// Package events difunde eventos de conteos y solicitudes a clientes en vivo.
// Entrega como máximo una vez y sin acuse: un suscriptor lento pierde eventos.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ACasillas1999/Inventarios-sub001/internal/application/ports"
	"github.com/ACasillas1999/Inventarios-sub001/pkg/logger"
)

// Envelope forma en que viaja un evento (pub/sub y SSE).
type Envelope struct {
	ID        string          `json:"id"`
	Event     string          `json:"event"`
	Payload   json.RawMessage `json:"payload"`
	EmittedAt time.Time       `json:"emitted_at"`
}

// Stream difusor con suscripción; lo consume el endpoint de eventos en vivo.
type Stream interface {
	ports.EventBroadcaster
	Subscribe(ctx context.Context) <-chan Envelope
}

const subscriberBuffer = 64

func newEnvelope(event string, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{ID: uuid.NewString(), Event: event, Payload: b, EmittedAt: time.Now().UTC()}, nil
}

// hub reparte sobres a los suscriptores locales del proceso.
type hub struct {
	mu   sync.RWMutex
	subs map[chan Envelope]struct{}
}

func newHub() *hub {
	return &hub{subs: map[chan Envelope]struct{}{}}
}

func (h *hub) subscribe(ctx context.Context) <-chan Envelope {
	ch := make(chan Envelope, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
		close(ch)
	}()
	return ch
}

// publish devuelve cuántos suscriptores perdieron el sobre por tener el buffer lleno.
func (h *hub) publish(env Envelope) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	dropped := 0
	for ch := range h.subs {
		select {
		case ch <- env:
		default:
			dropped++
		}
	}
	return dropped
}

// LocalBroadcaster difusión dentro del proceso; cada evento también queda en bitácora.
// Se usa cuando no hay Redis configurado.
type LocalBroadcaster struct {
	hub *hub
	log *logger.Logger
}

var _ Stream = (*LocalBroadcaster)(nil)

// NewLocalBroadcaster construye el difusor local.
func NewLocalBroadcaster(log *logger.Logger) *LocalBroadcaster {
	if log == nil {
		log = logger.Nop()
	}
	return &LocalBroadcaster{hub: newHub(), log: log.Named("events")}
}

// Emit nunca falla hacia el llamador.
func (b *LocalBroadcaster) Emit(_ context.Context, event string, payload any) {
	env, err := newEnvelope(event, payload)
	if err != nil {
		b.log.Warn().Err(err).Str("event", event).Msg("evento no serializable; descartado")
		return
	}
	dropped := b.hub.publish(env)
	b.log.Debug().Str("event", event).Str("event_id", env.ID).Int("dropped", dropped).Msg("evento emitido")
}

// Subscribe recibe eventos hasta que ctx termina.
func (b *LocalBroadcaster) Subscribe(ctx context.Context) <-chan Envelope {
	return b.hub.subscribe(ctx)
}
