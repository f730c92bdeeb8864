package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ACasillas1999/Inventarios-sub001/pkg/logger"
)

const publishTimeout = 2 * time.Second

// RedisBroadcaster publica en un canal de Redis para que todas las réplicas del servicio
// reenvíen el evento a sus clientes. Una sola suscripción por proceso alimenta el hub local.
type RedisBroadcaster struct {
	client  *redis.Client
	channel string
	hub     *hub
	log     *logger.Logger

	once   sync.Once
	cancel context.CancelFunc
	done   chan struct{}
}

var _ Stream = (*RedisBroadcaster)(nil)

// NewRedisBroadcaster construye el difusor; la suscripción arranca con el primer Subscribe.
func NewRedisBroadcaster(client *redis.Client, channel string, log *logger.Logger) *RedisBroadcaster {
	if log == nil {
		log = logger.Nop()
	}
	return &RedisBroadcaster{
		client:  client,
		channel: channel,
		hub:     newHub(),
		log:     log.Named("events"),
		done:    make(chan struct{}),
	}
}

// Emit publica el sobre. Un fallo de Redis se registra y no llega al llamador.
func (b *RedisBroadcaster) Emit(ctx context.Context, event string, payload any) {
	env, err := newEnvelope(event, payload)
	if err != nil {
		b.log.Warn().Err(err).Str("event", event).Msg("evento no serializable; descartado")
		return
	}
	raw, err := json.Marshal(env)
	if err != nil {
		b.log.Warn().Err(err).Str("event", event).Msg("sobre no serializable; descartado")
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := b.client.Publish(ctx, b.channel, raw).Err(); err != nil {
		b.log.Warn().Err(err).Str("event", event).Msg("no se pudo publicar el evento")
	}
}

// Subscribe recibe los eventos de todas las réplicas hasta que ctx termina.
func (b *RedisBroadcaster) Subscribe(ctx context.Context) <-chan Envelope {
	b.once.Do(b.start)
	return b.hub.subscribe(ctx)
}

func (b *RedisBroadcaster) start() {
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	sub := b.client.Subscribe(ctx, b.channel)
	go func() {
		defer close(b.done)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var env Envelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					b.log.Warn().Err(err).Msg("sobre de evento inválido en el canal")
					continue
				}
				b.hub.publish(env)
			}
		}
	}()
}

// Close detiene la suscripción si llegó a arrancar.
func (b *RedisBroadcaster) Close() {
	b.once.Do(func() { close(b.done) })
	if b.cancel != nil {
		b.cancel()
		<-b.done
	}
}
