package http

import (
	"bufio"
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ACasillas1999/Inventarios-sub001/internal/infrastructure/events"
)

// subscriber fuente de eventos en vivo (lo implementan events.LocalBroadcaster y events.RedisBroadcaster).
type subscriber interface {
	Subscribe(ctx context.Context) <-chan events.Envelope
}

// EventsHandler expone los eventos de conteos y solicitudes como Server-Sent Events.
type EventsHandler struct {
	stream    subscriber
	base      context.Context
	heartbeat time.Duration
}

// NewEventsHandler construye el handler. base se cancela al apagar el servidor y cierra todos los streams.
func NewEventsHandler(base context.Context, stream subscriber, heartbeat time.Duration) *EventsHandler {
	if heartbeat <= 0 {
		heartbeat = 15 * time.Second
	}
	return &EventsHandler{stream: stream, base: base, heartbeat: heartbeat}
}

// Stream mantiene la conexión abierta y escribe cada evento; un comentario periódico detecta clientes caídos.
// GET /api/events
func (h *EventsHandler) Stream(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	ctx, cancel := context.WithCancel(h.base)
	ch := h.stream.Subscribe(ctx)

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		ticker := time.NewTicker(h.heartbeat)
		defer ticker.Stop()

		fmt.Fprint(w, ": conectado\n\n")
		if err := w.Flush(); err != nil {
			return
		}
		for {
			select {
			case env, ok := <-ch:
				if !ok {
					return
				}
				fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", env.ID, env.Event, env.Payload)
			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	})
	return nil
}
