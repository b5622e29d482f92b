package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"nhooyr.io/websocket"

	"github.com/propdeskhq/propdesk/pkg/logger"
)

const subscriberBuffer = 16

// Hub pushes inbox change events to connected WebSocket clients. Slow
// subscribers are dropped rather than allowed to stall the broadcast path.
type Hub struct {
	mu   sync.Mutex
	subs map[chan []byte]struct{}
	log  logger.Logger
}

// NewHub creates an empty hub.
func NewHub(log logger.Logger) *Hub {
	if log == nil {
		log = logger.Default()
	}
	return &Hub{
		subs: make(map[chan []byte]struct{}),
		log:  log,
	}
}

// Broadcast sends a payload to every subscriber without blocking.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- payload:
		default:
			// Buffer full; disconnect the laggard.
			delete(h.subs, ch)
			close(ch)
		}
	}
}

// SubscriberCount returns the number of connected clients.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) subscribe() chan []byte {
	ch := make(chan []byte, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) unsubscribe(ch chan []byte) {
	h.mu.Lock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// Handler upgrades the request to a WebSocket and streams events until the
// client disconnects.
func (h *Hub) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
			InsecureSkipVerify: true, // origin is enforced by the CORS layer
		})
		if err != nil {
			return err
		}
		defer conn.Close(websocket.StatusNormalClosure, "")

		ch := h.subscribe()
		defer h.unsubscribe(ch)

		ctx := c.Request().Context()
		for {
			select {
			case <-ctx.Done():
				return nil
			case payload, ok := <-ch:
				if !ok {
					return nil
				}
				writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
				err := conn.Write(writeCtx, websocket.MessageText, payload)
				cancel()
				if err != nil {
					return nil
				}
			}
		}
	}
}
