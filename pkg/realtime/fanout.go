package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/propdeskhq/propdesk/pkg/cache"
	"github.com/propdeskhq/propdesk/pkg/logger"
)

// Event is the change payload raised by the communication store via
// pg_notify whenever a row is inserted or updated.
type Event struct {
	Op          string `json:"op"` // INSERT or UPDATE
	ID          string `json:"id"`
	Type        string `json:"communication_type"`
	Direction   string `json:"direction"`
	LeadID      *int   `json:"lead_id,omitempty"`
	OwnerID     *int   `json:"owner_id,omitempty"`
	UserID      *int   `json:"user_id,omitempty"`
	FromAddress string `json:"from_address"`
	Subject     string `json:"subject,omitempty"`
	Body        string `json:"body"`
}

// InboundNotifier receives inbound-message events to surface as in-app
// notifications. Outbound events never reach it.
type InboundNotifier interface {
	NotifyInbound(ctx context.Context, ev Event) error
}

// Fanout reacts to communication change events: every event is broadcast to
// WebSocket subscribers and schedules a debounced invalidation of the four
// inbox query caches; inbound inserts additionally raise an in-app
// notification.
type Fanout struct {
	hub       *Hub
	debouncer *Debouncer
	notifier  InboundNotifier
	log       logger.Logger
}

// NewFanout wires the fan-out pipeline. notifier may be nil.
func NewFanout(hub *Hub, cacheClient *cache.Client, notifier InboundNotifier, window time.Duration, log logger.Logger) *Fanout {
	if log == nil {
		log = logger.Default()
	}
	f := &Fanout{
		hub:      hub,
		notifier: notifier,
		log:      log,
	}
	f.debouncer = NewDebouncer(window, func() {
		if cacheClient == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := cacheClient.InvalidateInboxCaches(ctx); err != nil {
			log.Warn("inbox cache invalidation failed", "error", err)
		}
	})
	return f
}

// Handle processes one change event.
func (f *Fanout) Handle(ctx context.Context, ev Event) {
	if f.hub != nil {
		if payload, err := json.Marshal(ev); err == nil {
			f.hub.Broadcast(payload)
		}
	}

	if ev.Op == "INSERT" && ev.Direction == "inbound" && f.notifier != nil {
		if err := f.notifier.NotifyInbound(ctx, ev); err != nil {
			f.log.Warn("inbound notification failed",
				"communication_id", ev.ID, "error", err)
		}
	}

	f.debouncer.Trigger()
}

// Stop cancels any pending cache invalidation.
func (f *Fanout) Stop() {
	f.debouncer.Stop()
}
