package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lib/pq"

	"github.com/propdeskhq/propdesk/pkg/logger"
)

// NotifyChannel is the Postgres NOTIFY channel the communication store
// raises change events on.
const NotifyChannel = "communications_changed"

const (
	listenerMinReconnect = 10 * time.Second
	listenerMaxReconnect = time.Minute
)

// Listener subscribes to Postgres LISTEN/NOTIFY and feeds change events to
// the fan-out pipeline.
type Listener struct {
	pq     *pq.Listener
	fanout *Fanout
	log    logger.Logger
}

// NewListener creates a listener on the communications change channel.
func NewListener(dsn string, fanout *Fanout, log logger.Logger) (*Listener, error) {
	if log == nil {
		log = logger.Default()
	}

	l := &Listener{
		fanout: fanout,
		log:    log,
	}

	l.pq = pq.NewListener(dsn, listenerMinReconnect, listenerMaxReconnect,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Warn("postgres listener event", "event", int(ev), "error", err)
			}
		})

	if err := l.pq.Listen(NotifyChannel); err != nil {
		l.pq.Close()
		return nil, err
	}

	return l, nil
}

// Run consumes notifications until ctx is cancelled. A nil notification is
// lib/pq signalling a reconnect; the inbox queries are refetched on the next
// cache miss so nothing needs replaying.
func (l *Listener) Run(ctx context.Context) {
	defer l.pq.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case n := <-l.pq.Notify:
			if n == nil {
				l.log.Warn("postgres listener reconnected, forcing cache refresh")
				l.fanout.debouncer.Trigger()
				continue
			}

			var ev Event
			if err := json.Unmarshal([]byte(n.Extra), &ev); err != nil {
				l.log.Warn("malformed change notification", "payload", n.Extra, "error", err)
				continue
			}
			l.fanout.Handle(ctx, ev)
		case <-time.After(90 * time.Second):
			// Liveness probe per lib/pq guidance.
			go l.pq.Ping()
		}
	}
}
