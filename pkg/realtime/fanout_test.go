package realtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propdeskhq/propdesk/pkg/cache"
)

type fakeNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (f *fakeNotifier) NotifyInbound(ctx context.Context, ev Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func leadID(id int) *int { return &id }

func TestFanoutInboundInsertNotifies(t *testing.T) {
	notifier := &fakeNotifier{}
	f := NewFanout(nil, nil, notifier, 5*time.Millisecond, nil)
	defer f.Stop()

	f.Handle(context.Background(), Event{
		Op: "INSERT", ID: "c1", Type: "sms", Direction: "inbound",
		LeadID: leadID(4), FromAddress: "+14045551234", Body: "hi",
	})

	assert.Equal(t, 1, notifier.count())
	assert.Equal(t, "c1", notifier.events[0].ID)
}

func TestFanoutOutboundSuppressed(t *testing.T) {
	notifier := &fakeNotifier{}
	f := NewFanout(nil, nil, notifier, 5*time.Millisecond, nil)
	defer f.Stop()

	f.Handle(context.Background(), Event{Op: "INSERT", ID: "c2", Direction: "outbound"})
	f.Handle(context.Background(), Event{Op: "UPDATE", ID: "c3", Direction: "inbound"})

	assert.Zero(t, notifier.count())
}

func TestFanoutInvalidatesCachesOnce(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cacheClient := &cache.Client{Redis: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	ctx := context.Background()
	require.NoError(t, cacheClient.Set(ctx, cache.KeyAllCommunications, "stale", time.Hour))

	f := NewFanout(nil, cacheClient, nil, 10*time.Millisecond, nil)
	defer f.Stop()

	// A burst of events collapses into a single invalidation
	for i := 0; i < 5; i++ {
		f.Handle(ctx, Event{Op: "INSERT", Direction: "inbound"})
	}

	assert.Eventually(t, func() bool {
		exists, err := cacheClient.Exists(ctx, cache.KeyAllCommunications)
		return err == nil && !exists
	}, time.Second, 5*time.Millisecond)
}

func TestFanoutBroadcastsToHub(t *testing.T) {
	hub := NewHub(nil)
	ch := hub.subscribe()
	defer hub.unsubscribe(ch)

	f := NewFanout(hub, nil, nil, 5*time.Millisecond, nil)
	defer f.Stop()

	f.Handle(context.Background(), Event{Op: "INSERT", ID: "c9", Direction: "inbound"})

	select {
	case payload := <-ch:
		assert.Contains(t, string(payload), `"c9"`)
	case <-time.After(time.Second):
		t.Fatal("no broadcast received")
	}
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	hub := NewHub(nil)
	ch := hub.subscribe()

	for i := 0; i < subscriberBuffer+1; i++ {
		hub.Broadcast([]byte("x"))
	}

	assert.Zero(t, hub.SubscriberCount())
	// Channel was closed by the hub
	for range ch {
	}
}
