package notifications

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propdeskhq/propdesk/pkg/logger"
	"github.com/propdeskhq/propdesk/pkg/realtime"
)

type fakeStore struct {
	rows   []*Notification
	nextID int
}

func (f *fakeStore) CreateNotification(ctx context.Context, n *Notification) (*Notification, error) {
	f.nextID++
	n.ID = f.nextID
	f.rows = append(f.rows, n)
	return n, nil
}

func (f *fakeStore) ListByUser(ctx context.Context, userID, limit int) ([]*Notification, error) {
	var out []*Notification
	for i := len(f.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if f.rows[i].UserID == userID {
			out = append(out, f.rows[i])
		}
	}
	return out, nil
}

func (f *fakeStore) UnreadCount(ctx context.Context, userID int) (int, error) {
	count := 0
	for _, n := range f.rows {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) MarkRead(ctx context.Context, id, userID int) error {
	for _, n := range f.rows {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return ErrNotificationNotFound
}

func (f *fakeStore) MarkAllRead(ctx context.Context, userID int) error {
	for _, n := range f.rows {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func TestNotifyInbound(t *testing.T) {
	log := logger.New("error", "text")
	userID := 3

	t.Run("inbound SMS creates a notification for the assigned user", func(t *testing.T) {
		store := &fakeStore{}
		svc := NewService(store, log)

		err := svc.NotifyInbound(context.Background(), realtime.Event{
			Op:          "INSERT",
			Type:        "sms",
			Direction:   "inbound",
			UserID:      &userID,
			FromAddress: "+14045551234",
			Body:        "hi",
		})
		require.NoError(t, err)

		require.Len(t, store.rows, 1)
		n := store.rows[0]
		assert.Equal(t, 3, n.UserID)
		assert.Equal(t, "inbound_sms", n.Type)
		assert.Equal(t, "New text message", n.Title)
		assert.Contains(t, n.Message, "(404) 555-1234")
		assert.False(t, n.IsRead)
	})

	t.Run("voicemail and email get their own titles", func(t *testing.T) {
		store := &fakeStore{}
		svc := NewService(store, log)

		require.NoError(t, svc.NotifyInbound(context.Background(), realtime.Event{
			Type: "voicemail", UserID: &userID, FromAddress: "+14045551234",
		}))
		require.NoError(t, svc.NotifyInbound(context.Background(), realtime.Event{
			Type: "email", UserID: &userID, FromAddress: "tenant@example.com", Subject: "Lease question",
		}))

		require.Len(t, store.rows, 2)
		assert.Equal(t, "New voicemail", store.rows[0].Title)
		assert.Equal(t, "New email", store.rows[1].Title)
		assert.Contains(t, store.rows[1].Message, "Lease question")
	})

	t.Run("event without a user is a no-op", func(t *testing.T) {
		store := &fakeStore{}
		svc := NewService(store, log)

		require.NoError(t, svc.NotifyInbound(context.Background(), realtime.Event{
			Type: "sms", FromAddress: "+14045551234",
		}))
		assert.Empty(t, store.rows)
	})
}

func TestListAndRead(t *testing.T) {
	log := logger.New("error", "text")
	store := &fakeStore{}
	svc := NewService(store, log)

	for i := 0; i < 25; i++ {
		_, err := svc.Create(context.Background(), 1, "inbound_sms", "New text message", "msg")
		require.NoError(t, err)
	}
	_, err := svc.Create(context.Background(), 2, "inbound_sms", "New text message", "other user")
	require.NoError(t, err)

	t.Run("list is capped at 20 newest", func(t *testing.T) {
		rows, err := svc.List(context.Background(), 1)
		require.NoError(t, err)
		assert.Len(t, rows, ListLimit)
		assert.Equal(t, 25, rows[0].ID, "newest first")
	})

	t.Run("mark read respects ownership", func(t *testing.T) {
		require.NoError(t, svc.MarkRead(context.Background(), 1, 1))
		assert.ErrorIs(t, svc.MarkRead(context.Background(), 26, 1), ErrNotificationNotFound)

		count, err := svc.UnreadCount(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, 24, count)
	})

	t.Run("mark all read", func(t *testing.T) {
		require.NoError(t, svc.MarkAllRead(context.Background(), 1))
		count, err := svc.UnreadCount(context.Background(), 1)
		require.NoError(t, err)
		assert.Zero(t, count)

		count, err = svc.UnreadCount(context.Background(), 2)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}
