package comms

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propdeskhq/propdesk/pkg/cache"
)

func setupService(t *testing.T) (*Service, *fakeStore, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cacheClient := &cache.Client{Redis: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	store := newFakeStore()
	return NewService(store, cacheClient, nil), store, mr
}

func TestServiceListAll(t *testing.T) {
	svc, store, _ := setupService(t)
	ctx := context.Background()

	writer := NewWriter(store, nil, nil)
	_, err := writer.Write(ctx, inboundSMS("list-1"))
	require.NoError(t, err)

	t.Run("Returns records and populates cache", func(t *testing.T) {
		recs, err := svc.ListAll(ctx, 50, 0)
		require.NoError(t, err)
		assert.Len(t, recs, 1)

		// Second call is served from cache even if the store changes
		_, err = writer.Write(ctx, inboundSMS("list-2"))
		require.NoError(t, err)

		cached, err := svc.ListAll(ctx, 50, 0)
		require.NoError(t, err)
		assert.Len(t, cached, 1)
	})

	t.Run("Invalidation exposes fresh rows", func(t *testing.T) {
		err := svc.MarkThreadRead(ctx, "+14045551234")
		require.NoError(t, err)

		recs, err := svc.ListAll(ctx, 50, 0)
		require.NoError(t, err)
		assert.Len(t, recs, 2)
	})
}

func TestServiceThread(t *testing.T) {
	svc, store, _ := setupService(t)
	ctx := context.Background()
	writer := NewWriter(store, nil, nil)

	_, err := writer.Write(ctx, inboundSMS("th-1"))
	require.NoError(t, err)
	other := inboundSMS("th-2")
	other.FromAddress = "+17705550000"
	_, err = writer.Write(ctx, other)
	require.NoError(t, err)

	recs, err := svc.Thread(ctx, "(404) 555-1234", 50)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "th-1", recs[0].ExternalID)
}

func TestServiceMarkRead(t *testing.T) {
	svc, store, _ := setupService(t)
	ctx := context.Background()
	writer := NewWriter(store, nil, nil)

	rec, err := writer.Write(ctx, inboundSMS("read-1"))
	require.NoError(t, err)
	assert.False(t, rec.IsRead)

	require.NoError(t, svc.MarkRead(ctx, rec.ID))

	got, err := svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRead)
}

func TestServiceWithoutCache(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	writer := NewWriter(store, nil, nil)
	_, err := writer.Write(ctx, inboundSMS("nc-1"))
	require.NoError(t, err)

	recs, err := svc.ListAll(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}
