package leads

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propdeskhq/propdesk/pkg/logger"
)

type fakeStore struct {
	rows   map[int]*Lead
	nextID int
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[int]*Lead)}
}

func (f *fakeStore) CreateLead(ctx context.Context, l *Lead) (*Lead, error) {
	f.nextID++
	l.ID = f.nextID
	f.rows[l.ID] = l
	return l, nil
}

func (f *fakeStore) UpdateLead(ctx context.Context, l *Lead) (*Lead, error) {
	if _, ok := f.rows[l.ID]; !ok {
		return nil, ErrLeadNotFound
	}
	f.rows[l.ID] = l
	return l, nil
}

func (f *fakeStore) GetLead(ctx context.Context, id int) (*Lead, error) {
	l, ok := f.rows[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	return l, nil
}

func (f *fakeStore) ListLeads(ctx context.Context, limit, offset int) ([]*Lead, error) {
	var out []*Lead
	for _, l := range f.rows {
		if !l.Archived {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeStore) ArchiveLead(ctx context.Context, id int) error {
	l, ok := f.rows[id]
	if !ok {
		return ErrLeadNotFound
	}
	l.Archived = true
	return nil
}

func (f *fakeStore) ListTimeline(ctx context.Context, leadID, limit int) ([]*TimelineEntry, error) {
	return nil, nil
}

func TestCreate(t *testing.T) {
	log := logger.New("error", "text")

	t.Run("normalizes phone and email", func(t *testing.T) {
		svc := NewService(newFakeStore(), nil, log)

		l, err := svc.Create(context.Background(), &Lead{
			Name:  "Sam Tenant",
			Email: "  Sam@Example.COM ",
			Phone: "(404) 555-1234",
		})
		require.NoError(t, err)
		assert.Equal(t, "sam@example.com", l.Email)
		assert.Equal(t, "+14045551234", l.Phone)
	})

	t.Run("keeps unparseable phone verbatim", func(t *testing.T) {
		svc := NewService(newFakeStore(), nil, log)

		l, err := svc.Create(context.Background(), &Lead{Name: "Sam", Phone: "ext. 12"})
		require.NoError(t, err)
		assert.Equal(t, "ext. 12", l.Phone)
	})

	t.Run("requires a name", func(t *testing.T) {
		svc := NewService(newFakeStore(), nil, log)

		_, err := svc.Create(context.Background(), &Lead{Phone: "+14045551234"})
		assert.ErrorIs(t, err, ErrMissingName)
	})
}

func TestArchive(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil, logger.New("error", "text"))

	l, err := svc.Create(context.Background(), &Lead{Name: "Sam"})
	require.NoError(t, err)

	require.NoError(t, svc.Archive(context.Background(), l.ID))
	assert.True(t, store.rows[l.ID].Archived)

	rows, err := svc.List(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, rows, "archived leads are hidden, not deleted")
}
