package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propdeskhq/propdesk/pkg/comms"
	"github.com/propdeskhq/propdesk/pkg/models"
)

type fakeCommsStore struct {
	records []*comms.Record
	read    map[string]bool
}

func newFakeCommsStore(records ...*comms.Record) *fakeCommsStore {
	return &fakeCommsStore{records: records, read: make(map[string]bool)}
}

func (f *fakeCommsStore) UpsertRecord(_ context.Context, rec *comms.Record) (*comms.Record, bool, error) {
	f.records = append(f.records, rec)
	return rec, true, nil
}

func (f *fakeCommsStore) GetRecord(_ context.Context, id string) (*comms.Record, error) {
	for _, r := range f.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, comms.ErrRecordNotFound
}

func (f *fakeCommsStore) GetByExternalID(_ context.Context, t comms.Type, externalID string) (*comms.Record, error) {
	for _, r := range f.records {
		if r.Type == t && r.ExternalID == externalID {
			return r, nil
		}
	}
	return nil, comms.ErrRecordNotFound
}

func (f *fakeCommsStore) ListByLead(_ context.Context, leadID, limit, offset int) ([]*comms.Record, error) {
	var out []*comms.Record
	for _, r := range f.records {
		if r.LeadID != nil && *r.LeadID == leadID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeCommsStore) ListAll(_ context.Context, limit, offset int) ([]*comms.Record, error) {
	return f.records, nil
}

func (f *fakeCommsStore) Thread(_ context.Context, contact string, limit int) ([]*comms.Record, error) {
	var out []*comms.Record
	for _, r := range f.records {
		if r.FromAddress == contact || r.ToAddress == contact {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeCommsStore) MarkRead(_ context.Context, id string) error {
	if _, err := f.GetRecord(context.Background(), id); err != nil {
		return err
	}
	f.read[id] = true
	return nil
}

func (f *fakeCommsStore) MarkThreadRead(_ context.Context, contact string) error {
	for _, r := range f.records {
		if r.FromAddress == contact || r.ToAddress == contact {
			f.read[r.ID] = true
		}
	}
	return nil
}

func (f *fakeCommsStore) Archive(_ context.Context, id string) error {
	for _, r := range f.records {
		if r.ID == id {
			r.Archived = true
			return nil
		}
	}
	return comms.ErrRecordNotFound
}

func (f *fakeCommsStore) UpdateDelivery(_ context.Context, t comms.Type, externalID string, status comms.Status, deliveryStatus string) error {
	return nil
}

func smsRecord(id, from, body string, leadID *int) *comms.Record {
	return &comms.Record{
		ID:          id,
		LeadID:      leadID,
		Type:        comms.TypeSMS,
		Direction:   comms.DirectionInbound,
		Body:        body,
		FromAddress: from,
		ToAddress:   "+15550000000",
		ExternalID:  "ext-" + id,
		Status:      comms.StatusReceived,
		CreatedAt:   time.Now(),
	}
}

func newCommsHandler(store *fakeCommsStore) *CommunicationsHandler {
	return NewCommunicationsHandler(comms.NewService(store, nil, nil))
}

func TestCommunicationsList(t *testing.T) {
	leadID := 7
	store := newFakeCommsStore(
		smsRecord("c1", "+15551234567", "When can I see the unit?", &leadID),
		smsRecord("c2", "+15559876543", "Roof leak in 4B", nil),
	)
	h := newCommsHandler(store)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/communications", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, h.List(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)

	var out []*comms.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Len(t, out, 2)
}

func TestCommunicationsListByLead(t *testing.T) {
	leadID := 7
	store := newFakeCommsStore(
		smsRecord("c1", "+15551234567", "When can I see the unit?", &leadID),
		smsRecord("c2", "+15559876543", "Roof leak in 4B", nil),
	)
	h := newCommsHandler(store)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("7")

	require.NoError(t, h.ListByLead(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var out []*comms.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "c1", out[0].ID)
}

func TestCommunicationsListByLeadBadID(t *testing.T) {
	h := newCommsHandler(newFakeCommsStore())
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("abc")

	require.NoError(t, h.ListByLead(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommunicationsThreadRequiresContact(t *testing.T) {
	h := newCommsHandler(newFakeCommsStore())
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/communications/thread", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, h.Thread(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommunicationsThreadsMergeContacts(t *testing.T) {
	base := time.Now().Add(-time.Hour)
	// Same caller in two formats plus an email contact.
	first := smsRecord("c1", "+14045551234", "Is the unit available?", nil)
	first.CreatedAt = base
	second := smsRecord("c2", "4045551234", "Following up!", nil)
	second.CreatedAt = base.Add(10 * time.Minute)
	third := &comms.Record{
		ID:          "c3",
		Type:        comms.TypeEmail,
		Direction:   comms.DirectionInbound,
		Subject:     "Lease question",
		Body:        "Can I add a roommate?",
		FromAddress: "tenant@example.com",
		ToAddress:   "office@propdesk.io",
		ExternalID:  "ext-c3",
		Status:      comms.StatusReceived,
		CreatedAt:   base.Add(30 * time.Minute),
	}
	h := newCommsHandler(newFakeCommsStore(first, second, third))
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/communications/threads", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, h.Threads(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)

	var out []models.ThreadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 2)

	// Newest thread first: the email arrived last.
	assert.Equal(t, "tenant@example.com", out[0].ContactEmail)
	assert.Equal(t, 1, out[0].UnreadCount)

	// Both phone formats collapse into one thread keeping the newest
	// message and summing unread counts.
	assert.Equal(t, "Following up!", out[1].LastMessage)
	assert.Equal(t, 2, out[1].UnreadCount)
}

func TestCommunicationsThreadsOutboundOnlyThreadIsRead(t *testing.T) {
	outbound := &comms.Record{
		ID:          "c1",
		Type:        comms.TypeSMS,
		Direction:   comms.DirectionOutbound,
		Body:        "Your tour is confirmed for 3pm.",
		FromAddress: "+15550000000",
		ToAddress:   "+14045559999",
		ExternalID:  "ext-c1",
		Status:      comms.StatusSent,
		CreatedAt:   time.Now(),
	}
	h := newCommsHandler(newFakeCommsStore(outbound))
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/communications/threads", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, h.Threads(e.NewContext(req, rec)))

	var out []models.ThreadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	// Threads group on the external party, not our office number.
	assert.Equal(t, "+14045559999", out[0].ContactPhone)
	assert.Equal(t, 0, out[0].UnreadCount)
}

func TestCommunicationsSearch(t *testing.T) {
	store := newFakeCommsStore(
		smsRecord("c1", "+15551234567", "When can I see the unit on Maple Street?", nil),
		smsRecord("c2", "+15559876543", "Roof leak in 4B", nil),
	)
	h := newCommsHandler(store)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/communications/search?q="+url.QueryEscape("roof leak"), nil)
	rec := httptest.NewRecorder()

	require.NoError(t, h.Search(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)

	var out []*comms.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "c2", out[0].ID)
}

func TestCommunicationsMarkReadNotFound(t *testing.T) {
	h := newCommsHandler(newFakeCommsStore())
	e := echo.New()

	req := httptest.NewRequest(http.MethodPut, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("missing")

	require.NoError(t, h.MarkRead(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCommunicationsArchive(t *testing.T) {
	store := newFakeCommsStore(smsRecord("c1", "+15551234567", "hello", nil))
	h := newCommsHandler(store)
	e := echo.New()

	req := httptest.NewRequest(http.MethodPut, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("c1")

	require.NoError(t, h.Archive(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, store.records[0].Archived)
}
