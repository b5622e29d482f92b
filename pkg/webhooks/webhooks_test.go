package webhooks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propdeskhq/propdesk/pkg/comms"
	"github.com/propdeskhq/propdesk/pkg/identity"
	"github.com/propdeskhq/propdesk/pkg/logger"
)

type memStore struct {
	records    []*comms.Record
	deliveries []string
}

func (s *memStore) UpsertRecord(ctx context.Context, rec *comms.Record) (*comms.Record, bool, error) {
	for _, existing := range s.records {
		if existing.Type == rec.Type && existing.ExternalID == rec.ExternalID {
			return existing, false, nil
		}
	}
	s.records = append(s.records, rec)
	return rec, true, nil
}

func (s *memStore) GetRecord(ctx context.Context, id string) (*comms.Record, error) {
	return nil, comms.ErrRecordNotFound
}

func (s *memStore) GetByExternalID(ctx context.Context, t comms.Type, externalID string) (*comms.Record, error) {
	return nil, comms.ErrRecordNotFound
}

func (s *memStore) ListByLead(ctx context.Context, leadID, limit, offset int) ([]*comms.Record, error) {
	return nil, nil
}

func (s *memStore) ListAll(ctx context.Context, limit, offset int) ([]*comms.Record, error) {
	return nil, nil
}

func (s *memStore) Thread(ctx context.Context, contact string, limit int) ([]*comms.Record, error) {
	return nil, nil
}

func (s *memStore) MarkRead(ctx context.Context, id string) error { return nil }

func (s *memStore) MarkThreadRead(ctx context.Context, contact string) error { return nil }

func (s *memStore) Archive(ctx context.Context, id string) error { return nil }

func (s *memStore) UpdateDelivery(ctx context.Context, t comms.Type, externalID string, status comms.Status, deliveryStatus string) error {
	s.deliveries = append(s.deliveries, externalID+":"+deliveryStatus)
	return nil
}

// fakeDirectory maps last-10 phone keys onto identities.
type fakeDirectory struct {
	leads  map[string]int
	owners map[string]int
	users  map[string]int
}

func (d *fakeDirectory) FindLeadByPhone(ctx context.Context, lastTen string) (int, bool, error) {
	id, ok := d.leads[lastTen]
	return id, ok, nil
}

func (d *fakeDirectory) FindOwnerByPhone(ctx context.Context, lastTen string) (int, bool, error) {
	id, ok := d.owners[lastTen]
	return id, ok, nil
}

func (d *fakeDirectory) FindUserByPhone(ctx context.Context, lastTen string) (int, bool, error) {
	id, ok := d.users[lastTen]
	return id, ok, nil
}

func (d *fakeDirectory) FindLeadByEmail(ctx context.Context, email string) (int, bool, error) {
	return 0, false, nil
}

func (d *fakeDirectory) FindOwnerByEmail(ctx context.Context, email string) (int, bool, error) {
	return 0, false, nil
}

func (d *fakeDirectory) FindUserByEmail(ctx context.Context, email string) (int, bool, error) {
	return 0, false, nil
}

type fakeDocEvents struct {
	applied []string
	fail    bool
}

func (f *fakeDocEvents) ApplyDocumentEvent(ctx context.Context, externalID, eventType string) error {
	if f.fail {
		return assert.AnError
	}
	f.applied = append(f.applied, externalID+":"+eventType)
	return nil
}

type fakeSyncer struct {
	synced []PhoneAssignment
}

func (f *fakeSyncer) SyncAssignments(ctx context.Context, assignments []PhoneAssignment) error {
	f.synced = append(f.synced, assignments...)
	return nil
}

type fixture struct {
	handler *Handler
	store   *memStore
	docs    *fakeDocEvents
	syncer  *fakeSyncer
}

func newFixture() *fixture {
	log := logger.New("error", "text")
	dir := &fakeDirectory{
		leads:  map[string]int{"4045551234": 42},
		owners: map[string]int{"7705550001": 9},
		users:  map[string]int{"4045550100": 3},
	}
	store := &memStore{}
	docs := &fakeDocEvents{}
	syncer := &fakeSyncer{}
	writer := comms.NewWriter(store, nil, log)
	handler := NewHandler(writer, identity.NewResolver(dir), dir, docs, syncer, log)
	return &fixture{handler: handler, store: store, docs: docs, syncer: syncer}
}

func postJSON(t *testing.T, handler echo.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, handler(e.NewContext(req, rec)))
	return rec
}

func postForm(t *testing.T, handler echo.HandlerFunc, form string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	require.NoError(t, handler(e.NewContext(req, rec)))
	return rec
}

const inboundSMSBody = `{"data":{"event_type":"message.received","payload":{
	"id":"msg_ext_1",
	"text":"Is the unit still available?",
	"from":{"phone_number":"+14045551234"},
	"to":[{"phone_number":"+14045550100"}]
}}}`

func TestTelnyxMessage(t *testing.T) {
	t.Run("inbound SMS from a known lead is stored with attribution", func(t *testing.T) {
		f := newFixture()

		rec := postJSON(t, f.handler.TelnyxMessage, inboundSMSBody)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"success":true}`, rec.Body.String())

		require.Len(t, f.store.records, 1)
		saved := f.store.records[0]
		assert.Equal(t, comms.TypeSMS, saved.Type)
		assert.Equal(t, comms.DirectionInbound, saved.Direction)
		assert.Equal(t, comms.StatusReceived, saved.Status)
		require.NotNil(t, saved.LeadID)
		assert.Equal(t, 42, *saved.LeadID)
		require.NotNil(t, saved.UserID)
		assert.Equal(t, 3, *saved.UserID)
	})

	t.Run("duplicate delivery yields exactly one row", func(t *testing.T) {
		f := newFixture()

		postJSON(t, f.handler.TelnyxMessage, inboundSMSBody)
		postJSON(t, f.handler.TelnyxMessage, inboundSMSBody)

		assert.Len(t, f.store.records, 1)
	})

	t.Run("inbound SMS for an unassigned number is acknowledged and dropped", func(t *testing.T) {
		f := newFixture()

		body := `{"data":{"event_type":"message.received","payload":{
			"id":"msg_ext_2",
			"text":"hello",
			"from":{"phone_number":"+14045551234"},
			"to":[{"phone_number":"+19995550000"}]
		}}}`
		rec := postJSON(t, f.handler.TelnyxMessage, body)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"success":true}`, rec.Body.String())
		assert.Empty(t, f.store.records)
	})

	t.Run("unknown sender on an assigned number is stored for the user only", func(t *testing.T) {
		f := newFixture()

		body := `{"data":{"event_type":"message.received","payload":{
			"id":"msg_ext_3",
			"text":"wrong number?",
			"from":{"phone_number":"+15125550123"},
			"to":[{"phone_number":"+14045550100"}]
		}}}`
		postJSON(t, f.handler.TelnyxMessage, body)

		require.Len(t, f.store.records, 1)
		saved := f.store.records[0]
		assert.Nil(t, saved.LeadID)
		assert.Nil(t, saved.OwnerID)
		require.NotNil(t, saved.UserID)
	})

	t.Run("missing payload fields still acknowledge with 200", func(t *testing.T) {
		f := newFixture()

		rec := postJSON(t, f.handler.TelnyxMessage, `{"data":{"event_type":"message.received","payload":{}}}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, f.store.records)
	})

	t.Run("finalized event applies delivery status", func(t *testing.T) {
		f := newFixture()

		body := `{"data":{"event_type":"message.finalized","payload":{
			"id":"msg_out_1",
			"to":[{"phone_number":"+14045551234","status":"delivered"}]
		}}}`
		postJSON(t, f.handler.TelnyxMessage, body)

		require.Len(t, f.store.deliveries, 1)
		assert.Equal(t, "msg_out_1:delivered", f.store.deliveries[0])
	})
}

func TestTelnyxVoicemail(t *testing.T) {
	t.Run("recording saved for an assigned number files a voicemail", func(t *testing.T) {
		f := newFixture()

		body := `{"data":{"event_type":"call.recording.saved","payload":{
			"call_session_id":"call_sess_1",
			"from":{"phone_number":"+17705550001"},
			"recording_to":"+14045550100",
			"recording_urls":{"mp3":"https://recordings.telnyx.com/abc.mp3"}
		}}}`
		rec := postJSON(t, f.handler.TelnyxVoicemail, body)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, f.store.records, 1)
		saved := f.store.records[0]
		assert.Equal(t, comms.TypeVoicemail, saved.Type)
		assert.Equal(t, comms.StatusVoicemail, saved.Status)
		assert.Equal(t, "https://recordings.telnyx.com/abc.mp3", saved.Metadata["recording_url"])
		require.NotNil(t, saved.OwnerID)
		assert.Equal(t, 9, *saved.OwnerID)
	})

	t.Run("voicemail for an unassigned number is acknowledged with zero writes", func(t *testing.T) {
		f := newFixture()

		body := `{"data":{"event_type":"call.recording.saved","payload":{
			"call_session_id":"call_sess_2",
			"from":{"phone_number":"+17705550001"},
			"recording_to":"+19995550000",
			"recording_urls":{"mp3":"https://recordings.telnyx.com/def.mp3"}
		}}}`
		rec := postJSON(t, f.handler.TelnyxVoicemail, body)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"success":true}`, rec.Body.String())
		assert.Empty(t, f.store.records)
	})

	t.Run("missing recording url is acknowledged without a write", func(t *testing.T) {
		f := newFixture()

		body := `{"data":{"event_type":"call.recording.saved","payload":{
			"call_session_id":"call_sess_3",
			"from":{"phone_number":"+17705550001"},
			"recording_to":"+14045550100"
		}}}`
		rec := postJSON(t, f.handler.TelnyxVoicemail, body)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, f.store.records)
	})
}

func TestTwilioCallStatus(t *testing.T) {
	t.Run("completed call is stored as answered with TwiML response", func(t *testing.T) {
		f := newFixture()

		form := "CallSid=CA123&CallStatus=completed&From=%2B14045551234&To=%2B14045550100&CallDuration=95"
		rec := postForm(t, f.handler.TwilioCallStatus, form)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "<Response>")

		require.Len(t, f.store.records, 1)
		saved := f.store.records[0]
		assert.Equal(t, comms.TypeCall, saved.Type)
		assert.Equal(t, comms.StatusAnswered, saved.Status)
		assert.Equal(t, "CA123", saved.ExternalID)
		assert.Equal(t, "95", saved.Metadata["duration_seconds"])
	})

	t.Run("no-answer call with recording keeps the recording url", func(t *testing.T) {
		f := newFixture()

		form := "CallSid=CA124&CallStatus=no-answer&From=%2B14045551234&To=%2B14045550100&RecordingUrl=https%3A%2F%2Fapi.twilio.com%2Frec%2F1"
		postForm(t, f.handler.TwilioCallStatus, form)

		require.Len(t, f.store.records, 1)
		saved := f.store.records[0]
		assert.Equal(t, comms.StatusFailed, saved.Status)
		assert.Equal(t, "https://api.twilio.com/rec/1", saved.Metadata["recording_url"])
	})

	t.Run("intermediate states write nothing", func(t *testing.T) {
		f := newFixture()

		postForm(t, f.handler.TwilioCallStatus, "CallSid=CA125&CallStatus=ringing&From=%2B14045551234&To=%2B14045550100")
		assert.Empty(t, f.store.records)
	})

	t.Run("missing CallSid is acknowledged", func(t *testing.T) {
		f := newFixture()

		rec := postForm(t, f.handler.TwilioCallStatus, "CallStatus=completed")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, f.store.records)
	})
}

func TestSignWell(t *testing.T) {
	t.Run("document event is applied", func(t *testing.T) {
		f := newFixture()

		body := `{"event":{"type":"document_signed"},"data":{"object":{"id":"doc_ext_1"}}}`
		rec := postJSON(t, f.handler.SignWell, body)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, f.docs.applied, 1)
		assert.Equal(t, "doc_ext_1:document_signed", f.docs.applied[0])
	})

	t.Run("handler failure still acknowledges", func(t *testing.T) {
		f := newFixture()
		f.docs.fail = true

		body := `{"event":{"type":"document_signed"},"data":{"object":{"id":"doc_ext_1"}}}`
		rec := postJSON(t, f.handler.SignWell, body)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestGHLPhoneSync(t *testing.T) {
	t.Run("valid payload replaces assignments", func(t *testing.T) {
		f := newFixture()

		body := `{"assignments":[
			{"email":"agent@propdesk.io","phone_number":"+14045550100","active":true},
			{"email":"agent2@propdesk.io","phone_number":"+14045550101","active":false}
		]}`
		rec := postJSON(t, f.handler.GHLPhoneSync, body)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, f.syncer.synced, 2)
		assert.True(t, f.syncer.synced[0].Active)
	})

	t.Run("invalid payload is acknowledged without syncing", func(t *testing.T) {
		f := newFixture()

		body := `{"assignments":[{"email":"not-an-email","phone_number":""}]}`
		rec := postJSON(t, f.handler.GHLPhoneSync, body)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, f.syncer.synced)
	})
}
