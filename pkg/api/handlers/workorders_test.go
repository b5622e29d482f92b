package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propdeskhq/propdesk/pkg/workorders"
)

type fakeWorkOrderStore struct {
	orders   map[int]*workorders.WorkOrder
	timeline map[int][]string
	nextID   int
}

func newFakeWorkOrderStore() *fakeWorkOrderStore {
	return &fakeWorkOrderStore{
		orders:   make(map[int]*workorders.WorkOrder),
		timeline: make(map[int][]string),
		nextID:   1,
	}
}

func (f *fakeWorkOrderStore) CreateWorkOrder(_ context.Context, w *workorders.WorkOrder) (*workorders.WorkOrder, error) {
	w.ID = f.nextID
	f.nextID++
	f.orders[w.ID] = w
	return w, nil
}

func (f *fakeWorkOrderStore) UpdateWorkOrder(_ context.Context, w *workorders.WorkOrder) (*workorders.WorkOrder, error) {
	if _, ok := f.orders[w.ID]; !ok {
		return nil, workorders.ErrWorkOrderNotFound
	}
	f.orders[w.ID] = w
	return w, nil
}

func (f *fakeWorkOrderStore) GetWorkOrder(_ context.Context, id int) (*workorders.WorkOrder, error) {
	w, ok := f.orders[id]
	if !ok {
		return nil, workorders.ErrWorkOrderNotFound
	}
	return w, nil
}

func (f *fakeWorkOrderStore) ListWorkOrders(_ context.Context, status workorders.Status, limit, offset int) ([]*workorders.WorkOrder, error) {
	var out []*workorders.WorkOrder
	for _, w := range f.orders {
		if status == "" || w.Status == status {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeWorkOrderStore) AppendWorkOrderTimeline(_ context.Context, workOrderID int, entry string) error {
	f.timeline[workOrderID] = append(f.timeline[workOrderID], entry)
	return nil
}

func (f *fakeWorkOrderStore) ListTimeline(_ context.Context, workOrderID, limit int) ([]*workorders.TimelineEntry, error) {
	var out []*workorders.TimelineEntry
	for i, entry := range f.timeline[workOrderID] {
		out = append(out, &workorders.TimelineEntry{ID: i + 1, WorkOrderID: workOrderID, Entry: entry})
	}
	return out, nil
}

func newWorkOrdersHandler(store *fakeWorkOrderStore) *WorkOrdersHandler {
	return NewWorkOrdersHandler(workorders.NewService(store, nil))
}

func TestWorkOrderCreate(t *testing.T) {
	store := newFakeWorkOrderStore()
	h := newWorkOrdersHandler(store)
	e := echo.New()

	req, rec := postJSON("/work-orders", `{"title":"Fix dishwasher","priority":"high"}`)
	require.NoError(t, h.Create(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var out workorders.WorkOrder
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, workorders.StatusOpen, out.Status)
	assert.NotEmpty(t, store.timeline[out.ID])
}

func TestWorkOrderCreateMissingTitle(t *testing.T) {
	h := newWorkOrdersHandler(newFakeWorkOrderStore())
	e := echo.New()

	req, rec := postJSON("/work-orders", `{"description":"no title"}`)
	require.NoError(t, h.Create(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWorkOrderStatusTransition(t *testing.T) {
	store := newFakeWorkOrderStore()
	h := newWorkOrdersHandler(store)
	e := echo.New()

	req, rec := postJSON("/work-orders", `{"title":"Fix dishwasher"}`)
	require.NoError(t, h.Create(e.NewContext(req, rec)))
	require.Equal(t, http.StatusCreated, rec.Code)

	req, rec = postJSON("/", `{"status":"in_progress"}`)
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.UpdateStatus(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var out workorders.WorkOrder
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, workorders.StatusInProgress, out.Status)
}

func TestWorkOrderInvalidTransition(t *testing.T) {
	store := newFakeWorkOrderStore()
	h := newWorkOrdersHandler(store)
	e := echo.New()

	req, rec := postJSON("/work-orders", `{"title":"Fix dishwasher"}`)
	require.NoError(t, h.Create(e.NewContext(req, rec)))

	// complete it
	req, rec = postJSON("/", `{"status":"completed"}`)
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.UpdateStatus(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// completed is terminal
	req, rec = postJSON("/", `{"status":"open"}`)
	c = e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.UpdateStatus(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestWorkOrderStatusRejectsUnknownValue(t *testing.T) {
	h := newWorkOrdersHandler(newFakeWorkOrderStore())
	e := echo.New()

	req, rec := postJSON("/", `{"status":"done"}`)
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.UpdateStatus(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWorkOrderGetNotFound(t *testing.T) {
	h := newWorkOrdersHandler(newFakeWorkOrderStore())
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("99")
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
