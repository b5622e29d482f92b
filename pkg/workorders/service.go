package workorders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/propdeskhq/propdesk/pkg/logger"
)

var (
	// ErrWorkOrderNotFound is returned when a work order doesn't exist
	ErrWorkOrderNotFound = errors.New("work order not found")
	// ErrMissingTitle is returned when a work order has no title
	ErrMissingTitle = errors.New("work order title is required")
	// ErrInvalidTransition is returned for a disallowed status change
	ErrInvalidTransition = errors.New("invalid work order status transition")
)

// Status of a maintenance work order
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// WorkOrder is one maintenance request against a property.
type WorkOrder struct {
	ID          int       `json:"id"`
	PropertyID  *int      `json:"property_id,omitempty"`
	LeadID      *int      `json:"lead_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Priority    string    `json:"priority,omitempty"` // low, normal, high, emergency
	Status      Status    `json:"status"`
	AssignedTo  string    `json:"assigned_to,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TimelineEntry is one audit line on a work order.
type TimelineEntry struct {
	ID          int       `json:"id"`
	WorkOrderID int       `json:"work_order_id"`
	Entry       string    `json:"entry"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store is the persistence contract for work orders.
type Store interface {
	CreateWorkOrder(ctx context.Context, w *WorkOrder) (*WorkOrder, error)
	UpdateWorkOrder(ctx context.Context, w *WorkOrder) (*WorkOrder, error)
	GetWorkOrder(ctx context.Context, id int) (*WorkOrder, error)
	ListWorkOrders(ctx context.Context, status Status, limit, offset int) ([]*WorkOrder, error)
	AppendWorkOrderTimeline(ctx context.Context, workOrderID int, entry string) error
	ListTimeline(ctx context.Context, workOrderID, limit int) ([]*TimelineEntry, error)
}

// transitions maps each status to the statuses it may move to. Completed and
// cancelled are terminal.
var transitions = map[Status][]Status{
	StatusOpen:       {StatusInProgress, StatusCompleted, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled, StatusOpen},
}

// Service handles work order operations
type Service struct {
	store Store
	log   logger.Logger
}

// NewService creates a new work order service
func NewService(store Store, log logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{store: store, log: log}
}

// Create opens a new work order.
func (s *Service) Create(ctx context.Context, w *WorkOrder) (*WorkOrder, error) {
	if strings.TrimSpace(w.Title) == "" {
		return nil, ErrMissingTitle
	}
	if w.Priority == "" {
		w.Priority = "normal"
	}
	w.Status = StatusOpen

	created, err := s.store.CreateWorkOrder(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("failed to create work order: %w", err)
	}
	s.appendTimeline(ctx, created.ID, fmt.Sprintf("Work order opened: %s", created.Title))
	return created, nil
}

// Get returns one work order.
func (s *Service) Get(ctx context.Context, id int) (*WorkOrder, error) {
	return s.store.GetWorkOrder(ctx, id)
}

// List returns work orders, optionally filtered by status.
func (s *Service) List(ctx context.Context, status Status, limit, offset int) ([]*WorkOrder, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.ListWorkOrders(ctx, status, limit, offset)
}

// UpdateStatus moves a work order through its lifecycle, enforcing that
// terminal states never change.
func (s *Service) UpdateStatus(ctx context.Context, id int, next Status) (*WorkOrder, error) {
	w, err := s.store.GetWorkOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed := false
	for _, t := range transitions[w.Status] {
		if t == next {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, w.Status, next)
	}

	prev := w.Status
	w.Status = next
	updated, err := s.store.UpdateWorkOrder(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("failed to update work order: %w", err)
	}
	s.appendTimeline(ctx, id, fmt.Sprintf("Status changed from %s to %s", prev, next))
	return updated, nil
}

// Timeline returns a work order's newest audit entries.
func (s *Service) Timeline(ctx context.Context, id, limit int) ([]*TimelineEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.ListTimeline(ctx, id, limit)
}

// appendTimeline is best-effort; a timeline failure never fails the
// operation that produced it.
func (s *Service) appendTimeline(ctx context.Context, id int, entry string) {
	if err := s.store.AppendWorkOrderTimeline(ctx, id, entry); err != nil {
		s.log.Warn("failed to append work order timeline entry", "work_order_id", id, "error", err)
	}
}
