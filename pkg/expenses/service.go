package expenses

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrExpenseNotFound is returned when an expense doesn't exist
	ErrExpenseNotFound = errors.New("expense not found")
	// ErrInvalidAmount is returned for zero or negative amounts
	ErrInvalidAmount = errors.New("expense amount must be positive")
)

// Expense is one property-related cost entry.
type Expense struct {
	ID          int       `json:"id"`
	PropertyID  *int      `json:"property_id,omitempty"`
	WorkOrderID *int      `json:"work_order_id,omitempty"`
	Category    string    `json:"category"` // maintenance, utilities, taxes, insurance, other
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	IncurredAt  time.Time `json:"incurred_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// Filter narrows expense listings and exports.
type Filter struct {
	PropertyID *int
	Category   string
	From       time.Time
	To         time.Time
}

// Store is the persistence contract for expenses.
type Store interface {
	CreateExpense(ctx context.Context, e *Expense) (*Expense, error)
	GetExpense(ctx context.Context, id int) (*Expense, error)
	ListExpenses(ctx context.Context, f Filter, limit, offset int) ([]*Expense, error)
	DeleteExpense(ctx context.Context, id int) error
}

// Service handles expense operations
type Service struct {
	store Store
}

// NewService creates a new expense service
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create records an expense.
func (s *Service) Create(ctx context.Context, e *Expense) (*Expense, error) {
	if e.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if e.Category == "" {
		e.Category = "other"
	}
	if e.IncurredAt.IsZero() {
		e.IncurredAt = time.Now().UTC()
	}

	created, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}
	return created, nil
}

// Get returns one expense.
func (s *Service) Get(ctx context.Context, id int) (*Expense, error) {
	return s.store.GetExpense(ctx, id)
}

// List returns expenses matching the filter, newest first.
func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Expense, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.store.ListExpenses(ctx, f, limit, offset)
}

// Delete removes an expense.
func (s *Service) Delete(ctx context.Context, id int) error {
	return s.store.DeleteExpense(ctx, id)
}
