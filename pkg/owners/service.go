package owners

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/propdeskhq/propdesk/pkg/phone"
)

var (
	// ErrOwnerNotFound is returned when an owner doesn't exist
	ErrOwnerNotFound = errors.New("property owner not found")
	// ErrMissingName is returned when an owner has no name
	ErrMissingName = errors.New("owner name is required")
)

// Owner is a property owner the office manages units for.
type Owner struct {
	ID               int       `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email,omitempty"`
	Phone            string    `json:"phone,omitempty"`
	Company          string    `json:"company,omitempty"`
	StripeCustomerID string    `json:"-"`
	Archived         bool      `json:"archived"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Store is the persistence contract for owners.
type Store interface {
	CreateOwner(ctx context.Context, o *Owner) (*Owner, error)
	UpdateOwner(ctx context.Context, o *Owner) (*Owner, error)
	GetOwner(ctx context.Context, id int) (*Owner, error)
	ListOwners(ctx context.Context, limit, offset int) ([]*Owner, error)
	ArchiveOwner(ctx context.Context, id int) error
}

// Service handles property owner operations
type Service struct {
	store Store
}

// NewService creates a new owner service
func NewService(store Store) *Service {
	return &Service{store: store}
}

func normalize(o *Owner) error {
	if strings.TrimSpace(o.Name) == "" {
		return ErrMissingName
	}
	o.Email = strings.ToLower(strings.TrimSpace(o.Email))
	if normalized, err := phone.Normalize(o.Phone, "US"); err == nil {
		o.Phone = normalized
	}
	return nil
}

// Create stores a new owner.
func (s *Service) Create(ctx context.Context, o *Owner) (*Owner, error) {
	if err := normalize(o); err != nil {
		return nil, err
	}
	created, err := s.store.CreateOwner(ctx, o)
	if err != nil {
		return nil, fmt.Errorf("failed to create owner: %w", err)
	}
	return created, nil
}

// Update replaces an owner's editable fields.
func (s *Service) Update(ctx context.Context, o *Owner) (*Owner, error) {
	if err := normalize(o); err != nil {
		return nil, err
	}
	updated, err := s.store.UpdateOwner(ctx, o)
	if err != nil {
		return nil, fmt.Errorf("failed to update owner: %w", err)
	}
	return updated, nil
}

// Get returns one owner.
func (s *Service) Get(ctx context.Context, id int) (*Owner, error) {
	return s.store.GetOwner(ctx, id)
}

// List returns owners, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Owner, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.ListOwners(ctx, limit, offset)
}

// Archive soft-deletes an owner.
func (s *Service) Archive(ctx context.Context, id int) error {
	return s.store.ArchiveOwner(ctx, id)
}
