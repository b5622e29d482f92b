package properties

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrPropertyNotFound is returned when a property doesn't exist
	ErrPropertyNotFound = errors.New("property not found")
	// ErrMissingAddress is returned when a property has no address
	ErrMissingAddress = errors.New("property address is required")
)

// Property is a managed unit or building.
type Property struct {
	ID        int       `json:"id"`
	OwnerID   *int      `json:"owner_id,omitempty"`
	Address   string    `json:"address"`
	Unit      string    `json:"unit,omitempty"`
	City      string    `json:"city,omitempty"`
	State     string    `json:"state,omitempty"`
	Zip       string    `json:"zip,omitempty"`
	Bedrooms  int       `json:"bedrooms,omitempty"`
	Bathrooms float64   `json:"bathrooms,omitempty"`
	Rent      float64   `json:"rent,omitempty"`
	Status    string    `json:"status,omitempty"` // vacant, listed, occupied
	Archived  bool      `json:"archived"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is the persistence contract for properties.
type Store interface {
	CreateProperty(ctx context.Context, p *Property) (*Property, error)
	UpdateProperty(ctx context.Context, p *Property) (*Property, error)
	GetProperty(ctx context.Context, id int) (*Property, error)
	ListProperties(ctx context.Context, limit, offset int) ([]*Property, error)
	ListByOwner(ctx context.Context, ownerID int) ([]*Property, error)
	ArchiveProperty(ctx context.Context, id int) error
}

// Service handles property operations
type Service struct {
	store Store
}

// NewService creates a new property service
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create stores a new property.
func (s *Service) Create(ctx context.Context, p *Property) (*Property, error) {
	if strings.TrimSpace(p.Address) == "" {
		return nil, ErrMissingAddress
	}
	if p.Status == "" {
		p.Status = "vacant"
	}
	created, err := s.store.CreateProperty(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to create property: %w", err)
	}
	return created, nil
}

// Update replaces a property's editable fields.
func (s *Service) Update(ctx context.Context, p *Property) (*Property, error) {
	if strings.TrimSpace(p.Address) == "" {
		return nil, ErrMissingAddress
	}
	updated, err := s.store.UpdateProperty(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to update property: %w", err)
	}
	return updated, nil
}

// Get returns one property.
func (s *Service) Get(ctx context.Context, id int) (*Property, error) {
	return s.store.GetProperty(ctx, id)
}

// List returns properties, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Property, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.ListProperties(ctx, limit, offset)
}

// ListByOwner returns an owner's properties.
func (s *Service) ListByOwner(ctx context.Context, ownerID int) ([]*Property, error) {
	return s.store.ListByOwner(ctx, ownerID)
}

// Archive soft-deletes a property.
func (s *Service) Archive(ctx context.Context, id int) error {
	return s.store.ArchiveProperty(ctx, id)
}
