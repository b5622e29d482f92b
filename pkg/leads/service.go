package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/propdeskhq/propdesk/pkg/cache"
	"github.com/propdeskhq/propdesk/pkg/logger"
	"github.com/propdeskhq/propdesk/pkg/phone"
)

var (
	// ErrLeadNotFound is returned when a lead doesn't exist
	ErrLeadNotFound = errors.New("lead not found")
	// ErrMissingName is returned when a lead has no name
	ErrMissingName = errors.New("lead name is required")
)

// Lead is a prospective tenant.
type Lead struct {
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	PropertyID *int      `json:"property_id,omitempty"`
	Stage      string    `json:"stage,omitempty"`
	Source     string    `json:"source,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	Archived   bool      `json:"archived"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TimelineEntry is one audit line on a lead.
type TimelineEntry struct {
	ID        int       `json:"id"`
	LeadID    int       `json:"lead_id"`
	Entry     string    `json:"entry"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the persistence contract for leads.
type Store interface {
	CreateLead(ctx context.Context, l *Lead) (*Lead, error)
	UpdateLead(ctx context.Context, l *Lead) (*Lead, error)
	GetLead(ctx context.Context, id int) (*Lead, error)
	ListLeads(ctx context.Context, limit, offset int) ([]*Lead, error)
	ArchiveLead(ctx context.Context, id int) error
	ListTimeline(ctx context.Context, leadID, limit int) ([]*TimelineEntry, error)
}

// Service handles lead operations
type Service struct {
	store Store
	cache *cache.Client
	log   logger.Logger
}

// NewService creates a new lead service
func NewService(store Store, cacheClient *cache.Client, log logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{store: store, cache: cacheClient, log: log}
}

// Create stores a new lead. Phone numbers are normalized to E.164 when they
// parse; unparseable input is kept verbatim rather than rejected, because
// leads arrive from forms we do not control.
func (s *Service) Create(ctx context.Context, l *Lead) (*Lead, error) {
	if strings.TrimSpace(l.Name) == "" {
		return nil, ErrMissingName
	}
	l.Email = strings.ToLower(strings.TrimSpace(l.Email))
	if normalized, err := phone.Normalize(l.Phone, "US"); err == nil {
		l.Phone = normalized
	}

	created, err := s.store.CreateLead(ctx, l)
	if err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}
	s.invalidate(ctx)
	return created, nil
}

// Update replaces a lead's editable fields.
func (s *Service) Update(ctx context.Context, l *Lead) (*Lead, error) {
	if strings.TrimSpace(l.Name) == "" {
		return nil, ErrMissingName
	}
	l.Email = strings.ToLower(strings.TrimSpace(l.Email))
	if normalized, err := phone.Normalize(l.Phone, "US"); err == nil {
		l.Phone = normalized
	}

	updated, err := s.store.UpdateLead(ctx, l)
	if err != nil {
		return nil, fmt.Errorf("failed to update lead: %w", err)
	}
	s.invalidate(ctx)
	return updated, nil
}

// Get returns one lead.
func (s *Service) Get(ctx context.Context, id int) (*Lead, error) {
	return s.store.GetLead(ctx, id)
}

// List returns leads, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Lead, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.ListLeads(ctx, limit, offset)
}

// Archive soft-deletes a lead.
func (s *Service) Archive(ctx context.Context, id int) error {
	if err := s.store.ArchiveLead(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Timeline returns a lead's newest audit entries.
func (s *Service) Timeline(ctx context.Context, leadID, limit int) ([]*TimelineEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.ListTimeline(ctx, leadID, limit)
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePattern(ctx, cache.KeyLeads+"*"); err != nil {
		s.log.Warn("failed to invalidate lead cache", "error", err)
	}
}
