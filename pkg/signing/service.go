package signing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/propdeskhq/propdesk/pkg/logger"
)

var (
	// ErrDocumentNotFound is returned when a document doesn't exist
	ErrDocumentNotFound = errors.New("document not found")
)

// Status of a document in the signing lifecycle
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusViewed    Status = "viewed"
	StatusSigned    Status = "signed"
	StatusCompleted Status = "completed"
	StatusDeclined  Status = "declined"
	StatusExpired   Status = "expired"
)

// Document is a signing-provider document tracked against a lead.
type Document struct {
	ID         int       `json:"id"`
	LeadID     *int      `json:"lead_id,omitempty"`
	Name       string    `json:"name"`
	ExternalID string    `json:"external_id"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Store is the persistence contract for documents.
type Store interface {
	CreateDocument(ctx context.Context, doc *Document) (*Document, error)
	GetByExternalID(ctx context.Context, externalID string) (*Document, error)
	UpdateStatus(ctx context.Context, id int, status Status) error
	ListByLead(ctx context.Context, leadID int) ([]*Document, error)
}

// TimelineStore appends lead timeline entries for document milestones.
type TimelineStore interface {
	AppendLeadTimeline(ctx context.Context, leadID int, entry string) error
}

// Service tracks document signing state.
type Service struct {
	store    Store
	timeline TimelineStore
	log      logger.Logger
}

// NewService creates a new signing service
func NewService(store Store, timeline TimelineStore, log logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		store:    store,
		timeline: timeline,
		log:      log,
	}
}

// CreateDocument registers a provider document against a lead.
func (s *Service) CreateDocument(ctx context.Context, leadID *int, name, externalID string) (*Document, error) {
	doc := &Document{
		LeadID:     leadID,
		Name:       name,
		ExternalID: externalID,
		Status:     StatusSent,
	}
	created, err := s.store.CreateDocument(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	return created, nil
}

// ListByLead returns the lead's documents.
func (s *Service) ListByLead(ctx context.Context, leadID int) ([]*Document, error) {
	return s.store.ListByLead(ctx, leadID)
}

// eventStatus maps provider event types onto document statuses.
var eventStatus = map[string]Status{
	"document_viewed":    StatusViewed,
	"document_signed":    StatusSigned,
	"document_completed": StatusCompleted,
	"document_declined":  StatusDeclined,
	"document_expired":   StatusExpired,
}

// rank orders statuses so an out-of-order webhook (viewed arriving after
// signed) never moves a document backwards. Terminal states outrank all
// progress states.
var rank = map[Status]int{
	StatusDraft:     0,
	StatusSent:      1,
	StatusViewed:    2,
	StatusSigned:    3,
	StatusCompleted: 4,
	StatusDeclined:  4,
	StatusExpired:   4,
}

// ApplyDocumentEvent applies a signing-provider lifecycle event. Unknown
// event types and unknown documents are logged and ignored.
func (s *Service) ApplyDocumentEvent(ctx context.Context, externalID, eventType string) error {
	next, ok := eventStatus[eventType]
	if !ok {
		s.log.Debug("ignoring unhandled document event", "type", eventType, "external_id", externalID)
		return nil
	}

	doc, err := s.store.GetByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, ErrDocumentNotFound) {
			s.log.Warn("document event for unknown document", "external_id", externalID, "type", eventType)
			return nil
		}
		return fmt.Errorf("failed to look up document: %w", err)
	}

	if rank[next] <= rank[doc.Status] {
		s.log.Debug("ignoring stale document event",
			"external_id", externalID, "current", doc.Status, "event", next)
		return nil
	}

	if err := s.store.UpdateStatus(ctx, doc.ID, next); err != nil {
		return fmt.Errorf("failed to update document status: %w", err)
	}

	if doc.LeadID != nil && s.timeline != nil {
		entry := fmt.Sprintf("Document %q %s", doc.Name, next)
		if err := s.timeline.AppendLeadTimeline(ctx, *doc.LeadID, entry); err != nil {
			s.log.Warn("failed to append document timeline entry",
				"lead_id", *doc.LeadID, "document_id", doc.ID, "error", err)
		}
	}

	return nil
}
