package comms

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrRecordNotFound is returned when a communication doesn't exist
	ErrRecordNotFound = errors.New("communication not found")
	// ErrMissingExternalID is returned when a record has no provider message id
	ErrMissingExternalID = errors.New("missing external id")
)

// Type is the channel a communication arrived or left on
type Type string

const (
	TypeSMS       Type = "sms"
	TypeEmail     Type = "email"
	TypeCall      Type = "call"
	TypeVoicemail Type = "voicemail"
)

// Direction of a communication relative to the office
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// Status of a communication
type Status string

const (
	StatusPending   Status = "pending"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
	StatusReceived  Status = "received"
	StatusAnswered  Status = "answered"
	StatusVoicemail Status = "voicemail"
)

// Record is one communication in the unified inbox. external_id is the
// provider's message id and is unique per channel type, which is what makes
// webhook redelivery idempotent. Records are never hard-deleted, only
// archived.
type Record struct {
	ID             string         `json:"id"`
	LeadID         *int           `json:"lead_id,omitempty"`
	OwnerID        *int           `json:"owner_id,omitempty"`
	UserID         *int           `json:"user_id,omitempty"`
	WorkOrderID    *int           `json:"work_order_id,omitempty"`
	Type           Type           `json:"communication_type"`
	Direction      Direction      `json:"direction"`
	Body           string         `json:"body"`
	Subject        string         `json:"subject,omitempty"`
	FromAddress    string         `json:"from_address"`
	ToAddress      string         `json:"to_address"`
	ExternalID     string         `json:"external_id"`
	Status         Status         `json:"status"`
	DeliveryStatus string         `json:"delivery_status,omitempty"`
	IsRead         bool           `json:"is_read"`
	Archived       bool           `json:"archived"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Store is the persistence contract for communications. The Postgres
// implementation lives in pkg/store; tests use in-memory fakes.
type Store interface {
	// UpsertRecord inserts or updates a record keyed by (type, external_id).
	// It reports whether a new row was created.
	UpsertRecord(ctx context.Context, rec *Record) (*Record, bool, error)
	GetRecord(ctx context.Context, id string) (*Record, error)
	GetByExternalID(ctx context.Context, t Type, externalID string) (*Record, error)
	ListByLead(ctx context.Context, leadID, limit, offset int) ([]*Record, error)
	ListAll(ctx context.Context, limit, offset int) ([]*Record, error)
	// Thread returns all records whose from or to address matches the
	// contact's last-10 phone digits or email, newest last.
	Thread(ctx context.Context, contact string, limit int) ([]*Record, error)
	MarkRead(ctx context.Context, id string) error
	MarkThreadRead(ctx context.Context, contact string) error
	Archive(ctx context.Context, id string) error
	// UpdateDelivery applies a provider delivery-status callback by external id.
	UpdateDelivery(ctx context.Context, t Type, externalID string, status Status, deliveryStatus string) error
}

// TimelineStore appends human-readable audit entries for leads and work orders.
type TimelineStore interface {
	AppendLeadTimeline(ctx context.Context, leadID int, entry string) error
	AppendWorkOrderTimeline(ctx context.Context, workOrderID int, entry string) error
}
