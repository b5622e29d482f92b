package sms

import (
	"context"
	"errors"
	"fmt"

	"github.com/propdeskhq/propdesk/pkg/comms"
	"github.com/propdeskhq/propdesk/pkg/logger"
	"github.com/propdeskhq/propdesk/pkg/phone"
)

var (
	// ErrInvalidPhoneNumber is returned when phone number format is invalid
	ErrInvalidPhoneNumber = errors.New("invalid phone number format")
	// ErrEmptyMessage is returned when the message body is empty
	ErrEmptyMessage = errors.New("message body is empty")
	// ErrSendFailed is returned when the provider rejects the message
	ErrSendFailed = errors.New("failed to send SMS")
)

// Provider defines the interface for SMS delivery providers (Telnyx, etc.)
type Provider interface {
	SendSMS(ctx context.Context, to, from, body string) (*Result, error)
}

// Result holds the result of sending an SMS
type Result struct {
	MessageID string
	Status    string
}

// Service sends outbound SMS and records each send as an outbound
// communication against the matched contact.
type Service struct {
	provider   Provider
	writer     *comms.Writer
	fromNumber string
	log        logger.Logger
}

// NewService creates a new SMS service
func NewService(provider Provider, writer *comms.Writer, fromNumber string, log logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		provider:   provider,
		writer:     writer,
		fromNumber: fromNumber,
		log:        log,
	}
}

// SendOptions attributes the outbound message to a contact.
type SendOptions struct {
	LeadID  *int
	OwnerID *int
	UserID  *int
	From    string
}

// Send delivers a message and writes the outbound communication row. The
// provider message id becomes the record's external id, so delivery-status
// webhooks land on the same row.
func (s *Service) Send(ctx context.Context, to, body string, opts SendOptions) (*comms.Record, error) {
	if body == "" {
		return nil, ErrEmptyMessage
	}

	toE164, err := phone.Normalize(to, "US")
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPhoneNumber, to)
	}

	from := opts.From
	if from == "" {
		from = s.fromNumber
	}

	result, err := s.provider.SendSMS(ctx, toE164, from, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	rec := &comms.Record{
		LeadID:      opts.LeadID,
		OwnerID:     opts.OwnerID,
		UserID:      opts.UserID,
		Type:        comms.TypeSMS,
		Direction:   comms.DirectionOutbound,
		Body:        body,
		FromAddress: from,
		ToAddress:   toE164,
		ExternalID:  result.MessageID,
		Status:      comms.StatusSent,
	}

	saved, err := s.writer.Write(ctx, rec)
	if err != nil {
		// the message is already on the wire; surface the miss but keep
		// the provider id so the caller can reconcile
		s.log.Error("sent SMS but failed to record it", "message_id", result.MessageID, "error", err)
		return nil, fmt.Errorf("failed to record outbound SMS: %w", err)
	}

	return saved, nil
}
