package email

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/propdeskhq/propdesk/pkg/comms"
	"github.com/propdeskhq/propdesk/pkg/logger"
	"github.com/propdeskhq/propdesk/pkg/search"
)

var (
	// ErrMissingRecipient is returned when no destination address is given
	ErrMissingRecipient = errors.New("missing recipient address")
	// ErrSendFailed is returned when the email provider rejects the message
	ErrSendFailed = errors.New("failed to send email")
)

// Sender delivers a single email and returns the provider message id.
type Sender interface {
	Send(ctx context.Context, toEmail, toName, subject, htmlBody, plainBody string) (string, error)
}

// SendGridSender implements Sender via SendGrid.
type SendGridSender struct {
	apiKey    string
	fromEmail string
	fromName  string
}

// NewSendGridSender creates a SendGrid-backed sender.
func NewSendGridSender(apiKey, fromEmail, fromName string) *SendGridSender {
	if apiKey == "" {
		log.Printf("⚠️  Email sender in console-only mode (set SENDGRID_API_KEY for production)")
	} else {
		log.Printf("✅ Email sender initialized with SendGrid")
	}
	return &SendGridSender{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

// Send delivers the message via SendGrid. Without an API key it logs the
// message instead, which keeps local development working.
func (s *SendGridSender) Send(ctx context.Context, toEmail, toName, subject, htmlBody, plainBody string) (string, error) {
	if s.apiKey == "" {
		log.Printf("📧 [EMAIL] %s", subject)
		log.Printf("   To: %s <%s>", toName, toEmail)
		log.Printf("   ⚠️  Email NOT sent (development mode)")
		return "dev-" + uuid.NewString(), nil
	}

	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainBody, htmlBody)

	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		log.Printf("❌ SendGrid error: %v", err)
		return "", fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	if response.StatusCode >= 400 {
		log.Printf("❌ SendGrid returned error status %d: %s", response.StatusCode, response.Body)
		return "", fmt.Errorf("%w: sendgrid status %d", ErrSendFailed, response.StatusCode)
	}

	messageID := ""
	if ids := response.Headers["X-Message-Id"]; len(ids) > 0 {
		messageID = ids[0]
	}
	if messageID == "" {
		messageID = uuid.NewString()
	}

	log.Printf("✅ Email sent successfully to %s (SendGrid status: %d)", toEmail, response.StatusCode)
	return messageID, nil
}

// Service sends outbound email and records each send as an outbound
// communication against the matched contact.
type Service struct {
	sender    Sender
	writer    *comms.Writer
	fromEmail string
	log       logger.Logger
}

// NewService creates a new email service
func NewService(sender Sender, writer *comms.Writer, fromEmail string, log logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		sender:    sender,
		writer:    writer,
		fromEmail: fromEmail,
		log:       log,
	}
}

// SendOptions attributes the outbound message to a contact. A lead
// attribution also produces a lead timeline entry via the store writer.
type SendOptions struct {
	LeadID  *int
	OwnerID *int
	UserID  *int
	ToName  string
}

// Send delivers an email and writes the outbound communication row.
func (s *Service) Send(ctx context.Context, to, subject, body string, opts SendOptions) (*comms.Record, error) {
	if to == "" {
		return nil, ErrMissingRecipient
	}

	// Replies to forwarded-around threads arrive with stacked prefixes;
	// collapse "RE: Re: x" to "Re: x" before it goes out.
	if replyPrefixed(subject) {
		subject = search.FormatReplySubject(subject)
	}

	messageID, err := s.sender.Send(ctx, to, opts.ToName, subject, body, body)
	if err != nil {
		return nil, err
	}

	rec := &comms.Record{
		LeadID:      opts.LeadID,
		OwnerID:     opts.OwnerID,
		UserID:      opts.UserID,
		Type:        comms.TypeEmail,
		Direction:   comms.DirectionOutbound,
		Subject:     subject,
		Body:        body,
		FromAddress: s.fromEmail,
		ToAddress:   to,
		ExternalID:  messageID,
		Status:      comms.StatusSent,
	}

	saved, err := s.writer.Write(ctx, rec)
	if err != nil {
		s.log.Error("sent email but failed to record it", "message_id", messageID, "error", err)
		return nil, fmt.Errorf("failed to record outbound email: %w", err)
	}

	return saved, nil
}

func replyPrefixed(subject string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(subject)), "re:")
}
