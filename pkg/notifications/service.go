package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/propdeskhq/propdesk/pkg/comms"
	"github.com/propdeskhq/propdesk/pkg/logger"
	"github.com/propdeskhq/propdesk/pkg/phone"
	"github.com/propdeskhq/propdesk/pkg/realtime"
)

var (
	// ErrNotificationNotFound is returned when a notification doesn't exist
	ErrNotificationNotFound = errors.New("notification not found")
)

// ListLimit caps the notifications returned per user. Older entries stay in
// the table but are never surfaced.
const ListLimit = 20

// Notification is one in-app notification.
type Notification struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the persistence contract for notifications. Rows are never
// deleted, only marked read.
type Store interface {
	CreateNotification(ctx context.Context, n *Notification) (*Notification, error)
	ListByUser(ctx context.Context, userID, limit int) ([]*Notification, error)
	UnreadCount(ctx context.Context, userID int) (int, error)
	MarkRead(ctx context.Context, id, userID int) error
	MarkAllRead(ctx context.Context, userID int) error
}

// Service manages in-app notifications. It also implements
// realtime.InboundNotifier so inbound communications surface immediately.
type Service struct {
	store Store
	log   logger.Logger
}

// NewService creates a new notification service
func NewService(store Store, log logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{store: store, log: log}
}

// Create stores a notification for a user.
func (s *Service) Create(ctx context.Context, userID int, notifType, title, message string) (*Notification, error) {
	created, err := s.store.CreateNotification(ctx, &Notification{
		UserID:  userID,
		Type:    notifType,
		Title:   title,
		Message: message,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return created, nil
}

// List returns the user's newest notifications, capped at ListLimit.
func (s *Service) List(ctx context.Context, userID int) ([]*Notification, error) {
	return s.store.ListByUser(ctx, userID, ListLimit)
}

// UnreadCount returns the user's unread notification count.
func (s *Service) UnreadCount(ctx context.Context, userID int) (int, error) {
	return s.store.UnreadCount(ctx, userID)
}

// MarkRead marks one notification read. Ownership is enforced by the store.
func (s *Service) MarkRead(ctx context.Context, id, userID int) error {
	return s.store.MarkRead(ctx, id, userID)
}

// MarkAllRead marks all of the user's notifications read.
func (s *Service) MarkAllRead(ctx context.Context, userID int) error {
	return s.store.MarkAllRead(ctx, userID)
}

// NotifyInbound creates a notification for the user whose office number
// received an inbound communication.
func (s *Service) NotifyInbound(ctx context.Context, event realtime.Event) error {
	if event.UserID == nil {
		// Nobody to notify; the record itself is still in the inbox.
		return nil
	}

	title, message := describeInbound(event)
	_, err := s.Create(ctx, *event.UserID, "inbound_"+event.Type, title, message)
	return err
}

func describeInbound(event realtime.Event) (string, string) {
	kind := comms.Type(event.Type)
	contact := event.FromAddress
	if kind == comms.TypeSMS || kind == comms.TypeCall || kind == comms.TypeVoicemail {
		contact = phone.FormatForDisplay(contact)
	}

	switch kind {
	case comms.TypeSMS:
		return "New text message", fmt.Sprintf("New message from %s", contact)
	case comms.TypeVoicemail:
		return "New voicemail", fmt.Sprintf("New voicemail from %s", contact)
	case comms.TypeCall:
		return "Missed call", fmt.Sprintf("Call from %s", contact)
	case comms.TypeEmail:
		subject := event.Subject
		if subject == "" {
			subject = "(no subject)"
		}
		return "New email", fmt.Sprintf("From %s: %s", contact, subject)
	default:
		return "New message", fmt.Sprintf("New message from %s", contact)
	}
}
