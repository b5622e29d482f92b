package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/stripe/stripe-go/v76"
	checkoutsession "github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/customer"
	"github.com/stripe/stripe-go/v76/paymentmethod"
	"github.com/stripe/stripe-go/v76/webhook"
)

var (
	// ErrContactNotFound is returned when the contact doesn't exist
	ErrContactNotFound = errors.New("billing contact not found")
	// ErrNoCustomer is returned when a contact has no Stripe customer yet
	ErrNoCustomer = errors.New("contact has no Stripe customer")
)

// ContactKind distinguishes tenant-side and owner-side payment setup.
type ContactKind string

const (
	ContactLead  ContactKind = "lead"
	ContactOwner ContactKind = "owner"
)

// Contact is the billing view of a lead or owner.
type Contact struct {
	ID               int
	Name             string
	Email            string
	StripeCustomerID string
}

// ContactStore resolves contacts and persists their Stripe customer ids.
type ContactStore interface {
	GetContact(ctx context.Context, kind ContactKind, id int) (*Contact, error)
	SaveCustomerID(ctx context.Context, kind ContactKind, id int, customerID string) error
	SaveDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error
}

// StripeConfig holds Stripe configuration
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
}

// SetupSession is a created checkout session in setup mode.
type SetupSession struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
	ExpiresAt int64  `json:"expires_at"`
}

// PaymentMethod is a saved payment method summary.
type PaymentMethod struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Brand     string `json:"brand,omitempty"`
	Last4     string `json:"last4,omitempty"`
	BankName  string `json:"bank_name,omitempty"`
	ExpMonth  int64  `json:"exp_month,omitempty"`
	ExpYear   int64  `json:"exp_year,omitempty"`
	IsDefault bool   `json:"is_default"`
}

// Service handles Stripe payment setup operations
type Service struct {
	contacts ContactStore
	config   *StripeConfig
}

// NewService creates a new billing service
func NewService(contacts ContactStore, config *StripeConfig) *Service {
	stripe.Key = config.SecretKey

	return &Service{
		contacts: contacts,
		config:   config,
	}
}

// CreateSetupSession creates a Stripe checkout session in setup mode so a
// tenant or owner can save a card or bank account without being charged.
func (s *Service) CreateSetupSession(ctx context.Context, kind ContactKind, contactID int) (*SetupSession, error) {
	contact, err := s.contacts.GetContact(ctx, kind, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %d: %w", kind, contactID, err)
	}

	customerID, err := s.ensureCustomer(ctx, kind, contact)
	if err != nil {
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(customerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSetup)),
		PaymentMethodTypes: stripe.StringSlice([]string{
			"card", "us_bank_account",
		}),
		SuccessURL: stripe.String(s.config.SuccessURL),
		CancelURL:  stripe.String(s.config.CancelURL),
		Metadata: map[string]string{
			"contact_kind": string(kind),
			"contact_id":   fmt.Sprintf("%d", contact.ID),
		},
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create setup session: %w", err)
	}

	return &SetupSession{
		SessionID: sess.ID,
		URL:       sess.URL,
		ExpiresAt: sess.ExpiresAt,
	}, nil
}

// ensureCustomer returns the contact's Stripe customer id, creating the
// customer on first use.
func (s *Service) ensureCustomer(ctx context.Context, kind ContactKind, contact *Contact) (string, error) {
	if contact.StripeCustomerID != "" {
		return contact.StripeCustomerID, nil
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(contact.Email),
		Name:  stripe.String(contact.Name),
		Metadata: map[string]string{
			"contact_kind": string(kind),
			"contact_id":   fmt.Sprintf("%d", contact.ID),
		},
	}
	cust, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create customer: %w", err)
	}

	if err := s.contacts.SaveCustomerID(ctx, kind, contact.ID, cust.ID); err != nil {
		return "", fmt.Errorf("failed to save customer ID: %w", err)
	}
	return cust.ID, nil
}

// ListPaymentMethods lists a contact's saved payment methods.
func (s *Service) ListPaymentMethods(ctx context.Context, kind ContactKind, contactID int) ([]PaymentMethod, error) {
	contact, err := s.contacts.GetContact(ctx, kind, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %d: %w", kind, contactID, err)
	}
	if contact.StripeCustomerID == "" {
		return nil, ErrNoCustomer
	}

	params := &stripe.PaymentMethodListParams{
		Customer: stripe.String(contact.StripeCustomerID),
	}
	iter := paymentmethod.List(params)

	var methods []PaymentMethod
	for iter.Next() {
		methods = append(methods, summarize(iter.PaymentMethod()))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list payment methods: %w", err)
	}
	return methods, nil
}

func summarize(pm *stripe.PaymentMethod) PaymentMethod {
	out := PaymentMethod{
		ID:   pm.ID,
		Type: string(pm.Type),
	}
	if pm.Card != nil {
		out.Brand = string(pm.Card.Brand)
		out.Last4 = pm.Card.Last4
		out.ExpMonth = pm.Card.ExpMonth
		out.ExpYear = pm.Card.ExpYear
	}
	if pm.USBankAccount != nil {
		out.BankName = pm.USBankAccount.BankName
		out.Last4 = pm.USBankAccount.Last4
	}
	return out
}

// HandleWebhook processes Stripe webhook events
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := webhook.ConstructEvent(payload, signature, s.config.WebhookSecret)
	if err != nil {
		return fmt.Errorf("webhook signature verification failed: %w", err)
	}

	log.Printf("📨 Stripe webhook received: %s", event.Type)

	switch event.Type {
	case "setup_intent.succeeded":
		return s.handleSetupIntentSucceeded(ctx, event)
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return fmt.Errorf("failed to unmarshal session: %w", err)
		}
		log.Printf("✅ Payment setup checkout completed: %s", sess.ID)
		return nil
	default:
		log.Printf("⚠️  Unhandled webhook event type: %s", event.Type)
	}

	return nil
}

// handleSetupIntentSucceeded records the new payment method as the
// customer's default.
func (s *Service) handleSetupIntentSucceeded(ctx context.Context, event stripe.Event) error {
	var intent stripe.SetupIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return fmt.Errorf("failed to unmarshal setup intent: %w", err)
	}

	if intent.Customer == nil || intent.PaymentMethod == nil {
		log.Printf("⚠️  Setup intent %s missing customer or payment method", intent.ID)
		return nil
	}

	log.Printf("✅ Payment method saved: customer=%s method=%s", intent.Customer.ID, intent.PaymentMethod.ID)

	if err := s.contacts.SaveDefaultPaymentMethod(ctx, intent.Customer.ID, intent.PaymentMethod.ID); err != nil {
		return fmt.Errorf("failed to save default payment method: %w", err)
	}
	return nil
}
