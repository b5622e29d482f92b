package models

import "time"

// ErrorResponse is the standard error body returned by all endpoints
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ThreadResponse is one merged conversation thread in the inbox
type ThreadResponse struct {
	ContactEmail string    `json:"contact_email,omitempty"`
	ContactPhone string    `json:"contact_phone,omitempty"`
	LastMessage  string    `json:"last_message"`
	LastAt       time.Time `json:"last_at"`
	UnreadCount  int       `json:"unread_count"`
}

// RegisterRequest is the payload for user registration
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest is the payload for user login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned after successful register/login
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// UserResponse is the public view of a user
type UserResponse struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// SendSMSRequest is the payload for the outbound SMS endpoint
type SendSMSRequest struct {
	To      string `json:"to" validate:"required"`
	Message string `json:"message" validate:"required"`
	From    string `json:"from"`
}

// SendSMSResponse returns the provider message id for an outbound SMS
type SendSMSResponse struct {
	MessageID       string `json:"message_id"`
	CommunicationID string `json:"communication_id"`
}

// SendEmailRequest is the payload for the outbound email endpoint
type SendEmailRequest struct {
	To          string `json:"to" validate:"required,email"`
	Subject     string `json:"subject" validate:"required"`
	Body        string `json:"body" validate:"required"`
	ContactType string `json:"contact_type" validate:"omitempty,oneof=lead owner"`
	ContactID   int    `json:"contact_id"`
}

// SendEmailResponse returns the provider message id for an outbound email
type SendEmailResponse struct {
	MessageID string `json:"message_id"`
}

// PaymentSetupRequest asks for a Stripe checkout session in setup mode
type PaymentSetupRequest struct {
	ContactType string `json:"contact_type" validate:"required,oneof=lead owner"`
	ContactID   int    `json:"contact_id" validate:"required,gt=0"`
}

// OwnerPaymentSetupRequest is the owner-side variant of PaymentSetupRequest
type OwnerPaymentSetupRequest struct {
	OwnerID int `json:"owner_id" validate:"required,gt=0"`
}

// PaymentSetupResponse carries the Stripe redirect URL
type PaymentSetupResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// PaymentMethodResponse is one saved Stripe payment method
type PaymentMethodResponse struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Brand    string `json:"brand,omitempty"`
	Last4    string `json:"last4,omitempty"`
	BankName string `json:"bank_name,omitempty"`
}
