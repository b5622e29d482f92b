// Package webhooks holds the provider-facing HTTP adapters. Every handler
// follows the same contract: acknowledge with 200 no matter what happened
// internally, because a non-2xx answer only makes the provider redeliver an
// event we already decided how to handle.
package webhooks

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/propdeskhq/propdesk/pkg/comms"
	"github.com/propdeskhq/propdesk/pkg/identity"
	"github.com/propdeskhq/propdesk/pkg/logger"
	"github.com/propdeskhq/propdesk/pkg/phone"
)

// NumberDirectory answers whether an office phone number is assigned to an
// active user. Inbound SMS and voicemail for unassigned numbers are
// acknowledged and dropped.
type NumberDirectory interface {
	FindUserByPhone(ctx context.Context, lastTen string) (int, bool, error)
}

// DocumentEvents applies signing-provider lifecycle events to stored
// documents.
type DocumentEvents interface {
	ApplyDocumentEvent(ctx context.Context, externalID, eventType string) error
}

// PhoneAssignment is one synced office-number assignment.
type PhoneAssignment struct {
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phone_number" validate:"required"`
	Active      bool   `json:"active"`
}

// AssignmentSyncer replaces the active phone-number assignment set.
type AssignmentSyncer interface {
	SyncAssignments(ctx context.Context, assignments []PhoneAssignment) error
}

// Handler serves all provider webhook routes.
type Handler struct {
	writer    *comms.Writer
	resolver  *identity.Resolver
	numbers   NumberDirectory
	documents DocumentEvents
	syncer    AssignmentSyncer
	validator *validator.Validate
	log       logger.Logger
}

// NewHandler creates a webhook handler
func NewHandler(writer *comms.Writer, resolver *identity.Resolver, numbers NumberDirectory, documents DocumentEvents, syncer AssignmentSyncer, log logger.Logger) *Handler {
	if log == nil {
		log = logger.Default()
	}
	return &Handler{
		writer:    writer,
		resolver:  resolver,
		numbers:   numbers,
		documents: documents,
		syncer:    syncer,
		validator: validator.New(),
		log:       log,
	}
}

// attribution carries the resolved parties for an inbound communication.
type attribution struct {
	LeadID  *int
	OwnerID *int
	UserID  *int
}

// attributeInbound maps an inbound from/to phone pair onto internal
// identities. ok is false when the destination number has no active
// assignment, which means the event must be acknowledged and dropped.
func (h *Handler) attributeInbound(ctx context.Context, from, to string) (attribution, bool) {
	var attr attribution

	userID, assigned, err := h.numbers.FindUserByPhone(ctx, phone.LastTen(to))
	if err != nil {
		h.log.Error("phone assignment lookup failed", "to", to, "error", err)
		return attr, false
	}
	if !assigned {
		return attr, false
	}
	attr.UserID = &userID

	resolved, err := h.resolver.ResolvePhone(ctx, from)
	if err != nil {
		h.log.Error("identity resolution failed", "from", from, "error", err)
		return attr, true
	}
	switch resolved.Kind {
	case identity.KindLead:
		id := resolved.ID
		attr.LeadID = &id
	case identity.KindOwner:
		id := resolved.ID
		attr.OwnerID = &id
	}
	return attr, true
}
