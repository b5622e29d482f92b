package comms

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/propdeskhq/propdesk/pkg/logger"
	"github.com/propdeskhq/propdesk/pkg/phone"
)

// Writer persists normalized communications. Every provider webhook and every
// outbound send funnels through here so the idempotency and timeline rules
// live in exactly one place.
type Writer struct {
	store    Store
	timeline TimelineStore
	log      logger.Logger
}

// NewWriter creates a communication writer
func NewWriter(store Store, timeline TimelineStore, log logger.Logger) *Writer {
	if log == nil {
		log = logger.Default()
	}
	return &Writer{
		store:    store,
		timeline: timeline,
		log:      log,
	}
}

// Write upserts a record keyed by (type, external_id). Delivering the same
// provider event twice results in exactly one row. When the record is tied to
// a lead or work order a timeline entry is appended best-effort: a timeline
// failure is logged and swallowed, it never rolls back the record write.
func (w *Writer) Write(ctx context.Context, rec *Record) (*Record, error) {
	if rec.ExternalID == "" {
		return nil, ErrMissingExternalID
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Status == "" {
		if rec.Direction == DirectionInbound {
			rec.Status = StatusReceived
		} else {
			rec.Status = StatusPending
		}
	}

	saved, inserted, err := w.store.UpsertRecord(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert communication: %w", err)
	}
	if !inserted {
		// Webhook retry or duplicate send callback; nothing further to do.
		w.log.Debug("duplicate communication event ignored",
			"type", saved.Type, "external_id", saved.ExternalID)
		return saved, nil
	}

	w.appendTimeline(ctx, saved)
	return saved, nil
}

// UpdateDelivery applies a delivery-status callback from a provider.
func (w *Writer) UpdateDelivery(ctx context.Context, t Type, externalID string, status Status, deliveryStatus string) error {
	if externalID == "" {
		return ErrMissingExternalID
	}
	if err := w.store.UpdateDelivery(ctx, t, externalID, status, deliveryStatus); err != nil {
		return fmt.Errorf("failed to update delivery status: %w", err)
	}
	return nil
}

func (w *Writer) appendTimeline(ctx context.Context, rec *Record) {
	if w.timeline == nil {
		return
	}

	entry := timelineEntry(rec)
	if rec.LeadID != nil {
		if err := w.timeline.AppendLeadTimeline(ctx, *rec.LeadID, entry); err != nil {
			w.log.Warn("failed to append lead timeline entry",
				"lead_id", *rec.LeadID, "communication_id", rec.ID, "error", err)
		}
	}
	if rec.WorkOrderID != nil {
		if err := w.timeline.AppendWorkOrderTimeline(ctx, *rec.WorkOrderID, entry); err != nil {
			w.log.Warn("failed to append work order timeline entry",
				"work_order_id", *rec.WorkOrderID, "communication_id", rec.ID, "error", err)
		}
	}
}

func timelineEntry(rec *Record) string {
	contact := rec.FromAddress
	verb := "received from"
	if rec.Direction == DirectionOutbound {
		contact = rec.ToAddress
		verb = "sent to"
	}
	if rec.Type == TypeSMS || rec.Type == TypeCall || rec.Type == TypeVoicemail {
		contact = phone.FormatForDisplay(contact)
	}

	switch rec.Type {
	case TypeSMS:
		return fmt.Sprintf("SMS %s %s", verb, contact)
	case TypeEmail:
		return fmt.Sprintf("Email %s %s: %s", verb, contact, rec.Subject)
	case TypeCall:
		return fmt.Sprintf("Call %s %s", verb, contact)
	case TypeVoicemail:
		return fmt.Sprintf("Voicemail %s %s", verb, contact)
	default:
		return fmt.Sprintf("Communication %s %s", verb, contact)
	}
}
