package webhooks

import (
	"github.com/labstack/echo/v4"
)

type signwellEvent struct {
	Event struct {
		Type string `json:"type"`
	} `json:"event"`
	Data struct {
		Object struct {
			ID string `json:"id"`
		} `json:"object"`
	} `json:"data"`
}

// SignWell handles document lifecycle events from the signing provider.
// POST /webhooks/signwell
func (h *Handler) SignWell(c echo.Context) error {
	var event signwellEvent
	if err := c.Bind(&event); err != nil {
		h.log.Warn("unparseable signwell webhook", "error", err)
		return ack(c)
	}

	if event.Event.Type == "" || event.Data.Object.ID == "" {
		h.log.Warn("signwell event missing critical fields", "type", event.Event.Type)
		return ack(c)
	}

	ctx := c.Request().Context()
	if err := h.documents.ApplyDocumentEvent(ctx, event.Data.Object.ID, event.Event.Type); err != nil {
		h.log.Error("failed to apply document event",
			"external_id", event.Data.Object.ID, "type", event.Event.Type, "error", err)
	}
	return ack(c)
}

type phoneSyncRequest struct {
	Assignments []PhoneAssignment `json:"assignments" validate:"required,dive"`
}

// GHLPhoneSync replaces the active office phone-number assignment set from
// the upstream CRM. Protected by the integration API key, not JWT.
// POST /webhooks/ghl/phone-numbers
func (h *Handler) GHLPhoneSync(c echo.Context) error {
	var req phoneSyncRequest
	if err := c.Bind(&req); err != nil {
		h.log.Warn("unparseable phone sync payload", "error", err)
		return ack(c)
	}
	if err := h.validator.Struct(req); err != nil {
		h.log.Warn("invalid phone sync payload", "error", err)
		return ack(c)
	}

	if err := h.syncer.SyncAssignments(c.Request().Context(), req.Assignments); err != nil {
		h.log.Error("phone assignment sync failed", "error", err)
	}
	return ack(c)
}
