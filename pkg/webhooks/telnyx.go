package webhooks

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/propdeskhq/propdesk/pkg/comms"
)

// telnyxEnvelope is the common Telnyx v2 webhook shape.
type telnyxEnvelope struct {
	Data struct {
		EventType string        `json:"event_type"`
		Payload   telnyxPayload `json:"payload"`
	} `json:"data"`
}

type telnyxPayload struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	From struct {
		PhoneNumber string `json:"phone_number"`
	} `json:"from"`
	To []struct {
		PhoneNumber string `json:"phone_number"`
		Status      string `json:"status"`
	} `json:"to"`
	// recording-saved events
	CallSessionID string `json:"call_session_id"`
	RecordingURLs struct {
		MP3 string `json:"mp3"`
	} `json:"recording_urls"`
	RecordingFrom string `json:"recording_from"`
	RecordingTo   string `json:"recording_to"`
}

func ack(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// TelnyxMessage handles inbound SMS and delivery-status events.
// POST /webhooks/telnyx/messages
func (h *Handler) TelnyxMessage(c echo.Context) error {
	var env telnyxEnvelope
	if err := c.Bind(&env); err != nil {
		h.log.Warn("unparseable telnyx message webhook", "error", err)
		return ack(c)
	}

	payload := env.Data.Payload
	switch env.Data.EventType {
	case "message.received":
		return h.telnyxInboundSMS(c, payload)
	case "message.sent", "message.finalized":
		return h.telnyxDeliveryStatus(c, payload)
	default:
		return ack(c)
	}
}

func (h *Handler) telnyxInboundSMS(c echo.Context, payload telnyxPayload) error {
	if payload.ID == "" || payload.From.PhoneNumber == "" || len(payload.To) == 0 {
		h.log.Warn("telnyx message.received missing critical fields", "external_id", payload.ID)
		return ack(c)
	}

	ctx := c.Request().Context()
	to := payload.To[0].PhoneNumber

	attr, assigned := h.attributeInbound(ctx, payload.From.PhoneNumber, to)
	if !assigned {
		h.log.Warn("dropping inbound SMS for unassigned number",
			"provider", "telnyx", "external_id", payload.ID, "to", to)
		return ack(c)
	}

	_, err := h.writer.Write(ctx, &comms.Record{
		LeadID:      attr.LeadID,
		OwnerID:     attr.OwnerID,
		UserID:      attr.UserID,
		Type:        comms.TypeSMS,
		Direction:   comms.DirectionInbound,
		Body:        payload.Text,
		FromAddress: payload.From.PhoneNumber,
		ToAddress:   to,
		ExternalID:  payload.ID,
	})
	if err != nil {
		h.log.Error("failed to store inbound SMS", "external_id", payload.ID, "error", err)
	}
	return ack(c)
}

func (h *Handler) telnyxDeliveryStatus(c echo.Context, payload telnyxPayload) error {
	if payload.ID == "" || len(payload.To) == 0 {
		return ack(c)
	}

	status := comms.StatusSent
	deliveryStatus := payload.To[0].Status
	switch deliveryStatus {
	case "delivered":
		status = comms.StatusDelivered
	case "sending_failed", "delivery_failed", "failed":
		status = comms.StatusFailed
	}

	if err := h.writer.UpdateDelivery(c.Request().Context(), comms.TypeSMS, payload.ID, status, deliveryStatus); err != nil {
		h.log.Warn("failed to apply SMS delivery status", "external_id", payload.ID, "error", err)
	}
	return ack(c)
}

// TelnyxVoicemail handles recording-ready events and files them as voicemail
// communications. POST /webhooks/telnyx/voicemail
func (h *Handler) TelnyxVoicemail(c echo.Context) error {
	var env telnyxEnvelope
	if err := c.Bind(&env); err != nil {
		h.log.Warn("unparseable telnyx voicemail webhook", "error", err)
		return ack(c)
	}

	payload := env.Data.Payload
	from := payload.From.PhoneNumber
	if from == "" {
		from = payload.RecordingFrom
	}
	to := payload.RecordingTo
	if to == "" && len(payload.To) > 0 {
		to = payload.To[0].PhoneNumber
	}

	externalID := payload.CallSessionID
	if externalID == "" {
		externalID = payload.ID
	}

	if externalID == "" || from == "" || to == "" || payload.RecordingURLs.MP3 == "" {
		h.log.Warn("telnyx voicemail missing critical fields", "external_id", externalID)
		return ack(c)
	}

	ctx := c.Request().Context()
	attr, assigned := h.attributeInbound(ctx, from, to)
	if !assigned {
		h.log.Warn("dropping voicemail for unassigned number",
			"provider", "telnyx", "external_id", externalID, "to", to)
		return ack(c)
	}

	_, err := h.writer.Write(ctx, &comms.Record{
		LeadID:      attr.LeadID,
		OwnerID:     attr.OwnerID,
		UserID:      attr.UserID,
		Type:        comms.TypeVoicemail,
		Direction:   comms.DirectionInbound,
		Body:        "New voicemail",
		FromAddress: from,
		ToAddress:   to,
		ExternalID:  externalID,
		Status:      comms.StatusVoicemail,
		Metadata: map[string]any{
			"recording_url": payload.RecordingURLs.MP3,
		},
	})
	if err != nil {
		h.log.Error("failed to store voicemail", "external_id", externalID, "error", err)
	}
	return ack(c)
}
