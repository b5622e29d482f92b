package webhooks

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/propdeskhq/propdesk/pkg/comms"
)

const emptyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

// TwilioCallStatus handles Twilio call lifecycle callbacks (form-encoded) and
// files completed calls as call communications. The response is always empty
// TwiML so Twilio treats the callback as handled.
// POST /webhooks/twilio/call-status
func (h *Handler) TwilioCallStatus(c echo.Context) error {
	callSid := c.FormValue("CallSid")
	callStatus := c.FormValue("CallStatus")
	from := c.FormValue("From")
	to := c.FormValue("To")
	recordingURL := c.FormValue("RecordingUrl")
	errorCode := c.FormValue("ErrorCode")
	duration := c.FormValue("CallDuration")

	if callSid == "" {
		h.log.Warn("twilio call status missing CallSid")
		return c.XMLBlob(http.StatusOK, []byte(emptyTwiML))
	}

	// Intermediate states (ringing, in-progress) carry nothing worth storing.
	terminal := map[string]bool{
		"completed": true, "busy": true, "no-answer": true, "failed": true, "canceled": true,
	}
	if !terminal[callStatus] {
		return c.XMLBlob(http.StatusOK, []byte(emptyTwiML))
	}

	ctx := c.Request().Context()
	attr, assigned := h.attributeInbound(ctx, from, to)
	if !assigned {
		h.log.Warn("dropping call event for unassigned number",
			"provider", "twilio", "call_sid", callSid, "to", to)
		return c.XMLBlob(http.StatusOK, []byte(emptyTwiML))
	}

	status := comms.StatusFailed
	if callStatus == "completed" {
		status = comms.StatusAnswered
	}

	metadata := map[string]any{"call_status": callStatus}
	if recordingURL != "" {
		metadata["recording_url"] = recordingURL
	}
	if errorCode != "" {
		metadata["error_code"] = errorCode
	}
	if duration != "" {
		metadata["duration_seconds"] = duration
	}

	_, err := h.writer.Write(ctx, &comms.Record{
		LeadID:      attr.LeadID,
		OwnerID:     attr.OwnerID,
		UserID:      attr.UserID,
		Type:        comms.TypeCall,
		Direction:   comms.DirectionInbound,
		Body:        "Inbound call " + callStatus,
		FromAddress: from,
		ToAddress:   to,
		ExternalID:  callSid,
		Status:      status,
		Metadata:    metadata,
	})
	if err != nil {
		h.log.Error("failed to store call event", "call_sid", callSid, "error", err)
	}

	return c.XMLBlob(http.StatusOK, []byte(emptyTwiML))
}
