package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	apierrors "github.com/propdeskhq/propdesk/pkg/api/errors"
	"github.com/propdeskhq/propdesk/pkg/email"
	"github.com/propdeskhq/propdesk/pkg/identity"
	"github.com/propdeskhq/propdesk/pkg/models"
	"github.com/propdeskhq/propdesk/pkg/sms"
)

// MessagesHandler handles outbound SMS and email
type MessagesHandler struct {
	sms       *sms.Service
	email     *email.Service
	resolver  *identity.Resolver
	validator *validator.Validate
}

// NewMessagesHandler creates a new outbound messages handler
func NewMessagesHandler(smsService *sms.Service, emailService *email.Service, resolver *identity.Resolver) *MessagesHandler {
	return &MessagesHandler{
		sms:       smsService,
		email:     emailService,
		resolver:  resolver,
		validator: validator.New(),
	}
}

// SendSMS godoc
// @Summary Send an SMS
// @Description Send an outbound SMS and record it against the matched contact
// @Tags Messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.SendSMSRequest true "Message"
// @Success 200 {object} models.SendSMSResponse "Message sent"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 502 {object} models.ErrorResponse "Provider rejected the message"
// @Router /sms/send [post]
func (h *MessagesHandler) SendSMS(c echo.Context) error {
	var req models.SendSMSRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	if err := h.validator.Struct(req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	opts := sms.SendOptions{From: req.From}
	if userID, ok := c.Get("user_id").(int); ok {
		opts.UserID = &userID
	}
	h.attributePhone(ctx, req.To, &opts.LeadID, &opts.OwnerID)

	rec, err := h.sms.Send(ctx, req.To, req.Message, opts)
	if err != nil {
		switch {
		case errors.Is(err, sms.ErrInvalidPhoneNumber), errors.Is(err, sms.ErrEmptyMessage):
			return apierrors.ValidationError(c, err)
		case errors.Is(err, sms.ErrSendFailed):
			return apierrors.UpstreamError(c, http.StatusBadGateway, err)
		}
		return apierrors.InternalError(c, err)
	}

	return c.JSON(http.StatusOK, models.SendSMSResponse{
		MessageID:       rec.ExternalID,
		CommunicationID: rec.ID,
	})
}

// SendEmail godoc
// @Summary Send an email
// @Description Send an outbound email and record it against the matched contact
// @Tags Messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.SendEmailRequest true "Email"
// @Success 200 {object} models.SendEmailResponse "Email sent"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 502 {object} models.ErrorResponse "Provider rejected the email"
// @Router /email/send [post]
func (h *MessagesHandler) SendEmail(c echo.Context) error {
	var req models.SendEmailRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	if err := h.validator.Struct(req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	opts := email.SendOptions{}
	if userID, ok := c.Get("user_id").(int); ok {
		opts.UserID = &userID
	}
	switch req.ContactType {
	case "lead":
		if req.ContactID > 0 {
			opts.LeadID = &req.ContactID
		}
	case "owner":
		if req.ContactID > 0 {
			opts.OwnerID = &req.ContactID
		}
	default:
		if resolved, err := h.resolver.ResolveEmail(ctx, req.To); err == nil {
			switch resolved.Kind {
			case identity.KindLead:
				id := resolved.ID
				opts.LeadID = &id
			case identity.KindOwner:
				id := resolved.ID
				opts.OwnerID = &id
			}
		}
	}

	rec, err := h.email.Send(ctx, req.To, req.Subject, req.Body, opts)
	if err != nil {
		switch {
		case errors.Is(err, email.ErrMissingRecipient):
			return apierrors.ValidationError(c, err)
		case errors.Is(err, email.ErrSendFailed):
			return apierrors.UpstreamError(c, http.StatusBadGateway, err)
		}
		return apierrors.InternalError(c, err)
	}

	return c.JSON(http.StatusOK, models.SendEmailResponse{
		MessageID: rec.ExternalID,
	})
}

// attributePhone points the outbound record at whichever lead or owner the
// destination number resolves to. Resolution failure is not a send failure.
func (h *MessagesHandler) attributePhone(ctx context.Context, to string, leadID, ownerID **int) {
	resolved, err := h.resolver.ResolvePhone(ctx, to)
	if err != nil {
		return
	}
	switch resolved.Kind {
	case identity.KindLead:
		id := resolved.ID
		*leadID = &id
	case identity.KindOwner:
		id := resolved.ID
		*ownerID = &id
	}
}
