package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	apierrors "github.com/propdeskhq/propdesk/pkg/api/errors"
	"github.com/propdeskhq/propdesk/pkg/billing"
	"github.com/propdeskhq/propdesk/pkg/models"
)

// maxWebhookBody caps Stripe webhook payload reads at 64KB.
const maxWebhookBody = 65536

// BillingHandler handles payment setup and Stripe webhooks
type BillingHandler struct {
	billing   *billing.Service
	validator *validator.Validate
}

// NewBillingHandler creates a new billing handler
func NewBillingHandler(billingService *billing.Service) *BillingHandler {
	return &BillingHandler{
		billing:   billingService,
		validator: validator.New(),
	}
}

// PaymentSetup godoc
// @Summary Start payment method collection
// @Description Create a Stripe Checkout session in setup mode for a lead or owner
// @Tags Billing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.PaymentSetupRequest true "Contact to collect for"
// @Success 200 {object} models.PaymentSetupResponse "Checkout session"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 404 {object} models.ErrorResponse "Contact not found"
// @Failure 502 {object} models.ErrorResponse "Stripe error"
// @Router /billing/payment-setup [post]
func (h *BillingHandler) PaymentSetup(c echo.Context) error {
	var req models.PaymentSetupRequest
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

	session, err := h.billing.CreateSetupSession(ctx, billing.ContactKind(req.ContactType), req.ContactID)
	if err != nil {
		if errors.Is(err, billing.ErrContactNotFound) {
			return apierrors.NotFoundError(c, "contact")
		}
		return apierrors.UpstreamError(c, http.StatusBadGateway, err)
	}

	return c.JSON(http.StatusOK, models.PaymentSetupResponse{
		SessionID: session.SessionID,
		URL:       session.URL,
	})
}

// OwnerPaymentSetup godoc
// @Summary Start payment method collection for a property owner
// @Tags Billing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.OwnerPaymentSetupRequest true "Owner to collect for"
// @Success 200 {object} models.PaymentSetupResponse "Checkout session"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 404 {object} models.ErrorResponse "Owner not found"
// @Failure 502 {object} models.ErrorResponse "Stripe error"
// @Router /billing/owner-payment-setup [post]
func (h *BillingHandler) OwnerPaymentSetup(c echo.Context) error {
	var req models.OwnerPaymentSetupRequest
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

	session, err := h.billing.CreateSetupSession(ctx, billing.ContactOwner, req.OwnerID)
	if err != nil {
		if errors.Is(err, billing.ErrContactNotFound) {
			return apierrors.NotFoundError(c, "owner")
		}
		return apierrors.UpstreamError(c, http.StatusBadGateway, err)
	}

	return c.JSON(http.StatusOK, models.PaymentSetupResponse{
		SessionID: session.SessionID,
		URL:       session.URL,
	})
}

// PaymentMethods godoc
// @Summary List saved payment methods
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Param contact_type query string true "lead or owner"
// @Param contact_id query int true "Contact ID"
// @Success 200 {array} models.PaymentMethodResponse "Payment methods"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 404 {object} models.ErrorResponse "Contact not found"
// @Router /billing/payment-methods [get]
func (h *BillingHandler) PaymentMethods(c echo.Context) error {
	contactType := c.QueryParam("contact_type")
	if contactType != "lead" && contactType != "owner" {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "contact_type must be lead or owner",
		})
	}
	contactID, err := parseIntParam(c.QueryParam("contact_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "contact_id must be a positive integer",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	methods, err := h.billing.ListPaymentMethods(ctx, billing.ContactKind(contactType), contactID)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrContactNotFound):
			return apierrors.NotFoundError(c, "contact")
		case errors.Is(err, billing.ErrNoCustomer):
			return c.JSON(http.StatusOK, []models.PaymentMethodResponse{})
		}
		return apierrors.UpstreamError(c, http.StatusBadGateway, err)
	}

	out := make([]models.PaymentMethodResponse, len(methods))
	for i, m := range methods {
		out[i] = models.PaymentMethodResponse{
			ID:       m.ID,
			Type:     m.Type,
			Brand:    m.Brand,
			Last4:    m.Last4,
			BankName: m.BankName,
		}
	}
	return c.JSON(http.StatusOK, out)
}

// StripeWebhook godoc
// @Summary Stripe webhook receiver
// @Description Verifies the Stripe signature and applies setup-intent events
// @Tags Webhooks
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string "Received"
// @Failure 400 {object} models.ErrorResponse "Bad signature or payload"
// @Router /webhooks/stripe [post]
func (h *BillingHandler) StripeWebhook(c echo.Context) error {
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Could not read webhook payload",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	signature := c.Request().Header.Get("Stripe-Signature")
	if err := h.billing.HandleWebhook(ctx, payload, signature); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "webhook_error",
			Message: err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"received": "true"})
}
