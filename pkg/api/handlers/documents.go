package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	apierrors "github.com/propdeskhq/propdesk/pkg/api/errors"
	"github.com/propdeskhq/propdesk/pkg/models"
	"github.com/propdeskhq/propdesk/pkg/signing"
)

type createDocumentRequest struct {
	LeadID     *int   `json:"lead_id" validate:"omitempty,gt=0"`
	Name       string `json:"name" validate:"required"`
	ExternalID string `json:"external_id" validate:"required"`
}

// DocumentsHandler handles signature document tracking
type DocumentsHandler struct {
	signing   *signing.Service
	validator *validator.Validate
}

// NewDocumentsHandler creates a new documents handler
func NewDocumentsHandler(service *signing.Service) *DocumentsHandler {
	return &DocumentsHandler{
		signing:   service,
		validator: validator.New(),
	}
}

// Create godoc
// @Summary Track a signature document
// @Description Register a SignWell document so status webhooks land in the inbox
// @Tags Documents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createDocumentRequest true "Document"
// @Success 201 {object} signing.Document "Created"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Router /documents [post]
func (h *DocumentsHandler) Create(c echo.Context) error {
	var req createDocumentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	doc, err := h.signing.CreateDocument(ctx, req.LeadID, req.Name, req.ExternalID)
	if err != nil {
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusCreated, doc)
}

// ListByLead godoc
// @Summary List a lead's documents
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lead ID"
// @Success 200 {array} signing.Document "Documents"
// @Failure 400 {object} models.ErrorResponse "Invalid lead id"
// @Router /leads/{id}/documents [get]
func (h *DocumentsHandler) ListByLead(c echo.Context) error {
	leadID, err := parseIntParam(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid lead id",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	docs, err := h.signing.ListByLead(ctx, leadID)
	if err != nil {
		if errors.Is(err, signing.ErrDocumentNotFound) {
			return apierrors.NotFoundError(c, "document")
		}
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, docs)
}
