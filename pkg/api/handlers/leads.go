package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	apierrors "github.com/propdeskhq/propdesk/pkg/api/errors"
	"github.com/propdeskhq/propdesk/pkg/leads"
	"github.com/propdeskhq/propdesk/pkg/models"
)

// LeadsHandler handles lead CRUD and timeline endpoints
type LeadsHandler struct {
	leads *leads.Service
}

// NewLeadsHandler creates a new leads handler
func NewLeadsHandler(service *leads.Service) *LeadsHandler {
	return &LeadsHandler{leads: service}
}

// List godoc
// @Summary List leads
// @Tags Leads
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} leads.Lead "Leads"
// @Router /leads [get]
func (h *LeadsHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.leads.List(ctx, limit, offset)
	if err != nil {
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// Get godoc
// @Summary Get a lead
// @Tags Leads
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lead ID"
// @Success 200 {object} leads.Lead "Lead"
// @Failure 404 {object} models.ErrorResponse "Not found"
// @Router /leads/{id} [get]
func (h *LeadsHandler) Get(c echo.Context) error {
	id, err := parseIntParam(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid lead id",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	lead, err := h.leads.Get(ctx, id)
	if err != nil {
		if errors.Is(err, leads.ErrLeadNotFound) {
			return apierrors.NotFoundError(c, "lead")
		}
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, lead)
}

// Create godoc
// @Summary Create a lead
// @Tags Leads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body leads.Lead true "Lead"
// @Success 201 {object} leads.Lead "Created"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Router /leads [post]
func (h *LeadsHandler) Create(c echo.Context) error {
	var lead leads.Lead
	if err := c.Bind(&lead); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	created, err := h.leads.Create(ctx, &lead)
	if err != nil {
		if errors.Is(err, leads.ErrMissingName) {
			return apierrors.ValidationError(c, err)
		}
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// Update godoc
// @Summary Update a lead
// @Tags Leads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lead ID"
// @Param request body leads.Lead true "Lead"
// @Success 200 {object} leads.Lead "Updated"
// @Failure 404 {object} models.ErrorResponse "Not found"
// @Router /leads/{id} [put]
func (h *LeadsHandler) Update(c echo.Context) error {
	id, err := parseIntParam(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid lead id",
		})
	}
	var lead leads.Lead
	if err := c.Bind(&lead); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}
	lead.ID = id

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	updated, err := h.leads.Update(ctx, &lead)
	if err != nil {
		switch {
		case errors.Is(err, leads.ErrLeadNotFound):
			return apierrors.NotFoundError(c, "lead")
		case errors.Is(err, leads.ErrMissingName):
			return apierrors.ValidationError(c, err)
		}
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// Archive godoc
// @Summary Archive a lead
// @Tags Leads
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lead ID"
// @Success 200 {object} map[string]string "Archived"
// @Failure 404 {object} models.ErrorResponse "Not found"
// @Router /leads/{id} [delete]
func (h *LeadsHandler) Archive(c echo.Context) error {
	id, err := parseIntParam(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid lead id",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.leads.Archive(ctx, id); err != nil {
		if errors.Is(err, leads.ErrLeadNotFound) {
			return apierrors.NotFoundError(c, "lead")
		}
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Lead archived"})
}

// Timeline godoc
// @Summary Lead timeline
// @Description Audit trail of events recorded against the lead
// @Tags Leads
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lead ID"
// @Param limit query int false "Max entries"
// @Success 200 {array} leads.TimelineEntry "Timeline"
// @Router /leads/{id}/timeline [get]
func (h *LeadsHandler) Timeline(c echo.Context) error {
	id, err := parseIntParam(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid lead id",
		})
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	entries, err := h.leads.Timeline(ctx, id, limit)
	if err != nil {
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, entries)
}
