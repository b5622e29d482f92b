package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	apierrors "github.com/propdeskhq/propdesk/pkg/api/errors"
	"github.com/propdeskhq/propdesk/pkg/models"
	"github.com/propdeskhq/propdesk/pkg/owners"
	"github.com/propdeskhq/propdesk/pkg/properties"
)

// OwnersHandler handles property owner CRUD endpoints
type OwnersHandler struct {
	owners     *owners.Service
	properties *properties.Service
}

// NewOwnersHandler creates a new owners handler
func NewOwnersHandler(ownersService *owners.Service, propertiesService *properties.Service) *OwnersHandler {
	return &OwnersHandler{
		owners:     ownersService,
		properties: propertiesService,
	}
}

// List godoc
// @Summary List owners
// @Tags Owners
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} owners.Owner "Owners"
// @Router /owners [get]
func (h *OwnersHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.owners.List(ctx, limit, offset)
	if err != nil {
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// Get godoc
// @Summary Get an owner
// @Tags Owners
// @Produce json
// @Security BearerAuth
// @Param id path int true "Owner ID"
// @Success 200 {object} owners.Owner "Owner"
// @Failure 404 {object} models.ErrorResponse "Not found"
// @Router /owners/{id} [get]
func (h *OwnersHandler) Get(c echo.Context) error {
	id, err := parseIntParam(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid owner id",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	owner, err := h.owners.Get(ctx, id)
	if err != nil {
		if errors.Is(err, owners.ErrOwnerNotFound) {
			return apierrors.NotFoundError(c, "owner")
		}
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, owner)
}

// Create godoc
// @Summary Create an owner
// @Tags Owners
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body owners.Owner true "Owner"
// @Success 201 {object} owners.Owner "Created"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Router /owners [post]
func (h *OwnersHandler) Create(c echo.Context) error {
	var owner owners.Owner
	if err := c.Bind(&owner); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	created, err := h.owners.Create(ctx, &owner)
	if err != nil {
		if errors.Is(err, owners.ErrMissingName) {
			return apierrors.ValidationError(c, err)
		}
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// Update godoc
// @Summary Update an owner
// @Tags Owners
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Owner ID"
// @Param request body owners.Owner true "Owner"
// @Success 200 {object} owners.Owner "Updated"
// @Failure 404 {object} models.ErrorResponse "Not found"
// @Router /owners/{id} [put]
func (h *OwnersHandler) Update(c echo.Context) error {
	id, err := parseIntParam(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid owner id",
		})
	}
	var owner owners.Owner
	if err := c.Bind(&owner); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}
	owner.ID = id

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	updated, err := h.owners.Update(ctx, &owner)
	if err != nil {
		switch {
		case errors.Is(err, owners.ErrOwnerNotFound):
			return apierrors.NotFoundError(c, "owner")
		case errors.Is(err, owners.ErrMissingName):
			return apierrors.ValidationError(c, err)
		}
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// Archive godoc
// @Summary Archive an owner
// @Tags Owners
// @Produce json
// @Security BearerAuth
// @Param id path int true "Owner ID"
// @Success 200 {object} map[string]string "Archived"
// @Failure 404 {object} models.ErrorResponse "Not found"
// @Router /owners/{id} [delete]
func (h *OwnersHandler) Archive(c echo.Context) error {
	id, err := parseIntParam(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid owner id",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.owners.Archive(ctx, id); err != nil {
		if errors.Is(err, owners.ErrOwnerNotFound) {
			return apierrors.NotFoundError(c, "owner")
		}
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Owner archived"})
}

// Properties godoc
// @Summary List an owner's properties
// @Tags Owners
// @Produce json
// @Security BearerAuth
// @Param id path int true "Owner ID"
// @Success 200 {array} properties.Property "Properties"
// @Router /owners/{id}/properties [get]
func (h *OwnersHandler) Properties(c echo.Context) error {
	id, err := parseIntParam(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid owner id",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.properties.ListByOwner(ctx, id)
	if err != nil {
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}
