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
	"github.com/propdeskhq/propdesk/pkg/properties"
)

// PropertiesHandler handles property CRUD endpoints
type PropertiesHandler struct {
	properties *properties.Service
}

// NewPropertiesHandler creates a new properties handler
func NewPropertiesHandler(service *properties.Service) *PropertiesHandler {
	return &PropertiesHandler{properties: service}
}

// List godoc
// @Summary List properties
// @Tags Properties
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} properties.Property "Properties"
// @Router /properties [get]
func (h *PropertiesHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.properties.List(ctx, limit, offset)
	if err != nil {
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// Get godoc
// @Summary Get a property
// @Tags Properties
// @Produce json
// @Security BearerAuth
// @Param id path int true "Property ID"
// @Success 200 {object} properties.Property "Property"
// @Failure 404 {object} models.ErrorResponse "Not found"
// @Router /properties/{id} [get]
func (h *PropertiesHandler) Get(c echo.Context) error {
	id, err := parseIntParam(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid property id",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	property, err := h.properties.Get(ctx, id)
	if err != nil {
		if errors.Is(err, properties.ErrPropertyNotFound) {
			return apierrors.NotFoundError(c, "property")
		}
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, property)
}

// Create godoc
// @Summary Create a property
// @Tags Properties
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body properties.Property true "Property"
// @Success 201 {object} properties.Property "Created"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Router /properties [post]
func (h *PropertiesHandler) Create(c echo.Context) error {
	var property properties.Property
	if err := c.Bind(&property); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	created, err := h.properties.Create(ctx, &property)
	if err != nil {
		if errors.Is(err, properties.ErrMissingAddress) {
			return apierrors.ValidationError(c, err)
		}
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// Update godoc
// @Summary Update a property
// @Tags Properties
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Property ID"
// @Param request body properties.Property true "Property"
// @Success 200 {object} properties.Property "Updated"
// @Failure 404 {object} models.ErrorResponse "Not found"
// @Router /properties/{id} [put]
func (h *PropertiesHandler) Update(c echo.Context) error {
	id, err := parseIntParam(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid property id",
		})
	}
	var property properties.Property
	if err := c.Bind(&property); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}
	property.ID = id

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	updated, err := h.properties.Update(ctx, &property)
	if err != nil {
		switch {
		case errors.Is(err, properties.ErrPropertyNotFound):
			return apierrors.NotFoundError(c, "property")
		case errors.Is(err, properties.ErrMissingAddress):
			return apierrors.ValidationError(c, err)
		}
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// Archive godoc
// @Summary Archive a property
// @Tags Properties
// @Produce json
// @Security BearerAuth
// @Param id path int true "Property ID"
// @Success 200 {object} map[string]string "Archived"
// @Failure 404 {object} models.ErrorResponse "Not found"
// @Router /properties/{id} [delete]
func (h *PropertiesHandler) Archive(c echo.Context) error {
	id, err := parseIntParam(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid property id",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.properties.Archive(ctx, id); err != nil {
		if errors.Is(err, properties.ErrPropertyNotFound) {
			return apierrors.NotFoundError(c, "property")
		}
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Property archived"})
}
