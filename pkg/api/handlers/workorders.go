package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	apierrors "github.com/propdeskhq/propdesk/pkg/api/errors"
	"github.com/propdeskhq/propdesk/pkg/models"
	"github.com/propdeskhq/propdesk/pkg/workorders"
)

type workOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open in_progress completed cancelled"`
}

// WorkOrdersHandler handles maintenance work order endpoints
type WorkOrdersHandler struct {
	workorders *workorders.Service
	validator  *validator.Validate
}

// NewWorkOrdersHandler creates a new work orders handler
func NewWorkOrdersHandler(service *workorders.Service) *WorkOrdersHandler {
	return &WorkOrdersHandler{
		workorders: service,
		validator:  validator.New(),
	}
}

// List godoc
// @Summary List work orders
// @Tags WorkOrders
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} workorders.WorkOrder "Work orders"
// @Router /work-orders [get]
func (h *WorkOrdersHandler) List(c echo.Context) error {
	status := workorders.Status(c.QueryParam("status"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.workorders.List(ctx, status, limit, offset)
	if err != nil {
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// Get godoc
// @Summary Get a work order
// @Tags WorkOrders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Work order ID"
// @Success 200 {object} workorders.WorkOrder "Work order"
// @Failure 404 {object} models.ErrorResponse "Not found"
// @Router /work-orders/{id} [get]
func (h *WorkOrdersHandler) Get(c echo.Context) error {
	id, err := parseIntParam(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid work order id",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	order, err := h.workorders.Get(ctx, id)
	if err != nil {
		if errors.Is(err, workorders.ErrWorkOrderNotFound) {
			return apierrors.NotFoundError(c, "work order")
		}
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

// Create godoc
// @Summary Create a work order
// @Tags WorkOrders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body workorders.WorkOrder true "Work order"
// @Success 201 {object} workorders.WorkOrder "Created"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Router /work-orders [post]
func (h *WorkOrdersHandler) Create(c echo.Context) error {
	var order workorders.WorkOrder
	if err := c.Bind(&order); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	created, err := h.workorders.Create(ctx, &order)
	if err != nil {
		if errors.Is(err, workorders.ErrMissingTitle) {
			return apierrors.ValidationError(c, err)
		}
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// UpdateStatus godoc
// @Summary Transition a work order
// @Description Move a work order through its status lifecycle
// @Tags WorkOrders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Work order ID"
// @Param request body workOrderStatusRequest true "Target status"
// @Success 200 {object} workorders.WorkOrder "Updated"
// @Failure 404 {object} models.ErrorResponse "Not found"
// @Failure 409 {object} models.ErrorResponse "Invalid status transition"
// @Router /work-orders/{id}/status [put]
func (h *WorkOrdersHandler) UpdateStatus(c echo.Context) error {
	id, err := parseIntParam(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid work order id",
		})
	}
	var req workOrderStatusRequest
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

	order, err := h.workorders.UpdateStatus(ctx, id, workorders.Status(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, workorders.ErrWorkOrderNotFound):
			return apierrors.NotFoundError(c, "work order")
		case errors.Is(err, workorders.ErrInvalidTransition):
			return apierrors.ConflictError(c, err.Error())
		}
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

// Timeline godoc
// @Summary Work order timeline
// @Tags WorkOrders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Work order ID"
// @Param limit query int false "Max entries"
// @Success 200 {array} workorders.TimelineEntry "Timeline"
// @Router /work-orders/{id}/timeline [get]
func (h *WorkOrdersHandler) Timeline(c echo.Context) error {
	id, err := parseIntParam(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid work order id",
		})
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	entries, err := h.workorders.Timeline(ctx, id, limit)
	if err != nil {
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, entries)
}
