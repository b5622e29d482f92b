package handlers

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	apierrors "github.com/propdeskhq/propdesk/pkg/api/errors"
	"github.com/propdeskhq/propdesk/pkg/expenses"
	"github.com/propdeskhq/propdesk/pkg/export"
	"github.com/propdeskhq/propdesk/pkg/models"
)

type createExpenseRequest struct {
	PropertyID  *int    `json:"property_id" validate:"omitempty,gt=0"`
	WorkOrderID *int    `json:"work_order_id" validate:"omitempty,gt=0"`
	Category    string  `json:"category" validate:"required,oneof=maintenance utilities taxes insurance other"`
	Description string  `json:"description" validate:"required"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	IncurredAt  string  `json:"incurred_at" validate:"omitempty,datetime=2006-01-02"`
}

// ExpensesHandler handles expense tracking and report export
type ExpensesHandler struct {
	expenses  *expenses.Service
	export    *export.Service
	validator *validator.Validate
}

// NewExpensesHandler creates a new expenses handler
func NewExpensesHandler(expensesService *expenses.Service, exportService *export.Service) *ExpensesHandler {
	return &ExpensesHandler{
		expenses:  expensesService,
		export:    exportService,
		validator: validator.New(),
	}
}

// expenseFilter builds a listing filter from query parameters.
func expenseFilter(c echo.Context) expenses.Filter {
	var f expenses.Filter
	if propertyID, err := parseIntParam(c.QueryParam("property_id")); err == nil {
		f.PropertyID = &propertyID
	}
	f.Category = c.QueryParam("category")
	if from, err := time.Parse("2006-01-02", c.QueryParam("from")); err == nil {
		f.From = from
	}
	if to, err := time.Parse("2006-01-02", c.QueryParam("to")); err == nil {
		f.To = to
	}
	return f
}

// List godoc
// @Summary List expenses
// @Tags Expenses
// @Produce json
// @Security BearerAuth
// @Param property_id query int false "Filter by property"
// @Param category query string false "Filter by category"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} expenses.Expense "Expenses"
// @Router /expenses [get]
func (h *ExpensesHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.expenses.List(ctx, expenseFilter(c), limit, offset)
	if err != nil {
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// Create godoc
// @Summary Record an expense
// @Tags Expenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createExpenseRequest true "Expense"
// @Success 201 {object} expenses.Expense "Created"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Router /expenses [post]
func (h *ExpensesHandler) Create(c echo.Context) error {
	var req createExpenseRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	incurredAt := time.Now()
	if req.IncurredAt != "" {
		incurredAt, _ = time.Parse("2006-01-02", req.IncurredAt)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	created, err := h.expenses.Create(ctx, &expenses.Expense{
		PropertyID:  req.PropertyID,
		WorkOrderID: req.WorkOrderID,
		Category:    req.Category,
		Description: req.Description,
		Amount:      req.Amount,
		IncurredAt:  incurredAt,
	})
	if err != nil {
		if errors.Is(err, expenses.ErrInvalidAmount) {
			return apierrors.ValidationError(c, err)
		}
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// Delete godoc
// @Summary Delete an expense
// @Tags Expenses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Expense ID"
// @Success 200 {object} map[string]string "Deleted"
// @Failure 404 {object} models.ErrorResponse "Not found"
// @Router /expenses/{id} [delete]
func (h *ExpensesHandler) Delete(c echo.Context) error {
	id, err := parseIntParam(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid expense id",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.expenses.Delete(ctx, id); err != nil {
		if errors.Is(err, expenses.ErrExpenseNotFound) {
			return apierrors.NotFoundError(c, "expense")
		}
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Expense deleted"})
}

// Export godoc
// @Summary Export expenses to XLSX
// @Description Generate an expense report workbook and download it
// @Tags Expenses
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param property_id query int false "Filter by property"
// @Param category query string false "Filter by category"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Success 200 {file} file "Workbook"
// @Failure 500 {object} models.ErrorResponse "Export failed"
// @Router /expenses/export [get]
func (h *ExpensesHandler) Export(c echo.Context) error {
	// report generation walks every matching row
	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	path, err := h.export.ExpenseReport(ctx, expenseFilter(c))
	if err != nil {
		return apierrors.InternalError(c, err)
	}
	return c.Attachment(path, filepath.Base(path))
}
