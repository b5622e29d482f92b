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
	"github.com/propdeskhq/propdesk/pkg/snippets"
)

type snippetRequest struct {
	Shortcut string `json:"shortcut" validate:"required,min=2,max=32"`
	Content  string `json:"content" validate:"required"`
}

// SnippetsHandler handles message snippet CRUD and expansion
type SnippetsHandler struct {
	snippets  *snippets.Service
	validator *validator.Validate
}

// NewSnippetsHandler creates a new snippets handler
func NewSnippetsHandler(service *snippets.Service) *SnippetsHandler {
	return &SnippetsHandler{
		snippets:  service,
		validator: validator.New(),
	}
}

// List godoc
// @Summary List snippets
// @Description The authenticated user's snippets, most used first
// @Tags Snippets
// @Produce json
// @Security BearerAuth
// @Success 200 {array} snippets.Snippet "Snippets"
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Router /snippets [get]
func (h *SnippetsHandler) List(c echo.Context) error {
	userID, ok := c.Get("user_id").(int)
	if !ok {
		return apierrors.UnauthorizedError(c, "Authentication required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.snippets.List(ctx, userID)
	if err != nil {
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// Create godoc
// @Summary Create a snippet
// @Tags Snippets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body snippetRequest true "Snippet"
// @Success 201 {object} snippets.Snippet "Created"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 409 {object} models.ErrorResponse "Shortcut already in use"
// @Router /snippets [post]
func (h *SnippetsHandler) Create(c echo.Context) error {
	userID, ok := c.Get("user_id").(int)
	if !ok {
		return apierrors.UnauthorizedError(c, "Authentication required")
	}
	var req snippetRequest
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

	snippet, err := h.snippets.Create(ctx, userID, req.Shortcut, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, snippets.ErrShortcutTaken):
			return apierrors.ConflictError(c, "Shortcut is already in use")
		case errors.Is(err, snippets.ErrInvalidShortcut):
			return apierrors.ValidationError(c, err)
		}
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusCreated, snippet)
}

// Update godoc
// @Summary Update a snippet
// @Tags Snippets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Snippet ID"
// @Param request body snippetRequest true "Snippet"
// @Success 200 {object} snippets.Snippet "Updated"
// @Failure 404 {object} models.ErrorResponse "Not found"
// @Failure 409 {object} models.ErrorResponse "Shortcut already in use"
// @Router /snippets/{id} [put]
func (h *SnippetsHandler) Update(c echo.Context) error {
	userID, ok := c.Get("user_id").(int)
	if !ok {
		return apierrors.UnauthorizedError(c, "Authentication required")
	}
	id, err := parseIntParam(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid snippet id",
		})
	}
	var req snippetRequest
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

	snippet, err := h.snippets.Update(ctx, userID, id, req.Shortcut, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, snippets.ErrSnippetNotFound):
			return apierrors.NotFoundError(c, "snippet")
		case errors.Is(err, snippets.ErrShortcutTaken):
			return apierrors.ConflictError(c, "Shortcut is already in use")
		case errors.Is(err, snippets.ErrInvalidShortcut):
			return apierrors.ValidationError(c, err)
		}
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, snippet)
}

// Delete godoc
// @Summary Delete a snippet
// @Tags Snippets
// @Produce json
// @Security BearerAuth
// @Param id path int true "Snippet ID"
// @Success 200 {object} map[string]string "Deleted"
// @Failure 404 {object} models.ErrorResponse "Not found"
// @Router /snippets/{id} [delete]
func (h *SnippetsHandler) Delete(c echo.Context) error {
	userID, ok := c.Get("user_id").(int)
	if !ok {
		return apierrors.UnauthorizedError(c, "Authentication required")
	}
	id, err := parseIntParam(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid snippet id",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.snippets.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, snippets.ErrSnippetNotFound) {
			return apierrors.NotFoundError(c, "snippet")
		}
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Snippet deleted"})
}

// Expand godoc
// @Summary Expand a shortcut
// @Description Resolve a shortcut to its content and bump its use count
// @Tags Snippets
// @Produce json
// @Security BearerAuth
// @Param shortcut query string true "Shortcut"
// @Success 200 {object} map[string]string "Expanded content"
// @Failure 404 {object} models.ErrorResponse "Unknown shortcut"
// @Router /snippets/expand [get]
func (h *SnippetsHandler) Expand(c echo.Context) error {
	userID, ok := c.Get("user_id").(int)
	if !ok {
		return apierrors.UnauthorizedError(c, "Authentication required")
	}
	shortcut := c.QueryParam("shortcut")
	if shortcut == "" {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "shortcut query parameter is required",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	content, err := h.snippets.Expand(ctx, userID, shortcut)
	if err != nil {
		if errors.Is(err, snippets.ErrSnippetNotFound) {
			return apierrors.NotFoundError(c, "snippet")
		}
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"content": content})
}
