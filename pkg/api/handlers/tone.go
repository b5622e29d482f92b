package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	apierrors "github.com/propdeskhq/propdesk/pkg/api/errors"
	"github.com/propdeskhq/propdesk/pkg/tone"
)

// ToneHandler serves per-user writing tone profiles
type ToneHandler struct {
	tone *tone.Service
}

// NewToneHandler creates a new tone handler
func NewToneHandler(service *tone.Service) *ToneHandler {
	return &ToneHandler{tone: service}
}

// Get godoc
// @Summary Get the tone profile
// @Description The authenticated user's analyzed writing tone profile
// @Tags Tone
// @Produce json
// @Security BearerAuth
// @Success 200 {object} tone.Profile "Profile"
// @Failure 404 {object} models.ErrorResponse "No profile yet"
// @Router /tone [get]
func (h *ToneHandler) Get(c echo.Context) error {
	userID, ok := c.Get("user_id").(int)
	if !ok {
		return apierrors.UnauthorizedError(c, "Authentication required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	profile, err := h.tone.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, tone.ErrProfileNotFound) {
			return apierrors.NotFoundError(c, "tone profile")
		}
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, profile)
}

// Analyze godoc
// @Summary Analyze writing tone
// @Description Build a tone profile from the user's recent outbound messages
// @Tags Tone
// @Produce json
// @Security BearerAuth
// @Success 200 {object} tone.Profile "Fresh profile"
// @Failure 422 {object} models.ErrorResponse "Not enough outbound messages"
// @Failure 502 {object} models.ErrorResponse "Analysis failed"
// @Router /tone/analyze [post]
func (h *ToneHandler) Analyze(c echo.Context) error {
	userID, ok := c.Get("user_id").(int)
	if !ok {
		return apierrors.UnauthorizedError(c, "Authentication required")
	}

	// analysis calls out to the language model, give it room
	ctx, cancel := context.WithTimeout(c.Request().Context(), 60*time.Second)
	defer cancel()

	profile, err := h.tone.Analyze(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, tone.ErrNotEnoughMessages):
			return apierrors.UpstreamError(c, http.StatusUnprocessableEntity, err)
		case errors.Is(err, tone.ErrAnalysisFailed):
			return apierrors.UpstreamError(c, http.StatusBadGateway, err)
		}
		return apierrors.InternalError(c, err)
	}
	return c.JSON(http.StatusOK, profile)
}
