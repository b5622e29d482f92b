package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	apierrors "github.com/propdeskhq/propdesk/pkg/api/errors"
	"github.com/propdeskhq/propdesk/pkg/models"
	"github.com/propdeskhq/propdesk/pkg/notifications"
)

// NotificationsHandler handles per-user in-app notifications
type NotificationsHandler struct {
	notifications *notifications.Service
}

// NewNotificationsHandler creates a new notifications handler
func NewNotificationsHandler(service *notifications.Service) *NotificationsHandler {
	return &NotificationsHandler{notifications: service}
}

// List godoc
// @Summary List notifications
// @Description Most recent notifications for the authenticated user
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {array} notifications.Notification "Notifications"
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Router /notifications [get]
func (h *NotificationsHandler) List(c echo.Context) error {
	userID, ok := c.Get("user_id").(int)
	if !ok {
		return apierrors.UnauthorizedError(c, "Authentication required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.notifications.List(ctx, userID)
	if err != nil {
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// UnreadCount godoc
// @Summary Unread notification count
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]int "Count"
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Router /notifications/unread-count [get]
func (h *NotificationsHandler) UnreadCount(c echo.Context) error {
	userID, ok := c.Get("user_id").(int)
	if !ok {
		return apierrors.UnauthorizedError(c, "Authentication required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	count, err := h.notifications.UnreadCount(ctx, userID)
	if err != nil {
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int{"count": count})
}

// MarkRead godoc
// @Summary Mark a notification as read
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 200 {object} map[string]string "Marked read"
// @Failure 404 {object} models.ErrorResponse "Not found"
// @Router /notifications/{id}/read [put]
func (h *NotificationsHandler) MarkRead(c echo.Context) error {
	userID, ok := c.Get("user_id").(int)
	if !ok {
		return apierrors.UnauthorizedError(c, "Authentication required")
	}
	id, err := parseIntParam(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid notification id",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.notifications.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, notifications.ErrNotificationNotFound) {
			return apierrors.NotFoundError(c, "notification")
		}
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Marked as read"})
}

// MarkAllRead godoc
// @Summary Mark all notifications as read
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string "All marked read"
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Router /notifications/read-all [put]
func (h *NotificationsHandler) MarkAllRead(c echo.Context) error {
	userID, ok := c.Get("user_id").(int)
	if !ok {
		return apierrors.UnauthorizedError(c, "Authentication required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.notifications.MarkAllRead(ctx, userID); err != nil {
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "All notifications marked as read"})
}
