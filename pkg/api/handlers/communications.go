package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	apierrors "github.com/propdeskhq/propdesk/pkg/api/errors"
	"github.com/propdeskhq/propdesk/pkg/comms"
	"github.com/propdeskhq/propdesk/pkg/models"
	"github.com/propdeskhq/propdesk/pkg/search"
)

// searchScanLimit caps how many recent records a search query scans.
const searchScanLimit = 200

// CommunicationsHandler serves the unified inbox
type CommunicationsHandler struct {
	inbox *comms.Service
}

// NewCommunicationsHandler creates a new communications handler
func NewCommunicationsHandler(inbox *comms.Service) *CommunicationsHandler {
	return &CommunicationsHandler{inbox: inbox}
}

// List godoc
// @Summary List communications
// @Description Unified inbox across SMS, calls, voicemails, emails and documents, newest first
// @Tags Communications
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (max 200)"
// @Param offset query int false "Offset"
// @Success 200 {array} comms.Record "Communications"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /communications [get]
func (h *CommunicationsHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	records, err := h.inbox.ListAll(ctx, limit, offset)
	if err != nil {
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, records)
}

// ListByLead godoc
// @Summary List communications for a lead
// @Tags Communications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lead ID"
// @Param limit query int false "Page size (max 200)"
// @Param offset query int false "Offset"
// @Success 200 {array} comms.Record "Communications"
// @Failure 400 {object} models.ErrorResponse "Invalid lead id"
// @Router /leads/{id}/communications [get]
func (h *CommunicationsHandler) ListByLead(c echo.Context) error {
	leadID, err := strconv.Atoi(c.Param("id"))
	if err != nil || leadID <= 0 {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid lead id",
		})
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	records, err := h.inbox.ListByLead(ctx, leadID, limit, offset)
	if err != nil {
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, records)
}

// Thread godoc
// @Summary Conversation thread with one contact
// @Description All communications to or from a phone number or email address, oldest first
// @Tags Communications
// @Produce json
// @Security BearerAuth
// @Param contact query string true "Phone number or email address"
// @Param limit query int false "Max messages"
// @Success 200 {array} comms.Record "Thread"
// @Failure 400 {object} models.ErrorResponse "Missing contact"
// @Router /communications/thread [get]
func (h *CommunicationsHandler) Thread(c echo.Context) error {
	contact := strings.TrimSpace(c.QueryParam("contact"))
	if contact == "" {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "contact query parameter is required",
		})
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	records, err := h.inbox.Thread(ctx, contact, limit)
	if err != nil {
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, records)
}

// Threads godoc
// @Summary List conversation threads
// @Description One entry per contact, newest first; near-duplicate contacts (same phone in different formats, same email cased differently) are merged
// @Tags Communications
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max threads (default 50)"
// @Success 200 {array} models.ThreadResponse "Threads"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /communications/threads [get]
func (h *CommunicationsHandler) Threads(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > searchScanLimit {
		limit = 50
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	records, err := h.inbox.ListAll(ctx, searchScanLimit, 0)
	if err != nil {
		return apierrors.DatabaseError(c, err)
	}

	// Group by the external party's address, then let the merge step
	// collapse contacts that differ only in formatting.
	byContact := make(map[string]*search.Thread)
	order := make([]string, 0)
	for _, rec := range records {
		contact := rec.FromAddress
		if rec.Direction == comms.DirectionOutbound {
			contact = rec.ToAddress
		}
		th, ok := byContact[contact]
		if !ok {
			th = &search.Thread{}
			if strings.Contains(contact, "@") {
				th.ContactEmail = contact
			} else {
				th.ContactPhone = contact
			}
			byContact[contact] = th
			order = append(order, contact)
		}
		if rec.CreatedAt.After(th.LastAt) {
			th.LastMessage = rec.Body
			th.LastAt = rec.CreatedAt
		}
		if rec.Direction == comms.DirectionInbound && !rec.IsRead {
			th.UnreadCount++
		}
	}

	threads := make([]search.Thread, 0, len(order))
	for _, contact := range order {
		threads = append(threads, *byContact[contact])
	}
	merged := search.MergeThreads(threads)
	if len(merged) > limit {
		merged = merged[:limit]
	}

	out := make([]models.ThreadResponse, len(merged))
	for i, th := range merged {
		out[i] = models.ThreadResponse{
			ContactEmail: th.ContactEmail,
			ContactPhone: th.ContactPhone,
			LastMessage:  th.LastMessage,
			LastAt:       th.LastAt,
			UnreadCount:  th.UnreadCount,
		}
	}
	return c.JSON(http.StatusOK, out)
}

// Search godoc
// @Summary Search the inbox
// @Description Rank recent communications against the query terms
// @Tags Communications
// @Produce json
// @Security BearerAuth
// @Param q query string true "Search terms"
// @Success 200 {array} comms.Record "Matches, best first"
// @Failure 400 {object} models.ErrorResponse "Missing query"
// @Router /communications/search [get]
func (h *CommunicationsHandler) Search(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "q query parameter is required",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	records, err := h.inbox.ListAll(ctx, searchScanLimit, 0)
	if err != nil {
		return apierrors.DatabaseError(c, err)
	}

	items := make([]search.Item, len(records))
	for i, r := range records {
		items[i] = search.Item{
			Email:   r.FromAddress,
			Phone:   r.FromAddress,
			Subject: r.Subject,
			Body:    r.Body,
		}
	}

	terms := strings.Fields(strings.ToLower(query))
	ranked := search.RankItems(items, terms)

	matches := make([]*comms.Record, 0, len(ranked))
	for _, idx := range ranked {
		matches = append(matches, records[idx])
	}
	return c.JSON(http.StatusOK, matches)
}

// MarkRead godoc
// @Summary Mark a communication as read
// @Tags Communications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Communication ID"
// @Success 200 {object} map[string]string "Marked read"
// @Failure 404 {object} models.ErrorResponse "Not found"
// @Router /communications/{id}/read [put]
func (h *CommunicationsHandler) MarkRead(c echo.Context) error {
	id := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.inbox.MarkRead(ctx, id); err != nil {
		if errors.Is(err, comms.ErrRecordNotFound) {
			return apierrors.NotFoundError(c, "communication")
		}
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Marked as read"})
}

// MarkThreadRead godoc
// @Summary Mark a whole thread as read
// @Tags Communications
// @Produce json
// @Security BearerAuth
// @Param contact query string true "Phone number or email address"
// @Success 200 {object} map[string]string "Marked read"
// @Failure 400 {object} models.ErrorResponse "Missing contact"
// @Router /communications/thread/read [put]
func (h *CommunicationsHandler) MarkThreadRead(c echo.Context) error {
	contact := strings.TrimSpace(c.QueryParam("contact"))
	if contact == "" {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "contact query parameter is required",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.inbox.MarkThreadRead(ctx, contact); err != nil {
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Thread marked as read"})
}

// Archive godoc
// @Summary Archive a communication
// @Description Archived communications drop out of inbox listings but are never deleted
// @Tags Communications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Communication ID"
// @Success 200 {object} map[string]string "Archived"
// @Failure 404 {object} models.ErrorResponse "Not found"
// @Router /communications/{id}/archive [put]
func (h *CommunicationsHandler) Archive(c echo.Context) error {
	id := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.inbox.Archive(ctx, id); err != nil {
		if errors.Is(err, comms.ErrRecordNotFound) {
			return apierrors.NotFoundError(c, "communication")
		}
		return apierrors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Archived"})
}
