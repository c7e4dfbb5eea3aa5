package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/openbook-dev/openbook-api/internal/dto"
	"github.com/openbook-dev/openbook-api/internal/models"
	appErrors "github.com/openbook-dev/openbook-api/pkg/errors"
	"github.com/openbook-dev/openbook-api/pkg/response"
)

type eventWriter interface {
	GetByID(ctx context.Context, id string) (*models.Event, error)
	GetBySlug(ctx context.Context, slug string) (*models.Event, error)
	Create(ctx context.Context, event *models.Event) (*models.Event, error)
}

type bookingExporter interface {
	Export(ctx context.Context, event *models.Event, format string) ([]byte, string, string, error)
	ListForEvent(ctx context.Context, eventID string, limit int) ([]models.Booking, error)
}

// EventHandler serves event management and export endpoints.
type EventHandler struct {
	events   eventWriter
	bookings bookingExporter
}

// NewEventHandler constructs the handler.
func NewEventHandler(events eventWriter, bookings bookingExporter) *EventHandler {
	return &EventHandler{events: events, bookings: bookings}
}

// Create godoc
// @Summary Create a bookable event
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body dto.CreateEventRequest true "Event definition"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /events [post]
func (h *EventHandler) Create(c *gin.Context) {
	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload"))
		return
	}

	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	event := &models.Event{
		Title:     req.Title,
		CreatedBy: claims.UserID,
		HostIDs:   req.HostIDs,
		Constraints: models.EventConstraints{
			DurationMinutes:       req.DurationMinutes,
			BufferBeforeMinutes:   req.BufferBeforeMinutes,
			BufferAfterMinutes:    req.BufferAfterMinutes,
			MinNoticeHours:        req.MinNoticeHours,
			BookingWindowDays:     req.BookingWindowDays,
			StartIncrementMinutes: req.StartIncrementMinutes,
			MaxDailyBookings:      req.MaxDailyBookings,
			MaxWeeklyBookings:     req.MaxWeeklyBookings,
			IgnoreBusyBlocks:      req.IgnoreBusyBlocks,
			DisplayTimezone:       req.DisplayTimezone,
			RoundRobinPeriod:      models.RoundRobinPeriod(req.RoundRobinPeriod),
			RoundRobinStrategy:    models.RoundRobinStrategy(req.RoundRobinStrategy),
		},
	}

	created, err := h.events.Create(c.Request.Context(), event)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// Get godoc
// @Summary Fetch an event by slug
// @Tags Events
// @Produce json
// @Param slug path string true "Event slug"
// @Success 200 {object} response.Envelope
// @Router /events/{slug} [get]
func (h *EventHandler) Get(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "event slug is required"))
		return
	}

	event, err := h.events.GetBySlug(c.Request.Context(), slug)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Export godoc
// @Summary Export an event's bookings
// @Tags Events
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Event ID"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /events/{id}/bookings/export [get]
func (h *EventHandler) Export(c *gin.Context) {
	event, err := h.events.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}

	payload, filename, contentType, err := h.bookings.Export(c.Request.Context(), event, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, payload)
}

// ListBookings godoc
// @Summary List an event's bookings
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /events/{id}/bookings [get]
func (h *EventHandler) ListBookings(c *gin.Context) {
	event, err := h.events.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}

	bookings, err := h.bookings.ListForEvent(c.Request.Context(), event.ID, 0)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bookings, nil)
}
