package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/openbook-dev/openbook-api/internal/dto"
	"github.com/openbook-dev/openbook-api/internal/interval"
	"github.com/openbook-dev/openbook-api/internal/models"
	"github.com/openbook-dev/openbook-api/internal/service"
	appErrors "github.com/openbook-dev/openbook-api/pkg/errors"
	"github.com/openbook-dev/openbook-api/pkg/response"
)

type bookingEventResolver interface {
	GetByID(ctx context.Context, id string) (*models.Event, error)
}

type reserver interface {
	Reserve(ctx context.Context, event *models.Event, hostID string, candidate interval.Interval, attendee service.Attendee) (*service.ReservationResult, error)
}

type bookingCanceller interface {
	CancelWithToken(ctx context.Context, bookingID, token string) error
}

// BookingHandler serves the public reservation and cancellation endpoints.
type BookingHandler struct {
	events       bookingEventResolver
	reservations reserver
	bookings     bookingCanceller
}

// NewBookingHandler constructs the handler.
func NewBookingHandler(events bookingEventResolver, reservations reserver, bookings bookingCanceller) *BookingHandler {
	return &BookingHandler{events: events, reservations: reservations, bookings: bookings}
}

// Create godoc
// @Summary Reserve a slot
// @Tags Bookings
// @Accept json
// @Produce json
// @Param payload body dto.CreateBookingRequest true "Reservation request"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope "Slot taken or no host available"
// @Router /bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload"))
		return
	}
	if !req.End.After(req.Start) {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "end must be after start"))
		return
	}

	event, err := h.events.GetByID(c.Request.Context(), req.EventID)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.reservations.Reserve(c.Request.Context(), event, req.HostID,
		interval.Interval{Start: req.Start, End: req.End},
		service.Attendee{Name: req.AttendeeName, Email: req.AttendeeEmail})
	if err != nil {
		response.Error(c, err)
		return
	}

	payload := dto.BookingResponse{
		ID:            result.Booking.ID,
		EventID:       result.Booking.EventID,
		HostID:        result.Booking.HostID,
		Start:         result.Booking.StartTime,
		End:           result.Booking.EndTime,
		Reference:     result.Booking.Reference,
		AttendeeName:  result.Booking.AttendeeName,
		AttendeeEmail: result.Booking.AttendeeEmail,
		ManageToken:   result.ManageToken,
	}
	if !result.ManageTokenExpiresAt.IsZero() {
		expires := result.ManageTokenExpiresAt
		payload.ManageTokenExpiresAt = &expires
	}
	response.Created(c, payload)
}

// Cancel godoc
// @Summary Cancel a booking with its manage token
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Param token query string true "Manage token issued at reservation time"
// @Success 204
// @Router /bookings/{id} [delete]
func (h *BookingHandler) Cancel(c *gin.Context) {
	bookingID := strings.TrimSpace(c.Param("id"))
	token := strings.TrimSpace(c.Query("token"))
	if bookingID == "" || token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "booking id and token are required"))
		return
	}

	if err := h.bookings.CancelWithToken(c.Request.Context(), bookingID, token); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
