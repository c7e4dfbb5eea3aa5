package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openbook-dev/openbook-api/internal/dto"
	"github.com/openbook-dev/openbook-api/internal/interval"
	"github.com/openbook-dev/openbook-api/internal/models"
	appErrors "github.com/openbook-dev/openbook-api/pkg/errors"
	"github.com/openbook-dev/openbook-api/pkg/response"
)

type slotEventResolver interface {
	GetBySlug(ctx context.Context, slug string) (*models.Event, error)
	GetByID(ctx context.Context, id string) (*models.Event, error)
}

type slotGenerator interface {
	GenerateForEvent(ctx context.Context, hosts []models.Host, event *models.Event, from, to time.Time) ([]interval.Interval, error)
	CheckSlot(ctx context.Context, host *models.Host, event *models.Event, candidate interval.Interval) (bool, string, error)
}

type slotHostSource interface {
	GetByID(ctx context.Context, id string) (*models.Host, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Host, error)
}

// SlotHandler serves the public slot listing and availability check.
type SlotHandler struct {
	events slotEventResolver
	slots  slotGenerator
	hosts  slotHostSource
}

// NewSlotHandler constructs the handler.
func NewSlotHandler(events slotEventResolver, slots slotGenerator, hosts slotHostSource) *SlotHandler {
	return &SlotHandler{events: events, slots: slots, hosts: hosts}
}

// List godoc
// @Summary List bookable slots for an event
// @Tags Slots
// @Produce json
// @Param slug path string true "Event slug"
// @Param from query string false "Window start (RFC3339 or YYYY-MM-DD). Defaults to now"
// @Param to query string false "Window end (RFC3339 or YYYY-MM-DD). Defaults to from + 7 days"
// @Param duration query int false "Override of the event duration in minutes"
// @Param tz query string false "IANA timezone for local display times"
// @Success 200 {object} response.Envelope
// @Router /events/{slug}/slots [get]
func (h *SlotHandler) List(c *gin.Context) {
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

	from, to, err := parseWindow(c.Query("from"), c.Query("to"))
	if err != nil {
		response.Error(c, err)
		return
	}

	if raw := c.Query("duration"); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes <= 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "duration must be a positive number of minutes"))
			return
		}
		override := *event
		override.Constraints.DurationMinutes = minutes
		event = &override
	}

	hosts, err := h.hosts.ListByIDs(c.Request.Context(), event.HostIDs)
	if err != nil {
		response.Error(c, err)
		return
	}

	slots, err := h.slots.GenerateForEvent(c.Request.Context(), hosts, event, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}

	loc := displayLocation(c.Query("tz"), event)
	payload := dto.SlotListResponse{
		EventID:  event.ID,
		Slug:     event.Slug,
		Timezone: loc.String(),
		From:     from,
		To:       to,
		Slots:    make([]dto.SlotResponse, 0, len(slots)),
	}
	for _, slot := range slots {
		payload.Slots = append(payload.Slots, dto.SlotResponse{
			Start:      slot.Start.UTC(),
			End:        slot.End.UTC(),
			StartLocal: slot.Start.In(loc).Format(time.RFC3339),
			EndLocal:   slot.End.In(loc).Format(time.RFC3339),
		})
	}
	response.JSON(c, http.StatusOK, payload, nil)
}

// Check godoc
// @Summary Check whether one explicit range is bookable
// @Tags Slots
// @Accept json
// @Produce json
// @Param payload body dto.CheckAvailabilityRequest true "Range to check"
// @Success 200 {object} response.Envelope
// @Router /availability/check [post]
func (h *SlotHandler) Check(c *gin.Context) {
	var req dto.CheckAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid check payload"))
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

	candidate := interval.Interval{Start: req.Start, End: req.End}
	available, reason, err := h.checkHosts(c.Request.Context(), event, req.HostID, candidate)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.CheckAvailabilityResponse{Available: available, Reason: reason}, nil)
}

// checkHosts verifies the candidate against one explicit host, or against
// every co-host until one accepts.
func (h *SlotHandler) checkHosts(ctx context.Context, event *models.Event, hostID string, candidate interval.Interval) (bool, string, error) {
	if hostID != "" {
		host, err := h.hosts.GetByID(ctx, hostID)
		if err != nil {
			return false, "", appErrors.Clone(appErrors.ErrConfigurationMissing, "host not found")
		}
		return h.slots.CheckSlot(ctx, host, event, candidate)
	}

	hosts, err := h.hosts.ListByIDs(ctx, event.HostIDs)
	if err != nil {
		return false, "", err
	}
	lastReason := ""
	for i := range hosts {
		ok, reason, err := h.slots.CheckSlot(ctx, &hosts[i], event, candidate)
		if err != nil {
			return false, "", err
		}
		if ok {
			return true, "", nil
		}
		lastReason = reason
	}
	return false, lastReason, nil
}

func parseWindow(fromRaw, toRaw string) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := now
	if fromRaw != "" {
		parsed, err := parseInstant(fromRaw)
		if err != nil {
			return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "invalid from parameter")
		}
		from = parsed
	}
	to := from.AddDate(0, 0, 7)
	if toRaw != "" {
		parsed, err := parseInstant(toRaw)
		if err != nil {
			return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "invalid to parameter")
		}
		to = parsed
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "to must be after from")
	}
	return from, to, nil
}

func parseInstant(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

func displayLocation(override string, event *models.Event) *time.Location {
	name := override
	if name == "" {
		name = event.Constraints.DisplayTimezone
	}
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
