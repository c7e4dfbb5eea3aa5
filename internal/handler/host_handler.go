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

type patternManager interface {
	ListByHost(ctx context.Context, hostID string) ([]models.AvailabilityPattern, error)
	Create(ctx context.Context, pattern *models.AvailabilityPattern) error
	Update(ctx context.Context, pattern *models.AvailabilityPattern) error
	Deactivate(ctx context.Context, hostID, patternID string) error
}

type hostResolver interface {
	GetByID(ctx context.Context, id string) (*models.Host, error)
}

type calendarRefresher interface {
	RefreshHost(ctx context.Context, host *models.Host) error
}

// HostHandler serves host availability settings and the manual calendar
// refresh.
type HostHandler struct {
	patterns patternManager
	hosts    hostResolver
	sync     calendarRefresher
}

// NewHostHandler constructs the handler.
func NewHostHandler(patterns patternManager, hosts hostResolver, sync calendarRefresher) *HostHandler {
	return &HostHandler{patterns: patterns, hosts: hosts, sync: sync}
}

// ListPatterns godoc
// @Summary List a host's availability patterns
// @Tags Hosts
// @Produce json
// @Param id path string true "Host ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /hosts/{id}/availability [get]
func (h *HostHandler) ListPatterns(c *gin.Context) {
	hostID := strings.TrimSpace(c.Param("id"))
	patterns, err := h.patterns.ListByHost(c.Request.Context(), hostID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, patterns, nil)
}

// CreatePattern godoc
// @Summary Add an availability pattern
// @Tags Hosts
// @Accept json
// @Produce json
// @Param id path string true "Host ID"
// @Param payload body dto.CreatePatternRequest true "Pattern"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /hosts/{id}/availability [post]
func (h *HostHandler) CreatePattern(c *gin.Context) {
	var req dto.CreatePatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pattern payload"))
		return
	}

	pattern := &models.AvailabilityPattern{
		HostID:      strings.TrimSpace(c.Param("id")),
		DayOfWeek:   *req.DayOfWeek,
		StartMinute: *req.StartMinute,
		EndMinute:   *req.EndMinute,
	}
	if err := h.patterns.Create(c.Request.Context(), pattern); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, pattern)
}

// UpdatePattern godoc
// @Summary Update an availability pattern
// @Tags Hosts
// @Accept json
// @Produce json
// @Param id path string true "Host ID"
// @Param patternId path string true "Pattern ID"
// @Param payload body dto.UpdatePatternRequest true "Pattern"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /hosts/{id}/availability/{patternId} [put]
func (h *HostHandler) UpdatePattern(c *gin.Context) {
	var req dto.UpdatePatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pattern payload"))
		return
	}

	pattern := &models.AvailabilityPattern{
		ID:          strings.TrimSpace(c.Param("patternId")),
		HostID:      strings.TrimSpace(c.Param("id")),
		DayOfWeek:   *req.DayOfWeek,
		StartMinute: *req.StartMinute,
		EndMinute:   *req.EndMinute,
		IsActive:    *req.IsActive,
	}
	if err := h.patterns.Update(c.Request.Context(), pattern); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pattern, nil)
}

// DeactivatePattern godoc
// @Summary Soft-disable an availability pattern
// @Tags Hosts
// @Produce json
// @Param id path string true "Host ID"
// @Param patternId path string true "Pattern ID"
// @Success 204
// @Security BearerAuth
// @Router /hosts/{id}/availability/{patternId} [delete]
func (h *HostHandler) DeactivatePattern(c *gin.Context) {
	hostID := strings.TrimSpace(c.Param("id"))
	patternID := strings.TrimSpace(c.Param("patternId"))
	if err := h.patterns.Deactivate(c.Request.Context(), hostID, patternID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RefreshCalendar godoc
// @Summary Force a busy-snapshot refresh for a host
// @Tags Hosts
// @Produce json
// @Param id path string true "Host ID"
// @Success 202 {object} response.Envelope
// @Security BearerAuth
// @Router /hosts/{id}/calendar/refresh [post]
func (h *HostHandler) RefreshCalendar(c *gin.Context) {
	host, err := h.hosts.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrConfigurationMissing, "host not found"))
		return
	}

	if err := h.sync.RefreshHost(c.Request.Context(), host); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrCalendarFetchFailed.Code,
			appErrors.ErrCalendarFetchFailed.Status, appErrors.ErrCalendarFetchFailed.Message))
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"status": "refreshed"}, nil)
}
