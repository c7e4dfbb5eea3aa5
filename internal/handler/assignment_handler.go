package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/openbook-dev/openbook-api/internal/dto"
	"github.com/openbook-dev/openbook-api/internal/models"
	"github.com/openbook-dev/openbook-api/pkg/response"
)

type assignmentEventResolver interface {
	GetByID(ctx context.Context, id string) (*models.Event, error)
}

type assignmentReporter interface {
	Stats(ctx context.Context, event *models.Event) ([]models.HostAssignmentCount, error)
}

// AssignmentHandler serves the read-only round-robin balance report.
type AssignmentHandler struct {
	events     assignmentEventResolver
	assignment assignmentReporter
}

// NewAssignmentHandler constructs the handler.
func NewAssignmentHandler(events assignmentEventResolver, assignment assignmentReporter) *AssignmentHandler {
	return &AssignmentHandler{events: events, assignment: assignment}
}

// Stats godoc
// @Summary Per-host booking counts for the current round-robin period
// @Tags RoundRobin
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /events/{id}/round-robin [get]
func (h *AssignmentHandler) Stats(c *gin.Context) {
	event, err := h.events.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}

	counts, err := h.assignment.Stats(c.Request.Context(), event)
	if err != nil {
		response.Error(c, err)
		return
	}

	payload := dto.RoundRobinStatsResponse{
		EventID: event.ID,
		Period:  string(event.Constraints.RoundRobinPeriod),
		Hosts:   make([]dto.HostAssignmentStat, 0, len(counts)),
	}
	for _, count := range counts {
		payload.Hosts = append(payload.Hosts, dto.HostAssignmentStat{
			HostID:       count.HostID,
			Count:        count.Count,
			LastAssigned: count.LastAssigned,
		})
	}
	response.JSON(c, http.StatusOK, payload, nil)
}
