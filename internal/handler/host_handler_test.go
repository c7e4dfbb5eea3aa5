package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/openbook-dev/openbook-api/internal/models"
	appErrors "github.com/openbook-dev/openbook-api/pkg/errors"
)

type fakePatternManager struct {
	patterns []models.AvailabilityPattern
	err      error
	created  *models.AvailabilityPattern
}

func (f *fakePatternManager) ListByHost(context.Context, string) ([]models.AvailabilityPattern, error) {
	return f.patterns, f.err
}

func (f *fakePatternManager) Create(_ context.Context, pattern *models.AvailabilityPattern) error {
	f.created = pattern
	return f.err
}

func (f *fakePatternManager) Update(context.Context, *models.AvailabilityPattern) error {
	return f.err
}

func (f *fakePatternManager) Deactivate(context.Context, string, string) error {
	return f.err
}

type fakeRefresher struct {
	err    error
	lastID string
}

func (f *fakeRefresher) RefreshHost(_ context.Context, host *models.Host) error {
	f.lastID = host.ID
	return f.err
}

func TestHostHandlerCreatePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	patterns := &fakePatternManager{}
	handler := NewHostHandler(patterns, &fakeHostSource{}, &fakeRefresher{})

	body := `{"day_of_week":1,"start_minute":540,"end_minute":1020}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/hosts/h1/availability", newJSONBody(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "h1"}}

	handler.CreatePattern(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	if assert.NotNil(t, patterns.created) {
		assert.Equal(t, "h1", patterns.created.HostID)
		assert.Equal(t, 540, patterns.created.StartMinute)
	}
}

func TestHostHandlerCreatePatternRejectsPartialPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewHostHandler(&fakePatternManager{}, &fakeHostSource{}, &fakeRefresher{})

	body := `{"day_of_week":1}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/hosts/h1/availability", newJSONBody(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "h1"}}

	handler.CreatePattern(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHostHandlerDeactivatePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewHostHandler(&fakePatternManager{}, &fakeHostSource{}, &fakeRefresher{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/hosts/h1/availability/p1", nil)
	c.Params = gin.Params{{Key: "id", Value: "h1"}, {Key: "patternId", Value: "p1"}}

	handler.DeactivatePattern(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHostHandlerRefreshCalendar(t *testing.T) {
	gin.SetMode(gin.TestMode)
	refresher := &fakeRefresher{}
	handler := NewHostHandler(&fakePatternManager{}, &fakeHostSource{hosts: []models.Host{{ID: "h1", Active: true}}}, refresher)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/hosts/h1/calendar/refresh", nil)
	c.Params = gin.Params{{Key: "id", Value: "h1"}}

	handler.RefreshCalendar(c)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "h1", refresher.lastID)
}

func TestHostHandlerRefreshCalendarUpstreamFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	refresher := &fakeRefresher{err: appErrors.Clone(appErrors.ErrCalendarFetchFailed, "")}
	handler := NewHostHandler(&fakePatternManager{}, &fakeHostSource{hosts: []models.Host{{ID: "h1", Active: true}}}, refresher)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/hosts/h1/calendar/refresh", nil)
	c.Params = gin.Params{{Key: "id", Value: "h1"}}

	handler.RefreshCalendar(c)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
