package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbook-dev/openbook-api/internal/interval"
	"github.com/openbook-dev/openbook-api/internal/models"
	appErrors "github.com/openbook-dev/openbook-api/pkg/errors"
)

func newJSONBody(payload string) *strings.Reader {
	return strings.NewReader(payload)
}

type responseEnvelope struct {
	Data  map[string]interface{} `json:"data"`
	Error map[string]interface{} `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

type fakeSlotEvents struct {
	event *models.Event
	err   error
}

func (f *fakeSlotEvents) GetBySlug(context.Context, string) (*models.Event, error) {
	return f.event, f.err
}

func (f *fakeSlotEvents) GetByID(context.Context, string) (*models.Event, error) {
	return f.event, f.err
}

type fakeSlotGen struct {
	slots     []interval.Interval
	available bool
	reason    string
	lastEvent *models.Event
}

func (f *fakeSlotGen) GenerateForEvent(_ context.Context, _ []models.Host, event *models.Event, _, _ time.Time) ([]interval.Interval, error) {
	f.lastEvent = event
	return f.slots, nil
}

func (f *fakeSlotGen) CheckSlot(context.Context, *models.Host, *models.Event, interval.Interval) (bool, string, error) {
	return f.available, f.reason, nil
}

type fakeHostSource struct {
	hosts []models.Host
}

func (f *fakeHostSource) GetByID(_ context.Context, id string) (*models.Host, error) {
	for i := range f.hosts {
		if f.hosts[i].ID == id {
			return &f.hosts[i], nil
		}
	}
	return nil, assert.AnError
}

func (f *fakeHostSource) ListByIDs(context.Context, []string) ([]models.Host, error) {
	return f.hosts, nil
}

func slotTestEvent() *models.Event {
	return &models.Event{
		ID:      "e1",
		Slug:    "intro-call",
		Title:   "Intro Call",
		Active:  true,
		HostIDs: []string{"h1"},
		Constraints: models.EventConstraints{
			DurationMinutes:       30,
			StartIncrementMinutes: 30,
			DisplayTimezone:       "UTC",
		},
	}
}

func TestSlotHandlerListSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	start := time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC)
	handler := NewSlotHandler(
		&fakeSlotEvents{event: slotTestEvent()},
		&fakeSlotGen{slots: []interval.Interval{{Start: start, End: start.Add(30 * time.Minute)}}},
		&fakeHostSource{hosts: []models.Host{{ID: "h1", Active: true}}},
	)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/events/intro-call/slots?from=2026-09-07&to=2026-09-08", nil)
	c.Params = gin.Params{{Key: "slug", Value: "intro-call"}}

	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "intro-call", envelope.Data["slug"])
	slots, ok := envelope.Data["slots"].([]interface{})
	require.True(t, ok)
	assert.Len(t, slots, 1)
}

func TestSlotHandlerListUnknownEvent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSlotHandler(
		&fakeSlotEvents{err: appErrors.Clone(appErrors.ErrConfigurationMissing, "event not found")},
		&fakeSlotGen{},
		&fakeHostSource{},
	)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/events/nope/slots", nil)
	c.Params = gin.Params{{Key: "slug", Value: "nope"}}

	handler.List(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSlotHandlerListRejectsInvalidWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSlotHandler(&fakeSlotEvents{event: slotTestEvent()}, &fakeSlotGen{}, &fakeHostSource{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/events/intro-call/slots?from=bogus", nil)
	c.Params = gin.Params{{Key: "slug", Value: "intro-call"}}

	handler.List(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSlotHandlerListDurationOverride(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gen := &fakeSlotGen{}
	handler := NewSlotHandler(
		&fakeSlotEvents{event: slotTestEvent()},
		gen,
		&fakeHostSource{hosts: []models.Host{{ID: "h1", Active: true}}},
	)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/events/intro-call/slots?duration=60", nil)
	c.Params = gin.Params{{Key: "slug", Value: "intro-call"}}

	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gen.lastEvent)
	assert.Equal(t, 60, gen.lastEvent.Constraints.DurationMinutes)

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/events/intro-call/slots?duration=-5", nil)
	c.Params = gin.Params{{Key: "slug", Value: "intro-call"}}

	handler.List(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSlotHandlerCheckAvailable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSlotHandler(
		&fakeSlotEvents{event: slotTestEvent()},
		&fakeSlotGen{available: true},
		&fakeHostSource{hosts: []models.Host{{ID: "h1", Active: true}}},
	)

	body := `{"event_id":"e1","start":"2026-09-07T09:00:00Z","end":"2026-09-07T09:30:00Z"}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/availability/check", newJSONBody(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Check(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, true, envelope.Data["available"])
}

func TestSlotHandlerCheckUnavailableCarriesReason(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSlotHandler(
		&fakeSlotEvents{event: slotTestEvent()},
		&fakeSlotGen{available: false, reason: "host_busy"},
		&fakeHostSource{hosts: []models.Host{{ID: "h1", Active: true}}},
	)

	body := `{"event_id":"e1","start":"2026-09-07T12:00:00Z","end":"2026-09-07T12:30:00Z"}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/availability/check", newJSONBody(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Check(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, false, envelope.Data["available"])
	assert.Equal(t, "host_busy", envelope.Data["reason"])
}

func TestSlotHandlerCheckRejectsInvertedRange(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSlotHandler(&fakeSlotEvents{event: slotTestEvent()}, &fakeSlotGen{}, &fakeHostSource{})

	body := `{"event_id":"e1","start":"2026-09-07T12:00:00Z","end":"2026-09-07T11:00:00Z"}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/availability/check", newJSONBody(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Check(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
