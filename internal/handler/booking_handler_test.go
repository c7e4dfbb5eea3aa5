package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbook-dev/openbook-api/internal/interval"
	"github.com/openbook-dev/openbook-api/internal/models"
	"github.com/openbook-dev/openbook-api/internal/service"
	appErrors "github.com/openbook-dev/openbook-api/pkg/errors"
)

type fakeReserver struct {
	result       *service.ReservationResult
	err          error
	lastHostID   string
	lastAttendee service.Attendee
}

func (f *fakeReserver) Reserve(_ context.Context, _ *models.Event, hostID string, _ interval.Interval, attendee service.Attendee) (*service.ReservationResult, error) {
	f.lastHostID = hostID
	f.lastAttendee = attendee
	return f.result, f.err
}

type fakeCanceller struct {
	err       error
	lastID    string
	lastToken string
	callCount int
}

func (f *fakeCanceller) CancelWithToken(_ context.Context, bookingID, token string) error {
	f.callCount++
	f.lastID = bookingID
	f.lastToken = token
	return f.err
}

func TestBookingHandlerCreateSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	start := time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC)
	reserver := &fakeReserver{result: &service.ReservationResult{
		Booking: &models.Booking{
			ID:            "bk-1",
			EventID:       "e1",
			HostID:        "h1",
			StartTime:     start,
			EndTime:       start.Add(30 * time.Minute),
			Reference:     "AB23CD45EF",
			AttendeeName:  "Jordan Vale",
			AttendeeEmail: "jordan@example.com",
		},
		ManageToken:          "signed-token",
		ManageTokenExpiresAt: start.Add(24 * time.Hour),
	}}
	handler := NewBookingHandler(&fakeSlotEvents{event: slotTestEvent()}, reserver, &fakeCanceller{})

	body := `{"event_id":"e1","start":"2026-09-07T09:00:00Z","end":"2026-09-07T09:30:00Z","attendee_name":"Jordan Vale","attendee_email":"jordan@example.com"}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/bookings", newJSONBody(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "AB23CD45EF", envelope.Data["reference"])
	assert.Equal(t, "signed-token", envelope.Data["manage_token"])
	assert.Equal(t, "jordan@example.com", reserver.lastAttendee.Email)
}

func TestBookingHandlerCreateConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reserver := &fakeReserver{err: appErrors.Clone(appErrors.ErrSlotUnavailable, "slot is no longer available")}
	handler := NewBookingHandler(&fakeSlotEvents{event: slotTestEvent()}, reserver, &fakeCanceller{})

	body := `{"event_id":"e1","start":"2026-09-07T09:00:00Z","end":"2026-09-07T09:30:00Z","attendee_name":"Jordan Vale","attendee_email":"jordan@example.com"}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/bookings", newJSONBody(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestBookingHandlerCreateRejectsMissingEmail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewBookingHandler(&fakeSlotEvents{event: slotTestEvent()}, &fakeReserver{}, &fakeCanceller{})

	body := `{"event_id":"e1","start":"2026-09-07T09:00:00Z","end":"2026-09-07T09:30:00Z","attendee_name":"Jordan Vale"}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/bookings", newJSONBody(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookingHandlerCreateRejectsInvertedRange(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewBookingHandler(&fakeSlotEvents{event: slotTestEvent()}, &fakeReserver{}, &fakeCanceller{})

	body := `{"event_id":"e1","start":"2026-09-07T09:30:00Z","end":"2026-09-07T09:00:00Z","attendee_name":"Jordan Vale","attendee_email":"jordan@example.com"}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/bookings", newJSONBody(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookingHandlerCancelSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	canceller := &fakeCanceller{}
	handler := NewBookingHandler(&fakeSlotEvents{event: slotTestEvent()}, &fakeReserver{}, canceller)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/bookings/bk-1?token=signed-token", nil)
	c.Params = gin.Params{{Key: "id", Value: "bk-1"}}

	handler.Cancel(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "bk-1", canceller.lastID)
	assert.Equal(t, "signed-token", canceller.lastToken)
}

func TestBookingHandlerCancelRequiresToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	canceller := &fakeCanceller{}
	handler := NewBookingHandler(&fakeSlotEvents{event: slotTestEvent()}, &fakeReserver{}, canceller)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/bookings/bk-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "bk-1"}}

	handler.Cancel(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, canceller.callCount)
}

func TestBookingHandlerCancelForbiddenToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	canceller := &fakeCanceller{err: appErrors.Clone(appErrors.ErrForbidden, "token does not match booking")}
	handler := NewBookingHandler(&fakeSlotEvents{event: slotTestEvent()}, &fakeReserver{}, canceller)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/bookings/bk-1?token=stolen", nil)
	c.Params = gin.Params{{Key: "id", Value: "bk-1"}}

	handler.Cancel(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
