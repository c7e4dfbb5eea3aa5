package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openbook-dev/openbook-api/internal/interval"
	"github.com/openbook-dev/openbook-api/internal/models"
	appErrors "github.com/openbook-dev/openbook-api/pkg/errors"
)

type fakeReservationStore struct {
	err      error
	reserved *models.Booking
}

func (f *fakeReservationStore) Reserve(_ context.Context, booking *models.Booking) error {
	if f.err != nil {
		return f.err
	}
	booking.ID = "bk-1"
	f.reserved = booking
	return nil
}

type fakeHostGetter struct {
	hosts map[string]*models.Host
}

func (f *fakeHostGetter) GetByID(_ context.Context, id string) (*models.Host, error) {
	host, ok := f.hosts[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return host, nil
}

type fakeHostPicker struct {
	host        *models.Host
	err         error
	picks       int
	invalidated []string
}

func (f *fakeHostPicker) PickHost(_ context.Context, _ *models.Event, _ interval.Interval) (*models.Host, error) {
	f.picks++
	if f.err != nil {
		return nil, f.err
	}
	return f.host, nil
}

func (f *fakeHostPicker) InvalidateStats(_ context.Context, eventID string) {
	f.invalidated = append(f.invalidated, eventID)
}

type fakeSigner struct {
	err error
}

func (f *fakeSigner) Generate(bookingID, attendeeEmail string) (string, time.Time, error) {
	if f.err != nil {
		return "", time.Time{}, f.err
	}
	return bookingID + ".token." + attendeeEmail, time.Now().Add(time.Hour), nil
}

var reserveNow = time.Date(2026, 9, 7, 8, 0, 0, 0, time.UTC)

func reservationCandidate() interval.Interval {
	return interval.Interval{
		Start: reserveNow.Add(2 * time.Hour),
		End:   reserveNow.Add(2*time.Hour + 30*time.Minute),
	}
}

func newReservationService(store *fakeReservationStore, checker slotChecker, picker *fakeHostPicker, hosts map[string]*models.Host) *ReservationService {
	return NewReservationService(ReservationServiceParams{
		Bookings:   store,
		Slots:      checker,
		Hosts:      &fakeHostGetter{hosts: hosts},
		Assignment: picker,
		Signer:     &fakeSigner{},
		Metrics:    NewMetricsService(),
		Logger:     zap.NewNop(),
		Now:        func() time.Time { return reserveNow },
	})
}

func TestReserveSingleHostEvent(t *testing.T) {
	store := &fakeReservationStore{}
	picker := &fakeHostPicker{}
	hosts := map[string]*models.Host{"h1": {ID: "h1", Active: true}}
	svc := newReservationService(store, &fakeSlotChecker{}, picker, hosts)
	event := slotEvent(baseConstraints())

	result, err := svc.Reserve(context.Background(), event, "", reservationCandidate(), Attendee{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)

	require.NotNil(t, result.Booking)
	assert.Equal(t, "h1", result.Booking.HostID)
	assert.NotEmpty(t, result.Booking.Reference)
	assert.NotEmpty(t, result.ManageToken)
	assert.Equal(t, 0, picker.picks)
	assert.Equal(t, []string{"e1"}, picker.invalidated)
}

func TestReserveRejectsFailedRevalidation(t *testing.T) {
	store := &fakeReservationStore{}
	checker := &fakeSlotChecker{available: map[string]bool{"h1": false}}
	hosts := map[string]*models.Host{"h1": {ID: "h1", Active: true}}
	svc := newReservationService(store, checker, &fakeHostPicker{}, hosts)

	_, err := svc.Reserve(context.Background(), slotEvent(baseConstraints()), "", reservationCandidate(), Attendee{Email: "ada@example.com"})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrSlotUnavailable.Code, appErr.Code)
	assert.Nil(t, store.reserved)
}

func TestReserveTranslatesCommitRace(t *testing.T) {
	raceErr := appErrors.Wrap(errors.New("exclusion violation"), appErrors.ErrSlotUnavailable.Code,
		appErrors.ErrSlotUnavailable.Status, appErrors.ErrSlotUnavailable.Message)
	store := &fakeReservationStore{err: raceErr}
	hosts := map[string]*models.Host{"h1": {ID: "h1", Active: true}}
	svc := newReservationService(store, &fakeSlotChecker{}, &fakeHostPicker{}, hosts)

	_, err := svc.Reserve(context.Background(), slotEvent(baseConstraints()), "", reservationCandidate(), Attendee{Email: "ada@example.com"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSlotUnavailable.Code, appErrors.FromError(err).Code)
}

func TestReserveRejectsForeignHost(t *testing.T) {
	hosts := map[string]*models.Host{"h1": {ID: "h1", Active: true}}
	svc := newReservationService(&fakeReservationStore{}, &fakeSlotChecker{}, &fakeHostPicker{}, hosts)

	_, err := svc.Reserve(context.Background(), slotEvent(baseConstraints()), "h9", reservationCandidate(), Attendee{Email: "ada@example.com"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReserveUsesRoundRobinForMultiHostEvents(t *testing.T) {
	store := &fakeReservationStore{}
	picker := &fakeHostPicker{host: &models.Host{ID: "h2", Active: true}}
	hosts := map[string]*models.Host{
		"h1": {ID: "h1", Active: true},
		"h2": {ID: "h2", Active: true},
	}
	svc := newReservationService(store, &fakeSlotChecker{}, picker, hosts)

	event := slotEvent(baseConstraints())
	event.HostIDs = []string{"h1", "h2"}

	result, err := svc.Reserve(context.Background(), event, "", reservationCandidate(), Attendee{Email: "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "h2", result.Booking.HostID)
	assert.Equal(t, 1, picker.picks)
}

func TestReservePropagatesNoHostAvailable(t *testing.T) {
	picker := &fakeHostPicker{err: appErrors.ErrNoHostAvailable}
	hosts := map[string]*models.Host{}
	svc := newReservationService(&fakeReservationStore{}, &fakeSlotChecker{}, picker, hosts)

	event := slotEvent(baseConstraints())
	event.HostIDs = []string{"h1", "h2"}

	_, err := svc.Reserve(context.Background(), event, "", reservationCandidate(), Attendee{Email: "ada@example.com"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNoHostAvailable.Code, appErrors.FromError(err).Code)
}
