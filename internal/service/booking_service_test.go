package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openbook-dev/openbook-api/internal/models"
	appErrors "github.com/openbook-dev/openbook-api/pkg/errors"
	"github.com/openbook-dev/openbook-api/pkg/export"
	"github.com/openbook-dev/openbook-api/pkg/signing"
)

type fakeBookingStore struct {
	bookings  map[string]*models.Booking
	cancelled []string
}

func (f *fakeBookingStore) GetByID(_ context.Context, id string) (*models.Booking, error) {
	booking, ok := f.bookings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return booking, nil
}

func (f *fakeBookingStore) Cancel(_ context.Context, id string) error {
	f.cancelled = append(f.cancelled, id)
	return nil
}

func (f *fakeBookingStore) ListForEvent(_ context.Context, _ string, _ int) ([]models.Booking, error) {
	out := make([]models.Booking, 0, len(f.bookings))
	for _, b := range f.bookings {
		out = append(out, *b)
	}
	return out, nil
}

func newBookingService(store *fakeBookingStore, signer manageTokenParser, exportsEnabled bool) *BookingService {
	return NewBookingService(BookingServiceParams{
		Bookings: store,
		Signer:   signer,
		CSV:      export.NewCSVExporter(),
		PDF:      export.NewPDFExporter(),
		Logger:   zap.NewNop(),
		Config:   BookingServiceConfig{ExportsEnabled: exportsEnabled, ExportMaxRows: 100},
	})
}

func TestCancelWithTokenHappyPath(t *testing.T) {
	signer := signing.NewManageTokenSigner("test-secret", time.Hour)
	store := &fakeBookingStore{bookings: map[string]*models.Booking{
		"bk-1": {ID: "bk-1", EventID: "e1", HostID: "h1", AttendeeEmail: "ada@example.com"},
	}}
	svc := newBookingService(store, signer, true)

	token, _, err := signer.Generate("bk-1", "ada@example.com")
	require.NoError(t, err)

	require.NoError(t, svc.CancelWithToken(context.Background(), "bk-1", token))
	assert.Equal(t, []string{"bk-1"}, store.cancelled)
}

func TestCancelWithTokenRejectsMismatchedBooking(t *testing.T) {
	signer := signing.NewManageTokenSigner("test-secret", time.Hour)
	store := &fakeBookingStore{bookings: map[string]*models.Booking{
		"bk-1": {ID: "bk-1", AttendeeEmail: "ada@example.com"},
		"bk-2": {ID: "bk-2", AttendeeEmail: "eve@example.com"},
	}}
	svc := newBookingService(store, signer, true)

	token, _, err := signer.Generate("bk-2", "eve@example.com")
	require.NoError(t, err)

	err = svc.CancelWithToken(context.Background(), "bk-1", token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.cancelled)
}

func TestCancelWithTokenRejectsMismatchedEmail(t *testing.T) {
	signer := signing.NewManageTokenSigner("test-secret", time.Hour)
	store := &fakeBookingStore{bookings: map[string]*models.Booking{
		"bk-1": {ID: "bk-1", AttendeeEmail: "ada@example.com"},
	}}
	svc := newBookingService(store, signer, true)

	// Token signed for the right booking id but a different email: the
	// booking row must win.
	other := signing.NewManageTokenSigner("test-secret", time.Hour)
	token, _, err := other.Generate("bk-1", "eve@example.com")
	require.NoError(t, err)

	err = svc.CancelWithToken(context.Background(), "bk-1", token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestCancelWithTokenRejectsGarbageToken(t *testing.T) {
	signer := signing.NewManageTokenSigner("test-secret", time.Hour)
	svc := newBookingService(&fakeBookingStore{bookings: map[string]*models.Booking{}}, signer, true)

	err := svc.CancelWithToken(context.Background(), "bk-1", "not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestCancelWithTokenIdempotentOnCancelled(t *testing.T) {
	signer := signing.NewManageTokenSigner("test-secret", time.Hour)
	cancelledAt := time.Now().Add(-time.Hour)
	store := &fakeBookingStore{bookings: map[string]*models.Booking{
		"bk-1": {ID: "bk-1", AttendeeEmail: "ada@example.com", CancelledAt: &cancelledAt},
	}}
	svc := newBookingService(store, signer, true)

	token, _, err := signer.Generate("bk-1", "ada@example.com")
	require.NoError(t, err)

	require.NoError(t, svc.CancelWithToken(context.Background(), "bk-1", token))
	assert.Empty(t, store.cancelled)
}

func TestExportCSV(t *testing.T) {
	store := &fakeBookingStore{bookings: map[string]*models.Booking{
		"bk-1": {
			ID: "bk-1", EventID: "e1", HostID: "h1", Reference: "REF123",
			StartTime:     time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC),
			EndTime:       time.Date(2026, 9, 7, 9, 30, 0, 0, time.UTC),
			AttendeeName:  "Ada",
			AttendeeEmail: "ada@example.com",
		},
	}}
	svc := newBookingService(store, signing.NewManageTokenSigner("s", time.Hour), true)

	payload, filename, contentType, err := svc.Export(context.Background(), &models.Event{ID: "e1", Slug: "intro-call", Title: "Intro Call"}, "csv")
	require.NoError(t, err)

	assert.Equal(t, "bookings-intro-call.csv", filename)
	assert.Equal(t, "text/csv", contentType)
	body := string(payload)
	assert.True(t, strings.Contains(body, "REF123"))
	assert.True(t, strings.Contains(body, "ada@example.com"))
}

func TestExportDisabled(t *testing.T) {
	svc := newBookingService(&fakeBookingStore{}, signing.NewManageTokenSigner("s", time.Hour), false)

	_, _, _, err := svc.Export(context.Background(), &models.Event{ID: "e1", Slug: "x"}, "csv")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportUnsupportedFormat(t *testing.T) {
	svc := newBookingService(&fakeBookingStore{}, signing.NewManageTokenSigner("s", time.Hour), true)

	_, _, _, err := svc.Export(context.Background(), &models.Event{ID: "e1", Slug: "x"}, "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
