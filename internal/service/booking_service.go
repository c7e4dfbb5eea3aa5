package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/openbook-dev/openbook-api/internal/models"
	appErrors "github.com/openbook-dev/openbook-api/pkg/errors"
	"github.com/openbook-dev/openbook-api/pkg/export"
)

type bookingStore interface {
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	Cancel(ctx context.Context, id string) error
	ListForEvent(ctx context.Context, eventID string, limit int) ([]models.Booking, error)
}

type manageTokenParser interface {
	Parse(token string) (bookingID, attendeeEmail string, expiresAt time.Time, err error)
}

type datasetExporter interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfDatasetExporter interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// BookingServiceConfig bounds export sizes.
type BookingServiceConfig struct {
	ExportsEnabled bool
	ExportMaxRows  int
}

// BookingService covers the post-reservation lifecycle: lookups, attendee
// self-service cancellation and admin exports.
type BookingService struct {
	bookings bookingStore
	signer   manageTokenParser
	csv      datasetExporter
	pdf      pdfDatasetExporter
	logger   *zap.Logger
	cfg      BookingServiceConfig
}

// BookingServiceParams groups constructor dependencies.
type BookingServiceParams struct {
	Bookings bookingStore
	Signer   manageTokenParser
	CSV      datasetExporter
	PDF      pdfDatasetExporter
	Logger   *zap.Logger
	Config   BookingServiceConfig
}

// NewBookingService constructs a BookingService with sane defaults.
func NewBookingService(params BookingServiceParams) *BookingService {
	cfg := params.Config
	if cfg.ExportMaxRows <= 0 {
		cfg.ExportMaxRows = 5000
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{
		bookings: params.Bookings,
		signer:   params.Signer,
		csv:      params.CSV,
		pdf:      params.PDF,
		logger:   logger,
		cfg:      cfg,
	}
}

// Get fetches one booking.
func (s *BookingService) Get(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return booking, nil
}

// CancelWithToken tombstones a booking on behalf of its attendee. The manage
// token must match both the booking id and the attendee email it was issued
// for. Cancelling an already-cancelled booking succeeds silently.
func (s *BookingService) CancelWithToken(ctx context.Context, bookingID, token string) error {
	tokenBookingID, tokenEmail, _, err := s.signer.Parse(token)
	if err != nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "invalid manage token")
	}
	if tokenBookingID != bookingID {
		return appErrors.Clone(appErrors.ErrForbidden, "token does not match booking")
	}

	booking, err := s.Get(ctx, bookingID)
	if err != nil {
		return err
	}
	if !strings.EqualFold(booking.AttendeeEmail, tokenEmail) {
		return appErrors.Clone(appErrors.ErrForbidden, "token does not match booking")
	}
	if booking.Cancelled() {
		return nil
	}

	if err := s.bookings.Cancel(ctx, bookingID); err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}
	s.logger.Info("booking cancelled",
		zap.String("booking_id", bookingID),
		zap.String("event_id", booking.EventID),
		zap.String("host_id", booking.HostID))
	return nil
}

// ListForEvent returns the event's bookings newest-first.
func (s *BookingService) ListForEvent(ctx context.Context, eventID string, limit int) ([]models.Booking, error) {
	return s.bookings.ListForEvent(ctx, eventID, limit)
}

// Export renders the event's bookings as csv or pdf.
func (s *BookingService) Export(ctx context.Context, event *models.Event, format string) ([]byte, string, string, error) {
	if !s.cfg.ExportsEnabled {
		return nil, "", "", appErrors.Clone(appErrors.ErrForbidden, "exports are disabled")
	}

	bookings, err := s.bookings.ListForEvent(ctx, event.ID, s.cfg.ExportMaxRows)
	if err != nil {
		return nil, "", "", fmt.Errorf("load bookings for export: %w", err)
	}
	dataset := bookingDataset(bookings)

	switch strings.ToLower(format) {
	case "", "csv":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", "", fmt.Errorf("render csv export: %w", err)
		}
		return payload, fmt.Sprintf("bookings-%s.csv", event.Slug), "text/csv", nil
	case "pdf":
		payload, err := s.pdf.Render(dataset, fmt.Sprintf("Bookings - %s", event.Title))
		if err != nil {
			return nil, "", "", fmt.Errorf("render pdf export: %w", err)
		}
		return payload, fmt.Sprintf("bookings-%s.pdf", event.Slug), "application/pdf", nil
	default:
		return nil, "", "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

func bookingDataset(bookings []models.Booking) export.Dataset {
	headers := []string{"Reference", "Start", "End", "Host", "Attendee", "Email", "Status", "Booked At"}
	rows := make([]map[string]string, 0, len(bookings))
	for _, b := range bookings {
		status := "confirmed"
		if b.Cancelled() {
			status = "cancelled"
		}
		rows = append(rows, map[string]string{
			"Reference": b.Reference,
			"Start":     b.StartTime.UTC().Format(time.RFC3339),
			"End":       b.EndTime.UTC().Format(time.RFC3339),
			"Host":      b.HostID,
			"Attendee":  b.AttendeeName,
			"Email":     b.AttendeeEmail,
			"Status":    status,
			"Booked At": b.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
