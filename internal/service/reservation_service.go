package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"

	"github.com/openbook-dev/openbook-api/internal/interval"
	"github.com/openbook-dev/openbook-api/internal/models"
	appErrors "github.com/openbook-dev/openbook-api/pkg/errors"
)

// Booking references use an unambiguous alphabet; they end up in emails and
// support conversations.
const (
	referenceAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"
	referenceLength   = 10
)

type reservationStore interface {
	Reserve(ctx context.Context, booking *models.Booking) error
}

type hostGetter interface {
	GetByID(ctx context.Context, id string) (*models.Host, error)
}

type hostPicker interface {
	PickHost(ctx context.Context, event *models.Event, candidate interval.Interval) (*models.Host, error)
	InvalidateStats(ctx context.Context, eventID string)
}

type manageTokenIssuer interface {
	Generate(bookingID, attendeeEmail string) (string, time.Time, error)
}

// Attendee identifies who a reservation is for.
type Attendee struct {
	Name  string
	Email string
}

// ReservationResult is a confirmed booking plus the attendee's self-service
// token.
type ReservationResult struct {
	Booking              *models.Booking `json:"booking"`
	ManageToken          string          `json:"manage_token"`
	ManageTokenExpiresAt time.Time       `json:"manage_token_expires_at"`
}

// ReservationService is the commit path for bookings: it re-validates the
// candidate against current state, resolves the host for multi-host events
// and inserts optimistically. The storage layer's exclusion constraint is the
// concurrency boundary; a violation comes back as ErrSlotUnavailable, an
// expected outcome for the losing request.
type ReservationService struct {
	bookings   reservationStore
	slots      slotChecker
	hosts      hostGetter
	assignment hostPicker
	signer     manageTokenIssuer
	metrics    *MetricsService
	logger     *zap.Logger
	now        func() time.Time
}

// ReservationServiceParams groups constructor dependencies.
type ReservationServiceParams struct {
	Bookings   reservationStore
	Slots      slotChecker
	Hosts      hostGetter
	Assignment hostPicker
	Signer     manageTokenIssuer
	Metrics    *MetricsService
	Logger     *zap.Logger
	Now        func() time.Time
}

// NewReservationService constructs a ReservationService.
func NewReservationService(params ReservationServiceParams) *ReservationService {
	nowFn := params.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReservationService{
		bookings:   params.Bookings,
		slots:      params.Slots,
		hosts:      params.Hosts,
		assignment: params.Assignment,
		signer:     params.Signer,
		metrics:    params.Metrics,
		logger:     logger,
		now:        nowFn,
	}
}

// Reserve validates and commits one booking. hostID may be empty for
// multi-host events; round-robin assignment then picks the host.
func (s *ReservationService) Reserve(ctx context.Context, event *models.Event, hostID string, candidate interval.Interval, attendee Attendee) (*ReservationResult, error) {
	if event == nil {
		return nil, appErrors.ErrConfigurationMissing
	}

	host, err := s.resolveHost(ctx, event, hostID, candidate)
	if err != nil {
		return nil, err
	}

	ok, reason, err := s.slots.CheckSlot(ctx, host, event, candidate)
	if err != nil {
		return nil, fmt.Errorf("revalidate slot: %w", err)
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrSlotUnavailable, rejectionMessage(reason))
	}

	reference, err := gonanoid.Generate(referenceAlphabet, referenceLength)
	if err != nil {
		return nil, fmt.Errorf("generate booking reference: %w", err)
	}

	booking := &models.Booking{
		EventID:       event.ID,
		HostID:        host.ID,
		StartTime:     candidate.Start,
		EndTime:       candidate.End,
		AttendeeName:  attendee.Name,
		AttendeeEmail: attendee.Email,
		Reference:     reference,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.bookings.Reserve(ctx, booking); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Code == appErrors.ErrSlotUnavailable.Code {
			s.metrics.RecordReservationConflict()
			s.logger.Info("reservation lost commit race",
				zap.String("event_id", event.ID),
				zap.String("host_id", host.ID),
				zap.Time("start", candidate.Start))
			return nil, err
		}
		return nil, err
	}

	s.assignment.InvalidateStats(ctx, event.ID)

	token, expiresAt, err := s.signer.Generate(booking.ID, booking.AttendeeEmail)
	if err != nil {
		// The booking stands; the attendee just loses self-service.
		s.logger.Warn("manage token generation failed",
			zap.String("booking_id", booking.ID), zap.Error(err))
		return &ReservationResult{Booking: booking}, nil
	}

	return &ReservationResult{
		Booking:              booking,
		ManageToken:          token,
		ManageTokenExpiresAt: expiresAt,
	}, nil
}

func (s *ReservationService) resolveHost(ctx context.Context, event *models.Event, hostID string, candidate interval.Interval) (*models.Host, error) {
	if hostID != "" {
		if !containsString(event.HostIDs, hostID) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "host does not belong to event")
		}
		host, err := s.hosts.GetByID(ctx, hostID)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrConfigurationMissing, "host not found")
		}
		return host, nil
	}

	if len(event.HostIDs) == 1 {
		host, err := s.hosts.GetByID(ctx, event.HostIDs[0])
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrConfigurationMissing, "host not found")
		}
		return host, nil
	}

	return s.assignment.PickHost(ctx, event, candidate)
}

func rejectionMessage(reason string) string {
	switch reason {
	case ReasonInvalidDuration:
		return "slot does not match the event duration"
	case ReasonMinNotice:
		return "slot is inside the minimum notice period"
	case ReasonBookingWindow:
		return "slot is beyond the booking window"
	case ReasonDailyCap:
		return "daily booking limit reached"
	case ReasonWeeklyCap:
		return "weekly booking limit reached"
	case ReasonHostBusy:
		return "host is no longer free at that time"
	default:
		return ""
	}
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
