package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/openbook-dev/openbook-api/internal/models"
	appErrors "github.com/openbook-dev/openbook-api/pkg/errors"
)

// Postgres error codes that signal the reserve lost a commit race. The
// bookings table carries
//
//	EXCLUDE USING gist (host_id WITH =, tstzrange(start_time, end_time) WITH &&)
//	WHERE (cancelled_at IS NULL)
//
// so two inserts racing on overlapping ranges cannot both land.
const (
	pqExclusionViolation = "23P01"
	pqUniqueViolation    = "23505"
)

// BookingRepository persists bookings and answers the count queries the
// slot generator and round-robin assignment depend on.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs a booking repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Reserve inserts the booking optimistically. A storage-level overlap
// conflict is translated to ErrSlotUnavailable; the caller treats it as a
// normal outcome, not a fault.
func (r *BookingRepository) Reserve(ctx context.Context, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO bookings (id, event_id, host_id, start_time, end_time, attendee_name, attendee_email, reference, cancelled_at, created_at)
VALUES (:id, :event_id, :host_id, :start_time, :end_time, :attendee_name, :attendee_email, :reference, :cancelled_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, booking); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch string(pqErr.Code) {
			case pqExclusionViolation, pqUniqueViolation:
				return appErrors.Wrap(err, appErrors.ErrSlotUnavailable.Code, appErrors.ErrSlotUnavailable.Status, appErrors.ErrSlotUnavailable.Message)
			}
		}
		return fmt.Errorf("reserve booking: %w", err)
	}
	return nil
}

// GetByID fetches one booking.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	const query = `SELECT id, event_id, host_id, start_time, end_time, attendee_name, attendee_email, reference, cancelled_at, created_at
FROM bookings WHERE id = $1`
	var booking models.Booking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		return nil, err
	}
	return &booking, nil
}

// Cancel tombstones a booking. Cancelling twice is a no-op.
func (r *BookingRepository) Cancel(ctx context.Context, id string) error {
	const query = `UPDATE bookings SET cancelled_at = $2 WHERE id = $1 AND cancelled_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}
	return nil
}

// ListActiveInWindow returns non-cancelled bookings for a host overlapping
// [from, to), ordered by start.
func (r *BookingRepository) ListActiveInWindow(ctx context.Context, hostID string, from, to time.Time) ([]models.Booking, error) {
	const query = `SELECT id, event_id, host_id, start_time, end_time, attendee_name, attendee_email, reference, cancelled_at, created_at
FROM bookings WHERE host_id = $1 AND cancelled_at IS NULL AND end_time > $2 AND start_time < $3 ORDER BY start_time ASC`
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, hostID, from, to); err != nil {
		return nil, fmt.Errorf("list bookings in window: %w", err)
	}
	return bookings, nil
}

// CountActiveForEvent counts non-cancelled bookings for an event starting
// within [from, to). Used for the daily/weekly caps.
func (r *BookingRepository) CountActiveForEvent(ctx context.Context, eventID string, from, to time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM bookings WHERE event_id = $1 AND cancelled_at IS NULL AND start_time >= $2 AND start_time < $3`
	var count int
	if err := r.db.GetContext(ctx, &count, query, eventID, from, to); err != nil {
		return 0, fmt.Errorf("count event bookings: %w", err)
	}
	return count, nil
}

// AssignmentCounts returns, per host, the non-cancelled booking count for the
// event within [from, to) and the created_at of the most recent assignment.
// Hosts with no bookings in the period are absent from the result; callers
// zero-fill.
func (r *BookingRepository) AssignmentCounts(ctx context.Context, eventID string, hostIDs []string, from, to time.Time) ([]models.HostAssignmentCount, error) {
	const query = `SELECT host_id, COUNT(*) AS count, MAX(created_at) AS last_assigned
FROM bookings WHERE event_id = $1 AND host_id = ANY($2) AND cancelled_at IS NULL AND start_time >= $3 AND start_time < $4
GROUP BY host_id`
	var counts []models.HostAssignmentCount
	if err := r.db.SelectContext(ctx, &counts, query, eventID, pq.Array(hostIDs), from, to); err != nil {
		return nil, fmt.Errorf("assignment counts: %w", err)
	}
	return counts, nil
}

// ListForEvent returns the event's bookings newest-first for admin listing
// and export, with a hard row cap.
func (r *BookingRepository) ListForEvent(ctx context.Context, eventID string, limit int) ([]models.Booking, error) {
	if limit <= 0 || limit > 10000 {
		limit = 5000
	}
	const query = `SELECT id, event_id, host_id, start_time, end_time, attendee_name, attendee_email, reference, cancelled_at, created_at
FROM bookings WHERE event_id = $1 ORDER BY start_time DESC LIMIT $2`
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, eventID, limit); err != nil {
		return nil, fmt.Errorf("list event bookings: %w", err)
	}
	return bookings, nil
}
