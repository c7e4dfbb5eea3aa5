package models

import "time"

// Booking is a confirmed reservation of one time range with one host.
// Cancellation is a tombstone: CancelledAt is set and the row stays. A
// non-cancelled booking is a busy interval for its host.
type Booking struct {
	ID            string     `db:"id" json:"id"`
	EventID       string     `db:"event_id" json:"event_id"`
	HostID        string     `db:"host_id" json:"host_id"`
	StartTime     time.Time  `db:"start_time" json:"start_time"`
	EndTime       time.Time  `db:"end_time" json:"end_time"`
	AttendeeName  string     `db:"attendee_name" json:"attendee_name"`
	AttendeeEmail string     `db:"attendee_email" json:"attendee_email"`
	Reference     string     `db:"reference" json:"reference"`
	CancelledAt   *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// Cancelled reports whether the booking has been tombstoned.
func (b *Booking) Cancelled() bool {
	return b != nil && b.CancelledAt != nil
}

// BookingFilter narrows booking list queries.
type BookingFilter struct {
	EventID  string
	HostID   string
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// HostAssignmentCount is the per-host non-cancelled booking count within the
// current round-robin period, plus the most recent assignment instant used
// for tie-breaking.
type HostAssignmentCount struct {
	HostID       string     `db:"host_id" json:"host_id"`
	Count        int        `db:"count" json:"count"`
	LastAssigned *time.Time `db:"last_assigned" json:"last_assigned,omitempty"`
}
