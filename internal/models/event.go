package models

import "time"

// RoundRobinPeriod is the rolling window over which assignment counts are
// balanced across co-hosts.
type RoundRobinPeriod string

const (
	PeriodDay  RoundRobinPeriod = "day"
	PeriodWeek RoundRobinPeriod = "week"
	PeriodAll  RoundRobinPeriod = "all"
)

// RoundRobinStrategy selects how the next host is chosen.
type RoundRobinStrategy string

const (
	StrategyLeastBooked          RoundRobinStrategy = "least_booked"
	StrategyLeastBookedAvailable RoundRobinStrategy = "least_booked_available"
)

// Event is a bookable meeting type owned by one or more co-hosts, addressed
// publicly by its slug.
type Event struct {
	ID          string           `db:"id" json:"id"`
	Slug        string           `db:"slug" json:"slug"`
	Title       string           `db:"title" json:"title"`
	CreatedBy   string           `db:"created_by" json:"created_by"`
	Active      bool             `db:"active" json:"active"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
	Constraints EventConstraints `db:"-" json:"constraints"`

	// HostIDs is ordered by event_hosts.position; the order is the final
	// round-robin tie-break.
	HostIDs []string `db:"-" json:"host_ids"`
}

// EventConstraints are read-only inputs to the scheduling engine, stored on
// the event row.
type EventConstraints struct {
	DurationMinutes       int                `db:"duration_minutes" json:"duration_minutes"`
	BufferBeforeMinutes   int                `db:"buffer_before_minutes" json:"buffer_before_minutes"`
	BufferAfterMinutes    int                `db:"buffer_after_minutes" json:"buffer_after_minutes"`
	MinNoticeHours        int                `db:"min_notice_hours" json:"min_notice_hours"`
	BookingWindowDays     int                `db:"booking_window_days" json:"booking_window_days"`
	StartIncrementMinutes int                `db:"start_increment_minutes" json:"start_increment_minutes"`
	MaxDailyBookings      *int               `db:"max_daily_bookings" json:"max_daily_bookings,omitempty"`
	MaxWeeklyBookings     *int               `db:"max_weekly_bookings" json:"max_weekly_bookings,omitempty"`
	IgnoreBusyBlocks      bool               `db:"ignore_busy_blocks" json:"ignore_busy_blocks"`
	DisplayTimezone       string             `db:"display_timezone" json:"display_timezone"`
	RoundRobinPeriod      RoundRobinPeriod   `db:"round_robin_period" json:"round_robin_period"`
	RoundRobinStrategy    RoundRobinStrategy `db:"round_robin_strategy" json:"round_robin_strategy"`
}

// Duration returns the meeting length.
func (c EventConstraints) Duration() time.Duration {
	return time.Duration(c.DurationMinutes) * time.Minute
}

// BufferBefore returns the required free time immediately before a meeting.
func (c EventConstraints) BufferBefore() time.Duration {
	return time.Duration(c.BufferBeforeMinutes) * time.Minute
}

// BufferAfter returns the required free time immediately after a meeting.
func (c EventConstraints) BufferAfter() time.Duration {
	return time.Duration(c.BufferAfterMinutes) * time.Minute
}

// Increment returns the offered start-time granularity.
func (c EventConstraints) Increment() time.Duration {
	if c.StartIncrementMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.StartIncrementMinutes) * time.Minute
}
