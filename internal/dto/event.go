package dto

// CreateEventRequest defines a new bookable event and its constraints. The
// slug is derived from the title server-side.
type CreateEventRequest struct {
	Title                 string   `json:"title" binding:"required"`
	HostIDs               []string `json:"host_ids" binding:"required,min=1"`
	DurationMinutes       int      `json:"duration_minutes" binding:"required,min=1"`
	BufferBeforeMinutes   int      `json:"buffer_before_minutes" binding:"min=0"`
	BufferAfterMinutes    int      `json:"buffer_after_minutes" binding:"min=0"`
	MinNoticeHours        int      `json:"min_notice_hours" binding:"min=0"`
	BookingWindowDays     int      `json:"booking_window_days" binding:"min=0"`
	StartIncrementMinutes int      `json:"start_increment_minutes" binding:"min=0"`
	MaxDailyBookings      *int     `json:"max_daily_bookings"`
	MaxWeeklyBookings     *int     `json:"max_weekly_bookings"`
	IgnoreBusyBlocks      bool     `json:"ignore_busy_blocks"`
	DisplayTimezone       string   `json:"display_timezone"`
	RoundRobinPeriod      string   `json:"round_robin_period" binding:"omitempty,oneof=day week all"`
	RoundRobinStrategy    string   `json:"round_robin_strategy" binding:"omitempty,oneof=least_booked least_booked_available"`
}
