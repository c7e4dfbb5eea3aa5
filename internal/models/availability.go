package models

import "time"

// AvailabilityPattern is a recurring weekly open window for a host.
// StartMinute/EndMinute are wall-clock minutes from midnight in the host's
// timezone; they carry no date and are converted per calendar day.
// Patterns are soft-disabled via IsActive, never hard-deleted.
type AvailabilityPattern struct {
	ID          string    `db:"id" json:"id"`
	HostID      string    `db:"host_id" json:"host_id"`
	DayOfWeek   int       `db:"day_of_week" json:"day_of_week"`
	StartMinute int       `db:"start_minute" json:"start_minute"`
	EndMinute   int       `db:"end_minute" json:"end_minute"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
