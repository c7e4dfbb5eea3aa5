package models

import "time"

// Host represents a bookable person. Timezone is the IANA name used to
// convert availability-pattern wall clocks into absolute instants.
type Host struct {
	ID              string    `db:"id" json:"id"`
	Email           string    `db:"email" json:"email"`
	FullName        string    `db:"full_name" json:"full_name"`
	Timezone        string    `db:"timezone" json:"timezone"`
	CalendarFeedURL *string   `db:"calendar_feed_url" json:"calendar_feed_url,omitempty"`
	Active          bool      `db:"active" json:"active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Location resolves the host timezone, falling back to UTC when the stored
// name does not load.
func (h *Host) Location() *time.Location {
	if h == nil || h.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(h.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
