package dto

import "time"

// CreateBookingRequest reserves one slot. HostID is optional for multi-host
// events; round-robin assignment picks the host when absent.
type CreateBookingRequest struct {
	EventID       string    `json:"event_id" binding:"required"`
	HostID        string    `json:"host_id"`
	Start         time.Time `json:"start" binding:"required"`
	End           time.Time `json:"end" binding:"required"`
	AttendeeName  string    `json:"attendee_name" binding:"required"`
	AttendeeEmail string    `json:"attendee_email" binding:"required,email"`
}

// BookingResponse is the confirmed reservation plus the attendee's
// self-service token.
type BookingResponse struct {
	ID                   string     `json:"id"`
	EventID              string     `json:"event_id"`
	HostID               string     `json:"host_id"`
	Start                time.Time  `json:"start"`
	End                  time.Time  `json:"end"`
	Reference            string     `json:"reference"`
	AttendeeName         string     `json:"attendee_name"`
	AttendeeEmail        string     `json:"attendee_email"`
	CancelledAt          *time.Time `json:"cancelled_at,omitempty"`
	ManageToken          string     `json:"manage_token,omitempty"`
	ManageTokenExpiresAt *time.Time `json:"manage_token_expires_at,omitempty"`
}
