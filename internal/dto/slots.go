package dto

import "time"

// SlotResponse is one bookable slot, expressed both as absolute instants and
// in the event's display timezone.
type SlotResponse struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	StartLocal string    `json:"start_local,omitempty"`
	EndLocal   string    `json:"end_local,omitempty"`
}

// SlotListResponse wraps the slot list with the resolved query window.
type SlotListResponse struct {
	EventID  string         `json:"event_id"`
	Slug     string         `json:"slug"`
	Timezone string         `json:"timezone"`
	From     time.Time      `json:"from"`
	To       time.Time      `json:"to"`
	Slots    []SlotResponse `json:"slots"`
}

// CheckAvailabilityRequest asks whether one explicit range is bookable.
type CheckAvailabilityRequest struct {
	EventID string    `json:"event_id" binding:"required"`
	HostID  string    `json:"host_id"`
	Start   time.Time `json:"start" binding:"required"`
	End     time.Time `json:"end" binding:"required"`
}

// CheckAvailabilityResponse carries the verdict and, when negative, why.
type CheckAvailabilityResponse struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}
