package dto

import "time"

// HostAssignmentStat is one co-host's booking count in the current
// round-robin period.
type HostAssignmentStat struct {
	HostID       string     `json:"host_id"`
	Count        int        `json:"count"`
	LastAssigned *time.Time `json:"last_assigned,omitempty"`
}

// RoundRobinStatsResponse is the read-only balance report for an event.
type RoundRobinStatsResponse struct {
	EventID string               `json:"event_id"`
	Period  string               `json:"period"`
	Hosts   []HostAssignmentStat `json:"hosts"`
}
