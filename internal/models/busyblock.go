package models

import "time"

// BusyBlockSource distinguishes externally-synced calendar commitments from
// busy time derived from internal bookings.
type BusyBlockSource string

const (
	BusySourceSync    BusyBlockSource = "SYNC"
	BusySourceBooking BusyBlockSource = "BOOKING"
)

// BusyBlock is one cached busy interval for a host. Rows with source SYNC
// form the snapshot the Busy Block Cache replaces wholesale on refresh;
// SyncedAt drives the staleness check.
type BusyBlock struct {
	ID        string          `db:"id" json:"id"`
	HostID    string          `db:"host_id" json:"host_id"`
	StartTime time.Time       `db:"start_time" json:"start_time"`
	EndTime   time.Time       `db:"end_time" json:"end_time"`
	Source    BusyBlockSource `db:"source" json:"source"`
	SyncedAt  time.Time       `db:"synced_at" json:"synced_at"`
}
