// Package calendar holds the calendar-provider collaborators the busy-block
// cache wraps. Providers return raw busy intervals; freshness, fallback and
// persistence live in the service layer.
package calendar

import (
	"context"

	"github.com/openbook-dev/openbook-api/internal/interval"
	"github.com/openbook-dev/openbook-api/internal/models"
)

// Provider fetches a host's external busy intervals for [from, to). The call
// is network-bound and may fail; callers own the timeout and the fallback
// policy.
type Provider interface {
	FreeBusy(ctx context.Context, host *models.Host, window interval.Interval) ([]interval.Interval, error)
}

// Selector picks the provider for a host: hosts with an ICS feed URL use the
// feed, everyone else the free-busy API.
type Selector struct {
	API  Provider
	Feed Provider
}

// For returns the provider responsible for the host, or nil when none is
// configured.
func (s *Selector) For(host *models.Host) Provider {
	if host != nil && host.CalendarFeedURL != nil && *host.CalendarFeedURL != "" && s.Feed != nil {
		return s.Feed
	}
	return s.API
}
