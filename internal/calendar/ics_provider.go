package calendar

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/openbook-dev/openbook-api/internal/interval"
	"github.com/openbook-dev/openbook-api/internal/models"
)

// Hard cap on expanded occurrences per VEVENT; a runaway RRULE must not be
// able to stall a slot request.
const maxOccurrencesPerEvent = 1000

// ICSProvider treats a host's subscribed ICS feed as the source of busy
// time: every VEVENT occurrence inside the window, recurring rules included,
// becomes a busy interval.
type ICSProvider struct {
	client *http.Client
	logger *zap.Logger
}

// NewICSProvider builds a feed-backed provider.
func NewICSProvider(timeout time.Duration, logger *zap.Logger) *ICSProvider {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ICSProvider{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// FreeBusy downloads and expands the host's ICS feed for the window.
func (p *ICSProvider) FreeBusy(ctx context.Context, host *models.Host, window interval.Interval) ([]interval.Interval, error) {
	if host == nil || host.CalendarFeedURL == nil || *host.CalendarFeedURL == "" {
		return nil, fmt.Errorf("host has no calendar feed configured")
	}

	body, err := p.fetch(ctx, *host.CalendarFeedURL)
	if err != nil {
		return nil, err
	}

	return p.expand(body, window, host.ID)
}

func (p *ICSProvider) fetch(ctx context.Context, feedURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch calendar feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch calendar feed: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read calendar feed: %w", err)
	}
	return body, nil
}

// expand parses the ICS payload and returns merged busy intervals clamped to
// the window. Malformed events are skipped, not fatal.
func (p *ICSProvider) expand(body []byte, window interval.Interval, hostID string) ([]interval.Interval, error) {
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse calendar feed: %w", err)
	}

	busy := make([]interval.Interval, 0)
	for _, ve := range cal.Events() {
		occurrences, err := p.expandEvent(ve, window)
		if err != nil {
			p.logger.Warn("skipping unparseable calendar event",
				zap.String("host_id", hostID), zap.Error(err))
			continue
		}
		busy = append(busy, occurrences...)
	}
	return interval.Merge(busy), nil
}

func (p *ICSProvider) expandEvent(ve *ical.VEvent, window interval.Interval) ([]interval.Interval, error) {
	start, err := ve.GetStartAt()
	if err != nil {
		return nil, fmt.Errorf("event start: %w", err)
	}
	end, err := ve.GetEndAt()
	if err != nil || !end.After(start) {
		// Events without a usable DTEND block a nominal hour.
		end = start.Add(time.Hour)
	}
	duration := end.Sub(start)

	rawRRule := ""
	if prop := ve.GetProperty(ical.ComponentPropertyRrule); prop != nil {
		rawRRule = prop.Value
	}

	if rawRRule == "" {
		iv := interval.Clamp(interval.Interval{Start: start, End: end}, window)
		if iv.IsZero() {
			return nil, nil
		}
		return []interval.Interval{iv}, nil
	}

	rule, err := rrule.StrToRRule(rawRRule)
	if err != nil {
		return nil, fmt.Errorf("parse RRULE %q: %w", rawRRule, err)
	}
	rule.DTStart(start)

	var set rrule.Set
	set.RRule(rule)
	for _, ex := range exDates(ve, start.Location()) {
		set.ExDate(ex)
	}

	// Between operates in the event's own location; widen the left edge by
	// one duration so occurrences straddling the window start are kept.
	rangeStart := window.Start.Add(-duration).In(start.Location())
	rangeEnd := window.End.In(start.Location())
	occStarts := set.Between(rangeStart, rangeEnd, true)
	if len(occStarts) > maxOccurrencesPerEvent {
		occStarts = occStarts[:maxOccurrencesPerEvent]
	}

	out := make([]interval.Interval, 0, len(occStarts))
	for _, occStart := range occStarts {
		iv := interval.Clamp(interval.Interval{Start: occStart, End: occStart.Add(duration)}, window)
		if !iv.IsZero() {
			out = append(out, iv)
		}
	}
	return out, nil
}

// exDates collects EXDATE values, aligning naive timestamps with the event's
// location.
func exDates(ve *ical.VEvent, loc *time.Location) []time.Time {
	props := ve.GetProperties(ical.ComponentPropertyExdate)
	out := make([]time.Time, 0, len(props))
	for _, prop := range props {
		for _, part := range strings.Split(prop.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part, loc); err == nil {
				out = append(out, t)
			}
		}
	}
	return out
}

func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	switch {
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}
