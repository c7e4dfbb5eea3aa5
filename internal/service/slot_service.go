package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/openbook-dev/openbook-api/internal/interval"
	"github.com/openbook-dev/openbook-api/internal/models"
)

// Reasons returned by CheckSlot when a candidate is rejected.
const (
	ReasonInvalidDuration = "invalid_duration"
	ReasonMinNotice       = "min_notice"
	ReasonBookingWindow   = "booking_window"
	ReasonDailyCap        = "daily_cap_reached"
	ReasonWeeklyCap       = "weekly_cap_reached"
	ReasonHostBusy        = "host_busy"
)

type availabilityLister interface {
	ListActiveByHost(ctx context.Context, hostID string) ([]models.AvailabilityPattern, error)
}

type busyIntervalSource interface {
	BusyIntervals(ctx context.Context, host *models.Host, window interval.Interval) ([]interval.Interval, error)
}

type slotBookingReader interface {
	ListActiveInWindow(ctx context.Context, hostID string, from, to time.Time) ([]models.Booking, error)
	CountActiveForEvent(ctx context.Context, eventID string, from, to time.Time) (int, error)
}

// SlotServiceConfig bounds slot queries.
type SlotServiceConfig struct {
	MaxWindowDays int
}

// SlotService turns availability patterns, busy time and event constraints
// into the list of bookable start instants. It owns no state; every call
// recomputes from the stores it is given.
type SlotService struct {
	availability availabilityLister
	freeBusy     busyIntervalSource
	bookings     slotBookingReader
	metrics      *MetricsService
	logger       *zap.Logger
	now          func() time.Time
	cfg          SlotServiceConfig
}

// SlotServiceParams groups constructor dependencies.
type SlotServiceParams struct {
	Availability availabilityLister
	FreeBusy     busyIntervalSource
	Bookings     slotBookingReader
	Metrics      *MetricsService
	Logger       *zap.Logger
	Now          func() time.Time
	Config       SlotServiceConfig
}

// NewSlotService constructs a SlotService with sane defaults.
func NewSlotService(params SlotServiceParams) *SlotService {
	cfg := params.Config
	if cfg.MaxWindowDays <= 0 {
		cfg.MaxWindowDays = 90
	}
	nowFn := params.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SlotService{
		availability: params.Availability,
		freeBusy:     params.FreeBusy,
		bookings:     params.Bookings,
		metrics:      params.Metrics,
		logger:       logger,
		now:          nowFn,
		cfg:          cfg,
	}
}

// Generate returns every bookable [start, start+duration) within [from, to)
// for the host under the event's constraints, ascending and duplicate-free.
func (s *SlotService) Generate(ctx context.Context, host *models.Host, event *models.Event, from, to time.Time) ([]interval.Interval, error) {
	started := time.Now()
	defer func() {
		s.metrics.ObserveSlotGeneration(time.Since(started))
	}()

	if host == nil || event == nil {
		return nil, fmt.Errorf("generate slots: host and event are required")
	}
	c := event.Constraints
	if c.DurationMinutes <= 0 {
		return nil, fmt.Errorf("generate slots: event %s has no duration", event.ID)
	}

	lower, upper := s.effectiveBounds(c, from, to)
	if !upper.After(lower) {
		return nil, nil
	}

	expandedBusy, err := s.expandedBusy(ctx, host, c, lower, upper)
	if err != nil {
		return nil, err
	}

	patterns, err := s.availability.ListActiveByHost(ctx, host.ID)
	if err != nil {
		return nil, fmt.Errorf("load availability patterns: %w", err)
	}
	byWeekday := make(map[int][]models.AvailabilityPattern, 7)
	for _, p := range patterns {
		byWeekday[p.DayOfWeek] = append(byWeekday[p.DayOfWeek], p)
	}

	loc := host.Location()
	duration := c.Duration()
	step := c.Increment()

	// Cap lookups are memoized per day/week window so a multi-week listing
	// does not repeat count queries.
	capCounts := map[string]int{}

	var slots []interval.Interval
	for day := startOfDay(lower, loc); day.Before(upper); day = day.AddDate(0, 0, 1) {
		dayEnd := day.AddDate(0, 0, 1)

		capped, err := s.dayCapped(ctx, event, c, day, dayEnd, loc, capCounts)
		if err != nil {
			return nil, err
		}
		if capped {
			continue
		}

		windows := dayWindows(byWeekday[int(day.Weekday())], day, dayEnd, loc)
		for _, w := range windows {
			for _, free := range interval.Subtract(w, expandedBusy) {
				for _, start := range gridStarts(w.Start, free, step, duration) {
					if start.Before(lower) || !start.Before(upper) {
						continue
					}
					slots = append(slots, interval.Interval{Start: start, End: start.Add(duration)})
				}
			}
		}
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].Start.Before(slots[j].Start) })
	return slots, nil
}

// GenerateForEvent unions per-host slot lists: a slot is offered when any of
// the event's co-hosts can take it. The host itself is chosen at reservation
// time, not here.
func (s *SlotService) GenerateForEvent(ctx context.Context, hosts []models.Host, event *models.Event, from, to time.Time) ([]interval.Interval, error) {
	var union []interval.Interval
	for i := range hosts {
		if !hosts[i].Active {
			continue
		}
		slots, err := s.Generate(ctx, &hosts[i], event, from, to)
		if err != nil {
			return nil, err
		}
		union = append(union, slots...)
	}

	sort.Slice(union, func(i, j int) bool { return union[i].Start.Before(union[j].Start) })
	deduped := union[:0]
	for _, slot := range union {
		if len(deduped) > 0 && slot.Start.Equal(deduped[len(deduped)-1].Start) {
			continue
		}
		deduped = append(deduped, slot)
	}
	return deduped, nil
}

// CheckSlot re-validates one explicit candidate against current state. The
// rejection reason is empty when the slot is bookable. Availability patterns
// and the increment grid are deliberately not re-checked; the candidate came
// from a generated list and only conditions that drift with time can have
// changed since.
func (s *SlotService) CheckSlot(ctx context.Context, host *models.Host, event *models.Event, candidate interval.Interval) (bool, string, error) {
	c := event.Constraints
	if candidate.Duration() != c.Duration() {
		return false, ReasonInvalidDuration, nil
	}

	now := s.now()
	if candidate.Start.Before(now.Add(time.Duration(c.MinNoticeHours) * time.Hour)) {
		return false, ReasonMinNotice, nil
	}
	if c.BookingWindowDays > 0 && candidate.Start.After(now.AddDate(0, 0, c.BookingWindowDays)) {
		return false, ReasonBookingWindow, nil
	}

	loc := host.Location()
	if c.MaxDailyBookings != nil {
		day := startOfDay(candidate.Start.In(loc), loc)
		count, err := s.bookings.CountActiveForEvent(ctx, event.ID, day, day.AddDate(0, 0, 1))
		if err != nil {
			return false, "", fmt.Errorf("daily cap check: %w", err)
		}
		if count >= *c.MaxDailyBookings {
			return false, ReasonDailyCap, nil
		}
	}
	if c.MaxWeeklyBookings != nil {
		weekStart, weekEnd := weekWindow(candidate.Start, loc)
		count, err := s.bookings.CountActiveForEvent(ctx, event.ID, weekStart, weekEnd)
		if err != nil {
			return false, "", fmt.Errorf("weekly cap check: %w", err)
		}
		if count >= *c.MaxWeeklyBookings {
			return false, ReasonWeeklyCap, nil
		}
	}

	if !c.IgnoreBusyBlocks {
		expanded, err := s.expandedBusy(ctx, host, c, candidate.Start, candidate.End)
		if err != nil {
			return false, "", err
		}
		for _, busy := range expanded {
			if interval.Overlaps(candidate, busy) {
				return false, ReasonHostBusy, nil
			}
		}
	}

	return true, "", nil
}

// effectiveBounds narrows the requested range with min-notice, the booking
// window and the service-wide hard cap.
func (s *SlotService) effectiveBounds(c models.EventConstraints, from, to time.Time) (time.Time, time.Time) {
	now := s.now()
	lower := from
	if minStart := now.Add(time.Duration(c.MinNoticeHours) * time.Hour); minStart.After(lower) {
		lower = minStart
	}
	upper := to
	if c.BookingWindowDays > 0 {
		if horizon := now.AddDate(0, 0, c.BookingWindowDays); horizon.Before(upper) {
			upper = horizon
		}
	}
	if hardCap := now.AddDate(0, 0, s.cfg.MaxWindowDays); hardCap.Before(upper) {
		upper = hardCap
	}
	return lower, upper
}

// expandedBusy returns the merged busy intervals for [lower, upper), buffers
// applied, covering both external calendar time and internal bookings. An
// event that ignores busy blocks gets none.
func (s *SlotService) expandedBusy(ctx context.Context, host *models.Host, c models.EventConstraints, lower, upper time.Time) ([]interval.Interval, error) {
	if c.IgnoreBusyBlocks {
		return nil, nil
	}

	// Busy time just outside the range still blocks edge candidates once
	// buffers are applied, so fetch wider than the range itself.
	pad := c.Duration() + c.BufferBefore() + c.BufferAfter()
	fetchWindow := interval.Interval{Start: lower.Add(-pad), End: upper.Add(pad)}

	busy, err := s.freeBusy.BusyIntervals(ctx, host, fetchWindow)
	if err != nil {
		return nil, fmt.Errorf("load busy intervals: %w", err)
	}

	bookings, err := s.bookings.ListActiveInWindow(ctx, host.ID, fetchWindow.Start, fetchWindow.End)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}
	for _, b := range bookings {
		busy = append(busy, interval.Interval{Start: b.StartTime, End: b.EndTime})
	}

	// A candidate may not start where its buffer-padded meeting would touch
	// busy time: grow each busy interval by buffer_after on the left and
	// buffer_before on the right, then merge.
	expanded := make([]interval.Interval, 0, len(busy))
	for _, b := range busy {
		expanded = append(expanded, interval.Interval{
			Start: b.Start.Add(-c.BufferAfter()),
			End:   b.End.Add(c.BufferBefore()),
		})
	}
	return interval.Merge(expanded), nil
}

// dayCapped reports whether the daily or weekly booking cap already rules the
// day out.
func (s *SlotService) dayCapped(ctx context.Context, event *models.Event, c models.EventConstraints, day, dayEnd time.Time, loc *time.Location, memo map[string]int) (bool, error) {
	if c.MaxDailyBookings != nil {
		count, err := s.cappedCount(ctx, event.ID, day, dayEnd, memo)
		if err != nil {
			return false, fmt.Errorf("daily cap check: %w", err)
		}
		if count >= *c.MaxDailyBookings {
			return true, nil
		}
	}
	if c.MaxWeeklyBookings != nil {
		weekStart, weekEnd := weekWindow(day, loc)
		count, err := s.cappedCount(ctx, event.ID, weekStart, weekEnd, memo)
		if err != nil {
			return false, fmt.Errorf("weekly cap check: %w", err)
		}
		if count >= *c.MaxWeeklyBookings {
			return true, nil
		}
	}
	return false, nil
}

func (s *SlotService) cappedCount(ctx context.Context, eventID string, from, to time.Time, memo map[string]int) (int, error) {
	key := fmt.Sprintf("%d:%d", from.Unix(), to.Unix())
	if count, ok := memo[key]; ok {
		return count, nil
	}
	count, err := s.bookings.CountActiveForEvent(ctx, eventID, from, to)
	if err != nil {
		return 0, err
	}
	memo[key] = count
	return count, nil
}

// dayWindows converts the day's patterns into absolute open windows. A
// weekday with no patterns is fully open; hosts opt in to restrictions by
// configuring patterns, their absence means unrestricted.
func dayWindows(patterns []models.AvailabilityPattern, day, dayEnd time.Time, loc *time.Location) []interval.Interval {
	if len(patterns) == 0 {
		return []interval.Interval{{Start: day, End: dayEnd}}
	}
	windows := make([]interval.Interval, 0, len(patterns))
	for _, p := range patterns {
		start := time.Date(day.Year(), day.Month(), day.Day(), 0, p.StartMinute, 0, 0, loc)
		end := time.Date(day.Year(), day.Month(), day.Day(), 0, p.EndMinute, 0, 0, loc)
		if end.After(start) {
			windows = append(windows, interval.Interval{Start: start, End: end})
		}
	}
	// Overlapping patterns would emit duplicate starts; merging first keeps
	// the output disjoint and the grid anchored at the merged window start.
	return interval.Merge(windows)
}

// gridStarts enumerates candidate starts inside the free sub-interval on the
// increment grid anchored at the availability window start.
func gridStarts(anchor time.Time, free interval.Interval, step, duration time.Duration) []time.Time {
	if step <= 0 {
		return nil
	}
	offset := free.Start.Sub(anchor)
	steps := offset / step
	if offset%step != 0 {
		steps++
	}
	var starts []time.Time
	for start := anchor.Add(steps * step); !start.Add(duration).After(free.End); start = start.Add(step) {
		starts = append(starts, start)
	}
	return starts
}

// startOfDay returns midnight of t's calendar day in loc.
func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// weekWindow returns the ISO week (Monday 00:00 through next Monday 00:00)
// containing t, in loc.
func weekWindow(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	daysSinceMonday := (int(local.Weekday()) + 6) % 7
	monday := time.Date(local.Year(), local.Month(), local.Day()-daysSinceMonday, 0, 0, 0, 0, loc)
	return monday, monday.AddDate(0, 0, 7)
}
