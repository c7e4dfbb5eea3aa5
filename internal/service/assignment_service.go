package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/openbook-dev/openbook-api/internal/interval"
	"github.com/openbook-dev/openbook-api/internal/models"
	appErrors "github.com/openbook-dev/openbook-api/pkg/errors"
)

type assignmentCountReader interface {
	AssignmentCounts(ctx context.Context, eventID string, hostIDs []string, from, to time.Time) ([]models.HostAssignmentCount, error)
}

type hostLister interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.Host, error)
}

type slotChecker interface {
	CheckSlot(ctx context.Context, host *models.Host, event *models.Event, candidate interval.Interval) (bool, string, error)
}

// AssignmentServiceConfig tunes the stats report cache.
type AssignmentServiceConfig struct {
	StatsCacheTTL time.Duration
}

// AssignmentService picks which co-host receives the next booking so that
// per-period booking counts stay balanced. Selection is deterministic: ties
// fall to the host assigned least recently, then to the event's host order.
type AssignmentService struct {
	bookings assignmentCountReader
	hosts    hostLister
	slots    slotChecker
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
	cfg      AssignmentServiceConfig
}

// AssignmentServiceParams groups constructor dependencies.
type AssignmentServiceParams struct {
	Bookings assignmentCountReader
	Hosts    hostLister
	Slots    slotChecker
	Cache    *CacheService
	Metrics  *MetricsService
	Logger   *zap.Logger
	Now      func() time.Time
	Config   AssignmentServiceConfig
}

// NewAssignmentService constructs an AssignmentService with sane defaults.
func NewAssignmentService(params AssignmentServiceParams) *AssignmentService {
	cfg := params.Config
	if cfg.StatsCacheTTL <= 0 {
		cfg.StatsCacheTTL = time.Minute
	}
	nowFn := params.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		bookings: params.Bookings,
		hosts:    params.Hosts,
		slots:    params.Slots,
		cache:    params.Cache,
		metrics:  params.Metrics,
		logger:   logger,
		now:      nowFn,
		cfg:      cfg,
	}
}

// PickHost selects the event co-host who should receive a booking at the
// candidate time. With the availability-aware strategy, hosts whose calendar
// rejects the candidate are excluded first; an empty remainder is
// ErrNoHostAvailable.
func (s *AssignmentService) PickHost(ctx context.Context, event *models.Event, candidate interval.Interval) (*models.Host, error) {
	if event == nil || len(event.HostIDs) == 0 {
		return nil, appErrors.ErrConfigurationMissing
	}

	hosts, err := s.hosts.ListByIDs(ctx, event.HostIDs)
	if err != nil {
		return nil, fmt.Errorf("load event hosts: %w", err)
	}
	byID := make(map[string]*models.Host, len(hosts))
	for i := range hosts {
		byID[hosts[i].ID] = &hosts[i]
	}

	// Candidates keep the event's host order; position is the final
	// tie-break.
	candidates := make([]*models.Host, 0, len(event.HostIDs))
	for _, id := range event.HostIDs {
		host, ok := byID[id]
		if !ok || !host.Active {
			continue
		}
		if event.Constraints.RoundRobinStrategy == models.StrategyLeastBookedAvailable && !candidate.IsZero() {
			ok, _, err := s.slots.CheckSlot(ctx, host, event, candidate)
			if err != nil {
				return nil, fmt.Errorf("availability check for host %s: %w", host.ID, err)
			}
			if !ok {
				continue
			}
		}
		candidates = append(candidates, host)
	}
	if len(candidates) == 0 {
		return nil, appErrors.ErrNoHostAvailable
	}

	counts, err := s.periodCounts(ctx, event)
	if err != nil {
		return nil, err
	}
	countByHost := make(map[string]models.HostAssignmentCount, len(counts))
	for _, c := range counts {
		countByHost[c.HostID] = c
	}

	best := candidates[0]
	bestCount := countByHost[best.ID]
	for _, host := range candidates[1:] {
		current := countByHost[host.ID]
		if betterAssignment(current, bestCount) {
			best = host
			bestCount = current
		}
	}

	s.metrics.RecordAssignment(event.ID)
	return best, nil
}

// betterAssignment reports whether a should be preferred over b: fewer
// bookings first, then the older (or absent) most-recent assignment. Equal
// on both means b keeps its earlier position in the host order.
func betterAssignment(a, b models.HostAssignmentCount) bool {
	if a.Count != b.Count {
		return a.Count < b.Count
	}
	switch {
	case a.LastAssigned == nil && b.LastAssigned == nil:
		return false
	case a.LastAssigned == nil:
		return true
	case b.LastAssigned == nil:
		return false
	default:
		return a.LastAssigned.Before(*b.LastAssigned)
	}
}

// Stats returns the per-host booking counts for the event's current period,
// zero-filled in host order. The report is cached briefly; it feeds admin
// displays, not the assignment decision itself.
func (s *AssignmentService) Stats(ctx context.Context, event *models.Event) ([]models.HostAssignmentCount, error) {
	if event == nil || len(event.HostIDs) == 0 {
		return nil, appErrors.ErrConfigurationMissing
	}

	key := fmt.Sprintf("rrstats:%s:%s", event.ID, event.Constraints.RoundRobinPeriod)
	var cached []models.HostAssignmentCount
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	counts, err := s.periodCounts(ctx, event)
	if err != nil {
		return nil, err
	}
	countByHost := make(map[string]models.HostAssignmentCount, len(counts))
	for _, c := range counts {
		countByHost[c.HostID] = c
	}

	stats := make([]models.HostAssignmentCount, 0, len(event.HostIDs))
	for _, id := range event.HostIDs {
		c, ok := countByHost[id]
		if !ok {
			c = models.HostAssignmentCount{HostID: id}
		}
		stats = append(stats, c)
	}

	if err := s.cache.Set(ctx, key, stats, s.cfg.StatsCacheTTL); err != nil {
		s.logger.Warn("round-robin stats cache store failed", zap.String("event_id", event.ID), zap.Error(err))
	}
	return stats, nil
}

// InvalidateStats drops the cached report after a booking lands.
func (s *AssignmentService) InvalidateStats(ctx context.Context, eventID string) {
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("rrstats:%s:*", eventID)); err != nil {
		s.logger.Warn("round-robin stats invalidation failed", zap.String("event_id", eventID), zap.Error(err))
	}
}

func (s *AssignmentService) periodCounts(ctx context.Context, event *models.Event) ([]models.HostAssignmentCount, error) {
	from, to := s.periodWindow(event)
	counts, err := s.bookings.AssignmentCounts(ctx, event.ID, event.HostIDs, from, to)
	if err != nil {
		return nil, fmt.Errorf("assignment counts: %w", err)
	}
	return counts, nil
}

// periodWindow resolves the rolling balancing window in the event's display
// timezone.
func (s *AssignmentService) periodWindow(event *models.Event) (time.Time, time.Time) {
	loc := time.UTC
	if tz := event.Constraints.DisplayTimezone; tz != "" {
		if parsed, err := time.LoadLocation(tz); err == nil {
			loc = parsed
		}
	}
	now := s.now()
	switch event.Constraints.RoundRobinPeriod {
	case models.PeriodDay:
		day := startOfDay(now, loc)
		return day, day.AddDate(0, 0, 1)
	case models.PeriodWeek:
		return weekWindow(now, loc)
	default:
		return time.Time{}, now.AddDate(10, 0, 0)
	}
}
