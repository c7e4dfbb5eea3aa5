package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/openbook-dev/openbook-api/internal/calendar"
	"github.com/openbook-dev/openbook-api/internal/interval"
	"github.com/openbook-dev/openbook-api/internal/models"
)

type busyBlockStore interface {
	ListInWindow(ctx context.Context, hostID string, from, to time.Time) ([]models.BusyBlock, error)
	LatestSyncedAt(ctx context.Context, hostID string) (time.Time, error)
	ReplaceWindow(ctx context.Context, hostID string, from, to time.Time, blocks []models.BusyBlock) error
}

type providerSelector interface {
	For(host *models.Host) calendar.Provider
}

// FreeBusyServiceConfig tunes snapshot freshness.
type FreeBusyServiceConfig struct {
	FreshnessTTL time.Duration
}

// FreeBusyService answers "when is this host busy" with layered sources:
// Redis, then a fresh database snapshot, then the live calendar provider.
// Provider failures degrade to the stale snapshot and finally to no busy
// time at all; slot listings must keep working when a calendar is down.
type FreeBusyService struct {
	blocks    busyBlockStore
	providers providerSelector
	cache     *CacheService
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
	cfg       FreeBusyServiceConfig
}

// FreeBusyServiceParams groups constructor dependencies.
type FreeBusyServiceParams struct {
	Blocks    busyBlockStore
	Providers providerSelector
	Cache     *CacheService
	Metrics   *MetricsService
	Logger    *zap.Logger
	Now       func() time.Time
	Config    FreeBusyServiceConfig
}

// NewFreeBusyService constructs a FreeBusyService with sane defaults.
func NewFreeBusyService(params FreeBusyServiceParams) *FreeBusyService {
	cfg := params.Config
	if cfg.FreshnessTTL <= 0 {
		cfg.FreshnessTTL = 10 * time.Minute
	}
	nowFn := params.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FreeBusyService{
		blocks:    params.Blocks,
		providers: params.Providers,
		cache:     params.Cache,
		metrics:   params.Metrics,
		logger:    logger,
		now:       nowFn,
		cfg:       cfg,
	}
}

type cachedBusyPayload struct {
	Busy []interval.Interval `json:"busy"`
}

// busyCacheBucket widens a query window to whole UTC days. Slot listings
// derive their fetch window from the current time, so the raw bounds shift on
// every request; day alignment keeps them landing on one shared cache entry.
func busyCacheBucket(window interval.Interval) interval.Interval {
	start := window.Start.UTC().Truncate(24 * time.Hour)
	end := window.End.UTC().Truncate(24 * time.Hour)
	if end.Before(window.End.UTC()) {
		end = end.AddDate(0, 0, 1)
	}
	return interval.Interval{Start: start, End: end}
}

func busyCacheKey(hostID string, bucket interval.Interval) string {
	return fmt.Sprintf("freebusy:%s:%s:%s", hostID,
		bucket.Start.Format("20060102"), bucket.End.Format("20060102"))
}

// BusyIntervals returns the host's merged busy intervals for the window.
func (s *FreeBusyService) BusyIntervals(ctx context.Context, host *models.Host, window interval.Interval) ([]interval.Interval, error) {
	if host == nil {
		return nil, fmt.Errorf("busy intervals: host is nil")
	}

	// Cache and fetch over the day bucket, answer clamped to the window.
	bucket := busyCacheBucket(window)
	key := busyCacheKey(host.ID, bucket)
	var payload cachedBusyPayload
	if hit, err := s.cache.Get(ctx, key, &payload); err == nil && hit {
		return clampAll(payload.Busy, window), nil
	}

	syncedAt, err := s.blocks.LatestSyncedAt(ctx, host.ID)
	if err != nil {
		s.logger.Warn("busy snapshot freshness check failed", zap.String("host_id", host.ID), zap.Error(err))
		syncedAt = time.Time{}
	}

	hasSnapshot := !syncedAt.IsZero()
	fresh := hasSnapshot && s.now().Sub(syncedAt) < s.cfg.FreshnessTTL
	if fresh {
		busy, err := s.snapshotIntervals(ctx, host.ID, bucket)
		if err == nil {
			s.storeCache(ctx, key, busy)
			return clampAll(busy, window), nil
		}
		s.logger.Warn("busy snapshot read failed", zap.String("host_id", host.ID), zap.Error(err))
	}

	busy, err := s.Refresh(ctx, host, bucket)
	if err == nil {
		return clampAll(busy, window), nil
	}
	s.logger.Warn("calendar fetch failed", zap.String("host_id", host.ID), zap.Error(err))

	if hasSnapshot {
		busy, snapErr := s.snapshotIntervals(ctx, host.ID, window)
		if snapErr == nil {
			s.logger.Warn("serving stale busy snapshot",
				zap.String("host_id", host.ID),
				zap.Time("synced_at", syncedAt))
			return busy, nil
		}
		s.logger.Warn("stale busy snapshot read failed", zap.String("host_id", host.ID), zap.Error(snapErr))
	}

	// Fail open: no busy data beats no bookings at all.
	s.logger.Warn("no busy data available, treating host as free", zap.String("host_id", host.ID))
	return nil, nil
}

// Refresh fetches busy intervals live from the host's provider, persists the
// snapshot and primes the cache. The window is widened to its day bucket so
// the primed entry serves subsequent listings over the same days.
func (s *FreeBusyService) Refresh(ctx context.Context, host *models.Host, window interval.Interval) ([]interval.Interval, error) {
	window = busyCacheBucket(window)
	provider := s.providers.For(host)
	if provider == nil {
		return nil, fmt.Errorf("no calendar provider configured for host %s", host.ID)
	}

	busy, err := provider.FreeBusy(ctx, host, window)
	if err != nil {
		s.metrics.RecordCalendarFetch(false)
		return nil, fmt.Errorf("provider fetch for host %s: %w", host.ID, err)
	}
	s.metrics.RecordCalendarFetch(true)

	blocks := make([]models.BusyBlock, 0, len(busy))
	for _, iv := range busy {
		blocks = append(blocks, models.BusyBlock{
			StartTime: iv.Start,
			EndTime:   iv.End,
		})
	}
	if err := s.blocks.ReplaceWindow(ctx, host.ID, window.Start, window.End, blocks); err != nil {
		// Snapshot persistence is an optimization; the fetched data is
		// still good for this request.
		s.logger.Warn("busy snapshot persist failed", zap.String("host_id", host.ID), zap.Error(err))
	}

	s.storeCache(ctx, busyCacheKey(host.ID, window), busy)
	return busy, nil
}

// InvalidateHost drops cached busy payloads for the host.
func (s *FreeBusyService) InvalidateHost(ctx context.Context, hostID string) error {
	return s.cache.Invalidate(ctx, fmt.Sprintf("freebusy:%s:*", hostID))
}

func (s *FreeBusyService) snapshotIntervals(ctx context.Context, hostID string, window interval.Interval) ([]interval.Interval, error) {
	blocks, err := s.blocks.ListInWindow(ctx, hostID, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	busy := make([]interval.Interval, 0, len(blocks))
	for _, b := range blocks {
		iv := interval.Clamp(interval.Interval{Start: b.StartTime, End: b.EndTime}, window)
		if !iv.IsZero() {
			busy = append(busy, iv)
		}
	}
	return interval.Merge(busy), nil
}

func clampAll(busy []interval.Interval, window interval.Interval) []interval.Interval {
	out := make([]interval.Interval, 0, len(busy))
	for _, b := range busy {
		iv := interval.Clamp(b, window)
		if !iv.IsZero() {
			out = append(out, iv)
		}
	}
	return out
}

func (s *FreeBusyService) storeCache(ctx context.Context, key string, busy []interval.Interval) {
	if err := s.cache.Set(ctx, key, cachedBusyPayload{Busy: busy}, s.cfg.FreshnessTTL); err != nil {
		s.logger.Warn("busy cache store failed", zap.String("key", key), zap.Error(err))
	}
}
