package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/openbook-dev/openbook-api/internal/interval"
	"github.com/openbook-dev/openbook-api/internal/models"
	"github.com/openbook-dev/openbook-api/pkg/jobs"
)

type syncHostLister interface {
	ListSyncable(ctx context.Context) ([]models.Host, error)
}

// SyncServiceConfig tunes the background calendar sync.
type SyncServiceConfig struct {
	Schedule   string
	Workers    int
	WindowDays int
	Enabled    bool
}

// SyncService keeps busy snapshots warm: on a cron schedule it enqueues one
// refresh job per syncable host, worked off by a small in-process pool. Slot
// requests then mostly hit a fresh snapshot instead of the provider.
type SyncService struct {
	hosts    syncHostLister
	freeBusy *FreeBusyService
	queue    *jobs.Queue
	cron     *cron.Cron
	logger   *zap.Logger
	now      func() time.Time
	cfg      SyncServiceConfig
}

// SyncServiceParams groups constructor dependencies.
type SyncServiceParams struct {
	Hosts    syncHostLister
	FreeBusy *FreeBusyService
	Logger   *zap.Logger
	Now      func() time.Time
	Config   SyncServiceConfig
}

// NewSyncService constructs a SyncService with sane defaults.
func NewSyncService(params SyncServiceParams) *SyncService {
	cfg := params.Config
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 5m"
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = 30
	}
	nowFn := params.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &SyncService{
		hosts:    params.Hosts,
		freeBusy: params.FreeBusy,
		logger:   logger,
		now:      nowFn,
		cfg:      cfg,
	}
	s.queue = jobs.NewQueue("calendar-sync", s.handleJob, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: 2,
		RetryDelay: 30 * time.Second,
		Logger:     logger,
	})
	return s
}

// Start launches the worker pool and the cron trigger, then runs one initial
// sweep so snapshots are warm right after boot.
func (s *SyncService) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.logger.Info("calendar sync disabled")
		return nil
	}

	s.queue.Start(ctx)

	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.cfg.Schedule, func() { s.enqueueAll(ctx) }); err != nil {
		return fmt.Errorf("schedule calendar sync: %w", err)
	}
	s.cron.Start()

	go s.enqueueAll(ctx)
	s.logger.Info("calendar sync started",
		zap.String("schedule", s.cfg.Schedule),
		zap.Int("workers", s.cfg.Workers))
	return nil
}

// Stop halts the cron trigger and drains the worker pool.
func (s *SyncService) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	s.queue.Stop()
}

// RefreshHost synchronously refreshes one host's snapshot, for the manual
// refresh endpoint.
func (s *SyncService) RefreshHost(ctx context.Context, host *models.Host) error {
	if err := s.freeBusy.InvalidateHost(ctx, host.ID); err != nil {
		s.logger.Warn("cache invalidation before refresh failed", zap.String("host_id", host.ID), zap.Error(err))
	}
	if _, err := s.freeBusy.Refresh(ctx, host, s.syncWindow()); err != nil {
		return err
	}
	return nil
}

func (s *SyncService) enqueueAll(ctx context.Context) {
	hosts, err := s.hosts.ListSyncable(ctx)
	if err != nil {
		s.logger.Warn("listing syncable hosts failed", zap.Error(err))
		return
	}
	for i := range hosts {
		host := hosts[i]
		if err := s.queue.Enqueue(jobs.Job{ID: host.ID, Type: "refresh", Payload: host}); err != nil {
			s.logger.Warn("enqueue sync job failed", zap.String("host_id", host.ID), zap.Error(err))
		}
	}
	s.logger.Debug("calendar sync sweep enqueued", zap.Int("hosts", len(hosts)))
}

func (s *SyncService) handleJob(ctx context.Context, job jobs.Job) error {
	host, ok := job.Payload.(models.Host)
	if !ok {
		return fmt.Errorf("unexpected sync payload %T", job.Payload)
	}
	if _, err := s.freeBusy.Refresh(ctx, &host, s.syncWindow()); err != nil {
		return fmt.Errorf("refresh host %s: %w", host.ID, err)
	}
	return nil
}

func (s *SyncService) syncWindow() interval.Interval {
	now := s.now().UTC()
	return interval.Interval{Start: now, End: now.AddDate(0, 0, s.cfg.WindowDays)}
}
