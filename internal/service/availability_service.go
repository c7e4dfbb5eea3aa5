package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/openbook-dev/openbook-api/internal/models"
	appErrors "github.com/openbook-dev/openbook-api/pkg/errors"
)

type availabilityStore interface {
	ListByHost(ctx context.Context, hostID string) ([]models.AvailabilityPattern, error)
	Create(ctx context.Context, pattern *models.AvailabilityPattern) error
	Update(ctx context.Context, pattern *models.AvailabilityPattern) error
	Deactivate(ctx context.Context, id string) error
}

// AvailabilityService manages a host's recurring weekly open windows.
type AvailabilityService struct {
	patterns availabilityStore
	freeBusy *FreeBusyService
	logger   *zap.Logger
}

// NewAvailabilityService constructs an AvailabilityService.
func NewAvailabilityService(patterns availabilityStore, freeBusy *FreeBusyService, logger *zap.Logger) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{patterns: patterns, freeBusy: freeBusy, logger: logger}
}

// ListByHost returns all of the host's patterns, disabled ones included.
func (s *AvailabilityService) ListByHost(ctx context.Context, hostID string) ([]models.AvailabilityPattern, error) {
	return s.patterns.ListByHost(ctx, hostID)
}

// Create adds a pattern after validating its window.
func (s *AvailabilityService) Create(ctx context.Context, pattern *models.AvailabilityPattern) error {
	if err := validatePattern(pattern); err != nil {
		return err
	}
	pattern.IsActive = true
	if err := s.patterns.Create(ctx, pattern); err != nil {
		return fmt.Errorf("create pattern: %w", err)
	}
	s.invalidate(ctx, pattern.HostID)
	return nil
}

// Update modifies a pattern's window or active flag.
func (s *AvailabilityService) Update(ctx context.Context, pattern *models.AvailabilityPattern) error {
	if err := validatePattern(pattern); err != nil {
		return err
	}
	if pattern.ID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "pattern id is required")
	}
	if err := s.patterns.Update(ctx, pattern); err != nil {
		return fmt.Errorf("update pattern: %w", err)
	}
	s.invalidate(ctx, pattern.HostID)
	return nil
}

// Deactivate soft-disables a pattern; rows are never hard-deleted.
func (s *AvailabilityService) Deactivate(ctx context.Context, hostID, patternID string) error {
	if err := s.patterns.Deactivate(ctx, patternID); err != nil {
		return fmt.Errorf("deactivate pattern: %w", err)
	}
	s.invalidate(ctx, hostID)
	return nil
}

func (s *AvailabilityService) invalidate(ctx context.Context, hostID string) {
	if s.freeBusy == nil {
		return
	}
	if err := s.freeBusy.InvalidateHost(ctx, hostID); err != nil {
		s.logger.Warn("availability cache invalidation failed", zap.String("host_id", hostID), zap.Error(err))
	}
}

func validatePattern(pattern *models.AvailabilityPattern) error {
	if pattern == nil || pattern.HostID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "host id is required")
	}
	if pattern.DayOfWeek < 0 || pattern.DayOfWeek > 6 {
		return appErrors.Clone(appErrors.ErrValidation, "day_of_week must be 0-6")
	}
	if pattern.StartMinute < 0 || pattern.EndMinute > 24*60 || pattern.EndMinute <= pattern.StartMinute {
		return appErrors.Clone(appErrors.ErrValidation, "pattern window must satisfy 0 <= start < end <= 1440")
	}
	return nil
}
