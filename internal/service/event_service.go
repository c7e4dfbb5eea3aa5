package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/openbook-dev/openbook-api/internal/models"
	appErrors "github.com/openbook-dev/openbook-api/pkg/errors"
)

type eventStore interface {
	GetByID(ctx context.Context, id string) (*models.Event, error)
	GetBySlug(ctx context.Context, slug string) (*models.Event, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, event *models.Event) error
}

// EventService reads and creates bookable events. Slugs are derived from the
// title; collisions get a numeric suffix.
type EventService struct {
	events    eventStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEventService constructs an EventService.
func NewEventService(events eventStore, validate *validator.Validate, logger *zap.Logger) *EventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{events: events, validator: validate, logger: logger}
}

// GetByID fetches one event.
func (s *EventService) GetByID(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConfigurationMissing, "event not found")
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// GetBySlug fetches one active event by its public slug.
func (s *EventService) GetBySlug(ctx context.Context, eventSlug string) (*models.Event, error) {
	event, err := s.events.GetBySlug(ctx, eventSlug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConfigurationMissing, "event not found")
		}
		return nil, fmt.Errorf("get event by slug: %w", err)
	}
	return event, nil
}

// Create persists a new event, deriving a unique slug from the title.
func (s *EventService) Create(ctx context.Context, event *models.Event) (*models.Event, error) {
	if event.Title == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "event title is required")
	}
	if len(event.HostIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "event needs at least one host")
	}
	if err := s.validateConstraints(event.Constraints); err != nil {
		return nil, err
	}
	if event.Constraints.RoundRobinPeriod == "" {
		event.Constraints.RoundRobinPeriod = models.PeriodWeek
	}
	if event.Constraints.RoundRobinStrategy == "" {
		event.Constraints.RoundRobinStrategy = models.StrategyLeastBooked
	}

	uniqueSlug, err := s.uniqueSlug(ctx, event.Title)
	if err != nil {
		return nil, err
	}
	event.Slug = uniqueSlug
	event.Active = true

	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.logger.Info("event created",
		zap.String("event_id", event.ID),
		zap.String("slug", event.Slug),
		zap.Int("hosts", len(event.HostIDs)))
	return event, nil
}

func (s *EventService) validateConstraints(c models.EventConstraints) error {
	if c.DurationMinutes <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "event duration must be positive")
	}
	if c.BufferBeforeMinutes < 0 || c.BufferAfterMinutes < 0 {
		return appErrors.Clone(appErrors.ErrValidation, "buffers must not be negative")
	}
	if c.MinNoticeHours < 0 || c.BookingWindowDays < 0 {
		return appErrors.Clone(appErrors.ErrValidation, "notice and booking window must not be negative")
	}
	if c.StartIncrementMinutes < 0 {
		return appErrors.Clone(appErrors.ErrValidation, "start increment must not be negative")
	}
	if (c.MaxDailyBookings != nil && *c.MaxDailyBookings < 1) || (c.MaxWeeklyBookings != nil && *c.MaxWeeklyBookings < 1) {
		return appErrors.Clone(appErrors.ErrValidation, "booking caps must be positive when set")
	}
	if err := s.validator.Var(c.DisplayTimezone, "omitempty,timezone"); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "display_timezone must be a valid IANA timezone")
	}
	return nil
}

func (s *EventService) uniqueSlug(ctx context.Context, title string) (string, error) {
	base := slug.Make(title)
	if base == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "event title yields an empty slug")
	}
	candidate := base
	for i := 2; ; i++ {
		exists, err := s.events.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
		if i > 50 {
			return "", fmt.Errorf("could not derive a unique slug for %q", title)
		}
	}
}
