package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/openbook-dev/openbook-api/internal/models"
)

// EventRepository persists events, their constraints and the ordered co-host
// list.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs an event repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

type eventRow struct {
	ID        string    `db:"id"`
	Slug      string    `db:"slug"`
	Title     string    `db:"title"`
	CreatedBy string    `db:"created_by"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
	models.EventConstraints
}

const eventColumns = `id, slug, title, created_by, active, created_at, updated_at,
duration_minutes, buffer_before_minutes, buffer_after_minutes, min_notice_hours, booking_window_days,
start_increment_minutes, max_daily_bookings, max_weekly_bookings, ignore_busy_blocks, display_timezone,
round_robin_period, round_robin_strategy`

// GetByID fetches one event with constraints and ordered host ids.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	query := fmt.Sprintf("SELECT %s FROM events WHERE id = $1", eventColumns)
	return r.getOne(ctx, query, id)
}

// GetBySlug fetches one event by its public slug.
func (r *EventRepository) GetBySlug(ctx context.Context, slug string) (*models.Event, error) {
	query := fmt.Sprintf("SELECT %s FROM events WHERE slug = $1 AND active = TRUE", eventColumns)
	return r.getOne(ctx, query, slug)
}

func (r *EventRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.Event, error) {
	var row eventRow
	if err := r.db.GetContext(ctx, &row, query, arg); err != nil {
		return nil, err
	}
	event := &models.Event{
		ID:          row.ID,
		Slug:        row.Slug,
		Title:       row.Title,
		CreatedBy:   row.CreatedBy,
		Active:      row.Active,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
		Constraints: row.EventConstraints,
	}
	hostIDs, err := r.listHostIDs(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	event.HostIDs = hostIDs
	return event, nil
}

func (r *EventRepository) listHostIDs(ctx context.Context, eventID string) ([]string, error) {
	const query = `SELECT host_id FROM event_hosts WHERE event_id = $1 ORDER BY position ASC`
	var hostIDs []string
	if err := r.db.SelectContext(ctx, &hostIDs, query, eventID); err != nil {
		return nil, fmt.Errorf("list event hosts: %w", err)
	}
	return hostIDs, nil
}

// SlugExists reports whether a slug is already taken.
func (r *EventRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM events WHERE slug = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, slug); err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return exists, nil
}

// Create inserts the event row and its host list in one transaction.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin event tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := eventRow{
		ID:               event.ID,
		Slug:             event.Slug,
		Title:            event.Title,
		CreatedBy:        event.CreatedBy,
		Active:           event.Active,
		CreatedAt:        event.CreatedAt,
		UpdatedAt:        event.UpdatedAt,
		EventConstraints: event.Constraints,
	}
	const insertEvent = `INSERT INTO events (id, slug, title, created_by, active, created_at, updated_at,
duration_minutes, buffer_before_minutes, buffer_after_minutes, min_notice_hours, booking_window_days,
start_increment_minutes, max_daily_bookings, max_weekly_bookings, ignore_busy_blocks, display_timezone,
round_robin_period, round_robin_strategy)
VALUES (:id, :slug, :title, :created_by, :active, :created_at, :updated_at,
:duration_minutes, :buffer_before_minutes, :buffer_after_minutes, :min_notice_hours, :booking_window_days,
:start_increment_minutes, :max_daily_bookings, :max_weekly_bookings, :ignore_busy_blocks, :display_timezone,
:round_robin_period, :round_robin_strategy)`
	if _, err := sqlx.NamedExecContext(ctx, tx, insertEvent, row); err != nil {
		return fmt.Errorf("create event: %w", err)
	}

	const insertHost = `INSERT INTO event_hosts (event_id, host_id, position) VALUES ($1, $2, $3)`
	for i, hostID := range event.HostIDs {
		if _, err := tx.ExecContext(ctx, insertHost, event.ID, hostID, i); err != nil {
			return fmt.Errorf("create event host: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit event: %w", err)
	}
	return nil
}
