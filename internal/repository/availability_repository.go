package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/openbook-dev/openbook-api/internal/models"
)

// AvailabilityRepository persists recurring availability patterns.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs an availability repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// ListActiveByHost returns the host's active patterns ordered by weekday and
// window start.
func (r *AvailabilityRepository) ListActiveByHost(ctx context.Context, hostID string) ([]models.AvailabilityPattern, error) {
	const query = `SELECT id, host_id, day_of_week, start_minute, end_minute, is_active, created_at, updated_at
FROM availability_patterns WHERE host_id = $1 AND is_active = TRUE ORDER BY day_of_week ASC, start_minute ASC`
	var patterns []models.AvailabilityPattern
	if err := r.db.SelectContext(ctx, &patterns, query, hostID); err != nil {
		return nil, fmt.Errorf("list availability patterns: %w", err)
	}
	return patterns, nil
}

// ListByHost returns all patterns for a host, disabled ones included.
func (r *AvailabilityRepository) ListByHost(ctx context.Context, hostID string) ([]models.AvailabilityPattern, error) {
	const query = `SELECT id, host_id, day_of_week, start_minute, end_minute, is_active, created_at, updated_at
FROM availability_patterns WHERE host_id = $1 ORDER BY day_of_week ASC, start_minute ASC`
	var patterns []models.AvailabilityPattern
	if err := r.db.SelectContext(ctx, &patterns, query, hostID); err != nil {
		return nil, fmt.Errorf("list availability patterns: %w", err)
	}
	return patterns, nil
}

// Create inserts a new pattern.
func (r *AvailabilityRepository) Create(ctx context.Context, pattern *models.AvailabilityPattern) error {
	if pattern.ID == "" {
		pattern.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if pattern.CreatedAt.IsZero() {
		pattern.CreatedAt = now
	}
	pattern.UpdatedAt = now
	const query = `INSERT INTO availability_patterns (id, host_id, day_of_week, start_minute, end_minute, is_active, created_at, updated_at)
VALUES (:id, :host_id, :day_of_week, :start_minute, :end_minute, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, pattern); err != nil {
		return fmt.Errorf("create availability pattern: %w", err)
	}
	return nil
}

// Update modifies a pattern's window and active flag.
func (r *AvailabilityRepository) Update(ctx context.Context, pattern *models.AvailabilityPattern) error {
	pattern.UpdatedAt = time.Now().UTC()
	const query = `UPDATE availability_patterns SET day_of_week = :day_of_week, start_minute = :start_minute,
end_minute = :end_minute, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, pattern); err != nil {
		return fmt.Errorf("update availability pattern: %w", err)
	}
	return nil
}

// Deactivate soft-disables a pattern. Patterns are never hard-deleted.
func (r *AvailabilityRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE availability_patterns SET is_active = FALSE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate availability pattern: %w", err)
	}
	return nil
}
