package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/openbook-dev/openbook-api/internal/models"
)

// HostRepository reads host rows.
type HostRepository struct {
	db *sqlx.DB
}

// NewHostRepository constructs a host repository.
func NewHostRepository(db *sqlx.DB) *HostRepository {
	return &HostRepository{db: db}
}

// GetByID fetches one host.
func (r *HostRepository) GetByID(ctx context.Context, id string) (*models.Host, error) {
	const query = `SELECT id, email, full_name, timezone, calendar_feed_url, active, created_at, updated_at
FROM hosts WHERE id = $1`
	var host models.Host
	if err := r.db.GetContext(ctx, &host, query, id); err != nil {
		return nil, err
	}
	return &host, nil
}

// ListByIDs fetches hosts preserving no particular order.
func (r *HostRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Host, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `SELECT id, email, full_name, timezone, calendar_feed_url, active, created_at, updated_at
FROM hosts WHERE id = ANY($1)`
	var hosts []models.Host
	if err := r.db.SelectContext(ctx, &hosts, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list hosts: %w", err)
	}
	return hosts, nil
}

// ListSyncable returns active hosts with a calendar feed configured; the
// background sync warms their busy snapshots.
func (r *HostRepository) ListSyncable(ctx context.Context) ([]models.Host, error) {
	const query = `SELECT id, email, full_name, timezone, calendar_feed_url, active, created_at, updated_at
FROM hosts WHERE active = TRUE AND calendar_feed_url IS NOT NULL`
	var hosts []models.Host
	if err := r.db.SelectContext(ctx, &hosts, query); err != nil {
		return nil, fmt.Errorf("list syncable hosts: %w", err)
	}
	return hosts, nil
}
