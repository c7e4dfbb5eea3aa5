package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/openbook-dev/openbook-api/internal/models"
)

// BusyBlockRepository persists the synced busy-block snapshot per host.
type BusyBlockRepository struct {
	db *sqlx.DB
}

// NewBusyBlockRepository constructs a busy block repository.
func NewBusyBlockRepository(db *sqlx.DB) *BusyBlockRepository {
	return &BusyBlockRepository{db: db}
}

// ListInWindow returns synced busy blocks overlapping [from, to), ordered by
// start.
func (r *BusyBlockRepository) ListInWindow(ctx context.Context, hostID string, from, to time.Time) ([]models.BusyBlock, error) {
	const query = `SELECT id, host_id, start_time, end_time, source, synced_at
FROM busy_blocks WHERE host_id = $1 AND source = $2 AND end_time > $3 AND start_time < $4 ORDER BY start_time ASC`
	var blocks []models.BusyBlock
	if err := r.db.SelectContext(ctx, &blocks, query, hostID, models.BusySourceSync, from, to); err != nil {
		return nil, fmt.Errorf("list busy blocks: %w", err)
	}
	return blocks, nil
}

// LatestSyncedAt returns the most recent snapshot timestamp for the host's
// window, or the zero time when no snapshot exists.
func (r *BusyBlockRepository) LatestSyncedAt(ctx context.Context, hostID string) (time.Time, error) {
	const query = `SELECT synced_at FROM busy_blocks WHERE host_id = $1 AND source = $2 ORDER BY synced_at DESC LIMIT 1`
	var syncedAt time.Time
	if err := r.db.GetContext(ctx, &syncedAt, query, hostID, models.BusySourceSync); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("latest busy sync: %w", err)
	}
	return syncedAt, nil
}

// ReplaceWindow swaps the synced snapshot for [from, to) in one transaction:
// prior SYNC rows inside the window are dropped and the fresh blocks
// inserted with a shared synced_at. Two concurrent refreshes may interleave;
// the last committed write wins, which the staleness tolerance makes
// harmless.
func (r *BusyBlockRepository) ReplaceWindow(ctx context.Context, hostID string, from, to time.Time, blocks []models.BusyBlock) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin busy snapshot tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const deleteQuery = `DELETE FROM busy_blocks WHERE host_id = $1 AND source = $2 AND end_time > $3 AND start_time < $4`
	if _, err := tx.ExecContext(ctx, deleteQuery, hostID, models.BusySourceSync, from, to); err != nil {
		return fmt.Errorf("clear busy snapshot window: %w", err)
	}

	syncedAt := time.Now().UTC()
	const insertQuery = `INSERT INTO busy_blocks (id, host_id, start_time, end_time, source, synced_at)
VALUES (:id, :host_id, :start_time, :end_time, :source, :synced_at)`
	for i := range blocks {
		block := &blocks[i]
		if block.ID == "" {
			block.ID = uuid.NewString()
		}
		block.HostID = hostID
		block.Source = models.BusySourceSync
		block.SyncedAt = syncedAt
		if _, err := sqlx.NamedExecContext(ctx, tx, insertQuery, block); err != nil {
			return fmt.Errorf("insert busy block: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit busy snapshot: %w", err)
	}
	return nil
}
