package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/openbook-dev/openbook-api/internal/models"
)

func TestBusyBlockRepositoryListInWindow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewBusyBlockRepository(db)
	from := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)
	rows := sqlmock.NewRows([]string{"id", "host_id", "start_time", "end_time", "source", "synced_at"}).
		AddRow("bb-1", "h1", from.Add(12*time.Hour), from.Add(13*time.Hour), string(models.BusySourceSync), from)
	mock.ExpectQuery(regexp.QuoteMeta("FROM busy_blocks WHERE host_id = $1 AND source = $2")).
		WillReturnRows(rows)

	blocks, err := repo.ListInWindow(context.Background(), "h1", from, to)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	require.Equal(t, "bb-1", blocks[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBusyBlockRepositoryLatestSyncedAtEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewBusyBlockRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT synced_at FROM busy_blocks")).
		WillReturnRows(sqlmock.NewRows([]string{"synced_at"}))

	syncedAt, err := repo.LatestSyncedAt(context.Background(), "h1")
	require.NoError(t, err)
	require.True(t, syncedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBusyBlockRepositoryReplaceWindow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewBusyBlockRepository(db)
	from := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 30)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM busy_blocks WHERE host_id = $1")).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO busy_blocks")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO busy_blocks")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	blocks := []models.BusyBlock{
		{StartTime: from.Add(9 * time.Hour), EndTime: from.Add(10 * time.Hour)},
		{StartTime: from.Add(14 * time.Hour), EndTime: from.Add(15 * time.Hour)},
	}
	require.NoError(t, repo.ReplaceWindow(context.Background(), "h1", from, to, blocks))
	require.Equal(t, "h1", blocks[0].HostID)
	require.Equal(t, models.BusySourceSync, blocks[0].Source)
	require.False(t, blocks[0].SyncedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBusyBlockRepositoryReplaceWindowRollsBackOnInsertFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewBusyBlockRepository(db)
	from := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 30)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM busy_blocks WHERE host_id = $1")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO busy_blocks")).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	blocks := []models.BusyBlock{{StartTime: from.Add(9 * time.Hour), EndTime: from.Add(10 * time.Hour)}}
	require.Error(t, repo.ReplaceWindow(context.Background(), "h1", from, to, blocks))
	require.NoError(t, mock.ExpectationsWereMet())
}
