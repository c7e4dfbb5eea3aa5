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

func TestAvailabilityRepositoryListActiveByHost(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAvailabilityRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "host_id", "day_of_week", "start_minute", "end_minute", "is_active", "created_at", "updated_at"}).
		AddRow("p1", "h1", 1, 540, 1020, true, now, now).
		AddRow("p2", "h1", 3, 600, 960, true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM availability_patterns WHERE host_id = $1 AND is_active = TRUE")).
		WithArgs("h1").
		WillReturnRows(rows)

	patterns, err := repo.ListActiveByHost(context.Background(), "h1")
	require.NoError(t, err)
	require.Len(t, patterns, 2)
	require.Equal(t, 540, patterns[0].StartMinute)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAvailabilityRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO availability_patterns")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	pattern := &models.AvailabilityPattern{HostID: "h1", DayOfWeek: 1, StartMinute: 540, EndMinute: 1020, IsActive: true}
	require.NoError(t, repo.Create(context.Background(), pattern))
	require.NotEmpty(t, pattern.ID)
	require.False(t, pattern.UpdatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryDeactivate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAvailabilityRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE availability_patterns SET is_active = FALSE")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Deactivate(context.Background(), "p1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
