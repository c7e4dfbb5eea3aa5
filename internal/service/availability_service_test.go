package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbook-dev/openbook-api/internal/models"
	appErrors "github.com/openbook-dev/openbook-api/pkg/errors"
)

type fakePatternStore struct {
	patterns    []models.AvailabilityPattern
	deactivated string
}

func (f *fakePatternStore) ListByHost(context.Context, string) ([]models.AvailabilityPattern, error) {
	return f.patterns, nil
}

func (f *fakePatternStore) Create(_ context.Context, pattern *models.AvailabilityPattern) error {
	f.patterns = append(f.patterns, *pattern)
	return nil
}

func (f *fakePatternStore) Update(context.Context, *models.AvailabilityPattern) error {
	return nil
}

func (f *fakePatternStore) Deactivate(_ context.Context, id string) error {
	f.deactivated = id
	return nil
}

func TestAvailabilityServiceCreateActivatesPattern(t *testing.T) {
	store := &fakePatternStore{}
	svc := NewAvailabilityService(store, nil, nil)

	pattern := &models.AvailabilityPattern{HostID: "h1", DayOfWeek: 1, StartMinute: 540, EndMinute: 1020}
	require.NoError(t, svc.Create(context.Background(), pattern))
	assert.True(t, pattern.IsActive)
	assert.Len(t, store.patterns, 1)
}

func TestAvailabilityServiceRejectsInvalidWindows(t *testing.T) {
	svc := NewAvailabilityService(&fakePatternStore{}, nil, nil)

	cases := []models.AvailabilityPattern{
		{HostID: "h1", DayOfWeek: 7, StartMinute: 0, EndMinute: 60},
		{HostID: "h1", DayOfWeek: -1, StartMinute: 0, EndMinute: 60},
		{HostID: "h1", DayOfWeek: 1, StartMinute: 600, EndMinute: 600},
		{HostID: "h1", DayOfWeek: 1, StartMinute: 600, EndMinute: 540},
		{HostID: "h1", DayOfWeek: 1, StartMinute: -10, EndMinute: 60},
		{HostID: "h1", DayOfWeek: 1, StartMinute: 0, EndMinute: 1441},
		{HostID: "", DayOfWeek: 1, StartMinute: 0, EndMinute: 60},
	}
	for _, pattern := range cases {
		p := pattern
		err := svc.Create(context.Background(), &p)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestAvailabilityServiceUpdateRequiresID(t *testing.T) {
	svc := NewAvailabilityService(&fakePatternStore{}, nil, nil)

	err := svc.Update(context.Background(), &models.AvailabilityPattern{
		HostID: "h1", DayOfWeek: 1, StartMinute: 540, EndMinute: 1020,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAvailabilityServiceDeactivate(t *testing.T) {
	store := &fakePatternStore{}
	svc := NewAvailabilityService(store, nil, nil)

	require.NoError(t, svc.Deactivate(context.Background(), "h1", "p1"))
	assert.Equal(t, "p1", store.deactivated)
}
