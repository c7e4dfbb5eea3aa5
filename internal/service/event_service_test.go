package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbook-dev/openbook-api/internal/models"
	appErrors "github.com/openbook-dev/openbook-api/pkg/errors"
)

type fakeEventStore struct {
	events   map[string]*models.Event
	existing map[string]bool
	created  *models.Event
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{events: map[string]*models.Event{}, existing: map[string]bool{}}
}

func (f *fakeEventStore) GetByID(_ context.Context, id string) (*models.Event, error) {
	if event, ok := f.events[id]; ok {
		return event, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeEventStore) GetBySlug(_ context.Context, eventSlug string) (*models.Event, error) {
	for _, event := range f.events {
		if event.Slug == eventSlug {
			return event, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeEventStore) SlugExists(_ context.Context, eventSlug string) (bool, error) {
	return f.existing[eventSlug], nil
}

func (f *fakeEventStore) Create(_ context.Context, event *models.Event) error {
	event.ID = "e-new"
	f.created = event
	return nil
}

func validEvent() *models.Event {
	return &models.Event{
		Title:   "Intro Call",
		HostIDs: []string{"h1"},
		Constraints: models.EventConstraints{
			DurationMinutes: 30,
			DisplayTimezone: "Europe/Berlin",
		},
	}
}

func TestEventServiceCreateDerivesSlug(t *testing.T) {
	store := newFakeEventStore()
	svc := NewEventService(store, nil, nil)

	created, err := svc.Create(context.Background(), validEvent())
	require.NoError(t, err)
	assert.Equal(t, "intro-call", created.Slug)
	assert.True(t, created.Active)
	assert.Equal(t, models.PeriodWeek, created.Constraints.RoundRobinPeriod)
	assert.Equal(t, models.StrategyLeastBooked, created.Constraints.RoundRobinStrategy)
}

func TestEventServiceCreateSuffixesSlugCollision(t *testing.T) {
	store := newFakeEventStore()
	store.existing["intro-call"] = true
	store.existing["intro-call-2"] = true
	svc := NewEventService(store, nil, nil)

	created, err := svc.Create(context.Background(), validEvent())
	require.NoError(t, err)
	assert.Equal(t, "intro-call-3", created.Slug)
}

func TestEventServiceCreateRejectsBadInput(t *testing.T) {
	svc := NewEventService(newFakeEventStore(), nil, nil)

	noTitle := validEvent()
	noTitle.Title = ""
	_, err := svc.Create(context.Background(), noTitle)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	noHosts := validEvent()
	noHosts.HostIDs = nil
	_, err = svc.Create(context.Background(), noHosts)
	require.Error(t, err)

	noDuration := validEvent()
	noDuration.Constraints.DurationMinutes = 0
	_, err = svc.Create(context.Background(), noDuration)
	require.Error(t, err)

	badTZ := validEvent()
	badTZ.Constraints.DisplayTimezone = "Mars/Olympus"
	_, err = svc.Create(context.Background(), badTZ)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEventServiceGetBySlugNotFound(t *testing.T) {
	svc := NewEventService(newFakeEventStore(), nil, nil)

	_, err := svc.GetBySlug(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConfigurationMissing.Code, appErrors.FromError(err).Code)
}
