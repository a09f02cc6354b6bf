package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Mwoyoungo/lokal-s-hub/internal/common/apperr"
	"github.com/Mwoyoungo/lokal-s-hub/internal/common/bus"
	"github.com/Mwoyoungo/lokal-s-hub/internal/common/mq"
	"github.com/Mwoyoungo/lokal-s-hub/internal/developer/model"
	"github.com/Mwoyoungo/lokal-s-hub/internal/developer/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memAvailabilityStore struct {
	devs map[string]*model.DeveloperAvailability

	failNext int
	failErr  error

	lastFilter repository.ListFilter
}

func newMemAvailabilityStore() *memAvailabilityStore {
	return &memAvailabilityStore{devs: map[string]*model.DeveloperAvailability{}}
}

func (s *memAvailabilityStore) fail() error {
	if s.failNext > 0 {
		s.failNext--
		return s.failErr
	}
	return nil
}

func (s *memAvailabilityStore) get(developerID string) *model.DeveloperAvailability {
	d, ok := s.devs[developerID]
	if !ok {
		d = &model.DeveloperAvailability{DeveloperID: developerID}
		s.devs[developerID] = d
	}
	return d
}

func (s *memAvailabilityStore) SetAvailability(_ context.Context, developerID string, available bool) error {
	if err := s.fail(); err != nil {
		return err
	}
	s.get(developerID).Available = available
	return nil
}

func (s *memAvailabilityStore) UpdateLocation(_ context.Context, developerID string, lat, lng float64) error {
	if err := s.fail(); err != nil {
		return err
	}
	d := s.get(developerID)
	now := time.Now()
	d.Latitude, d.Longitude, d.LocationAt = &lat, &lng, &now
	return nil
}

func (s *memAvailabilityStore) GetByID(_ context.Context, developerID string) (*model.DeveloperAvailability, error) {
	d, ok := s.devs[developerID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return d, nil
}

func (s *memAvailabilityStore) ListAvailable(_ context.Context, filter repository.ListFilter) ([]model.DeveloperAvailability, error) {
	if err := s.fail(); err != nil {
		return nil, err
	}
	s.lastFilter = filter
	var out []model.DeveloperAvailability
	for _, d := range s.devs {
		if !d.Available || !d.HasLocation() {
			continue
		}
		if filter.FreshSince != nil && d.LocationAt.Before(*filter.FreshSince) {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

type capturePublisher struct {
	availability []mq.AvailabilityChangedMessage
	locations    []mq.LocationUpdateMessage
	err          error
}

func (p *capturePublisher) PublishAvailabilityChanged(_ context.Context, msg mq.AvailabilityChangedMessage) error {
	if p.err != nil {
		return p.err
	}
	p.availability = append(p.availability, msg)
	return nil
}

func (p *capturePublisher) PublishLocationUpdate(_ context.Context, msg mq.LocationUpdateMessage) error {
	if p.err != nil {
		return p.err
	}
	p.locations = append(p.locations, msg)
	return nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newTestRegistry(store *memAvailabilityStore, publisher *capturePublisher, ttl time.Duration) *AvailabilityRegistry {
	r := NewAvailabilityRegistry(store, publisher, bus.New(), ttl)
	return r
}

func TestSetAvailability(t *testing.T) {
	store := newMemAvailabilityStore()
	publisher := &capturePublisher{}
	registry := newTestRegistry(store, publisher, 15*time.Minute)

	var received []bus.AvailabilityChanged
	registry.events.SubscribeAvailability(func(ev bus.AvailabilityChanged) {
		received = append(received, ev)
	})

	require.NoError(t, registry.SetAvailability(context.Background(), "dev-1", true))

	dev, err := store.GetByID(context.Background(), "dev-1")
	require.NoError(t, err)
	assert.True(t, dev.Available)

	require.Len(t, publisher.availability, 1)
	assert.Equal(t, "dev-1", publisher.availability[0].DeveloperID)
	assert.True(t, publisher.availability[0].Available)

	require.Len(t, received, 1)
	assert.Equal(t, "dev-1", received[0].DeveloperID)
}

func TestSetAvailability_Idempotent(t *testing.T) {
	store := newMemAvailabilityStore()
	registry := newTestRegistry(store, &capturePublisher{}, 0)

	require.NoError(t, registry.SetAvailability(context.Background(), "dev-1", true))
	require.NoError(t, registry.SetAvailability(context.Background(), "dev-1", true))

	dev, err := store.GetByID(context.Background(), "dev-1")
	require.NoError(t, err)
	assert.True(t, dev.Available)
}

func TestSetAvailability_EmptyID(t *testing.T) {
	registry := newTestRegistry(newMemAvailabilityStore(), &capturePublisher{}, 0)

	err := registry.SetAvailability(context.Background(), "", true)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSetAvailability_PublishFailureIsNotFatal(t *testing.T) {
	store := newMemAvailabilityStore()
	publisher := &capturePublisher{err: errors.New("broker down")}
	registry := newTestRegistry(store, publisher, 0)

	require.NoError(t, registry.SetAvailability(context.Background(), "dev-1", false))

	dev, err := store.GetByID(context.Background(), "dev-1")
	require.NoError(t, err)
	assert.False(t, dev.Available)
}

func TestUpdateLocation(t *testing.T) {
	store := newMemAvailabilityStore()
	publisher := &capturePublisher{}
	registry := newTestRegistry(store, publisher, 15*time.Minute)

	require.NoError(t, registry.UpdateLocation(context.Background(), "dev-1", 40.5, -74.2))

	dev, err := store.GetByID(context.Background(), "dev-1")
	require.NoError(t, err)
	require.True(t, dev.HasLocation())
	assert.Equal(t, 40.5, *dev.Latitude)
	assert.Equal(t, -74.2, *dev.Longitude)

	require.Len(t, publisher.locations, 1)
	assert.Equal(t, 40.5, publisher.locations[0].Location.Lat)
}

func TestUpdateLocation_Invalid(t *testing.T) {
	registry := newTestRegistry(newMemAvailabilityStore(), &capturePublisher{}, 0)

	cases := []struct {
		name     string
		lat, lng float64
	}{
		{"lat too high", 90.0001, 0},
		{"lat too low", -91, 0},
		{"lng too high", 0, 180.5},
		{"lng too low", 0, -181},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := registry.UpdateLocation(context.Background(), "dev-1", tc.lat, tc.lng)
			assert.ErrorIs(t, err, apperr.ErrInvalidLocation)
		})
	}
}

func TestUpdateLocation_BoundaryValuesAccepted(t *testing.T) {
	registry := newTestRegistry(newMemAvailabilityStore(), &capturePublisher{}, 0)

	assert.NoError(t, registry.UpdateLocation(context.Background(), "dev-1", 90, 180))
	assert.NoError(t, registry.UpdateLocation(context.Background(), "dev-1", -90, -180))
}

func TestGetAvailableDevelopers_StalenessCutoff(t *testing.T) {
	store := newMemAvailabilityStore()
	registry := newTestRegistry(store, &capturePublisher{}, 15*time.Minute)

	now := time.Now()
	registry.clock = fixedClock{t: now}

	fresh := now.Add(-5 * time.Minute)
	stale := now.Add(-30 * time.Minute)
	lat, lng := 40.0, -74.0
	store.devs["dev-fresh"] = &model.DeveloperAvailability{
		DeveloperID: "dev-fresh", Available: true,
		Latitude: &lat, Longitude: &lng, LocationAt: &fresh,
	}
	store.devs["dev-stale"] = &model.DeveloperAvailability{
		DeveloperID: "dev-stale", Available: true,
		Latitude: &lat, Longitude: &lng, LocationAt: &stale,
	}
	store.devs["dev-off"] = &model.DeveloperAvailability{
		DeveloperID: "dev-off", Available: false,
		Latitude: &lat, Longitude: &lng, LocationAt: &fresh,
	}

	devs, err := registry.GetAvailableDevelopers(context.Background(), &lat, &lng, 50)
	require.NoError(t, err)
	require.Len(t, devs, 1)
	assert.Equal(t, "dev-fresh", devs[0].DeveloperID)

	require.NotNil(t, store.lastFilter.FreshSince)
	assert.Equal(t, now.Add(-15*time.Minute), *store.lastFilter.FreshSince)
}

func TestGetAvailableDevelopers_NoTTLMeansNoCutoff(t *testing.T) {
	store := newMemAvailabilityStore()
	registry := newTestRegistry(store, &capturePublisher{}, 0)

	_, err := registry.GetAvailableDevelopers(context.Background(), nil, nil, 50)
	require.NoError(t, err)
	assert.Nil(t, store.lastFilter.FreshSince)
}

func TestTransientStoreFailureRetried(t *testing.T) {
	store := newMemAvailabilityStore()
	store.failNext = 1
	store.failErr = errors.New("connection reset")
	registry := newTestRegistry(store, &capturePublisher{}, 0)

	require.NoError(t, registry.SetAvailability(context.Background(), "dev-1", true))
}

func TestPersistentStoreFailure(t *testing.T) {
	store := newMemAvailabilityStore()
	store.failNext = 2
	store.failErr = errors.New("connection refused")
	registry := newTestRegistry(store, &capturePublisher{}, 0)

	err := registry.UpdateLocation(context.Background(), "dev-1", 40, -74)
	assert.ErrorIs(t, err, apperr.ErrDependency)
}
