package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Mwoyoungo/lokal-s-hub/internal/common/apperr"
	"github.com/Mwoyoungo/lokal-s-hub/internal/common/bus"
	"github.com/Mwoyoungo/lokal-s-hub/internal/common/logger"
	"github.com/Mwoyoungo/lokal-s-hub/internal/common/mq"
	"github.com/Mwoyoungo/lokal-s-hub/internal/developer/model"
	"github.com/Mwoyoungo/lokal-s-hub/internal/developer/repository"
	"github.com/Mwoyoungo/lokal-s-hub/pkg/geo"
)

// AvailabilityRegistry is the source of truth for each developer's
// availability flag and last reported location.
type AvailabilityRegistry struct {
	store       AvailabilityStore
	publisher   AvailabilityPublisher
	events      *bus.Bus
	locationTTL time.Duration
	clock       Clock
}

func NewAvailabilityRegistry(store AvailabilityStore, publisher AvailabilityPublisher, events *bus.Bus, locationTTL time.Duration) *AvailabilityRegistry {
	return &AvailabilityRegistry{
		store:       store,
		publisher:   publisher,
		events:      events,
		locationTTL: locationTTL,
		clock:       realClock{},
	}
}

// SetAvailability flips the matching-eligibility flag. Idempotent: repeating
// the same value is a no-op at the store level and still emits the event.
func (r *AvailabilityRegistry) SetAvailability(ctx context.Context, developerID string, available bool) error {
	if developerID == "" {
		return &apperr.ValidationError{Field: "developer_id", Reason: "must not be empty"}
	}

	if err := withRetry(func() error {
		return r.store.SetAvailability(ctx, developerID, available)
	}); err != nil {
		logger.Error("set_availability_failed", "Failed to persist availability", "", developerID, err.Error())
		return &apperr.DependencyError{Dependency: "availability store", Err: err}
	}

	now := r.clock.Now()
	r.events.PublishAvailability(bus.AvailabilityChanged{
		DeveloperID: developerID,
		Available:   available,
		ChangedAt:   now,
	})

	if r.publisher != nil {
		msg := mq.AvailabilityChangedMessage{DeveloperID: developerID, Available: available, ChangedAt: now}
		if err := r.publisher.PublishAvailabilityChanged(ctx, msg); err != nil {
			// The flag is already committed; a lost notification only delays
			// UI refresh, so log and move on.
			logger.Warn("availability_publish_failed", "Failed to publish availability change", "", developerID, err.Error())
		}
	}

	logger.Info("availability_changed", fmt.Sprintf("Developer availability set to %v", available), "", developerID)
	return nil
}

// UpdateLocation overwrites the developer's position and freshness timestamp.
func (r *AvailabilityRegistry) UpdateLocation(ctx context.Context, developerID string, lat, lng float64) error {
	if developerID == "" {
		return &apperr.ValidationError{Field: "developer_id", Reason: "must not be empty"}
	}
	if !geo.ValidLatLng(lat, lng) {
		return &apperr.InvalidLocationError{Lat: lat, Lng: lng}
	}

	if err := withRetry(func() error {
		return r.store.UpdateLocation(ctx, developerID, lat, lng)
	}); err != nil {
		logger.Error("update_location_failed", "Failed to persist location", "", developerID, err.Error())
		return &apperr.DependencyError{Dependency: "availability store", Err: err}
	}

	now := r.clock.Now()
	r.events.PublishLocation(bus.LocationUpdated{DeveloperID: developerID, Lat: lat, Lng: lng, UpdatedAt: now})

	if r.publisher != nil {
		msg := mq.LocationUpdateMessage{
			DeveloperID: developerID,
			Location:    mq.LatLng{Lat: lat, Lng: lng},
			Timestamp:   now,
		}
		if err := r.publisher.PublishLocationUpdate(ctx, msg); err != nil {
			logger.Warn("location_publish_failed", "Failed to publish location update", "", developerID, err.Error())
		}
	}

	logger.Debug("location_updated", fmt.Sprintf("Location updated to (%f, %f)", lat, lng), "", developerID)
	return nil
}

func (r *AvailabilityRegistry) Get(ctx context.Context, developerID string) (*model.DeveloperAvailability, error) {
	return r.store.GetByID(ctx, developerID)
}

// GetAvailableDevelopers returns available developers with a fresh location,
// ordered by developer id. With a center the store prefilters by bounding box;
// exact great-circle filtering stays with the matcher.
func (r *AvailabilityRegistry) GetAvailableDevelopers(ctx context.Context, centerLat, centerLng *float64, radiusKm float64) ([]model.DeveloperAvailability, error) {
	filter := repository.ListFilter{
		CenterLat: centerLat,
		CenterLng: centerLng,
		RadiusKm:  radiusKm,
	}
	if r.locationTTL > 0 {
		cutoff := r.clock.Now().Add(-r.locationTTL)
		filter.FreshSince = &cutoff
	}

	var devs []model.DeveloperAvailability
	err := withRetry(func() error {
		var listErr error
		devs, listErr = r.store.ListAvailable(ctx, filter)
		return listErr
	})
	if err != nil {
		logger.Error("list_available_failed", "Failed to list available developers", "", "", err.Error())
		return nil, &apperr.DependencyError{Dependency: "availability store", Err: err}
	}

	return devs, nil
}

// withRetry runs op and retries exactly once on failure, without backoff.
func withRetry(op func() error) error {
	if err := op(); err != nil {
		return op()
	}
	return nil
}
