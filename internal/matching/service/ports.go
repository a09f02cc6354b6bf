package service

import (
	"context"

	devmodel "github.com/Mwoyoungo/lokal-s-hub/internal/developer/model"
)

type AvailabilitySource interface {
	GetAvailableDevelopers(ctx context.Context, centerLat, centerLng *float64, radiusKm float64) ([]devmodel.DeveloperAvailability, error)
}

// Assigner enacts the pending -> assigned transition; the request lifecycle
// owns the state checks.
type Assigner interface {
	Assign(ctx context.Context, requestID, developerID string) error
}

type RequestLocator interface {
	GetLocation(ctx context.Context, requestID string) (lat, lng float64, err error)
}
