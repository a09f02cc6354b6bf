package service

import (
	"context"
	"time"

	"github.com/Mwoyoungo/lokal-s-hub/internal/common/mq"
	"github.com/Mwoyoungo/lokal-s-hub/internal/developer/model"
	"github.com/Mwoyoungo/lokal-s-hub/internal/developer/repository"
)

type AvailabilityStore interface {
	SetAvailability(ctx context.Context, developerID string, available bool) error
	UpdateLocation(ctx context.Context, developerID string, lat, lng float64) error
	GetByID(ctx context.Context, developerID string) (*model.DeveloperAvailability, error)
	ListAvailable(ctx context.Context, filter repository.ListFilter) ([]model.DeveloperAvailability, error)
}

type AvailabilityPublisher interface {
	PublishAvailabilityChanged(ctx context.Context, msg mq.AvailabilityChangedMessage) error
	PublishLocationUpdate(ctx context.Context, msg mq.LocationUpdateMessage) error
}

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }
