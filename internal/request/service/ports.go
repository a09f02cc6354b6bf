package service

import (
	"context"

	"github.com/Mwoyoungo/lokal-s-hub/internal/common/mq"
	common "github.com/Mwoyoungo/lokal-s-hub/internal/common/model"
	"github.com/Mwoyoungo/lokal-s-hub/internal/request/model"
)

type RequestStore interface {
	Insert(ctx context.Context, req model.ServiceRequest) (*model.ServiceRequest, error)
	GetByID(ctx context.Context, id string) (*model.ServiceRequest, error)
	CompareAndSetStatus(ctx context.Context, id string, observed, next common.RequestStatus, developerID *string) error
	InsertEvent(ctx context.Context, event model.RequestEvent) error
	ListPending(ctx context.Context) ([]model.ServiceRequest, error)
	GetByClient(ctx context.Context, clientID string) ([]model.ServiceRequest, error)
	GetByDeveloper(ctx context.Context, developerID string) ([]model.ServiceRequest, error)
}

type AssignmentPublisher interface {
	PublishRequestAssigned(ctx context.Context, msg mq.RequestAssignedMessage) error
	PublishStatusUpdate(ctx context.Context, msg mq.RequestStatusMessage) error
}

type RealtimePusher interface {
	SendToClient(id string, message []byte) bool
}
