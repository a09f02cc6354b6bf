package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Mwoyoungo/lokal-s-hub/internal/common/apperr"
	"github.com/Mwoyoungo/lokal-s-hub/internal/common/bus"
	"github.com/Mwoyoungo/lokal-s-hub/internal/common/logger"
	"github.com/Mwoyoungo/lokal-s-hub/internal/common/mq"
	common "github.com/Mwoyoungo/lokal-s-hub/internal/common/model"
	"github.com/Mwoyoungo/lokal-s-hub/internal/request/model"
	"github.com/Mwoyoungo/lokal-s-hub/pkg/geo"

	"github.com/google/uuid"
)

// legalTransitions is the request state graph. Terminal statuses have no
// outbound edges.
var legalTransitions = map[common.RequestStatus][]common.RequestStatus{
	common.StatusPending:    {common.StatusAssigned, common.StatusCancelled},
	common.StatusAssigned:   {common.StatusAccepted, common.StatusRejected, common.StatusCancelled},
	common.StatusAccepted:   {common.StatusInProgress},
	common.StatusInProgress: {common.StatusCompleted},
}

func canTransition(from, to common.RequestStatus) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// RequestLifecycle owns the service-request state machine and gates every
// transition by actor.
type RequestLifecycle struct {
	store     RequestStore
	publisher AssignmentPublisher
	wsHub     RealtimePusher
	events    *bus.Bus
}

func NewRequestLifecycle(store RequestStore, publisher AssignmentPublisher, wsHub RealtimePusher, events *bus.Bus) *RequestLifecycle {
	return &RequestLifecycle{
		store:     store,
		publisher: publisher,
		wsHub:     wsHub,
		events:    events,
	}
}

type CreateRequestInput struct {
	ClientID    string
	ServiceType string
	Description string
	Budget      float64
	Latitude    float64
	Longitude   float64
	Address     *string
}

func (s *RequestLifecycle) CreateRequest(ctx context.Context, in CreateRequestInput) (*model.ServiceRequest, error) {
	if err := validateCreateRequest(in); err != nil {
		logger.Warn("create_request", "Invalid request input", "", in.ClientID, err.Error())
		return nil, err
	}

	req := model.ServiceRequest{
		ID:          uuid.NewString(),
		ClientID:    in.ClientID,
		ServiceType: in.ServiceType,
		Description: strings.TrimSpace(in.Description),
		Budget:      in.Budget,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Address:     in.Address,
		Status:      common.StatusPending,
	}

	var created *model.ServiceRequest
	err := retryTransient(func() error {
		var insertErr error
		created, insertErr = s.store.Insert(ctx, req)
		return insertErr
	})
	if err != nil {
		logger.Error("create_request", "Failed to insert request", "", in.ClientID, err.Error())
		return nil, &apperr.DependencyError{Dependency: "request store", Err: err}
	}

	s.recordEvent(ctx, created.ID, common.EventRequestCreated, map[string]interface{}{
		"old_status": nil,
		"new_status": common.StatusPending,
		"budget":     created.Budget,
		"location":   map[string]float64{"lat": created.Latitude, "lng": created.Longitude},
	})

	logger.Info("create_request", "Service request created", "", created.ID)
	return created, nil
}

// Assign transitions pending -> assigned and sets the developer in the same
// statement. Works for both manual client selection and automatic nearest
// matching.
func (s *RequestLifecycle) Assign(ctx context.Context, requestID, developerID string) error {
	if developerID == "" {
		return &apperr.ValidationError{Field: "developer_id", Reason: "must not be empty"}
	}

	req, err := s.load(ctx, requestID)
	if err != nil {
		return err
	}

	if req.Status != common.StatusPending {
		return &apperr.InvalidTransitionError{RequestID: requestID, From: req.Status, To: common.StatusAssigned}
	}

	if err := s.commitTransition(ctx, requestID, common.StatusPending, common.StatusAssigned, &developerID); err != nil {
		return err
	}

	now := time.Now().UTC()
	s.recordEvent(ctx, requestID, common.EventRequestAssigned, map[string]interface{}{
		"old_status":   common.StatusPending,
		"new_status":   common.StatusAssigned,
		"developer_id": developerID,
	})

	s.events.PublishAssigned(bus.RequestAssigned{
		RequestID:   requestID,
		DeveloperID: developerID,
		ClientID:    req.ClientID,
		AssignedAt:  now,
	})

	if s.publisher != nil {
		msg := mq.RequestAssignedMessage{
			RequestID:   requestID,
			DeveloperID: developerID,
			ClientID:    req.ClientID,
			ServiceType: req.ServiceType,
			Description: req.Description,
			Budget:      req.Budget,
			Location:    mq.LatLng{Lat: req.Latitude, Lng: req.Longitude},
			AssignedAt:  now,
		}
		if req.Address != nil {
			msg.Address = *req.Address
		}
		if err := s.publisher.PublishRequestAssigned(ctx, msg); err != nil {
			// The assignment is committed; the developer still learns about it
			// from the dashboard read path.
			logger.Warn("assign", "Failed to publish assignment notification", "", requestID, err.Error())
		}
	}

	s.pushToDeveloper(developerID, "request_assigned", requestID, string(common.StatusAssigned))

	logger.Info("assign", fmt.Sprintf("Request assigned to developer %s", developerID), "", requestID)
	return nil
}

// RespondToAssignment lets the assigned developer accept or decline. Declining
// clears the developer so the request can be matched again after re-opening.
func (s *RequestLifecycle) RespondToAssignment(ctx context.Context, requestID, developerID string, accept bool) error {
	req, err := s.load(ctx, requestID)
	if err != nil {
		return err
	}

	if req.Status != common.StatusAssigned {
		target := common.StatusAccepted
		if !accept {
			target = common.StatusRejected
		}
		return &apperr.InvalidTransitionError{RequestID: requestID, From: req.Status, To: target}
	}
	if req.DeveloperID == nil || *req.DeveloperID != developerID {
		return &apperr.UnauthorizedError{ActorID: developerID, Action: "respond to this assignment"}
	}

	if accept {
		if err := s.commitTransition(ctx, requestID, common.StatusAssigned, common.StatusAccepted, &developerID); err != nil {
			return err
		}
		s.recordEvent(ctx, requestID, common.EventRequestAccepted, map[string]interface{}{
			"old_status":   common.StatusAssigned,
			"new_status":   common.StatusAccepted,
			"developer_id": developerID,
		})
		s.notifyStatus(ctx, req, common.StatusAssigned, common.StatusAccepted, developerID)
		logger.Info("respond_to_assignment", "Developer accepted the request", "", requestID)
		return nil
	}

	if err := s.commitTransition(ctx, requestID, common.StatusAssigned, common.StatusRejected, nil); err != nil {
		return err
	}
	s.recordEvent(ctx, requestID, common.EventRequestRejected, map[string]interface{}{
		"old_status":   common.StatusAssigned,
		"new_status":   common.StatusRejected,
		"developer_id": developerID,
	})
	s.notifyStatus(ctx, req, common.StatusAssigned, common.StatusRejected, developerID)
	logger.Info("respond_to_assignment", "Developer declined the request", "", requestID)
	return nil
}

func (s *RequestLifecycle) StartWork(ctx context.Context, requestID, developerID string) error {
	req, err := s.load(ctx, requestID)
	if err != nil {
		return err
	}

	if req.Status != common.StatusAccepted {
		return &apperr.InvalidTransitionError{RequestID: requestID, From: req.Status, To: common.StatusInProgress}
	}
	if req.DeveloperID == nil || *req.DeveloperID != developerID {
		return &apperr.UnauthorizedError{ActorID: developerID, Action: "start work on this request"}
	}

	if err := s.commitTransition(ctx, requestID, common.StatusAccepted, common.StatusInProgress, &developerID); err != nil {
		return err
	}
	s.recordEvent(ctx, requestID, common.EventWorkStarted, map[string]interface{}{
		"old_status":   common.StatusAccepted,
		"new_status":   common.StatusInProgress,
		"developer_id": developerID,
	})
	s.notifyStatus(ctx, req, common.StatusAccepted, common.StatusInProgress, developerID)

	logger.Info("start_work", "Work started", "", requestID)
	return nil
}

func (s *RequestLifecycle) Complete(ctx context.Context, requestID, developerID string) error {
	req, err := s.load(ctx, requestID)
	if err != nil {
		return err
	}

	if req.Status != common.StatusInProgress {
		return &apperr.InvalidTransitionError{RequestID: requestID, From: req.Status, To: common.StatusCompleted}
	}
	if req.DeveloperID == nil || *req.DeveloperID != developerID {
		return &apperr.UnauthorizedError{ActorID: developerID, Action: "complete this request"}
	}

	if err := s.commitTransition(ctx, requestID, common.StatusInProgress, common.StatusCompleted, &developerID); err != nil {
		return err
	}
	s.recordEvent(ctx, requestID, common.EventRequestCompleted, map[string]interface{}{
		"old_status":   common.StatusInProgress,
		"new_status":   common.StatusCompleted,
		"developer_id": developerID,
	})
	s.notifyStatus(ctx, req, common.StatusInProgress, common.StatusCompleted, developerID)

	logger.Info("complete", "Request completed", "", requestID)
	return nil
}

// Cancel withdraws a request while it is still pending or assigned. Only the
// creating client may cancel.
func (s *RequestLifecycle) Cancel(ctx context.Context, requestID, clientID string) error {
	req, err := s.load(ctx, requestID)
	if err != nil {
		return err
	}

	if req.ClientID != clientID {
		return &apperr.UnauthorizedError{ActorID: clientID, Action: "cancel this request"}
	}
	if req.Status != common.StatusPending && req.Status != common.StatusAssigned {
		return &apperr.InvalidTransitionError{RequestID: requestID, From: req.Status, To: common.StatusCancelled}
	}

	if err := s.commitTransition(ctx, requestID, req.Status, common.StatusCancelled, nil); err != nil {
		return err
	}
	s.recordEvent(ctx, requestID, common.EventRequestCancelled, map[string]interface{}{
		"old_status": req.Status,
		"new_status": common.StatusCancelled,
	})

	if req.DeveloperID != nil {
		s.pushToDeveloper(*req.DeveloperID, "request_cancelled", requestID, string(common.StatusCancelled))
	}

	logger.Info("cancel", "Request cancelled by client", "", requestID)
	return nil
}

func (s *RequestLifecycle) Get(ctx context.Context, requestID string) (*model.ServiceRequest, error) {
	return s.load(ctx, requestID)
}

// GetLocation satisfies the matcher's request locator port.
func (s *RequestLifecycle) GetLocation(ctx context.Context, requestID string) (float64, float64, error) {
	req, err := s.load(ctx, requestID)
	if err != nil {
		return 0, 0, err
	}
	return req.Latitude, req.Longitude, nil
}

func (s *RequestLifecycle) ListPending(ctx context.Context) ([]model.ServiceRequest, error) {
	return s.store.ListPending(ctx)
}

func (s *RequestLifecycle) GetByClient(ctx context.Context, clientID string) ([]model.ServiceRequest, error) {
	return s.store.GetByClient(ctx, clientID)
}

func (s *RequestLifecycle) GetByDeveloper(ctx context.Context, developerID string) ([]model.ServiceRequest, error) {
	return s.store.GetByDeveloper(ctx, developerID)
}

func (s *RequestLifecycle) load(ctx context.Context, requestID string) (*model.ServiceRequest, error) {
	var req *model.ServiceRequest
	err := retryTransient(func() error {
		var getErr error
		req, getErr = s.store.GetByID(ctx, requestID)
		return getErr
	})
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, &apperr.DependencyError{Dependency: "request store", Err: err}
	}
	return req, nil
}

// commitTransition performs the check-and-set against the observed status and
// maps a lost race on a cancelled request to an invalid transition, so an
// in-flight assign against a cancelled request never silently completes.
func (s *RequestLifecycle) commitTransition(ctx context.Context, requestID string, observed, next common.RequestStatus, developerID *string) error {
	err := retryTransient(func() error {
		return s.store.CompareAndSetStatus(ctx, requestID, observed, next, developerID)
	})
	if err == nil {
		return nil
	}

	var conflict *apperr.ConcurrentModificationError
	if errors.As(err, &conflict) {
		if !canTransition(conflict.Actual, next) {
			return &apperr.InvalidTransitionError{RequestID: requestID, From: conflict.Actual, To: next}
		}
		return conflict
	}
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.ErrNotFound
	}
	return &apperr.DependencyError{Dependency: "request store", Err: err}
}

func (s *RequestLifecycle) notifyStatus(ctx context.Context, req *model.ServiceRequest, from, to common.RequestStatus, developerID string) {
	if s.publisher != nil {
		msg := mq.RequestStatusMessage{
			RequestID:   req.ID,
			DeveloperID: developerID,
			OldStatus:   string(from),
			NewStatus:   string(to),
		}
		if err := s.publisher.PublishStatusUpdate(ctx, msg); err != nil {
			logger.Warn("notify_status", "Failed to publish status update", "", req.ID, err.Error())
		}
	}

	if s.wsHub != nil {
		payload, _ := json.Marshal(map[string]string{
			"type":       "status_changed",
			"request_id": req.ID,
			"old_status": string(from),
			"new_status": string(to),
		})
		s.wsHub.SendToClient("client_"+req.ClientID, payload)
	}
}

func (s *RequestLifecycle) pushToDeveloper(developerID, msgType, requestID, status string) {
	if s.wsHub == nil {
		return
	}
	payload, _ := json.Marshal(map[string]string{
		"type":       msgType,
		"request_id": requestID,
		"status":     status,
	})
	s.wsHub.SendToClient("developer_"+developerID, payload)
}

func (s *RequestLifecycle) recordEvent(ctx context.Context, requestID string, eventType common.RequestEventType, data map[string]interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		logger.Warn("record_event", "Failed to marshal event payload", "", requestID, err.Error())
		return
	}

	event := model.RequestEvent{
		ID:        uuid.NewString(),
		RequestID: requestID,
		EventType: eventType,
		EventData: payload,
	}
	if err := s.store.InsertEvent(ctx, event); err != nil {
		// The event log is advisory; the transition itself already committed.
		logger.Warn("record_event", "Failed to insert request event", "", requestID, err.Error())
	}
}

func validateCreateRequest(in CreateRequestInput) error {
	if in.ClientID == "" {
		return &apperr.ValidationError{Field: "client_id", Reason: "must not be empty"}
	}
	if in.ServiceType == "" {
		return &apperr.ValidationError{Field: "service_type", Reason: "must not be empty"}
	}
	if strings.TrimSpace(in.Description) == "" {
		return &apperr.ValidationError{Field: "description", Reason: "must not be empty"}
	}
	if in.Budget <= 0 {
		return &apperr.ValidationError{Field: "budget", Reason: "must be greater than zero"}
	}
	if !geo.ValidLatLng(in.Latitude, in.Longitude) {
		return &apperr.ValidationError{Field: "location", Reason: "coordinates missing or out of range"}
	}
	return nil
}

// retryTransient retries op exactly once, but never retries domain errors:
// those are deterministic and will fail the same way again.
func retryTransient(op func() error) error {
	err := op()
	if err == nil {
		return nil
	}
	if isDomainError(err) {
		return err
	}
	return op()
}

func isDomainError(err error) bool {
	return errors.Is(err, apperr.ErrNotFound) ||
		errors.Is(err, apperr.ErrValidation) ||
		errors.Is(err, apperr.ErrInvalidTransition) ||
		errors.Is(err, apperr.ErrUnauthorized) ||
		errors.Is(err, apperr.ErrConcurrentModification) ||
		errors.Is(err, apperr.ErrInvalidLocation)
}
