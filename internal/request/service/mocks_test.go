package service

import (
	"context"
	"sync"

	"github.com/Mwoyoungo/lokal-s-hub/internal/common/apperr"
	"github.com/Mwoyoungo/lokal-s-hub/internal/common/mq"
	common "github.com/Mwoyoungo/lokal-s-hub/internal/common/model"
	"github.com/Mwoyoungo/lokal-s-hub/internal/request/model"
)

// memStore is an in-memory RequestStore used in place of Postgres.
type memStore struct {
	mu       sync.Mutex
	requests map[string]model.ServiceRequest
	events   []model.RequestEvent

	// failNext makes the next N store calls fail with the given error, for
	// retry behavior tests.
	failNext int
	failErr  error

	// beforeCAS runs inside CompareAndSetStatus before the check, letting
	// tests interleave a concurrent mutation.
	beforeCAS func(s *memStore)
}

var _ RequestStore = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{requests: make(map[string]model.ServiceRequest)}
}

func (s *memStore) maybeFail() error {
	if s.failNext > 0 {
		s.failNext--
		return s.failErr
	}
	return nil
}

func (s *memStore) Insert(_ context.Context, req model.ServiceRequest) (*model.ServiceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.maybeFail(); err != nil {
		return nil, err
	}
	s.requests[req.ID] = req
	stored := req
	return &stored, nil
}

func (s *memStore) GetByID(_ context.Context, id string) (*model.ServiceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.maybeFail(); err != nil {
		return nil, err
	}
	req, ok := s.requests[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	stored := req
	return &stored, nil
}

func (s *memStore) CompareAndSetStatus(_ context.Context, id string, observed, next common.RequestStatus, developerID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.maybeFail(); err != nil {
		return err
	}
	if s.beforeCAS != nil {
		hook := s.beforeCAS
		s.beforeCAS = nil
		hook(s)
	}

	req, ok := s.requests[id]
	if !ok {
		return apperr.ErrNotFound
	}
	if req.Status != observed {
		return &apperr.ConcurrentModificationError{RequestID: id, Observed: observed, Actual: req.Status}
	}

	req.Status = next
	req.DeveloperID = developerID
	s.requests[id] = req
	return nil
}

func (s *memStore) InsertEvent(_ context.Context, event model.RequestEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *memStore) ListPending(_ context.Context) ([]model.ServiceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []model.ServiceRequest
	for _, req := range s.requests {
		if req.Status == common.StatusPending {
			result = append(result, req)
		}
	}
	return result, nil
}

func (s *memStore) GetByClient(_ context.Context, clientID string) ([]model.ServiceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []model.ServiceRequest
	for _, req := range s.requests {
		if req.ClientID == clientID {
			result = append(result, req)
		}
	}
	return result, nil
}

func (s *memStore) GetByDeveloper(_ context.Context, developerID string) ([]model.ServiceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []model.ServiceRequest
	for _, req := range s.requests {
		if req.DeveloperID != nil && *req.DeveloperID == developerID {
			result = append(result, req)
		}
	}
	return result, nil
}

// set replaces a stored request directly, bypassing the state machine.
func (s *memStore) set(req model.ServiceRequest) {
	s.requests[req.ID] = req
}

type fakePublisher struct {
	mu       sync.Mutex
	assigned []mq.RequestAssignedMessage
	statuses []mq.RequestStatusMessage
	err      error
}

var _ AssignmentPublisher = (*fakePublisher)(nil)

func (p *fakePublisher) PublishRequestAssigned(_ context.Context, msg mq.RequestAssignedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.assigned = append(p.assigned, msg)
	return nil
}

func (p *fakePublisher) PublishStatusUpdate(_ context.Context, msg mq.RequestStatusMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.statuses = append(p.statuses, msg)
	return nil
}

type fakePusher struct {
	mu       sync.Mutex
	messages map[string][][]byte
}

var _ RealtimePusher = (*fakePusher)(nil)

func newFakePusher() *fakePusher {
	return &fakePusher{messages: make(map[string][][]byte)}
}

func (p *fakePusher) SendToClient(id string, message []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages[id] = append(p.messages[id], message)
	return true
}
