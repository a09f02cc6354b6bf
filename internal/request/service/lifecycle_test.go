package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Mwoyoungo/lokal-s-hub/internal/common/apperr"
	"github.com/Mwoyoungo/lokal-s-hub/internal/common/bus"
	common "github.com/Mwoyoungo/lokal-s-hub/internal/common/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLifecycle(t *testing.T) (*RequestLifecycle, *memStore, *fakePublisher, *fakePusher) {
	t.Helper()
	store := newMemStore()
	publisher := &fakePublisher{}
	pusher := newFakePusher()
	lifecycle := NewRequestLifecycle(store, publisher, pusher, bus.New())
	return lifecycle, store, publisher, pusher
}

func validInput() CreateRequestInput {
	return CreateRequestInput{
		ClientID:    "client-1",
		ServiceType: "web-development",
		Description: "Build a landing page",
		Budget:      500,
		Latitude:    40.0,
		Longitude:   -74.0,
	}
}

func TestCreateRequest(t *testing.T) {
	lifecycle, store, _, _ := newLifecycle(t)

	created, err := lifecycle.CreateRequest(context.Background(), validInput())
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, common.StatusPending, created.Status)
	assert.Nil(t, created.DeveloperID)
	assert.Equal(t, 500.0, created.Budget)

	stored, err := store.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, common.StatusPending, stored.Status)
}

func TestCreateRequest_Validation(t *testing.T) {
	lifecycle, _, _, _ := newLifecycle(t)

	cases := []struct {
		name   string
		mutate func(*CreateRequestInput)
	}{
		{"zero budget", func(in *CreateRequestInput) { in.Budget = 0 }},
		{"negative budget", func(in *CreateRequestInput) { in.Budget = -10 }},
		{"empty description", func(in *CreateRequestInput) { in.Description = "  " }},
		{"latitude out of range", func(in *CreateRequestInput) { in.Latitude = 91 }},
		{"longitude out of range", func(in *CreateRequestInput) { in.Longitude = -200 }},
		{"missing client", func(in *CreateRequestInput) { in.ClientID = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)

			_, err := lifecycle.CreateRequest(context.Background(), in)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestAssign(t *testing.T) {
	lifecycle, store, publisher, pusher := newLifecycle(t)

	created, err := lifecycle.CreateRequest(context.Background(), validInput())
	require.NoError(t, err)

	require.NoError(t, lifecycle.Assign(context.Background(), created.ID, "dev-1"))

	stored, err := store.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, common.StatusAssigned, stored.Status)
	require.NotNil(t, stored.DeveloperID)
	assert.Equal(t, "dev-1", *stored.DeveloperID)

	require.Len(t, publisher.assigned, 1)
	assert.Equal(t, created.ID, publisher.assigned[0].RequestID)
	assert.Equal(t, "dev-1", publisher.assigned[0].DeveloperID)

	assert.NotEmpty(t, pusher.messages["developer_dev-1"])
}

func TestAssign_NotPending(t *testing.T) {
	lifecycle, _, _, _ := newLifecycle(t)

	created, err := lifecycle.CreateRequest(context.Background(), validInput())
	require.NoError(t, err)
	require.NoError(t, lifecycle.Assign(context.Background(), created.ID, "dev-1"))

	err = lifecycle.Assign(context.Background(), created.ID, "dev-2")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	// The original assignment must survive the failed attempt.
	stored, err := lifecycle.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "dev-1", *stored.DeveloperID)
}

func TestAssign_RequestNotFound(t *testing.T) {
	lifecycle, _, _, _ := newLifecycle(t)

	err := lifecycle.Assign(context.Background(), "missing", "dev-1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRespondToAssignment_Accept(t *testing.T) {
	lifecycle, store, _, _ := newLifecycle(t)

	created, err := lifecycle.CreateRequest(context.Background(), validInput())
	require.NoError(t, err)
	require.NoError(t, lifecycle.Assign(context.Background(), created.ID, "dev-1"))

	require.NoError(t, lifecycle.RespondToAssignment(context.Background(), created.ID, "dev-1", true))

	stored, err := store.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, common.StatusAccepted, stored.Status)
	require.NotNil(t, stored.DeveloperID)
	assert.Equal(t, "dev-1", *stored.DeveloperID)
}

func TestRespondToAssignment_Reject(t *testing.T) {
	lifecycle, store, _, _ := newLifecycle(t)

	created, err := lifecycle.CreateRequest(context.Background(), validInput())
	require.NoError(t, err)
	require.NoError(t, lifecycle.Assign(context.Background(), created.ID, "dev-1"))

	require.NoError(t, lifecycle.RespondToAssignment(context.Background(), created.ID, "dev-1", false))

	stored, err := store.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, common.StatusRejected, stored.Status)
	assert.Nil(t, stored.DeveloperID)

	// Terminal: nothing else may happen to this request.
	err = lifecycle.Cancel(context.Background(), created.ID, "client-1")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestRespondToAssignment_WrongDeveloper(t *testing.T) {
	lifecycle, store, _, _ := newLifecycle(t)

	created, err := lifecycle.CreateRequest(context.Background(), validInput())
	require.NoError(t, err)
	require.NoError(t, lifecycle.Assign(context.Background(), created.ID, "dev-1"))

	err = lifecycle.RespondToAssignment(context.Background(), created.ID, "dev-2", true)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	stored, err := store.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, common.StatusAssigned, stored.Status)
}

func TestStartWork_FromPending(t *testing.T) {
	lifecycle, store, _, _ := newLifecycle(t)

	created, err := lifecycle.CreateRequest(context.Background(), validInput())
	require.NoError(t, err)

	err = lifecycle.StartWork(context.Background(), created.ID, "dev-1")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	stored, err := store.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, common.StatusPending, stored.Status)
}

func TestStartWork_FromAssigned(t *testing.T) {
	lifecycle, store, _, _ := newLifecycle(t)

	created, err := lifecycle.CreateRequest(context.Background(), validInput())
	require.NoError(t, err)
	require.NoError(t, lifecycle.Assign(context.Background(), created.ID, "dev-1"))

	// Accepting is required before work can start.
	err = lifecycle.StartWork(context.Background(), created.ID, "dev-1")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	stored, err := store.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, common.StatusAssigned, stored.Status)
}

func TestCancel_Unauthorized(t *testing.T) {
	lifecycle, _, _, _ := newLifecycle(t)

	created, err := lifecycle.CreateRequest(context.Background(), validInput())
	require.NoError(t, err)

	err = lifecycle.Cancel(context.Background(), created.ID, "client-2")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestCancel_AfterAccepted(t *testing.T) {
	lifecycle, _, _, _ := newLifecycle(t)

	created, err := lifecycle.CreateRequest(context.Background(), validInput())
	require.NoError(t, err)
	require.NoError(t, lifecycle.Assign(context.Background(), created.ID, "dev-1"))
	require.NoError(t, lifecycle.RespondToAssignment(context.Background(), created.ID, "dev-1", true))

	err = lifecycle.Cancel(context.Background(), created.ID, "client-1")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestCancel_WhileAssigned(t *testing.T) {
	lifecycle, store, _, pusher := newLifecycle(t)

	created, err := lifecycle.CreateRequest(context.Background(), validInput())
	require.NoError(t, err)
	require.NoError(t, lifecycle.Assign(context.Background(), created.ID, "dev-1"))

	require.NoError(t, lifecycle.Cancel(context.Background(), created.ID, "client-1"))

	stored, err := store.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, common.StatusCancelled, stored.Status)
	assert.Nil(t, stored.DeveloperID)

	// The assigned developer learns the work went away.
	assert.NotEmpty(t, pusher.messages["developer_dev-1"])
}

func TestAssign_RacesWithCancel(t *testing.T) {
	lifecycle, store, _, _ := newLifecycle(t)

	created, err := lifecycle.CreateRequest(context.Background(), validInput())
	require.NoError(t, err)

	// A cancel lands between the assign's status read and its check-and-set.
	store.beforeCAS = func(s *memStore) {
		req := s.requests[created.ID]
		req.Status = common.StatusCancelled
		req.DeveloperID = nil
		s.set(req)
	}

	err = lifecycle.Assign(context.Background(), created.ID, "dev-1")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	stored, err := store.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, common.StatusCancelled, stored.Status)
	assert.Nil(t, stored.DeveloperID)
}

func TestRespond_RacesWithRespond(t *testing.T) {
	lifecycle, store, _, _ := newLifecycle(t)

	created, err := lifecycle.CreateRequest(context.Background(), validInput())
	require.NoError(t, err)
	require.NoError(t, lifecycle.Assign(context.Background(), created.ID, "dev-1"))

	// Another accept commits between this call's read and its check-and-set;
	// accepted -> accepted is a legal edge for no one, but the re-observed
	// state still allows no duplicate accept, so the caller sees a conflict.
	store.beforeCAS = func(s *memStore) {
		req := s.requests[created.ID]
		req.Status = common.StatusCancelled
		s.set(req)
	}

	err = lifecycle.RespondToAssignment(context.Background(), created.ID, "dev-1", true)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestCancel_RacesWithAssign(t *testing.T) {
	lifecycle, store, _, _ := newLifecycle(t)

	created, err := lifecycle.CreateRequest(context.Background(), validInput())
	require.NoError(t, err)

	// An assign commits between the cancel's read and its check-and-set.
	// Cancelling from assigned is still legal, so the caller is told to
	// re-read and retry rather than being refused outright.
	dev := "dev-1"
	store.beforeCAS = func(s *memStore) {
		req := s.requests[created.ID]
		req.Status = common.StatusAssigned
		req.DeveloperID = &dev
		s.set(req)
	}

	err = lifecycle.Cancel(context.Background(), created.ID, "client-1")
	assert.ErrorIs(t, err, apperr.ErrConcurrentModification)

	stored, err := store.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, common.StatusAssigned, stored.Status)
}

func TestTransientFailureRetriedOnce(t *testing.T) {
	lifecycle, store, _, _ := newLifecycle(t)

	store.failNext = 1
	store.failErr = errors.New("connection reset")

	created, err := lifecycle.CreateRequest(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, common.StatusPending, created.Status)
}

func TestPersistentFailureSurfacesDependencyError(t *testing.T) {
	lifecycle, store, _, _ := newLifecycle(t)

	store.failNext = 2
	store.failErr = errors.New("connection reset")

	_, err := lifecycle.CreateRequest(context.Background(), validInput())
	assert.ErrorIs(t, err, apperr.ErrDependency)
}

func TestPendingIffNoDeveloper(t *testing.T) {
	lifecycle, store, _, _ := newLifecycle(t)

	created, err := lifecycle.CreateRequest(context.Background(), validInput())
	require.NoError(t, err)

	check := func() {
		stored, err := store.GetByID(context.Background(), created.ID)
		require.NoError(t, err)
		if stored.Status == common.StatusPending {
			assert.Nil(t, stored.DeveloperID)
		}
		if stored.DeveloperID != nil {
			assert.Contains(t, []common.RequestStatus{
				common.StatusAssigned, common.StatusAccepted,
				common.StatusInProgress, common.StatusCompleted,
			}, stored.Status)
		}
	}

	check()
	require.NoError(t, lifecycle.Assign(context.Background(), created.ID, "dev-1"))
	check()
	require.NoError(t, lifecycle.RespondToAssignment(context.Background(), created.ID, "dev-1", true))
	check()
	require.NoError(t, lifecycle.StartWork(context.Background(), created.ID, "dev-1"))
	check()
	require.NoError(t, lifecycle.Complete(context.Background(), created.ID, "dev-1"))
	check()
}

func TestFullLifecycle(t *testing.T) {
	lifecycle, store, publisher, _ := newLifecycle(t)

	created, err := lifecycle.CreateRequest(context.Background(), validInput())
	require.NoError(t, err)

	require.NoError(t, lifecycle.Assign(context.Background(), created.ID, "dev-1"))
	require.NoError(t, lifecycle.RespondToAssignment(context.Background(), created.ID, "dev-1", true))
	require.NoError(t, lifecycle.StartWork(context.Background(), created.ID, "dev-1"))
	require.NoError(t, lifecycle.Complete(context.Background(), created.ID, "dev-1"))

	stored, err := store.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, common.StatusCompleted, stored.Status)
	require.NotNil(t, stored.DeveloperID)
	assert.Equal(t, "dev-1", *stored.DeveloperID)

	// Completed is terminal.
	assert.ErrorIs(t, lifecycle.StartWork(context.Background(), created.ID, "dev-1"), apperr.ErrInvalidTransition)
	assert.ErrorIs(t, lifecycle.Cancel(context.Background(), created.ID, "client-1"), apperr.ErrInvalidTransition)

	// Each transition published a status update after the assignment.
	assert.Len(t, publisher.statuses, 3)
}

func TestReadPaths(t *testing.T) {
	lifecycle, _, _, _ := newLifecycle(t)

	first, err := lifecycle.CreateRequest(context.Background(), validInput())
	require.NoError(t, err)
	second, err := lifecycle.CreateRequest(context.Background(), validInput())
	require.NoError(t, err)
	require.NoError(t, lifecycle.Assign(context.Background(), second.ID, "dev-1"))

	pending, err := lifecycle.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, first.ID, pending[0].ID)

	mine, err := lifecycle.GetByClient(context.Background(), "client-1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	work, err := lifecycle.GetByDeveloper(context.Background(), "dev-1")
	require.NoError(t, err)
	require.Len(t, work, 1)
	assert.Equal(t, second.ID, work[0].ID)
}
