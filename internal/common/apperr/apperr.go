package apperr

import (
	"errors"
	"fmt"

	"github.com/Mwoyoungo/lokal-s-hub/internal/common/model"
)

var (
	ErrNotFound               = errors.New("resource not found")
	ErrValidation             = errors.New("invalid input")
	ErrInvalidTransition      = errors.New("illegal status transition")
	ErrUnauthorized           = errors.New("actor not authorized for this transition")
	ErrConcurrentModification = errors.New("request was modified concurrently")
	ErrNoCandidate            = errors.New("no eligible developer found")
	ErrInvalidLocation        = errors.New("coordinates out of range")
	ErrDependency             = errors.New("external dependency unavailable")
)

type ValidationError struct{ Field, Reason string }

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

type InvalidTransitionError struct {
	RequestID string
	From      model.RequestStatus
	To        model.RequestStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("request %s: cannot transition %s -> %s", e.RequestID, e.From, e.To)
}
func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

type UnauthorizedError struct {
	ActorID string
	Action  string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("actor %s may not %s", e.ActorID, e.Action)
}
func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }

type ConcurrentModificationError struct {
	RequestID string
	Observed  model.RequestStatus
	Actual    model.RequestStatus
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("request %s: status changed from %s to %s during transition", e.RequestID, e.Observed, e.Actual)
}
func (e *ConcurrentModificationError) Is(target error) bool { return target == ErrConcurrentModification }

type NoCandidateError struct{ RequestID string }

func (e *NoCandidateError) Error() string {
	return fmt.Sprintf("request %s: no available developer within range", e.RequestID)
}
func (e *NoCandidateError) Is(target error) bool { return target == ErrNoCandidate }

type InvalidLocationError struct{ Lat, Lng float64 }

func (e *InvalidLocationError) Error() string {
	return fmt.Sprintf("invalid coordinates (%f, %f): latitude must be within ±90, longitude within ±180", e.Lat, e.Lng)
}
func (e *InvalidLocationError) Is(target error) bool { return target == ErrInvalidLocation }

type DependencyError struct {
	Dependency string
	Err        error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Dependency, e.Err)
}
func (e *DependencyError) Is(target error) bool { return target == ErrDependency }
func (e *DependencyError) Unwrap() error        { return e.Err }
