package model

type Role string

const (
	RoleClient    Role = "CLIENT"
	RoleDeveloper Role = "DEVELOPER"
	RoleAdmin     Role = "ADMIN"
)

// RequestStatus values are persisted as-is; the lowercase tokens are part of
// the storage contract.
type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusAssigned   RequestStatus = "assigned"
	StatusAccepted   RequestStatus = "accepted"
	StatusInProgress RequestStatus = "in_progress"
	StatusCompleted  RequestStatus = "completed"
	StatusRejected   RequestStatus = "rejected"
	StatusCancelled  RequestStatus = "cancelled"
)

// IsTerminal reports whether no further transition may leave the status.
func (s RequestStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

type RequestEventType string

const (
	EventRequestCreated     RequestEventType = "REQUEST_CREATED"
	EventRequestAssigned    RequestEventType = "REQUEST_ASSIGNED"
	EventRequestAccepted    RequestEventType = "REQUEST_ACCEPTED"
	EventRequestRejected    RequestEventType = "REQUEST_REJECTED"
	EventWorkStarted        RequestEventType = "WORK_STARTED"
	EventRequestCompleted   RequestEventType = "REQUEST_COMPLETED"
	EventRequestCancelled   RequestEventType = "REQUEST_CANCELLED"
	EventAvailabilityChange RequestEventType = "AVAILABILITY_CHANGED"
	EventLocationUpdated    RequestEventType = "LOCATION_UPDATED"
)
