package mq

import "time"

// Message payloads shared between the request and developer services.

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type RequestAssignedMessage struct {
	RequestID   string    `json:"request_id"`
	DeveloperID string    `json:"developer_id"`
	ClientID    string    `json:"client_id"`
	ServiceType string    `json:"service_type"`
	Description string    `json:"description"`
	Budget      float64   `json:"budget"`
	Location    LatLng    `json:"location"`
	Address     string    `json:"address,omitempty"`
	AssignedAt  time.Time `json:"assigned_at"`
}

type RequestStatusMessage struct {
	RequestID   string `json:"request_id"`
	DeveloperID string `json:"developer_id,omitempty"`
	OldStatus   string `json:"old_status"`
	NewStatus   string `json:"new_status"`
	Message     string `json:"message,omitempty"`
}

type AvailabilityChangedMessage struct {
	DeveloperID string    `json:"developer_id"`
	Available   bool      `json:"available"`
	ChangedAt   time.Time `json:"changed_at"`
}

type LocationUpdateMessage struct {
	DeveloperID string    `json:"developer_id"`
	Location    LatLng    `json:"location"`
	Timestamp   time.Time `json:"timestamp"`
}
