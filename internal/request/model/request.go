package model

import (
	"time"

	common "github.com/Mwoyoungo/lokal-s-hub/internal/common/model"
)

type ServiceRequest struct {
	ID          string               `json:"id" db:"id"`
	ClientID    string               `json:"client_id" db:"client_id"`
	ServiceType string               `json:"service_type" db:"service_type"`
	Description string               `json:"description" db:"description"`
	Budget      float64              `json:"budget" db:"budget"`
	Latitude    float64              `json:"latitude" db:"latitude"`
	Longitude   float64              `json:"longitude" db:"longitude"`
	Address     *string              `json:"address,omitempty" db:"address"`
	Status      common.RequestStatus `json:"status" db:"status"`
	DeveloperID *string              `json:"matched_developer_id,omitempty" db:"matched_developer_id"`
	CreatedAt   time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at" db:"updated_at"`
}

type RequestEvent struct {
	ID        string                  `json:"id" db:"id"`
	CreatedAt time.Time               `json:"created_at" db:"created_at"`
	RequestID string                  `json:"request_id" db:"request_id"`
	EventType common.RequestEventType `json:"event_type" db:"event_type"`
	EventData []byte                  `json:"event_data" db:"event_data"`
}
