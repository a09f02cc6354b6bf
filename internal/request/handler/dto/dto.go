package dto

import (
	"time"

	"github.com/Mwoyoungo/lokal-s-hub/internal/request/model"
)

type CreateRequestRequest struct {
	ServiceType string  `json:"service_type" validate:"required"`
	Description string  `json:"description" validate:"required"`
	Budget      float64 `json:"budget" validate:"required,gt=0"`
	Latitude    float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude   float64 `json:"longitude" validate:"min=-180,max=180"`
	Address     *string `json:"address,omitempty"`
}

type RequestResponse struct {
	RequestID   string    `json:"request_id"`
	ClientID    string    `json:"client_id"`
	ServiceType string    `json:"service_type"`
	Description string    `json:"description"`
	Budget      float64   `json:"budget"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Address     *string   `json:"address,omitempty"`
	Status      string    `json:"status"`
	DeveloperID *string   `json:"matched_developer_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func FromRequest(req *model.ServiceRequest) RequestResponse {
	return RequestResponse{
		RequestID:   req.ID,
		ClientID:    req.ClientID,
		ServiceType: req.ServiceType,
		Description: req.Description,
		Budget:      req.Budget,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Address:     req.Address,
		Status:      string(req.Status),
		DeveloperID: req.DeveloperID,
		CreatedAt:   req.CreatedAt,
	}
}

type AssignRequest struct {
	DeveloperID string `json:"developer_id" validate:"required"`
}

type RespondRequest struct {
	Accept *bool `json:"accept" validate:"required"`
}

type MatchResponse struct {
	RequestID   string `json:"request_id"`
	DeveloperID string `json:"developer_id"`
	Status      string `json:"status"`
}

type CandidateResponse struct {
	DeveloperID   string  `json:"developer_id"`
	DistanceKm    float64 `json:"distance_km"`
	HourlyRate    float64 `json:"hourly_rate"`
	AverageRating float64 `json:"average_rating"`
}
