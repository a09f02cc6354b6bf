package dto

type AvailabilityRequest struct {
	Available *bool `json:"available" validate:"required"`
}

type AvailabilityResponse struct {
	DeveloperID string `json:"developer_id"`
	Available   bool   `json:"available"`
	Message     string `json:"message"`
}

type LocationRequest struct {
	Latitude  float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude float64 `json:"longitude" validate:"min=-180,max=180"`
}

type LocationResponse struct {
	DeveloperID string  `json:"developer_id"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Message     string  `json:"message"`
}

type AvailableDeveloper struct {
	DeveloperID   string  `json:"developer_id"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	HourlyRate    float64 `json:"hourly_rate"`
	AverageRating float64 `json:"average_rating"`
}
