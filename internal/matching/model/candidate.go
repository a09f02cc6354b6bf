package model

// MatchCandidate is a transient ranking row produced per query; it is never
// persisted.
type MatchCandidate struct {
	DeveloperID   string  `json:"developer_id"`
	DistanceKm    float64 `json:"distance_km"`
	HourlyRate    float64 `json:"hourly_rate"`
	AverageRating float64 `json:"average_rating"`
}

type SortKey string

const (
	SortByDistance   SortKey = "distance"
	SortByRating     SortKey = "rating"
	SortByHourlyRate SortKey = "hourly_rate"
)
