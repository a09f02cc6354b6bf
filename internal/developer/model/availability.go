package model

import "time"

// DeveloperAvailability is the registry row for one developer account.
// Location fields are nil until the developer has reported a position.
type DeveloperAvailability struct {
	DeveloperID   string     `json:"developer_id" db:"developer_id"`
	Available     bool       `json:"available" db:"available"`
	Latitude      *float64   `json:"latitude,omitempty" db:"latitude"`
	Longitude     *float64   `json:"longitude,omitempty" db:"longitude"`
	LocationAt    *time.Time `json:"location_updated_at,omitempty" db:"location_updated_at"`
	HourlyRate    float64    `json:"hourly_rate" db:"hourly_rate"`
	AverageRating float64    `json:"average_rating" db:"average_rating"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// HasLocation reports whether the developer has ever reported coordinates.
func (d *DeveloperAvailability) HasLocation() bool {
	return d.Latitude != nil && d.Longitude != nil
}

// LocationFresh reports whether the last location update is newer than ttl.
// A zero ttl disables the staleness check.
func (d *DeveloperAvailability) LocationFresh(now time.Time, ttl time.Duration) bool {
	if !d.HasLocation() {
		return false
	}
	if ttl <= 0 {
		return true
	}
	return d.LocationAt != nil && now.Sub(*d.LocationAt) <= ttl
}
