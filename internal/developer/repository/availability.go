package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Mwoyoungo/lokal-s-hub/internal/common/apperr"
	"github.com/Mwoyoungo/lokal-s-hub/internal/developer/model"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type AvailabilityRepository struct {
	db *pgx.Conn
}

func NewAvailabilityRepository(db *pgx.Conn) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

func (r *AvailabilityRepository) SetAvailability(ctx context.Context, developerID string, available bool) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO developer_availability (developer_id, available, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (developer_id)
		DO UPDATE SET available = $2, updated_at = now()
	`, developerID, available)
	if err != nil {
		return fmt.Errorf("failed to set availability: %w", err)
	}
	return nil
}

func (r *AvailabilityRepository) UpdateLocation(ctx context.Context, developerID string, lat, lng float64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO developer_availability (developer_id, available, latitude, longitude, location_updated_at, updated_at)
		VALUES ($1, false, $2, $3, now(), now())
		ON CONFLICT (developer_id)
		DO UPDATE SET latitude = $2, longitude = $3, location_updated_at = now(), updated_at = now()
	`, developerID, lat, lng)
	if err != nil {
		return fmt.Errorf("failed to update location: %w", err)
	}
	return nil
}

func (r *AvailabilityRepository) GetByID(ctx context.Context, developerID string) (*model.DeveloperAvailability, error) {
	row := r.db.QueryRow(ctx, `
		SELECT developer_id, available, latitude, longitude, location_updated_at,
		       hourly_rate, average_rating, updated_at
		FROM developer_availability
		WHERE developer_id = $1
	`, developerID)

	var d model.DeveloperAvailability
	err := row.Scan(&d.DeveloperID, &d.Available, &d.Latitude, &d.Longitude,
		&d.LocationAt, &d.HourlyRate, &d.AverageRating, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get developer availability: %w", err)
	}
	return &d, nil
}

// ListFilter narrows the available-developer read path. Center/RadiusKm add a
// bounding-box prefilter; exact distance filtering is the caller's job.
type ListFilter struct {
	CenterLat  *float64
	CenterLng  *float64
	RadiusKm   float64
	FreshSince *time.Time
}

func (r *AvailabilityRepository) ListAvailable(ctx context.Context, filter ListFilter) ([]model.DeveloperAvailability, error) {
	q := psql.Select(
		"developer_id", "available", "latitude", "longitude",
		"location_updated_at", "hourly_rate", "average_rating", "updated_at",
	).
		From("developer_availability").
		Where(sq.Eq{"available": true}).
		Where("latitude IS NOT NULL").
		Where("longitude IS NOT NULL").
		OrderBy("developer_id ASC")

	if filter.FreshSince != nil {
		q = q.Where(sq.GtOrEq{"location_updated_at": *filter.FreshSince})
	}

	if filter.CenterLat != nil && filter.CenterLng != nil && filter.RadiusKm > 0 {
		latDelta := filter.RadiusKm / 111.0
		cosLat := math.Cos(*filter.CenterLat * math.Pi / 180)
		lngDelta := 180.0
		if cosLat > 1e-6 {
			lngDelta = filter.RadiusKm / (111.0 * cosLat)
		}
		q = q.
			Where(sq.GtOrEq{"latitude": *filter.CenterLat - latDelta}).
			Where(sq.LtOrEq{"latitude": *filter.CenterLat + latDelta}).
			Where(sq.GtOrEq{"longitude": *filter.CenterLng - lngDelta}).
			Where(sq.LtOrEq{"longitude": *filter.CenterLng + lngDelta})
	}

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build availability query: %w", err)
	}

	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query available developers: %w", err)
	}
	defer rows.Close()

	var result []model.DeveloperAvailability
	for rows.Next() {
		var d model.DeveloperAvailability
		if err := rows.Scan(&d.DeveloperID, &d.Available, &d.Latitude, &d.Longitude,
			&d.LocationAt, &d.HourlyRate, &d.AverageRating, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan developer availability: %w", err)
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate available developers: %w", err)
	}

	return result, nil
}
