package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/Mwoyoungo/lokal-s-hub/internal/common/apperr"
	"github.com/Mwoyoungo/lokal-s-hub/internal/common/logger"
	"github.com/Mwoyoungo/lokal-s-hub/internal/matching/model"
	"github.com/Mwoyoungo/lokal-s-hub/pkg/geo"
)

const DefaultMaxDistanceKm = 50.0

// MatchOptions narrows and orders the candidate list. Zero-value options mean
// the 50 km default cap sorted by ascending distance.
type MatchOptions struct {
	MaxDistanceKm float64
	MinRating     *float64
	MaxHourlyRate *float64
	SortBy        model.SortKey
}

type ProximityMatcher struct {
	availability AvailabilitySource
	requests     RequestLocator
	assigner     Assigner
	defaultMaxKm float64
}

func NewProximityMatcher(availability AvailabilitySource, requests RequestLocator, assigner Assigner, defaultMaxKm float64) *ProximityMatcher {
	if defaultMaxKm <= 0 {
		defaultMaxKm = DefaultMaxDistanceKm
	}
	return &ProximityMatcher{
		availability: availability,
		requests:     requests,
		assigner:     assigner,
		defaultMaxKm: defaultMaxKm,
	}
}

// FindCandidates returns eligible developers ordered by the requested sort
// key. An empty slice is a normal outcome, not an error.
func (m *ProximityMatcher) FindCandidates(ctx context.Context, lat, lng float64, opts MatchOptions) ([]model.MatchCandidate, error) {
	if !geo.ValidLatLng(lat, lng) {
		return nil, &apperr.InvalidLocationError{Lat: lat, Lng: lng}
	}

	maxKm := m.defaultMaxKm
	if opts.MaxDistanceKm > 0 && opts.MaxDistanceKm < maxKm {
		maxKm = opts.MaxDistanceKm
	}

	devs, err := m.availability.GetAvailableDevelopers(ctx, &lat, &lng, maxKm)
	if err != nil {
		return nil, fmt.Errorf("failed to load available developers: %w", err)
	}

	candidates := make([]model.MatchCandidate, 0, len(devs))
	for _, d := range devs {
		if !d.HasLocation() {
			continue
		}

		distance := geo.HaversineKm(lat, lng, *d.Latitude, *d.Longitude)
		if distance > maxKm {
			continue
		}
		if opts.MinRating != nil && d.AverageRating < *opts.MinRating {
			continue
		}
		if opts.MaxHourlyRate != nil && d.HourlyRate > *opts.MaxHourlyRate {
			continue
		}

		candidates = append(candidates, model.MatchCandidate{
			DeveloperID:   d.DeveloperID,
			DistanceKm:    distance,
			HourlyRate:    d.HourlyRate,
			AverageRating: d.AverageRating,
		})
	}

	sortCandidates(candidates, opts.SortBy)

	logger.Debug("find_candidates",
		fmt.Sprintf("Found %d candidates within %.1f km of (%f, %f)", len(candidates), maxKm, lat, lng), "", "")
	return candidates, nil
}

// AssignNearest matches the request to the closest eligible developer and
// enacts the assignment. Callers that prefer manual selection call Assign on
// the lifecycle directly; both entry points are supported.
func (m *ProximityMatcher) AssignNearest(ctx context.Context, requestID string) (string, error) {
	lat, lng, err := m.requests.GetLocation(ctx, requestID)
	if err != nil {
		return "", fmt.Errorf("failed to locate request %s: %w", requestID, err)
	}

	candidates, err := m.FindCandidates(ctx, lat, lng, MatchOptions{SortBy: model.SortByDistance})
	if err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		logger.Info("assign_nearest", "No eligible developer in range, leaving request pending", "", requestID)
		return "", &apperr.NoCandidateError{RequestID: requestID}
	}

	nearest := candidates[0]
	if err := m.assigner.Assign(ctx, requestID, nearest.DeveloperID); err != nil {
		return "", err
	}

	logger.Info("assign_nearest",
		fmt.Sprintf("Assigned developer %s at %.2f km", nearest.DeveloperID, nearest.DistanceKm), "", requestID)
	return nearest.DeveloperID, nil
}

// sortCandidates orders in place; ties always fall back to developer id so
// results are reproducible.
func sortCandidates(candidates []model.MatchCandidate, key model.SortKey) {
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		switch key {
		case model.SortByRating:
			if a.AverageRating != b.AverageRating {
				return a.AverageRating > b.AverageRating
			}
		case model.SortByHourlyRate:
			if a.HourlyRate != b.HourlyRate {
				return a.HourlyRate < b.HourlyRate
			}
		default:
			if a.DistanceKm != b.DistanceKm {
				return a.DistanceKm < b.DistanceKm
			}
		}
		if a.DistanceKm != b.DistanceKm {
			return a.DistanceKm < b.DistanceKm
		}
		return a.DeveloperID < b.DeveloperID
	})
}
