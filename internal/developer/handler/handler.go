package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Mwoyoungo/lokal-s-hub/internal/common/apperr"
	"github.com/Mwoyoungo/lokal-s-hub/internal/common/auth"
	"github.com/Mwoyoungo/lokal-s-hub/internal/common/logger"
	"github.com/Mwoyoungo/lokal-s-hub/internal/common/model"
	"github.com/Mwoyoungo/lokal-s-hub/internal/developer/handler/dto"
	"github.com/Mwoyoungo/lokal-s-hub/internal/developer/service"

	"github.com/go-playground/validator/v10"
)

type DeveloperHandler struct {
	registry   *service.AvailabilityRegistry
	jwtManager *auth.Manager
	validate   *validator.Validate
}

func NewHandler(registry *service.AvailabilityRegistry, jwtManager *auth.Manager) *DeveloperHandler {
	return &DeveloperHandler{
		registry:   registry,
		jwtManager: jwtManager,
		validate:   validator.New(),
	}
}

func (h *DeveloperHandler) authorizeDeveloper(w http.ResponseWriter, r *http.Request, developerID string) bool {
	claims := auth.FromContext(r)
	if claims == nil {
		var err error
		claims, err = h.jwtManager.ExtractClaims(r)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return false
		}
	}
	if strings.TrimSpace(claims.Role) != string(model.RoleDeveloper) {
		http.Error(w, "forbidden: not a developer", http.StatusUnauthorized)
		return false
	}
	if strings.TrimSpace(claims.UserID) != strings.TrimSpace(developerID) {
		http.Error(w, "forbidden: token does not match developer", http.StatusForbidden)
		return false
	}
	return true
}

func (h *DeveloperHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	const action = "set_availability"
	developerID := r.PathValue("developer_id")

	if !h.authorizeDeveloper(w, r, developerID) {
		return
	}

	var req dto.AvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn(action, "Invalid request body", "", developerID, err.Error())
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.registry.SetAvailability(r.Context(), developerID, *req.Available); err != nil {
		logger.Error(action, "Failed to set availability", "", developerID, err.Error())
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	message := "You are now available for new requests"
	if !*req.Available {
		message = "You will no longer receive new requests"
	}

	writeJSON(w, http.StatusOK, dto.AvailabilityResponse{
		DeveloperID: developerID,
		Available:   *req.Available,
		Message:     message,
	})
}

func (h *DeveloperHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	const action = "update_location"
	developerID := r.PathValue("developer_id")

	if !h.authorizeDeveloper(w, r, developerID) {
		return
	}

	var req dto.LocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn(action, "Invalid request body", "", developerID, err.Error())
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.registry.UpdateLocation(r.Context(), developerID, req.Latitude, req.Longitude); err != nil {
		logger.Error(action, "Failed to update location", "", developerID, err.Error())
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, dto.LocationResponse{
		DeveloperID: developerID,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Message:     "Location updated",
	})
}

func (h *DeveloperHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	const action = "list_available"

	var centerLat, centerLng *float64
	radiusKm := 0.0

	if latStr := r.URL.Query().Get("lat"); latStr != "" {
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			http.Error(w, "invalid lat", http.StatusBadRequest)
			return
		}
		centerLat = &lat
	}
	if lngStr := r.URL.Query().Get("lng"); lngStr != "" {
		lng, err := strconv.ParseFloat(lngStr, 64)
		if err != nil {
			http.Error(w, "invalid lng", http.StatusBadRequest)
			return
		}
		centerLng = &lng
	}
	if (centerLat == nil) != (centerLng == nil) {
		http.Error(w, "lat and lng must be supplied together", http.StatusBadRequest)
		return
	}
	if radStr := r.URL.Query().Get("radius_km"); radStr != "" {
		rad, err := strconv.ParseFloat(radStr, 64)
		if err != nil || rad < 0 {
			http.Error(w, "invalid radius_km", http.StatusBadRequest)
			return
		}
		radiusKm = rad
	}

	devs, err := h.registry.GetAvailableDevelopers(r.Context(), centerLat, centerLng, radiusKm)
	if err != nil {
		logger.Error(action, "Failed to list available developers", "", "", err.Error())
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	resp := make([]dto.AvailableDeveloper, 0, len(devs))
	for _, d := range devs {
		entry := dto.AvailableDeveloper{
			DeveloperID:   d.DeveloperID,
			HourlyRate:    d.HourlyRate,
			AverageRating: d.AverageRating,
		}
		if d.Latitude != nil {
			entry.Latitude = *d.Latitude
		}
		if d.Longitude != nil {
			entry.Longitude = *d.Longitude
		}
		resp = append(resp, entry)
	}

	writeJSON(w, http.StatusOK, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrInvalidLocation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrDependency):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("write_json", "Failed to encode response", "", "", err.Error())
	}
}
