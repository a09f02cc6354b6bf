package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Mwoyoungo/lokal-s-hub/internal/common/apperr"
	"github.com/Mwoyoungo/lokal-s-hub/internal/common/auth"
	"github.com/Mwoyoungo/lokal-s-hub/internal/common/logger"
	"github.com/Mwoyoungo/lokal-s-hub/internal/common/model"
	matchmodel "github.com/Mwoyoungo/lokal-s-hub/internal/matching/model"
	matching "github.com/Mwoyoungo/lokal-s-hub/internal/matching/service"
	"github.com/Mwoyoungo/lokal-s-hub/internal/request/handler/dto"
	reqmodel "github.com/Mwoyoungo/lokal-s-hub/internal/request/model"
	"github.com/Mwoyoungo/lokal-s-hub/internal/request/service"

	"github.com/go-playground/validator/v10"
)

type RequestHandler struct {
	lifecycle  *service.RequestLifecycle
	matcher    *matching.ProximityMatcher
	jwtManager *auth.Manager
	validate   *validator.Validate
}

func NewHandler(lifecycle *service.RequestLifecycle, matcher *matching.ProximityMatcher, jwtManager *auth.Manager) *RequestHandler {
	return &RequestHandler{
		lifecycle:  lifecycle,
		matcher:    matcher,
		jwtManager: jwtManager,
		validate:   validator.New(),
	}
}

func (h *RequestHandler) claims(w http.ResponseWriter, r *http.Request, role model.Role) (*auth.Claims, bool) {
	claims := auth.FromContext(r)
	if claims == nil {
		var err error
		claims, err = h.jwtManager.ExtractClaims(r)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return nil, false
		}
	}
	if strings.TrimSpace(claims.Role) != string(role) {
		http.Error(w, "forbidden: not authorized", http.StatusUnauthorized)
		return nil, false
	}
	return claims, true
}

func (h *RequestHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	const action = "create_request"
	requestID := r.Header.Get("X-Request-ID")

	claims, ok := h.claims(w, r, model.RoleClient)
	if !ok {
		return
	}

	var req dto.CreateRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error(action, "invalid JSON in request body", requestID, "", err.Error())
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.lifecycle.CreateRequest(r.Context(), service.CreateRequestInput{
		ClientID:    claims.UserID,
		ServiceType: req.ServiceType,
		Description: req.Description,
		Budget:      req.Budget,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Address:     req.Address,
	})
	if err != nil {
		logger.Error(action, "failed to create request", requestID, "", err.Error())
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	logger.Info(action, "request created successfully", requestID, created.ID)
	writeJSON(w, http.StatusCreated, dto.FromRequest(created))
}

func (h *RequestHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("request_id")
	if id == "" {
		http.Error(w, "request_id is required", http.StatusBadRequest)
		return
	}

	req, err := h.lifecycle.Get(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, dto.FromRequest(req))
}

// Assign is the manual-selection entry point: the client picks a developer
// from a list and assigns directly.
func (h *RequestHandler) Assign(w http.ResponseWriter, r *http.Request) {
	const action = "assign"
	id := r.PathValue("request_id")

	if _, ok := h.claims(w, r, model.RoleClient); !ok {
		return
	}

	var req dto.AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.lifecycle.Assign(r.Context(), id, req.DeveloperID); err != nil {
		logger.Error(action, "failed to assign developer", "", id, err.Error())
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, dto.MatchResponse{
		RequestID:   id,
		DeveloperID: req.DeveloperID,
		Status:      string(model.StatusAssigned),
	})
}

// Match is the automatic entry point: the nearest eligible developer wins.
func (h *RequestHandler) Match(w http.ResponseWriter, r *http.Request) {
	const action = "match"
	id := r.PathValue("request_id")

	if _, ok := h.claims(w, r, model.RoleClient); !ok {
		return
	}

	developerID, err := h.matcher.AssignNearest(r.Context(), id)
	if err != nil {
		logger.Warn(action, "automatic matching failed", "", id, err.Error())
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, dto.MatchResponse{
		RequestID:   id,
		DeveloperID: developerID,
		Status:      string(model.StatusAssigned),
	})
}

// Candidates exposes the ranked list so clients can pick manually.
func (h *RequestHandler) Candidates(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("request_id")

	if _, ok := h.claims(w, r, model.RoleClient); !ok {
		return
	}

	req, err := h.lifecycle.Get(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	opts := matching.MatchOptions{SortBy: matchmodel.SortKey(r.URL.Query().Get("sort_by"))}
	if v := r.URL.Query().Get("max_distance_km"); v != "" {
		maxKm, err := strconv.ParseFloat(v, 64)
		if err != nil || maxKm <= 0 {
			http.Error(w, "invalid max_distance_km", http.StatusBadRequest)
			return
		}
		opts.MaxDistanceKm = maxKm
	}
	if v := r.URL.Query().Get("min_rating"); v != "" {
		minRating, err := strconv.ParseFloat(v, 64)
		if err != nil {
			http.Error(w, "invalid min_rating", http.StatusBadRequest)
			return
		}
		opts.MinRating = &minRating
	}
	if v := r.URL.Query().Get("max_hourly_rate"); v != "" {
		maxRate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			http.Error(w, "invalid max_hourly_rate", http.StatusBadRequest)
			return
		}
		opts.MaxHourlyRate = &maxRate
	}

	candidates, err := h.matcher.FindCandidates(r.Context(), req.Latitude, req.Longitude, opts)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	resp := make([]dto.CandidateResponse, 0, len(candidates))
	for _, c := range candidates {
		resp = append(resp, dto.CandidateResponse{
			DeveloperID:   c.DeveloperID,
			DistanceKm:    c.DistanceKm,
			HourlyRate:    c.HourlyRate,
			AverageRating: c.AverageRating,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *RequestHandler) Respond(w http.ResponseWriter, r *http.Request) {
	const action = "respond"
	id := r.PathValue("request_id")

	claims, ok := h.claims(w, r, model.RoleDeveloper)
	if !ok {
		return
	}

	var req dto.RespondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.lifecycle.RespondToAssignment(r.Context(), id, claims.UserID, *req.Accept); err != nil {
		logger.Error(action, "failed to respond to assignment", "", id, err.Error())
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	status := model.StatusAccepted
	if !*req.Accept {
		status = model.StatusRejected
	}
	writeJSON(w, http.StatusOK, dto.MatchResponse{RequestID: id, DeveloperID: claims.UserID, Status: string(status)})
}

func (h *RequestHandler) StartWork(w http.ResponseWriter, r *http.Request) {
	h.developerTransition(w, r, "start_work", h.lifecycle.StartWork, model.StatusInProgress)
}

func (h *RequestHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.developerTransition(w, r, "complete", h.lifecycle.Complete, model.StatusCompleted)
}

func (h *RequestHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	const action = "cancel"
	id := r.PathValue("request_id")

	claims, ok := h.claims(w, r, model.RoleClient)
	if !ok {
		return
	}

	if err := h.lifecycle.Cancel(r.Context(), id, claims.UserID); err != nil {
		logger.Error(action, "failed to cancel request", "", id, err.Error())
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, dto.MatchResponse{RequestID: id, Status: string(model.StatusCancelled)})
}

func (h *RequestHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.claims(w, r, model.RoleDeveloper); !ok {
		return
	}

	requests, err := h.lifecycle.ListPending(r.Context())
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, toResponses(requests))
}

// ListMine returns the caller's own requests: posted ones for clients,
// matched ones for developers.
func (h *RequestHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r)
	if claims == nil {
		var err error
		claims, err = h.jwtManager.ExtractClaims(r)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
	}

	var err error
	var requests []reqmodel.ServiceRequest
	switch strings.TrimSpace(claims.Role) {
	case string(model.RoleClient):
		requests, err = h.lifecycle.GetByClient(r.Context(), claims.UserID)
	case string(model.RoleDeveloper):
		requests, err = h.lifecycle.GetByDeveloper(r.Context(), claims.UserID)
	default:
		http.Error(w, "forbidden: not authorized", http.StatusUnauthorized)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, toResponses(requests))
}

func (h *RequestHandler) developerTransition(
	w http.ResponseWriter,
	r *http.Request,
	action string,
	transition func(ctx context.Context, requestID, developerID string) error,
	target model.RequestStatus,
) {
	id := r.PathValue("request_id")

	claims, ok := h.claims(w, r, model.RoleDeveloper)
	if !ok {
		return
	}

	if err := transition(r.Context(), id, claims.UserID); err != nil {
		logger.Error(action, "transition failed", "", id, err.Error())
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, dto.MatchResponse{RequestID: id, DeveloperID: claims.UserID, Status: string(target)})
}

func toResponses(requests []reqmodel.ServiceRequest) []dto.RequestResponse {
	resp := make([]dto.RequestResponse, 0, len(requests))
	for i := range requests {
		resp = append(resp, dto.FromRequest(&requests[i]))
	}
	return resp
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrInvalidLocation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrInvalidTransition), errors.Is(err, apperr.ErrConcurrentModification):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrNoCandidate):
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
		logger.Error("write_json", "failed to encode response", "", "", err.Error())
	}
}
