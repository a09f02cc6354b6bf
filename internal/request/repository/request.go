package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Mwoyoungo/lokal-s-hub/internal/common/apperr"
	common "github.com/Mwoyoungo/lokal-s-hub/internal/common/model"
	"github.com/Mwoyoungo/lokal-s-hub/internal/request/model"

	"github.com/jackc/pgx/v5"
)

type RequestRepository struct {
	db *pgx.Conn
}

func NewRequestRepository(db *pgx.Conn) *RequestRepository {
	return &RequestRepository{db: db}
}

const requestColumns = `id, client_id, service_type, description, budget,
	latitude, longitude, address, status, matched_developer_id, created_at, updated_at`

func (r *RequestRepository) Insert(ctx context.Context, req model.ServiceRequest) (*model.ServiceRequest, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO service_requests
			(id, client_id, service_type, description, budget, latitude, longitude, address, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+requestColumns,
		req.ID, req.ClientID, req.ServiceType, req.Description, req.Budget,
		req.Latitude, req.Longitude, req.Address, req.Status,
	)
	return scanRequest(row)
}

func (r *RequestRepository) GetByID(ctx context.Context, id string) (*model.ServiceRequest, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+requestColumns+`
		FROM service_requests
		WHERE id = $1
	`, id)

	req, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	return req, err
}

// CompareAndSetStatus flips status and matched developer in one statement,
// gated on the status the caller observed. A zero-row update means the row is
// gone or someone else won the race.
func (r *RequestRepository) CompareAndSetStatus(ctx context.Context, id string, observed, next common.RequestStatus, developerID *string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE service_requests
		SET status = $3, matched_developer_id = $4, updated_at = now()
		WHERE id = $1 AND status = $2
	`, id, observed, next, developerID)
	if err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		current, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return getErr
		}
		return &apperr.ConcurrentModificationError{
			RequestID: id,
			Observed:  observed,
			Actual:    current.Status,
		}
	}

	return nil
}

func (r *RequestRepository) InsertEvent(ctx context.Context, event model.RequestEvent) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO request_events (id, request_id, event_type, event_data)
		VALUES ($1, $2, $3, $4)
	`, event.ID, event.RequestID, event.EventType, event.EventData)
	if err != nil {
		return fmt.Errorf("failed to insert request event: %w", err)
	}
	return nil
}

func (r *RequestRepository) ListPending(ctx context.Context) ([]model.ServiceRequest, error) {
	return r.list(ctx, `
		SELECT `+requestColumns+`
		FROM service_requests
		WHERE status = $1
		ORDER BY created_at DESC
	`, common.StatusPending)
}

func (r *RequestRepository) GetByClient(ctx context.Context, clientID string) ([]model.ServiceRequest, error) {
	return r.list(ctx, `
		SELECT `+requestColumns+`
		FROM service_requests
		WHERE client_id = $1
		ORDER BY created_at DESC
	`, clientID)
}

func (r *RequestRepository) GetByDeveloper(ctx context.Context, developerID string) ([]model.ServiceRequest, error) {
	return r.list(ctx, `
		SELECT `+requestColumns+`
		FROM service_requests
		WHERE matched_developer_id = $1
		ORDER BY created_at DESC
	`, developerID)
}

func (r *RequestRepository) list(ctx context.Context, query string, args ...interface{}) ([]model.ServiceRequest, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var result []model.ServiceRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate requests: %w", err)
	}
	return result, nil
}

func scanRequest(row pgx.Row) (*model.ServiceRequest, error) {
	var req model.ServiceRequest
	var status string
	err := row.Scan(&req.ID, &req.ClientID, &req.ServiceType, &req.Description,
		&req.Budget, &req.Latitude, &req.Longitude, &req.Address,
		&status, &req.DeveloperID, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, fmt.Errorf("failed to scan request: %w", err)
	}

	// Legacy rows carried mixed-case status values; normalize on load.
	req.Status = common.RequestStatus(strings.ToLower(strings.TrimSpace(status)))
	return &req, nil
}
