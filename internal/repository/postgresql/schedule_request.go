package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/schedule-core/internal/domain/schedulerequest"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type scheduleRequestRepositoryImpl struct {
	db *database.DB
}

func NewScheduleRequestRepository(db *database.DB) schedulerequest.Repository {
	return &scheduleRequestRepositoryImpl{db: db}
}

const scheduleRequestColumns = `
	id, employee_id, requester_name, days, status, admin_remarks, processed_by, processed_at, created_at, updated_at
`

func scanScheduleRequest(row pgx.Row) (schedulerequest.ScheduleRequest, error) {
	var (
		sr       schedulerequest.ScheduleRequest
		daysJSON []byte
	)
	err := row.Scan(
		&sr.ID, &sr.EmployeeID, &sr.RequesterName, &daysJSON, &sr.Status,
		&sr.AdminRemarks, &sr.ProcessedBy, &sr.ProcessedAt, &sr.CreatedAt, &sr.UpdatedAt,
	)
	if err != nil {
		return schedulerequest.ScheduleRequest{}, err
	}
	if err := sr.Days.Scan(daysJSON); err != nil {
		return schedulerequest.ScheduleRequest{}, fmt.Errorf("schedule request %s days: %w", sr.ID, err)
	}
	return sr, nil
}

// Create implements schedulerequest.Repository.
func (r *scheduleRequestRepositoryImpl) Create(ctx context.Context, req schedulerequest.ScheduleRequest) (schedulerequest.ScheduleRequest, error) {
	q := GetQuerier(ctx, r.db)

	daysJSON, err := json.Marshal(req.Days)
	if err != nil {
		return schedulerequest.ScheduleRequest{}, fmt.Errorf("failed to marshal schedule request days: %w", err)
	}

	query := `
		INSERT INTO schedule_requests (
			id, employee_id, requester_name, days, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING ` + scheduleRequestColumns

	created, err := scanScheduleRequest(q.QueryRow(ctx, query,
		req.ID,
		req.EmployeeID,
		req.RequesterName,
		daysJSON,
		req.Status,
		req.CreatedAt,
	))
	if err != nil {
		return schedulerequest.ScheduleRequest{}, fmt.Errorf("failed to create schedule request: %w", err)
	}
	return created, nil
}

// GetByID implements schedulerequest.Repository.
func (r *scheduleRequestRepositoryImpl) GetByID(ctx context.Context, id string) (schedulerequest.ScheduleRequest, error) {
	if !isUUID(id) {
		return schedulerequest.ScheduleRequest{}, schedulerequest.ErrScheduleRequestNotFound
	}
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + scheduleRequestColumns + ` FROM schedule_requests WHERE id = $1`

	sr, err := scanScheduleRequest(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedulerequest.ScheduleRequest{}, schedulerequest.ErrScheduleRequestNotFound
		}
		return schedulerequest.ScheduleRequest{}, fmt.Errorf("failed to get schedule request %s: %w", id, err)
	}
	return sr, nil
}

// List implements schedulerequest.Repository. Rows come back in display order.
func (r *scheduleRequestRepositoryImpl) List(ctx context.Context, filter schedulerequest.ListFilter) ([]schedulerequest.ScheduleRequest, error) {
	q := GetQuerier(ctx, r.db)

	var (
		conditions []string
		args       []interface{}
	)
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		conditions = append(conditions, fmt.Sprintf("employee_id = $%d", len(args)))
	}

	query := `SELECT ` + scheduleRequestColumns + ` FROM schedule_requests`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY (status = 'pending') DESC, created_at DESC, id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule requests: %w", err)
	}
	defer rows.Close()

	var requests []schedulerequest.ScheduleRequest
	for rows.Next() {
		sr, err := scanScheduleRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}

// UpdateStatusIfPending implements schedulerequest.Repository. The status
// predicate in the UPDATE makes concurrent dispositions race on the row; the
// loser matches nothing.
func (r *scheduleRequestRepositoryImpl) UpdateStatusIfPending(ctx context.Context, id string, d schedulerequest.Disposition) (schedulerequest.ScheduleRequest, error) {
	if !isUUID(id) {
		return schedulerequest.ScheduleRequest{}, schedulerequest.ErrScheduleRequestNotFound
	}
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE schedule_requests
		SET status = $2, processed_by = $3, admin_remarks = $4, processed_at = $5, updated_at = $5
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + scheduleRequestColumns

	sr, err := scanScheduleRequest(q.QueryRow(ctx, query, id, d.Status, d.ProcessedBy, d.AdminRemarks, d.ProcessedAt))
	if err == nil {
		return sr, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return schedulerequest.ScheduleRequest{}, fmt.Errorf("failed to dispose schedule request %s: %w", id, err)
	}

	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM schedule_requests WHERE id = $1)`, id).Scan(&exists); err != nil {
		return schedulerequest.ScheduleRequest{}, fmt.Errorf("failed to check schedule request %s: %w", id, err)
	}
	if !exists {
		return schedulerequest.ScheduleRequest{}, schedulerequest.ErrScheduleRequestNotFound
	}
	return schedulerequest.ScheduleRequest{}, schedulerequest.ErrInvalidTransition
}
