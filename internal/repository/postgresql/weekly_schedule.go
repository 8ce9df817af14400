package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/schedule-core/internal/domain/schedule"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type weeklyScheduleRepositoryImpl struct {
	db *database.DB
}

func NewWeeklyScheduleRepository(db *database.DB) schedule.WeeklyScheduleRepository {
	return &weeklyScheduleRepositoryImpl{db: db}
}

func scanWeeklySchedule(row pgx.Row) (schedule.WeeklySchedule, error) {
	var (
		ws       schedule.WeeklySchedule
		daysJSON []byte
	)
	err := row.Scan(
		&ws.ID, &ws.EmployeeID, &ws.ScheduleType, &daysJSON,
		&ws.AppliedBy, &ws.SourceRequestID, &ws.CreatedAt, &ws.UpdatedAt,
	)
	if err != nil {
		return schedule.WeeklySchedule{}, err
	}
	if err := ws.Days.Scan(daysJSON); err != nil {
		return schedule.WeeklySchedule{}, fmt.Errorf("weekly schedule %s days: %w", ws.ID, err)
	}
	return ws, nil
}

// GetActiveByEmployeeID implements schedule.WeeklyScheduleRepository.
func (w *weeklyScheduleRepositoryImpl) GetActiveByEmployeeID(ctx context.Context, employeeID string) (schedule.WeeklySchedule, error) {
	q := GetQuerier(ctx, w.db)

	query := `
		SELECT id, employee_id, schedule_type, days, applied_by, source_request_id, created_at, updated_at
		FROM weekly_schedules
		WHERE employee_id = $1
	`

	ws, err := scanWeeklySchedule(q.QueryRow(ctx, query, employeeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.WeeklySchedule{}, schedule.ErrWeeklyScheduleNotFound
		}
		return schedule.WeeklySchedule{}, fmt.Errorf("failed to get weekly schedule for employee %s: %w", employeeID, err)
	}
	return ws, nil
}

// ReplaceActive implements schedule.WeeklyScheduleRepository. The delete and
// insert must share a transaction for the swap to be atomic.
func (w *weeklyScheduleRepositoryImpl) ReplaceActive(ctx context.Context, ws schedule.WeeklySchedule) (schedule.WeeklySchedule, error) {
	q := GetQuerier(ctx, w.db)

	daysJSON, err := json.Marshal(ws.Days)
	if err != nil {
		return schedule.WeeklySchedule{}, fmt.Errorf("failed to marshal weekly schedule days: %w", err)
	}

	if _, err := q.Exec(ctx, `DELETE FROM weekly_schedules WHERE employee_id = $1`, ws.EmployeeID); err != nil {
		return schedule.WeeklySchedule{}, fmt.Errorf("failed to delete active weekly schedule: %w", err)
	}

	query := `
		INSERT INTO weekly_schedules (
			id, employee_id, schedule_type, days, applied_by, source_request_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING id, employee_id, schedule_type, days, applied_by, source_request_id, created_at, updated_at
	`

	created, err := scanWeeklySchedule(q.QueryRow(ctx, query,
		ws.ID,
		ws.EmployeeID,
		ws.ScheduleType,
		daysJSON,
		ws.AppliedBy,
		ws.SourceRequestID,
		ws.CreatedAt,
	))
	if err != nil {
		return schedule.WeeklySchedule{}, fmt.Errorf("failed to insert weekly schedule: %w", err)
	}
	return created, nil
}
