package schedule

import (
	"context"
)

type WeeklyScheduleRepository interface {
	// GetActiveByEmployeeID returns ErrWeeklyScheduleNotFound when the
	// employee has no override set.
	GetActiveByEmployeeID(ctx context.Context, employeeID string) (WeeklySchedule, error)
	// ReplaceActive drops the current active record and stores ws in its place.
	ReplaceActive(ctx context.Context, ws WeeklySchedule) (WeeklySchedule, error)
}
