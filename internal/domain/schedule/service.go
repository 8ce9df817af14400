package schedule

import (
	"context"
	"time"
)

type ScheduleService interface {
	// Apply replaces the employee's active weekly schedule in its own
	// transaction and announces the change after commit.
	Apply(ctx context.Context, req ApplyScheduleRequest) (ApplyScheduleResult, error)

	// ApplyWithin does the same inside the transaction already carried by
	// ctx and announces nothing; the caller publishes after its commit.
	ApplyWithin(ctx context.Context, req ApplyScheduleRequest) (ApplyScheduleResult, error)

	// Read side
	GetActive(ctx context.Context, employeeID string) (WeeklyScheduleResponse, error)
	GetEffective(ctx context.Context, employeeID string, date time.Time) (EffectiveScheduleResponse, error)
}
