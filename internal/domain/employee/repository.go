package employee

import (
	"context"

	"github.com/cmlabs-hris/schedule-core/internal/pkg/clock"
)

// EmployeeRepository is the slice of the employee store this core needs.
// Employee CRUD lives elsewhere.
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	// LockByID reads the employee and, inside a transaction, holds its row
	// until commit so schedule writes for one employee queue up.
	LockByID(ctx context.Context, id string) (Employee, error)
	UpdateCurrentTimes(ctx context.Context, id string, timeIn, timeOut *clock.TimeOfDay) error
}
