package memory

import (
	"context"
	"time"

	"github.com/cmlabs-hris/schedule-core/internal/domain/employee"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/clock"
)

type employeeRepository struct {
	s *Store
}

func (r *employeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.check("employee.get"); err != nil {
		return employee.Employee{}, err
	}
	emp, ok := r.s.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return emp, nil
}

// LockByID reads the employee. Writers are already serialized by the
// transaction lock of the store.
func (r *employeeRepository) LockByID(ctx context.Context, id string) (employee.Employee, error) {
	return r.GetByID(ctx, id)
}

func (r *employeeRepository) UpdateCurrentTimes(ctx context.Context, id string, timeIn, timeOut *clock.TimeOfDay) error {
	defer r.s.begin(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("employee.update_current_times"); err != nil {
		return err
	}
	emp, ok := r.s.employees[id]
	if !ok {
		return employee.ErrEmployeeNotFound
	}
	emp.CurrentTimeIn = copyTime(timeIn)
	emp.CurrentTimeOut = copyTime(timeOut)
	emp.UpdatedAt = time.Now().UTC()
	r.s.employees[id] = emp
	return nil
}

func copyTime(t *clock.TimeOfDay) *clock.TimeOfDay {
	if t == nil {
		return nil
	}
	return t.Ptr()
}
