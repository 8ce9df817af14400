package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/schedule-core/internal/domain/employee"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/clock"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

const employeeColumns = `
	id, employee_code, full_name, employment_class, base_template,
	to_char(current_time_in, 'HH24:MI'), to_char(current_time_out, 'HH24:MI'),
	created_at, updated_at
`

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var (
		emp             employee.Employee
		templateJSON    []byte
		timeIn, timeOut *string
	)
	err := row.Scan(
		&emp.ID, &emp.EmployeeCode, &emp.FullName, &emp.EmploymentClass, &templateJSON,
		&timeIn, &timeOut,
		&emp.CreatedAt, &emp.UpdatedAt,
	)
	if err != nil {
		return employee.Employee{}, err
	}
	if err := emp.BaseTemplate.Scan(templateJSON); err != nil {
		return employee.Employee{}, fmt.Errorf("employee %s base template: %w", emp.ID, err)
	}
	if emp.CurrentTimeIn, err = parseTimeOfDay(timeIn); err != nil {
		return employee.Employee{}, err
	}
	if emp.CurrentTimeOut, err = parseTimeOfDay(timeOut); err != nil {
		return employee.Employee{}, err
	}
	return emp, nil
}

// GetByID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`

	emp, err := scanEmployee(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee %s: %w", id, err)
	}
	return emp, nil
}

// LockByID implements employee.EmployeeRepository. It must run inside a
// transaction; the row stays locked until that transaction ends.
func (e *employeeRepositoryImpl) LockByID(ctx context.Context, id string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1 FOR UPDATE`

	emp, err := scanEmployee(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to lock employee %s: %w", id, err)
	}
	return emp, nil
}

// UpdateCurrentTimes implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) UpdateCurrentTimes(ctx context.Context, id string, timeIn, timeOut *clock.TimeOfDay) error {
	q := GetQuerier(ctx, e.db)

	query := `
		UPDATE employees
		SET current_time_in = $1::time, current_time_out = $2::time, updated_at = NOW()
		WHERE id = $3
	`

	commandTag, err := q.Exec(ctx, query, formatTimeOfDay(timeIn), formatTimeOfDay(timeOut), id)
	if err != nil {
		return fmt.Errorf("failed to update current times for employee %s: %w", id, err)
	}
	if commandTag.RowsAffected() != 1 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

func parseTimeOfDay(s *string) (*clock.TimeOfDay, error) {
	if s == nil {
		return nil, nil
	}
	t, err := clock.ParseTimeOfDay(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatTimeOfDay(t *clock.TimeOfDay) *string {
	if t == nil {
		return nil
	}
	s := t.String()
	return &s
}
