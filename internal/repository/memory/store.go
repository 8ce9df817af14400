// Package memory keeps every repository in process memory. It backs the
// memory storage driver and the service tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/cmlabs-hris/schedule-core/internal/domain/employee"
	"github.com/cmlabs-hris/schedule-core/internal/domain/holiday"
	"github.com/cmlabs-hris/schedule-core/internal/domain/notification"
	"github.com/cmlabs-hris/schedule-core/internal/domain/schedule"
	"github.com/cmlabs-hris/schedule-core/internal/domain/schedulerequest"
)

// Store holds the data of all memory repositories. Entities are stored by
// value and replaced whole, never mutated in place, so a shallow copy of the
// maps is a consistent snapshot.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	employees     map[string]employee.Employee
	schedules     map[string]schedule.WeeklySchedule
	requests      map[string]schedulerequest.ScheduleRequest
	notifications map[string]notification.Notification
	holidays      map[string]holiday.Holiday

	fault func(op string) error
}

func NewStore() *Store {
	return &Store{
		employees:     make(map[string]employee.Employee),
		schedules:     make(map[string]schedule.WeeklySchedule),
		requests:      make(map[string]schedulerequest.ScheduleRequest),
		notifications: make(map[string]notification.Notification),
		holidays:      make(map[string]holiday.Holiday),
	}
}

// SetFault makes every repository call consult fn first; a non-nil error is
// returned instead of running the operation. Pass nil to clear.
func (s *Store) SetFault(fn func(op string) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = fn
}

// check must be called with s.mu held.
func (s *Store) check(op string) error {
	if s.fault == nil {
		return nil
	}
	return s.fault(op)
}

type snapshot struct {
	employees     map[string]employee.Employee
	schedules     map[string]schedule.WeeklySchedule
	requests      map[string]schedulerequest.ScheduleRequest
	notifications map[string]notification.Notification
	holidays      map[string]holiday.Holiday
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		employees:     copyMap(s.employees),
		schedules:     copyMap(s.schedules),
		requests:      copyMap(s.requests),
		notifications: copyMap(s.notifications),
		holidays:      copyMap(s.holidays),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees = snap.employees
	s.schedules = snap.schedules
	s.requests = snap.requests
	s.notifications = snap.notifications
	s.holidays = snap.holidays
}

type txKey struct{}

// WithinTransaction implements database.Transactor. Transactions are
// serialized with each other and with writes outside them, and roll back by
// restoring the snapshot taken at begin. Reads are not isolated. Nested calls
// join the outer transaction.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(bool); ok {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	committed := false
	defer func() {
		if !committed {
			s.restore(snap)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		return err
	}
	committed = true
	return nil
}

// begin serializes a write made outside a transaction with running
// transactions, so a rollback never discards it. Writes inside a transaction
// already hold the lock.
func (s *Store) begin(ctx context.Context) func() {
	if _, ok := ctx.Value(txKey{}).(bool); ok {
		return func() {}
	}
	s.txMu.Lock()
	return s.txMu.Unlock
}

// PutEmployee seeds an employee.
func (s *Store) PutEmployee(emp employee.Employee) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if emp.CreatedAt.IsZero() {
		emp.CreatedAt = now
	}
	emp.UpdatedAt = now
	s.employees[emp.ID] = emp
}

func (s *Store) Employees() employee.EmployeeRepository { return &employeeRepository{s: s} }

func (s *Store) WeeklySchedules() schedule.WeeklyScheduleRepository {
	return &weeklyScheduleRepository{s: s}
}

func (s *Store) ScheduleRequests() schedulerequest.Repository {
	return &scheduleRequestRepository{s: s}
}

func (s *Store) Notifications() notification.Repository { return &notificationRepository{s: s} }

func (s *Store) Holidays() holiday.Repository { return &holidayRepository{s: s} }
