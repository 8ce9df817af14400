package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/schedule-core/internal/domain/employee"
	"github.com/cmlabs-hris/schedule-core/internal/domain/notification"
	"github.com/cmlabs-hris/schedule-core/internal/domain/schedule"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/clock"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/database"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/keylock"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/validator"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/cmlabs-hris/schedule-core/internal/service/schedule")

// Broadcaster is the part of the notification service used to announce
// schedule changes.
type Broadcaster interface {
	Broadcast(event string, data interface{})
}

type scheduleServiceImpl struct {
	transactor   database.Transactor
	employeeRepo employee.EmployeeRepository
	scheduleRepo schedule.WeeklyScheduleRepository
	broadcaster  Broadcaster
	locks        *keylock.Map
	location     *time.Location
	logger       *slog.Logger
	now          func() time.Time
}

// Option configures the schedule service.
type Option func(*scheduleServiceImpl)

// WithLocation sets the zone used to pick "today" for the denormalized
// current hours. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *scheduleServiceImpl) { s.location = loc }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *scheduleServiceImpl) { s.now = now }
}

func NewScheduleService(
	transactor database.Transactor,
	employeeRepo employee.EmployeeRepository,
	scheduleRepo schedule.WeeklyScheduleRepository,
	broadcaster Broadcaster,
	logger *slog.Logger,
	opts ...Option,
) schedule.ScheduleService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &scheduleServiceImpl{
		transactor:   transactor,
		employeeRepo: employeeRepo,
		scheduleRepo: scheduleRepo,
		broadcaster:  broadcaster,
		locks:        keylock.New(),
		location:     time.UTC,
		logger:       logger,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Apply implements schedule.ScheduleService.
func (s *scheduleServiceImpl) Apply(ctx context.Context, req schedule.ApplyScheduleRequest) (schedule.ApplyScheduleResult, error) {
	ctx, span := tracer.Start(ctx, "schedule.Apply", trace.WithAttributes(attribute.String("employee.id", req.EmployeeID)))
	defer span.End()

	// The key lock is taken before the transaction so that it always precedes
	// the employee row lock. ApplyWithin never takes it.
	unlock := s.locks.Lock(req.EmployeeID)
	defer unlock()

	var result schedule.ApplyScheduleResult
	err := s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.ApplyWithin(ctx, req)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return schedule.ApplyScheduleResult{}, err
	}

	if s.broadcaster != nil {
		s.broadcaster.Broadcast(notification.EventScheduleUpdated, map[string]interface{}{
			"employee_id": req.EmployeeID,
			"schedule_id": result.Schedule.ID,
		})
	}
	return result, nil
}

// ApplyWithin implements schedule.ScheduleService. Writers for one employee
// are serialized by the row lock taken in the caller's transaction; callers
// may already hold that row lock.
func (s *scheduleServiceImpl) ApplyWithin(ctx context.Context, req schedule.ApplyScheduleRequest) (schedule.ApplyScheduleResult, error) {
	if err := req.Validate(); err != nil {
		return schedule.ApplyScheduleResult{}, err
	}

	emp, err := s.employeeRepo.LockByID(ctx, req.EmployeeID)
	if err != nil {
		return schedule.ApplyScheduleResult{}, err
	}

	days, notices, err := buildDays(req.Days, emp.EmploymentClass)
	if err != nil {
		return schedule.ApplyScheduleResult{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return schedule.ApplyScheduleResult{}, fmt.Errorf("failed to generate weekly schedule id: %w", err)
	}

	scheduleType := schedule.ScheduleTypeTemporary
	if req.Permanent {
		scheduleType = schedule.ScheduleTypeRegular
	}
	ws := schedule.WeeklySchedule{
		ID:              id.String(),
		EmployeeID:      emp.ID,
		ScheduleType:    scheduleType,
		Days:            days,
		SourceRequestID: req.SourceRequestID,
		CreatedAt:       s.now().UTC(),
	}
	if !validator.IsEmpty(req.AppliedBy) {
		appliedBy := req.AppliedBy
		ws.AppliedBy = &appliedBy
	}

	saved, err := s.scheduleRepo.ReplaceActive(ctx, ws)
	if err != nil {
		return schedule.ApplyScheduleResult{}, fmt.Errorf("failed to replace weekly schedule: %w", err)
	}

	timeIn, timeOut := s.currentHours(emp, &saved)
	if err := s.employeeRepo.UpdateCurrentTimes(ctx, emp.ID, timeIn, timeOut); err != nil {
		return schedule.ApplyScheduleResult{}, fmt.Errorf("failed to update employee current hours: %w", err)
	}

	for _, n := range notices {
		s.logger.Warn("break window clamped to policy",
			slog.String("employee_id", emp.ID),
			slog.String("weekday", n.Weekday.String()),
			slog.String("requested_break_end", n.RequestedTo.String()),
			slog.String("clamped_break_end", n.ClampedTo.String()),
		)
	}

	return schedule.ApplyScheduleResult{
		Schedule: schedule.ToWeeklyResponse(emp.ID, &saved, weekView(emp, &saved)),
		Notices:  notices,
	}, nil
}

// buildDays turns the admin's overrides into stored day entries, passing
// every break through the policy of the employee's class.
func buildDays(overrides map[clock.Weekday]*schedule.DayOverride, class employee.EmploymentClass) (schedule.Days, []schedule.PolicyNotice, error) {
	days := make(schedule.Days, 7)
	var (
		notices []schedule.PolicyNotice
		errs    validator.ValidationErrors
	)

	for _, wd := range clock.AllWeekdays() {
		o := overrides[wd]
		switch {
		case o == nil || !o.Enabled:
			days[wd] = schedule.DayEntry{UseDefault: true}
			continue
		case o.IsDayOff:
			days[wd] = schedule.DayEntry{IsDayOff: true}
			continue
		}

		entry := schedule.DayEntry{TimeIn: o.TimeIn.Ptr(), TimeOut: o.TimeOut.Ptr()}
		if o.HasBreak {
			field := "days." + wd.String() + ".break_end"
			res, err := schedule.ValidateBreak(*o.BreakStart, *o.BreakEnd, class)
			if err != nil {
				errs.Add(field, schedule.ErrInvalidBreakWindow.Error())
				continue
			}
			if res.End.After(o.TimeOut) {
				errs.Add(field, "break must end before time_out")
				continue
			}
			if res.Adjusted {
				notices = append(notices, res.Notice(wd, *o.BreakEnd))
			}
			entry.HasBreak = true
			entry.BreakStart = res.Start.Ptr()
			entry.BreakEnd = res.End.Ptr()
		}
		days[wd] = entry
	}

	if err := errs.Err(); err != nil {
		return nil, nil, err
	}
	return days, notices, nil
}

// currentHours picks the hours shown on list screens: today's effective
// window, or the first working weekday when today is off.
func (s *scheduleServiceImpl) currentHours(emp employee.Employee, ws *schedule.WeeklySchedule) (*clock.TimeOfDay, *clock.TimeOfDay) {
	today := schedule.Resolve(emp, ws, s.now().In(s.location))
	if !today.IsDayOff {
		return today.TimeIn.Ptr(), today.TimeOut.Ptr()
	}
	for _, wd := range clock.AllWeekdays() {
		eff := schedule.ResolveWeekday(emp, ws, wd)
		if !eff.IsDayOff {
			return eff.TimeIn.Ptr(), eff.TimeOut.Ptr()
		}
	}
	return nil, nil
}

func weekView(emp employee.Employee, ws *schedule.WeeklySchedule) map[clock.Weekday]schedule.EffectiveSchedule {
	view := make(map[clock.Weekday]schedule.EffectiveSchedule, 7)
	for _, wd := range clock.AllWeekdays() {
		view[wd] = schedule.ResolveWeekday(emp, ws, wd)
	}
	return view
}

// active returns the employee's active schedule, or nil when there is none.
func (s *scheduleServiceImpl) active(ctx context.Context, employeeID string) (*schedule.WeeklySchedule, error) {
	ws, err := s.scheduleRepo.GetActiveByEmployeeID(ctx, employeeID)
	if errors.Is(err, schedule.ErrWeeklyScheduleNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

// GetActive implements schedule.ScheduleService.
func (s *scheduleServiceImpl) GetActive(ctx context.Context, employeeID string) (schedule.WeeklyScheduleResponse, error) {
	emp, err := s.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		return schedule.WeeklyScheduleResponse{}, err
	}
	ws, err := s.active(ctx, employeeID)
	if err != nil {
		return schedule.WeeklyScheduleResponse{}, err
	}
	return schedule.ToWeeklyResponse(emp.ID, ws, weekView(emp, ws)), nil
}

// GetEffective implements schedule.ScheduleService.
func (s *scheduleServiceImpl) GetEffective(ctx context.Context, employeeID string, date time.Time) (schedule.EffectiveScheduleResponse, error) {
	emp, err := s.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		return schedule.EffectiveScheduleResponse{}, err
	}
	ws, err := s.active(ctx, employeeID)
	if err != nil {
		return schedule.EffectiveScheduleResponse{}, err
	}
	return schedule.ToEffectiveResponse(emp.ID, schedule.Resolve(emp, ws, date)), nil
}
