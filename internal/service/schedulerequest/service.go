package schedulerequest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/schedule-core/internal/domain/employee"
	"github.com/cmlabs-hris/schedule-core/internal/domain/notification"
	"github.com/cmlabs-hris/schedule-core/internal/domain/schedule"
	"github.com/cmlabs-hris/schedule-core/internal/domain/schedulerequest"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/database"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/keylock"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/validator"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/cmlabs-hris/schedule-core/internal/service/schedulerequest")

const entityType = "schedule_request"

type scheduleRequestServiceImpl struct {
	transactor          database.Transactor
	requestRepo         schedulerequest.Repository
	employeeRepo        employee.EmployeeRepository
	scheduleRepo        schedule.WeeklyScheduleRepository
	scheduleService     schedule.ScheduleService
	notificationService notification.Service
	locks               *keylock.Map
	logger              *slog.Logger
	now                 func() time.Time
}

func NewScheduleRequestService(
	transactor database.Transactor,
	requestRepo schedulerequest.Repository,
	employeeRepo employee.EmployeeRepository,
	scheduleRepo schedule.WeeklyScheduleRepository,
	scheduleService schedule.ScheduleService,
	notificationService notification.Service,
	logger *slog.Logger,
) schedulerequest.Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &scheduleRequestServiceImpl{
		transactor:          transactor,
		requestRepo:         requestRepo,
		employeeRepo:        employeeRepo,
		scheduleRepo:        scheduleRepo,
		scheduleService:     scheduleService,
		notificationService: notificationService,
		locks:               keylock.New(),
		logger:              logger,
		now:                 time.Now,
	}
}

// Submit implements schedulerequest.Service.
func (s *scheduleRequestServiceImpl) Submit(ctx context.Context, req schedulerequest.CreateScheduleRequestRequest) (schedulerequest.ScheduleRequestResponse, error) {
	ctx, span := tracer.Start(ctx, "schedulerequest.Submit")
	defer span.End()

	if err := req.Validate(); err != nil {
		return schedulerequest.ScheduleRequestResponse{}, err
	}

	emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return schedulerequest.ScheduleRequestResponse{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return schedulerequest.ScheduleRequestResponse{}, fmt.Errorf("failed to generate schedule request id: %w", err)
	}

	requester := req.RequesterName
	if validator.IsEmpty(requester) {
		requester = emp.FullName
	}
	now := s.now().UTC()
	created, err := s.requestRepo.Create(ctx, schedulerequest.ScheduleRequest{
		ID:            id.String(),
		EmployeeID:    emp.ID,
		RequesterName: requester,
		Days:          req.Days,
		Status:        schedulerequest.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return schedulerequest.ScheduleRequestResponse{}, fmt.Errorf("failed to create schedule request: %w", err)
	}

	// The request is stored at this point; a failed notification is logged
	// instead of failing the submission.
	_, err = s.notificationService.RecordEvent(ctx, notification.RecordEventRequest{
		Category:   notification.CategorySchedule,
		EntityType: entityType,
		EntityID:   created.ID,
		Title:      "New schedule request",
		Message:    fmt.Sprintf("%s requested a schedule change for %d day(s)", requester, len(created.Days)),
		Data: map[string]interface{}{
			"request_id":  created.ID,
			"employee_id": created.EmployeeID,
		},
		Event: notification.EventNewPendingRequest,
	})
	if err != nil {
		s.logger.Error("failed to record schedule request notification",
			slog.String("request_id", created.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("schedule request submitted",
		slog.String("request_id", created.ID),
		slog.String("employee_id", created.EmployeeID),
		slog.Int("days", len(created.Days)),
	)
	return schedulerequest.ToResponse(created), nil
}

// Get implements schedulerequest.Service.
func (s *scheduleRequestServiceImpl) Get(ctx context.Context, id string) (schedulerequest.ScheduleRequestResponse, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return schedulerequest.ScheduleRequestResponse{}, err
	}
	return schedulerequest.ToResponse(req), nil
}

// List implements schedulerequest.Service.
func (s *scheduleRequestServiceImpl) List(ctx context.Context, filter schedulerequest.ListFilter) (schedulerequest.ListScheduleRequestResponse, error) {
	if err := filter.Validate(); err != nil {
		return schedulerequest.ListScheduleRequestResponse{}, err
	}

	reqs, err := s.requestRepo.List(ctx, filter)
	if err != nil {
		return schedulerequest.ListScheduleRequestResponse{}, fmt.Errorf("failed to list schedule requests: %w", err)
	}

	pendingStatus := schedulerequest.StatusPending
	pending, err := s.requestRepo.List(ctx, schedulerequest.ListFilter{Status: &pendingStatus, EmployeeID: filter.EmployeeID})
	if err != nil {
		return schedulerequest.ListScheduleRequestResponse{}, fmt.Errorf("failed to count pending schedule requests: %w", err)
	}

	responses := make([]schedulerequest.ScheduleRequestResponse, len(reqs))
	for i, r := range reqs {
		responses[i] = schedulerequest.ToResponse(r)
	}
	return schedulerequest.ListScheduleRequestResponse{
		Requests:     responses,
		Total:        len(responses),
		PendingCount: len(pending),
	}, nil
}

// Dispose implements schedulerequest.Service.
func (s *scheduleRequestServiceImpl) Dispose(ctx context.Context, id string, req schedulerequest.PatchScheduleRequest) (schedulerequest.DispositionResponse, error) {
	if err := req.Validate(); err != nil {
		return schedulerequest.DispositionResponse{}, err
	}
	if req.Status == schedulerequest.StatusApproved {
		return s.Approve(ctx, id, req.DisposeRequest())
	}
	return s.Reject(ctx, id, req.DisposeRequest())
}

// Approve implements schedulerequest.Service. The claim and the schedule
// replacement commit together, so an approval that cannot be applied leaves
// the request pending.
func (s *scheduleRequestServiceImpl) Approve(ctx context.Context, id string, req schedulerequest.DisposeRequest) (schedulerequest.DispositionResponse, error) {
	ctx, span := tracer.Start(ctx, "schedulerequest.Approve", trace.WithAttributes(attribute.String("schedule_request.id", id)))
	defer span.End()

	if err := req.Validate(); err != nil {
		return schedulerequest.DispositionResponse{}, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	var (
		claimed schedulerequest.ScheduleRequest
		applied schedule.ApplyScheduleResult
	)
	err := s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		claimed, err = s.requestRepo.UpdateStatusIfPending(ctx, id, s.disposition(schedulerequest.StatusApproved, req))
		if err != nil {
			return err
		}

		// Lock the employee row before reading the week the request is
		// overlaid on.
		if _, err := s.employeeRepo.LockByID(ctx, claimed.EmployeeID); err != nil {
			return err
		}
		current, err := s.scheduleRepo.GetActiveByEmployeeID(ctx, claimed.EmployeeID)
		var base *schedule.WeeklySchedule
		switch {
		case err == nil:
			base = &current
		case !errors.Is(err, schedule.ErrWeeklyScheduleNotFound):
			return fmt.Errorf("failed to load active schedule: %w", err)
		}

		days, err := claimed.OverlayOn(schedule.OverridesFromSchedule(base))
		if err != nil {
			return err
		}

		requestID := claimed.ID
		applied, err = s.scheduleService.ApplyWithin(ctx, schedule.ApplyScheduleRequest{
			EmployeeID:      claimed.EmployeeID,
			Days:            days,
			AppliedBy:       req.ProcessedBy,
			SourceRequestID: &requestID,
		})
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return schedulerequest.DispositionResponse{}, err
	}

	s.afterDisposition(ctx, claimed)
	s.notificationService.Broadcast(notification.EventScheduleUpdated, map[string]interface{}{
		"employee_id": claimed.EmployeeID,
		"schedule_id": applied.Schedule.ID,
	})

	result := applied.Schedule
	return schedulerequest.DispositionResponse{
		Request:  schedulerequest.ToResponse(claimed),
		Schedule: &result,
		Notices:  applied.Notices,
	}, nil
}

// Reject implements schedulerequest.Service.
func (s *scheduleRequestServiceImpl) Reject(ctx context.Context, id string, req schedulerequest.DisposeRequest) (schedulerequest.DispositionResponse, error) {
	ctx, span := tracer.Start(ctx, "schedulerequest.Reject", trace.WithAttributes(attribute.String("schedule_request.id", id)))
	defer span.End()

	if err := req.Validate(); err != nil {
		return schedulerequest.DispositionResponse{}, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	claimed, err := s.requestRepo.UpdateStatusIfPending(ctx, id, s.disposition(schedulerequest.StatusRejected, req))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return schedulerequest.DispositionResponse{}, err
	}

	s.afterDisposition(ctx, claimed)
	return schedulerequest.DispositionResponse{Request: schedulerequest.ToResponse(claimed)}, nil
}

func (s *scheduleRequestServiceImpl) disposition(status schedulerequest.Status, req schedulerequest.DisposeRequest) schedulerequest.Disposition {
	return schedulerequest.Disposition{
		Status:       status,
		ProcessedBy:  req.ProcessedBy,
		AdminRemarks: req.AdminRemarks,
		ProcessedAt:  s.now().UTC(),
	}
}

// afterDisposition resolves the request's pending notification and tells
// the dashboards to re-fetch.
func (s *scheduleRequestServiceImpl) afterDisposition(ctx context.Context, req schedulerequest.ScheduleRequest) {
	if _, err := s.notificationService.ResolveEntity(ctx, notification.CategorySchedule, req.ID); err != nil {
		s.logger.Error("failed to resolve schedule request notification",
			slog.String("request_id", req.ID),
			slog.String("error", err.Error()),
		)
	}
	s.notificationService.Broadcast(notification.EventRequestsUpdated, map[string]interface{}{
		"request_id": req.ID,
		"status":     req.Status,
	})

	s.logger.Info("schedule request disposed",
		slog.String("request_id", req.ID),
		slog.String("status", string(req.Status)),
		slog.String("processed_by", stringValue(req.ProcessedBy)),
	)
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
