package memory

import (
	"context"

	"github.com/cmlabs-hris/schedule-core/internal/domain/schedulerequest"
)

type scheduleRequestRepository struct {
	s *Store
}

func (r *scheduleRequestRepository) Create(ctx context.Context, req schedulerequest.ScheduleRequest) (schedulerequest.ScheduleRequest, error) {
	defer r.s.begin(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("schedule_request.create"); err != nil {
		return schedulerequest.ScheduleRequest{}, err
	}
	req.Days = append(schedulerequest.ScheduleDays(nil), req.Days...)
	req.UpdatedAt = req.CreatedAt
	r.s.requests[req.ID] = req
	return req, nil
}

func (r *scheduleRequestRepository) GetByID(ctx context.Context, id string) (schedulerequest.ScheduleRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.check("schedule_request.get"); err != nil {
		return schedulerequest.ScheduleRequest{}, err
	}
	req, ok := r.s.requests[id]
	if !ok {
		return schedulerequest.ScheduleRequest{}, schedulerequest.ErrScheduleRequestNotFound
	}
	return req, nil
}

func (r *scheduleRequestRepository) List(ctx context.Context, filter schedulerequest.ListFilter) ([]schedulerequest.ScheduleRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.check("schedule_request.list"); err != nil {
		return nil, err
	}

	var out []schedulerequest.ScheduleRequest
	for _, req := range r.s.requests {
		if filter.Status != nil && req.Status != *filter.Status {
			continue
		}
		if filter.EmployeeID != "" && req.EmployeeID != filter.EmployeeID {
			continue
		}
		out = append(out, req)
	}
	schedulerequest.SortForDisplay(out)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *scheduleRequestRepository) UpdateStatusIfPending(ctx context.Context, id string, d schedulerequest.Disposition) (schedulerequest.ScheduleRequest, error) {
	defer r.s.begin(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("schedule_request.update_status"); err != nil {
		return schedulerequest.ScheduleRequest{}, err
	}
	req, ok := r.s.requests[id]
	if !ok {
		return schedulerequest.ScheduleRequest{}, schedulerequest.ErrScheduleRequestNotFound
	}
	if req.Status != schedulerequest.StatusPending {
		return schedulerequest.ScheduleRequest{}, schedulerequest.ErrInvalidTransition
	}

	processedBy := d.ProcessedBy
	processedAt := d.ProcessedAt
	req.Status = d.Status
	req.ProcessedBy = &processedBy
	req.AdminRemarks = d.AdminRemarks
	req.ProcessedAt = &processedAt
	req.UpdatedAt = d.ProcessedAt
	r.s.requests[id] = req
	return req, nil
}
