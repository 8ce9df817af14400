package schedulerequest

import (
	"strconv"
	"time"

	"github.com/cmlabs-hris/schedule-core/internal/domain/schedule"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/validator"
)

const maxJustificationLength = 1000

type CreateScheduleRequestRequest struct {
	EmployeeID    string        `json:"employee_id"`
	RequesterName string        `json:"requester_name"`
	Days          []ScheduleDay `json:"days"`
}

func (r *CreateScheduleRequestRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs.Add("employee_id", "employee_id is required")
	}
	if len(r.Days) == 0 {
		errs.Add("days", "at least one day is required")
	}

	seen := make(map[string]bool, len(r.Days))
	for i, day := range r.Days {
		field := "days." + strconv.Itoa(i)

		if _, ok := validator.IsValidDate(day.Date); !ok {
			errs.Add(field+".date", "date must be in YYYY-MM-DD format")
		} else if seen[day.Date] {
			errs.Add(field+".date", "date "+day.Date+" appears more than once")
		}
		seen[day.Date] = true

		if len(day.Justification) > maxJustificationLength {
			errs.Add(field+".justification", "justification must not exceed 1000 characters")
		}

		if day.IsDayOff {
			continue
		}
		if day.TimeIn == nil || day.TimeOut == nil {
			errs.Add(field+".time_in", "time_in and time_out are required unless is_day_off is set")
			continue
		}
		if !day.TimeOut.After(*day.TimeIn) {
			errs.Add(field+".time_out", "time_out must be after time_in")
		}

		if (day.BreakStart == nil) != (day.BreakEnd == nil) {
			errs.Add(field+".break", "break_start and break_end must be provided together")
			continue
		}
		if day.BreakStart != nil {
			if !day.BreakEnd.After(*day.BreakStart) {
				errs.Add(field+".break_end", "break_end must be after break_start")
			}
			if day.BreakStart.Before(*day.TimeIn) || day.BreakEnd.After(*day.TimeOut) {
				errs.Add(field+".break", "break must be within the shift")
			}
		}
	}

	return errs.Err()
}

// DisposeRequest carries the disposing admin for Approve and Reject.
type DisposeRequest struct {
	ProcessedBy  string  `json:"processed_by"`
	AdminRemarks *string `json:"admin_remarks,omitempty"`
}

func (r *DisposeRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.ProcessedBy) {
		errs.Add("processed_by", "processed_by is required")
	}
	if r.AdminRemarks != nil && len(*r.AdminRemarks) > maxJustificationLength {
		errs.Add("admin_remarks", "admin_remarks must not exceed 1000 characters")
	}
	return errs.Err()
}

// PatchScheduleRequest is the body of PATCH /schedule-requests/{id}.
type PatchScheduleRequest struct {
	Status       Status  `json:"status"`
	ProcessedBy  string  `json:"processed_by"`
	AdminRemarks *string `json:"admin_remarks,omitempty"`
}

func (r *PatchScheduleRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.Status != StatusApproved && r.Status != StatusRejected {
		errs.Add("status", "status must be one of: approved, rejected")
	}
	dispose := r.DisposeRequest()
	if err := dispose.Validate(); err != nil {
		errs = append(errs, err.(validator.ValidationErrors)...)
	}
	return errs.Err()
}

func (r *PatchScheduleRequest) DisposeRequest() DisposeRequest {
	return DisposeRequest{ProcessedBy: r.ProcessedBy, AdminRemarks: r.AdminRemarks}
}

type ListFilter struct {
	Status     *Status
	EmployeeID string
	Limit      int
}

func (f *ListFilter) Validate() error {
	var errs validator.ValidationErrors
	if f.Status != nil && !validator.IsInSlice(string(*f.Status), StatusValues) {
		errs.Add("status", "status must be one of: pending, approved, rejected")
	}
	if f.Limit < 0 {
		errs.Add("limit", "limit must not be negative")
	}
	return errs.Err()
}

type ScheduleRequestResponse struct {
	ID            string        `json:"id"`
	EmployeeID    string        `json:"employee_id"`
	RequesterName string        `json:"requester_name"`
	Days          []ScheduleDay `json:"days"`
	Status        Status        `json:"status"`
	AdminRemarks  *string       `json:"admin_remarks"`
	ProcessedBy   *string       `json:"processed_by"`
	ProcessedAt   *string       `json:"processed_at"`
	CreatedAt     string        `json:"created_at"`
	UpdatedAt     string        `json:"updated_at"`
}

type ListScheduleRequestResponse struct {
	Requests     []ScheduleRequestResponse `json:"requests"`
	Total        int                       `json:"total"`
	PendingCount int                       `json:"pending_count"`
}

// DispositionResponse is the outcome of Approve or Reject. Schedule is only
// set when an approval materialized a weekly schedule.
type DispositionResponse struct {
	Request  ScheduleRequestResponse          `json:"request"`
	Schedule *schedule.WeeklyScheduleResponse `json:"schedule,omitempty"`
	Notices  []schedule.PolicyNotice          `json:"notices,omitempty"`
}

func ToResponse(r ScheduleRequest) ScheduleRequestResponse {
	resp := ScheduleRequestResponse{
		ID:            r.ID,
		EmployeeID:    r.EmployeeID,
		RequesterName: r.RequesterName,
		Days:          r.Days,
		Status:        r.Status,
		AdminRemarks:  r.AdminRemarks,
		ProcessedBy:   r.ProcessedBy,
		CreatedAt:     r.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     r.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if resp.Days == nil {
		resp.Days = []ScheduleDay{}
	}
	if r.ProcessedAt != nil {
		processed := r.ProcessedAt.UTC().Format(time.RFC3339)
		resp.ProcessedAt = &processed
	}
	return resp
}
