package schedule

import (
	"time"

	"github.com/cmlabs-hris/schedule-core/internal/pkg/clock"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/validator"
)

// ApplyScheduleRequest is the full-week edit the assignment engine applies.
// Every weekday must be present; null means "use the base template".
type ApplyScheduleRequest struct {
	EmployeeID string                         `json:"-"`
	Days       map[clock.Weekday]*DayOverride `json:"days"`
	Permanent  bool                           `json:"permanent"`
	AppliedBy  string                         `json:"applied_by"`

	// Set when the edit materializes an approved schedule request.
	SourceRequestID *string `json:"-"`
}

func (r *ApplyScheduleRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs.Add("employee_id", "employee_id is required")
	}
	if r.Days == nil {
		errs.Add("days", "days is required")
		return errs.Err()
	}

	for wd := range r.Days {
		if !wd.Valid() {
			errs.Add("days", "days contains an invalid weekday")
		}
	}

	for _, wd := range clock.AllWeekdays() {
		field := "days." + wd.String()
		override, ok := r.Days[wd]
		if !ok {
			errs.Add(field, field+" is required, use null to keep the default")
			continue
		}
		if override == nil || !override.Enabled || override.IsDayOff {
			continue
		}

		if !override.TimeIn.Valid() {
			errs.Add(field+".time_in", "time_in must be a valid time in HH:MM format")
		}
		if !override.TimeOut.Valid() {
			errs.Add(field+".time_out", "time_out must be a valid time in HH:MM format")
		}
		if !override.TimeOut.After(override.TimeIn) {
			errs.Add(field+".time_out", "time_out must be after time_in")
		}

		if !override.HasBreak {
			continue
		}
		if override.BreakStart == nil || override.BreakEnd == nil {
			errs.Add(field+".break", "both break_start and break_end must be provided when has_break is true")
			continue
		}
		if override.BreakStart.Before(override.TimeIn) || !override.BreakStart.Before(override.TimeOut) {
			errs.Add(field+".break_start", "break_start must be within the shift")
		}
	}

	return errs.Err()
}

type ApplyScheduleResult struct {
	Schedule WeeklyScheduleResponse `json:"schedule"`
	Notices  []PolicyNotice         `json:"notices,omitempty"`
}

type WeeklyScheduleResponse struct {
	ID              string                                 `json:"id,omitempty"`
	EmployeeID      string                                 `json:"employee_id"`
	ScheduleType    ScheduleType                           `json:"schedule_type,omitempty"`
	Days            Days                                   `json:"days"`
	Display         map[clock.Weekday]EffectiveDayResponse `json:"display"`
	AppliedBy       *string                                `json:"applied_by,omitempty"`
	SourceRequestID *string                                `json:"source_request_id,omitempty"`
	CreatedAt       string                                 `json:"created_at,omitempty"`
	UpdatedAt       string                                 `json:"updated_at,omitempty"`
}

type EffectiveDayResponse struct {
	TimeIn       *string `json:"time_in,omitempty"`
	TimeOut      *string `json:"time_out,omitempty"`
	BreakStart   *string `json:"break_start,omitempty"`
	BreakEnd     *string `json:"break_end,omitempty"`
	IsDayOff     bool    `json:"is_day_off"`
	Source       Source  `json:"source"`
	WorkingHours string  `json:"working_hours"`
}

type EffectiveScheduleResponse struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	Weekday    string `json:"weekday"`
	EffectiveDayResponse
}

// ToDayResponse formats an effective schedule for display.
func ToDayResponse(eff EffectiveSchedule) EffectiveDayResponse {
	resp := EffectiveDayResponse{
		IsDayOff:     eff.IsDayOff,
		Source:       eff.Source,
		WorkingHours: eff.WorkingHours.StringFixed(2),
	}
	if eff.IsDayOff {
		return resp
	}
	in, out := eff.TimeIn.String(), eff.TimeOut.String()
	resp.TimeIn, resp.TimeOut = &in, &out
	if eff.BreakStart != nil && eff.BreakEnd != nil {
		bs, be := eff.BreakStart.String(), eff.BreakEnd.String()
		resp.BreakStart, resp.BreakEnd = &bs, &be
	}
	return resp
}

// ToEffectiveResponse formats a dated effective schedule.
func ToEffectiveResponse(employeeID string, eff EffectiveSchedule) EffectiveScheduleResponse {
	return EffectiveScheduleResponse{
		EmployeeID:           employeeID,
		Date:                 eff.Date.Format(clock.DateLayout),
		Weekday:              eff.Weekday.String(),
		EffectiveDayResponse: ToDayResponse(eff),
	}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// ToWeeklyResponse formats ws (nil when none is active) with the resolved
// display hours of every weekday.
func ToWeeklyResponse(employeeID string, ws *WeeklySchedule, display map[clock.Weekday]EffectiveSchedule) WeeklyScheduleResponse {
	resp := WeeklyScheduleResponse{
		EmployeeID: employeeID,
		Days:       Days{},
		Display:    make(map[clock.Weekday]EffectiveDayResponse, len(display)),
	}
	for wd, eff := range display {
		resp.Display[wd] = ToDayResponse(eff)
	}
	if ws == nil {
		return resp
	}
	resp.ID = ws.ID
	resp.ScheduleType = ws.ScheduleType
	resp.Days = ws.Days
	resp.AppliedBy = ws.AppliedBy
	resp.SourceRequestID = ws.SourceRequestID
	resp.CreatedAt = formatTimestamp(ws.CreatedAt)
	resp.UpdatedAt = formatTimestamp(ws.UpdatedAt)
	return resp
}
