package schedule

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/schedule-core/internal/domain/employee"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/clock"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/validator"
)

// breakCaps is the only place break limits are defined; everything else goes
// through MaxBreak.
var breakCaps = map[employee.EmploymentClass]time.Duration{
	employee.EmploymentClassProbationary: 15 * time.Minute,
}

const defaultBreakCap = 60 * time.Minute

// MaxBreak returns the longest break allowed for an employment class.
func MaxBreak(class employee.EmploymentClass) time.Duration {
	if limit, ok := breakCaps[class]; ok {
		return limit
	}
	return defaultBreakCap
}

// BreakValidation is the outcome of ValidateBreak. Valid is false when the
// window had to be clamped; End is always the window to store.
type BreakValidation struct {
	Valid      bool
	Adjusted   bool
	Start      clock.TimeOfDay
	End        clock.TimeOfDay
	ClampedEnd *clock.TimeOfDay
	Max        time.Duration
}

// ValidateBreak checks a break window against the class cap. Windows longer
// than the cap are clamped to start+cap; windows with end <= start are rejected.
func ValidateBreak(start, end clock.TimeOfDay, class employee.EmploymentClass) (BreakValidation, error) {
	if !end.After(start) {
		return BreakValidation{}, validator.ValidationErrors{{
			Field:   "break_end",
			Message: ErrInvalidBreakWindow.Error(),
		}}
	}

	limit := MaxBreak(class)
	result := BreakValidation{Valid: true, Start: start, End: end, Max: limit}
	if end.Sub(start) > limit {
		clamped := start.Add(limit)
		result.Valid = false
		result.Adjusted = true
		result.End = clamped
		result.ClampedEnd = &clamped
	}
	return result, nil
}

// Notice builds the policy notice for an adjusted validation.
func (v BreakValidation) Notice(wd clock.Weekday, requestedEnd clock.TimeOfDay) PolicyNotice {
	return PolicyNotice{
		Weekday:     wd,
		Message:     fmt.Sprintf("break on %s shortened to %d minutes", wd, int(v.Max/time.Minute)),
		RequestedTo: requestedEnd,
		ClampedTo:   v.End,
		MaxMinutes:  int(v.Max / time.Minute),
	}
}
