package schedule

import "errors"

var (
	// Weekly Schedule Errors
	ErrWeeklyScheduleNotFound = errors.New("weekly schedule not found")

	// Break policy errors
	ErrInvalidBreakWindow = errors.New("break end must be after break start")

	// Validation Errors
	ErrEmployeeIDRequired = errors.New("employee ID is required")
	ErrInvalidDateFormat  = errors.New("invalid date format, use YYYY-MM-DD")
)
