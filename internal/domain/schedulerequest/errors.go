package schedulerequest

import "errors"

var (
	ErrScheduleRequestNotFound = errors.New("schedule request not found")
	ErrInvalidTransition       = errors.New("schedule request is no longer pending")
)
