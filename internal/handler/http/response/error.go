package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/schedule-core/internal/domain/auth"
	"github.com/cmlabs-hris/schedule-core/internal/domain/employee"
	"github.com/cmlabs-hris/schedule-core/internal/domain/holiday"
	"github.com/cmlabs-hris/schedule-core/internal/domain/notification"
	"github.com/cmlabs-hris/schedule-core/internal/domain/schedule"
	"github.com/cmlabs-hris/schedule-core/internal/domain/schedulerequest"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrTokenExpired):
		Unauthorized(w, "Token expired")
	case errors.Is(err, auth.ErrTokenRevoked):
		Unauthorized(w, "Token revoked")
	case errors.Is(err, auth.ErrAdminPrivilegeRequired):
		Forbidden(w, "Admin privilege required")

	// Employee and schedule domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, schedule.ErrWeeklyScheduleNotFound):
		NotFound(w, "Weekly schedule not found")
	case errors.Is(err, schedule.ErrInvalidBreakWindow):
		ValidationError(w, map[string]string{"break_end": err.Error()})
	case errors.Is(err, schedule.ErrEmployeeIDRequired):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, schedule.ErrInvalidDateFormat):
		BadRequest(w, err.Error(), nil)

	// Schedule request domain errors
	case errors.Is(err, schedulerequest.ErrScheduleRequestNotFound):
		NotFound(w, "Schedule request not found")
	case errors.Is(err, schedulerequest.ErrInvalidTransition):
		Conflict(w, "Schedule request is no longer pending")

	// Notification domain errors
	case errors.Is(err, notification.ErrNotificationNotFound):
		NotFound(w, "Notification not found")
	case errors.Is(err, notification.ErrInvalidCategory):
		BadRequest(w, err.Error(), nil)

	// Holiday domain errors
	case errors.Is(err, holiday.ErrHolidayNotFound):
		NotFound(w, "Holiday not found")

	// Default
	default:
		slog.Error("unhandled error", slog.String("error", err.Error()))
		InternalServerError(w, "An unexpected error occurred")
	}
}
