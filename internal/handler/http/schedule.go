package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cmlabs-hris/schedule-core/internal/domain/schedule"
	"github.com/cmlabs-hris/schedule-core/internal/handler/http/response"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/clock"
	"github.com/go-chi/chi/v5"
)

type ScheduleHandler interface {
	GetActiveSchedule(w http.ResponseWriter, r *http.Request)
	ApplySchedule(w http.ResponseWriter, r *http.Request)
	GetEffectiveSchedule(w http.ResponseWriter, r *http.Request)
}

type scheduleHandlerImpl struct {
	scheduleService schedule.ScheduleService
	location        *time.Location
}

func NewScheduleHandler(scheduleService schedule.ScheduleService, location *time.Location) ScheduleHandler {
	if location == nil {
		location = time.UTC
	}
	return &scheduleHandlerImpl{
		scheduleService: scheduleService,
		location:        location,
	}
}

// GetActiveSchedule implements ScheduleHandler.
func (h *scheduleHandlerImpl) GetActiveSchedule(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

	result, err := h.scheduleService.GetActive(r.Context(), employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ApplySchedule implements ScheduleHandler. The replacement runs to
// completion even if the client goes away.
func (h *scheduleHandlerImpl) ApplySchedule(w http.ResponseWriter, r *http.Request) {
	var req schedule.ApplyScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.EmployeeID = chi.URLParam(r, "id")
	if req.AppliedBy == "" {
		req.AppliedBy = getUserIDFromContext(r)
	}

	result, err := h.scheduleService.Apply(context.WithoutCancel(r.Context()), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Schedule applied successfully", result)
}

// GetEffectiveSchedule implements ScheduleHandler. date defaults to today
// in the configured locale.
func (h *scheduleHandlerImpl) GetEffectiveSchedule(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

	date := clock.DateOf(time.Now(), h.location)
	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		parsed, err := time.ParseInLocation(clock.DateLayout, dateStr, h.location)
		if err != nil {
			response.HandleError(w, schedule.ErrInvalidDateFormat)
			return
		}
		date = parsed
	}

	result, err := h.scheduleService.GetEffective(r.Context(), employeeID, date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
