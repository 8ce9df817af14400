package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/schedule-core/internal/domain/schedulerequest"
	"github.com/cmlabs-hris/schedule-core/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type ScheduleRequestHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Dispose(w http.ResponseWriter, r *http.Request)
}

type scheduleRequestHandlerImpl struct {
	requestService schedulerequest.Service
}

func NewScheduleRequestHandler(requestService schedulerequest.Service) ScheduleRequestHandler {
	return &scheduleRequestHandlerImpl{
		requestService: requestService,
	}
}

// List implements ScheduleRequestHandler.
func (h *scheduleRequestHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := schedulerequest.ListFilter{
		EmployeeID: r.URL.Query().Get("employee_id"),
		Limit:      getIntQueryParam(r, "limit", 0),
	}
	if status := r.URL.Query().Get("status"); status != "" {
		s := schedulerequest.Status(status)
		filter.Status = &s
	}

	result, err := h.requestService.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Create implements ScheduleRequestHandler.
func (h *scheduleRequestHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req schedulerequest.CreateScheduleRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.requestService.Submit(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Schedule request submitted successfully", result)
}

// Get implements ScheduleRequestHandler.
func (h *scheduleRequestHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.requestService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Dispose implements ScheduleRequestHandler. A started disposition is not
// cancelled when the client disconnects.
func (h *scheduleRequestHandlerImpl) Dispose(w http.ResponseWriter, r *http.Request) {
	var req schedulerequest.PatchScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.requestService.Dispose(context.WithoutCancel(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Schedule request "+string(result.Request.Status), result)
}
