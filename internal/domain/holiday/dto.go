package holiday

import (
	"time"

	"github.com/cmlabs-hris/schedule-core/internal/pkg/clock"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/validator"
)

type CreateHolidayRequest struct {
	Date        string  `json:"date"`
	Type        Type    `json:"type"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	IsRecurring bool    `json:"is_recurring"`
}

func (r *CreateHolidayRequest) Validate() error {
	var errs validator.ValidationErrors

	if _, ok := validator.IsValidDate(r.Date); !ok {
		errs.Add("date", "date must be in YYYY-MM-DD format")
	}
	if !validator.IsInSlice(string(r.Type), TypeValues) {
		errs.Add("type", "type must be one of: company, special, regular")
	}
	if validator.IsEmpty(r.Title) {
		errs.Add("title", "title is required")
	}
	if len(r.Title) > 255 {
		errs.Add("title", "title must not exceed 255 characters")
	}

	return errs.Err()
}

type UpdateHolidayRequest struct {
	ID          string  `json:"-"`
	Date        *string `json:"date,omitempty"`
	Type        *Type   `json:"type,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	IsRecurring *bool   `json:"is_recurring,omitempty"`
}

func (r *UpdateHolidayRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs.Add("id", "id is required")
	}
	if r.Date != nil {
		if _, ok := validator.IsValidDate(*r.Date); !ok {
			errs.Add("date", "date must be in YYYY-MM-DD format")
		}
	}
	if r.Type != nil && !validator.IsInSlice(string(*r.Type), TypeValues) {
		errs.Add("type", "type must be one of: company, special, regular")
	}
	if r.Title != nil && validator.IsEmpty(*r.Title) {
		errs.Add("title", "title must not be empty")
	}

	return errs.Err()
}

// Apply copies the set fields onto h. Validate must have passed.
func (r *UpdateHolidayRequest) Apply(h Holiday) Holiday {
	if r.Date != nil {
		h.Date, _ = time.Parse(clock.DateLayout, *r.Date)
	}
	if r.Type != nil {
		h.Type = *r.Type
	}
	if r.Title != nil {
		h.Title = *r.Title
	}
	if r.Description != nil {
		h.Description = r.Description
	}
	if r.IsRecurring != nil {
		h.IsRecurring = *r.IsRecurring
	}
	return h
}

type HolidayResponse struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	Type        Type    `json:"type"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	IsRecurring bool    `json:"is_recurring"`
}

// TodayResponse lists today's holidays. Alerted holds the subset that raised
// a new alert on this check.
type TodayResponse struct {
	Date     string            `json:"date"`
	Holidays []HolidayResponse `json:"holidays"`
	Alerted  []HolidayResponse `json:"alerted"`
}

func ToResponse(h Holiday) HolidayResponse {
	return HolidayResponse{
		ID:          h.ID,
		Date:        h.Date.Format(clock.DateLayout),
		Type:        h.Type,
		Title:       h.Title,
		Description: h.Description,
		IsRecurring: h.IsRecurring,
	}
}

func ToResponses(hs []Holiday) []HolidayResponse {
	out := make([]HolidayResponse, 0, len(hs))
	for _, h := range hs {
		out = append(out, ToResponse(h))
	}
	return out
}
