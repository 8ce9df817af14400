package employee

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/cmlabs-hris/schedule-core/internal/pkg/clock"
)

type Employee struct {
	ID              string
	EmployeeCode    string
	FullName        string
	EmploymentClass EmploymentClass
	BaseTemplate    WeeklyTemplate

	// Denormalized for list screens; refreshed whenever a weekly schedule is applied.
	CurrentTimeIn  *clock.TimeOfDay
	CurrentTimeOut *clock.TimeOfDay

	CreatedAt time.Time
	UpdatedAt time.Time
}

type EmploymentClass string

const (
	EmploymentClassRegular      EmploymentClass = "Regular"
	EmploymentClassProbationary EmploymentClass = "Probationary"
	EmploymentClassContractual  EmploymentClass = "Contractual"
)

var EmploymentClassValues = []string{
	string(EmploymentClassRegular),
	string(EmploymentClassProbationary),
	string(EmploymentClassContractual),
}

// TemplateDay is one weekday of the employee's base schedule.
type TemplateDay struct {
	Enabled    bool             `json:"enabled"`
	TimeIn     clock.TimeOfDay  `json:"time_in"`
	TimeOut    clock.TimeOfDay  `json:"time_out"`
	BreakStart *clock.TimeOfDay `json:"break_start,omitempty"`
	BreakEnd   *clock.TimeOfDay `json:"break_end,omitempty"`
}

// WeeklyTemplate maps weekday to base hours. A missing weekday is a day off.
type WeeklyTemplate map[clock.Weekday]TemplateDay

// Day returns the template entry for w; the zero TemplateDay is disabled.
func (wt WeeklyTemplate) Day(w clock.Weekday) TemplateDay {
	if wt == nil {
		return TemplateDay{}
	}
	return wt[w]
}

// Value implements driver.Valuer for JSONB storage
func (wt WeeklyTemplate) Value() (driver.Value, error) {
	if wt == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(wt)
}

// Scan implements sql.Scanner for JSONB retrieval
func (wt *WeeklyTemplate) Scan(value interface{}) error {
	if value == nil {
		*wt = WeeklyTemplate{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("failed to scan WeeklyTemplate: invalid type")
	}

	return json.Unmarshal(raw, wt)
}
