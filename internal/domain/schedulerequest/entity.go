package schedulerequest

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/cmlabs-hris/schedule-core/internal/pkg/clock"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

var StatusValues = []string{
	string(StatusPending),
	string(StatusApproved),
	string(StatusRejected),
}

// transitions lists every allowed status change. Terminal states have no entry.
var transitions = map[Status][]Status{
	StatusPending: {StatusApproved, StatusRejected},
}

// CanTransition reports whether a request in from may move to to.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// ScheduleRequest is one employee submission asking for different hours on
// specific dates.
type ScheduleRequest struct {
	ID            string
	EmployeeID    string
	RequesterName string
	Days          ScheduleDays
	Status        Status
	AdminRemarks  *string
	ProcessedBy   *string
	ProcessedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ScheduleDay is one requested date. Times are ignored when IsDayOff is set.
type ScheduleDay struct {
	Date          string           `json:"date"`
	TimeIn        *clock.TimeOfDay `json:"time_in,omitempty"`
	TimeOut       *clock.TimeOfDay `json:"time_out,omitempty"`
	BreakStart    *clock.TimeOfDay `json:"break_start,omitempty"`
	BreakEnd      *clock.TimeOfDay `json:"break_end,omitempty"`
	IsDayOff      bool             `json:"is_day_off"`
	Justification string           `json:"justification"`
}

// ParsedDate returns Date as a calendar date in UTC.
func (d ScheduleDay) ParsedDate() (time.Time, error) {
	return time.Parse(clock.DateLayout, d.Date)
}

type ScheduleDays []ScheduleDay

// Value implements driver.Valuer for JSONB storage
func (sd ScheduleDays) Value() (driver.Value, error) {
	if sd == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(sd)
}

// Scan implements sql.Scanner for JSONB retrieval
func (sd *ScheduleDays) Scan(value interface{}) error {
	if value == nil {
		*sd = ScheduleDays{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("failed to scan ScheduleDays: invalid type")
	}

	return json.Unmarshal(raw, sd)
}

// Disposition is the admin decision written onto a pending request.
type Disposition struct {
	Status       Status
	ProcessedBy  string
	AdminRemarks *string
	ProcessedAt  time.Time
}

// SortForDisplay orders pending requests before disposed ones, newest first
// within the same group, with the id as the final tie-break.
func SortForDisplay(reqs []ScheduleRequest) {
	sort.SliceStable(reqs, func(i, j int) bool {
		pi, pj := reqs[i].Status == StatusPending, reqs[j].Status == StatusPending
		if pi != pj {
			return pi
		}
		if !reqs[i].CreatedAt.Equal(reqs[j].CreatedAt) {
			return reqs[i].CreatedAt.After(reqs[j].CreatedAt)
		}
		return reqs[i].ID > reqs[j].ID
	})
}
