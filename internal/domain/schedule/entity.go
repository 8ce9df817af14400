package schedule

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/cmlabs-hris/schedule-core/internal/pkg/clock"
	"github.com/shopspring/decimal"
)

type ScheduleType string

const (
	ScheduleTypeRegular   ScheduleType = "regular"   // permanent
	ScheduleTypeTemporary ScheduleType = "temporary" // transient
)

// WeeklySchedule is the single active override set of one employee.
type WeeklySchedule struct {
	ID              string
	EmployeeID      string
	ScheduleType    ScheduleType
	Days            Days
	AppliedBy       *string
	SourceRequestID *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DayEntry is one weekday of a WeeklySchedule. Times are absent when
// UseDefault is set; break times are absent unless HasBreak is set.
type DayEntry struct {
	UseDefault bool             `json:"use_default"`
	IsDayOff   bool             `json:"is_day_off,omitempty"`
	TimeIn     *clock.TimeOfDay `json:"time_in,omitempty"`
	TimeOut    *clock.TimeOfDay `json:"time_out,omitempty"`
	HasBreak   bool             `json:"has_break"`
	BreakStart *clock.TimeOfDay `json:"break_start,omitempty"`
	BreakEnd   *clock.TimeOfDay `json:"break_end,omitempty"`
}

type Days map[clock.Weekday]DayEntry

// Value implements driver.Valuer for JSONB storage
func (d Days) Value() (driver.Value, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d)
}

// Scan implements sql.Scanner for JSONB retrieval
func (d *Days) Scan(value interface{}) error {
	if value == nil {
		*d = Days{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("failed to scan Days: invalid type")
	}

	return json.Unmarshal(raw, d)
}

type Source string

const (
	SourceDefault  Source = "default"
	SourceOverride Source = "override"
)

// EffectiveSchedule is the resolved working window of one employee on one date.
type EffectiveSchedule struct {
	Date         time.Time
	Weekday      clock.Weekday
	TimeIn       clock.TimeOfDay
	TimeOut      clock.TimeOfDay
	BreakStart   *clock.TimeOfDay
	BreakEnd     *clock.TimeOfDay
	IsDayOff     bool
	Source       Source
	WorkingHours decimal.Decimal
}

// DayOverride is the admin's input for one weekday. A nil override or one
// with Enabled=false falls back to the base template.
type DayOverride struct {
	Enabled    bool             `json:"enabled"`
	IsDayOff   bool             `json:"is_day_off"`
	TimeIn     clock.TimeOfDay  `json:"time_in"`
	TimeOut    clock.TimeOfDay  `json:"time_out"`
	HasBreak   bool             `json:"has_break"`
	BreakStart *clock.TimeOfDay `json:"break_start,omitempty"`
	BreakEnd   *clock.TimeOfDay `json:"break_end,omitempty"`
}

// PolicyNotice reports a break window that was clamped to policy. It is a
// warning for the caller to surface, not an error.
type PolicyNotice struct {
	Weekday     clock.Weekday   `json:"weekday"`
	Message     string          `json:"message"`
	RequestedTo clock.TimeOfDay `json:"requested_break_end"`
	ClampedTo   clock.TimeOfDay `json:"clamped_break_end"`
	MaxMinutes  int             `json:"max_break_minutes"`
}

// OverridesFromSchedule turns a stored schedule back into the override map
// Apply accepts, so a partial change can be laid over the current week.
func OverridesFromSchedule(ws *WeeklySchedule) map[clock.Weekday]*DayOverride {
	out := make(map[clock.Weekday]*DayOverride, 7)
	for _, wd := range clock.AllWeekdays() {
		out[wd] = nil
		if ws == nil {
			continue
		}
		entry, ok := ws.Days[wd]
		if !ok || entry.UseDefault {
			continue
		}
		o := &DayOverride{Enabled: true, IsDayOff: entry.IsDayOff}
		if entry.TimeIn != nil {
			o.TimeIn = *entry.TimeIn
		}
		if entry.TimeOut != nil {
			o.TimeOut = *entry.TimeOut
		}
		if entry.HasBreak && entry.BreakStart != nil && entry.BreakEnd != nil {
			o.HasBreak = true
			o.BreakStart = entry.BreakStart.Ptr()
			o.BreakEnd = entry.BreakEnd.Ptr()
		}
		out[wd] = o
	}
	return out
}
