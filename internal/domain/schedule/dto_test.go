package schedule

import (
	"encoding/json"
	"testing"

	"github.com/cmlabs-hris/schedule-core/internal/pkg/clock"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullWeek() map[clock.Weekday]*DayOverride {
	days := make(map[clock.Weekday]*DayOverride, 7)
	for _, wd := range clock.AllWeekdays() {
		days[wd] = nil
	}
	return days
}

func TestApplyScheduleRequest_DecodeAndValidate(t *testing.T) {
	raw := `{
		"permanent": true,
		"days": {
			"monday": {"enabled": true, "time_in": "09:00", "time_out": "18:00", "has_break": true, "break_start": "12:00", "break_end": "13:00"},
			"tuesday": null, "wednesday": null, "thursday": null, "friday": null,
			"saturday": {"enabled": false},
			"sunday": null
		}
	}`

	var req ApplyScheduleRequest
	require.NoError(t, json.Unmarshal([]byte(raw), &req))
	req.EmployeeID = "emp-1"

	assert.NoError(t, req.Validate())
	assert.True(t, req.Permanent)
	require.NotNil(t, req.Days[clock.Monday])
	assert.Equal(t, "09:00", req.Days[clock.Monday].TimeIn.String())
	assert.Nil(t, req.Days[clock.Tuesday])
}

func TestApplyScheduleRequest_RequiresFullWeek(t *testing.T) {
	days := fullWeek()
	delete(days, clock.Friday)
	req := ApplyScheduleRequest{EmployeeID: "emp-1", Days: days}

	err := req.Validate()

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "days.friday")
}

func TestApplyScheduleRequest_TimeOrdering(t *testing.T) {
	days := fullWeek()
	days[clock.Monday] = &DayOverride{Enabled: true, TimeIn: clock.MustParse("18:00"), TimeOut: clock.MustParse("09:00")}
	days[clock.Tuesday] = &DayOverride{Enabled: true, TimeIn: clock.MustParse("09:00"), TimeOut: clock.MustParse("18:00"), HasBreak: true}
	days[clock.Wednesday] = &DayOverride{Enabled: true, IsDayOff: true}
	req := ApplyScheduleRequest{EmployeeID: "emp-1", Days: days}

	err := req.Validate()

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	m := verrs.ToMap()
	assert.Contains(t, m, "days.monday.time_out")
	assert.Contains(t, m, "days.tuesday.break")
	assert.NotContains(t, m, "days.wednesday.time_out")
}

func TestApplyScheduleRequest_MissingEmployee(t *testing.T) {
	req := ApplyScheduleRequest{Days: fullWeek()}

	err := req.Validate()

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "employee_id")
}

func TestOverridesFromSchedule(t *testing.T) {
	ws := &WeeklySchedule{Days: Days{
		clock.Monday:  {TimeIn: clock.MustParse("09:00").Ptr(), TimeOut: clock.MustParse("18:00").Ptr(), HasBreak: true, BreakStart: clock.MustParse("12:00").Ptr(), BreakEnd: clock.MustParse("12:30").Ptr()},
		clock.Tuesday: {UseDefault: true},
		clock.Sunday:  {IsDayOff: true},
	}}

	overrides := OverridesFromSchedule(ws)

	assert.Len(t, overrides, 7)
	require.NotNil(t, overrides[clock.Monday])
	assert.True(t, overrides[clock.Monday].HasBreak)
	assert.Equal(t, "12:30", overrides[clock.Monday].BreakEnd.String())
	assert.Nil(t, overrides[clock.Tuesday])
	require.NotNil(t, overrides[clock.Sunday])
	assert.True(t, overrides[clock.Sunday].IsDayOff)

	assert.Len(t, OverridesFromSchedule(nil), 7)
}
