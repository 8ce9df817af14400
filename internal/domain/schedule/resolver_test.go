package schedule

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/schedule-core/internal/domain/employee"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEmployee(class employee.EmploymentClass) employee.Employee {
	weekday := employee.TemplateDay{
		Enabled:    true,
		TimeIn:     clock.MustParse("08:00"),
		TimeOut:    clock.MustParse("17:00"),
		BreakStart: clock.MustParse("12:00").Ptr(),
		BreakEnd:   clock.MustParse("13:00").Ptr(),
	}
	template := employee.WeeklyTemplate{}
	for _, wd := range []clock.Weekday{clock.Monday, clock.Tuesday, clock.Wednesday, clock.Thursday, clock.Friday} {
		template[wd] = weekday
	}
	return employee.Employee{
		ID:              "emp-1",
		FullName:        "Juan Dela Cruz",
		EmploymentClass: class,
		BaseTemplate:    template,
	}
}

func monday() time.Time {
	return time.Date(2024, 6, 10, 14, 0, 0, 0, time.UTC)
}

func TestResolve_NoActiveScheduleUsesTemplate(t *testing.T) {
	emp := testEmployee(employee.EmploymentClassRegular)

	eff := Resolve(emp, nil, monday())

	assert.False(t, eff.IsDayOff)
	assert.Equal(t, SourceDefault, eff.Source)
	assert.Equal(t, clock.Monday, eff.Weekday)
	assert.Equal(t, "08:00", eff.TimeIn.String())
	assert.Equal(t, "17:00", eff.TimeOut.String())
	require.NotNil(t, eff.BreakStart)
	assert.Equal(t, "12:00", eff.BreakStart.String())
	assert.Equal(t, "8.00", eff.WorkingHours.StringFixed(2))
	assert.Equal(t, "2024-06-10", eff.Date.Format(clock.DateLayout))
}

func TestResolve_UseDefaultFallsBack(t *testing.T) {
	emp := testEmployee(employee.EmploymentClassRegular)
	ws := &WeeklySchedule{Days: Days{clock.Monday: {UseDefault: true}}}

	eff := Resolve(emp, ws, monday())

	assert.Equal(t, SourceDefault, eff.Source)
	assert.Equal(t, "08:00", eff.TimeIn.String())
}

func TestResolve_ExplicitOverride(t *testing.T) {
	emp := testEmployee(employee.EmploymentClassRegular)
	ws := &WeeklySchedule{Days: Days{
		clock.Monday: {
			TimeIn:  clock.MustParse("09:00").Ptr(),
			TimeOut: clock.MustParse("18:00").Ptr(),
		},
	}}

	eff := Resolve(emp, ws, monday())

	assert.Equal(t, SourceOverride, eff.Source)
	assert.Equal(t, "09:00", eff.TimeIn.String())
	assert.Equal(t, "18:00", eff.TimeOut.String())
	assert.Nil(t, eff.BreakStart)
	assert.Equal(t, "9.00", eff.WorkingHours.StringFixed(2))
}

func TestResolve_DisabledWeekdayIsDayOff(t *testing.T) {
	emp := testEmployee(employee.EmploymentClassRegular)
	sunday := monday().AddDate(0, 0, 6)

	eff := Resolve(emp, nil, sunday)

	assert.True(t, eff.IsDayOff)
	assert.Equal(t, clock.Sunday, eff.Weekday)
	assert.True(t, eff.WorkingHours.IsZero())
}

func TestResolve_OverrideCanEnableWeekend(t *testing.T) {
	emp := testEmployee(employee.EmploymentClassRegular)
	ws := &WeeklySchedule{Days: Days{
		clock.Saturday: {
			TimeIn:     clock.MustParse("10:00").Ptr(),
			TimeOut:    clock.MustParse("14:00").Ptr(),
			HasBreak:   true,
			BreakStart: clock.MustParse("12:00").Ptr(),
			BreakEnd:   clock.MustParse("12:30").Ptr(),
		},
	}}

	eff := Resolve(emp, ws, monday().AddDate(0, 0, 5))

	assert.False(t, eff.IsDayOff)
	assert.Equal(t, "3.50", eff.WorkingHours.StringFixed(2))
}

func TestResolve_ExplicitDayOff(t *testing.T) {
	emp := testEmployee(employee.EmploymentClassRegular)
	ws := &WeeklySchedule{Days: Days{clock.Monday: {IsDayOff: true}}}

	eff := Resolve(emp, ws, monday())

	assert.True(t, eff.IsDayOff)
	assert.Equal(t, SourceOverride, eff.Source)
}

func TestResolve_BreakIgnoredWithoutHasBreak(t *testing.T) {
	emp := testEmployee(employee.EmploymentClassRegular)
	ws := &WeeklySchedule{Days: Days{
		clock.Monday: {
			TimeIn:     clock.MustParse("09:00").Ptr(),
			TimeOut:    clock.MustParse("18:00").Ptr(),
			BreakStart: clock.MustParse("12:00").Ptr(),
			BreakEnd:   clock.MustParse("13:00").Ptr(),
		},
	}}

	eff := Resolve(emp, ws, monday())

	assert.Nil(t, eff.BreakStart)
	assert.Nil(t, eff.BreakEnd)
}

func TestResolve_Idempotent(t *testing.T) {
	emp := testEmployee(employee.EmploymentClassProbationary)
	ws := &WeeklySchedule{Days: Days{
		clock.Monday:  {TimeIn: clock.MustParse("07:00").Ptr(), TimeOut: clock.MustParse("15:00").Ptr()},
		clock.Tuesday: {UseDefault: true},
		clock.Sunday:  {IsDayOff: true},
	}}

	start := monday()
	for i := 0; i < 14; i++ {
		date := start.AddDate(0, 0, i)
		first := Resolve(emp, ws, date)
		second := Resolve(emp, ws, date)
		assert.Equal(t, first, second, "date %s", date.Format(clock.DateLayout))
	}
}

func TestResolve_DoesNotAliasInputs(t *testing.T) {
	emp := testEmployee(employee.EmploymentClassRegular)

	eff := Resolve(emp, nil, monday())
	*eff.BreakStart = clock.MustParse("11:00")

	again := Resolve(emp, nil, monday())
	assert.Equal(t, "12:00", again.BreakStart.String())
}
