package schedule

import (
	"time"

	"github.com/cmlabs-hris/schedule-core/internal/domain/employee"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/clock"
	"github.com/shopspring/decimal"
)

// Resolve returns the effective working window of emp on date. active may be
// nil when the employee has no weekly schedule. Resolve has no side effects.
func Resolve(emp employee.Employee, active *WeeklySchedule, date time.Time) EffectiveSchedule {
	wd := clock.WeekdayOf(date)
	eff := ResolveWeekday(emp, active, wd)
	eff.Date = clock.DateOf(date, date.Location())
	return eff
}

// ResolveWeekday is Resolve without a calendar date, used for weekly views.
func ResolveWeekday(emp employee.Employee, active *WeeklySchedule, wd clock.Weekday) EffectiveSchedule {
	if active != nil {
		if entry, ok := active.Days[wd]; ok && !entry.UseDefault {
			if eff, ok := fromEntry(entry, wd); ok {
				return eff
			}
		}
	}
	return fromTemplate(emp.BaseTemplate.Day(wd), wd)
}

func fromEntry(entry DayEntry, wd clock.Weekday) (EffectiveSchedule, bool) {
	if entry.IsDayOff {
		return dayOff(wd, SourceOverride), true
	}
	if entry.TimeIn == nil || entry.TimeOut == nil {
		return EffectiveSchedule{}, false
	}

	eff := EffectiveSchedule{
		Weekday: wd,
		TimeIn:  *entry.TimeIn,
		TimeOut: *entry.TimeOut,
		Source:  SourceOverride,
	}
	if entry.HasBreak && entry.BreakStart != nil && entry.BreakEnd != nil {
		eff.BreakStart = entry.BreakStart.Ptr()
		eff.BreakEnd = entry.BreakEnd.Ptr()
	}
	eff.WorkingHours = workingHours(eff)
	return eff, true
}

func fromTemplate(day employee.TemplateDay, wd clock.Weekday) EffectiveSchedule {
	if !day.Enabled {
		return dayOff(wd, SourceDefault)
	}

	eff := EffectiveSchedule{
		Weekday: wd,
		TimeIn:  day.TimeIn,
		TimeOut: day.TimeOut,
		Source:  SourceDefault,
	}
	if day.BreakStart != nil && day.BreakEnd != nil {
		eff.BreakStart = day.BreakStart.Ptr()
		eff.BreakEnd = day.BreakEnd.Ptr()
	}
	eff.WorkingHours = workingHours(eff)
	return eff
}

func dayOff(wd clock.Weekday, src Source) EffectiveSchedule {
	return EffectiveSchedule{Weekday: wd, IsDayOff: true, Source: src, WorkingHours: decimal.Zero}
}

// workingHours is the shift length net of break, in hours to two decimals.
func workingHours(eff EffectiveSchedule) decimal.Decimal {
	minutes := eff.TimeOut.Sub(eff.TimeIn) / time.Minute
	if eff.BreakStart != nil && eff.BreakEnd != nil {
		minutes -= eff.BreakEnd.Sub(*eff.BreakStart) / time.Minute
	}
	if minutes <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(minutes)).Div(decimal.NewFromInt(60)).Round(2)
}
