package schedulerequest

import (
	"fmt"
	"sort"

	"github.com/cmlabs-hris/schedule-core/internal/domain/schedule"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/clock"
)

// OverlayOn lays the requested days over base, keyed by the weekday of each
// date. When two dates fall on the same weekday the later date wins. Weekdays
// the request does not mention keep their value from base.
func (r ScheduleRequest) OverlayOn(base map[clock.Weekday]*schedule.DayOverride) (map[clock.Weekday]*schedule.DayOverride, error) {
	out := make(map[clock.Weekday]*schedule.DayOverride, 7)
	for _, wd := range clock.AllWeekdays() {
		out[wd] = base[wd]
	}

	days := make([]ScheduleDay, len(r.Days))
	copy(days, r.Days)
	sort.SliceStable(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	for _, day := range days {
		date, err := day.ParsedDate()
		if err != nil {
			return nil, fmt.Errorf("schedule request %s: %w", r.ID, err)
		}
		wd := clock.WeekdayOf(date)

		if day.IsDayOff {
			out[wd] = &schedule.DayOverride{Enabled: true, IsDayOff: true}
			continue
		}
		if day.TimeIn == nil || day.TimeOut == nil {
			return nil, fmt.Errorf("schedule request %s: day %s has no hours", r.ID, day.Date)
		}

		o := &schedule.DayOverride{
			Enabled: true,
			TimeIn:  *day.TimeIn,
			TimeOut: *day.TimeOut,
		}
		if day.BreakStart != nil && day.BreakEnd != nil {
			o.HasBreak = true
			o.BreakStart = day.BreakStart.Ptr()
			o.BreakEnd = day.BreakEnd.Ptr()
		}
		out[wd] = o
	}
	return out, nil
}
