package memory

import (
	"context"

	"github.com/cmlabs-hris/schedule-core/internal/domain/schedule"
)

type weeklyScheduleRepository struct {
	s *Store
}

func (r *weeklyScheduleRepository) GetActiveByEmployeeID(ctx context.Context, employeeID string) (schedule.WeeklySchedule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.check("weekly_schedule.get_active"); err != nil {
		return schedule.WeeklySchedule{}, err
	}
	ws, ok := r.s.schedules[employeeID]
	if !ok {
		return schedule.WeeklySchedule{}, schedule.ErrWeeklyScheduleNotFound
	}
	return ws, nil
}

func (r *weeklyScheduleRepository) ReplaceActive(ctx context.Context, ws schedule.WeeklySchedule) (schedule.WeeklySchedule, error) {
	defer r.s.begin(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("weekly_schedule.replace_active"); err != nil {
		return schedule.WeeklySchedule{}, err
	}
	days := make(schedule.Days, len(ws.Days))
	for wd, entry := range ws.Days {
		days[wd] = entry
	}
	ws.Days = days
	ws.UpdatedAt = ws.CreatedAt
	r.s.schedules[ws.EmployeeID] = ws
	return ws, nil
}
