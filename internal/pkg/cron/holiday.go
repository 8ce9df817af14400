package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/schedule-core/internal/domain/holiday"
)

const HolidayAlertJobName = "holiday_alert_check"

type HolidayJobs struct {
	holidayService holiday.Service
	interval       time.Duration
	logger         *slog.Logger
}

func NewHolidayJobs(holidayService holiday.Service, interval time.Duration, logger *slog.Logger) *HolidayJobs {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HolidayJobs{
		holidayService: holidayService,
		interval:       interval,
		logger:         logger,
	}
}

func (j *HolidayJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob(HolidayAlertJobName, j.interval, j.CheckHolidays)
}

// CheckHolidays raises the day's holiday alerts. Alerts already raised for
// the local date are skipped by the holiday service, so the job can run as
// often as the interval allows.
func (j *HolidayJobs) CheckHolidays(ctx context.Context) error {
	resp, err := j.holidayService.CheckToday(ctx)
	if err != nil {
		return fmt.Errorf("failed to check holidays: %w", err)
	}

	if len(resp.Alerted) > 0 {
		j.logger.Info("Cron: Holiday alerts raised",
			"date", resp.Date,
			"alerted", len(resp.Alerted),
			"holidays_today", len(resp.Holidays))
	}
	return nil
}
