package holiday

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/schedule-core/internal/domain/holiday"
	"github.com/cmlabs-hris/schedule-core/internal/domain/notification"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/clock"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("github.com/cmlabs-hris/schedule-core/internal/service/holiday")

const entityType = "holiday"

// Config holds holiday service configuration
type Config struct {
	Location *time.Location // default: UTC
	Scope    string         // default: notification.AdminScope
}

type holidayServiceImpl struct {
	repo                holiday.Repository
	markers             holiday.AlertMarkerStore
	notificationService notification.Service
	config              Config
	logger              *slog.Logger
	now                 func() time.Time
}

func NewHolidayService(repo holiday.Repository, markers holiday.AlertMarkerStore, notificationService notification.Service, cfg Config, logger *slog.Logger) holiday.Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Scope == "" {
		cfg.Scope = notification.AdminScope
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &holidayServiceImpl{
		repo:                repo,
		markers:             markers,
		notificationService: notificationService,
		config:              cfg,
		logger:              logger,
		now:                 time.Now,
	}
}

// CheckToday implements holiday.Service. The marker is claimed before the
// notification is recorded, so concurrent checks raise one alert per holiday
// per local date.
func (s *holidayServiceImpl) CheckToday(ctx context.Context) (holiday.TodayResponse, error) {
	ctx, span := tracer.Start(ctx, "holiday.CheckToday")
	defer span.End()

	now := s.now().UTC()
	today := clock.DateOf(now, s.config.Location).Format(clock.DateLayout)
	span.SetAttributes(attribute.String("holiday.date", today))

	all, err := s.repo.List(ctx)
	if err != nil {
		return holiday.TodayResponse{}, fmt.Errorf("failed to list holidays: %w", err)
	}
	matches := holiday.HolidaysOn(all, now, s.config.Location)

	resp := holiday.TodayResponse{
		Date:     today,
		Holidays: holiday.ToResponses(matches),
		Alerted:  []holiday.HolidayResponse{},
	}
	if len(matches) == 0 {
		return resp, nil
	}

	s.notificationService.Broadcast(notification.EventHolidayToday, map[string]interface{}{
		"date":     today,
		"holidays": resp.Holidays,
	})

	for _, h := range matches {
		claimed, err := s.markers.Claim(ctx, s.config.Scope, h.ID, today)
		if err != nil {
			return resp, fmt.Errorf("failed to claim alert marker for holiday %s: %w", h.ID, err)
		}
		if !claimed {
			continue
		}

		_, err = s.notificationService.RecordEvent(ctx, notification.RecordEventRequest{
			Category:   notification.CategoryHoliday,
			EntityType: entityType,
			EntityID:   h.ID,
			Title:      h.Title,
			Message:    fmt.Sprintf("Today (%s) is a %s holiday: %s", today, h.Type, h.Title),
			Data: map[string]interface{}{
				"holiday_id": h.ID,
				"date":       today,
				"type":       h.Type,
			},
			Event: notification.EventHolidayAlert,
		})
		if err != nil {
			return resp, fmt.Errorf("failed to record alert for holiday %s: %w", h.ID, err)
		}

		resp.Alerted = append(resp.Alerted, holiday.ToResponse(h))
		s.logger.Info("holiday alert raised",
			slog.String("holiday_id", h.ID),
			slog.String("title", h.Title),
			slog.String("date", today),
		)
	}

	return resp, nil
}

// List implements holiday.Service.
func (s *holidayServiceImpl) List(ctx context.Context) ([]holiday.HolidayResponse, error) {
	hs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	return holiday.ToResponses(hs), nil
}

// Create implements holiday.Service.
func (s *holidayServiceImpl) Create(ctx context.Context, req holiday.CreateHolidayRequest) (holiday.HolidayResponse, error) {
	if err := req.Validate(); err != nil {
		return holiday.HolidayResponse{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return holiday.HolidayResponse{}, fmt.Errorf("failed to generate holiday id: %w", err)
	}
	date, _ := time.Parse(clock.DateLayout, req.Date)
	now := s.now().UTC()

	created, err := s.repo.Create(ctx, holiday.Holiday{
		ID:          id.String(),
		Date:        date,
		Type:        req.Type,
		Title:       req.Title,
		Description: req.Description,
		IsRecurring: req.IsRecurring,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return holiday.HolidayResponse{}, fmt.Errorf("failed to create holiday: %w", err)
	}

	resp := holiday.ToResponse(created)
	s.notificationService.Broadcast(notification.EventHolidayCreated, resp)
	return resp, nil
}

// Update implements holiday.Service.
func (s *holidayServiceImpl) Update(ctx context.Context, req holiday.UpdateHolidayRequest) (holiday.HolidayResponse, error) {
	if err := req.Validate(); err != nil {
		return holiday.HolidayResponse{}, err
	}

	current, err := s.repo.GetByID(ctx, req.ID)
	if err != nil {
		return holiday.HolidayResponse{}, err
	}
	next := req.Apply(current)
	next.UpdatedAt = s.now().UTC()

	updated, err := s.repo.Update(ctx, next)
	if err != nil {
		return holiday.HolidayResponse{}, fmt.Errorf("failed to update holiday: %w", err)
	}

	resp := holiday.ToResponse(updated)
	s.notificationService.Broadcast(notification.EventHolidayUpdated, resp)
	return resp, nil
}

// Delete implements holiday.Service.
func (s *holidayServiceImpl) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.notificationService.Broadcast(notification.EventHolidayDeleted, map[string]string{"id": id})
	return nil
}
