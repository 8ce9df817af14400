package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/schedule-core/internal/domain/notification"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/realtime"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("github.com/cmlabs-hris/schedule-core/internal/service/notification")

// Config holds notification service configuration
type Config struct {
	Scope       string // default: notification.AdminScope
	WorkerCount int    // default: 2
	QueueSize   int    // default: 1000
}

type service struct {
	repo   notification.Repository
	hub    *realtime.Hub
	config Config
	logger *slog.Logger
	now    func() time.Time

	queue    chan realtime.Event
	wg       sync.WaitGroup
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewNotificationService creates a new notification service with background
// delivery workers.
func NewNotificationService(repo notification.Repository, hub *realtime.Hub, cfg Config, logger *slog.Logger) notification.Service {
	if cfg.Scope == "" {
		cfg.Scope = notification.AdminScope
	}
	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = 1000
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &service{
		repo:   repo,
		hub:    hub,
		config: cfg,
		logger: logger,
		now:    time.Now,
		queue:  make(chan realtime.Event, cfg.QueueSize),
		stopCh: make(chan struct{}),
	}

	for i := 0; i < cfg.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	logger.Info("notification service started",
		slog.Int("workers", cfg.WorkerCount),
		slog.Int("queue_size", cfg.QueueSize),
	)

	return s
}

// worker pushes queued events to the admin topic. On stop it drains what is
// already queued before returning.
func (s *service) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case ev := <-s.queue:
			s.deliver(id, ev)
		case <-s.stopCh:
			for {
				select {
				case ev := <-s.queue:
					s.deliver(id, ev)
				default:
					return
				}
			}
		}
	}
}

func (s *service) deliver(worker int, ev realtime.Event) {
	delivered := s.hub.Publish(notification.TopicAdminDashboard, ev)
	s.logger.Debug("live event delivered",
		slog.Int("worker", worker),
		slog.String("event", ev.Name),
		slog.Int("sessions", delivered),
	)
}

// enqueue hands ev to the workers. When the queue is full the event is
// delivered on the caller's goroutine instead of being lost.
func (s *service) enqueue(ev realtime.Event) {
	if ev.SentAt.IsZero() {
		ev.SentAt = s.now().UTC()
	}

	select {
	case <-s.stopCh:
		return
	default:
	}

	select {
	case s.queue <- ev:
	default:
		s.logger.Warn("notification queue full, delivering inline",
			slog.String("event", ev.Name),
			slog.String("error", notification.ErrQueueFull.Error()),
		)
		s.deliver(-1, ev)
	}
}

// RecordEvent implements notification.Service.
func (s *service) RecordEvent(ctx context.Context, req notification.RecordEventRequest) (notification.NotificationResponse, error) {
	ctx, span := tracer.Start(ctx, "notification.RecordEvent")
	defer span.End()
	span.SetAttributes(attribute.String("notification.category", string(req.Category)))

	if err := req.Validate(); err != nil {
		return notification.NotificationResponse{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return notification.NotificationResponse{}, fmt.Errorf("failed to generate notification id: %w", err)
	}

	n, err := s.repo.Create(ctx, notification.Notification{
		ID:         id.String(),
		Scope:      s.config.Scope,
		Category:   req.Category,
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		Title:      req.Title,
		Message:    req.Message,
		Data:       req.Data,
		Version:    1,
		CreatedAt:  s.now().UTC(),
	})
	if err != nil {
		return notification.NotificationResponse{}, fmt.Errorf("failed to record notification: %w", err)
	}

	resp := notification.ToResponse(n)
	counts, err := s.Counts(ctx)
	if err != nil {
		// The row is stored; clients re-fetch counts on the next hint.
		s.logger.Error("failed to load counts after recording notification",
			slog.String("notification_id", n.ID),
			slog.String("error", err.Error()),
		)
	}

	event := req.Event
	if event == "" {
		event = notification.EventRefreshNotifications
	}
	s.enqueue(realtime.Event{
		Name: event,
		Data: map[string]interface{}{
			"notification": resp,
			"counts":       counts,
		},
	})

	return resp, nil
}

// MarkRead implements notification.Service.
func (s *service) MarkRead(ctx context.Context, req notification.MarkAsReadRequest) (notification.MarkReadResponse, error) {
	if err := req.Validate(); err != nil {
		return notification.MarkReadResponse{}, err
	}

	updated, err := s.repo.MarkRead(ctx, s.config.Scope, req.NotificationIDs, req.Category, s.now().UTC())
	if err != nil {
		return notification.MarkReadResponse{}, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return s.afterRead(ctx, updated)
}

// MarkAllRead implements notification.Service.
func (s *service) MarkAllRead(ctx context.Context, req notification.MarkAllReadRequest) (notification.MarkReadResponse, error) {
	if err := req.Validate(); err != nil {
		return notification.MarkReadResponse{}, err
	}

	updated, err := s.repo.MarkAllRead(ctx, s.config.Scope, req.Category, s.now().UTC())
	if err != nil {
		return notification.MarkReadResponse{}, fmt.Errorf("failed to mark all notifications read: %w", err)
	}
	return s.afterRead(ctx, updated)
}

// ResolveEntity implements notification.Service.
func (s *service) ResolveEntity(ctx context.Context, category notification.Category, entityID string) (int, error) {
	if !category.Valid() {
		return 0, notification.ErrInvalidCategory
	}

	updated, err := s.repo.MarkEntityRead(ctx, s.config.Scope, category, entityID, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to resolve notifications of %s %s: %w", category, entityID, err)
	}
	if _, err := s.afterRead(ctx, updated); err != nil {
		return updated, err
	}
	return updated, nil
}

// afterRead reports the new counts and hints sessions only when a row changed.
func (s *service) afterRead(ctx context.Context, updated int) (notification.MarkReadResponse, error) {
	counts, err := s.Counts(ctx)
	if err != nil {
		return notification.MarkReadResponse{}, err
	}
	if updated > 0 {
		s.enqueue(realtime.Event{
			Name: notification.EventRefreshNotifications,
			Data: map[string]interface{}{"counts": counts},
		})
	}
	return notification.MarkReadResponse{Updated: updated, Counts: counts}, nil
}

// Counts implements notification.Service.
func (s *service) Counts(ctx context.Context) (notification.Counts, error) {
	m, err := s.repo.CountUnread(ctx, s.config.Scope)
	if err != nil {
		return notification.Counts{}, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return notification.CountsFrom(m), nil
}

// Recent implements notification.Service.
func (s *service) Recent(ctx context.Context, filter notification.ListFilter) (notification.NotificationListResponse, error) {
	if err := filter.Validate(); err != nil {
		return notification.NotificationListResponse{}, err
	}

	items, err := s.repo.List(ctx, s.config.Scope, filter.Normalize())
	if err != nil {
		return notification.NotificationListResponse{}, fmt.Errorf("failed to list notifications: %w", err)
	}
	counts, err := s.Counts(ctx)
	if err != nil {
		return notification.NotificationListResponse{}, err
	}

	responses := make([]notification.NotificationResponse, len(items))
	for i, n := range items {
		responses[i] = notification.ToResponse(n)
	}
	return notification.NotificationListResponse{Notifications: responses, Counts: counts}, nil
}

// Broadcast implements notification.Service.
func (s *service) Broadcast(event string, data interface{}) {
	s.enqueue(realtime.Event{Name: event, Data: data})
}

func (s *service) Subscribe(session realtime.Session) {
	s.hub.Subscribe(notification.TopicAdminDashboard, session)
	s.logger.Info("live session subscribed", slog.String("session_id", session.ID()))
}

func (s *service) Unsubscribe(sessionID string) {
	if s.hub.Unsubscribe(notification.TopicAdminDashboard, sessionID) {
		s.logger.Info("live session unsubscribed", slog.String("session_id", sessionID))
	}
}

func (s *service) SubscriberCount() int {
	return s.hub.SubscriberCount(notification.TopicAdminDashboard)
}

// Stop drains queued events, stops the workers and closes every session.
func (s *service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.wg.Wait()
		s.hub.CloseAll()
		s.logger.Info("notification service stopped")
	})
}
