package notification

import (
	"context"

	"github.com/cmlabs-hris/schedule-core/internal/pkg/realtime"
)

// Service defines the notification service interface
type Service interface {
	// RecordEvent stores an unread notification and pushes a live hint to
	// every admin session.
	RecordEvent(ctx context.Context, req RecordEventRequest) (NotificationResponse, error)

	MarkRead(ctx context.Context, req MarkAsReadRequest) (MarkReadResponse, error)
	MarkAllRead(ctx context.Context, req MarkAllReadRequest) (MarkReadResponse, error)

	// ResolveEntity marks the notifications of a disposed entity read.
	ResolveEntity(ctx context.Context, category Category, entityID string) (int, error)

	Counts(ctx context.Context) (Counts, error)
	Recent(ctx context.Context, filter ListFilter) (NotificationListResponse, error)

	// Broadcast pushes a hint that is not backed by a stored notification.
	Broadcast(event string, data interface{})

	// Live sessions. There is no replay on subscribe; callers fetch Counts
	// and Recent after subscribing.
	Subscribe(session realtime.Session)
	Unsubscribe(sessionID string)
	SubscriberCount() int

	// Lifecycle
	Stop()
}
