package notification

import (
	"context"
	"time"
)

// Repository stores notifications and their read state. Every method takes
// the read-state scope so that the shared admin model can later become per
// user without changing callers.
type Repository interface {
	Create(ctx context.Context, n Notification) (Notification, error)
	GetByID(ctx context.Context, scope, id string) (Notification, error)
	List(ctx context.Context, scope string, filter ListFilter) ([]Notification, error)
	CountUnread(ctx context.Context, scope string) (map[Category]int, error)

	// MarkRead flips only rows that exist and are unread, and returns how
	// many were flipped.
	MarkRead(ctx context.Context, scope string, ids []string, category *Category, at time.Time) (int, error)
	MarkAllRead(ctx context.Context, scope string, category *Category, at time.Time) (int, error)
	MarkEntityRead(ctx context.Context, scope string, category Category, entityID string, at time.Time) (int, error)
}
