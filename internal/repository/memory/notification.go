package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/schedule-core/internal/domain/notification"
)

type notificationRepository struct {
	s *Store
}

func (r *notificationRepository) Create(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	defer r.s.begin(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("notification.create"); err != nil {
		return notification.Notification{}, err
	}
	n.IsRead = false
	n.ReadAt = nil
	n.Version = 1
	n.UpdatedAt = n.CreatedAt
	r.s.notifications[n.ID] = n
	return n, nil
}

func (r *notificationRepository) GetByID(ctx context.Context, scope, id string) (notification.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.check("notification.get"); err != nil {
		return notification.Notification{}, err
	}
	n, ok := r.s.notifications[id]
	if !ok || n.Scope != scope {
		return notification.Notification{}, notification.ErrNotificationNotFound
	}
	return n, nil
}

func (r *notificationRepository) List(ctx context.Context, scope string, filter notification.ListFilter) ([]notification.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.check("notification.list"); err != nil {
		return nil, err
	}
	filter = filter.Normalize()

	var out []notification.Notification
	for _, n := range r.s.notifications {
		if n.Scope != scope {
			continue
		}
		if filter.Category != nil && n.Category != *filter.Category {
			continue
		}
		if filter.UnreadOnly && n.IsRead {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, scope string) (map[notification.Category]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.check("notification.count_unread"); err != nil {
		return nil, err
	}
	counts := make(map[notification.Category]int)
	for _, n := range r.s.notifications {
		if n.Scope == scope && !n.IsRead {
			counts[n.Category]++
		}
	}
	return counts, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, scope string, ids []string, category *notification.Category, at time.Time) (int, error) {
	defer r.s.begin(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("notification.mark_read"); err != nil {
		return 0, err
	}
	flipped := 0
	for _, id := range ids {
		n, ok := r.s.notifications[id]
		if !ok || n.Scope != scope || n.IsRead {
			continue
		}
		if category != nil && n.Category != *category {
			continue
		}
		r.s.notifications[id] = markRead(n, at)
		flipped++
	}
	return flipped, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, scope string, category *notification.Category, at time.Time) (int, error) {
	defer r.s.begin(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("notification.mark_all_read"); err != nil {
		return 0, err
	}
	flipped := 0
	for id, n := range r.s.notifications {
		if n.Scope != scope || n.IsRead {
			continue
		}
		if category != nil && n.Category != *category {
			continue
		}
		r.s.notifications[id] = markRead(n, at)
		flipped++
	}
	return flipped, nil
}

func (r *notificationRepository) MarkEntityRead(ctx context.Context, scope string, category notification.Category, entityID string, at time.Time) (int, error) {
	defer r.s.begin(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("notification.mark_entity_read"); err != nil {
		return 0, err
	}
	flipped := 0
	for id, n := range r.s.notifications {
		if n.Scope != scope || n.IsRead || n.Category != category || n.EntityID != entityID {
			continue
		}
		r.s.notifications[id] = markRead(n, at)
		flipped++
	}
	return flipped, nil
}

func markRead(n notification.Notification, at time.Time) notification.Notification {
	readAt := at
	n.IsRead = true
	n.ReadAt = &readAt
	n.UpdatedAt = at
	n.Version++
	return n
}
