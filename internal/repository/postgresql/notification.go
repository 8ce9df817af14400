package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/schedule-core/internal/domain/notification"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type notificationRepository struct {
	db *database.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *database.DB) notification.Repository {
	return &notificationRepository{db: db}
}

const notificationColumns = `
	id, scope, category, entity_type, entity_id, title, message, data, is_read, read_at, version, created_at, updated_at
`

func scanNotification(row pgx.Row) (notification.Notification, error) {
	var (
		n        notification.Notification
		dataJSON []byte
	)
	err := row.Scan(
		&n.ID, &n.Scope, &n.Category, &n.EntityType, &n.EntityID, &n.Title, &n.Message,
		&dataJSON, &n.IsRead, &n.ReadAt, &n.Version, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return notification.Notification{}, err
	}
	if len(dataJSON) > 0 {
		if err := json.Unmarshal(dataJSON, &n.Data); err != nil {
			return notification.Notification{}, fmt.Errorf("failed to unmarshal notification data: %w", err)
		}
	}
	return n, nil
}

// Create creates a new notification
func (r *notificationRepository) Create(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	q := GetQuerier(ctx, r.db)

	dataJSON, err := json.Marshal(n.Data)
	if err != nil {
		return notification.Notification{}, fmt.Errorf("failed to marshal notification data: %w", err)
	}

	query := `
		INSERT INTO notifications (
			id, scope, category, entity_type, entity_id, title, message, data, is_read, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false, 1, $9, $9)
		RETURNING ` + notificationColumns

	created, err := scanNotification(q.QueryRow(ctx, query,
		n.ID,
		n.Scope,
		n.Category,
		n.EntityType,
		n.EntityID,
		n.Title,
		n.Message,
		dataJSON,
		n.CreatedAt,
	))
	if err != nil {
		return notification.Notification{}, fmt.Errorf("failed to create notification: %w", err)
	}
	return created, nil
}

// GetByID retrieves a notification by ID
func (r *notificationRepository) GetByID(ctx context.Context, scope, id string) (notification.Notification, error) {
	if !isUUID(id) {
		return notification.Notification{}, notification.ErrNotificationNotFound
	}
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE scope = $1 AND id = $2`

	n, err := scanNotification(q.QueryRow(ctx, query, scope, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notification.Notification{}, notification.ErrNotificationNotFound
		}
		return notification.Notification{}, fmt.Errorf("failed to get notification: %w", err)
	}
	return n, nil
}

// List returns the newest notifications of scope first
func (r *notificationRepository) List(ctx context.Context, scope string, filter notification.ListFilter) ([]notification.Notification, error) {
	q := GetQuerier(ctx, r.db)
	filter = filter.Normalize()

	conditions := []string{"scope = $1"}
	args := []interface{}{scope}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.UnreadOnly {
		conditions = append(conditions, "is_read = false")
	}
	args = append(args, filter.Limit)

	query := fmt.Sprintf(`
		SELECT %s
		FROM notifications
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d
	`, notificationColumns, strings.Join(conditions, " AND "), len(args))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []notification.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notifications, nil
}

// CountUnread returns unread notifications of scope per category
func (r *notificationRepository) CountUnread(ctx context.Context, scope string) (map[notification.Category]int, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT category, COUNT(*)
		FROM notifications
		WHERE scope = $1 AND is_read = false
		GROUP BY category
	`

	rows, err := q.Query(ctx, query, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	defer rows.Close()

	counts := make(map[notification.Category]int)
	for rows.Next() {
		var (
			category notification.Category
			count    int
		)
		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}
		counts[category] = count
	}
	return counts, rows.Err()
}

// MarkRead marks specific unread notifications as read. Ids that are not
// uuids cannot exist and are skipped.
func (r *notificationRepository) MarkRead(ctx context.Context, scope string, ids []string, category *notification.Category, at time.Time) (int, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if isUUID(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return 0, nil
	}

	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE notifications
		SET is_read = true, read_at = $1, updated_at = $1, version = version + 1
		WHERE scope = $2 AND id = ANY($3::uuid[]) AND is_read = false AND ($4::text IS NULL OR category = $4)
	`

	commandTag, err := q.Exec(ctx, query, at, scope, valid, categoryArg(category))
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	return int(commandTag.RowsAffected()), nil
}

// MarkAllRead marks all unread notifications of scope as read
func (r *notificationRepository) MarkAllRead(ctx context.Context, scope string, category *notification.Category, at time.Time) (int, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE notifications
		SET is_read = true, read_at = $1, updated_at = $1, version = version + 1
		WHERE scope = $2 AND is_read = false AND ($3::text IS NULL OR category = $3)
	`

	commandTag, err := q.Exec(ctx, query, at, scope, categoryArg(category))
	if err != nil {
		return 0, fmt.Errorf("failed to mark all notifications as read: %w", err)
	}
	return int(commandTag.RowsAffected()), nil
}

// MarkEntityRead marks the unread notifications about one entity as read
func (r *notificationRepository) MarkEntityRead(ctx context.Context, scope string, category notification.Category, entityID string, at time.Time) (int, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE notifications
		SET is_read = true, read_at = $1, updated_at = $1, version = version + 1
		WHERE scope = $2 AND category = $3 AND entity_id = $4 AND is_read = false
	`

	commandTag, err := q.Exec(ctx, query, at, scope, category, entityID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark entity notifications as read: %w", err)
	}
	return int(commandTag.RowsAffected()), nil
}

// categoryArg passes an optional category as a nullable text parameter.
func categoryArg(category *notification.Category) *string {
	if category == nil {
		return nil
	}
	s := string(*category)
	return &s
}
