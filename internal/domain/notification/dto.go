package notification

import (
	"time"

	"github.com/cmlabs-hris/schedule-core/internal/pkg/validator"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// ============= Request DTOs =============

// RecordEventRequest represents a request to record a notification
type RecordEventRequest struct {
	Category   Category               `json:"category"`
	EntityType string                 `json:"entity_type"`
	EntityID   string                 `json:"entity_id"`
	Title      string                 `json:"title"`
	Message    string                 `json:"message"`
	Data       map[string]interface{} `json:"data,omitempty"`

	// Event is the live event name; refresh_notifications when empty. Only
	// in-process callers set it, the JSON intake cannot.
	Event string `json:"-"`
}

func (r *RecordEventRequest) Validate() error {
	var errs validator.ValidationErrors
	if !r.Category.Valid() {
		errs.Add("category", "category must be one of: leave, schedule, makeup, holiday")
	}
	if validator.IsEmpty(r.Title) {
		errs.Add("title", "title is required")
	}
	if len(r.Title) > 255 {
		errs.Add("title", "title must not exceed 255 characters")
	}
	if r.EntityID != "" && validator.IsEmpty(r.EntityType) {
		errs.Add("entity_type", "entity_type is required when entity_id is set")
	}
	return errs.Err()
}

// MarkAsReadRequest represents a request to mark notifications as read.
// With Category set, ids of other categories are left unread.
type MarkAsReadRequest struct {
	NotificationIDs []string  `json:"notification_ids"`
	Category        *Category `json:"category,omitempty"`
}

func (r *MarkAsReadRequest) Validate() error {
	var errs validator.ValidationErrors
	if len(r.NotificationIDs) == 0 {
		errs.Add("notification_ids", "notification_ids must contain at least one id")
	}
	for _, id := range r.NotificationIDs {
		if validator.IsEmpty(id) {
			errs.Add("notification_ids", "notification_ids must not contain empty ids")
			break
		}
	}
	if r.Category != nil && !r.Category.Valid() {
		errs.Add("category", "category must be one of: leave, schedule, makeup, holiday")
	}
	return errs.Err()
}

// MarkAllReadRequest marks every unread notification read, optionally only
// within one category.
type MarkAllReadRequest struct {
	Category *Category `json:"category,omitempty"`
}

func (r *MarkAllReadRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.Category != nil && !r.Category.Valid() {
		errs.Add("category", "category must be one of: leave, schedule, makeup, holiday")
	}
	return errs.Err()
}

// ListFilter represents a request to list notifications
type ListFilter struct {
	Category   *Category
	UnreadOnly bool
	Limit      int
}

func (f *ListFilter) Validate() error {
	var errs validator.ValidationErrors
	if f.Category != nil && !f.Category.Valid() {
		errs.Add("category", "category must be one of: leave, schedule, makeup, holiday")
	}
	if f.Limit < 0 {
		errs.Add("limit", "limit must not be negative")
	}
	return errs.Err()
}

// Normalize applies the default and maximum limit.
func (f ListFilter) Normalize() ListFilter {
	if f.Limit == 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	return f
}

// ============= Response DTOs =============

// NotificationResponse represents a notification in API responses
type NotificationResponse struct {
	ID         string                 `json:"id"`
	Category   Category               `json:"category"`
	EntityType string                 `json:"entity_type,omitempty"`
	EntityID   string                 `json:"entity_id,omitempty"`
	Title      string                 `json:"title"`
	Message    string                 `json:"message"`
	Data       map[string]interface{} `json:"data,omitempty"`
	IsRead     bool                   `json:"is_read"`
	ReadAt     *time.Time             `json:"read_at,omitempty"`
	Version    int64                  `json:"version"`
	CreatedAt  time.Time              `json:"created_at"`
}

// NotificationListResponse represents a list of recent notifications
type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	Counts        Counts                 `json:"counts"`
}

// MarkReadResponse reports how many notifications were flipped and the
// counts after the change.
type MarkReadResponse struct {
	Updated int    `json:"updated"`
	Counts  Counts `json:"counts"`
}

// SSETokenResponse represents the SSE token response
type SSETokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

func ToResponse(n Notification) NotificationResponse {
	return NotificationResponse{
		ID:         n.ID,
		Category:   n.Category,
		EntityType: n.EntityType,
		EntityID:   n.EntityID,
		Title:      n.Title,
		Message:    n.Message,
		Data:       n.Data,
		IsRead:     n.IsRead,
		ReadAt:     n.ReadAt,
		Version:    n.Version,
		CreatedAt:  n.CreatedAt,
	}
}
