package notification

import (
	"time"
)

// Category groups notifications into the pending-work buckets the admin
// dashboard counts.
type Category string

const (
	CategoryLeave    Category = "leave"
	CategorySchedule Category = "schedule"
	CategoryMakeup   Category = "makeup"
	CategoryHoliday  Category = "holiday"
)

var CategoryValues = []string{
	string(CategoryLeave),
	string(CategorySchedule),
	string(CategoryMakeup),
	string(CategoryHoliday),
}

// AllCategories returns all available notification categories
func AllCategories() []Category {
	return []Category{CategoryLeave, CategorySchedule, CategoryMakeup, CategoryHoliday}
}

func (c Category) Valid() bool {
	switch c {
	case CategoryLeave, CategorySchedule, CategoryMakeup, CategoryHoliday:
		return true
	}
	return false
}

// AdminScope is the read-state key shared by every admin. A per-user read
// model would key notifications by user id instead.
const AdminScope = "admin"

// TopicAdminDashboard is the live channel every admin session subscribes to.
const TopicAdminDashboard = "admin-dashboard"

// Live event names. Every event is a hint to re-fetch, not a complete payload.
const (
	EventNewPendingRequest    = "new_pending_request"
	EventRequestsUpdated      = "requests_updated"
	EventRefreshNotifications = "refresh_notifications"
	EventScheduleUpdated      = "schedule_updated"
	EventHolidayToday         = "holiday_today"
	EventHolidayAlert         = "holiday_alert"
	EventHolidayCreated       = "holiday_created"
	EventHolidayUpdated       = "holiday_updated"
	EventHolidayDeleted       = "holiday_deleted"
)

// Notification represents a notification entity
type Notification struct {
	ID         string
	Scope      string
	Category   Category
	EntityType string
	EntityID   string
	Title      string
	Message    string
	Data       map[string]interface{}
	IsRead     bool
	ReadAt     *time.Time

	// Version increases on every change to the row, so clients reconciling
	// a live hint against a fetched snapshot keep the higher one.
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Counts is the number of unread notifications per category.
type Counts struct {
	Leave    int `json:"leave"`
	Schedule int `json:"schedule"`
	Makeup   int `json:"makeup"`
	Holiday  int `json:"holiday"`
	Total    int `json:"total"`
}

// CountsFrom builds Counts from a per-category map, ignoring unknown
// categories and negative values.
func CountsFrom(m map[Category]int) Counts {
	var c Counts
	for cat, n := range m {
		if n < 0 {
			n = 0
		}
		switch cat {
		case CategoryLeave:
			c.Leave = n
		case CategorySchedule:
			c.Schedule = n
		case CategoryMakeup:
			c.Makeup = n
		case CategoryHoliday:
			c.Holiday = n
		default:
			continue
		}
		c.Total += n
	}
	return c
}

// Of returns the count for one category.
func (c Counts) Of(cat Category) int {
	switch cat {
	case CategoryLeave:
		return c.Leave
	case CategorySchedule:
		return c.Schedule
	case CategoryMakeup:
		return c.Makeup
	case CategoryHoliday:
		return c.Holiday
	}
	return 0
}
