package models

import "time"

// NotificationType is the closed set of notification sources.
type NotificationType string

const (
	NotificationTypeAnnouncement NotificationType = "announcement"
	NotificationTypeDocument     NotificationType = "document"
	NotificationTypeSchedule     NotificationType = "schedule"
	NotificationTypeSystem       NotificationType = "system"
)

// Valid reports whether t is a known notification type.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationTypeAnnouncement, NotificationTypeDocument, NotificationTypeSchedule, NotificationTypeSystem:
		return true
	}
	return false
}

// Notification is a per-user message created by server-side events.
type Notification struct {
	ID               string           `db:"id" json:"id"`
	UserID           string           `db:"user_id" json:"userId"`
	Title            string           `db:"title" json:"title"`
	Message          string           `db:"message" json:"message"`
	NotificationType NotificationType `db:"notification_type" json:"notificationType"`
	IsRead           bool             `db:"is_read" json:"isRead"`
	CreatedAt        time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updatedAt"`
}

// NotificationFilter narrows a user's inbox.
type NotificationFilter struct {
	UnreadOnly bool
	Page
}

// NotificationMessage is the payload fanned out to every target.
type NotificationMessage struct {
	Title   string
	Message string
	Type    NotificationType
}

// FanoutFailure records a target that did not receive its notification.
type FanoutFailure struct {
	UserID string `json:"userId"`
	Reason string `json:"reason"`
}

// FanoutResult reports per-target delivery of a fan-out.
type FanoutResult struct {
	Succeeded []string        `json:"succeeded"`
	Failed    []FanoutFailure `json:"failed"`
}

// Complete reports whether every target received the notification.
func (r *FanoutResult) Complete() bool {
	return r != nil && len(r.Failed) == 0
}

// NotificationPagination extends Pagination with the caller's unread total.
type NotificationPagination struct {
	Pagination
	Unread int `json:"unread"`
}
