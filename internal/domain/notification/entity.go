package notification

import (
	"time"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	TypeMissingClockOut      NotificationType = "missing_clock_out"
	TypeAttendanceAutoClosed NotificationType = "attendance_auto_closed"
)

// AllNotificationTypes returns all available notification types
func AllNotificationTypes() []NotificationType {
	return []NotificationType{
		TypeMissingClockOut,
		TypeAttendanceAutoClosed,
	}
}

// Notification represents a notification entity
type Notification struct {
	ID          string
	OrgID       string
	RecipientID string
	SenderID    *string
	Type        NotificationType
	Title       string
	Message     string
	Data        map[string]interface{}
	IsRead      bool
	ReadAt      *time.Time
	CreatedAt   time.Time
}
