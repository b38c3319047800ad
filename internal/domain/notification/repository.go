package notification

import (
	"context"
)

// Repository defines the notification repository interface
type Repository interface {
	Create(ctx context.Context, notification *Notification) error
	CreateBatch(ctx context.Context, notifications []*Notification) error

	// IsNotificationEnabled reports the user's push preference, defaulting to enabled
	IsNotificationEnabled(ctx context.Context, userID string, notifType NotificationType) (bool, error)
}
