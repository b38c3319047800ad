package notification

import "errors"

// Notification domain errors
var (
	ErrInvalidNotificationType = errors.New("invalid notification type")
	ErrServiceStopped          = errors.New("notification service is stopped")
)
