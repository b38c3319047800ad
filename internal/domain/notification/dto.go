package notification

// CreateNotificationRequest represents a request to create a notification
type CreateNotificationRequest struct {
	OrgID       string
	RecipientID string
	SenderID    *string
	Type        NotificationType
	Title       string
	Message     string
	Data        map[string]interface{}
}
