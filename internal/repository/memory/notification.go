package memory

import (
	"context"
	"slices"

	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/notification"
	"github.com/google/uuid"
)

type notificationRepository struct {
	s *Store
}

func (s *Store) Notifications() notification.Repository {
	return &notificationRepository{s: s}
}

func (r *notificationRepository) Create(_ context.Context, n *notification.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.appendNotificationLocked(n)
	return nil
}

func (r *notificationRepository) CreateBatch(_ context.Context, notifications []*notification.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, n := range notifications {
		r.s.appendNotificationLocked(n)
	}
	return nil
}

func (r *notificationRepository) IsNotificationEnabled(_ context.Context, userID string, notifType notification.NotificationType) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	enabled, ok := r.s.preferences[userID+"|"+string(notifType)]
	if !ok {
		return true, nil
	}
	return enabled, nil
}

func (s *Store) appendNotificationLocked(n *notification.Notification) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	s.notifications = append(s.notifications, *n)
}

// SetNotificationPreference toggles push delivery of a type for a user.
func (s *Store) SetNotificationPreference(userID string, notifType notification.NotificationType, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preferences[userID+"|"+string(notifType)] = enabled
}

// NotificationList returns every stored notification in insertion order.
func (s *Store) NotificationList() []notification.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.notifications)
}
