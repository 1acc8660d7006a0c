package enums

import "fmt"

// NotificationType tags a notification with the event that produced it.
type NotificationType string

const (
	NotificationTypeOrderCreated   NotificationType = "order_created"
	NotificationTypeAdminReply     NotificationType = "admin_reply"
	NotificationTypeOrderCompleted NotificationType = "order_completed"
	NotificationTypeOrderCancelled NotificationType = "order_cancelled"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrderCreated,
	NotificationTypeAdminReply,
	NotificationTypeOrderCompleted,
	NotificationTypeOrderCancelled,
}

// IsValid checks whether the given type matches the canonical set.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
