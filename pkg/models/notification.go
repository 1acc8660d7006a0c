package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ryoevisu/kaishop-backend/pkg/enums"
)

// Notification is one entry in an identity's prepend-only notification list.
type Notification struct {
	ID         uuid.UUID              `json:"id"`
	Type       enums.NotificationType `json:"type"`
	Title      string                 `json:"title"`
	Message    string                 `json:"message"`
	OrderID    *uuid.UUID             `json:"order_id,omitempty"`
	AdminReply string                 `json:"admin_reply,omitempty"`
	Read       bool                   `json:"read"`
	CreatedAt  time.Time              `json:"created_at"`
}
