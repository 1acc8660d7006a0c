package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ryoevisu/kaishop-backend/pkg/enums"
)

// AdminReply is one append-only message from an administrator on an order.
type AdminReply struct {
	ID            uuid.UUID `json:"id"`
	AdminID       uuid.UUID `json:"admin_id"`
	AdminUsername string    `json:"admin_username"`
	Message       string    `json:"message"`
	CreatedAt     time.Time `json:"created_at"`
}

// Order snapshots a cart at checkout time. Everything except Status and
// AdminReplies is immutable after creation.
type Order struct {
	ID              uuid.UUID         `json:"id"`
	IdentityID      uuid.UUID         `json:"identity_id"`
	Username        string            `json:"username"`
	Items           []LineItem        `json:"items"`
	Total           decimal.Decimal   `json:"total"`
	Bonus           string            `json:"bonus,omitempty"`
	Status          enums.OrderStatus `json:"status"`
	CustomerMessage string            `json:"customer_message"`
	AdminReplies    []AdminReply      `json:"admin_replies"`
	CreatedAt       time.Time         `json:"created_at"`
}

// ShortID returns the trailing id fragment used in notification copy.
func (o Order) ShortID() string {
	s := o.ID.String()
	if len(s) <= 6 {
		return s
	}
	return s[len(s)-6:]
}
