package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ryoevisu/kaishop-backend/pkg/enums"
)

// Stats accumulates lifetime purchase totals for an identity.
type Stats struct {
	TotalOrders int             `json:"total_orders"`
	TotalSpent  decimal.Decimal `json:"total_spent"`
}

// Identity is a registered account as persisted in the identities collection.
// The password hash travels with the record; API responses go through
// identity.DTO which strips it.
type Identity struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"password_hash"`
	Role         enums.Role `json:"role"`
	Avatar       string     `json:"avatar,omitempty"`
	Bio          string     `json:"bio"`
	Stats        Stats      `json:"stats"`
	JoinedAt     time.Time  `json:"joined_at"`
	LastActiveAt time.Time  `json:"last_active_at"`
}
