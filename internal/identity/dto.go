package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ryoevisu/kaishop-backend/pkg/enums"
	"github.com/ryoevisu/kaishop-backend/pkg/models"
)

// RegisterRequest carries the credentials for a new account.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

// LoginRequest carries the credentials for an existing account.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest carries the optional profile fields a caller may change.
type UpdateProfileRequest struct {
	Avatar *string `json:"avatar" validate:"omitempty,max=2048"`
	Bio    *string `json:"bio"`
}

// Profile is the public view of an identity. It never carries the password
// hash.
type Profile struct {
	ID           uuid.UUID       `json:"id"`
	Username     string          `json:"username"`
	Role         enums.Role      `json:"role"`
	Avatar       string          `json:"avatar,omitempty"`
	Bio          string          `json:"bio"`
	TotalOrders  int             `json:"total_orders"`
	TotalSpent   decimal.Decimal `json:"total_spent"`
	JoinedAt     time.Time       `json:"joined_at"`
	LastActiveAt time.Time       `json:"last_active_at"`
}

// AuthResponse is returned by both register and login.
type AuthResponse struct {
	Token    string  `json:"token"`
	Identity Profile `json:"identity"`
}

func profileFromModel(identity *models.Identity) Profile {
	return Profile{
		ID:           identity.ID,
		Username:     identity.Username,
		Role:         identity.Role,
		Avatar:       identity.Avatar,
		Bio:          identity.Bio,
		TotalOrders:  identity.Stats.TotalOrders,
		TotalSpent:   identity.Stats.TotalSpent,
		JoinedAt:     identity.JoinedAt,
		LastActiveAt: identity.LastActiveAt,
	}
}
