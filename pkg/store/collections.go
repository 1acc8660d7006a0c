package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/ryoevisu/kaishop-backend/pkg/models"
)

const (
	collectionIdentities    = "identities"
	collectionCarts         = "carts"
	collectionOrders        = "orders"
	collectionNotifications = "notifications"
)

// Collections bundles the four persisted documents the backend works with:
// a sequence of identities, carts keyed by identity, a sequence of orders,
// and notification lists keyed by identity.
type Collections struct {
	Identities    *Collection[[]models.Identity]
	Carts         *Collection[map[uuid.UUID][]models.LineItem]
	Orders        *Collection[[]models.Order]
	Notifications *Collection[map[uuid.UUID][]models.Notification]
}

func NewCollections(s *Store) *Collections {
	return &Collections{
		Identities: NewCollection(s, collectionIdentities, func() []models.Identity {
			return []models.Identity{}
		}),
		Carts: NewCollection(s, collectionCarts, func() map[uuid.UUID][]models.LineItem {
			return map[uuid.UUID][]models.LineItem{}
		}),
		Orders: NewCollection(s, collectionOrders, func() []models.Order {
			return []models.Order{}
		}),
		Notifications: NewCollection(s, collectionNotifications, func() map[uuid.UUID][]models.Notification {
			return map[uuid.UUID][]models.Notification{}
		}),
	}
}

// Bootstrap writes empty defaults for any collection file not on disk yet.
func (c *Collections) Bootstrap(ctx context.Context) error {
	if err := c.Identities.Bootstrap(ctx); err != nil {
		return err
	}
	if err := c.Carts.Bootstrap(ctx); err != nil {
		return err
	}
	if err := c.Orders.Bootstrap(ctx); err != nil {
		return err
	}
	return c.Notifications.Bootstrap(ctx)
}
