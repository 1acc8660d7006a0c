package orders

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"

	"github.com/ryoevisu/kaishop-backend/pkg/enums"
	"github.com/ryoevisu/kaishop-backend/pkg/models"
	"github.com/ryoevisu/kaishop-backend/pkg/store"
)

// ErrOrderNotFound indicates the order does not exist in the store.
var ErrOrderNotFound = errors.New("order not found")

// Repository persists orders in the orders collection.
type Repository struct {
	orders *store.Collection[[]models.Order]
}

// NewRepository wires the orders repository to its backing collection.
func NewRepository(orders *store.Collection[[]models.Order]) *Repository {
	return &Repository{orders: orders}
}

// Append stores a new order.
func (r *Repository) Append(ctx context.Context, order models.Order) error {
	_, err := r.orders.Update(ctx, func(all []models.Order) ([]models.Order, error) {
		return append(all, order), nil
	})
	return err
}

// ListByIdentity returns the identity's orders, newest first.
func (r *Repository) ListByIdentity(ctx context.Context, identityID uuid.UUID) ([]models.Order, error) {
	all, err := r.orders.Load(ctx)
	if err != nil {
		return nil, err
	}
	mine := []models.Order{}
	for _, order := range all {
		if order.IdentityID == identityID {
			mine = append(mine, order)
		}
	}
	sortNewestFirst(mine)
	return mine, nil
}

// ListAll returns every order, newest first.
func (r *Repository) ListAll(ctx context.Context) ([]models.Order, error) {
	all, err := r.orders.Load(ctx)
	if err != nil {
		return nil, err
	}
	sorted := append([]models.Order{}, all...)
	sortNewestFirst(sorted)
	return sorted, nil
}

// Reply appends an admin reply to the order and, when a status is given,
// overwrites the order's status with it unconditionally. It returns the
// updated order.
func (r *Repository) Reply(ctx context.Context, orderID uuid.UUID, reply models.AdminReply, status *enums.OrderStatus) (*models.Order, error) {
	var updated models.Order
	_, err := r.orders.Update(ctx, func(all []models.Order) ([]models.Order, error) {
		for i := range all {
			if all[i].ID != orderID {
				continue
			}
			all[i].AdminReplies = append(all[i].AdminReplies, reply)
			if status != nil {
				all[i].Status = *status
			}
			updated = all[i]
			return all, nil
		}
		return nil, ErrOrderNotFound
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func sortNewestFirst(orders []models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
