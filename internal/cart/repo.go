package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ryoevisu/kaishop-backend/pkg/models"
	"github.com/ryoevisu/kaishop-backend/pkg/store"
)

// ErrCartNotFound indicates the identity has no cart record at all.
var ErrCartNotFound = errors.New("cart not found")

// Repository persists per-identity carts in the carts collection.
type Repository struct {
	carts *store.Collection[map[uuid.UUID][]models.LineItem]
}

// NewRepository wires the cart repository to its backing collection.
func NewRepository(carts *store.Collection[map[uuid.UUID][]models.LineItem]) *Repository {
	return &Repository{carts: carts}
}

// Get returns the identity's cart. A missing record reads as an empty cart.
func (r *Repository) Get(ctx context.Context, identityID uuid.UUID) ([]models.LineItem, error) {
	all, err := r.carts.Load(ctx)
	if err != nil {
		return nil, err
	}
	items := all[identityID]
	if items == nil {
		items = []models.LineItem{}
	}
	return items, nil
}

// AddItem puts the item in the identity's cart. Adding an item id that is
// already present bumps its quantity and keeps the attributes from the first
// add.
func (r *Repository) AddItem(ctx context.Context, identityID uuid.UUID, item models.LineItem, at time.Time) ([]models.LineItem, error) {
	var items []models.LineItem
	_, err := r.carts.Update(ctx, func(all map[uuid.UUID][]models.LineItem) (map[uuid.UUID][]models.LineItem, error) {
		cart := all[identityID]
		found := false
		for i := range cart {
			if cart[i].ItemID == item.ItemID {
				cart[i].Quantity += item.Quantity
				found = true
				break
			}
		}
		if !found {
			item.AddedAt = at
			cart = append(cart, item)
		}
		all[identityID] = cart
		items = append([]models.LineItem{}, cart...)
		return all, nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// RemoveItem drops the item from the identity's cart. Removing from an
// identity that has never had a cart record is an error; removing an item id
// that is not in the cart leaves the cart as it is.
func (r *Repository) RemoveItem(ctx context.Context, identityID uuid.UUID, itemID string) ([]models.LineItem, error) {
	var items []models.LineItem
	_, err := r.carts.Update(ctx, func(all map[uuid.UUID][]models.LineItem) (map[uuid.UUID][]models.LineItem, error) {
		cart, ok := all[identityID]
		if !ok {
			return nil, ErrCartNotFound
		}
		next := cart[:0]
		for _, line := range cart {
			if line.ItemID != itemID {
				next = append(next, line)
			}
		}
		all[identityID] = next
		items = append([]models.LineItem{}, next...)
		return all, nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Clear empties the identity's cart but keeps the record in place.
func (r *Repository) Clear(ctx context.Context, identityID uuid.UUID) error {
	_, err := r.carts.Update(ctx, func(all map[uuid.UUID][]models.LineItem) (map[uuid.UUID][]models.LineItem, error) {
		all[identityID] = []models.LineItem{}
		return all, nil
	})
	return err
}
