package notifications

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ryoevisu/kaishop-backend/pkg/models"
	"github.com/ryoevisu/kaishop-backend/pkg/store"
)

// ErrNoNotifications indicates the identity has no notification record at all.
var ErrNoNotifications = errors.New("notifications not found")

// Repository persists per-identity notification feeds, newest first.
type Repository struct {
	notifications *store.Collection[map[uuid.UUID][]models.Notification]
}

// NewRepository wires the notifications repository to its backing collection.
func NewRepository(notifications *store.Collection[map[uuid.UUID][]models.Notification]) *Repository {
	return &Repository{notifications: notifications}
}

// Prepend stores a notification at the head of the identity's feed.
func (r *Repository) Prepend(ctx context.Context, identityID uuid.UUID, notification models.Notification) error {
	_, err := r.notifications.Update(ctx, func(all map[uuid.UUID][]models.Notification) (map[uuid.UUID][]models.Notification, error) {
		feed := all[identityID]
		all[identityID] = append([]models.Notification{notification}, feed...)
		return all, nil
	})
	return err
}

// List returns the identity's feed in stored order. A missing record reads as
// an empty feed.
func (r *Repository) List(ctx context.Context, identityID uuid.UUID) ([]models.Notification, error) {
	all, err := r.notifications.Load(ctx)
	if err != nil {
		return nil, err
	}
	feed := all[identityID]
	if feed == nil {
		feed = []models.Notification{}
	}
	return feed, nil
}

// MarkRead flags one notification as read. An identity without any record is
// an error; an unknown notification id inside an existing record is not.
func (r *Repository) MarkRead(ctx context.Context, identityID uuid.UUID, notificationID uuid.UUID) error {
	_, err := r.notifications.Update(ctx, func(all map[uuid.UUID][]models.Notification) (map[uuid.UUID][]models.Notification, error) {
		feed, ok := all[identityID]
		if !ok {
			return nil, ErrNoNotifications
		}
		for i := range feed {
			if feed[i].ID == notificationID {
				feed[i].Read = true
				break
			}
		}
		all[identityID] = feed
		return all, nil
	})
	return err
}
