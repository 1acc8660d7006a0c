package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ryoevisu/kaishop-backend/internal/realtime"
	"github.com/ryoevisu/kaishop-backend/pkg/enums"
	pkgerrors "github.com/ryoevisu/kaishop-backend/pkg/errors"
	"github.com/ryoevisu/kaishop-backend/pkg/models"
)

// Service defines the behavior needed by the notifications controller and by
// the order flows that emit notifications.
type Service interface {
	List(ctx context.Context, identityID uuid.UUID) ([]models.Notification, error)
	MarkRead(ctx context.Context, identityID uuid.UUID, notificationID uuid.UUID) error
	NotifyOrderPlaced(ctx context.Context, order models.Order) (*models.Notification, error)
	NotifyAdminReply(ctx context.Context, order models.Order, replyMessage string, status *enums.OrderStatus) (*models.Notification, error)
}

type repository interface {
	Prepend(ctx context.Context, identityID uuid.UUID, notification models.Notification) error
	List(ctx context.Context, identityID uuid.UUID) ([]models.Notification, error)
	MarkRead(ctx context.Context, identityID uuid.UUID, notificationID uuid.UUID) error
}

type publisher interface {
	PushToIdentity(ctx context.Context, identityID uuid.UUID, event string, data any)
}

type service struct {
	repo      repository
	publisher publisher
	now       func() time.Time
}

// ServiceParams bundles the dependencies required to build a notifications
// service.
type ServiceParams struct {
	Repo      repository
	Publisher publisher
	Now       func() time.Time
}

// NewService constructs a notifications service with the provided
// dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("notifications repository is required")
	}
	if params.Publisher == nil {
		return nil, fmt.Errorf("realtime publisher is required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		repo:      params.Repo,
		publisher: params.Publisher,
		now:       params.Now,
	}, nil
}

func (s *service) List(ctx context.Context, identityID uuid.UUID) ([]models.Notification, error) {
	feed, err := s.repo.List(ctx, identityID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load notifications")
	}
	return feed, nil
}

func (s *service) MarkRead(ctx context.Context, identityID uuid.UUID, notificationID uuid.UUID) error {
	err := s.repo.MarkRead(ctx, identityID, notificationID)
	if err != nil {
		if errors.Is(err, ErrNoNotifications) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "notifications not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	return nil
}

// NotifyOrderPlaced records the checkout confirmation and pushes it to the
// order's owner.
func (s *service) NotifyOrderPlaced(ctx context.Context, order models.Order) (*models.Notification, error) {
	orderID := order.ID
	notification := models.Notification{
		ID:        uuid.New(),
		Type:      enums.NotificationTypeOrderCreated,
		Title:     "Order Placed Successfully",
		Message:   fmt.Sprintf("Your order #%s has been placed and is pending approval.", order.ShortID()),
		OrderID:   &orderID,
		CreatedAt: s.now().UTC(),
	}
	return s.store(ctx, order.IdentityID, notification)
}

// NotifyAdminReply records an admin reply notification and pushes it to the
// order's owner. The message depends on whether the reply also moved the
// order to a terminal status.
func (s *service) NotifyAdminReply(ctx context.Context, order models.Order, replyMessage string, status *enums.OrderStatus) (*models.Notification, error) {
	message := "Admin replied to your order."
	if status != nil {
		switch *status {
		case enums.OrderStatusCompleted:
			message = "Your order has been completed!"
		case enums.OrderStatusCancelled:
			message = "Your order has been cancelled."
		}
	}

	orderID := order.ID
	notification := models.Notification{
		ID:         uuid.New(),
		Type:       enums.NotificationTypeAdminReply,
		Title:      fmt.Sprintf("Order #%s Update", order.ShortID()),
		Message:    message,
		OrderID:    &orderID,
		AdminReply: replyMessage,
		CreatedAt:  s.now().UTC(),
	}
	return s.store(ctx, order.IdentityID, notification)
}

func (s *service) store(ctx context.Context, identityID uuid.UUID, notification models.Notification) (*models.Notification, error) {
	if err := s.repo.Prepend(ctx, identityID, notification); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store notification")
	}
	s.publisher.PushToIdentity(ctx, identityID, realtime.EventNotification, notification)
	return &notification, nil
}
