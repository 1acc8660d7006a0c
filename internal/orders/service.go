package orders

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ryoevisu/kaishop-backend/internal/realtime"
	"github.com/ryoevisu/kaishop-backend/pkg/config"
	"github.com/ryoevisu/kaishop-backend/pkg/enums"
	pkgerrors "github.com/ryoevisu/kaishop-backend/pkg/errors"
	"github.com/ryoevisu/kaishop-backend/pkg/models"
)

// CheckoutRequest carries the optional note a customer attaches at checkout.
type CheckoutRequest struct {
	Message string `json:"message" validate:"omitempty,max=1000"`
}

// CheckoutResult is the order plus where the storefront sends the customer to
// settle payment.
type CheckoutResult struct {
	Order       models.Order `json:"order"`
	RedirectURL string       `json:"redirect_url"`
}

// ReplyRequest carries an admin's reply and optional status change.
type ReplyRequest struct {
	Message string `json:"message" validate:"required,max=1000"`
	Status  string `json:"status" validate:"omitempty"`
}

// Actor identifies the authenticated administrator performing a reply.
type Actor struct {
	ID       uuid.UUID
	Username string
}

// Service defines the behavior needed by the orders controllers.
type Service interface {
	Checkout(ctx context.Context, identityID uuid.UUID, username string, req CheckoutRequest) (*CheckoutResult, error)
	List(ctx context.Context, identityID uuid.UUID) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	Reply(ctx context.Context, actor Actor, orderID uuid.UUID, req ReplyRequest) (*models.Order, error)
}

type repository interface {
	Append(ctx context.Context, order models.Order) error
	ListByIdentity(ctx context.Context, identityID uuid.UUID) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	Reply(ctx context.Context, orderID uuid.UUID, reply models.AdminReply, status *enums.OrderStatus) (*models.Order, error)
}

type cartRepository interface {
	Get(ctx context.Context, identityID uuid.UUID) ([]models.LineItem, error)
	Clear(ctx context.Context, identityID uuid.UUID) error
}

type statsRecorder interface {
	RecordOrder(ctx context.Context, id uuid.UUID, total decimal.Decimal, at time.Time) error
}

type notifier interface {
	NotifyOrderPlaced(ctx context.Context, order models.Order) (*models.Notification, error)
	NotifyAdminReply(ctx context.Context, order models.Order, replyMessage string, status *enums.OrderStatus) (*models.Notification, error)
}

type publisher interface {
	PushToIdentity(ctx context.Context, identityID uuid.UUID, event string, data any)
	PushToAdministrators(ctx context.Context, event string, data any)
}

type service struct {
	repo      repository
	carts     cartRepository
	stats     statsRecorder
	notifier  notifier
	publisher publisher
	cfg       config.CheckoutConfig
	now       func() time.Time
	bonusRoll func() int
}

// ServiceParams bundles the dependencies required to build an orders service.
type ServiceParams struct {
	Repo           repository
	CartRepo       cartRepository
	StatsRecorder  statsRecorder
	Notifier       notifier
	Publisher      publisher
	CheckoutConfig config.CheckoutConfig
	Now            func() time.Time
	BonusRoll      func() int
}

// NewService constructs an orders service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository is required")
	}
	if params.CartRepo == nil {
		return nil, fmt.Errorf("cart repository is required")
	}
	if params.StatsRecorder == nil {
		return nil, fmt.Errorf("stats recorder is required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}
	if params.Publisher == nil {
		return nil, fmt.Errorf("realtime publisher is required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	if params.BonusRoll == nil {
		// Bonus sheckle amounts land between 5 and 20 inclusive.
		params.BonusRoll = func() int { return rand.Intn(16) + 5 }
	}
	return &service{
		repo:      params.Repo,
		carts:     params.CartRepo,
		stats:     params.StatsRecorder,
		notifier:  params.Notifier,
		publisher: params.Publisher,
		cfg:       params.CheckoutConfig,
		now:       params.Now,
		bonusRoll: params.BonusRoll,
	}, nil
}

// Checkout turns the identity's cart into a pending order. The cart is
// emptied, lifetime stats are bumped, the customer is notified, and admins
// hear about the new order.
func (s *service) Checkout(ctx context.Context, identityID uuid.UUID, username string, req CheckoutRequest) (*CheckoutResult, error) {
	items, err := s.carts.Get(ctx, identityID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart is empty")
	}

	total := decimal.Zero
	for _, line := range items {
		total = total.Add(line.Subtotal())
	}

	bonus := ""
	for _, line := range items {
		if line.ItemID == s.cfg.MegaDealItemID {
			bonus = fmt.Sprintf("%dB Bonus Sheckles", s.bonusRoll())
			break
		}
	}

	now := s.now().UTC()
	order := models.Order{
		ID:              uuid.New(),
		IdentityID:      identityID,
		Username:        username,
		Items:           items,
		Total:           total,
		Bonus:           bonus,
		Status:          enums.OrderStatusPending,
		CustomerMessage: req.Message,
		AdminReplies:    []models.AdminReply{},
		CreatedAt:       now,
	}

	if err := s.repo.Append(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store order")
	}
	if err := s.stats.RecordOrder(ctx, identityID, total, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record order stats")
	}
	if err := s.carts.Clear(ctx, identityID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	if _, err := s.notifier.NotifyOrderPlaced(ctx, order); err != nil {
		return nil, err
	}

	s.publisher.PushToIdentity(ctx, identityID, realtime.EventCartUpdated, []models.LineItem{})
	s.publisher.PushToIdentity(ctx, identityID, realtime.EventOrderUpdate, order)
	s.publisher.PushToAdministrators(ctx, realtime.EventNewOrder, order)

	return &CheckoutResult{Order: order, RedirectURL: s.cfg.RedirectURL}, nil
}

func (s *service) List(ctx context.Context, identityID uuid.UUID) ([]models.Order, error) {
	orders, err := s.repo.ListByIdentity(ctx, identityID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load orders")
	}
	return orders, nil
}

func (s *service) ListAll(ctx context.Context) ([]models.Order, error) {
	orders, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load orders")
	}
	return orders, nil
}

// Reply appends an admin message to the order, optionally moving its status,
// then notifies the order's owner.
func (s *service) Reply(ctx context.Context, actor Actor, orderID uuid.UUID, req ReplyRequest) (*models.Order, error) {
	var status *enums.OrderStatus
	if req.Status != "" {
		parsed, err := enums.ParseOrderStatus(req.Status)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
		}
		status = &parsed
	}

	reply := models.AdminReply{
		ID:            uuid.New(),
		AdminID:       actor.ID,
		AdminUsername: actor.Username,
		Message:       req.Message,
		CreatedAt:     s.now().UTC(),
	}

	order, err := s.repo.Reply(ctx, orderID, reply, status)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store reply")
	}

	if _, err := s.notifier.NotifyAdminReply(ctx, *order, req.Message, status); err != nil {
		return nil, err
	}
	s.publisher.PushToIdentity(ctx, order.IdentityID, realtime.EventOrderUpdate, order)

	return order, nil
}
