package orders

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ryoevisu/kaishop-backend/internal/realtime"
	"github.com/ryoevisu/kaishop-backend/pkg/config"
	"github.com/ryoevisu/kaishop-backend/pkg/enums"
	pkgerrors "github.com/ryoevisu/kaishop-backend/pkg/errors"
	"github.com/ryoevisu/kaishop-backend/pkg/models"
)

type fakeOrdersRepo struct {
	orders []models.Order
}

func (f *fakeOrdersRepo) Append(_ context.Context, order models.Order) error {
	f.orders = append(f.orders, order)
	return nil
}

func (f *fakeOrdersRepo) ListByIdentity(_ context.Context, identityID uuid.UUID) ([]models.Order, error) {
	mine := []models.Order{}
	for _, order := range f.orders {
		if order.IdentityID == identityID {
			mine = append(mine, order)
		}
	}
	sort.SliceStable(mine, func(i, j int) bool { return mine[i].CreatedAt.After(mine[j].CreatedAt) })
	return mine, nil
}

func (f *fakeOrdersRepo) ListAll(_ context.Context) ([]models.Order, error) {
	all := append([]models.Order{}, f.orders...)
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return all, nil
}

func (f *fakeOrdersRepo) Reply(_ context.Context, orderID uuid.UUID, reply models.AdminReply, status *enums.OrderStatus) (*models.Order, error) {
	for i := range f.orders {
		if f.orders[i].ID != orderID {
			continue
		}
		f.orders[i].AdminReplies = append(f.orders[i].AdminReplies, reply)
		if status != nil {
			f.orders[i].Status = *status
		}
		order := f.orders[i]
		return &order, nil
	}
	return nil, ErrOrderNotFound
}

type fakeCarts struct {
	items   map[uuid.UUID][]models.LineItem
	cleared []uuid.UUID
}

func (f *fakeCarts) Get(_ context.Context, identityID uuid.UUID) ([]models.LineItem, error) {
	return f.items[identityID], nil
}

func (f *fakeCarts) Clear(_ context.Context, identityID uuid.UUID) error {
	f.items[identityID] = []models.LineItem{}
	f.cleared = append(f.cleared, identityID)
	return nil
}

type statsCall struct {
	identityID uuid.UUID
	total      decimal.Decimal
}

type fakeStats struct {
	calls []statsCall
}

func (f *fakeStats) RecordOrder(_ context.Context, id uuid.UUID, total decimal.Decimal, _ time.Time) error {
	f.calls = append(f.calls, statsCall{identityID: id, total: total})
	return nil
}

type notifyCall struct {
	kind   string
	order  models.Order
	reply  string
	status *enums.OrderStatus
}

type fakeNotifier struct {
	calls []notifyCall
}

func (f *fakeNotifier) NotifyOrderPlaced(_ context.Context, order models.Order) (*models.Notification, error) {
	f.calls = append(f.calls, notifyCall{kind: "placed", order: order})
	return &models.Notification{ID: uuid.New()}, nil
}

func (f *fakeNotifier) NotifyAdminReply(_ context.Context, order models.Order, replyMessage string, status *enums.OrderStatus) (*models.Notification, error) {
	f.calls = append(f.calls, notifyCall{kind: "reply", order: order, reply: replyMessage, status: status})
	return &models.Notification{ID: uuid.New()}, nil
}

type pushed struct {
	identityID uuid.UUID
	event      string
	toAdmins   bool
}

type fakeHub struct {
	pushes []pushed
}

func (f *fakeHub) PushToIdentity(_ context.Context, identityID uuid.UUID, event string, _ any) {
	f.pushes = append(f.pushes, pushed{identityID: identityID, event: event})
}

func (f *fakeHub) PushToAdministrators(_ context.Context, event string, _ any) {
	f.pushes = append(f.pushes, pushed{event: event, toAdmins: true})
}

type ordersFixture struct {
	repo     *fakeOrdersRepo
	carts    *fakeCarts
	stats    *fakeStats
	notifier *fakeNotifier
	hub      *fakeHub
	svc      Service
}

func newOrdersFixture(t *testing.T) *ordersFixture {
	t.Helper()
	f := &ordersFixture{
		repo:     &fakeOrdersRepo{},
		carts:    &fakeCarts{items: make(map[uuid.UUID][]models.LineItem)},
		stats:    &fakeStats{},
		notifier: &fakeNotifier{},
		hub:      &fakeHub{},
	}
	svc, err := NewService(ServiceParams{
		Repo:          f.repo,
		CartRepo:      f.carts,
		StatsRecorder: f.stats,
		Notifier:      f.notifier,
		Publisher:     f.hub,
		CheckoutConfig: config.CheckoutConfig{
			MegaDealItemID: "100b-mega-deal",
			RedirectURL:    "https://www.facebook.com/ryoevisu",
		},
		Now:       func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
		BonusRoll: func() int { return 7 },
	})
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	f.svc = svc
	return f
}

func lineItem(id string, price string, qty int) models.LineItem {
	return models.LineItem{
		ItemID:   id,
		Name:     strings.ToUpper(id),
		Price:    decimal.RequireFromString(price),
		Quantity: qty,
	}
}

func TestCheckoutCreatesPendingOrderFromCart(t *testing.T) {
	f := newOrdersFixture(t)
	identityID := uuid.New()
	f.carts.items[identityID] = []models.LineItem{
		lineItem("100b-sheckles", "4.99", 2),
		lineItem("pet-dragonfly", "12.50", 1),
	}

	result, err := f.svc.Checkout(context.Background(), identityID, "kai", CheckoutRequest{Message: "fast please"})
	if err != nil {
		t.Fatalf("Checkout returned error: %v", err)
	}

	order := result.Order
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("status = %s, want pending", order.Status)
	}
	if !order.Total.Equal(decimal.RequireFromString("22.48")) {
		t.Fatalf("total = %s, want 22.48", order.Total)
	}
	if order.Bonus != "" {
		t.Fatalf("bonus = %q, want none without the mega deal", order.Bonus)
	}
	if order.CustomerMessage != "fast please" {
		t.Fatalf("customer message = %q", order.CustomerMessage)
	}
	if result.RedirectURL != "https://www.facebook.com/ryoevisu" {
		t.Fatalf("redirect url = %q", result.RedirectURL)
	}
	if len(f.repo.orders) != 1 {
		t.Fatal("order was not stored")
	}
}

func TestCheckoutEmptyCartConflicts(t *testing.T) {
	f := newOrdersFixture(t)

	_, err := f.svc.Checkout(context.Background(), uuid.New(), "kai", CheckoutRequest{})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("empty cart error = %v, want conflict", err)
	}
	if len(f.repo.orders) != 0 {
		t.Fatal("order stored despite empty cart")
	}
}

func TestCheckoutMegaDealGrantsBonus(t *testing.T) {
	f := newOrdersFixture(t)
	identityID := uuid.New()
	f.carts.items[identityID] = []models.LineItem{lineItem("100b-mega-deal", "25.00", 1)}

	result, err := f.svc.Checkout(context.Background(), identityID, "kai", CheckoutRequest{})
	if err != nil {
		t.Fatalf("Checkout returned error: %v", err)
	}
	if result.Order.Bonus != "7B Bonus Sheckles" {
		t.Fatalf("bonus = %q, want 7B Bonus Sheckles", result.Order.Bonus)
	}
}

func TestCheckoutClearsCartRecordsStatsAndNotifies(t *testing.T) {
	f := newOrdersFixture(t)
	identityID := uuid.New()
	f.carts.items[identityID] = []models.LineItem{lineItem("100b-sheckles", "4.99", 1)}

	if _, err := f.svc.Checkout(context.Background(), identityID, "kai", CheckoutRequest{}); err != nil {
		t.Fatalf("Checkout returned error: %v", err)
	}

	if len(f.carts.cleared) != 1 || f.carts.cleared[0] != identityID {
		t.Fatal("cart was not cleared")
	}
	if len(f.stats.calls) != 1 || !f.stats.calls[0].total.Equal(decimal.RequireFromString("4.99")) {
		t.Fatalf("stats calls = %+v", f.stats.calls)
	}
	if len(f.notifier.calls) != 1 || f.notifier.calls[0].kind != "placed" {
		t.Fatalf("notifier calls = %+v", f.notifier.calls)
	}

	events := map[string]bool{}
	adminEvents := map[string]bool{}
	for _, push := range f.hub.pushes {
		if push.toAdmins {
			adminEvents[push.event] = true
		} else {
			events[push.event] = true
		}
	}
	if !events[realtime.EventCartUpdated] || !events[realtime.EventOrderUpdate] {
		t.Fatalf("customer pushes = %+v, want cartUpdated and orderUpdate", f.hub.pushes)
	}
	if !adminEvents[realtime.EventNewOrder] {
		t.Fatalf("admin pushes = %+v, want newOrder", f.hub.pushes)
	}
}

func TestListReturnsOnlyOwnOrdersNewestFirst(t *testing.T) {
	f := newOrdersFixture(t)
	mine := uuid.New()
	other := uuid.New()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	f.repo.orders = []models.Order{
		{ID: uuid.New(), IdentityID: mine, CreatedAt: base},
		{ID: uuid.New(), IdentityID: other, CreatedAt: base.Add(time.Minute)},
		{ID: uuid.New(), IdentityID: mine, CreatedAt: base.Add(2 * time.Minute)},
	}

	orders, err := f.svc.List(context.Background(), mine)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("order count = %d, want 2", len(orders))
	}
	if !orders[0].CreatedAt.After(orders[1].CreatedAt) {
		t.Fatal("orders are not newest first")
	}
}

func TestReplyAppendsAndOverwritesStatus(t *testing.T) {
	f := newOrdersFixture(t)
	identityID := uuid.New()
	orderID := uuid.New()
	f.repo.orders = []models.Order{{
		ID:         orderID,
		IdentityID: identityID,
		Status:     enums.OrderStatusCompleted,
	}}
	actor := Actor{ID: uuid.New(), Username: "admin"}

	order, err := f.svc.Reply(context.Background(), actor, orderID, ReplyRequest{
		Message: "reopening this",
		Status:  "processing",
	})
	if err != nil {
		t.Fatalf("Reply returned error: %v", err)
	}

	if order.Status != enums.OrderStatusProcessing {
		t.Fatalf("status = %s, want processing even from a terminal state", order.Status)
	}
	if len(order.AdminReplies) != 1 || order.AdminReplies[0].AdminUsername != "admin" {
		t.Fatalf("replies = %+v", order.AdminReplies)
	}

	if len(f.notifier.calls) != 1 || f.notifier.calls[0].kind != "reply" {
		t.Fatalf("notifier calls = %+v", f.notifier.calls)
	}
	if f.notifier.calls[0].status == nil || *f.notifier.calls[0].status != enums.OrderStatusProcessing {
		t.Fatalf("notifier status = %v", f.notifier.calls[0].status)
	}

	found := false
	for _, push := range f.hub.pushes {
		if push.event == realtime.EventOrderUpdate && push.identityID == identityID {
			found = true
		}
	}
	if !found {
		t.Fatalf("pushes = %+v, want orderUpdate to the owner", f.hub.pushes)
	}
}

func TestReplyWithoutStatusLeavesStatusAlone(t *testing.T) {
	f := newOrdersFixture(t)
	orderID := uuid.New()
	f.repo.orders = []models.Order{{ID: orderID, IdentityID: uuid.New(), Status: enums.OrderStatusPending}}

	order, err := f.svc.Reply(context.Background(), Actor{ID: uuid.New(), Username: "admin"}, orderID, ReplyRequest{Message: "hi"})
	if err != nil {
		t.Fatalf("Reply returned error: %v", err)
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("status = %s, want pending", order.Status)
	}
}

func TestReplyRejectsUnknownStatus(t *testing.T) {
	f := newOrdersFixture(t)

	_, err := f.svc.Reply(context.Background(), Actor{ID: uuid.New(), Username: "admin"}, uuid.New(), ReplyRequest{
		Message: "hi",
		Status:  "shipped",
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unknown status error = %v, want validation", err)
	}
}

func TestReplyUnknownOrderIsNotFound(t *testing.T) {
	f := newOrdersFixture(t)

	_, err := f.svc.Reply(context.Background(), Actor{ID: uuid.New(), Username: "admin"}, uuid.New(), ReplyRequest{Message: "hi"})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unknown order error = %v, want not found", err)
	}
}
