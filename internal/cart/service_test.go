package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ryoevisu/kaishop-backend/internal/realtime"
	pkgerrors "github.com/ryoevisu/kaishop-backend/pkg/errors"
	"github.com/ryoevisu/kaishop-backend/pkg/models"
)

type fakeCartRepo struct {
	carts map[uuid.UUID][]models.LineItem
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{carts: make(map[uuid.UUID][]models.LineItem)}
}

func (f *fakeCartRepo) Get(_ context.Context, identityID uuid.UUID) ([]models.LineItem, error) {
	items := f.carts[identityID]
	if items == nil {
		items = []models.LineItem{}
	}
	return items, nil
}

func (f *fakeCartRepo) AddItem(_ context.Context, identityID uuid.UUID, item models.LineItem, at time.Time) ([]models.LineItem, error) {
	cart := f.carts[identityID]
	for i := range cart {
		if cart[i].ItemID == item.ItemID {
			cart[i].Quantity += item.Quantity
			f.carts[identityID] = cart
			return append([]models.LineItem{}, cart...), nil
		}
	}
	item.AddedAt = at
	cart = append(cart, item)
	f.carts[identityID] = cart
	return append([]models.LineItem{}, cart...), nil
}

func (f *fakeCartRepo) RemoveItem(_ context.Context, identityID uuid.UUID, itemID string) ([]models.LineItem, error) {
	cart, ok := f.carts[identityID]
	if !ok {
		return nil, ErrCartNotFound
	}
	next := []models.LineItem{}
	for _, line := range cart {
		if line.ItemID != itemID {
			next = append(next, line)
		}
	}
	f.carts[identityID] = next
	return next, nil
}

func (f *fakeCartRepo) Clear(_ context.Context, identityID uuid.UUID) error {
	f.carts[identityID] = []models.LineItem{}
	return nil
}

type publishedEvent struct {
	identityID uuid.UUID
	event      string
	data       any
}

type fakePublisher struct {
	events []publishedEvent
}

func (f *fakePublisher) PushToIdentity(_ context.Context, identityID uuid.UUID, event string, data any) {
	f.events = append(f.events, publishedEvent{identityID: identityID, event: event, data: data})
}

func newCartService(t *testing.T, repo *fakeCartRepo, pub *fakePublisher) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:      repo,
		Publisher: pub,
		Now:       func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	return svc
}

func TestAddItemStartsAtQuantityOneAndPushesCartUpdated(t *testing.T) {
	repo := newFakeCartRepo()
	pub := &fakePublisher{}
	svc := newCartService(t, repo, pub)
	identityID := uuid.New()

	items, err := svc.AddItem(context.Background(), identityID, AddItemRequest{
		ItemID: "100b-sheckles",
		Name:   "100B Sheckles",
		Price:  decimal.RequireFromString("4.99"),
	})
	if err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}
	if len(items) != 1 || items[0].Quantity != 1 {
		t.Fatalf("items = %+v, want one line with quantity 1", items)
	}
	if len(pub.events) != 1 || pub.events[0].event != realtime.EventCartUpdated {
		t.Fatalf("published events = %+v, want one cartUpdated", pub.events)
	}
	if pub.events[0].identityID != identityID {
		t.Fatalf("event went to %s, want %s", pub.events[0].identityID, identityID)
	}
}

func TestAddItemTwiceBumpsQuantityKeepingFirstAttributes(t *testing.T) {
	repo := newFakeCartRepo()
	pub := &fakePublisher{}
	svc := newCartService(t, repo, pub)
	identityID := uuid.New()

	if _, err := svc.AddItem(context.Background(), identityID, AddItemRequest{
		ItemID: "100b-sheckles",
		Name:   "100B Sheckles",
		Price:  decimal.RequireFromString("4.99"),
	}); err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}
	items, err := svc.AddItem(context.Background(), identityID, AddItemRequest{
		ItemID: "100b-sheckles",
		Name:   "Renamed",
		Price:  decimal.RequireFromString("9.99"),
	})
	if err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("line count = %d, want 1", len(items))
	}
	if items[0].Quantity != 2 {
		t.Fatalf("quantity = %d, want 2", items[0].Quantity)
	}
	if items[0].Name != "100B Sheckles" || !items[0].Price.Equal(decimal.RequireFromString("4.99")) {
		t.Fatalf("attributes changed on re-add: %+v", items[0])
	}
}

func TestAddItemRejectsNegativePrice(t *testing.T) {
	svc := newCartService(t, newFakeCartRepo(), &fakePublisher{})

	_, err := svc.AddItem(context.Background(), uuid.New(), AddItemRequest{
		ItemID: "x",
		Name:   "X",
		Price:  decimal.RequireFromString("-1"),
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("negative price error = %v, want validation", err)
	}
}

func TestRemoveItemFromUnknownIdentityIsNotFound(t *testing.T) {
	svc := newCartService(t, newFakeCartRepo(), &fakePublisher{})

	_, err := svc.RemoveItem(context.Background(), uuid.New(), "x")
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("remove from missing cart error = %v, want not found", err)
	}
}

func TestRemoveUnknownItemLeavesCartUntouched(t *testing.T) {
	repo := newFakeCartRepo()
	pub := &fakePublisher{}
	svc := newCartService(t, repo, pub)
	identityID := uuid.New()

	if _, err := svc.AddItem(context.Background(), identityID, AddItemRequest{
		ItemID: "a", Name: "A", Price: decimal.NewFromInt(1),
	}); err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}

	items, err := svc.RemoveItem(context.Background(), identityID, "does-not-exist")
	if err != nil {
		t.Fatalf("RemoveItem returned error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("line count = %d, want 1", len(items))
	}
}

func TestClearEmptiesCartAndPushes(t *testing.T) {
	repo := newFakeCartRepo()
	pub := &fakePublisher{}
	svc := newCartService(t, repo, pub)
	identityID := uuid.New()

	if _, err := svc.AddItem(context.Background(), identityID, AddItemRequest{
		ItemID: "a", Name: "A", Price: decimal.NewFromInt(1),
	}); err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}

	items, err := svc.Clear(context.Background(), identityID)
	if err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("line count = %d, want 0", len(items))
	}

	last := pub.events[len(pub.events)-1]
	if last.event != realtime.EventCartUpdated {
		t.Fatalf("last event = %s, want cartUpdated", last.event)
	}
}
