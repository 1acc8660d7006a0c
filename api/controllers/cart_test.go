package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ryoevisu/kaishop-backend/api/middleware"
	"github.com/ryoevisu/kaishop-backend/internal/cart"
	pkgerrors "github.com/ryoevisu/kaishop-backend/pkg/errors"
	"github.com/ryoevisu/kaishop-backend/pkg/logger"
	"github.com/ryoevisu/kaishop-backend/pkg/models"
)

type testCartService struct {
	getFn    func(ctx context.Context, identityID uuid.UUID) ([]models.LineItem, error)
	addFn    func(ctx context.Context, identityID uuid.UUID, req cart.AddItemRequest) ([]models.LineItem, error)
	removeFn func(ctx context.Context, identityID uuid.UUID, itemID string) ([]models.LineItem, error)
	clearFn  func(ctx context.Context, identityID uuid.UUID) ([]models.LineItem, error)
}

func (s *testCartService) Get(ctx context.Context, identityID uuid.UUID) ([]models.LineItem, error) {
	if s.getFn != nil {
		return s.getFn(ctx, identityID)
	}
	return []models.LineItem{}, nil
}

func (s *testCartService) AddItem(ctx context.Context, identityID uuid.UUID, req cart.AddItemRequest) ([]models.LineItem, error) {
	if s.addFn != nil {
		return s.addFn(ctx, identityID, req)
	}
	return []models.LineItem{}, nil
}

func (s *testCartService) RemoveItem(ctx context.Context, identityID uuid.UUID, itemID string) ([]models.LineItem, error) {
	if s.removeFn != nil {
		return s.removeFn(ctx, identityID, itemID)
	}
	return []models.LineItem{}, nil
}

func (s *testCartService) Clear(ctx context.Context, identityID uuid.UUID) ([]models.LineItem, error) {
	if s.clearFn != nil {
		return s.clearFn(ctx, identityID)
	}
	return []models.LineItem{}, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func authedRequest(method, target string, body io.Reader, identityID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	ctx := middleware.WithIdentity(req.Context(), identityID.String(), "kai", "member")
	return req.WithContext(ctx)
}

func TestAddCartItemSuccess(t *testing.T) {
	identityID := uuid.New()
	svc := &testCartService{
		addFn: func(_ context.Context, id uuid.UUID, req cart.AddItemRequest) ([]models.LineItem, error) {
			if id != identityID {
				t.Fatalf("unexpected identity %s", id)
			}
			if req.ItemID != "100b-sheckles" {
				t.Fatalf("unexpected item %s", req.ItemID)
			}
			return []models.LineItem{{ItemID: req.ItemID, Name: req.Name, Price: decimal.RequireFromString("4.99"), Quantity: 1}}, nil
		},
	}

	body := strings.NewReader(`{"item_id":"100b-sheckles","name":"100B Sheckles","price":4.99}`)
	req := authedRequest(http.MethodPost, "/api/cart/items", body, identityID)
	resp := httptest.NewRecorder()

	AddCartItem(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data map[string][]models.LineItem `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data["cart"]) != 1 {
		t.Fatalf("cart = %+v, want one line", envelope.Data)
	}
}

func TestAddCartItemRejectsInvalidBody(t *testing.T) {
	svc := &testCartService{
		addFn: func(context.Context, uuid.UUID, cart.AddItemRequest) ([]models.LineItem, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}

	body := strings.NewReader(`{"name":"missing item id"}`)
	req := authedRequest(http.MethodPost, "/api/cart/items", body, uuid.New())
	resp := httptest.NewRecorder()

	AddCartItem(svc, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

func TestGetCartRequiresAuthContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	resp := httptest.NewRecorder()

	GetCart(&testCartService{}, testLogger())(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

func TestRemoveCartItemNotFound(t *testing.T) {
	svc := &testCartService{
		removeFn: func(context.Context, uuid.UUID, string) ([]models.LineItem, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		},
	}

	req := authedRequest(http.MethodDelete, "/api/cart/items/x", nil, uuid.New())
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("itemRef", "x")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
	resp := httptest.NewRecorder()

	RemoveCartItem(svc, testLogger())(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

func TestClearCartReturnsEmptyCart(t *testing.T) {
	req := authedRequest(http.MethodDelete, "/api/cart", nil, uuid.New())
	resp := httptest.NewRecorder()

	ClearCart(&testCartService{}, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data map[string][]models.LineItem `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if items, ok := envelope.Data["cart"]; !ok || len(items) != 0 {
		t.Fatalf("cart = %+v, want empty list", envelope.Data)
	}
}
