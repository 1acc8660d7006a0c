package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ryoevisu/kaishop-backend/internal/realtime"
	pkgerrors "github.com/ryoevisu/kaishop-backend/pkg/errors"
	"github.com/ryoevisu/kaishop-backend/pkg/models"
)

// AddItemRequest carries an item the caller wants in their cart. Each add
// is worth exactly one unit; re-adding an item bumps its quantity by one.
type AddItemRequest struct {
	ItemID string          `json:"item_id" validate:"required,max=128"`
	Name   string          `json:"name" validate:"required,max=256"`
	Price  decimal.Decimal `json:"price"`
	Type   string          `json:"type" validate:"omitempty,max=64"`
}

// Service defines the behavior needed by the cart controller.
type Service interface {
	Get(ctx context.Context, identityID uuid.UUID) ([]models.LineItem, error)
	AddItem(ctx context.Context, identityID uuid.UUID, req AddItemRequest) ([]models.LineItem, error)
	RemoveItem(ctx context.Context, identityID uuid.UUID, itemID string) ([]models.LineItem, error)
	Clear(ctx context.Context, identityID uuid.UUID) ([]models.LineItem, error)
}

type repository interface {
	Get(ctx context.Context, identityID uuid.UUID) ([]models.LineItem, error)
	AddItem(ctx context.Context, identityID uuid.UUID, item models.LineItem, at time.Time) ([]models.LineItem, error)
	RemoveItem(ctx context.Context, identityID uuid.UUID, itemID string) ([]models.LineItem, error)
	Clear(ctx context.Context, identityID uuid.UUID) error
}

type publisher interface {
	PushToIdentity(ctx context.Context, identityID uuid.UUID, event string, data any)
}

type service struct {
	repo      repository
	publisher publisher
	now       func() time.Time
}

// ServiceParams bundles the dependencies required to build a cart service.
type ServiceParams struct {
	Repo      repository
	Publisher publisher
	Now       func() time.Time
}

// NewService constructs a cart service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository is required")
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

func (s *service) Get(ctx context.Context, identityID uuid.UUID) ([]models.LineItem, error) {
	items, err := s.repo.Get(ctx, identityID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return items, nil
}

func (s *service) AddItem(ctx context.Context, identityID uuid.UUID, req AddItemRequest) ([]models.LineItem, error) {
	if req.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	items, err := s.repo.AddItem(ctx, identityID, models.LineItem{
		ItemID:   req.ItemID,
		Name:     req.Name,
		Price:    req.Price,
		Type:     req.Type,
		Quantity: 1,
	}, s.now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
	}

	s.publisher.PushToIdentity(ctx, identityID, realtime.EventCartUpdated, items)
	return items, nil
}

func (s *service) RemoveItem(ctx context.Context, identityID uuid.UUID, itemID string) ([]models.LineItem, error) {
	items, err := s.repo.RemoveItem(ctx, identityID, itemID)
	if err != nil {
		if errors.Is(err, ErrCartNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}

	s.publisher.PushToIdentity(ctx, identityID, realtime.EventCartUpdated, items)
	return items, nil
}

func (s *service) Clear(ctx context.Context, identityID uuid.UUID) ([]models.LineItem, error) {
	if err := s.repo.Clear(ctx, identityID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}

	items := []models.LineItem{}
	s.publisher.PushToIdentity(ctx, identityID, realtime.EventCartUpdated, items)
	return items, nil
}
