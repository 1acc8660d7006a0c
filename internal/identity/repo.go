package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ryoevisu/kaishop-backend/pkg/enums"
	"github.com/ryoevisu/kaishop-backend/pkg/models"
	"github.com/ryoevisu/kaishop-backend/pkg/store"
)

// ErrUsernameTaken indicates a registration attempt with a username that
// already belongs to another identity.
var ErrUsernameTaken = errors.New("username already taken")

// ErrIdentityNotFound indicates the identity does not exist in the store.
var ErrIdentityNotFound = errors.New("identity not found")

// Repository persists identities in the identities collection.
type Repository struct {
	identities *store.Collection[[]models.Identity]
}

// NewRepository wires the identity repository to its backing collection.
func NewRepository(identities *store.Collection[[]models.Identity]) *Repository {
	return &Repository{identities: identities}
}

// Create inserts a new identity. The first identity ever created becomes the
// administrator; everyone after that is a member. Both the uniqueness check
// and the role assignment happen inside the same document update so two
// concurrent registrations can neither share a username nor both claim the
// admin role.
func (r *Repository) Create(ctx context.Context, identity models.Identity) (*models.Identity, error) {
	var created models.Identity
	_, err := r.identities.Update(ctx, func(all []models.Identity) ([]models.Identity, error) {
		for _, existing := range all {
			if existing.Username == identity.Username {
				return nil, ErrUsernameTaken
			}
		}
		if len(all) == 0 {
			identity.Role = enums.RoleAdministrator
		} else {
			identity.Role = enums.RoleMember
		}
		created = identity
		return append(all, identity), nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// FindByUsername returns the identity with the given exact username.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*models.Identity, error) {
	all, err := r.identities.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Username == username {
			identity := all[i]
			return &identity, nil
		}
	}
	return nil, ErrIdentityNotFound
}

// FindByID returns the identity with the given id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Identity, error) {
	all, err := r.identities.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			identity := all[i]
			return &identity, nil
		}
	}
	return nil, ErrIdentityNotFound
}

// TouchLastActive records a fresh activity timestamp for the identity.
func (r *Repository) TouchLastActive(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.identities.Update(ctx, func(all []models.Identity) ([]models.Identity, error) {
		for i := range all {
			if all[i].ID == id {
				all[i].LastActiveAt = at
				return all, nil
			}
		}
		return nil, ErrIdentityNotFound
	})
	return err
}

// ProfilePatch carries the optional profile fields an identity may update.
type ProfilePatch struct {
	Avatar *string
	Bio    *string
}

// UpdateProfile applies the patch to the stored identity and returns the
// updated record.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, patch ProfilePatch) (*models.Identity, error) {
	var updated models.Identity
	_, err := r.identities.Update(ctx, func(all []models.Identity) ([]models.Identity, error) {
		for i := range all {
			if all[i].ID != id {
				continue
			}
			if patch.Avatar != nil {
				all[i].Avatar = *patch.Avatar
			}
			if patch.Bio != nil {
				all[i].Bio = *patch.Bio
			}
			updated = all[i]
			return all, nil
		}
		return nil, ErrIdentityNotFound
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// RecordOrder bumps the identity's lifetime order stats after a checkout.
func (r *Repository) RecordOrder(ctx context.Context, id uuid.UUID, total decimal.Decimal, at time.Time) error {
	_, err := r.identities.Update(ctx, func(all []models.Identity) ([]models.Identity, error) {
		for i := range all {
			if all[i].ID == id {
				all[i].Stats.TotalOrders++
				all[i].Stats.TotalSpent = all[i].Stats.TotalSpent.Add(total)
				all[i].LastActiveAt = at
				return all, nil
			}
		}
		return nil, ErrIdentityNotFound
	})
	return err
}
