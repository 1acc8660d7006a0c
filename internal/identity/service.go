package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgauth "github.com/ryoevisu/kaishop-backend/pkg/auth"
	"github.com/ryoevisu/kaishop-backend/pkg/config"
	pkgerrors "github.com/ryoevisu/kaishop-backend/pkg/errors"
	"github.com/ryoevisu/kaishop-backend/pkg/models"
	"github.com/ryoevisu/kaishop-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid username or password"

// Bios longer than this are cut down rather than rejected.
const maxBioLength = 200

// Service defines the behavior needed by the auth and profile controllers.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Profile(ctx context.Context, id uuid.UUID) (*Profile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*Profile, error)
}

type repository interface {
	Create(ctx context.Context, identity models.Identity) (*models.Identity, error)
	FindByUsername(ctx context.Context, username string) (*models.Identity, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Identity, error)
	TouchLastActive(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdateProfile(ctx context.Context, id uuid.UUID, patch ProfilePatch) (*models.Identity, error)
}

type service struct {
	repo        repository
	passwordCfg config.PasswordConfig
	jwtCfg      config.JWTConfig
	now         func() time.Time
}

// ServiceParams bundles the dependencies required to build an identity service.
type ServiceParams struct {
	Repo           repository
	PasswordConfig config.PasswordConfig
	JWTConfig      config.JWTConfig
	Now            func() time.Time
}

// NewService constructs an identity service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("identity repository is required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		repo:        params.Repo,
		passwordCfg: params.PasswordConfig,
		jwtCfg:      params.JWTConfig,
		now:         params.Now,
	}, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	username := strings.TrimSpace(req.Username)
	if len(username) < 3 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username must be at least 3 characters")
	}
	if len(req.Password) < 6 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 6 characters")
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	now := s.now().UTC()
	created, err := s.repo.Create(ctx, models.Identity{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		Bio:          "",
		Stats:        models.Stats{TotalSpent: decimal.Zero},
		JoinedAt:     now,
		LastActiveAt: now,
	})
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "username already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create identity")
	}

	return s.authResponse(created)
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	identity, err := s.repo.FindByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load identity")
	}

	ok, err := security.VerifyPassword(req.Password, identity.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	if err := s.repo.TouchLastActive(ctx, identity.ID, s.now().UTC()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "touch last active")
	}
	identity.LastActiveAt = s.now().UTC()

	return s.authResponse(identity)
}

func (s *service) Profile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	identity, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "identity not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load identity")
	}
	profile := profileFromModel(identity)
	return &profile, nil
}

func (s *service) UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*Profile, error) {
	patch := ProfilePatch{Avatar: req.Avatar}
	if req.Bio != nil {
		bio := *req.Bio
		if len(bio) > maxBioLength {
			bio = bio[:maxBioLength]
		}
		patch.Bio = &bio
	}

	identity, err := s.repo.UpdateProfile(ctx, id, patch)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "identity not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
	}
	profile := profileFromModel(identity)
	return &profile, nil
}

func (s *service) authResponse(identity *models.Identity) (*AuthResponse, error) {
	token, err := pkgauth.MintAccessToken(s.jwtCfg, s.now(), pkgauth.AccessTokenPayload{
		UserID:   identity.ID,
		Username: identity.Username,
		Role:     identity.Role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return &AuthResponse{Token: token, Identity: profileFromModel(identity)}, nil
}
