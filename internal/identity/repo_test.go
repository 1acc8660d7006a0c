package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ryoevisu/kaishop-backend/pkg/enums"
	"github.com/ryoevisu/kaishop-backend/pkg/models"
	"github.com/ryoevisu/kaishop-backend/pkg/store"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	st, err := store.New(t.TempDir())
	if err != nil {
		t.Fatalf("store.New returned error: %v", err)
	}
	return NewRepository(store.NewCollections(st).Identities)
}

func TestRepositoryCreateAssignsRoles(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.Create(ctx, models.Identity{ID: uuid.New(), Username: "kai"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if first.Role != enums.RoleAdministrator {
		t.Fatalf("first role = %s, want administrator", first.Role)
	}

	second, err := repo.Create(ctx, models.Identity{ID: uuid.New(), Username: "miko"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if second.Role != enums.RoleMember {
		t.Fatalf("second role = %s, want member", second.Role)
	}
}

func TestRepositoryCreateConcurrentSingleAdministrator(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	const registrations = 12
	var wg sync.WaitGroup
	for i := 0; i < registrations; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := repo.Create(ctx, models.Identity{ID: uuid.New(), Username: fmt.Sprintf("user-%d", n)})
			if err != nil {
				t.Errorf("Create returned error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	admins := 0
	for i := 0; i < registrations; i++ {
		identity, err := repo.FindByUsername(ctx, fmt.Sprintf("user-%d", i))
		if err != nil {
			t.Fatalf("FindByUsername returned error: %v", err)
		}
		if identity.Role == enums.RoleAdministrator {
			admins++
		}
	}
	if admins != 1 {
		t.Fatalf("administrator count = %d, want exactly 1", admins)
	}
}

func TestRepositoryCreateRejectsDuplicateUsername(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.Create(ctx, models.Identity{ID: uuid.New(), Username: "kai"}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	_, err := repo.Create(ctx, models.Identity{ID: uuid.New(), Username: "kai"})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("duplicate create error = %v, want ErrUsernameTaken", err)
	}

	if _, err := repo.Create(ctx, models.Identity{ID: uuid.New(), Username: "Kai"}); err != nil {
		t.Fatalf("Create with different casing returned error: %v", err)
	}
}

func TestRepositoryRecordOrderAccumulatesStats(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, models.Identity{ID: uuid.New(), Username: "kai"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := repo.RecordOrder(ctx, created.ID, decimal.NewFromInt(40), at); err != nil {
		t.Fatalf("RecordOrder returned error: %v", err)
	}
	if err := repo.RecordOrder(ctx, created.ID, decimal.RequireFromString("19.99"), at); err != nil {
		t.Fatalf("RecordOrder returned error: %v", err)
	}

	identity, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if identity.Stats.TotalOrders != 2 {
		t.Fatalf("total orders = %d, want 2", identity.Stats.TotalOrders)
	}
	if !identity.Stats.TotalSpent.Equal(decimal.RequireFromString("59.99")) {
		t.Fatalf("total spent = %s, want 59.99", identity.Stats.TotalSpent)
	}
}
