package service

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/taskforge/taskforge/internal/auth"
	"github.com/taskforge/taskforge/internal/models"
	"github.com/taskforge/taskforge/internal/store"
	memorystore "github.com/taskforge/taskforge/internal/store/memory"
)

func newUserService(t *testing.T) (*UserService, *memorystore.AccountStore) {
	t.Helper()

	accounts := memorystore.NewAccountStore()
	return NewUserService(accounts, auth.NewPasswordHasher()), accounts
}

func seedAccount(t *testing.T, accounts *memorystore.AccountStore, login string, role models.Role) *models.Account {
	t.Helper()

	now := time.Now().UTC()
	account := &models.Account{
		ID:        uuid.New(),
		Login:     login,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, accounts.Create(context.Background(), account))
	return account
}

func principalFor(account *models.Account) *auth.Principal {
	return &auth.Principal{ID: account.ID, Login: account.Login, Role: account.Role}
}

func TestChangeRole(t *testing.T) {
	ctx := context.Background()

	t.Run("admin promotes a user", func(t *testing.T) {
		svc, accounts := newUserService(t)
		admin := seedAccount(t, accounts, "root", models.RoleAdmin)
		target := seedAccount(t, accounts, "alice", models.RoleUser)

		updated, err := svc.ChangeRole(ctx, target.ID, models.RoleAdmin, principalFor(admin))
		require.NoError(t, err)
		require.Equal(t, models.RoleAdmin, updated.Role)
	})

	t.Run("admin demotes another admin when two exist", func(t *testing.T) {
		svc, accounts := newUserService(t)
		admin := seedAccount(t, accounts, "root", models.RoleAdmin)
		other := seedAccount(t, accounts, "second", models.RoleAdmin)

		updated, err := svc.ChangeRole(ctx, other.ID, models.RoleUser, principalFor(admin))
		require.NoError(t, err)
		require.Equal(t, models.RoleUser, updated.Role)
	})

	t.Run("admin cannot change own role", func(t *testing.T) {
		svc, accounts := newUserService(t)
		admin := seedAccount(t, accounts, "root", models.RoleAdmin)
		seedAccount(t, accounts, "other", models.RoleAdmin)

		_, err := svc.ChangeRole(ctx, admin.ID, models.RoleUser, principalFor(admin))
		require.ErrorIs(t, err, ErrSelfRoleChange)
	})

	t.Run("self check fires before last admin check", func(t *testing.T) {
		svc, accounts := newUserService(t)
		admin := seedAccount(t, accounts, "root", models.RoleAdmin)

		// Sole admin targeting itself must see the self-change error.
		_, err := svc.ChangeRole(ctx, admin.ID, models.RoleUser, principalFor(admin))
		require.ErrorIs(t, err, ErrSelfRoleChange)
	})

	t.Run("cannot demote the last admin", func(t *testing.T) {
		svc, accounts := newUserService(t)
		admin := seedAccount(t, accounts, "root", models.RoleAdmin)
		actor := seedAccount(t, accounts, "alice", models.RoleUser)
		actor.Role = models.RoleAdmin // stale principal, store still has one admin

		_, err := svc.ChangeRole(ctx, admin.ID, models.RoleUser, principalFor(actor))
		require.ErrorIs(t, err, ErrLastAdminDemotion)
	})

	t.Run("unknown target", func(t *testing.T) {
		svc, accounts := newUserService(t)
		admin := seedAccount(t, accounts, "root", models.RoleAdmin)

		_, err := svc.ChangeRole(ctx, uuid.New(), models.RoleUser, principalFor(admin))
		require.ErrorIs(t, err, store.ErrAccountNotFound)
	})
}

func TestDeleteAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("admin deletes a user", func(t *testing.T) {
		svc, accounts := newUserService(t)
		admin := seedAccount(t, accounts, "root", models.RoleAdmin)
		target := seedAccount(t, accounts, "alice", models.RoleUser)

		require.NoError(t, svc.Delete(ctx, target.ID, principalFor(admin)))

		_, err := accounts.GetByID(ctx, target.ID)
		require.ErrorIs(t, err, store.ErrAccountNotFound)
	})

	t.Run("account cannot delete itself", func(t *testing.T) {
		svc, accounts := newUserService(t)
		admin := seedAccount(t, accounts, "root", models.RoleAdmin)
		seedAccount(t, accounts, "other", models.RoleAdmin)

		err := svc.Delete(ctx, admin.ID, principalFor(admin))
		require.ErrorIs(t, err, ErrSelfDeletion)
	})

	t.Run("cannot delete the last admin", func(t *testing.T) {
		svc, accounts := newUserService(t)
		admin := seedAccount(t, accounts, "root", models.RoleAdmin)
		actor := seedAccount(t, accounts, "alice", models.RoleUser)
		actor.Role = models.RoleAdmin

		err := svc.Delete(ctx, admin.ID, principalFor(actor))
		require.ErrorIs(t, err, ErrLastAdminDeletion)
	})
}

func TestUpdateAccount(t *testing.T) {
	ctx := context.Background()

	str := func(s string) *string { return &s }

	t.Run("account updates own login", func(t *testing.T) {
		svc, accounts := newUserService(t)
		account := seedAccount(t, accounts, "alice", models.RoleUser)

		updated, err := svc.Update(ctx, account.ID, ProfileUpdate{Login: str("alice2")}, principalFor(account))
		require.NoError(t, err)
		require.Equal(t, "alice2", updated.Login)

		_, err = accounts.GetByLogin(ctx, "alice2")
		require.NoError(t, err)
	})

	t.Run("admin updates another account", func(t *testing.T) {
		svc, accounts := newUserService(t)
		admin := seedAccount(t, accounts, "root", models.RoleAdmin)
		target := seedAccount(t, accounts, "alice", models.RoleUser)

		updated, err := svc.Update(ctx, target.ID, ProfileUpdate{Password: str("new-password")}, principalFor(admin))
		require.NoError(t, err)
		require.NotEmpty(t, updated.PasswordHash)
		require.NotEqual(t, target.PasswordHash, updated.PasswordHash)
	})

	t.Run("user cannot update another account", func(t *testing.T) {
		svc, accounts := newUserService(t)
		actor := seedAccount(t, accounts, "alice", models.RoleUser)
		target := seedAccount(t, accounts, "bob", models.RoleUser)

		_, err := svc.Update(ctx, target.ID, ProfileUpdate{Login: str("hijacked")}, principalFor(actor))
		require.ErrorIs(t, err, auth.ErrAccessDenied)
	})

	t.Run("unchanged login is a no-op", func(t *testing.T) {
		svc, accounts := newUserService(t)
		account := seedAccount(t, accounts, "alice", models.RoleUser)

		updated, err := svc.Update(ctx, account.ID, ProfileUpdate{Login: str("alice")}, principalFor(account))
		require.NoError(t, err)
		require.Equal(t, "alice", updated.Login)
	})

	t.Run("login collision", func(t *testing.T) {
		svc, accounts := newUserService(t)
		seedAccount(t, accounts, "bob", models.RoleUser)
		account := seedAccount(t, accounts, "alice", models.RoleUser)

		_, err := svc.Update(ctx, account.ID, ProfileUpdate{Login: str("bob")}, principalFor(account))
		require.ErrorIs(t, err, store.ErrAccountAlreadyExists)
	})
}

// TestAdminCountNeverReachesZero drives a random mutation sequence against a
// two-admin seed and asserts the invariant the guard exists for: the store
// never ends up with zero admins.
func TestAdminCountNeverReachesZero(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	svc, accounts := newUserService(t)

	seeded := []*models.Account{
		seedAccount(t, accounts, "admin-a", models.RoleAdmin),
		seedAccount(t, accounts, "admin-b", models.RoleAdmin),
		seedAccount(t, accounts, "user-a", models.RoleUser),
		seedAccount(t, accounts, "user-b", models.RoleUser),
	}

	for i := 0; i < 500; i++ {
		actorRec := seeded[rng.Intn(len(seeded))]
		targetRec := seeded[rng.Intn(len(seeded))]

		// Re-read live state; seeded records go stale as mutations land.
		actor, err := accounts.GetByID(ctx, actorRec.ID)
		if err != nil {
			continue
		}
		target, err := accounts.GetByID(ctx, targetRec.ID)
		if err != nil {
			continue
		}

		switch rng.Intn(3) {
		case 0:
			_, _ = svc.ChangeRole(ctx, target.ID, models.RoleUser, principalFor(actor))
		case 1:
			_, _ = svc.ChangeRole(ctx, target.ID, models.RoleAdmin, principalFor(actor))
		case 2:
			_ = svc.Delete(ctx, target.ID, principalFor(actor))
		}

		count, err := accounts.CountByRole(ctx, models.RoleAdmin)
		require.NoError(t, err)
		require.GreaterOrEqual(t, count, int64(1), "admin count dropped below one at step %d", i)
	}
}
