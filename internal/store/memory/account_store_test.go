package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/taskforge/taskforge/internal/models"
	"github.com/taskforge/taskforge/internal/store"
)

func newAccount(login string, role models.Role) *models.Account {
	now := time.Now().UTC()
	return &models.Account{
		ID:        uuid.New(),
		Login:     login,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestAccountStoreCreate(t *testing.T) {
	ctx := context.Background()
	s := NewAccountStore()

	account := newAccount("alice", models.RoleUser)
	require.NoError(t, s.Create(ctx, account))

	t.Run("duplicate id", func(t *testing.T) {
		require.ErrorIs(t, s.Create(ctx, account), store.ErrAccountAlreadyExists)
	})

	t.Run("duplicate login", func(t *testing.T) {
		require.ErrorIs(t, s.Create(ctx, newAccount("alice", models.RoleUser)), store.ErrAccountAlreadyExists)
	})

	t.Run("returned values are copies", func(t *testing.T) {
		got, err := s.GetByID(ctx, account.ID)
		require.NoError(t, err)

		got.Login = "mutated"

		again, err := s.GetByID(ctx, account.ID)
		require.NoError(t, err)
		require.Equal(t, "alice", again.Login)
	})
}

func TestAccountStoreUpdateRole(t *testing.T) {
	ctx := context.Background()

	t.Run("demote with two admins", func(t *testing.T) {
		s := NewAccountStore()
		a := newAccount("a", models.RoleAdmin)
		require.NoError(t, s.Create(ctx, a))
		require.NoError(t, s.Create(ctx, newAccount("b", models.RoleAdmin)))

		updated, err := s.UpdateRole(ctx, a.ID, models.RoleUser)
		require.NoError(t, err)
		require.Equal(t, models.RoleUser, updated.Role)

		count, err := s.CountByRole(ctx, models.RoleAdmin)
		require.NoError(t, err)
		require.Equal(t, int64(1), count)
	})

	t.Run("demoting the last admin fails", func(t *testing.T) {
		s := NewAccountStore()
		a := newAccount("a", models.RoleAdmin)
		require.NoError(t, s.Create(ctx, a))

		_, err := s.UpdateRole(ctx, a.ID, models.RoleUser)
		require.ErrorIs(t, err, store.ErrLastAdmin)
	})

	t.Run("admin to admin is not a demotion", func(t *testing.T) {
		s := NewAccountStore()
		a := newAccount("a", models.RoleAdmin)
		require.NoError(t, s.Create(ctx, a))

		_, err := s.UpdateRole(ctx, a.ID, models.RoleAdmin)
		require.NoError(t, err)
	})
}

func TestAccountStoreDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("deleting the last admin fails", func(t *testing.T) {
		s := NewAccountStore()
		a := newAccount("a", models.RoleAdmin)
		require.NoError(t, s.Create(ctx, a))

		require.ErrorIs(t, s.Delete(ctx, a.ID), store.ErrLastAdmin)
	})

	t.Run("delete frees the login", func(t *testing.T) {
		s := NewAccountStore()
		require.NoError(t, s.Create(ctx, newAccount("root", models.RoleAdmin)))
		a := newAccount("alice", models.RoleUser)
		require.NoError(t, s.Create(ctx, a))

		require.NoError(t, s.Delete(ctx, a.ID))
		require.NoError(t, s.Create(ctx, newAccount("alice", models.RoleUser)))
	})
}

func TestAccountStoreUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewAccountStore()

	a := newAccount("alice", models.RoleUser)
	require.NoError(t, s.Create(ctx, a))
	b := newAccount("bob", models.RoleUser)
	require.NoError(t, s.Create(ctx, b))

	t.Run("login change reindexes", func(t *testing.T) {
		a.Login = "alice2"
		require.NoError(t, s.Update(ctx, a))

		_, err := s.GetByLogin(ctx, "alice")
		require.ErrorIs(t, err, store.ErrAccountNotFound)

		got, err := s.GetByLogin(ctx, "alice2")
		require.NoError(t, err)
		require.Equal(t, a.ID, got.ID)
	})

	t.Run("login collision", func(t *testing.T) {
		a.Login = "bob"
		require.ErrorIs(t, s.Update(ctx, a), store.ErrAccountAlreadyExists)
	})
}

func TestAccountStoreList(t *testing.T) {
	ctx := context.Background()
	s := NewAccountStore()

	for i := 0; i < 15; i++ {
		require.NoError(t, s.Create(ctx, newAccount(fmt.Sprintf("user-%02d", i), models.RoleUser)))
	}

	first, total, err := s.List(ctx, store.Page{Number: 0, Size: 10})
	require.NoError(t, err)
	require.Equal(t, int64(15), total)
	require.Len(t, first, 10)
	require.Equal(t, "user-00", first[0].Login)

	second, _, err := s.List(ctx, store.Page{Number: 1, Size: 10})
	require.NoError(t, err)
	require.Len(t, second, 5)
	require.Equal(t, "user-10", second[0].Login)
}
