//go:build integration

package postgres

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/taskforge/taskforge/internal/models"
	"github.com/taskforge/taskforge/internal/store"
)

func setupPostgresContainer(t *testing.T, ctx context.Context) (*pgxpool.Pool, func()) {
	// Start postgres container
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connString := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	pool, err := NewPool(ctx, &PoolConfig{ConnString: connString})
	require.NoError(t, err)

	require.NoError(t, RunMigrations(ctx, pool))

	cleanup := func() {
		pool.Close()
		_ = container.Terminate(ctx)
	}

	return pool, cleanup
}

func makeAccount(login string, role models.Role) *models.Account {
	now := time.Now().UTC()
	return &models.Account{
		ID:        uuid.New(),
		Login:     login,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestIntegration_AccountLifecycle(t *testing.T) {
	ctx := context.Background()
	pool, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	accounts := NewAccountStore(pool)

	t.Run("create and read", func(t *testing.T) {
		account := makeAccount("alice", models.RoleUser)
		account.PasswordHash = "$argon2id$fake"
		require.NoError(t, accounts.Create(ctx, account))

		byID, err := accounts.GetByID(ctx, account.ID)
		require.NoError(t, err)
		require.Equal(t, "alice", byID.Login)
		require.Equal(t, models.RoleUser, byID.Role)

		byLogin, err := accounts.GetByLogin(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, account.ID, byLogin.ID)
	})

	t.Run("unique login constraint", func(t *testing.T) {
		err := accounts.Create(ctx, makeAccount("alice", models.RoleUser))
		require.ErrorIs(t, err, store.ErrAccountAlreadyExists)
	})

	t.Run("count and exists by role", func(t *testing.T) {
		exists, err := accounts.ExistsAnyWithRole(ctx, models.RoleAdmin)
		require.NoError(t, err)
		require.False(t, exists)

		require.NoError(t, accounts.Create(ctx, makeAccount("root", models.RoleAdmin)))

		count, err := accounts.CountByRole(ctx, models.RoleAdmin)
		require.NoError(t, err)
		require.Equal(t, int64(1), count)
	})

	t.Run("role guard in transaction", func(t *testing.T) {
		root, err := accounts.GetByLogin(ctx, "root")
		require.NoError(t, err)

		// root is the only admin at this point.
		_, err = accounts.UpdateRole(ctx, root.ID, models.RoleUser)
		require.ErrorIs(t, err, store.ErrLastAdmin)

		require.ErrorIs(t, accounts.Delete(ctx, root.ID), store.ErrLastAdmin)

		// Add a second admin and the same mutations pass.
		second := makeAccount("root2", models.RoleAdmin)
		require.NoError(t, accounts.Create(ctx, second))

		updated, err := accounts.UpdateRole(ctx, second.ID, models.RoleUser)
		require.NoError(t, err)
		require.Equal(t, models.RoleUser, updated.Role)
	})

	t.Run("concurrent demotions leave one admin", func(t *testing.T) {
		// Two admins, two concurrent demotions: exactly one must fail.
		a := makeAccount("race-a", models.RoleAdmin)
		b := makeAccount("race-b", models.RoleAdmin)
		require.NoError(t, accounts.Create(ctx, a))
		require.NoError(t, accounts.Create(ctx, b))

		// Demote the surviving admin from the previous subtest so only the
		// race pair holds the role.
		root, err := accounts.GetByLogin(ctx, "root")
		require.NoError(t, err)
		_, err = accounts.UpdateRole(ctx, root.ID, models.RoleUser)
		require.NoError(t, err)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i, id := range []uuid.UUID{a.ID, b.ID} {
			wg.Add(1)
			go func(i int, id uuid.UUID) {
				defer wg.Done()
				_, errs[i] = accounts.UpdateRole(ctx, id, models.RoleUser)
			}(i, id)
		}
		wg.Wait()

		count, err := accounts.CountByRole(ctx, models.RoleAdmin)
		require.NoError(t, err)
		require.Equal(t, int64(1), count)

		failures := 0
		for _, err := range errs {
			if err != nil {
				require.ErrorIs(t, err, store.ErrLastAdmin)
				failures++
			}
		}
		require.Equal(t, 1, failures)
	})
}

func TestIntegration_TaskLifecycle(t *testing.T) {
	ctx := context.Background()
	pool, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	tasks := NewTaskStore(pool)

	task := &models.Task{
		Title:        "provision database",
		Description:  "set up the production postgres instance",
		CreationDate: time.Now().UTC(),
	}
	require.NoError(t, tasks.Create(ctx, task))
	require.NotZero(t, task.ID)

	t.Run("read back", func(t *testing.T) {
		got, err := tasks.Get(ctx, task.ID)
		require.NoError(t, err)
		require.Equal(t, task.Title, got.Title)
		require.False(t, got.Completed)
	})

	t.Run("update", func(t *testing.T) {
		task.Completed = true
		require.NoError(t, tasks.Update(ctx, task))

		got, err := tasks.Get(ctx, task.ID)
		require.NoError(t, err)
		require.True(t, got.Completed)
	})

	t.Run("list ordering and paging", func(t *testing.T) {
		base := time.Now().UTC()
		for i := 0; i < 12; i++ {
			require.NoError(t, tasks.Create(ctx, &models.Task{
				Title:        fmt.Sprintf("task-%d", i),
				CreationDate: base.Add(time.Duration(i) * time.Second),
			}))
		}

		page, total, err := tasks.List(ctx, store.Page{Number: 0, Size: 10})
		require.NoError(t, err)
		require.Equal(t, int64(13), total)
		require.Len(t, page, 10)
		require.True(t, page[0].CreationDate.Before(page[9].CreationDate) ||
			page[0].CreationDate.Equal(page[9].CreationDate))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, tasks.Delete(ctx, task.ID))
		_, err := tasks.Get(ctx, task.ID)
		require.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("delete missing", func(t *testing.T) {
		require.ErrorIs(t, tasks.Delete(ctx, 99999), store.ErrTaskNotFound)
	})
}
