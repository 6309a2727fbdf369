package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/taskforge/taskforge/internal/models"
	"github.com/taskforge/taskforge/internal/store"
)

// AccountStore implements store.AccountStore using PostgreSQL.
type AccountStore struct {
	pool *pgxpool.Pool
}

// NewAccountStore creates a new PostgreSQL-backed account store.
// It shares the connection pool with other stores.
func NewAccountStore(pool *pgxpool.Pool) *AccountStore {
	return &AccountStore{
		pool: pool,
	}
}

const accountColumns = `id, login, password_hash, role, created_at, updated_at`

func scanAccount(row pgx.Row) (*models.Account, error) {
	var a models.Account
	err := row.Scan(
		&a.ID,
		&a.Login,
		&a.PasswordHash,
		&a.Role,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrAccountNotFound
		}
		return nil, mapPostgresError(err)
	}
	return &a, nil
}

// Create creates a new account in the database. A login collision surfaces as
// store.ErrAccountAlreadyExists via the accounts_login_key unique constraint.
func (s *AccountStore) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (id, login, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.pool.Exec(ctx, query,
		account.ID,
		account.Login,
		account.PasswordHash,
		account.Role,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("account_id", account.ID.String()).
		Str("role", string(account.Role)).
		Msg("Created account")

	return nil
}

// GetByID retrieves an account by ID.
func (s *AccountStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, store.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return account, nil
}

// GetByLogin retrieves an account by its login. Lookups are case-sensitive.
func (s *AccountStore) GetByLogin(ctx context.Context, login string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE login = $1`

	account, err := scanAccount(s.pool.QueryRow(ctx, query, login))
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, store.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account by login: %w", err)
	}

	return account, nil
}

// List returns a page of accounts ordered by login, plus the total count.
func (s *AccountStore) List(ctx context.Context, page store.Page) ([]*models.Account, int64, error) {
	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count accounts: %w", mapPostgresError(err))
	}

	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		ORDER BY login
		LIMIT $1 OFFSET $2
	`

	rows, err := s.pool.Query(ctx, query, page.Size, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list accounts: %w", mapPostgresError(err))
	}
	defer rows.Close()

	accounts := []*models.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, total, nil
}

// CountByRole returns the number of accounts holding the given role.
func (s *AccountStore) CountByRole(ctx context.Context, role models.Role) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM accounts WHERE role = $1`, role).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count accounts by role: %w", mapPostgresError(err))
	}
	return count, nil
}

// ExistsAnyWithRole reports whether at least one account holds the role.
func (s *AccountStore) ExistsAnyWithRole(ctx context.Context, role models.Role) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM accounts WHERE role = $1)`, role).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check role existence: %w", mapPostgresError(err))
	}
	return exists, nil
}

// Update persists login/password changes for an existing account.
func (s *AccountStore) Update(ctx context.Context, account *models.Account) error {
	account.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE accounts SET
			login = $2,
			password_hash = $3,
			updated_at = $4
		WHERE id = $1
	`

	result, err := s.pool.Exec(ctx, query,
		account.ID,
		account.Login,
		account.PasswordHash,
		account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrAccountNotFound
	}

	log.Debug().
		Str("account_id", account.ID.String()).
		Msg("Updated account")

	return nil
}

// UpdateRole changes an account's role, refusing to demote the last ADMIN.
// Every role mutation locks the admin rows first, in id order, before
// touching the target row. Concurrent demotions of the "last two" admins
// serialize on those locks instead of both observing count == 2, and the
// fixed lock order keeps two mutations from deadlocking each other.
func (s *AccountStore) UpdateRole(ctx context.Context, id uuid.UUID, newRole models.Role) (*models.Account, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", mapPostgresError(err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	adminCount, err := lockAdminRows(ctx, tx)
	if err != nil {
		return nil, err
	}

	account, err := scanAccount(tx.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}

	if account.Role == models.RoleAdmin && newRole != models.RoleAdmin && adminCount <= 1 {
		return nil, store.ErrLastAdmin
	}

	account.Role = newRole
	account.UpdatedAt = time.Now().UTC()

	_, err = tx.Exec(ctx,
		`UPDATE accounts SET role = $2, updated_at = $3 WHERE id = $1`,
		account.ID, account.Role, account.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update role: %w", mapPostgresError(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit role update: %w", mapPostgresError(err))
	}

	log.Info().
		Str("account_id", id.String()).
		Str("role", string(newRole)).
		Msg("Updated account role")

	return account, nil
}

// Delete removes an account, refusing to delete the last ADMIN. Uses the same
// locking discipline as UpdateRole.
func (s *AccountStore) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", mapPostgresError(err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	adminCount, err := lockAdminRows(ctx, tx)
	if err != nil {
		return err
	}

	account, err := scanAccount(tx.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return err
	}

	if account.Role == models.RoleAdmin && adminCount <= 1 {
		return store.ErrLastAdmin
	}

	_, err = tx.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", mapPostgresError(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit account deletion: %w", mapPostgresError(err))
	}

	log.Info().
		Str("account_id", id.String()).
		Msg("Deleted account")

	return nil
}

// lockAdminRows locks every ADMIN row in the current transaction, in id
// order, and returns the admin count observed under the lock.
func lockAdminRows(ctx context.Context, tx pgx.Tx) (int64, error) {
	rows, err := tx.Query(ctx,
		`SELECT id FROM accounts WHERE role = $1 ORDER BY id FOR UPDATE`, models.RoleAdmin)
	if err != nil {
		return 0, fmt.Errorf("failed to lock admin rows: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var count int64
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return 0, fmt.Errorf("failed to scan admin row: %w", err)
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("error iterating admin rows: %w", err)
	}

	return count, nil
}
