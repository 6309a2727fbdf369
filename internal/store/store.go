package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/taskforge/taskforge/internal/models"
)

// Sentinel errors for common error conditions
var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountAlreadyExists = errors.New("account already exists")
	ErrTaskNotFound         = errors.New("task not found")

	// ErrLastAdmin is returned by guarded role changes and deletions when the
	// mutation would remove the last ADMIN account. The count check and the
	// mutation run inside one transaction so concurrent demotions cannot both
	// pass.
	ErrLastAdmin = errors.New("last admin account")
)

// Page describes a pagination window for list operations.
type Page struct {
	Number int // zero-based page number
	Size   int // items per page
}

// Offset returns the row offset for this page.
func (p Page) Offset() int {
	return p.Number * p.Size
}

// AccountStore defines the interface for account storage operations.
type AccountStore interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	GetByLogin(ctx context.Context, login string) (*models.Account, error)
	List(ctx context.Context, page Page) ([]*models.Account, int64, error)
	CountByRole(ctx context.Context, role models.Role) (int64, error)
	ExistsAnyWithRole(ctx context.Context, role models.Role) (bool, error)

	// Update persists login/password changes. A login collision surfaces as
	// ErrAccountAlreadyExists.
	Update(ctx context.Context, account *models.Account) error

	// UpdateRole changes the account's role. Demoting the last remaining
	// ADMIN fails with ErrLastAdmin; the count check and the update are
	// atomic with respect to concurrent role mutations.
	UpdateRole(ctx context.Context, id uuid.UUID, newRole models.Role) (*models.Account, error)

	// Delete removes the account. Deleting the last remaining ADMIN fails
	// with ErrLastAdmin under the same atomicity guarantee as UpdateRole.
	Delete(ctx context.Context, id uuid.UUID) error
}

// TaskStore defines the interface for task storage operations.
type TaskStore interface {
	Create(ctx context.Context, task *models.Task) error
	Get(ctx context.Context, id int64) (*models.Task, error)
	List(ctx context.Context, page Page) ([]*models.Task, int64, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id int64) error
}
