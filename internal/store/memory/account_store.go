package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/taskforge/taskforge/internal/models"
	"github.com/taskforge/taskforge/internal/store"
)

// AccountStore implements store.AccountStore using in-memory storage.
// This implementation is for testing and development only - data is lost on
// restart. The mutex serializes the admin-count check with the mutation, which
// gives the same guarantee the postgres store gets from row locks.
type AccountStore struct {
	mu sync.RWMutex

	accounts        map[uuid.UUID]*models.Account // id -> Account
	accountsByLogin map[string]*models.Account    // login -> Account
}

// NewAccountStore creates a new in-memory account store.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts:        make(map[uuid.UUID]*models.Account),
		accountsByLogin: make(map[string]*models.Account),
	}
}

// Create creates a new account in memory.
func (s *AccountStore) Create(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[account.ID]; exists {
		return store.ErrAccountAlreadyExists
	}
	if _, exists := s.accountsByLogin[account.Login]; exists {
		return store.ErrAccountAlreadyExists
	}

	// Clone to avoid external modifications
	clone := *account
	s.accounts[clone.ID] = &clone
	s.accountsByLogin[clone.Login] = &clone

	return nil
}

// GetByID retrieves an account by ID.
func (s *AccountStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, exists := s.accounts[id]
	if !exists {
		return nil, store.ErrAccountNotFound
	}

	clone := *account
	return &clone, nil
}

// GetByLogin retrieves an account by its login. Lookups are case-sensitive.
func (s *AccountStore) GetByLogin(ctx context.Context, login string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, exists := s.accountsByLogin[login]
	if !exists {
		return nil, store.ErrAccountNotFound
	}

	clone := *account
	return &clone, nil
}

// List returns a page of accounts ordered by login, plus the total count.
func (s *AccountStore) List(ctx context.Context, page store.Page) ([]*models.Account, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*models.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		clone := *a
		all = append(all, &clone)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Login < all[j].Login
	})

	total := int64(len(all))
	start := page.Offset()
	if start >= len(all) {
		return []*models.Account{}, total, nil
	}
	end := start + page.Size
	if end > len(all) {
		end = len(all)
	}

	return all[start:end], total, nil
}

// CountByRole returns the number of accounts holding the given role.
func (s *AccountStore) CountByRole(ctx context.Context, role models.Role) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.countByRoleLocked(role), nil
}

// ExistsAnyWithRole reports whether at least one account holds the role.
func (s *AccountStore) ExistsAnyWithRole(ctx context.Context, role models.Role) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.countByRoleLocked(role) > 0, nil
}

// Update persists login/password changes for an existing account.
func (s *AccountStore) Update(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.accounts[account.ID]
	if !exists {
		return store.ErrAccountNotFound
	}

	if account.Login != current.Login {
		if _, taken := s.accountsByLogin[account.Login]; taken {
			return store.ErrAccountAlreadyExists
		}
		delete(s.accountsByLogin, current.Login)
	}

	clone := *account
	clone.UpdatedAt = time.Now().UTC()
	s.accounts[clone.ID] = &clone
	s.accountsByLogin[clone.Login] = &clone

	return nil
}

// UpdateRole changes an account's role, refusing to demote the last ADMIN.
func (s *AccountStore) UpdateRole(ctx context.Context, id uuid.UUID, newRole models.Role) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, exists := s.accounts[id]
	if !exists {
		return nil, store.ErrAccountNotFound
	}

	if account.Role == models.RoleAdmin && newRole != models.RoleAdmin &&
		s.countByRoleLocked(models.RoleAdmin) <= 1 {
		return nil, store.ErrLastAdmin
	}

	account.Role = newRole
	account.UpdatedAt = time.Now().UTC()

	clone := *account
	return &clone, nil
}

// Delete removes an account, refusing to delete the last ADMIN.
func (s *AccountStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, exists := s.accounts[id]
	if !exists {
		return store.ErrAccountNotFound
	}

	if account.Role == models.RoleAdmin && s.countByRoleLocked(models.RoleAdmin) <= 1 {
		return store.ErrLastAdmin
	}

	delete(s.accounts, id)
	delete(s.accountsByLogin, account.Login)

	return nil
}

func (s *AccountStore) countByRoleLocked(role models.Role) int64 {
	var count int64
	for _, a := range s.accounts {
		if a.Role == role {
			count++
		}
	}
	return count
}
