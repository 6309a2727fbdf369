package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/taskforge/taskforge/internal/auth"
	"github.com/taskforge/taskforge/internal/models"
	"github.com/taskforge/taskforge/internal/store"
)

// UserService implements account administration. The privileged mutations
// (role change, deletion) carry the role-invariant rules that keep at least
// one ADMIN in the system; the last-admin count check itself is pushed into
// the store so it shares a transaction with the mutation.
type UserService struct {
	accounts store.AccountStore
	hasher   *auth.PasswordHasher
}

// NewUserService creates a user administration service.
func NewUserService(accounts store.AccountStore, hasher *auth.PasswordHasher) *UserService {
	return &UserService{
		accounts: accounts,
		hasher:   hasher,
	}
}

// Get returns the account with the given ID.
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return s.accounts.GetByID(ctx, id)
}

// List returns a page of accounts plus the total count.
func (s *UserService) List(ctx context.Context, page store.Page) ([]*models.Account, int64, error) {
	return s.accounts.List(ctx, page)
}

// ChangeRole assigns a new role to the target account.
//
// Rules, in order: an ADMIN may never change its own role through this path,
// and the last remaining ADMIN may not be demoted. The self-check runs first
// so a sole admin targeting itself sees the self-change error, not the
// last-admin error.
func (s *UserService) ChangeRole(ctx context.Context, targetID uuid.UUID, newRole models.Role, acting *auth.Principal) (*models.Account, error) {
	if acting.ID == targetID && acting.Role == models.RoleAdmin {
		log.Warn().Str("login", acting.Login).Msg("Self role change attempt by admin")
		return nil, ErrSelfRoleChange
	}

	account, err := s.accounts.UpdateRole(ctx, targetID, newRole)
	if err != nil {
		if errors.Is(err, store.ErrLastAdmin) {
			log.Warn().Str("target_id", targetID.String()).Msg("Attempt to demote the last admin")
			return nil, ErrLastAdminDemotion
		}
		return nil, err
	}

	log.Info().
		Str("target_id", targetID.String()).
		Str("new_role", string(newRole)).
		Str("acting", acting.Login).
		Msg("Changed account role")

	return account, nil
}

// Delete removes the target account.
//
// Rules, in order: no account may delete itself, and the last remaining
// ADMIN may not be deleted.
func (s *UserService) Delete(ctx context.Context, targetID uuid.UUID, acting *auth.Principal) error {
	if acting.ID == targetID {
		log.Warn().Str("login", acting.Login).Msg("Self deletion attempt")
		return ErrSelfDeletion
	}

	if err := s.accounts.Delete(ctx, targetID); err != nil {
		if errors.Is(err, store.ErrLastAdmin) {
			log.Warn().Str("target_id", targetID.String()).Msg("Attempt to delete the last admin")
			return ErrLastAdminDeletion
		}
		return err
	}

	log.Info().
		Str("target_id", targetID.String()).
		Str("acting", acting.Login).
		Msg("Deleted account")

	return nil
}

// ProfileUpdate carries optional login and password changes. Nil fields are
// left untouched.
type ProfileUpdate struct {
	Login    *string
	Password *string
}

// Update changes the target account's login and/or password. Permitted for
// the account itself or any ADMIN; everyone else gets ErrAccessDenied. An
// unchanged login is a no-op; a collision surfaces as the store's
// ErrAccountAlreadyExists from its unique constraint.
func (s *UserService) Update(ctx context.Context, targetID uuid.UUID, update ProfileUpdate, acting *auth.Principal) (*models.Account, error) {
	if acting.ID != targetID && acting.Role != models.RoleAdmin {
		log.Warn().
			Str("login", acting.Login).
			Str("target_id", targetID.String()).
			Msg("Unauthorized profile update attempt")
		return nil, auth.ErrAccessDenied
	}

	account, err := s.accounts.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	changed := false

	if update.Login != nil && *update.Login != "" && *update.Login != account.Login {
		account.Login = *update.Login
		changed = true
	}

	if update.Password != nil && *update.Password != "" {
		hash, err := s.hasher.Hash(*update.Password)
		if err != nil {
			return nil, err
		}
		account.PasswordHash = hash
		changed = true
	}

	if !changed {
		return account, nil
	}

	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	log.Info().
		Str("target_id", targetID.String()).
		Str("acting", acting.Login).
		Msg("Updated account profile")

	return account, nil
}
