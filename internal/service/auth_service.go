package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/taskforge/taskforge/internal/auth"
	"github.com/taskforge/taskforge/internal/models"
	"github.com/taskforge/taskforge/internal/store"
)

// BootstrapAdminLogin is the login of the account created at first boot when
// no ADMIN account exists yet.
const BootstrapAdminLogin = "admin"

// AuthService handles login, registration, and the first-boot admin
// bootstrap.
type AuthService struct {
	accounts store.AccountStore
	hasher   *auth.PasswordHasher
	tokens   *auth.TokenIssuer
}

// NewAuthService creates an authentication service.
func NewAuthService(accounts store.AccountStore, hasher *auth.PasswordHasher, tokens *auth.TokenIssuer) *AuthService {
	return &AuthService{
		accounts: accounts,
		hasher:   hasher,
		tokens:   tokens,
	}
}

// Login verifies the credentials and returns a signed bearer token bound to
// the account's login.
func (s *AuthService) Login(ctx context.Context, login, password string) (string, error) {
	account, err := s.accounts.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to look up account: %w", err)
	}

	match, err := s.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		return "", fmt.Errorf("failed to verify password: %w", err)
	}
	if !match {
		log.Warn().Str("login", login).Msg("Login failed: wrong password")
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(account.Login)
	if err != nil {
		return "", err
	}

	log.Info().Str("login", login).Msg("Login succeeded")
	return token, nil
}

// Register creates a new account. The role is always USER; there is no path
// to create an ADMIN through registration.
func (s *AuthService) Register(ctx context.Context, login, password string) (*models.Account, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := &models.Account{
		ID:           uuid.New(),
		Login:        login,
		PasswordHash: hash,
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	log.Info().Str("login", login).Msg("Registered account")
	return account, nil
}

// BootstrapAdmin creates the default admin account if no ADMIN account exists
// yet. It runs once at startup and is a no-op on an already-bootstrapped
// system.
func (s *AuthService) BootstrapAdmin(ctx context.Context, password string) error {
	exists, err := s.accounts.ExistsAnyWithRole(ctx, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to check for admin account: %w", err)
	}
	if exists {
		log.Debug().Msg("Admin account already exists, skipping bootstrap")
		return nil
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	admin := &models.Account{
		ID:           uuid.New(),
		Login:        BootstrapAdminLogin,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.accounts.Create(ctx, admin); err != nil {
		// A concurrent instance may have bootstrapped first.
		if errors.Is(err, store.ErrAccountAlreadyExists) {
			return nil
		}
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	log.Info().Str("login", BootstrapAdminLogin).Msg("Created default admin account")
	return nil
}
